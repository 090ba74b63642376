// Package dispatch implements the trip lifecycle engine: booking, driver
// matching, the trip state machine and the event fan-out that follows every
// transition.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"quicklift/internal/contracts"
	"quicklift/internal/domain/driver"
	"quicklift/internal/domain/geo"
	"quicklift/internal/domain/trip"
	"quicklift/internal/fare"
	"quicklift/internal/logger"
	"quicklift/internal/ports"
	"quicklift/internal/relay"
)

const producerName = "dispatch-service"

// Mirror forwards domain events to the message broker so other services see
// the same stream websocket clients do. All methods are fire-and-forget from
// the engine's perspective; failures are logged, never returned to callers.
type Mirror interface {
	TripStatus(ctx context.Context, msg contracts.TripStatusMessage) error
	TripOffer(ctx context.Context, msg contracts.TripOfferMessage) error
	DriverStatus(ctx context.Context, msg contracts.DriverStatusMessage) error
	Location(ctx context.Context, msg contracts.LocationUpdateMessage) error
}

// LocationIndex keeps the geo index in sync with driver position reports.
type LocationIndex interface {
	Upsert(ctx context.Context, driverID string, location geo.Coordinate) error
	Remove(ctx context.Context, driverID string) error
}

// Deps wires the service's collaborators. Mirror, Index and Match are
// optional; Match defaults to FirstMatch over Drivers.
type Deps struct {
	Trips   ports.TripRepository
	Drivers ports.DriverRepository
	Users   ports.UserRepository
	UoW     ports.UnitOfWork
	Fares   *fare.Calculator
	Relay   *relay.Broker
	Mirror  Mirror
	Index   LocationIndex
	Match   MatchStrategy
	Log     *logger.Logger
}

// Service implements ports.DispatchService.
type Service struct {
	trips   ports.TripRepository
	drivers ports.DriverRepository
	users   ports.UserRepository
	uow     ports.UnitOfWork
	fares   *fare.Calculator
	relay   *relay.Broker
	mirror  Mirror
	index   LocationIndex
	match   MatchStrategy
	locks   *keyedMutex
	log     *logger.Logger
}

func NewService(deps Deps) *Service {
	if deps.Match == nil {
		deps.Match = &FirstMatch{Drivers: deps.Drivers}
	}
	if deps.Log == nil {
		deps.Log = logger.New(producerName)
	}
	return &Service{
		trips:   deps.Trips,
		drivers: deps.Drivers,
		users:   deps.Users,
		uow:     deps.UoW,
		fares:   deps.Fares,
		relay:   deps.Relay,
		mirror:  deps.Mirror,
		index:   deps.Index,
		match:   deps.Match,
		locks:   newKeyedMutex(),
		log:     deps.Log,
	}
}

// ----- Rider operations -----

// Estimate prices a route without creating a trip.
func (s *Service) Estimate(ctx context.Context, in ports.EstimateInput) (ports.EstimateResult, error) {
	if in.Pickup == nil || in.Destination == nil {
		return ports.EstimateResult{}, fare.ErrMissingCoordinates
	}
	pickup, err := geo.NewCoordinate(in.Pickup.Latitude, in.Pickup.Longitude)
	if err != nil {
		return ports.EstimateResult{}, err
	}
	destination, err := geo.NewCoordinate(in.Destination.Latitude, in.Destination.Longitude)
	if err != nil {
		return ports.EstimateResult{}, err
	}

	distance := s.fares.Distance(pickup, destination)
	return ports.EstimateResult{
		DistanceKM:    distance,
		RatePerKM:     s.fares.RatePerKM(),
		EstimatedFare: s.fares.Amount(distance, in.Tolls),
	}, nil
}

// BookTrip creates a REQUESTED trip and attempts to dispatch it. The trip is
// persisted before matching, so ErrNoDriverAvailable still returns a valid
// BookTripResult; the caller decides how to surface it.
func (s *Service) BookTrip(ctx context.Context, in ports.BookTripInput) (ports.BookTripResult, error) {
	pickup, err := geo.NewCoordinate(in.Pickup.Latitude, in.Pickup.Longitude)
	if err != nil {
		return ports.BookTripResult{}, err
	}
	destination, err := geo.NewCoordinate(in.Destination.Latitude, in.Destination.Longitude)
	if err != nil {
		return ports.BookTripResult{}, err
	}

	number, err := s.trips.NextTripNumber(ctx)
	if err != nil {
		return ports.BookTripResult{}, fmt.Errorf("issue trip number: %w", err)
	}

	estimate := s.fares.Amount(geo.HaversineKM(pickup, destination), 0)
	t, err := trip.NewTrip(number, in.RiderID, in.PickupAddress, in.DestinationAddress, pickup, destination, in.VehicleClass, estimate)
	if err != nil {
		return ports.BookTripResult{}, err
	}
	t.ID = uuid.NewString()
	t.Notes = in.Notes
	t.PaymentMethod = in.PaymentMethod

	if err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		return s.trips.Create(ctx, t)
	}); err != nil {
		return ports.BookTripResult{}, fmt.Errorf("persist trip: %w", err)
	}

	ctx = s.log.WithTripID(ctx, t.ID)
	s.publishTripStatus(ctx, t)
	s.log.Info(ctx, "trip_booked", "trip created", map[string]any{
		"trip_number": t.TripNumber, "vehicle_class": t.VehicleClass.String(), "estimated_fare": estimate,
	})

	result := ports.BookTripResult{
		TripID:        t.ID,
		TripNumber:    t.TripNumber,
		Status:        t.Status.String(),
		EstimatedFare: t.Fare,
	}

	matched, err := s.match.Match(ctx, t.VehicleClass, pickup)
	if err != nil {
		if errors.Is(err, ErrNoDriverAvailable) {
			s.log.Info(ctx, "dispatch_unmatched", "no driver available for booking", map[string]any{
				"vehicle_class": t.VehicleClass.String(),
			})
			return result, ErrNoDriverAvailable
		}
		return result, fmt.Errorf("match driver: %w", err)
	}

	result.OfferedDriverID = matched.ID
	s.publishTripOffer(ctx, t, matched)
	s.log.Info(ctx, "dispatch_offered", "trip offered to driver", map[string]any{"driver_id": matched.ID})
	return result, nil
}

// CancelTrip moves any non-terminal trip to CANCELLED. A driver who had only
// accepted (not yet started) is released back to the online pool; a driver
// mid-trip stays BUSY and re-sets availability through SetDriverStatus.
func (s *Service) CancelTrip(ctx context.Context, tripID string) (ports.CancelTripResult, error) {
	unlock := s.locks.lockTrip(tripID)
	defer unlock()

	t, err := s.getTrip(ctx, tripID)
	if err != nil {
		return ports.CancelTripResult{}, err
	}

	prior := t.Status
	if err := t.Cancel(); err != nil {
		return ports.CancelTripResult{}, err
	}

	var released *driver.Driver
	if t.DriverID != nil && prior == trip.StatusAccepted {
		unlockDriver := s.locks.lockDriver(*t.DriverID)
		defer unlockDriver()
		d, err := s.getDriver(ctx, *t.DriverID)
		if err != nil {
			return ports.CancelTripResult{}, err
		}
		if err := d.Release(); err != nil {
			return ports.CancelTripResult{}, err
		}
		released = d
	}

	if err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.trips.Update(ctx, t); err != nil {
			return err
		}
		if released != nil {
			return s.drivers.Update(ctx, released)
		}
		return nil
	}); err != nil {
		return ports.CancelTripResult{}, fmt.Errorf("persist cancellation: %w", err)
	}

	ctx = s.log.WithTripID(ctx, t.ID)
	s.publishTripStatus(ctx, t)
	if released != nil {
		s.publishDriverStatus(ctx, released, t.ID)
	}
	s.log.Info(ctx, "trip_cancelled", "trip cancelled", map[string]any{"prior_status": prior.String()})

	return ports.CancelTripResult{
		TripID:      t.ID,
		Status:      t.Status.String(),
		CancelledAt: t.CancelledAt.Format(time.RFC3339),
		Message:     "trip cancelled",
	}, nil
}

// RateTrip records the rider's rating and review on a completed trip and
// folds the rating into the driver's average.
func (s *Service) RateTrip(ctx context.Context, in ports.RateTripInput) (*trip.Trip, error) {
	unlock := s.locks.lockTrip(in.TripID)
	defer unlock()

	t, err := s.getTrip(ctx, in.TripID)
	if err != nil {
		return nil, err
	}
	if in.RiderID != "" && t.RiderID != in.RiderID {
		return nil, ErrTripNotFound
	}
	alreadyRated := t.Rating != nil
	if err := t.Rate(in.Rating, in.Review); err != nil {
		return nil, err
	}

	var rated *driver.Driver
	if t.DriverID != nil && !alreadyRated {
		unlockDriver := s.locks.lockDriver(*t.DriverID)
		defer unlockDriver()
		d, err := s.getDriver(ctx, *t.DriverID)
		if err == nil {
			d.ApplyRating(in.Rating)
			rated = d
		}
	}

	if err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.trips.Update(ctx, t); err != nil {
			return err
		}
		if rated != nil {
			return s.drivers.Update(ctx, rated)
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("persist rating: %w", err)
	}
	return t, nil
}

// MarkPaid flags the trip as settled.
func (s *Service) MarkPaid(ctx context.Context, tripID string) (*trip.Trip, error) {
	return s.mutateTrip(ctx, tripID, func(t *trip.Trip) error {
		t.MarkPaid()
		return nil
	})
}

// SetPaymentMethod records the rider's payment method choice.
func (s *Service) SetPaymentMethod(ctx context.Context, tripID, method string) (*trip.Trip, error) {
	return s.mutateTrip(ctx, tripID, func(t *trip.Trip) error {
		t.SetPaymentMethod(method)
		return nil
	})
}

// ----- Driver operations -----

// AcceptTrip assigns the driver to a REQUESTED trip. Exactly one of several
// concurrent accepts for the same trip can succeed.
func (s *Service) AcceptTrip(ctx context.Context, tripID, driverID string) (*trip.Trip, error) {
	unlock := s.locks.lockTripAndDriver(tripID, driverID)
	defer unlock()

	t, err := s.getTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	d, err := s.getDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if !d.Available() {
		return nil, ErrDriverUnavailable
	}

	if err := t.Accept(driverID); err != nil {
		return nil, err
	}
	if err := d.Assign(); err != nil {
		return nil, ErrDriverUnavailable
	}

	if err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.trips.Update(ctx, t); err != nil {
			return err
		}
		return s.drivers.Update(ctx, d)
	}); err != nil {
		return nil, fmt.Errorf("persist acceptance: %w", err)
	}

	ctx = s.log.WithTripID(ctx, t.ID)
	s.publishTripStatus(ctx, t)
	s.publishDriverStatus(ctx, d, t.ID)
	s.log.Info(ctx, "trip_accepted", "driver accepted trip", map[string]any{"driver_id": d.ID})
	return t, nil
}

// StartTrip moves the driver's ACCEPTED trip to STARTED.
func (s *Service) StartTrip(ctx context.Context, tripID, driverID string) (*trip.Trip, error) {
	unlock := s.locks.lockTrip(tripID)
	defer unlock()

	t, err := s.getTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if driverID != "" && (t.DriverID == nil || *t.DriverID != driverID) {
		return nil, ErrNotTripDriver
	}
	if err := t.Start(); err != nil {
		return nil, err
	}

	if err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		return s.trips.Update(ctx, t)
	}); err != nil {
		return nil, fmt.Errorf("persist start: %w", err)
	}

	ctx = s.log.WithTripID(ctx, t.ID)
	s.publishTripStatus(ctx, t)
	s.log.Info(ctx, "trip_started", "trip started", nil)
	return t, nil
}

// CompleteTrip moves a STARTED trip to COMPLETED, fixes the final fare and
// returns the driver to the online pool with one more ride on the record.
func (s *Service) CompleteTrip(ctx context.Context, in ports.CompleteTripInput) (*trip.Trip, error) {
	unlock := s.locks.lockTrip(in.TripID)
	defer unlock()

	t, err := s.getTrip(ctx, in.TripID)
	if err != nil {
		return nil, err
	}
	if in.DriverID != "" && (t.DriverID == nil || *t.DriverID != in.DriverID) {
		return nil, ErrNotTripDriver
	}

	finalFare := t.Fare
	if in.FinalFare > 0 {
		finalFare = in.FinalFare
	}
	if err := t.Complete(finalFare); err != nil {
		return nil, err
	}

	var completed *driver.Driver
	if t.DriverID != nil {
		unlockDriver := s.locks.lockDriver(*t.DriverID)
		defer unlockDriver()
		d, err := s.getDriver(ctx, *t.DriverID)
		if err != nil {
			return nil, err
		}
		if err := d.ApplyCompletion(); err != nil {
			// Driver record already out of BUSY; complete the trip anyway
			// and flag the inconsistency.
			s.log.Error(ctx, "driver_release_skew", "driver was not busy at completion", err, map[string]any{"driver_id": d.ID})
		} else {
			completed = d
		}
	}

	if err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.trips.Update(ctx, t); err != nil {
			return err
		}
		if completed != nil {
			return s.drivers.Update(ctx, completed)
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("persist completion: %w", err)
	}

	ctx = s.log.WithTripID(ctx, t.ID)
	s.publishTripStatus(ctx, t)
	if completed != nil {
		s.publishDriverStatus(ctx, completed, t.ID)
	}
	s.log.Info(ctx, "trip_completed", "trip completed", map[string]any{"final_fare": finalFare})
	return t, nil
}

// RejectTrip acknowledges a driver's decline. No state changes: the trip
// stays REQUESTED and other drivers may still accept it. Kept as the hook
// where a per-trip declined-drivers list would go.
func (s *Service) RejectTrip(ctx context.Context, tripID, driverID string) error {
	if _, err := s.getTrip(ctx, tripID); err != nil {
		return err
	}
	s.log.Info(s.log.WithTripID(ctx, tripID), "trip_rejected", "driver declined trip offer", map[string]any{"driver_id": driverID})
	return nil
}

// SetDriverStatus flips a driver between ONLINE and OFFLINE. BUSY is owned by
// the trip lifecycle and cannot be set directly.
func (s *Service) SetDriverStatus(ctx context.Context, driverID string, status driver.Status) (*driver.Driver, error) {
	unlock := s.locks.lockDriver(driverID)
	defer unlock()

	d, err := s.getDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}

	// A rider cancelling a STARTED trip leaves its driver BUSY with no
	// active trip; that driver may re-set availability here.
	if d.Status == driver.StatusBusy {
		active, err := s.trips.ActiveForDriver(ctx, driverID)
		if err != nil {
			return nil, fmt.Errorf("check active trip: %w", err)
		}
		if active == nil {
			if err := d.Release(); err != nil {
				return nil, err
			}
		}
	}

	switch status {
	case driver.StatusOnline:
		err = d.GoOnline()
	case driver.StatusOffline:
		err = d.GoOffline()
	default:
		return nil, driver.ErrInvalidDriverStatus
	}
	if err != nil {
		return nil, err
	}

	if err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		return s.drivers.Update(ctx, d)
	}); err != nil {
		return nil, fmt.Errorf("persist driver status: %w", err)
	}

	if s.index != nil && status == driver.StatusOffline {
		if err := s.index.Remove(ctx, d.ID); err != nil {
			s.log.Error(ctx, "geo_index_remove_failed", "failed to evict driver from geo index", err, map[string]any{"driver_id": d.ID})
		}
	}

	s.publishDriverStatus(ctx, d, "")
	s.log.Info(ctx, "driver_status_changed", "driver availability changed", map[string]any{
		"driver_id": d.ID, "status": d.Status.String(),
	})
	return d, nil
}

// ReportLocation applies a driver position report: the Driver record keeps
// only the latest point, the geo index is refreshed, and riders watching an
// active trip get the update on its location topic.
func (s *Service) ReportLocation(ctx context.Context, in ports.LocationReport) error {
	location, err := geo.NewCoordinate(in.Latitude, in.Longitude)
	if err != nil {
		return err
	}
	if err := s.drivers.UpdateLocation(ctx, in.DriverID, location); err != nil {
		return err
	}

	if s.index != nil {
		if err := s.index.Upsert(ctx, in.DriverID, location); err != nil {
			s.log.Error(ctx, "geo_index_upsert_failed", "failed to refresh geo index", err, map[string]any{"driver_id": in.DriverID})
		}
	}

	reportedAt := in.ReportedAt
	if reportedAt.IsZero() {
		reportedAt = time.Now().UTC()
	}
	msg := contracts.LocationUpdateMessage{
		DriverID:       in.DriverID,
		TripID:         in.TripID,
		Location:       contracts.GeoPoint{Lat: location.Latitude, Lng: location.Longitude},
		SpeedKMH:       in.SpeedKMH,
		HeadingDegrees: in.HeadingDegrees,
		Timestamp:      reportedAt,
		Envelope:       s.envelope(),
	}
	if in.TripID != "" {
		s.relay.Publish(relay.TripLocationTopic(in.TripID), msg)
	}
	if s.mirror != nil {
		if err := s.mirror.Location(ctx, msg); err != nil {
			s.log.Error(ctx, "mirror_publish_failed", "failed to mirror location update", err, nil)
		}
	}
	return nil
}

// ----- Queries -----

func (s *Service) GetTrip(ctx context.Context, tripID string) (*trip.Trip, error) {
	return s.getTrip(ctx, tripID)
}

func (s *Service) ListRiderTrips(ctx context.Context, riderID string) ([]*trip.Trip, error) {
	return s.trips.ListByRider(ctx, riderID)
}

func (s *Service) ListDriverTrips(ctx context.Context, driverID string) ([]*trip.Trip, error) {
	return s.trips.ListByDriver(ctx, driverID)
}

func (s *Service) ListTripsByStatus(ctx context.Context, status trip.Status) ([]*trip.Trip, error) {
	if !status.Valid() {
		return nil, trip.ErrInvalidStatus
	}
	return s.trips.ListByStatus(ctx, status)
}

// AvailableTrips lists REQUESTED trips matching the driver's vehicle class.
func (s *Service) AvailableTrips(ctx context.Context, driverID string) ([]*trip.Trip, error) {
	d, err := s.getDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}
	requested, err := s.trips.ListByStatus(ctx, trip.StatusRequested)
	if err != nil {
		return nil, err
	}
	matching := make([]*trip.Trip, 0, len(requested))
	for _, t := range requested {
		if t.VehicleClass == d.VehicleClass {
			matching = append(matching, t)
		}
	}
	return matching, nil
}

func (s *Service) OnlineDrivers(ctx context.Context) ([]*driver.Driver, error) {
	return s.drivers.ListByStatus(ctx, driver.StatusOnline)
}

func (s *Service) ActiveTripForDriver(ctx context.Context, driverID string) (*trip.Trip, error) {
	if _, err := s.getDriver(ctx, driverID); err != nil {
		return nil, err
	}
	return s.trips.ActiveForDriver(ctx, driverID)
}

func (s *Service) DriverSummary(ctx context.Context, driverID string) (ports.DriverSummaryResult, error) {
	d, err := s.getDriver(ctx, driverID)
	if err != nil {
		return ports.DriverSummaryResult{}, err
	}
	trips, err := s.trips.ListByDriver(ctx, driverID)
	if err != nil {
		return ports.DriverSummaryResult{}, err
	}
	var earned float64
	for _, t := range trips {
		if t.Status == trip.StatusCompleted {
			earned += t.Fare
		}
	}
	return ports.DriverSummaryResult{
		DriverID:     d.ID,
		Status:       d.Status.String(),
		VehicleClass: d.VehicleClass.String(),
		Rating:       d.Rating,
		TotalRides:   d.TotalRides,
		TotalEarned:  earned,
	}, nil
}

// ----- Internal helpers -----

func (s *Service) getTrip(ctx context.Context, tripID string) (*trip.Trip, error) {
	t, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, ports.ErrTripNotFound) {
			return nil, ErrTripNotFound
		}
		return nil, fmt.Errorf("load trip: %w", err)
	}
	return t, nil
}

func (s *Service) getDriver(ctx context.Context, driverID string) (*driver.Driver, error) {
	d, err := s.drivers.GetByID(ctx, driverID)
	if err != nil {
		if errors.Is(err, ports.ErrDriverNotFound) {
			return nil, ErrDriverNotFound
		}
		return nil, fmt.Errorf("load driver: %w", err)
	}
	return d, nil
}

// mutateTrip serializes a simple load-mutate-persist cycle on one trip.
func (s *Service) mutateTrip(ctx context.Context, tripID string, mutate func(*trip.Trip) error) (*trip.Trip, error) {
	unlock := s.locks.lockTrip(tripID)
	defer unlock()

	t, err := s.getTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if err := mutate(t); err != nil {
		return nil, err
	}
	if err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		return s.trips.Update(ctx, t)
	}); err != nil {
		return nil, fmt.Errorf("persist trip: %w", err)
	}
	return t, nil
}

func (s *Service) envelope() contracts.Envelope {
	return contracts.Envelope{Producer: producerName, SentAt: time.Now().UTC()}
}

// publishTripStatus fans a status change out to the trip topic and, when a
// driver is attached, to that driver's status topic. Always after persist.
func (s *Service) publishTripStatus(ctx context.Context, t *trip.Trip) {
	msg := contracts.TripStatusMessage{
		TripID:     t.ID,
		TripNumber: t.TripNumber,
		Status:     t.Status.String(),
		Timestamp:  time.Now().UTC(),
		Envelope:   s.envelope(),
	}
	if t.DriverID != nil {
		msg.DriverID = *t.DriverID
	}
	if t.Status == trip.StatusCompleted {
		final := t.Fare
		msg.FinalFare = &final
	}

	s.relay.Publish(relay.TripStatusTopic(t.ID), msg)
	if t.DriverID != nil {
		s.relay.Publish(relay.DriverStatusTopic(*t.DriverID), msg)
	}
	if s.mirror != nil {
		if err := s.mirror.TripStatus(ctx, msg); err != nil {
			s.log.Error(ctx, "mirror_publish_failed", "failed to mirror trip status", err, nil)
		}
	}
}

func (s *Service) publishDriverStatus(ctx context.Context, d *driver.Driver, tripID string) {
	msg := contracts.DriverStatusMessage{
		DriverID:  d.ID,
		Status:    d.Status.String(),
		TripID:    tripID,
		Timestamp: time.Now().UTC(),
		Envelope:  s.envelope(),
	}
	s.relay.Publish(relay.DriverStatusTopic(d.ID), msg)
	if s.mirror != nil {
		if err := s.mirror.DriverStatus(ctx, msg); err != nil {
			s.log.Error(ctx, "mirror_publish_failed", "failed to mirror driver status", err, nil)
		}
	}
}

// publishTripOffer pushes a new booking onto the matched driver's requests
// topic.
func (s *Service) publishTripOffer(ctx context.Context, t *trip.Trip, d *driver.Driver) {
	msg := contracts.TripOfferMessage{
		TripID:     t.ID,
		TripNumber: t.TripNumber,
		Pickup: contracts.GeoPoint{
			Lat: t.Pickup.Latitude, Lng: t.Pickup.Longitude, Address: t.PickupAddress,
		},
		Destination: contracts.GeoPoint{
			Lat: t.Destination.Latitude, Lng: t.Destination.Longitude, Address: t.DestinationAddress,
		},
		VehicleClass:  t.VehicleClass.String(),
		EstimatedFare: t.Fare,
		Notes:         t.Notes,
		Envelope:      s.envelope(),
	}
	s.relay.Publish(relay.DriverRequestsTopic(d.ID), msg)
	if s.mirror != nil {
		if err := s.mirror.TripOffer(ctx, msg); err != nil {
			s.log.Error(ctx, "mirror_publish_failed", "failed to mirror trip offer", err, nil)
		}
	}
}
