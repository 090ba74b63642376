package trip

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"quicklift/internal/domain/geo"
)

// Trip is the domain entity corresponding to the `trips` table.
type Trip struct {
	// Identity & audit
	ID         string
	TripNumber string
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// Actors
	RiderID  string
	DriverID *string // nil until accepted

	// Route
	PickupAddress      string
	DestinationAddress string
	Pickup             geo.Coordinate
	Destination        geo.Coordinate

	// Core state
	VehicleClass VehicleClass
	Status       Status

	// Money
	Fare          float64 // estimate at booking, final on completion
	PaymentMethod string
	Paid          bool

	// Feedback
	Rating *float64
	Review *string

	Notes string

	// Lifecycle timestamps, each set at most once, in order
	RequestedAt time.Time
	AcceptedAt  *time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time
}

var (
	ErrRiderRequired      = errors.New("rider id is required")
	ErrTripNumberRequired = errors.New("trip number is required")
	ErrPickupRequired     = errors.New("pickup address is required")
	ErrDriverRequired     = errors.New("driver id is required")
	ErrAlreadyAssigned    = errors.New("driver already assigned")
	ErrInvalidRating      = errors.New("rating must be between 1.0 and 5.0")

	// ErrInvalidTransition is the root of every precondition failure below;
	// errors.Is(err, ErrInvalidTransition) matches all of them.
	ErrInvalidTransition = errors.New("invalid trip status transition")

	ErrNotAvailableForAccept = fmt.Errorf("%w: trip is not available for acceptance", ErrInvalidTransition)
	ErrNotAccepted           = fmt.Errorf("%w: trip is not accepted", ErrInvalidTransition)
	ErrNotStarted            = fmt.Errorf("%w: trip is not started", ErrInvalidTransition)
	ErrCancelCompleted       = fmt.Errorf("%w: cannot cancel completed trip", ErrInvalidTransition)
	ErrRateNotCompleted      = fmt.Errorf("%w: can only rate completed trips", ErrInvalidTransition)
)

// NewTrip creates a trip in REQUESTED state with the fare estimate attached.
func NewTrip(tripNumber, riderID, pickupAddress, destinationAddress string, pickup, destination geo.Coordinate, class VehicleClass, estimatedFare float64) (*Trip, error) {
	if tripNumber = strings.TrimSpace(tripNumber); tripNumber == "" {
		return nil, ErrTripNumberRequired
	}
	if riderID = strings.TrimSpace(riderID); riderID == "" {
		return nil, ErrRiderRequired
	}
	if strings.TrimSpace(pickupAddress) == "" || strings.TrimSpace(destinationAddress) == "" {
		return nil, ErrPickupRequired
	}
	if !class.Valid() {
		return nil, ErrInvalidVehicleClass
	}
	if err := pickup.Validate(); err != nil {
		return nil, err
	}
	if err := destination.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Trip{
		TripNumber:         tripNumber,
		CreatedAt:          now,
		UpdatedAt:          now,
		RiderID:            riderID,
		PickupAddress:      strings.TrimSpace(pickupAddress),
		DestinationAddress: strings.TrimSpace(destinationAddress),
		Pickup:             pickup,
		Destination:        destination,
		VehicleClass:       class,
		Status:             StatusRequested,
		Fare:               estimatedFare,
		RequestedAt:        now,
	}, nil
}

// Accept sets the driver and moves REQUESTED -> ACCEPTED.
func (trip *Trip) Accept(driverID string) error {
	if driverID = strings.TrimSpace(driverID); driverID == "" {
		return ErrDriverRequired
	}
	if trip.DriverID != nil && *trip.DriverID != "" {
		return ErrAlreadyAssigned
	}
	if trip.Status != StatusRequested {
		return ErrNotAvailableForAccept
	}

	now := time.Now().UTC()
	trip.DriverID = &driverID
	trip.AcceptedAt = &now
	trip.setStatus(StatusAccepted)
	return nil
}

// Start moves ACCEPTED -> STARTED.
func (trip *Trip) Start() error {
	if trip.Status != StatusAccepted {
		return ErrNotAccepted
	}
	now := time.Now().UTC()
	trip.StartedAt = &now
	trip.setStatus(StatusStarted)
	return nil
}

// Complete moves STARTED -> COMPLETED and finalizes the fare.
func (trip *Trip) Complete(finalFare float64) error {
	if trip.Status != StatusStarted {
		return ErrNotStarted
	}
	now := time.Now().UTC()
	trip.CompletedAt = &now
	trip.Fare = finalFare
	trip.setStatus(StatusCompleted)
	return nil
}

// Cancel moves any non-terminal status to CANCELLED. A cancelled trip keeps
// its driver reference for audit.
func (trip *Trip) Cancel() error {
	if trip.Status == StatusCompleted {
		return ErrCancelCompleted
	}
	if trip.Status == StatusCancelled {
		return fmt.Errorf("%w: trip is already cancelled", ErrInvalidTransition)
	}
	now := time.Now().UTC()
	trip.CancelledAt = &now
	trip.setStatus(StatusCancelled)
	return nil
}

// Rate attaches rating and review; only valid on a COMPLETED trip.
func (trip *Trip) Rate(rating float64, review string) error {
	if trip.Status != StatusCompleted {
		return ErrRateNotCompleted
	}
	if rating < 1.0 || rating > 5.0 {
		return ErrInvalidRating
	}
	trip.Rating = &rating
	if review = strings.TrimSpace(review); review != "" {
		trip.Review = &review
	}
	trip.touch()
	return nil
}

// MarkPaid flips the paid flag.
func (trip *Trip) MarkPaid() {
	trip.Paid = true
	trip.touch()
}

// SetPaymentMethod records the rider's chosen payment method.
func (trip *Trip) SetPaymentMethod(method string) {
	trip.PaymentMethod = strings.TrimSpace(method)
	trip.touch()
}

// Active reports whether the trip currently occupies a driver.
func (trip *Trip) Active() bool {
	return trip.Status == StatusAccepted || trip.Status == StatusStarted
}

// ----- internal helpers -----

func (trip *Trip) setStatus(status Status) {
	trip.Status = status
	trip.touch()
}

func (trip *Trip) touch() {
	trip.UpdatedAt = time.Now().UTC()
}
