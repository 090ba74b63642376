package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"quicklift/internal/dispatch"
	"quicklift/internal/domain/trip"
	"quicklift/internal/ports"
)

// --- Request DTOs (HTTP boundary) ---

type estimateRequest struct {
	PickupLatitude       float64 `json:"pickup_latitude"`
	PickupLongitude      float64 `json:"pickup_longitude"`
	DestinationLatitude  float64 `json:"destination_latitude"`
	DestinationLongitude float64 `json:"destination_longitude"`
	Tolls                float64 `json:"tolls,omitempty"`
}

type bookTripRequest struct {
	PickupAddress        string  `json:"pickup_address"`
	PickupLatitude       float64 `json:"pickup_latitude"`
	PickupLongitude      float64 `json:"pickup_longitude"`
	DestinationAddress   string  `json:"destination_address"`
	DestinationLatitude  float64 `json:"destination_latitude"`
	DestinationLongitude float64 `json:"destination_longitude"`
	VehicleClass         string  `json:"vehicle_class"` // SEDAN | SUV | HATCHBACK | LUXURY
	PaymentMethod        string  `json:"payment_method,omitempty"`
	Notes                string  `json:"notes,omitempty"`
}

type rateTripRequest struct {
	Rating float64 `json:"rating"`
	Review string  `json:"review,omitempty"`
}

type paymentMethodRequest struct {
	PaymentMethod string `json:"payment_method"`
}

// ----- Handler: POST /api/trips/estimate -----

func (handler *Handler) handleEstimate(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	var req estimateRequest
	if !handler.decodeStrict(ctx, w, r, 256<<10, &req) {
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, serviceTimeout)
	defer cancel()

	res, err := handler.svc.Estimate(ctxWithTimeout, ports.EstimateInput{
		Pickup:      &ports.GeoPoint{Latitude: req.PickupLatitude, Longitude: req.PickupLongitude},
		Destination: &ports.GeoPoint{Latitude: req.DestinationLatitude, Longitude: req.DestinationLongitude},
		Tolls:       req.Tolls,
	})
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, res)
}

// ----- Handler: POST /api/trips/book -----

func (handler *Handler) handleBookTrip(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	var req bookTripRequest
	if !handler.decodeStrict(ctx, w, r, 1<<20, &req) {
		return
	}

	riderID, ok := handler.riderIdentity(ctx, w, r)
	if !ok {
		return
	}

	class, err := trip.ParseVehicleClass(req.VehicleClass)
	if err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "vehicle_class must be one of: SEDAN, SUV, HATCHBACK, LUXURY", err)
		return
	}

	in := ports.BookTripInput{
		RiderID:            riderID,
		PickupAddress:      strings.TrimSpace(req.PickupAddress),
		DestinationAddress: strings.TrimSpace(req.DestinationAddress),
		Pickup:             ports.GeoPoint{Latitude: req.PickupLatitude, Longitude: req.PickupLongitude},
		Destination:        ports.GeoPoint{Latitude: req.DestinationLatitude, Longitude: req.DestinationLongitude},
		VehicleClass:       class,
		PaymentMethod:      strings.TrimSpace(req.PaymentMethod),
		Notes:              strings.TrimSpace(req.Notes),
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, serviceTimeout)
	defer cancel()

	res, err := handler.svc.BookTrip(ctxWithTimeout, in)
	// the trip is persisted even when no driver was available; the booking
	// still succeeds and a driver can pick it up later
	if err != nil && !errors.Is(err, dispatch.ErrNoDriverAvailable) {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}
	ctxWithTimeout = handler.logger.WithTripID(ctxWithTimeout, res.TripID)

	handler.jsonResponse(ctxWithTimeout, w, http.StatusCreated, res)
}

// ----- Handler: POST /api/trips/{trip_id}/cancel -----

func (handler *Handler) handleCancelTrip(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	tripID, ok := handler.tripPathID(ctx, w, r)
	if !ok {
		return
	}
	ctx = handler.logger.WithTripID(ctx, tripID)

	riderID, ok := handler.riderIdentity(ctx, w, r)
	if !ok {
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, serviceTimeout)
	defer cancel()

	if !handler.ownsTrip(ctxWithTimeout, w, tripID, riderID) {
		return
	}

	res, err := handler.svc.CancelTrip(ctxWithTimeout, tripID)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, res)
}

// ----- Handler: POST /api/trips/{trip_id}/rate -----

func (handler *Handler) handleRateTrip(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	tripID, ok := handler.tripPathID(ctx, w, r)
	if !ok {
		return
	}
	ctx = handler.logger.WithTripID(ctx, tripID)

	var req rateTripRequest
	if !handler.decodeStrict(ctx, w, r, 256<<10, &req) {
		return
	}

	riderID, ok := handler.riderIdentity(ctx, w, r)
	if !ok {
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, serviceTimeout)
	defer cancel()

	t, err := handler.svc.RateTrip(ctxWithTimeout, ports.RateTripInput{
		TripID:  tripID,
		RiderID: riderID,
		Rating:  req.Rating,
		Review:  strings.TrimSpace(req.Review),
	})
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, toTripResponse(t))
}

// ----- Handler: PATCH /api/trips/{trip_id}/pay -----

func (handler *Handler) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	tripID, ok := handler.tripPathID(ctx, w, r)
	if !ok {
		return
	}
	ctx = handler.logger.WithTripID(ctx, tripID)

	riderID, ok := handler.riderIdentity(ctx, w, r)
	if !ok {
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, serviceTimeout)
	defer cancel()

	if !handler.ownsTrip(ctxWithTimeout, w, tripID, riderID) {
		return
	}

	t, err := handler.svc.MarkPaid(ctxWithTimeout, tripID)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, toTripResponse(t))
}

// ----- Handler: PATCH /api/trips/{trip_id}/payment-method -----

func (handler *Handler) handleSetPaymentMethod(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	tripID, ok := handler.tripPathID(ctx, w, r)
	if !ok {
		return
	}
	ctx = handler.logger.WithTripID(ctx, tripID)

	var req paymentMethodRequest
	if !handler.decodeStrict(ctx, w, r, 256<<10, &req) {
		return
	}
	if strings.TrimSpace(req.PaymentMethod) == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "payment_method is required", nil)
		return
	}

	riderID, ok := handler.riderIdentity(ctx, w, r)
	if !ok {
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, serviceTimeout)
	defer cancel()

	if !handler.ownsTrip(ctxWithTimeout, w, tripID, riderID) {
		return
	}

	t, err := handler.svc.SetPaymentMethod(ctxWithTimeout, tripID, strings.TrimSpace(req.PaymentMethod))
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, toTripResponse(t))
}

// ----- Handler: GET /api/trips/my-trips -----

func (handler *Handler) handleMyTrips(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	riderID, ok := handler.riderIdentity(ctx, w, r)
	if !ok {
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, serviceTimeout)
	defer cancel()

	trips, err := handler.svc.ListRiderTrips(ctxWithTimeout, riderID)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, toTripResponses(trips))
}

// ----- Handler: GET /api/trips/{trip_id} -----

func (handler *Handler) handleGetTrip(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	tripID, ok := handler.tripPathID(ctx, w, r)
	if !ok {
		return
	}
	ctx = handler.logger.WithTripID(ctx, tripID)

	riderID, ok := handler.riderIdentity(ctx, w, r)
	if !ok {
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, serviceTimeout)
	defer cancel()

	t, err := handler.svc.GetTrip(ctxWithTimeout, tripID)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}
	// a rider only sees their own trips
	if t.RiderID != riderID {
		handler.httpError(ctxWithTimeout, w, http.StatusNotFound, ports.ErrTripNotFound.Error(), nil)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, toTripResponse(t))
}

// ownsTrip rejects operations on another rider's trip, reporting not-found to
// avoid leaking trip existence.
func (handler *Handler) ownsTrip(ctx context.Context, w http.ResponseWriter, tripID, riderID string) bool {
	t, err := handler.svc.GetTrip(ctx, tripID)
	if err != nil {
		handler.serviceError(ctx, w, err)
		return false
	}
	if t.RiderID != riderID {
		handler.httpError(ctx, w, http.StatusNotFound, ports.ErrTripNotFound.Error(), nil)
		return false
	}
	return true
}
