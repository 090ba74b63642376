package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"quicklift/internal/dispatch"
	"quicklift/internal/domain/driver"
	"quicklift/internal/domain/trip"
	"quicklift/internal/ports"
)

// --- Request DTOs (HTTP boundary) ---

type completeTripRequest struct {
	FinalFare float64 `json:"final_fare,omitempty"` // 0 keeps the estimate
}

type setDriverStatusRequest struct {
	Status string `json:"status"` // ONLINE | OFFLINE
}

type registerDriverRequest struct {
	Email         string `json:"email"`
	FullName      string `json:"full_name,omitempty"`
	Phone         string `json:"phone,omitempty"`
	LicenseNumber string `json:"license_number"`
	VehicleClass  string `json:"vehicle_class"`
	VehicleModel  string `json:"vehicle_model,omitempty"`
	VehicleColor  string `json:"vehicle_color,omitempty"`
	LicensePlate  string `json:"license_plate,omitempty"`
}

// ----- Handler: POST /api/drivers/register -----

func (handler *Handler) handleRegisterDriver(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	var req registerDriverRequest
	if !handler.decodeStrict(ctx, w, r, 256<<10, &req) {
		return
	}

	class, err := trip.ParseVehicleClass(req.VehicleClass)
	if err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "vehicle_class must be one of: SEDAN, SUV, HATCHBACK, LUXURY", err)
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, serviceTimeout)
	defer cancel()

	res, err := handler.svc.RegisterDriver(ctxWithTimeout, ports.RegisterDriverInput{
		Email:         strings.TrimSpace(req.Email),
		FullName:      strings.TrimSpace(req.FullName),
		Phone:         strings.TrimSpace(req.Phone),
		LicenseNumber: strings.TrimSpace(req.LicenseNumber),
		VehicleClass:  class,
		VehicleModel:  strings.TrimSpace(req.VehicleModel),
		VehicleColor:  strings.TrimSpace(req.VehicleColor),
		LicensePlate:  strings.TrimSpace(req.LicensePlate),
	})
	if err != nil {
		if errors.Is(err, dispatch.ErrEmailTaken) || errors.Is(err, dispatch.ErrDriverExists) {
			handler.httpError(ctxWithTimeout, w, http.StatusConflict, err.Error(), err)
			return
		}
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusCreated, res)
}

// ----- Handler: GET /api/drivers/available-trips -----

func (handler *Handler) handleAvailableTrips(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	driverID, ok := handler.driverIdentity(ctx, w, r)
	if !ok {
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, serviceTimeout)
	defer cancel()

	trips, err := handler.svc.AvailableTrips(ctxWithTimeout, driverID)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, toTripResponses(trips))
}

// ----- Handler: POST /api/drivers/trips/{trip_id}/accept -----

func (handler *Handler) handleAcceptTrip(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	tripID, ok := handler.tripPathID(ctx, w, r)
	if !ok {
		return
	}
	ctx = handler.logger.WithTripID(ctx, tripID)

	driverID, ok := handler.driverIdentity(ctx, w, r)
	if !ok {
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, serviceTimeout)
	defer cancel()

	t, err := handler.svc.AcceptTrip(ctxWithTimeout, tripID, driverID)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, toTripResponse(t))
}

// ----- Handler: POST /api/drivers/trips/{trip_id}/start -----

func (handler *Handler) handleStartTrip(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	tripID, ok := handler.tripPathID(ctx, w, r)
	if !ok {
		return
	}
	ctx = handler.logger.WithTripID(ctx, tripID)

	driverID, ok := handler.driverIdentity(ctx, w, r)
	if !ok {
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, serviceTimeout)
	defer cancel()

	t, err := handler.svc.StartTrip(ctxWithTimeout, tripID, driverID)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, toTripResponse(t))
}

// ----- Handler: POST /api/drivers/trips/{trip_id}/complete -----

func (handler *Handler) handleCompleteTrip(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	tripID, ok := handler.tripPathID(ctx, w, r)
	if !ok {
		return
	}
	ctx = handler.logger.WithTripID(ctx, tripID)

	var req completeTripRequest
	if !handler.decodeStrict(ctx, w, r, 256<<10, &req) {
		return
	}

	driverID, ok := handler.driverIdentity(ctx, w, r)
	if !ok {
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, serviceTimeout)
	defer cancel()

	t, err := handler.svc.CompleteTrip(ctxWithTimeout, ports.CompleteTripInput{
		TripID:    tripID,
		DriverID:  driverID,
		FinalFare: req.FinalFare,
	})
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, toTripResponse(t))
}

// ----- Handler: POST /api/drivers/trips/{trip_id}/reject -----

func (handler *Handler) handleRejectTrip(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	tripID, ok := handler.tripPathID(ctx, w, r)
	if !ok {
		return
	}
	ctx = handler.logger.WithTripID(ctx, tripID)

	driverID, ok := handler.driverIdentity(ctx, w, r)
	if !ok {
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, serviceTimeout)
	defer cancel()

	if err := handler.svc.RejectTrip(ctxWithTimeout, tripID, driverID); err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, map[string]string{
		"trip_id": tripID,
		"message": "trip rejected",
	})
}

// ----- Handler: POST /api/drivers/set-status -----

func (handler *Handler) handleSetDriverStatus(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	var req setDriverStatusRequest
	if !handler.decodeStrict(ctx, w, r, 64<<10, &req) {
		return
	}

	driverID, ok := handler.driverIdentity(ctx, w, r)
	if !ok {
		return
	}

	status, err := driver.ParseStatus(req.Status)
	if err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "status must be ONLINE or OFFLINE", err)
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, serviceTimeout)
	defer cancel()

	d, err := handler.svc.SetDriverStatus(ctxWithTimeout, driverID, status)
	if err != nil {
		if errors.Is(err, driver.ErrInvalidDriverStatus) {
			handler.httpError(ctxWithTimeout, w, http.StatusBadRequest, "status must be ONLINE or OFFLINE", err)
			return
		}
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, map[string]string{
		"driver_id": d.ID,
		"status":    d.Status.String(),
	})
}

// ----- Handler: GET /api/drivers/my-active-trip -----

func (handler *Handler) handleActiveTrip(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	driverID, ok := handler.driverIdentity(ctx, w, r)
	if !ok {
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, serviceTimeout)
	defer cancel()

	t, err := handler.svc.ActiveTripForDriver(ctxWithTimeout, driverID)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}
	if t == nil {
		handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, map[string]any{"active_trip": nil})
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, toTripResponse(t))
}

// ----- Handler: GET /api/drivers/summary -----

func (handler *Handler) handleDriverSummary(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	driverID, ok := handler.driverIdentity(ctx, w, r)
	if !ok {
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, serviceTimeout)
	defer cancel()

	summary, err := handler.svc.DriverSummary(ctxWithTimeout, driverID)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, summary)
}

// ----- Handler: GET /api/drivers/{driver_id}/trips -----

func (handler *Handler) handleDriverTrips(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	driverID := strings.TrimSpace(r.PathValue("driver_id"))
	if driverID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "driver_id is required", errors.New("missing driver_id"))
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, serviceTimeout)
	defer cancel()

	trips, err := handler.svc.ListDriverTrips(ctxWithTimeout, driverID)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, toTripResponses(trips))
}

// ----- Handler: GET /api/drivers/online -----

type onlineDriverResponse struct {
	DriverID     string  `json:"driver_id"`
	VehicleClass string  `json:"vehicle_class"`
	VehicleModel string  `json:"vehicle_model,omitempty"`
	Rating       float64 `json:"rating"`
}

func (handler *Handler) handleOnlineDrivers(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	ctxWithTimeout, cancel := context.WithTimeout(ctx, serviceTimeout)
	defer cancel()

	online, err := handler.svc.OnlineDrivers(ctxWithTimeout)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	out := make([]onlineDriverResponse, 0, len(online))
	for _, d := range online {
		out = append(out, onlineDriverResponse{
			DriverID:     d.ID,
			VehicleClass: d.VehicleClass.String(),
			VehicleModel: d.VehicleModel,
			Rating:       d.Rating,
		})
	}
	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, out)
}

// ----- Handler: GET /api/trips/status/{status} -----

func (handler *Handler) handleTripsByStatus(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	status, err := trip.ParseStatus(r.PathValue("status"))
	if err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "status must be one of: REQUESTED, ACCEPTED, STARTED, COMPLETED, CANCELLED", err)
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, serviceTimeout)
	defer cancel()

	trips, err := handler.svc.ListTripsByStatus(ctxWithTimeout, status)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, toTripResponses(trips))
}
