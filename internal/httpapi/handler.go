// Package httpapi adapts HTTP requests to the DispatchService.
package httpapi

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"quicklift/internal/dispatch"
	"quicklift/internal/domain/driver"
	"quicklift/internal/domain/trip"
	"quicklift/internal/domain/user"
	"quicklift/internal/jwt"
	"quicklift/internal/logger"
	"quicklift/internal/ports"
	"quicklift/internal/ws"
)

const serviceTimeout = 5 * time.Second

// Handler adapts HTTP requests to the DispatchService.
type Handler struct {
	svc     ports.DispatchService
	logger  *logger.Logger
	auth    *jwt.Manager
	gateway *ws.Gateway
}

// NewHandler wires an HTTP handler around the DispatchService.
func NewHandler(svc ports.DispatchService, log *logger.Logger, auth *jwt.Manager, gateway *ws.Gateway) *Handler {
	return &Handler{svc: svc, logger: log, auth: auth, gateway: gateway}
}

// RegisterRoutes mounts all endpoints on the provided mux.
func (handler *Handler) RegisterRoutes(mux *http.ServeMux) {
	rider := func(h http.HandlerFunc) http.HandlerFunc {
		return jwt.AuthMiddlewareFunc(handler.auth, user.RoleRider)(h)
	}
	drv := func(h http.HandlerFunc) http.HandlerFunc {
		return jwt.AuthMiddlewareFunc(handler.auth, user.RoleDriver)(h)
	}
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return jwt.AuthMiddlewareFunc(handler.auth, user.RoleAdmin)(h)
	}

	mux.HandleFunc("POST /api/trips/estimate", rider(handler.handleEstimate))
	mux.HandleFunc("POST /api/trips/book", rider(handler.handleBookTrip))
	mux.HandleFunc("GET /api/trips/my-trips", rider(handler.handleMyTrips))
	mux.HandleFunc("GET /api/trips/{trip_id}", rider(handler.handleGetTrip))
	mux.HandleFunc("POST /api/trips/{trip_id}/cancel", rider(handler.handleCancelTrip))
	mux.HandleFunc("POST /api/trips/{trip_id}/rate", rider(handler.handleRateTrip))
	mux.HandleFunc("PATCH /api/trips/{trip_id}/pay", rider(handler.handleMarkPaid))
	mux.HandleFunc("PATCH /api/trips/{trip_id}/payment-method", rider(handler.handleSetPaymentMethod))

	mux.HandleFunc("GET /api/drivers/available-trips", drv(handler.handleAvailableTrips))
	mux.HandleFunc("POST /api/drivers/trips/{trip_id}/accept", drv(handler.handleAcceptTrip))
	mux.HandleFunc("POST /api/drivers/trips/{trip_id}/start", drv(handler.handleStartTrip))
	mux.HandleFunc("POST /api/drivers/trips/{trip_id}/complete", drv(handler.handleCompleteTrip))
	mux.HandleFunc("POST /api/drivers/trips/{trip_id}/reject", drv(handler.handleRejectTrip))
	mux.HandleFunc("POST /api/drivers/set-status", drv(handler.handleSetDriverStatus))
	mux.HandleFunc("GET /api/drivers/my-active-trip", drv(handler.handleActiveTrip))
	mux.HandleFunc("GET /api/drivers/summary", drv(handler.handleDriverSummary))
	mux.HandleFunc("POST /api/drivers/register", admin(handler.handleRegisterDriver))
	mux.HandleFunc("GET /api/drivers/{driver_id}/trips", admin(handler.handleDriverTrips))

	mux.HandleFunc("GET /api/trips/status/{status}", admin(handler.handleTripsByStatus))
	mux.HandleFunc("GET /api/drivers/online", admin(handler.handleOnlineDrivers))

	// WebSocket endpoints run their own first-frame auth
	if handler.gateway != nil {
		mux.HandleFunc("GET /ws/rider/{rider_id}", handler.gateway.ConnectRider)
		mux.HandleFunc("GET /ws/driver/{driver_id}", handler.gateway.ConnectDriver)
	}

	mux.HandleFunc("GET /health", handler.handleHealth)
	mux.HandleFunc("POST /tokens", handler.handleCreateToken)
}

// ----- general helpers -----

type tokenRequest struct {
	UserID   string    `json:"user_id"`
	Role     user.Role `json:"role"`
	DriverID string    `json:"driver_id,omitempty"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
	Role      user.Role `json:"role"`
}

func (handler *Handler) handleCreateToken(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "user_id is required", nil)
		return
	}

	tokenString, claims, err := handler.auth.IssueUserToken(req.UserID, req.Role, req.DriverID)
	if err != nil {
		handler.httpError(ctx, w, http.StatusInternalServerError, "Failed to generate token", err)
		return
	}

	handler.logger.Info(ctx, "token_generated", "JWT token generated successfully",
		map[string]any{"user_id": req.UserID, "role": req.Role.String()})

	handler.jsonResponse(ctx, w, http.StatusCreated, tokenResponse{
		Token:     tokenString,
		ExpiresAt: claims.ExpiresAt.Time,
		UserID:    req.UserID,
		Role:      req.Role,
	})
}

func (handler *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	handler.jsonResponse(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

func (handler *Handler) jsonResponse(ctx context.Context, w http.ResponseWriter, status int, data any) {
	// encode to buffer first so we can control status on failure
	var buf []byte
	var err error

	if data != nil {
		buf, err = json.Marshal(data)
		if err != nil {
			handler.logger.Error(ctx, "response_encode_failed", "Failed to encode response", err, nil)
			http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
			return
		}
	} else {
		buf = []byte("{}")
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf)
}

// httpError sends a JSON error response with a message.
func (handler *Handler) httpError(ctx context.Context, w http.ResponseWriter, status int, msg string, err error) {
	action := "request_failed"
	if status >= 500 {
		action = "http_internal_error"
	} else if status == http.StatusBadRequest {
		action = "validation_failed"
	} else if status == http.StatusUnsupportedMediaType {
		action = "unsupported_media_type"
	}
	handler.logger.Error(ctx, action, msg, err, nil)

	type errBody struct {
		Error string `json:"error"`
	}
	handler.jsonResponse(ctx, w, status, errBody{Error: msg})
}

// serviceError maps a DispatchService failure onto an HTTP status.
func (handler *Handler) serviceError(ctx context.Context, w http.ResponseWriter, err error) {
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pgErr):
		handler.httpError(ctx, w, http.StatusInternalServerError, "database error", err)
	case errors.Is(err, ports.ErrTripNotFound),
		errors.Is(err, ports.ErrDriverNotFound),
		errors.Is(err, ports.ErrUserNotFound):
		handler.httpError(ctx, w, http.StatusNotFound, err.Error(), err)
	case errors.Is(err, dispatch.ErrNotTripDriver):
		handler.httpError(ctx, w, http.StatusForbidden, err.Error(), err)
	case errors.Is(err, trip.ErrInvalidTransition),
		errors.Is(err, dispatch.ErrDriverUnavailable),
		errors.Is(err, driver.ErrNotOnline):
		handler.httpError(ctx, w, http.StatusConflict, err.Error(), err)
	default:
		handler.httpError(ctx, w, http.StatusBadRequest, err.Error(), err)
	}
}

// decodeStrict reads a bounded JSON body with unknown fields rejected.
func (handler *Handler) decodeStrict(ctx context.Context, w http.ResponseWriter, r *http.Request, limit int64, dst any) bool {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		handler.httpError(ctx, w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", nil)
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, limit)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			handler.httpError(ctx, w, http.StatusRequestEntityTooLarge, "request body too large", err)
			return false
		}
		handler.httpError(ctx, w, http.StatusBadRequest, "invalid JSON: "+err.Error(), err)
		return false
	}
	return true
}

// driverIdentity resolves the driver record id from the caller's claims.
func (handler *Handler) driverIdentity(ctx context.Context, w http.ResponseWriter, r *http.Request) (string, bool) {
	claims := jwt.RequireClaims(r)
	if claims == nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", errors.New("no claims"))
		return "", false
	}
	if strings.TrimSpace(claims.DriverID) == "" {
		handler.httpError(ctx, w, http.StatusForbidden, "token carries no driver identity", errors.New("no driver_id claim"))
		return "", false
	}
	return claims.DriverID, true
}

// riderIdentity resolves the rider user id from the caller's claims.
func (handler *Handler) riderIdentity(ctx context.Context, w http.ResponseWriter, r *http.Request) (string, bool) {
	claims := jwt.RequireClaims(r)
	if claims == nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", errors.New("no claims"))
		return "", false
	}
	return strings.TrimSpace(claims.Subject), true
}

// tripPathID fetches and checks the trip id path segment.
func (handler *Handler) tripPathID(ctx context.Context, w http.ResponseWriter, r *http.Request) (string, bool) {
	tripID := strings.TrimSpace(r.PathValue("trip_id"))
	if tripID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "trip_id is required", errors.New("missing trip_id"))
		return "", false
	}
	return tripID, true
}

// withReqID extracts or generates a request ID and adds it to the context.
func (handler *Handler) withReqID(ctx context.Context, r *http.Request) context.Context {
	reqID := r.Header.Get("X-Request-ID")
	if strings.TrimSpace(reqID) == "" {
		reqID = randID()
	}
	return handler.logger.WithRequestID(ctx, reqID)
}

// randID generates a random 24-char hex string suitable for request IDs.
func randID() string {
	var b [12]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

// ----- trip response DTO -----

type tripResponse struct {
	TripID             string   `json:"trip_id"`
	TripNumber         string   `json:"trip_number"`
	RiderID            string   `json:"rider_id"`
	DriverID           *string  `json:"driver_id,omitempty"`
	PickupAddress      string   `json:"pickup_address"`
	DestinationAddress string   `json:"destination_address"`
	PickupLat          float64  `json:"pickup_latitude"`
	PickupLng          float64  `json:"pickup_longitude"`
	DestinationLat     float64  `json:"destination_latitude"`
	DestinationLng     float64  `json:"destination_longitude"`
	VehicleClass       string   `json:"vehicle_class"`
	Status             string   `json:"status"`
	Fare               float64  `json:"fare"`
	PaymentMethod      string   `json:"payment_method,omitempty"`
	Paid               bool     `json:"paid"`
	Rating             *float64 `json:"rating,omitempty"`
	Review             *string  `json:"review,omitempty"`
	Notes              string   `json:"notes,omitempty"`
	RequestedAt        string   `json:"requested_at"`
	AcceptedAt         *string  `json:"accepted_at,omitempty"`
	StartedAt          *string  `json:"started_at,omitempty"`
	CompletedAt        *string  `json:"completed_at,omitempty"`
	CancelledAt        *string  `json:"cancelled_at,omitempty"`
}

func toTripResponse(t *trip.Trip) tripResponse {
	stamp := func(ts *time.Time) *string {
		if ts == nil {
			return nil
		}
		s := ts.Format(time.RFC3339)
		return &s
	}
	return tripResponse{
		TripID:             t.ID,
		TripNumber:         t.TripNumber,
		RiderID:            t.RiderID,
		DriverID:           t.DriverID,
		PickupAddress:      t.PickupAddress,
		DestinationAddress: t.DestinationAddress,
		PickupLat:          t.Pickup.Latitude,
		PickupLng:          t.Pickup.Longitude,
		DestinationLat:     t.Destination.Latitude,
		DestinationLng:     t.Destination.Longitude,
		VehicleClass:       t.VehicleClass.String(),
		Status:             t.Status.String(),
		Fare:               t.Fare,
		PaymentMethod:      t.PaymentMethod,
		Paid:               t.Paid,
		Rating:             t.Rating,
		Review:             t.Review,
		Notes:              t.Notes,
		RequestedAt:        t.RequestedAt.Format(time.RFC3339),
		AcceptedAt:         stamp(t.AcceptedAt),
		StartedAt:          stamp(t.StartedAt),
		CompletedAt:        stamp(t.CompletedAt),
		CancelledAt:        stamp(t.CancelledAt),
	}
}

func toTripResponses(trips []*trip.Trip) []tripResponse {
	out := make([]tripResponse, len(trips))
	for i, t := range trips {
		out[i] = toTripResponse(t)
	}
	return out
}
