package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quicklift/internal/dispatch"
	"quicklift/internal/domain/driver"
	"quicklift/internal/domain/trip"
	"quicklift/internal/domain/user"
	"quicklift/internal/fare"
	"quicklift/internal/jwt"
	"quicklift/internal/logger"
	"quicklift/internal/memrepo"
	"quicklift/internal/relay"
)

type testAPI struct {
	mux     *http.ServeMux
	auth    *jwt.Manager
	drivers *memrepo.DriverRepo
	trips   *memrepo.TripRepo
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	trips := memrepo.NewTripRepo()
	drivers := memrepo.NewDriverRepo()
	broker := relay.NewBroker()
	t.Cleanup(broker.Close)

	svc := dispatch.NewService(dispatch.Deps{
		Trips:   trips,
		Drivers: drivers,
		Users:   memrepo.NewUserRepo(),
		UoW:     memrepo.NoopUnitOfWork{},
		Fares:   fare.NewCalculator(11.00),
		Relay:   broker,
	})

	auth := jwt.NewManager("test-secret-for-handlers", time.Hour)
	handler := NewHandler(svc, logger.New("dispatch-service-test"), auth, nil)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	return &testAPI{mux: mux, auth: auth, drivers: drivers, trips: trips}
}

func (api *testAPI) token(t *testing.T, userID string, role user.Role, driverID string) string {
	t.Helper()
	token, _, err := api.auth.IssueUserToken(userID, role, driverID)
	if err != nil {
		t.Fatalf("IssueUserToken: %v", err)
	}
	return "Bearer " + token
}

func (api *testAPI) addOnlineDriver(t *testing.T, userID string, class trip.VehicleClass) *driver.Driver {
	t.Helper()
	d, err := driver.NewDriver(userID, "DL-"+userID, class, "Swift", "White", "MH12"+userID)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	if err := d.GoOnline(); err != nil {
		t.Fatalf("GoOnline: %v", err)
	}
	if err := api.drivers.Create(context.Background(), d); err != nil {
		t.Fatalf("drivers.Create: %v", err)
	}
	return d
}

func (api *testAPI) do(t *testing.T, method, path string, body any, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	api.mux.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

var bookBody = map[string]any{
	"pickup_address":        "Gateway of India, Mumbai",
	"pickup_latitude":       18.9220,
	"pickup_longitude":      72.8347,
	"destination_address":   "Shaniwar Wada, Pune",
	"destination_latitude":  18.5195,
	"destination_longitude": 73.8553,
	"vehicle_class":         "SEDAN",
}

func TestBookTripRequiresAuth(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/api/trips/book", bookBody, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}

	// a driver token must not book trips
	w = api.do(t, http.MethodPost, "/api/trips/book", bookBody, api.token(t, "user-d", user.RoleDriver, "drv-1"))
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for driver role, got %d", w.Code)
	}
}

func TestBookTripHappyPath(t *testing.T) {
	api := newTestAPI(t)
	matched := api.addOnlineDriver(t, "user-d1", trip.VehicleSedan)

	w := api.do(t, http.MethodPost, "/api/trips/book", bookBody, api.token(t, "rider-1", user.RoleRider, ""))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	res := decodeBody[map[string]any](t, w)
	if res["status"] != "REQUESTED" {
		t.Errorf("status = %v, want REQUESTED", res["status"])
	}
	if res["offered_driver_id"] != matched.ID {
		t.Errorf("offered_driver_id = %v, want %s", res["offered_driver_id"], matched.ID)
	}
	if fareVal, _ := res["estimated_fare"].(float64); fareVal <= 0 {
		t.Errorf("estimated_fare = %v, want positive", res["estimated_fare"])
	}
}

func TestBookTripSucceedsWithoutDrivers(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/api/trips/book", bookBody, api.token(t, "rider-1", user.RoleRider, ""))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 even with no drivers, got %d: %s", w.Code, w.Body.String())
	}
	res := decodeBody[map[string]any](t, w)
	if _, offered := res["offered_driver_id"]; offered {
		t.Errorf("unexpected offered_driver_id in %v", res)
	}
}

func TestBookTripRejectsBadInput(t *testing.T) {
	api := newTestAPI(t)
	rider := api.token(t, "rider-1", user.RoleRider, "")

	bad := map[string]any{}
	for k, v := range bookBody {
		bad[k] = v
	}
	bad["vehicle_class"] = "ROCKET"
	if w := api.do(t, http.MethodPost, "/api/trips/book", bad, rider); w.Code != http.StatusBadRequest {
		t.Errorf("bad vehicle_class: expected 400, got %d", w.Code)
	}

	bad["vehicle_class"] = "SEDAN"
	bad["pickup_latitude"] = 95.0
	if w := api.do(t, http.MethodPost, "/api/trips/book", bad, rider); w.Code != http.StatusBadRequest {
		t.Errorf("bad latitude: expected 400, got %d", w.Code)
	}

	bad["unknown_field"] = true
	if w := api.do(t, http.MethodPost, "/api/trips/book", bad, rider); w.Code != http.StatusBadRequest {
		t.Errorf("unknown field: expected 400, got %d", w.Code)
	}
}

func TestEstimate(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/api/trips/estimate", map[string]any{
		"pickup_latitude":       18.9220,
		"pickup_longitude":      72.8347,
		"destination_latitude":  18.5195,
		"destination_longitude": 73.8553,
	}, api.token(t, "rider-1", user.RoleRider, ""))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	res := decodeBody[map[string]float64](t, w)
	if res["distance_km"] < 100 || res["distance_km"] > 140 {
		t.Errorf("distance_km = %v, want Mumbai-Pune range", res["distance_km"])
	}
	if res["estimated_fare"] <= 0 {
		t.Errorf("estimated_fare = %v, want positive", res["estimated_fare"])
	}
}

func TestDriverLifecycleEndpoints(t *testing.T) {
	api := newTestAPI(t)
	d := api.addOnlineDriver(t, "user-d1", trip.VehicleSedan)
	rider := api.token(t, "rider-1", user.RoleRider, "")
	drv := api.token(t, "user-d1", user.RoleDriver, d.ID)

	w := api.do(t, http.MethodPost, "/api/trips/book", bookBody, rider)
	if w.Code != http.StatusCreated {
		t.Fatalf("book: expected 201, got %d", w.Code)
	}
	booked := decodeBody[map[string]any](t, w)
	tripID := booked["trip_id"].(string)

	if w := api.do(t, http.MethodGet, "/api/drivers/available-trips", nil, drv); w.Code != http.StatusOK {
		t.Fatalf("available-trips: expected 200, got %d", w.Code)
	}

	w = api.do(t, http.MethodPost, "/api/drivers/trips/"+tripID+"/accept", nil, drv)
	if w.Code != http.StatusOK {
		t.Fatalf("accept: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if res := decodeBody[map[string]any](t, w); res["status"] != "ACCEPTED" {
		t.Errorf("status after accept = %v", res["status"])
	}

	// second accept conflicts
	if w := api.do(t, http.MethodPost, "/api/drivers/trips/"+tripID+"/accept", nil, drv); w.Code != http.StatusConflict {
		t.Errorf("double accept: expected 409, got %d", w.Code)
	}

	if w := api.do(t, http.MethodPost, "/api/drivers/trips/"+tripID+"/start", nil, drv); w.Code != http.StatusOK {
		t.Fatalf("start: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = api.do(t, http.MethodPost, "/api/drivers/trips/"+tripID+"/complete", map[string]any{"final_fare": 1500.0}, drv)
	if w.Code != http.StatusOK {
		t.Fatalf("complete: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	res := decodeBody[map[string]any](t, w)
	if res["status"] != "COMPLETED" {
		t.Errorf("status after complete = %v", res["status"])
	}
	if res["fare"] != 1500.0 {
		t.Errorf("fare = %v, want 1500", res["fare"])
	}

	w = api.do(t, http.MethodGet, "/api/drivers/summary", nil, drv)
	if w.Code != http.StatusOK {
		t.Fatalf("summary: expected 200, got %d", w.Code)
	}
	summary := decodeBody[map[string]any](t, w)
	if summary["total_rides"] != 1.0 {
		t.Errorf("total_rides = %v, want 1", summary["total_rides"])
	}
	if summary["total_earned"] != 1500.0 {
		t.Errorf("total_earned = %v, want 1500", summary["total_earned"])
	}
}

func TestRiderCannotTouchForeignTrip(t *testing.T) {
	api := newTestAPI(t)
	api.addOnlineDriver(t, "user-d1", trip.VehicleSedan)

	w := api.do(t, http.MethodPost, "/api/trips/book", bookBody, api.token(t, "rider-1", user.RoleRider, ""))
	tripID := decodeBody[map[string]any](t, w)["trip_id"].(string)

	other := api.token(t, "rider-2", user.RoleRider, "")
	if w := api.do(t, http.MethodGet, "/api/trips/"+tripID, nil, other); w.Code != http.StatusNotFound {
		t.Errorf("foreign get: expected 404, got %d", w.Code)
	}
	if w := api.do(t, http.MethodPost, "/api/trips/"+tripID+"/cancel", nil, other); w.Code != http.StatusNotFound {
		t.Errorf("foreign cancel: expected 404, got %d", w.Code)
	}
}

func TestCancelTrip(t *testing.T) {
	api := newTestAPI(t)
	api.addOnlineDriver(t, "user-d1", trip.VehicleSedan)
	rider := api.token(t, "rider-1", user.RoleRider, "")

	w := api.do(t, http.MethodPost, "/api/trips/book", bookBody, rider)
	tripID := decodeBody[map[string]any](t, w)["trip_id"].(string)

	w = api.do(t, http.MethodPost, "/api/trips/"+tripID+"/cancel", nil, rider)
	if w.Code != http.StatusOK {
		t.Fatalf("cancel: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	res := decodeBody[map[string]any](t, w)
	if res["status"] != "CANCELLED" {
		t.Errorf("status = %v, want CANCELLED", res["status"])
	}

	// cancelling again conflicts
	if w := api.do(t, http.MethodPost, "/api/trips/"+tripID+"/cancel", nil, rider); w.Code != http.StatusConflict {
		t.Errorf("double cancel: expected 409, got %d", w.Code)
	}
}

func TestSetDriverStatus(t *testing.T) {
	api := newTestAPI(t)
	d := api.addOnlineDriver(t, "user-d1", trip.VehicleSedan)
	drv := api.token(t, "user-d1", user.RoleDriver, d.ID)

	w := api.do(t, http.MethodPost, "/api/drivers/set-status", map[string]any{"status": "OFFLINE"}, drv)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if res := decodeBody[map[string]string](t, w); res["status"] != "OFFLINE" {
		t.Errorf("status = %v, want OFFLINE", res["status"])
	}

	if w := api.do(t, http.MethodPost, "/api/drivers/set-status", map[string]any{"status": "BUSY"}, drv); w.Code != http.StatusBadRequest {
		t.Errorf("direct BUSY: expected 400, got %d", w.Code)
	}

	// token without a driver identity is rejected
	noID := api.token(t, "user-d2", user.RoleDriver, "")
	if w := api.do(t, http.MethodPost, "/api/drivers/set-status", map[string]any{"status": "ONLINE"}, noID); w.Code != http.StatusForbidden {
		t.Errorf("no driver_id claim: expected 403, got %d", w.Code)
	}
}

func TestTripsByStatusRequiresAdmin(t *testing.T) {
	api := newTestAPI(t)

	rider := api.token(t, "rider-1", user.RoleRider, "")
	if w := api.do(t, http.MethodGet, "/api/trips/status/REQUESTED", nil, rider); w.Code != http.StatusForbidden {
		t.Errorf("rider on admin route: expected 403, got %d", w.Code)
	}

	admin := api.token(t, "admin-1", user.RoleAdmin, "")
	if w := api.do(t, http.MethodGet, "/api/trips/status/REQUESTED", nil, admin); w.Code != http.StatusOK {
		t.Errorf("admin list: expected 200, got %d", w.Code)
	}
	if w := api.do(t, http.MethodGet, "/api/trips/status/TELEPORTED", nil, admin); w.Code != http.StatusBadRequest {
		t.Errorf("bad status: expected 400, got %d", w.Code)
	}
}

func TestOnlineDrivers(t *testing.T) {
	api := newTestAPI(t)
	d := api.addOnlineDriver(t, "user-d1", trip.VehicleSedan)

	rider := api.token(t, "rider-1", user.RoleRider, "")
	if w := api.do(t, http.MethodGet, "/api/drivers/online", nil, rider); w.Code != http.StatusForbidden {
		t.Errorf("rider on admin route: expected 403, got %d", w.Code)
	}

	admin := api.token(t, "admin-1", user.RoleAdmin, "")
	w := api.do(t, http.MethodGet, "/api/drivers/online", nil, admin)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	online := decodeBody[[]map[string]any](t, w)
	if len(online) != 1 {
		t.Fatalf("expected 1 online driver, got %d", len(online))
	}
	if got := online[0]["driver_id"]; got != d.ID {
		t.Errorf("driver_id = %v, want %s", got, d.ID)
	}
	if got := online[0]["vehicle_class"]; got != "SEDAN" {
		t.Errorf("vehicle_class = %v, want SEDAN", got)
	}
}

func TestGetTripNotFound(t *testing.T) {
	api := newTestAPI(t)
	rider := api.token(t, "rider-1", user.RoleRider, "")

	if w := api.do(t, http.MethodGet, "/api/trips/nope", nil, rider); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestRegisterDriver(t *testing.T) {
	api := newTestAPI(t)
	admin := api.token(t, "admin-1", user.RoleAdmin, "")

	body := map[string]any{
		"email":          "Asha.K@Example.com",
		"full_name":      "Asha K",
		"license_number": "MH-DL-0042",
		"vehicle_class":  "SUV",
		"vehicle_model":  "Creta",
		"license_plate":  "MH12AB0042",
	}

	w := api.do(t, http.MethodPost, "/api/drivers/register", body, admin)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	res := decodeBody[map[string]any](t, w)
	if res["driver_id"] == "" || res["user_id"] == "" {
		t.Errorf("missing ids in %v", res)
	}
	if res["status"] != "OFFLINE" {
		t.Errorf("status = %v, want OFFLINE", res["status"])
	}

	// same email again conflicts
	if w := api.do(t, http.MethodPost, "/api/drivers/register", body, admin); w.Code != http.StatusConflict {
		t.Errorf("duplicate email: expected 409, got %d", w.Code)
	}

	// registration is admin-only
	rider := api.token(t, "rider-1", user.RoleRider, "")
	if w := api.do(t, http.MethodPost, "/api/drivers/register", body, rider); w.Code != http.StatusForbidden {
		t.Errorf("rider registering: expected 403, got %d", w.Code)
	}
}

func TestCreateToken(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/tokens", map[string]any{"user_id": "rider-9", "role": "RIDER"}, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	res := decodeBody[map[string]any](t, w)
	if res["token"] == "" {
		t.Error("empty token in response")
	}

	if w := api.do(t, http.MethodPost, "/tokens", map[string]any{"role": "RIDER"}, ""); w.Code != http.StatusBadRequest {
		t.Errorf("missing user_id: expected 400, got %d", w.Code)
	}
}
