package driver

import (
	"errors"
	"testing"

	"quicklift/internal/domain/geo"
	"quicklift/internal/domain/trip"
)

func newTestDriver(t *testing.T) *Driver {
	t.Helper()
	d, err := NewDriver("user-1", "MH-01-2021-123456", trip.VehicleSedan, "Honda City", "White", "MH01AB1234")
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	return d
}

func TestNewDriverValidation(t *testing.T) {
	if _, err := NewDriver("", "LIC", trip.VehicleSedan, "", "", ""); !errors.Is(err, ErrUserRequired) {
		t.Fatalf("got %v, want ErrUserRequired", err)
	}
	if _, err := NewDriver("user-1", " ", trip.VehicleSedan, "", "", ""); !errors.Is(err, ErrLicenseRequired) {
		t.Fatalf("got %v, want ErrLicenseRequired", err)
	}
	if _, err := NewDriver("user-1", "LIC", trip.VehicleClass("SCOOTER"), "", "", ""); !errors.Is(err, trip.ErrInvalidVehicleClass) {
		t.Fatalf("got %v, want ErrInvalidVehicleClass", err)
	}
}

func TestDriverStatusCycle(t *testing.T) {
	d := newTestDriver(t)
	if d.Status != StatusOffline {
		t.Fatalf("new driver status = %s, want OFFLINE", d.Status)
	}
	if d.Available() {
		t.Fatal("offline driver reported available")
	}

	if err := d.Assign(); !errors.Is(err, ErrNotOnline) {
		t.Fatalf("assigning offline driver: got %v, want ErrNotOnline", err)
	}

	if err := d.GoOnline(); err != nil {
		t.Fatalf("GoOnline: %v", err)
	}
	if !d.Available() {
		t.Fatal("online driver not available")
	}

	if err := d.Assign(); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if d.Status != StatusBusy || d.Available() {
		t.Fatalf("after assign: status=%s", d.Status)
	}

	// Busy drivers cannot change availability or take a second trip.
	if err := d.Assign(); !errors.Is(err, ErrNotOnline) {
		t.Fatalf("double assign: got %v, want ErrNotOnline", err)
	}
	if err := d.GoOffline(); !errors.Is(err, ErrNotOnline) {
		t.Fatalf("going offline while busy: got %v, want ErrNotOnline", err)
	}

	if err := d.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if d.Status != StatusOnline {
		t.Fatalf("after release: status=%s", d.Status)
	}
	if err := d.Release(); !errors.Is(err, ErrNotBusy) {
		t.Fatalf("double release: got %v, want ErrNotBusy", err)
	}
}

func TestApplyCompletionCountsOnce(t *testing.T) {
	d := newTestDriver(t)
	_ = d.GoOnline()
	_ = d.Assign()

	if err := d.ApplyCompletion(); err != nil {
		t.Fatalf("ApplyCompletion: %v", err)
	}
	if d.TotalRides != 1 {
		t.Fatalf("TotalRides = %d, want 1", d.TotalRides)
	}
	if d.Status != StatusOnline {
		t.Fatalf("status = %s, want ONLINE", d.Status)
	}

	// A second completion without a new assignment must not count.
	if err := d.ApplyCompletion(); !errors.Is(err, ErrNotBusy) {
		t.Fatalf("got %v, want ErrNotBusy", err)
	}
	if d.TotalRides != 1 {
		t.Fatalf("TotalRides = %d after failed completion, want 1", d.TotalRides)
	}
}

func TestUpdateLocation(t *testing.T) {
	d := newTestDriver(t)
	loc, _ := geo.NewCoordinate(19.0760, 72.8777)
	if err := d.UpdateLocation(loc); err != nil {
		t.Fatalf("UpdateLocation: %v", err)
	}
	if d.Location == nil || d.Location.Latitude != 19.0760 {
		t.Fatalf("location = %v", d.Location)
	}
	if err := d.UpdateLocation(geo.Coordinate{Latitude: 91, Longitude: 0}); err == nil {
		t.Fatal("expected error for out-of-range latitude")
	}
}

func TestApplyRating(t *testing.T) {
	d := newTestDriver(t)
	d.ApplyRating(4.0)
	if d.Rating != 4.0 {
		t.Fatalf("first rating = %v, want 4.0", d.Rating)
	}
	d.TotalRides = 1
	d.ApplyRating(5.0)
	if d.Rating != 4.5 {
		t.Fatalf("averaged rating = %v, want 4.5", d.Rating)
	}
}

func TestParseStatus(t *testing.T) {
	for raw, want := range map[string]Status{"online": StatusOnline, " OFFLINE ": StatusOffline, "Busy": StatusBusy} {
		got, err := ParseStatus(raw)
		if err != nil || got != want {
			t.Errorf("ParseStatus(%q) = %v, %v; want %v", raw, got, err, want)
		}
	}
	if _, err := ParseStatus("AWAY"); !errors.Is(err, ErrInvalidDriverStatus) {
		t.Errorf("ParseStatus(AWAY) err = %v, want ErrInvalidDriverStatus", err)
	}
}
