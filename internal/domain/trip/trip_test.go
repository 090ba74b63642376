package trip

import (
	"errors"
	"testing"

	"quicklift/internal/domain/geo"
)

func newTestTrip(t *testing.T) *Trip {
	t.Helper()
	pickup, _ := geo.NewCoordinate(19.0760, 72.8777)
	destination, _ := geo.NewCoordinate(18.5204, 73.8567)
	tr, err := NewTrip("TRIP-0001", "rider-1", "Mumbai CST", "Pune Station", pickup, destination, VehicleSedan, 1342.0)
	if err != nil {
		t.Fatalf("NewTrip: %v", err)
	}
	return tr
}

func TestNewTripValidation(t *testing.T) {
	pickup, _ := geo.NewCoordinate(19.0760, 72.8777)
	destination, _ := geo.NewCoordinate(18.5204, 73.8567)

	cases := []struct {
		name       string
		tripNumber string
		riderID    string
		pickupAddr string
		destAddr   string
		class      VehicleClass
		wantErr    error
	}{
		{"missing trip number", "", "rider-1", "a", "b", VehicleSedan, ErrTripNumberRequired},
		{"missing rider", "TRIP-1", "  ", "a", "b", VehicleSedan, ErrRiderRequired},
		{"missing pickup address", "TRIP-1", "rider-1", "", "b", VehicleSedan, ErrPickupRequired},
		{"missing destination address", "TRIP-1", "rider-1", "a", "", VehicleSedan, ErrPickupRequired},
		{"bad vehicle class", "TRIP-1", "rider-1", "a", "b", VehicleClass("BIKE"), ErrInvalidVehicleClass},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewTrip(tc.tripNumber, tc.riderID, tc.pickupAddr, tc.destAddr, pickup, destination, tc.class, 100)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestTripLifecycleHappyPath(t *testing.T) {
	tr := newTestTrip(t)

	if tr.Status != StatusRequested {
		t.Fatalf("new trip status = %s, want %s", tr.Status, StatusRequested)
	}
	if tr.DriverID != nil {
		t.Fatal("new trip must not have a driver")
	}

	if err := tr.Accept("driver-1"); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if tr.Status != StatusAccepted || tr.DriverID == nil || *tr.DriverID != "driver-1" {
		t.Fatalf("after accept: status=%s driver=%v", tr.Status, tr.DriverID)
	}
	if tr.AcceptedAt == nil {
		t.Fatal("AcceptedAt not set")
	}

	if err := tr.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if tr.Status != StatusStarted || tr.StartedAt == nil {
		t.Fatalf("after start: status=%s", tr.Status)
	}

	if err := tr.Complete(1500.50); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if tr.Status != StatusCompleted || tr.CompletedAt == nil {
		t.Fatalf("after complete: status=%s", tr.Status)
	}
	if tr.Fare != 1500.50 {
		t.Fatalf("final fare = %v, want 1500.50", tr.Fare)
	}
}

func TestTripInvalidTransitions(t *testing.T) {
	t.Run("start before accept", func(t *testing.T) {
		tr := newTestTrip(t)
		if err := tr.Start(); !errors.Is(err, ErrNotAccepted) {
			t.Fatalf("got %v, want ErrNotAccepted", err)
		}
	})

	t.Run("complete before start", func(t *testing.T) {
		tr := newTestTrip(t)
		_ = tr.Accept("driver-1")
		if err := tr.Complete(100); !errors.Is(err, ErrNotStarted) {
			t.Fatalf("got %v, want ErrNotStarted", err)
		}
	})

	t.Run("double accept", func(t *testing.T) {
		tr := newTestTrip(t)
		_ = tr.Accept("driver-1")
		if err := tr.Accept("driver-2"); !errors.Is(err, ErrAlreadyAssigned) {
			t.Fatalf("got %v, want ErrAlreadyAssigned", err)
		}
	})

	t.Run("cancel after complete", func(t *testing.T) {
		tr := newTestTrip(t)
		_ = tr.Accept("driver-1")
		_ = tr.Start()
		_ = tr.Complete(100)
		if err := tr.Cancel(); !errors.Is(err, ErrCancelCompleted) {
			t.Fatalf("got %v, want ErrCancelCompleted", err)
		}
	})

	t.Run("cancel started trip", func(t *testing.T) {
		tr := newTestTrip(t)
		_ = tr.Accept("driver-1")
		_ = tr.Start()
		if err := tr.Cancel(); err != nil {
			t.Fatalf("cancel of started trip: %v", err)
		}
		if tr.Status != StatusCancelled || tr.CancelledAt == nil {
			t.Fatalf("after cancel: status=%s", tr.Status)
		}
	})

	t.Run("double cancel", func(t *testing.T) {
		tr := newTestTrip(t)
		_ = tr.Cancel()
		if err := tr.Cancel(); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("got %v, want ErrInvalidTransition", err)
		}
	})

	t.Run("all precondition errors wrap ErrInvalidTransition", func(t *testing.T) {
		for _, err := range []error{ErrNotAvailableForAccept, ErrNotAccepted, ErrNotStarted, ErrCancelCompleted, ErrRateNotCompleted} {
			if !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("%v does not wrap ErrInvalidTransition", err)
			}
		}
	})
}

func TestTripCancelKeepsDriver(t *testing.T) {
	tr := newTestTrip(t)
	_ = tr.Accept("driver-1")
	if err := tr.Cancel(); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if tr.DriverID == nil || *tr.DriverID != "driver-1" {
		t.Fatal("cancelled trip lost its driver reference")
	}
}

func TestTripRate(t *testing.T) {
	tr := newTestTrip(t)

	if err := tr.Rate(4.5, "great"); !errors.Is(err, ErrRateNotCompleted) {
		t.Fatalf("rating a requested trip: got %v, want ErrRateNotCompleted", err)
	}

	_ = tr.Accept("driver-1")
	_ = tr.Start()
	_ = tr.Complete(100)

	if err := tr.Rate(5.5, ""); !errors.Is(err, ErrInvalidRating) {
		t.Fatalf("got %v, want ErrInvalidRating", err)
	}
	if err := tr.Rate(4.5, "smooth ride"); err != nil {
		t.Fatalf("Rate: %v", err)
	}
	if tr.Rating == nil || *tr.Rating != 4.5 {
		t.Fatalf("rating = %v", tr.Rating)
	}
	if tr.Review == nil || *tr.Review != "smooth ride" {
		t.Fatalf("review = %v", tr.Review)
	}
}

func TestTripActive(t *testing.T) {
	tr := newTestTrip(t)
	if tr.Active() {
		t.Fatal("requested trip must not be active")
	}
	_ = tr.Accept("driver-1")
	if !tr.Active() {
		t.Fatal("accepted trip must be active")
	}
	_ = tr.Start()
	if !tr.Active() {
		t.Fatal("started trip must be active")
	}
	_ = tr.Complete(100)
	if tr.Active() {
		t.Fatal("completed trip must not be active")
	}
}
