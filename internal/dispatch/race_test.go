package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"

	"quicklift/internal/domain/driver"
	"quicklift/internal/domain/trip"
)

// Run with -race. Exactly one of N concurrent accepts may win a trip.
func TestConcurrentAcceptSameTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	const contenders = 8
	drivers := make([]*driver.Driver, contenders)
	for i := range drivers {
		drivers[i] = env.addDriver(t, trip.VehicleSedan, driver.StatusOnline)
	}

	booked, err := env.svc.BookTrip(ctx, mumbaiPuneBooking("rider-1", trip.VehicleSedan))
	if err != nil {
		t.Fatalf("BookTrip: %v", err)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		winnerID  string
	)
	start := make(chan struct{})
	for _, d := range drivers {
		wg.Add(1)
		go func(driverID string) {
			defer wg.Done()
			<-start
			_, err := env.svc.AcceptTrip(ctx, booked.TripID, driverID)
			if err == nil {
				mu.Lock()
				successes++
				winnerID = driverID
				mu.Unlock()
				return
			}
			if !errors.Is(err, ErrInvalidTransition) && !errors.Is(err, ErrDriverUnavailable) {
				t.Errorf("unexpected accept error: %v", err)
			}
		}(d.ID)
	}
	close(start)
	wg.Wait()

	if successes != 1 {
		t.Fatalf("successes = %d, want exactly 1", successes)
	}

	stored, err := env.svc.GetTrip(ctx, booked.TripID)
	if err != nil {
		t.Fatalf("GetTrip: %v", err)
	}
	if stored.Status != trip.StatusAccepted || stored.DriverID == nil || *stored.DriverID != winnerID {
		t.Fatalf("trip after race: status=%s driver=%v winner=%s", stored.Status, stored.DriverID, winnerID)
	}

	// Only the winner is BUSY; every loser stays ONLINE.
	busy := 0
	for _, d := range drivers {
		after, _ := env.drivers.GetByID(ctx, d.ID)
		switch after.Status {
		case driver.StatusBusy:
			busy++
			if d.ID != winnerID {
				t.Errorf("non-winner %s is BUSY", d.ID)
			}
		case driver.StatusOnline:
		default:
			t.Errorf("driver %s in unexpected status %s", d.ID, after.Status)
		}
	}
	if busy != 1 {
		t.Fatalf("busy drivers = %d, want 1", busy)
	}
}

// Accept and cancel racing on the same trip must leave a consistent pair of
// trip and driver states, whichever wins.
func TestConcurrentAcceptVsCancel(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		d := env.addDriver(t, trip.VehicleSedan, driver.StatusOnline)
		booked, err := env.svc.BookTrip(ctx, mumbaiPuneBooking("rider-1", trip.VehicleSedan))
		if err != nil {
			t.Fatalf("BookTrip: %v", err)
		}

		var wg sync.WaitGroup
		start := make(chan struct{})
		var acceptErr, cancelErr error

		wg.Add(2)
		go func() {
			defer wg.Done()
			<-start
			_, acceptErr = env.svc.AcceptTrip(ctx, booked.TripID, d.ID)
		}()
		go func() {
			defer wg.Done()
			<-start
			_, cancelErr = env.svc.CancelTrip(ctx, booked.TripID)
		}()
		close(start)
		wg.Wait()

		stored, err := env.svc.GetTrip(ctx, booked.TripID)
		if err != nil {
			t.Fatalf("GetTrip: %v", err)
		}
		after, _ := env.drivers.GetByID(ctx, d.ID)

		switch {
		case acceptErr == nil && cancelErr == nil:
			// Accept won, then cancel released the driver.
			if stored.Status != trip.StatusCancelled || after.Status != driver.StatusOnline {
				t.Fatalf("iteration %d: accept-then-cancel left status=%s driver=%s", i, stored.Status, after.Status)
			}
		case acceptErr == nil:
			if stored.Status != trip.StatusAccepted || after.Status != driver.StatusBusy {
				t.Fatalf("iteration %d: accept won but status=%s driver=%s", i, stored.Status, after.Status)
			}
			// Clean up so the next iteration's booking matches a fresh driver.
			if _, err := env.svc.CancelTrip(ctx, booked.TripID); err != nil {
				t.Fatalf("cleanup cancel: %v", err)
			}
		case cancelErr == nil:
			// Cancel won; accept must have failed without touching the driver.
			if !errors.Is(acceptErr, ErrInvalidTransition) {
				t.Fatalf("iteration %d: accept error = %v", i, acceptErr)
			}
			if stored.Status != trip.StatusCancelled || after.Status != driver.StatusOnline {
				t.Fatalf("iteration %d: cancel won but status=%s driver=%s", i, stored.Status, after.Status)
			}
		default:
			t.Fatalf("iteration %d: both failed: accept=%v cancel=%v", i, acceptErr, cancelErr)
		}

		// Park this driver so later iterations match their own fresh driver.
		if _, err := env.svc.SetDriverStatus(ctx, d.ID, driver.StatusOffline); err != nil {
			t.Fatalf("park driver: %v", err)
		}
	}
}
