package dispatch

import (
	"context"
	"errors"
	"testing"

	"quicklift/internal/domain/driver"
	"quicklift/internal/domain/geo"
	"quicklift/internal/domain/trip"
	"quicklift/internal/memrepo"
)

type fakeIndex struct {
	ids []string
	err error
}

func (f *fakeIndex) Nearby(context.Context, geo.Coordinate, float64, int) ([]string, error) {
	return f.ids, f.err
}

func TestFirstMatchHonorsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	repo := memrepo.NewDriverRepo()

	add := func(class trip.VehicleClass, status driver.Status) *driver.Driver {
		d, _ := driver.NewDriver("u", "LIC", class, "", "", "")
		d.Status = status
		_ = repo.Create(ctx, d)
		return d
	}

	add(trip.VehicleSedan, driver.StatusOffline)
	add(trip.VehicleSUV, driver.StatusOnline)
	want := add(trip.VehicleSedan, driver.StatusOnline)
	add(trip.VehicleSedan, driver.StatusOnline)

	strategy := &FirstMatch{Drivers: repo}
	got, err := strategy.Match(ctx, trip.VehicleSedan, geo.Coordinate{})
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if got.ID != want.ID {
		t.Fatalf("matched %s, want first online sedan %s", got.ID, want.ID)
	}

	if _, err := strategy.Match(ctx, trip.VehicleLuxury, geo.Coordinate{}); !errors.Is(err, ErrNoDriverAvailable) {
		t.Fatalf("luxury: got %v, want ErrNoDriverAvailable", err)
	}
}

func TestNearestMatchFiltersClassAndStatus(t *testing.T) {
	ctx := context.Background()
	repo := memrepo.NewDriverRepo()

	nearest, _ := driver.NewDriver("u1", "LIC", trip.VehicleSUV, "", "", "")
	nearest.Status = driver.StatusOnline
	_ = repo.Create(ctx, nearest)

	busy, _ := driver.NewDriver("u2", "LIC", trip.VehicleSedan, "", "", "")
	busy.Status = driver.StatusBusy
	_ = repo.Create(ctx, busy)

	match, _ := driver.NewDriver("u3", "LIC", trip.VehicleSedan, "", "", "")
	match.Status = driver.StatusOnline
	_ = repo.Create(ctx, match)

	index := &fakeIndex{ids: []string{"gone", nearest.ID, busy.ID, match.ID}}
	strategy := &NearestMatch{Drivers: repo, Index: index}

	got, err := strategy.Match(ctx, trip.VehicleSedan, geo.Coordinate{Latitude: 19, Longitude: 72})
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if got.ID != match.ID {
		t.Fatalf("matched %s, want nearest eligible %s", got.ID, match.ID)
	}

	empty := &NearestMatch{Drivers: repo, Index: &fakeIndex{}}
	if _, err := empty.Match(ctx, trip.VehicleSedan, geo.Coordinate{}); !errors.Is(err, ErrNoDriverAvailable) {
		t.Fatalf("empty radius: got %v, want ErrNoDriverAvailable", err)
	}
}
