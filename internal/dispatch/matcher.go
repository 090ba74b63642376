package dispatch

import (
	"context"
	"errors"
	"fmt"

	"quicklift/internal/domain/driver"
	"quicklift/internal/domain/geo"
	"quicklift/internal/domain/trip"
	"quicklift/internal/ports"
)

// MatchStrategy selects a driver for a booking. Implementations return
// ErrNoDriverAvailable when no eligible driver exists.
type MatchStrategy interface {
	Match(ctx context.Context, class trip.VehicleClass, pickup geo.Coordinate) (*driver.Driver, error)
}

// FirstMatch picks the first ONLINE driver of the requested class in
// registration order. It ignores distance, load and rating on purpose: this
// mirrors the behavior riders and drivers already observe, and stays the
// default strategy.
type FirstMatch struct {
	Drivers ports.DriverRepository
}

func (s *FirstMatch) Match(ctx context.Context, class trip.VehicleClass, _ geo.Coordinate) (*driver.Driver, error) {
	candidates, err := s.Drivers.ListByClassAndStatus(ctx, class, driver.StatusOnline)
	if err != nil {
		return nil, fmt.Errorf("list online drivers: %w", err)
	}
	if len(candidates) == 0 {
		return nil, ErrNoDriverAvailable
	}
	return candidates[0], nil
}

// DriverIndex is the geo-radius lookup NearestMatch queries; the Redis GEO
// index implements it.
type DriverIndex interface {
	Nearby(ctx context.Context, center geo.Coordinate, radiusKM float64, limit int) ([]string, error)
}

// NearestMatch picks the closest ONLINE driver of the requested class within
// RadiusKM of the pickup point. Opt-in via config; never the default.
type NearestMatch struct {
	Drivers  ports.DriverRepository
	Index    DriverIndex
	RadiusKM float64
	Limit    int
}

func (s *NearestMatch) Match(ctx context.Context, class trip.VehicleClass, pickup geo.Coordinate) (*driver.Driver, error) {
	radius := s.RadiusKM
	if radius <= 0 {
		radius = 5.0
	}
	limit := s.Limit
	if limit <= 0 {
		limit = 10
	}

	ids, err := s.Index.Nearby(ctx, pickup, radius, limit)
	if err != nil {
		return nil, fmt.Errorf("geo index lookup: %w", err)
	}

	// Results arrive nearest-first; take the first one that is still online
	// and drives the right class. The index lags reality, so re-check against
	// the repository.
	for _, id := range ids {
		d, err := s.Drivers.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, ErrDriverNotFound) {
				continue
			}
			return nil, err
		}
		if d.VehicleClass == class && d.Status == driver.StatusOnline {
			return d, nil
		}
	}
	return nil, ErrNoDriverAvailable
}
