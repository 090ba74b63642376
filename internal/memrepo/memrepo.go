// Package memrepo provides in-memory repository implementations backing unit
// tests and single-process deployments without Postgres. Iteration order is
// insertion order, which the first-match strategy depends on.
package memrepo

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"quicklift/internal/domain/driver"
	"quicklift/internal/domain/geo"
	"quicklift/internal/domain/trip"
	"quicklift/internal/domain/user"
	"quicklift/internal/ports"
)

// ----- Unit of work -----

// NoopUnitOfWork runs the callback without transactional boundaries. The
// in-memory stores mutate under their own locks.
type NoopUnitOfWork struct{}

func (NoopUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// ----- Trip repository -----

type TripRepo struct {
	mu    sync.RWMutex
	byID  map[string]*trip.Trip
	order []string // insertion order of trip ids
	seq   int
}

func NewTripRepo() *TripRepo {
	return &TripRepo{byID: make(map[string]*trip.Trip)}
}

func (r *TripRepo) Create(_ context.Context, t *trip.Trip) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	cp := *t
	r.byID[t.ID] = &cp
	r.order = append(r.order, t.ID)
	return nil
}

func (r *TripRepo) GetByID(_ context.Context, id string) (*trip.Trip, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.byID[id]
	if !ok {
		return nil, ports.ErrTripNotFound
	}
	cp := *stored
	return &cp, nil
}

func (r *TripRepo) Update(_ context.Context, t *trip.Trip) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[t.ID]; !ok {
		return ports.ErrTripNotFound
	}
	cp := *t
	r.byID[t.ID] = &cp
	return nil
}

func (r *TripRepo) ListByRider(_ context.Context, riderID string) ([]*trip.Trip, error) {
	return r.list(func(t *trip.Trip) bool { return t.RiderID == riderID }), nil
}

func (r *TripRepo) ListByDriver(_ context.Context, driverID string) ([]*trip.Trip, error) {
	return r.list(func(t *trip.Trip) bool {
		return t.DriverID != nil && *t.DriverID == driverID
	}), nil
}

func (r *TripRepo) ListByStatus(_ context.Context, status trip.Status) ([]*trip.Trip, error) {
	return r.list(func(t *trip.Trip) bool { return t.Status == status }), nil
}

func (r *TripRepo) ActiveForDriver(_ context.Context, driverID string) (*trip.Trip, error) {
	active := r.list(func(t *trip.Trip) bool {
		return t.Active() && t.DriverID != nil && *t.DriverID == driverID
	})
	if len(active) == 0 {
		return nil, nil
	}
	return active[0], nil
}

func (r *TripRepo) NextTripNumber(_ context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return fmt.Sprintf("TRIP_%s_%03d", time.Now().UTC().Format("20060102"), r.seq), nil
}

func (r *TripRepo) list(keep func(*trip.Trip) bool) []*trip.Trip {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*trip.Trip
	for _, id := range r.order {
		if t := r.byID[id]; keep(t) {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out
}

// ----- Driver repository -----

type DriverRepo struct {
	mu    sync.RWMutex
	byID  map[string]*driver.Driver
	order []string // registration order of driver ids
}

func NewDriverRepo() *DriverRepo {
	return &DriverRepo{byID: make(map[string]*driver.Driver)}
}

func (r *DriverRepo) Create(_ context.Context, d *driver.Driver) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	cp := *d
	r.byID[d.ID] = &cp
	r.order = append(r.order, d.ID)
	return nil
}

func (r *DriverRepo) GetByID(_ context.Context, id string) (*driver.Driver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.byID[id]
	if !ok {
		return nil, ports.ErrDriverNotFound
	}
	cp := *stored
	return &cp, nil
}

func (r *DriverRepo) GetByUserID(_ context.Context, userID string) (*driver.Driver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		if d := r.byID[id]; d.UserID == userID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, ports.ErrDriverNotFound
}

func (r *DriverRepo) Update(_ context.Context, d *driver.Driver) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[d.ID]; !ok {
		return ports.ErrDriverNotFound
	}
	cp := *d
	r.byID[d.ID] = &cp
	return nil
}

func (r *DriverRepo) ListByClassAndStatus(_ context.Context, class trip.VehicleClass, status driver.Status) ([]*driver.Driver, error) {
	return r.list(func(d *driver.Driver) bool {
		return d.VehicleClass == class && d.Status == status
	}), nil
}

func (r *DriverRepo) ListByStatus(_ context.Context, status driver.Status) ([]*driver.Driver, error) {
	return r.list(func(d *driver.Driver) bool { return d.Status == status }), nil
}

func (r *DriverRepo) UpdateLocation(_ context.Context, id string, location geo.Coordinate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.byID[id]
	if !ok {
		return ports.ErrDriverNotFound
	}
	d.Location = &location
	d.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *DriverRepo) list(keep func(*driver.Driver) bool) []*driver.Driver {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*driver.Driver
	for _, id := range r.order {
		if d := r.byID[id]; keep(d) {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out
}

// ----- User repository -----

type UserRepo struct {
	mu    sync.RWMutex
	byID  map[string]*user.User
	order []string
}

func NewUserRepo() *UserRepo {
	return &UserRepo{byID: make(map[string]*user.User)}
}

func (r *UserRepo) Create(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	cp := *u
	r.byID[u.ID] = &cp
	r.order = append(r.order, u.ID)
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.byID[id]
	if !ok {
		return nil, ports.ErrUserNotFound
	}
	cp := *stored
	return &cp, nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		if u := r.byID[id]; u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ports.ErrUserNotFound
}
