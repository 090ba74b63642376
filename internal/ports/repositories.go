package ports

import (
	"context"
	"errors"

	"quicklift/internal/domain/driver"
	"quicklift/internal/domain/geo"
	"quicklift/internal/domain/trip"
	"quicklift/internal/domain/user"
)

// Not-found sentinels shared by every repository implementation.
var (
	ErrTripNotFound   = errors.New("trip not found")
	ErrDriverNotFound = errors.New("driver not found")
	ErrUserNotFound   = errors.New("user not found")
)

// UnitOfWork interface is used to manage transactions across multiple repository operations.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository defines the methods for managing user data.
type UserRepository interface {
	Create(ctx context.Context, u *user.User) error
	GetByID(ctx context.Context, id string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
}

// TripRepository defines the methods for managing trip data.
type TripRepository interface {
	Create(ctx context.Context, t *trip.Trip) error
	GetByID(ctx context.Context, id string) (*trip.Trip, error)
	// Update persists the full mutable state of an existing trip.
	Update(ctx context.Context, t *trip.Trip) error
	ListByRider(ctx context.Context, riderID string) ([]*trip.Trip, error)
	ListByDriver(ctx context.Context, driverID string) ([]*trip.Trip, error)
	ListByStatus(ctx context.Context, status trip.Status) ([]*trip.Trip, error)
	// ActiveForDriver returns the driver's ACCEPTED or STARTED trip, if any.
	ActiveForDriver(ctx context.Context, driverID string) (*trip.Trip, error)
	// NextTripNumber issues the next TRIP_{yyyymmdd}_{seq} identifier.
	NextTripNumber(ctx context.Context) (string, error)
}

// DriverRepository defines the methods for managing driver data.
type DriverRepository interface {
	Create(ctx context.Context, d *driver.Driver) error
	GetByID(ctx context.Context, id string) (*driver.Driver, error)
	GetByUserID(ctx context.Context, userID string) (*driver.Driver, error)
	Update(ctx context.Context, d *driver.Driver) error
	// ListByClassAndStatus returns drivers of a vehicle class in a given
	// status, ordered by registration time. Matching relies on this order.
	ListByClassAndStatus(ctx context.Context, class trip.VehicleClass, status driver.Status) ([]*driver.Driver, error)
	ListByStatus(ctx context.Context, status driver.Status) ([]*driver.Driver, error)
	UpdateLocation(ctx context.Context, id string, location geo.Coordinate) error
}
