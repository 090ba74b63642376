package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"quicklift/internal/domain/driver"
	"quicklift/internal/domain/user"
	"quicklift/internal/ports"
)

// RegisterDriver creates a user account and its driver profile in one
// transaction. The driver starts OFFLINE and goes online through
// SetDriverStatus.
func (s *Service) RegisterDriver(ctx context.Context, in ports.RegisterDriverInput) (ports.RegisterDriverResult, error) {
	if s.users == nil {
		return ports.RegisterDriverResult{}, errors.New("driver registration is not configured")
	}

	u, err := user.NewUser(in.Email, in.FullName, in.Phone, user.RoleDriver)
	if err != nil {
		return ports.RegisterDriverResult{}, err
	}
	u.ID = uuid.NewString()

	existing, err := s.users.GetByEmail(ctx, u.Email)
	if err != nil && !errors.Is(err, ports.ErrUserNotFound) {
		return ports.RegisterDriverResult{}, fmt.Errorf("lookup user by email: %w", err)
	}
	if existing != nil {
		if _, err := s.drivers.GetByUserID(ctx, existing.ID); err == nil {
			return ports.RegisterDriverResult{}, ErrDriverExists
		}
		return ports.RegisterDriverResult{}, ErrEmailTaken
	}

	d, err := driver.NewDriver(u.ID, in.LicenseNumber, in.VehicleClass, in.VehicleModel, in.VehicleColor, in.LicensePlate)
	if err != nil {
		return ports.RegisterDriverResult{}, err
	}
	d.ID = uuid.NewString()

	err = s.uow.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, u); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		if err := s.drivers.Create(ctx, d); err != nil {
			return fmt.Errorf("create driver: %w", err)
		}
		return nil
	})
	if err != nil {
		return ports.RegisterDriverResult{}, err
	}

	s.log.Info(ctx, "driver_registered", "driver profile created", map[string]any{
		"driver_id": d.ID, "user_id": u.ID, "vehicle_class": d.VehicleClass.String(),
	})

	return ports.RegisterDriverResult{
		DriverID: d.ID,
		UserID:   u.ID,
		Status:   d.Status.String(),
	}, nil
}
