package driver

import (
	"errors"
	"strings"
	"time"

	"quicklift/internal/domain/geo"
	"quicklift/internal/domain/trip"
)

// Driver is the domain entity corresponding to the `drivers` table.
type Driver struct {
	ID            string
	UserID        string
	LicenseNumber string

	VehicleClass trip.VehicleClass
	VehicleModel string
	VehicleColor string
	VehiclePlate string

	Status   Status
	Location *geo.Coordinate

	Rating     float64
	TotalRides int

	CreatedAt time.Time
	UpdatedAt time.Time
}

var (
	ErrUserRequired    = errors.New("user id is required")
	ErrLicenseRequired = errors.New("license number is required")

	// ErrNotOnline rejects trip assignment to a driver that is offline or busy.
	ErrNotOnline = errors.New("driver is not available")
	// ErrNotBusy rejects releasing a driver that holds no active trip.
	ErrNotBusy = errors.New("driver has no active trip")
)

// NewDriver registers a driver. Drivers start OFFLINE and must go online
// explicitly before they can receive trip offers.
func NewDriver(userID, licenseNumber string, class trip.VehicleClass, model, color, plate string) (*Driver, error) {
	if userID = strings.TrimSpace(userID); userID == "" {
		return nil, ErrUserRequired
	}
	if licenseNumber = strings.TrimSpace(licenseNumber); licenseNumber == "" {
		return nil, ErrLicenseRequired
	}
	if !class.Valid() {
		return nil, trip.ErrInvalidVehicleClass
	}

	now := time.Now().UTC()
	return &Driver{
		UserID:        userID,
		LicenseNumber: licenseNumber,
		VehicleClass:  class,
		VehicleModel:  strings.TrimSpace(model),
		VehicleColor:  strings.TrimSpace(color),
		VehiclePlate:  strings.TrimSpace(plate),
		Status:        StatusOffline,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// GoOnline makes the driver eligible for matching. A busy driver stays busy.
func (d *Driver) GoOnline() error {
	if d.Status == StatusBusy {
		return ErrNotOnline
	}
	d.setStatus(StatusOnline)
	return nil
}

// GoOffline removes the driver from matching. A busy driver must finish or
// cancel the active trip first.
func (d *Driver) GoOffline() error {
	if d.Status == StatusBusy {
		return ErrNotOnline
	}
	d.setStatus(StatusOffline)
	return nil
}

// Assign marks the driver busy for an accepted trip. Only an online driver
// can be assigned.
func (d *Driver) Assign() error {
	if d.Status != StatusOnline {
		return ErrNotOnline
	}
	d.setStatus(StatusBusy)
	return nil
}

// Release returns a busy driver to the online pool after a trip ends.
func (d *Driver) Release() error {
	if d.Status != StatusBusy {
		return ErrNotBusy
	}
	d.setStatus(StatusOnline)
	return nil
}

// ApplyCompletion releases the driver and counts the finished ride. Called
// exactly once per completed trip.
func (d *Driver) ApplyCompletion() error {
	if err := d.Release(); err != nil {
		return err
	}
	d.TotalRides++
	return nil
}

// UpdateLocation records the driver's latest reported position.
func (d *Driver) UpdateLocation(location geo.Coordinate) error {
	if err := location.Validate(); err != nil {
		return err
	}
	d.Location = &location
	d.touch()
	return nil
}

// ApplyRating folds a new trip rating into the running average.
func (d *Driver) ApplyRating(rating float64) {
	rated := float64(d.TotalRides)
	if rated <= 0 {
		d.Rating = rating
	} else {
		d.Rating = (d.Rating*rated + rating) / (rated + 1)
	}
	d.touch()
}

// Available reports whether the driver can be offered a new trip.
func (d *Driver) Available() bool {
	return d.Status == StatusOnline
}

func (d *Driver) setStatus(status Status) {
	d.Status = status
	d.touch()
}

func (d *Driver) touch() {
	d.UpdatedAt = time.Now().UTC()
}
