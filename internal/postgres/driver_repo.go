package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"quicklift/internal/domain/driver"
	"quicklift/internal/domain/geo"
	"quicklift/internal/domain/trip"
	"quicklift/internal/ports"
)

// DriverRepo persists driver profiles using pgx and plain SQL.
type DriverRepo struct {
	pool *pgxpool.Pool
}

func NewDriverRepo(pool *pgxpool.Pool) ports.DriverRepository {
	return &DriverRepo{pool: pool}
}

const driverColumns = `
	id, user_id, license_number,
	vehicle_class, vehicle_model, vehicle_color, vehicle_plate,
	status, location_lat, location_lng,
	rating, total_rides,
	created_at, updated_at`

func (repo *DriverRepo) Create(ctx context.Context, d *driver.Driver) error {
	var lat, lng *float64
	if d.Location != nil {
		lat, lng = &d.Location.Latitude, &d.Location.Longitude
	}
	_, err := db(ctx, repo.pool).Exec(ctx, `
		INSERT INTO drivers (`+driverColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`,
		d.ID, d.UserID, d.LicenseNumber,
		d.VehicleClass.String(), d.VehicleModel, d.VehicleColor, d.VehiclePlate,
		d.Status.String(), lat, lng,
		d.Rating, d.TotalRides,
		d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert driver: %w", err)
	}
	return nil
}

func (repo *DriverRepo) GetByID(ctx context.Context, id string) (*driver.Driver, error) {
	row := db(ctx, repo.pool).QueryRow(ctx, `SELECT `+driverColumns+` FROM drivers WHERE id = $1`, id)
	return scanDriverRow(row, "select driver")
}

func (repo *DriverRepo) GetByUserID(ctx context.Context, userID string) (*driver.Driver, error) {
	row := db(ctx, repo.pool).QueryRow(ctx, `SELECT `+driverColumns+` FROM drivers WHERE user_id = $1`, userID)
	return scanDriverRow(row, "select driver by user")
}

func (repo *DriverRepo) Update(ctx context.Context, d *driver.Driver) error {
	var lat, lng *float64
	if d.Location != nil {
		lat, lng = &d.Location.Latitude, &d.Location.Longitude
	}
	tag, err := db(ctx, repo.pool).Exec(ctx, `
		UPDATE drivers SET
			status = $2, location_lat = $3, location_lng = $4,
			rating = $5, total_rides = $6, updated_at = $7
		WHERE id = $1
	`, d.ID, d.Status.String(), lat, lng, d.Rating, d.TotalRides, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update driver: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrDriverNotFound
	}
	return nil
}

// ListByClassAndStatus orders by created_at so first-match selection follows
// registration order.
func (repo *DriverRepo) ListByClassAndStatus(ctx context.Context, class trip.VehicleClass, status driver.Status) ([]*driver.Driver, error) {
	return repo.selectDrivers(ctx, `
		SELECT `+driverColumns+` FROM drivers
		WHERE vehicle_class = $1 AND status = $2
		ORDER BY created_at
	`, class.String(), status.String())
}

func (repo *DriverRepo) ListByStatus(ctx context.Context, status driver.Status) ([]*driver.Driver, error) {
	return repo.selectDrivers(ctx, `
		SELECT `+driverColumns+` FROM drivers WHERE status = $1 ORDER BY created_at
	`, status.String())
}

func (repo *DriverRepo) UpdateLocation(ctx context.Context, id string, location geo.Coordinate) error {
	tag, err := db(ctx, repo.pool).Exec(ctx, `
		UPDATE drivers SET location_lat = $2, location_lng = $3, updated_at = $4 WHERE id = $1
	`, id, location.Latitude, location.Longitude, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update driver location: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrDriverNotFound
	}
	return nil
}

func (repo *DriverRepo) selectDrivers(ctx context.Context, sql string, args ...any) ([]*driver.Driver, error) {
	rows, err := db(ctx, repo.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("select drivers: %w", err)
	}
	defer rows.Close()

	var out []*driver.Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, fmt.Errorf("scan driver: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanDriverRow(row pgx.Row, op string) (*driver.Driver, error) {
	d, err := scanDriver(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrDriverNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return d, nil
}

func scanDriver(row pgx.Row) (*driver.Driver, error) {
	var (
		d            driver.Driver
		vehicleClass string
		status       string
		lat, lng     *float64
	)
	err := row.Scan(
		&d.ID, &d.UserID, &d.LicenseNumber,
		&vehicleClass, &d.VehicleModel, &d.VehicleColor, &d.VehiclePlate,
		&status, &lat, &lng,
		&d.Rating, &d.TotalRides,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.VehicleClass = trip.VehicleClass(vehicleClass)
	d.Status = driver.Status(status)
	if lat != nil && lng != nil {
		d.Location = &geo.Coordinate{Latitude: *lat, Longitude: *lng}
	}
	return &d, nil
}
