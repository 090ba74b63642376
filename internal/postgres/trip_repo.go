package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"quicklift/internal/domain/trip"
	"quicklift/internal/ports"
)

// TripRepo persists trips using pgx and plain SQL.
type TripRepo struct {
	pool *pgxpool.Pool
}

func NewTripRepo(pool *pgxpool.Pool) ports.TripRepository {
	return &TripRepo{pool: pool}
}

const tripColumns = `
	id, trip_number, rider_id, driver_id,
	pickup_address, destination_address,
	pickup_lat, pickup_lng, destination_lat, destination_lng,
	vehicle_class, status, fare, notes, payment_method, paid,
	rating, review,
	requested_at, accepted_at, started_at, completed_at, cancelled_at,
	created_at, updated_at`

func (repo *TripRepo) Create(ctx context.Context, t *trip.Trip) error {
	_, err := db(ctx, repo.pool).Exec(ctx, `
		INSERT INTO trips (`+tripColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25)
	`,
		t.ID, t.TripNumber, t.RiderID, t.DriverID,
		t.PickupAddress, t.DestinationAddress,
		t.Pickup.Latitude, t.Pickup.Longitude, t.Destination.Latitude, t.Destination.Longitude,
		t.VehicleClass.String(), t.Status.String(), t.Fare, t.Notes, t.PaymentMethod, t.Paid,
		t.Rating, t.Review,
		t.RequestedAt, t.AcceptedAt, t.StartedAt, t.CompletedAt, t.CancelledAt,
		t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert trip: %w", err)
	}
	return nil
}

func (repo *TripRepo) GetByID(ctx context.Context, id string) (*trip.Trip, error) {
	row := db(ctx, repo.pool).QueryRow(ctx, `SELECT `+tripColumns+` FROM trips WHERE id = $1`, id)
	t, err := scanTrip(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrTripNotFound
		}
		return nil, fmt.Errorf("select trip: %w", err)
	}
	return t, nil
}

func (repo *TripRepo) Update(ctx context.Context, t *trip.Trip) error {
	tag, err := db(ctx, repo.pool).Exec(ctx, `
		UPDATE trips SET
			driver_id = $2, status = $3, fare = $4, notes = $5,
			payment_method = $6, paid = $7, rating = $8, review = $9,
			accepted_at = $10, started_at = $11, completed_at = $12, cancelled_at = $13,
			updated_at = $14
		WHERE id = $1
	`,
		t.ID, t.DriverID, t.Status.String(), t.Fare, t.Notes,
		t.PaymentMethod, t.Paid, t.Rating, t.Review,
		t.AcceptedAt, t.StartedAt, t.CompletedAt, t.CancelledAt,
		t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update trip: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrTripNotFound
	}
	return nil
}

func (repo *TripRepo) ListByRider(ctx context.Context, riderID string) ([]*trip.Trip, error) {
	return repo.selectTrips(ctx, `SELECT `+tripColumns+` FROM trips WHERE rider_id = $1 ORDER BY created_at`, riderID)
}

func (repo *TripRepo) ListByDriver(ctx context.Context, driverID string) ([]*trip.Trip, error) {
	return repo.selectTrips(ctx, `SELECT `+tripColumns+` FROM trips WHERE driver_id = $1 ORDER BY created_at`, driverID)
}

func (repo *TripRepo) ListByStatus(ctx context.Context, status trip.Status) ([]*trip.Trip, error) {
	return repo.selectTrips(ctx, `SELECT `+tripColumns+` FROM trips WHERE status = $1 ORDER BY created_at`, status.String())
}

func (repo *TripRepo) ActiveForDriver(ctx context.Context, driverID string) (*trip.Trip, error) {
	row := db(ctx, repo.pool).QueryRow(ctx, `
		SELECT `+tripColumns+` FROM trips
		WHERE driver_id = $1 AND status IN ('ACCEPTED','STARTED')
		ORDER BY created_at
		LIMIT 1
	`, driverID)
	t, err := scanTrip(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select active trip: %w", err)
	}
	return t, nil
}

func (repo *TripRepo) NextTripNumber(ctx context.Context) (string, error) {
	var seq int64
	if err := db(ctx, repo.pool).QueryRow(ctx, `SELECT nextval('trip_number_seq')`).Scan(&seq); err != nil {
		return "", fmt.Errorf("next trip number: %w", err)
	}
	return fmt.Sprintf("TRIP_%s_%03d", time.Now().UTC().Format("20060102"), seq), nil
}

func (repo *TripRepo) selectTrips(ctx context.Context, sql string, args ...any) ([]*trip.Trip, error) {
	rows, err := db(ctx, repo.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("select trips: %w", err)
	}
	defer rows.Close()

	var out []*trip.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trip: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTrip(row pgx.Row) (*trip.Trip, error) {
	var (
		t            trip.Trip
		vehicleClass string
		status       string
	)
	err := row.Scan(
		&t.ID, &t.TripNumber, &t.RiderID, &t.DriverID,
		&t.PickupAddress, &t.DestinationAddress,
		&t.Pickup.Latitude, &t.Pickup.Longitude, &t.Destination.Latitude, &t.Destination.Longitude,
		&vehicleClass, &status, &t.Fare, &t.Notes, &t.PaymentMethod, &t.Paid,
		&t.Rating, &t.Review,
		&t.RequestedAt, &t.AcceptedAt, &t.StartedAt, &t.CompletedAt, &t.CancelledAt,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.VehicleClass = trip.VehicleClass(vehicleClass)
	t.Status = trip.Status(status)
	return &t, nil
}
