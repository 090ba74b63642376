package ports

import (
	"context"
	"time"

	"quicklift/internal/domain/driver"
	"quicklift/internal/domain/trip"
)

// ----- DTOs for the Dispatch Service -----

// GeoPoint represents a simple latitude/longitude pair.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// EstimateInput is the validated input for POST /api/trips/estimate.
type EstimateInput struct {
	Pickup      *GeoPoint
	Destination *GeoPoint
	Tolls       float64
}

// EstimateResult matches the API response for a fare estimate.
type EstimateResult struct {
	DistanceKM    float64 `json:"distance_km"`
	RatePerKM     float64 `json:"rate_per_km"`
	EstimatedFare float64 `json:"estimated_fare"`
}

// BookTripInput is the validated input required to book a trip.
type BookTripInput struct {
	RiderID            string
	PickupAddress      string
	DestinationAddress string
	Pickup             GeoPoint
	Destination        GeoPoint
	VehicleClass       trip.VehicleClass
	PaymentMethod      string
	Notes              string
}

// BookTripResult is returned by DispatchService.BookTrip.
type BookTripResult struct {
	TripID        string  `json:"trip_id"`
	TripNumber    string  `json:"trip_number"`
	Status        string  `json:"status"`
	EstimatedFare float64 `json:"estimated_fare"`
	// OfferedDriverID is the driver the booking was offered to, empty when
	// no driver was available.
	OfferedDriverID string `json:"offered_driver_id,omitempty"`
}

// CancelTripResult matches the API response for a cancellation.
type CancelTripResult struct {
	TripID      string `json:"trip_id"`
	Status      string `json:"status"`
	CancelledAt string `json:"cancelled_at"`
	Message     string `json:"message"`
}

// RateTripInput is the validated input for POST /api/trips/{id}/rate.
type RateTripInput struct {
	TripID  string
	RiderID string
	Rating  float64
	Review  string
}

// CompleteTripInput is the validated input for completing a trip.
type CompleteTripInput struct {
	TripID   string
	DriverID string
	// FinalFare overrides the estimate when positive; zero keeps the estimate.
	FinalFare float64
}

// DriverSummaryResult aggregates a driver's record.
type DriverSummaryResult struct {
	DriverID     string  `json:"driver_id"`
	Status       string  `json:"status"`
	VehicleClass string  `json:"vehicle_class"`
	Rating       float64 `json:"rating"`
	TotalRides   int     `json:"total_rides"`
	TotalEarned  float64 `json:"total_earned"`
}

// RegisterDriverInput creates a user account plus a driver profile in one
// step.
type RegisterDriverInput struct {
	Email         string
	FullName      string
	Phone         string
	LicenseNumber string
	VehicleClass  trip.VehicleClass
	VehicleModel  string
	VehicleColor  string
	LicensePlate  string
}

// RegisterDriverResult is returned by DispatchService.RegisterDriver.
type RegisterDriverResult struct {
	DriverID string `json:"driver_id"`
	UserID   string `json:"user_id"`
	Status   string `json:"status"`
}

// LocationReport is a driver position update flowing from the gateway.
type LocationReport struct {
	DriverID       string
	TripID         string
	Latitude       float64
	Longitude      float64
	SpeedKMH       float64
	HeadingDegrees float64
	ReportedAt     time.Time
}

// ----- Dispatch Service Interface -----

// DispatchService exposes the trip lifecycle and driver dispatch boundary.
type DispatchService interface {
	// Rider operations
	Estimate(ctx context.Context, in EstimateInput) (EstimateResult, error)
	BookTrip(ctx context.Context, in BookTripInput) (BookTripResult, error)
	CancelTrip(ctx context.Context, tripID string) (CancelTripResult, error)
	RateTrip(ctx context.Context, in RateTripInput) (*trip.Trip, error)
	MarkPaid(ctx context.Context, tripID string) (*trip.Trip, error)
	SetPaymentMethod(ctx context.Context, tripID, method string) (*trip.Trip, error)

	// Driver operations
	AcceptTrip(ctx context.Context, tripID, driverID string) (*trip.Trip, error)
	StartTrip(ctx context.Context, tripID, driverID string) (*trip.Trip, error)
	CompleteTrip(ctx context.Context, in CompleteTripInput) (*trip.Trip, error)
	RejectTrip(ctx context.Context, tripID, driverID string) error
	RegisterDriver(ctx context.Context, in RegisterDriverInput) (RegisterDriverResult, error)
	SetDriverStatus(ctx context.Context, driverID string, status driver.Status) (*driver.Driver, error)
	ReportLocation(ctx context.Context, in LocationReport) error

	// Queries
	GetTrip(ctx context.Context, tripID string) (*trip.Trip, error)
	ListRiderTrips(ctx context.Context, riderID string) ([]*trip.Trip, error)
	ListDriverTrips(ctx context.Context, driverID string) ([]*trip.Trip, error)
	ListTripsByStatus(ctx context.Context, status trip.Status) ([]*trip.Trip, error)
	AvailableTrips(ctx context.Context, driverID string) ([]*trip.Trip, error)
	ActiveTripForDriver(ctx context.Context, driverID string) (*trip.Trip, error)
	DriverSummary(ctx context.Context, driverID string) (DriverSummaryResult, error)
	OnlineDrivers(ctx context.Context) ([]*driver.Driver, error)
}
