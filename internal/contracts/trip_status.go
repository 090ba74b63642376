package contracts

import "time"

// TripStatusMessage announces every trip status change.
// Routing key: "trip.status.{status}" on ExchangeTripTopic.
type TripStatusMessage struct {
	TripID     string    `json:"trip_id"`
	TripNumber string    `json:"trip_number,omitempty"`
	Status     string    `json:"status"` // REQUESTED|ACCEPTED|STARTED|COMPLETED|CANCELLED
	Timestamp  time.Time `json:"timestamp"`
	DriverID   string    `json:"driver_id,omitempty"`
	FinalFare  *float64  `json:"final_fare,omitempty"`
	Envelope
}
