package contracts

import "time"

// DriverStatusMessage announces a driver's availability change.
// Routing key: "driver.status.{driver_id}" on ExchangeDriverTopic.
type DriverStatusMessage struct {
	DriverID  string    `json:"driver_id"`
	Status    string    `json:"status"` // OFFLINE|ONLINE|BUSY
	TripID    string    `json:"trip_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Envelope
}
