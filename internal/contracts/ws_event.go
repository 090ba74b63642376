package contracts

import "time"

// WSRiderTripStatus mirrors status updates sent over the rider WebSocket.
type WSRiderTripStatus struct {
	Type       string       `json:"type"` // "trip_status_update"
	TripID     string       `json:"trip_id"`
	TripNumber string       `json:"trip_number,omitempty"`
	Status     string       `json:"status"`
	DriverInfo *DriverBrief `json:"driver_info,omitempty"`
	Envelope                // allows correlation_id reuse
}

// WSDriverTripOffer mirrors "trip_offer" sent to drivers.
type WSDriverTripOffer struct {
	Type               string   `json:"type"` // "trip_offer"
	TripID             string   `json:"trip_id"`
	TripNumber         string   `json:"trip_number,omitempty"`
	Pickup             GeoPoint `json:"pickup_location"`
	Destination        GeoPoint `json:"destination_location"`
	VehicleClass       string   `json:"vehicle_class"`
	EstimatedFare      float64  `json:"estimated_fare,omitempty"`
	DistanceToPickupKm float64  `json:"distance_to_pickup_km,omitempty"`
	ExpiresAt          string   `json:"expires_at,omitempty"` // ISO-8601
	Envelope
}

// WSRiderLocationUpdate mirrors "driver_location_update" sent to riders.
type WSRiderLocationUpdate struct {
	Type           string    `json:"type"` // "driver_location_update"
	TripID         string    `json:"trip_id"`
	Location       GeoPoint  `json:"location"`
	SpeedKMH       float64   `json:"speed_kmh,omitempty"`
	HeadingDegrees float64   `json:"heading_degrees,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	Envelope
}

// WSDriverLocationReport is the inbound frame a driver client sends.
type WSDriverLocationReport struct {
	Type           string  `json:"type"` // "location_update"
	TripID         string  `json:"trip_id,omitempty"`
	Lat            float64 `json:"lat"`
	Lng            float64 `json:"lng"`
	SpeedKMH       float64 `json:"speed_kmh,omitempty"`
	HeadingDegrees float64 `json:"heading_degrees,omitempty"`
}
