package contracts

// TripOfferMessage is sent to the matched driver when a rider books.
// Routing key: "trip.request.{vehicle_class}" on ExchangeTripTopic.
type TripOfferMessage struct {
	TripID        string   `json:"trip_id"` // UUID
	TripNumber    string   `json:"trip_number"`
	Pickup        GeoPoint `json:"pickup_location"`
	Destination   GeoPoint `json:"destination_location"`
	VehicleClass  string   `json:"vehicle_class"` // SEDAN|SUV|HATCHBACK|LUXURY
	EstimatedFare float64  `json:"estimated_fare,omitempty"`
	Notes         string   `json:"notes,omitempty"`
	Envelope
}
