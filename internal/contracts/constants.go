package contracts

// Exchanges
const (
	ExchangeTripTopic      = "trip_topic"
	ExchangeDriverTopic    = "driver_topic"
	ExchangeLocationFanout = "location_fanout"
)

// Queues
const (
	QueueTripRequests        = "trip_requests"
	QueueTripStatus          = "trip_status"
	QueueDriverStatus        = "driver_status"
	QueueLocationUpdatesTrip = "location_updates_trip"
)

// Routing patterns
const (
	RouteTripRequestPrefix  = "trip.request."  // {vehicle_class}
	RouteTripStatusPrefix   = "trip.status."   // {status}
	RouteDriverStatusPrefix = "driver.status." // {driver_id}
)
