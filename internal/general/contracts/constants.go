package contracts

// Exchanges
const (
	ExchangeTripTopic      = "trip_topic"
	ExchangeBidTopic       = "bid_topic"
	ExchangeLocationFanout = "location_fanout"
)

// Queues
const (
	QueueTripStatus      = "trip_status"
	QueueBidEvents       = "bid_events"
	QueueLocationSamples = "location_samples"
)

// Routing patterns
const (
	RouteTripStatusPrefix = "trip.status." // {status}
	RouteBidEventPrefix   = "bid.event."   // {kind}
)

// WebSocket event types pushed to connected clients.
const (
	EventNewRideRequest  = "new_ride_request"
	EventNewBid          = "new_bid"
	EventBidStatusUpdate = "bid_status_update"
	EventRideStatus      = "ride_status"
	EventTripStarted     = "trip_started"
	EventTripCompleted   = "trip_completed"
)
