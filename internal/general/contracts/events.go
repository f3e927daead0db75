package contracts

import "time"

// WSEvent is the envelope pushed over a user's WebSocket connection.
type WSEvent struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// TripEventData mirrors trip lifecycle payloads sent to clients and to the
// trip topic exchange.
type TripEventData struct {
	TripID       string   `json:"trip_id"`
	Status       string   `json:"status"`
	PassengerID  string   `json:"passenger_id,omitempty"`
	DriverID     string   `json:"driver_id,omitempty"`
	Origin       GeoPoint `json:"origin,omitempty"`
	Destination  GeoPoint `json:"destination,omitempty"`
	StartTime    string   `json:"start_time,omitempty"` // ISO-8601
	Seats        int      `json:"seats,omitempty"`
	PricePerSeat float64  `json:"price_per_seat,omitempty"`
	Penalty      float64  `json:"penalty,omitempty"`
	Envelope
}

// BidEventData mirrors bid lifecycle payloads.
type BidEventData struct {
	BidID        string  `json:"bid_id"`
	TripID       string  `json:"trip_id"`
	DriverID     string  `json:"driver_id"`
	Amount       float64 `json:"amount"`
	Status       string  `json:"status"`
	Message      string  `json:"message,omitempty"`
	IsCounterBid bool    `json:"is_counter_bid,omitempty"`
	ParentBidID  string  `json:"parent_bid_id,omitempty"`
	Envelope
}

// LocationSampleMessage fans driver pings out to the location exchange.
type LocationSampleMessage struct {
	TripID         string    `json:"trip_id"`
	DriverID       string    `json:"driver_id"`
	Location       GeoPoint  `json:"location"`
	SpeedKMH       float64   `json:"speed_kmh,omitempty"`
	HeadingDegrees float64   `json:"heading_degrees,omitempty"`
	RecordedAt     time.Time `json:"recorded_at"`
	Envelope
}
