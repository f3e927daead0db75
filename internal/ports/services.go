package ports

import (
	"context"
	"time"

	"commuto/internal/domain/user"
	"commuto/internal/general/contracts"
)

// ----- DTOs for the Marketplace Service -----

// CreateTripInput is the validated input required to post a trip.
type CreateTripInput struct {
	Origin      contracts.GeoPoint
	Destination contracts.GeoPoint
	StartTime   time.Time
	Seats       int
}

// TripResult is the wire shape of a trip returned by read and write operations.
type TripResult struct {
	TripID             string             `json:"trip_id"`
	PassengerID        string             `json:"passenger_id"`
	DriverID           string             `json:"driver_id,omitempty"`
	Origin             contracts.GeoPoint `json:"origin"`
	Destination        contracts.GeoPoint `json:"destination"`
	StartTime          time.Time          `json:"start_time"`
	TotalSeats         int                `json:"total_seats"`
	AvailableSeats     int                `json:"available_seats"`
	PricePerSeat       float64            `json:"price_per_seat,omitempty"`
	Status             string             `json:"status"`
	CodeVerified       bool               `json:"code_verified"`
	StartedAt          *time.Time         `json:"started_at,omitempty"`
	CompletedAt        *time.Time         `json:"completed_at,omitempty"`
	CancellationReason string             `json:"cancellation_reason,omitempty"`
	Version            int64              `json:"version"`
	CreatedAt          time.Time          `json:"created_at"`
}

// CreateTripResult is returned by MarketplaceService.CreateTrip.
type CreateTripResult struct {
	TripResult
	Message string `json:"message"`
}

// CancelTripInput is the validated input for POST /trips/{trip_id}/cancel.
type CancelTripInput struct {
	TripID string
	Reason string
}

// CancelTripResult matches the API response for a cancellation.
type CancelTripResult struct {
	TripID      string  `json:"trip_id"`
	Status      string  `json:"status"`
	CancelledAt string  `json:"cancelled_at"`
	Penalty     float64 `json:"penalty"`
	Message     string  `json:"message"`
}

// VerifyStartCodeInput is the validated input for POST /trips/{trip_id}/verify.
type VerifyStartCodeInput struct {
	TripID    string
	StartCode string
}

// VerifyStartCodeResult matches the API response for a code verification.
type VerifyStartCodeResult struct {
	TripID    string    `json:"trip_id"`
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	Message   string    `json:"message"`
}

// CompleteTripResult matches the API response for completing a trip.
type CompleteTripResult struct {
	TripID      string    `json:"trip_id"`
	Status      string    `json:"status"`
	CompletedAt time.Time `json:"completed_at"`
	Message     string    `json:"message"`
}

// UpdateLocationInput is the validated input for POST /trips/{trip_id}/location.
type UpdateLocationInput struct {
	TripID         string
	Latitude       float64
	Longitude      float64
	SpeedKMH       *float64
	HeadingDegrees *float64
}

// UpdateLocationResult matches the API response for a location ping.
type UpdateLocationResult struct {
	SampleID   string    `json:"sample_id"`
	RecordedAt time.Time `json:"recorded_at"`
}

// PlaceBidInput is the validated input for POST /bids.
type PlaceBidInput struct {
	TripID  string
	Amount  float64
	Message string
}

// BidResult is the wire shape of a bid.
type BidResult struct {
	BidID        string    `json:"bid_id"`
	TripID       string    `json:"trip_id"`
	DriverID     string    `json:"driver_id"`
	Amount       float64   `json:"amount"`
	Message      string    `json:"message,omitempty"`
	Status       string    `json:"status"`
	IsCounterBid bool      `json:"is_counter_bid"`
	ParentBidID  string    `json:"parent_bid_id,omitempty"`
	Version      int64     `json:"version"`
	CreatedAt    time.Time `json:"created_at"`
}

// AcceptBidResult matches the API response for accepting a bid. The start
// code is only ever revealed to the trip's passenger here.
type AcceptBidResult struct {
	BidID        string  `json:"bid_id"`
	TripID       string  `json:"trip_id"`
	DriverID     string  `json:"driver_id"`
	PricePerSeat float64 `json:"price_per_seat"`
	TripStatus   string  `json:"trip_status"`
	StartCode    string  `json:"start_code"`
	Message      string  `json:"message"`
}

// CounterBidInput is the validated input for POST /bids/{bid_id}/counter.
type CounterBidInput struct {
	BidID   string
	Amount  float64
	Message string
}

// ----- Marketplace Service Interface -----

// MarketplaceService exposes the boundary for the trip and bid marketplace.
type MarketplaceService interface {
	CreateTrip(ctx context.Context, actor user.Principal, in CreateTripInput) (CreateTripResult, error)
	ListOpenTrips(ctx context.Context, actor user.Principal) ([]TripResult, error)
	GetTrip(ctx context.Context, actor user.Principal, tripID string) (TripResult, error)
	CancelTrip(ctx context.Context, actor user.Principal, in CancelTripInput) (CancelTripResult, error)
	VerifyStartCode(ctx context.Context, actor user.Principal, in VerifyStartCodeInput) (VerifyStartCodeResult, error)
	CompleteTrip(ctx context.Context, actor user.Principal, tripID string) (CompleteTripResult, error)
	UpdateLocation(ctx context.Context, actor user.Principal, in UpdateLocationInput) (UpdateLocationResult, error)

	PlaceBid(ctx context.Context, actor user.Principal, in PlaceBidInput) (BidResult, error)
	ListTripBids(ctx context.Context, actor user.Principal, tripID string) ([]BidResult, error)
	AcceptBid(ctx context.Context, actor user.Principal, bidID string) (AcceptBidResult, error)
	CounterBid(ctx context.Context, actor user.Principal, in CounterBidInput) (BidResult, error)
}

// ----- Outbound ports -----

// Notifier pushes events to connected clients. Delivery is best effort:
// implementations drop events for users without an open connection.
type Notifier interface {
	SendToUser(userID string, event contracts.WSEvent)
	BroadcastToDrivers(event contracts.WSEvent, excludeUserID string)
}

// EventPublisher emits domain events to the message broker.
type EventPublisher interface {
	PublishTripEvent(ctx context.Context, routingKey string, data contracts.TripEventData) error
	PublishBidEvent(ctx context.Context, routingKey string, data contracts.BidEventData) error
	PublishLocationSample(ctx context.Context, msg contracts.LocationSampleMessage) error
}
