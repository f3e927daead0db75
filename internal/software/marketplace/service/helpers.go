package service

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"commuto/internal/domain/bid"
	"commuto/internal/domain/trip"
	"commuto/internal/general/contracts"
	"commuto/internal/ports"
)

const producerName = "marketplace-service"

// generateStartCode returns a 6-digit code the passenger hands to the driver
// at pickup. Leading zeros are kept.
func generateStartCode() string {
	var b [4]byte
	_, _ = rand.Read(b[:])
	return fmt.Sprintf("%06d", binary.BigEndian.Uint32(b[:])%1_000_000)
}

// generateCorrelationID creates a simple correlation ID for tracing requests.
func generateCorrelationID() string {
	var b [3]byte // 6 hex chars
	_, _ = rand.Read(b[:])
	ts := time.Now().UTC().Format("20060102T150405")
	return "req_" + ts + "_" + hex.EncodeToString(b[:])
}

// envelope stamps correlation metadata onto outgoing messages.
func envelope(correlationID string) contracts.Envelope {
	return contracts.Envelope{
		CorrelationID: correlationID,
		Producer:      producerName,
		SentAt:        time.Now().UTC(),
	}
}

// toTripResult converts the entity to its wire shape. The start code never
// appears here; acceptance is the only place it is revealed.
func toTripResult(t *trip.Trip) ports.TripResult {
	out := ports.TripResult{
		TripID:      t.ID,
		PassengerID: t.PassengerID,
		Origin: contracts.GeoPoint{
			Lat: t.Origin.Lat, Lng: t.Origin.Lng, Address: t.Origin.Address,
		},
		Destination: contracts.GeoPoint{
			Lat: t.Destination.Lat, Lng: t.Destination.Lng, Address: t.Destination.Address,
		},
		StartTime:      t.StartTime,
		TotalSeats:     t.TotalSeats,
		AvailableSeats: t.AvailableSeats,
		PricePerSeat:   t.PricePerSeat,
		Status:         t.Status.String(),
		CodeVerified:   t.CodeVerified,
		StartedAt:      t.StartedAt,
		CompletedAt:    t.CompletedAt,
		Version:        t.Version,
		CreatedAt:      t.CreatedAt,
	}
	if t.DriverID != nil {
		out.DriverID = *t.DriverID
	}
	if t.CancellationReason != nil {
		out.CancellationReason = *t.CancellationReason
	}
	return out
}

// toBidResult converts the entity to its wire shape.
func toBidResult(b *bid.Bid) ports.BidResult {
	out := ports.BidResult{
		BidID:        b.ID,
		TripID:       b.TripID,
		DriverID:     b.DriverID,
		Amount:       b.Amount,
		Status:       b.Status.String(),
		IsCounterBid: b.IsCounterBid,
		Version:      b.Version,
		CreatedAt:    b.CreatedAt,
	}
	if b.Message != nil {
		out.Message = *b.Message
	}
	if b.ParentBidID != nil {
		out.ParentBidID = *b.ParentBidID
	}
	return out
}

// tripEventData builds the broker/WS payload for a trip lifecycle change.
func tripEventData(t *trip.Trip, correlationID string) contracts.TripEventData {
	data := contracts.TripEventData{
		TripID:      t.ID,
		Status:      t.Status.String(),
		PassengerID: t.PassengerID,
		Origin: contracts.GeoPoint{
			Lat: t.Origin.Lat, Lng: t.Origin.Lng, Address: t.Origin.Address,
		},
		Destination: contracts.GeoPoint{
			Lat: t.Destination.Lat, Lng: t.Destination.Lng, Address: t.Destination.Address,
		},
		StartTime:    t.StartTime.Format(time.RFC3339),
		Seats:        t.TotalSeats,
		PricePerSeat: t.PricePerSeat,
		Penalty:      t.CancellationPenalty,
		Envelope:     envelope(correlationID),
	}
	if t.DriverID != nil {
		data.DriverID = *t.DriverID
	}
	return data
}

// bidEventData builds the broker/WS payload for a bid lifecycle change.
func bidEventData(b *bid.Bid, correlationID string) contracts.BidEventData {
	data := contracts.BidEventData{
		BidID:        b.ID,
		TripID:       b.TripID,
		DriverID:     b.DriverID,
		Amount:       b.Amount,
		Status:       b.Status.String(),
		IsCounterBid: b.IsCounterBid,
		Envelope:     envelope(correlationID),
	}
	if b.Message != nil {
		data.Message = *b.Message
	}
	if b.ParentBidID != nil {
		data.ParentBidID = *b.ParentBidID
	}
	return data
}

// tripStatusRoute builds a routing key like trip.status.active.
func tripStatusRoute(status string) string {
	return contracts.RouteTripStatusPrefix + strings.ToLower(status)
}

// bidEventRoute builds a routing key like bid.event.placed.
func bidEventRoute(kind string) string {
	return contracts.RouteBidEventPrefix + kind
}
