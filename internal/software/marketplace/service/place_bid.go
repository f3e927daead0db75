package service

import (
	"context"
	"fmt"

	"commuto/internal/domain/bid"
	"commuto/internal/domain/fault"
	"commuto/internal/domain/trip"
	"commuto/internal/domain/user"
	"commuto/internal/general/contracts"
	"commuto/internal/observability"
	"commuto/internal/ports"
)

// PlaceBid records a driver's priced offer against a pending trip. The trip
// row is locked so its status cannot move under the insert, and a driver can
// hold at most one pending bid per trip.
func (service *marketplaceService) PlaceBid(ctx context.Context, actor user.Principal, in ports.PlaceBidInput) (ports.BidResult, error) {
	if !actor.Role.IsDriver() {
		return ports.BidResult{}, fault.Forbidden("only drivers can place bids")
	}

	var (
		placed        *bid.Bid
		passengerID   string
		correlationID = generateCorrelationID()
		now           = service.now()
	)

	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		t, err := service.trips.LockByID(txCtx, in.TripID)
		if err != nil {
			return err
		}
		if !t.AcceptingBids() {
			return trip.ErrNotAcceptingBids
		}
		if t.PassengerID == actor.UserID {
			return bid.ErrSelfDealing
		}

		exists, err := service.bids.HasPendingForDriver(txCtx, t.ID, actor.UserID)
		if err != nil {
			return err
		}
		if exists {
			return bid.ErrDuplicatePending
		}

		b, err := bid.NewBid(t.ID, actor.UserID, in.Amount, in.Message, now)
		if err != nil {
			return err
		}
		if err := service.bids.Create(txCtx, b); err != nil {
			return err
		}

		placed = b
		passengerID = t.PassengerID
		return nil
	})
	if err != nil {
		service.logger.Error(ctx, "bid_place_failed", "Failed to place bid", err, map[string]any{
			"trip_id":    in.TripID,
			"driver_id":  actor.UserID,
			"request_id": correlationID,
		})
		return ports.BidResult{}, err
	}

	observability.BidsPlacedTotal.Inc()

	service.notifier.SendToUser(passengerID, contracts.WSEvent{
		Type: contracts.EventNewBid,
		Data: toBidResult(placed),
	})

	if err := service.pub.PublishBidEvent(ctx, bidEventRoute("placed"), bidEventData(placed, correlationID)); err != nil {
		service.logger.Error(ctx, "bid_event_publish_failed", "Failed to publish bid event to RabbitMQ", err, map[string]any{
			"bid_id":     placed.ID,
			"request_id": correlationID,
		})
	}

	service.logger.Info(ctx, "bid_placed", fmt.Sprintf("Bid %s placed on trip %s", placed.ID, placed.TripID), map[string]any{
		"bid_id":     placed.ID,
		"trip_id":    placed.TripID,
		"driver_id":  actor.UserID,
		"amount":     placed.Amount,
		"request_id": correlationID,
	})

	return toBidResult(placed), nil
}

// ListTripBids returns every bid on a trip, visible only to the trip creator.
func (service *marketplaceService) ListTripBids(ctx context.Context, actor user.Principal, tripID string) ([]ports.BidResult, error) {
	var bids []*bid.Bid

	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		t, err := service.trips.GetByID(txCtx, tripID)
		if err != nil {
			return err
		}
		if t.PassengerID != actor.UserID {
			return fault.Forbidden("only the trip creator can view its bids")
		}

		bids, err = service.bids.ListByTrip(txCtx, tripID)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]ports.BidResult, 0, len(bids))
	for _, b := range bids {
		out = append(out, toBidResult(b))
	}
	return out, nil
}
