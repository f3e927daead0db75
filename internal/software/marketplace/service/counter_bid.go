package service

import (
	"context"
	"fmt"

	"commuto/internal/domain/bid"
	"commuto/internal/domain/user"
	"commuto/internal/general/contracts"
	"commuto/internal/ports"
)

// CounterBid rejects the driver's bid and creates a fresh pending bid for the
// same pair at the passenger's price. The rejection and the new bid commit
// together.
func (service *marketplaceService) CounterBid(ctx context.Context, actor user.Principal, in ports.CounterBidInput) (ports.BidResult, error) {
	var (
		original      *bid.Bid
		counter       *bid.Bid
		correlationID = generateCorrelationID()
		now           = service.now()
	)

	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		// plain read to learn the trip; all locking starts from the trip row
		target, err := service.bids.GetByID(txCtx, in.BidID)
		if err != nil {
			return err
		}

		t, err := service.trips.LockByID(txCtx, target.TripID)
		if err != nil {
			return err
		}
		if t.PassengerID != actor.UserID {
			return bid.ErrNotBidOwner
		}

		locked, err := service.bids.LockByID(txCtx, in.BidID)
		if err != nil {
			return err
		}

		c, err := locked.Counter(in.Amount, in.Message, now)
		if err != nil {
			return err
		}
		if err := service.bids.Update(txCtx, locked); err != nil {
			return err
		}
		if err := service.bids.Create(txCtx, c); err != nil {
			return err
		}

		original = locked
		counter = c
		return nil
	})
	if err != nil {
		service.logger.Error(ctx, "bid_counter_failed", "Failed to counter bid", err, map[string]any{
			"bid_id":     in.BidID,
			"user_id":    actor.UserID,
			"request_id": correlationID,
		})
		return ports.BidResult{}, err
	}

	// the driver sees the rejection and the counter offer together
	service.notifier.SendToUser(counter.DriverID, contracts.WSEvent{
		Type: contracts.EventBidStatusUpdate,
		Data: toBidResult(original),
	})
	service.notifier.SendToUser(counter.DriverID, contracts.WSEvent{
		Type: contracts.EventNewBid,
		Data: toBidResult(counter),
	})

	if err := service.pub.PublishBidEvent(ctx, bidEventRoute("countered"), bidEventData(counter, correlationID)); err != nil {
		service.logger.Error(ctx, "bid_event_publish_failed", "Failed to publish bid event to RabbitMQ", err, map[string]any{
			"bid_id":     counter.ID,
			"request_id": correlationID,
		})
	}

	service.logger.Info(ctx, "bid_countered", fmt.Sprintf("Bid %s countered on trip %s", in.BidID, counter.TripID), map[string]any{
		"original_bid_id": in.BidID,
		"counter_bid_id":  counter.ID,
		"trip_id":         counter.TripID,
		"amount":          counter.Amount,
		"request_id":      correlationID,
	})

	return toBidResult(counter), nil
}
