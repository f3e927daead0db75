package service

import (
	"context"
	"fmt"

	"commuto/internal/domain/bid"
	"commuto/internal/domain/trip"
	"commuto/internal/domain/user"
	"commuto/internal/general/contracts"
	"commuto/internal/observability"
	"commuto/internal/ports"
)

// AcceptBid is the pivot of the marketplace: exactly one bid wins, every
// sibling pending bid is rejected, the trip activates with the winning price
// and a fresh start code, and the booking is priced, all atomically. Of two
// concurrent accepts one loses the trip row lock and fails with a conflict;
// an accept arriving after the winner committed finds the bid no longer
// pending and fails validation.
func (service *marketplaceService) AcceptBid(ctx context.Context, actor user.Principal, bidID string) (ports.AcceptBidResult, error) {
	var (
		winner        *bid.Bid
		losers        []*bid.Bid
		activated     *trip.Trip
		startCode     = generateStartCode()
		correlationID = generateCorrelationID()
		now           = service.now()
	)

	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		// plain read to learn the trip; all locking starts from the trip row
		target, err := service.bids.GetByID(txCtx, bidID)
		if err != nil {
			return err
		}

		// lock order: trip row first, then its pending bids, then bookings
		t, err := service.trips.LockByID(txCtx, target.TripID)
		if err != nil {
			return err
		}
		if t.PassengerID != actor.UserID {
			return bid.ErrNotBidOwner
		}

		pending, err := service.bids.LockPendingByTrip(txCtx, t.ID)
		if err != nil {
			return err
		}

		winner = nil
		losers = losers[:0]
		for _, b := range pending {
			if b.ID == bidID {
				winner = b
			} else {
				losers = append(losers, b)
			}
		}
		if winner == nil {
			// the bid left the pending set before we locked; re-read for the
			// exact current status in the error
			current, err := service.bids.GetByID(txCtx, bidID)
			if err != nil {
				return err
			}
			return bid.ErrNotPending(current.Status)
		}

		if err := winner.Accept(now); err != nil {
			return err
		}
		if err := service.bids.Update(txCtx, winner); err != nil {
			return err
		}
		for _, b := range losers {
			if err := b.Reject(now); err != nil {
				return err
			}
			if err := service.bids.Update(txCtx, b); err != nil {
				return err
			}
		}

		if err := t.Activate(winner.DriverID, winner.Amount, startCode, now); err != nil {
			return err
		}
		if err := service.trips.Update(txCtx, t); err != nil {
			return err
		}

		bookings, err := service.bookings.LockByTrip(txCtx, t.ID)
		if err != nil {
			return err
		}
		for _, bk := range bookings {
			if err := bk.Confirm(winner.Amount, now); err != nil {
				return err
			}
			if err := service.bookings.Update(txCtx, bk); err != nil {
				return err
			}
		}

		activated = t
		return nil
	})
	if err != nil {
		service.logger.Error(ctx, "bid_accept_failed", "Failed to accept bid", err, map[string]any{
			"bid_id":     bidID,
			"user_id":    actor.UserID,
			"request_id": correlationID,
		})
		return ports.AcceptBidResult{}, err
	}

	observability.BidsAcceptedTotal.Inc()

	// the winner learns they were accepted; the start code stays with the
	// passenger and travels by voice at pickup
	service.notifier.SendToUser(winner.DriverID, contracts.WSEvent{
		Type: contracts.EventBidStatusUpdate,
		Data: toBidResult(winner),
	})
	for _, b := range losers {
		service.notifier.SendToUser(b.DriverID, contracts.WSEvent{
			Type: contracts.EventBidStatusUpdate,
			Data: toBidResult(b),
		})
	}

	if err := service.pub.PublishBidEvent(ctx, bidEventRoute("accepted"), bidEventData(winner, correlationID)); err != nil {
		service.logger.Error(ctx, "bid_event_publish_failed", "Failed to publish bid event to RabbitMQ", err, map[string]any{
			"bid_id":     winner.ID,
			"request_id": correlationID,
		})
	}
	if err := service.pub.PublishTripEvent(ctx, tripStatusRoute(activated.Status.String()), tripEventData(activated, correlationID)); err != nil {
		service.logger.Error(ctx, "trip_status_publish_failed", "Failed to publish trip status to RabbitMQ", err, map[string]any{
			"trip_id":    activated.ID,
			"request_id": correlationID,
		})
	}

	service.logger.Info(ctx, "bid_accepted", fmt.Sprintf("Bid %s accepted on trip %s", winner.ID, activated.ID), map[string]any{
		"bid_id":        winner.ID,
		"trip_id":       activated.ID,
		"driver_id":     winner.DriverID,
		"amount":        winner.Amount,
		"bids_rejected": len(losers),
		"request_id":    correlationID,
	})

	return ports.AcceptBidResult{
		BidID:        winner.ID,
		TripID:       activated.ID,
		DriverID:     winner.DriverID,
		PricePerSeat: winner.Amount,
		TripStatus:   activated.Status.String(),
		StartCode:    startCode,
		Message:      "Bid accepted, share the start code with your driver at pickup",
	}, nil
}
