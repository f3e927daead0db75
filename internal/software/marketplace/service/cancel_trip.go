package service

import (
	"context"
	"fmt"
	"time"

	"commuto/internal/domain/bid"
	"commuto/internal/domain/booking"
	"commuto/internal/domain/trip"
	"commuto/internal/domain/user"
	"commuto/internal/general/contracts"
	"commuto/internal/observability"
	"commuto/internal/ports"
)

// CancelTrip moves the trip to CANCELLED and cascades over its pending bids
// and live bookings in the same transaction. The penalty is computed against
// the clock at cancellation time and applied exactly once: a second cancel
// fails before reaching this code.
func (service *marketplaceService) CancelTrip(ctx context.Context, actor user.Principal, in ports.CancelTripInput) (ports.CancelTripResult, error) {
	var (
		cancelled     *trip.Trip
		rejected      []*bid.Bid
		penalty       float64
		correlationID = generateCorrelationID()
		now           = service.now()
	)

	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		// lock order: trip row first, then its bids, then its bookings
		t, err := service.trips.LockByID(txCtx, in.TripID)
		if err != nil {
			return err
		}

		penalty = trip.CancellationPenalty(t, now)
		if err := t.Cancel(actor.UserID, in.Reason, penalty, now); err != nil {
			return err
		}

		pending, err := service.bids.LockPendingByTrip(txCtx, t.ID)
		if err != nil {
			return err
		}
		for _, b := range pending {
			if err := b.Reject(now); err != nil {
				return err
			}
			if err := service.bids.Update(txCtx, b); err != nil {
				return err
			}
		}

		bookings, err := service.bookings.LockByTrip(txCtx, t.ID)
		if err != nil {
			return err
		}
		for _, bk := range bookings {
			if bk.Status == booking.StatusCancelled {
				continue
			}
			bk.Cancel(now)
			if err := service.bookings.Update(txCtx, bk); err != nil {
				return err
			}
		}

		if err := service.trips.Update(txCtx, t); err != nil {
			return err
		}

		cancelled = t
		rejected = pending
		return nil
	})
	if err != nil {
		service.logger.Error(ctx, "trip_cancel_failed", "Failed to cancel trip", err, map[string]any{
			"trip_id":    in.TripID,
			"user_id":    actor.UserID,
			"request_id": correlationID,
		})
		return ports.CancelTripResult{}, err
	}

	observability.TripsCancelledTotal.Inc()

	// tell the other party; the canceller already has the response
	statusEvent := contracts.WSEvent{
		Type: contracts.EventRideStatus,
		Data: toTripResult(cancelled),
	}
	if cancelled.PassengerID != actor.UserID {
		service.notifier.SendToUser(cancelled.PassengerID, statusEvent)
	}
	if cancelled.DriverID != nil && *cancelled.DriverID != actor.UserID {
		service.notifier.SendToUser(*cancelled.DriverID, statusEvent)
	}
	// drivers with rejected bids learn their bid died with the trip
	for _, b := range rejected {
		service.notifier.SendToUser(b.DriverID, contracts.WSEvent{
			Type: contracts.EventBidStatusUpdate,
			Data: toBidResult(b),
		})
	}

	if err := service.pub.PublishTripEvent(ctx, tripStatusRoute(cancelled.Status.String()), tripEventData(cancelled, correlationID)); err != nil {
		service.logger.Error(ctx, "trip_status_publish_failed", "Failed to publish trip status to RabbitMQ", err, map[string]any{
			"trip_id":    cancelled.ID,
			"request_id": correlationID,
		})
	}

	service.logger.Info(ctx, "trip_cancelled", fmt.Sprintf("Trip %s cancelled", cancelled.ID), map[string]any{
		"trip_id":       cancelled.ID,
		"cancelled_by":  actor.UserID,
		"penalty":       penalty,
		"bids_rejected": len(rejected),
		"request_id":    correlationID,
	})

	return ports.CancelTripResult{
		TripID:      cancelled.ID,
		Status:      cancelled.Status.String(),
		CancelledAt: cancelled.CancelledAt.Format(time.RFC3339),
		Penalty:     penalty,
		Message:     "Trip cancelled",
	}, nil
}
