package service

import (
	"context"
	"fmt"

	"commuto/internal/domain/booking"
	"commuto/internal/domain/trip"
	"commuto/internal/domain/user"
	"commuto/internal/general/contracts"
	"commuto/internal/observability"
	"commuto/internal/ports"
)

// CompleteTrip moves an in-progress trip to COMPLETED, settles its bookings
// and credits the driver, all in one transaction.
func (service *marketplaceService) CompleteTrip(ctx context.Context, actor user.Principal, tripID string) (ports.CompleteTripResult, error) {
	var (
		completed     *trip.Trip
		correlationID = generateCorrelationID()
		now           = service.now()
	)

	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		// lock order: trip row first, then its bookings
		t, err := service.trips.LockByID(txCtx, tripID)
		if err != nil {
			return err
		}
		if err := t.Complete(actor.UserID, now); err != nil {
			return err
		}

		bookings, err := service.bookings.LockByTrip(txCtx, t.ID)
		if err != nil {
			return err
		}
		for _, bk := range bookings {
			if bk.Status != booking.StatusConfirmed {
				continue
			}
			bk.Complete(now)
			if err := service.bookings.Update(txCtx, bk); err != nil {
				return err
			}
		}

		if err := service.users.IncrementCompletedTrips(txCtx, actor.UserID); err != nil {
			return err
		}
		if err := service.trips.Update(txCtx, t); err != nil {
			return err
		}

		completed = t
		return nil
	})
	if err != nil {
		service.logger.Error(ctx, "trip_complete_failed", "Failed to complete trip", err, map[string]any{
			"trip_id":    tripID,
			"driver_id":  actor.UserID,
			"request_id": correlationID,
		})
		return ports.CompleteTripResult{}, err
	}

	observability.TripsCompletedTotal.Inc()

	service.notifier.SendToUser(completed.PassengerID, contracts.WSEvent{
		Type: contracts.EventTripCompleted,
		Data: toTripResult(completed),
	})

	if err := service.pub.PublishTripEvent(ctx, tripStatusRoute(completed.Status.String()), tripEventData(completed, correlationID)); err != nil {
		service.logger.Error(ctx, "trip_status_publish_failed", "Failed to publish trip status to RabbitMQ", err, map[string]any{
			"trip_id":    completed.ID,
			"request_id": correlationID,
		})
	}

	service.logger.Info(ctx, "trip_completed", fmt.Sprintf("Trip %s completed", completed.ID), map[string]any{
		"trip_id":    completed.ID,
		"driver_id":  actor.UserID,
		"request_id": correlationID,
	})

	return ports.CompleteTripResult{
		TripID:      completed.ID,
		Status:      completed.Status.String(),
		CompletedAt: *completed.CompletedAt,
		Message:     "Trip completed",
	}, nil
}
