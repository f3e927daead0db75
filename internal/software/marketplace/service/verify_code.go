package service

import (
	"context"
	"fmt"

	"commuto/internal/domain/trip"
	"commuto/internal/domain/user"
	"commuto/internal/general/contracts"
	"commuto/internal/ports"
)

// VerifyStartCode checks the code the passenger handed to the driver and
// marks the ride as started. Verification succeeds at most once per trip.
func (service *marketplaceService) VerifyStartCode(ctx context.Context, actor user.Principal, in ports.VerifyStartCodeInput) (ports.VerifyStartCodeResult, error) {
	var (
		started       *trip.Trip
		correlationID = generateCorrelationID()
		now           = service.now()
	)

	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		t, err := service.trips.LockByID(txCtx, in.TripID)
		if err != nil {
			return err
		}
		if err := t.VerifyStartCode(in.StartCode, actor.UserID, now); err != nil {
			return err
		}
		if err := service.trips.Update(txCtx, t); err != nil {
			return err
		}
		started = t
		return nil
	})
	if err != nil {
		service.logger.Error(ctx, "start_code_verify_failed", "Failed to verify start code", err, map[string]any{
			"trip_id":    in.TripID,
			"driver_id":  actor.UserID,
			"request_id": correlationID,
		})
		return ports.VerifyStartCodeResult{}, err
	}

	service.notifier.SendToUser(started.PassengerID, contracts.WSEvent{
		Type: contracts.EventTripStarted,
		Data: toTripResult(started),
	})

	if err := service.pub.PublishTripEvent(ctx, tripStatusRoute("started"), tripEventData(started, correlationID)); err != nil {
		service.logger.Error(ctx, "trip_status_publish_failed", "Failed to publish trip status to RabbitMQ", err, map[string]any{
			"trip_id":    started.ID,
			"request_id": correlationID,
		})
	}

	service.logger.Info(ctx, "trip_started", fmt.Sprintf("Trip %s started", started.ID), map[string]any{
		"trip_id":    started.ID,
		"driver_id":  actor.UserID,
		"request_id": correlationID,
	})

	return ports.VerifyStartCodeResult{
		TripID:    started.ID,
		Status:    started.Status.String(),
		StartedAt: *started.StartedAt,
		Message:   "Start code verified, ride in progress",
	}, nil
}
