package service

import (
	"context"

	"commuto/internal/domain/fault"
	"commuto/internal/domain/geo"
	"commuto/internal/domain/trip"
	"commuto/internal/domain/user"
	"commuto/internal/general/contracts"
	"commuto/internal/ports"
)

// UpdateLocation appends one driver position sample for an active trip.
// Samples never mutate the trip row, so no trip lock is taken.
func (service *marketplaceService) UpdateLocation(ctx context.Context, actor user.Principal, in ports.UpdateLocationInput) (ports.UpdateLocationResult, error) {
	var (
		sample        *geo.LocationSample
		correlationID = generateCorrelationID()
		now           = service.now()
	)

	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		t, err := service.trips.GetByID(txCtx, in.TripID)
		if err != nil {
			return err
		}
		if t.DriverID == nil || *t.DriverID != actor.UserID {
			return trip.ErrNotAssignedDriver
		}
		if t.Status != trip.StatusActive {
			return fault.Validation("location updates are only accepted for active trips")
		}

		sample, err = geo.NewLocationSample(t.ID, actor.UserID, in.Latitude, in.Longitude, in.SpeedKMH, in.HeadingDegrees, now)
		if err != nil {
			return fault.Validation("%s", err.Error())
		}
		return service.locations.Append(txCtx, sample)
	})
	if err != nil {
		service.logger.Error(ctx, "location_update_failed", "Failed to record location sample", err, map[string]any{
			"trip_id":    in.TripID,
			"driver_id":  actor.UserID,
			"request_id": correlationID,
		})
		return ports.UpdateLocationResult{}, err
	}

	msg := contracts.LocationSampleMessage{
		TripID:     sample.TripID,
		DriverID:   sample.DriverID,
		Location:   contracts.GeoPoint{Lat: sample.Latitude, Lng: sample.Longitude},
		RecordedAt: sample.RecordedAt,
		Envelope:   envelope(correlationID),
	}
	if sample.SpeedKMH != nil {
		msg.SpeedKMH = *sample.SpeedKMH
	}
	if sample.HeadingDegrees != nil {
		msg.HeadingDegrees = *sample.HeadingDegrees
	}
	if err := service.pub.PublishLocationSample(ctx, msg); err != nil {
		service.logger.Error(ctx, "location_publish_failed", "Failed to publish location sample to RabbitMQ", err, map[string]any{
			"trip_id":    sample.TripID,
			"request_id": correlationID,
		})
	}

	return ports.UpdateLocationResult{
		SampleID:   sample.ID,
		RecordedAt: sample.RecordedAt,
	}, nil
}
