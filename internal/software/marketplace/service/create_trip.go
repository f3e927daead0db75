package service

import (
	"context"
	"fmt"

	"commuto/internal/domain/booking"
	"commuto/internal/domain/fault"
	"commuto/internal/domain/trip"
	"commuto/internal/domain/user"
	"commuto/internal/general/contracts"
	"commuto/internal/observability"
	"commuto/internal/ports"
)

// CreateTrip posts a new trip in PENDING state together with its pending
// booking for every requested seat.
func (service *marketplaceService) CreateTrip(ctx context.Context, actor user.Principal, in ports.CreateTripInput) (ports.CreateTripResult, error) {
	if !actor.Role.IsPassenger() {
		return ports.CreateTripResult{}, fault.Forbidden("only passengers can post trips")
	}

	var (
		created       *trip.Trip
		correlationID = generateCorrelationID()
		now           = service.now()
	)

	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		t, err := trip.NewTrip(
			actor.UserID,
			trip.Place{Address: in.Origin.Address, Lat: in.Origin.Lat, Lng: in.Origin.Lng},
			trip.Place{Address: in.Destination.Address, Lat: in.Destination.Lat, Lng: in.Destination.Lng},
			in.StartTime,
			in.Seats,
			now,
		)
		if err != nil {
			return err
		}
		if err := service.trips.Create(txCtx, t); err != nil {
			return err
		}

		// the booking is created together with the trip and priced later,
		// at bid acceptance
		bk, err := booking.NewBooking(t.ID, actor.UserID, t.TotalSeats, now)
		if err != nil {
			return err
		}
		if err := service.bookings.Create(txCtx, bk); err != nil {
			return err
		}

		created = t
		return nil
	})
	if err != nil {
		service.logger.Error(ctx, "trip_create_failed", "Failed to create trip", err, map[string]any{
			"passenger_id": actor.UserID,
			"request_id":   correlationID,
		})
		return ports.CreateTripResult{}, err
	}

	observability.TripsCreatedTotal.Inc()

	// let connected drivers know there is a new trip to bid on
	service.notifier.BroadcastToDrivers(contracts.WSEvent{
		Type: contracts.EventNewRideRequest,
		Data: toTripResult(created),
	}, actor.UserID)

	if err := service.pub.PublishTripEvent(ctx, tripStatusRoute(created.Status.String()), tripEventData(created, correlationID)); err != nil {
		service.logger.Error(ctx, "trip_status_publish_failed", "Failed to publish trip status to RabbitMQ", err, map[string]any{
			"trip_id":    created.ID,
			"request_id": correlationID,
		})
	}

	service.logger.Info(ctx, "trip_created", fmt.Sprintf("Trip %s created", created.ID), map[string]any{
		"trip_id":      created.ID,
		"passenger_id": actor.UserID,
		"seats":        created.TotalSeats,
		"request_id":   correlationID,
	})

	return ports.CreateTripResult{
		TripResult: toTripResult(created),
		Message:    "Trip posted, waiting for driver bids",
	}, nil
}
