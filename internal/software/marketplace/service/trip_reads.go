package service

import (
	"context"

	"commuto/internal/domain/trip"
	"commuto/internal/domain/user"
	"commuto/internal/ports"
)

const openTripsLimit = 50

// ListOpenTrips returns pending trips that still accept bids, newest first.
func (service *marketplaceService) ListOpenTrips(ctx context.Context, actor user.Principal) ([]ports.TripResult, error) {
	var trips []*trip.Trip

	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		trips, err = service.trips.ListOpen(txCtx, openTripsLimit)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]ports.TripResult, 0, len(trips))
	for _, t := range trips {
		out = append(out, toTripResult(t))
	}
	return out, nil
}

// GetTrip returns one trip by id. The start code is never part of the result.
func (service *marketplaceService) GetTrip(ctx context.Context, actor user.Principal, tripID string) (ports.TripResult, error) {
	var t *trip.Trip

	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		t, err = service.trips.GetByID(txCtx, tripID)
		return err
	})
	if err != nil {
		return ports.TripResult{}, err
	}
	return toTripResult(t), nil
}
