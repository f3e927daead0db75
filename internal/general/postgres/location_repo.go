package postgres

import (
	"context"

	"commuto/internal/domain/geo"
	"commuto/internal/ports"
)

// LocationRepo appends driver location samples. Samples are immutable.
type LocationRepo struct{}

// NewLocationRepo constructs a new LocationRepo.
func NewLocationRepo() ports.LocationRepository {
	return &LocationRepo{}
}

// Append inserts one sample; the database assigns the id.
func (repo *LocationRepo) Append(ctx context.Context, s *geo.LocationSample) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO location_samples (trip_id, driver_id, latitude, longitude, speed_kmh, heading_degrees, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`,
		s.TripID, s.DriverID, s.Latitude, s.Longitude,
		s.SpeedKMH, s.HeadingDegrees, s.RecordedAt,
	).Scan(&s.ID)
	if err != nil {
		return classify(err, "location sample not found")
	}
	return nil
}
