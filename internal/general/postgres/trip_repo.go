package postgres

import (
	"context"
	"fmt"

	"commuto/internal/domain/trip"
	"commuto/internal/ports"

	"github.com/jackc/pgx/v5"
)

const tripColumns = `
	id, created_at, updated_at, version, passenger_id, driver_id,
	origin_address, origin_lat, origin_lng,
	destination_address, destination_lat, destination_lng,
	start_time, total_seats, available_seats, price_per_seat,
	status, start_code, code_verified, started_at, completed_at,
	cancelled_at, cancelled_by, cancellation_reason, cancellation_penalty`

// TripRepo persists trips using pgx and plain SQL.
type TripRepo struct{}

// NewTripRepo constructs a new TripRepo.
func NewTripRepo() ports.TripRepository {
	return &TripRepo{}
}

// Create inserts a new trip row; the database assigns the id.
func (repo *TripRepo) Create(ctx context.Context, t *trip.Trip) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO trips (
			passenger_id,
			origin_address, origin_lat, origin_lng,
			destination_address, destination_lat, destination_lng,
			start_time, total_seats, available_seats, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`,
		t.PassengerID,
		t.Origin.Address, t.Origin.Lat, t.Origin.Lng,
		t.Destination.Address, t.Destination.Lat, t.Destination.Lng,
		t.StartTime, t.TotalSeats, t.AvailableSeats, t.Status.String(),
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return classify(err, "trip not found")
	}
	return nil
}

// GetByID fetches a trip by primary key without locking it.
func (repo *TripRepo) GetByID(ctx context.Context, id string) (*trip.Trip, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, `SELECT`+tripColumns+` FROM trips WHERE id = $1`, id)
	return scanTrip(row)
}

// LockByID fetches a trip and takes its row lock for the rest of the
// transaction. NOWAIT turns a held lock into an immediate conflict instead
// of queueing behind the other writer.
func (repo *TripRepo) LockByID(ctx context.Context, id string) (*trip.Trip, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, `SELECT`+tripColumns+` FROM trips WHERE id = $1 FOR UPDATE NOWAIT`, id)
	return scanTrip(row)
}

// Update writes every mutable column back. Callers mutate the entity through
// its domain methods, which bump version, before calling Update.
func (repo *TripRepo) Update(ctx context.Context, t *trip.Trip) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE trips SET
			updated_at = $2, version = $3, driver_id = $4,
			available_seats = $5, price_per_seat = $6, status = $7,
			start_code = $8, code_verified = $9, started_at = $10, completed_at = $11,
			cancelled_at = $12, cancelled_by = $13, cancellation_reason = $14, cancellation_penalty = $15
		WHERE id = $1
	`,
		t.ID,
		t.UpdatedAt, t.Version, t.DriverID,
		t.AvailableSeats, t.PricePerSeat, t.Status.String(),
		t.StartCode, t.CodeVerified, t.StartedAt, t.CompletedAt,
		t.CancelledAt, t.CancelledBy, t.CancellationReason, t.CancellationPenalty,
	)
	if err != nil {
		return classify(err, "trip not found")
	}
	if tag.RowsAffected() == 0 {
		return classify(pgx.ErrNoRows, "trip not found")
	}
	return nil
}

// ListOpen returns pending trips that still accept bids, newest first.
func (repo *TripRepo) ListOpen(ctx context.Context, limit int) ([]*trip.Trip, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT`+tripColumns+`
		FROM trips
		WHERE status = $1 AND start_time > now()
		ORDER BY created_at DESC
		LIMIT $2
	`, trip.StatusPending.String(), limit)
	if err != nil {
		return nil, classify(err, "trip not found")
	}
	defer rows.Close()

	var trips []*trip.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return trips, nil
}

// scanTrip reads one trip row from either pgx.Row or pgx.Rows.
func scanTrip(row pgx.Row) (*trip.Trip, error) {
	var t trip.Trip
	var status string

	err := row.Scan(
		&t.ID, &t.CreatedAt, &t.UpdatedAt, &t.Version, &t.PassengerID, &t.DriverID,
		&t.Origin.Address, &t.Origin.Lat, &t.Origin.Lng,
		&t.Destination.Address, &t.Destination.Lat, &t.Destination.Lng,
		&t.StartTime, &t.TotalSeats, &t.AvailableSeats, &t.PricePerSeat,
		&status, &t.StartCode, &t.CodeVerified, &t.StartedAt, &t.CompletedAt,
		&t.CancelledAt, &t.CancelledBy, &t.CancellationReason, &t.CancellationPenalty,
	)
	if err != nil {
		return nil, classify(err, "trip not found")
	}
	t.Status = trip.Status(status)
	return &t, nil
}
