package postgres

import (
	"context"
	"fmt"

	"commuto/internal/domain/booking"
	"commuto/internal/ports"

	"github.com/jackc/pgx/v5"
)

const bookingColumns = `
	id, created_at, updated_at, version, trip_id, passenger_id,
	seats_booked, total_price, status, payment_status`

// BookingRepo persists bookings using pgx and plain SQL.
type BookingRepo struct{}

// NewBookingRepo constructs a new BookingRepo.
func NewBookingRepo() ports.BookingRepository {
	return &BookingRepo{}
}

// Create inserts a new booking row; the database assigns the id.
func (repo *BookingRepo) Create(ctx context.Context, bk *booking.Booking) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO bookings (trip_id, passenger_id, seats_booked, total_price, status, payment_status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`,
		bk.TripID, bk.PassengerID, bk.SeatsBooked, bk.TotalPrice,
		bk.Status.String(), bk.PaymentStatus.String(),
	).Scan(&bk.ID, &bk.CreatedAt, &bk.UpdatedAt)
	if err != nil {
		return classify(err, "booking not found")
	}
	return nil
}

// LockByTrip locks the trip's bookings for the rest of the transaction.
// Rows come back in primary key order to keep lock acquisition ordered.
func (repo *BookingRepo) LockByTrip(ctx context.Context, tripID string) ([]*booking.Booking, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT`+bookingColumns+`
		FROM bookings
		WHERE trip_id = $1
		ORDER BY id
		FOR UPDATE NOWAIT
	`, tripID)
	if err != nil {
		return nil, classify(err, "booking not found")
	}
	defer rows.Close()

	var bookings []*booking.Booking
	for rows.Next() {
		bk, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, bk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return bookings, nil
}

// Update writes the mutable columns back.
func (repo *BookingRepo) Update(ctx context.Context, bk *booking.Booking) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE bookings SET
			updated_at = $2, version = $3, total_price = $4,
			status = $5, payment_status = $6
		WHERE id = $1
	`, bk.ID, bk.UpdatedAt, bk.Version, bk.TotalPrice, bk.Status.String(), bk.PaymentStatus.String())
	if err != nil {
		return classify(err, "booking not found")
	}
	if tag.RowsAffected() == 0 {
		return classify(pgx.ErrNoRows, "booking not found")
	}
	return nil
}

// scanBooking reads one booking row from either pgx.Row or pgx.Rows.
func scanBooking(row pgx.Row) (*booking.Booking, error) {
	var bk booking.Booking
	var status, payment string

	err := row.Scan(
		&bk.ID, &bk.CreatedAt, &bk.UpdatedAt, &bk.Version, &bk.TripID, &bk.PassengerID,
		&bk.SeatsBooked, &bk.TotalPrice, &status, &payment,
	)
	if err != nil {
		return nil, classify(err, "booking not found")
	}
	bk.Status = booking.Status(status)
	bk.PaymentStatus = booking.PaymentStatus(payment)
	return &bk, nil
}
