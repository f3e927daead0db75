package postgres

import (
	"context"
	"fmt"

	"commuto/internal/domain/bid"
	"commuto/internal/ports"

	"github.com/jackc/pgx/v5"
)

const bidColumns = `
	id, created_at, updated_at, version, trip_id, driver_id,
	amount, message, status, is_counter_bid, parent_bid_id`

// BidRepo persists bids using pgx and plain SQL.
type BidRepo struct{}

// NewBidRepo constructs a new BidRepo.
func NewBidRepo() ports.BidRepository {
	return &BidRepo{}
}

// Create inserts a new bid row; the database assigns the id.
func (repo *BidRepo) Create(ctx context.Context, b *bid.Bid) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO bids (trip_id, driver_id, amount, message, status, is_counter_bid, parent_bid_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`,
		b.TripID, b.DriverID, b.Amount, b.Message,
		b.Status.String(), b.IsCounterBid, b.ParentBidID,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return classify(err, "bid not found")
	}
	return nil
}

// GetByID fetches a bid by primary key without locking it.
func (repo *BidRepo) GetByID(ctx context.Context, id string) (*bid.Bid, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, `SELECT`+bidColumns+` FROM bids WHERE id = $1`, id)
	return scanBid(row)
}

// LockByID fetches a bid and takes its row lock for the rest of the
// transaction.
func (repo *BidRepo) LockByID(ctx context.Context, id string) (*bid.Bid, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, `SELECT`+bidColumns+` FROM bids WHERE id = $1 FOR UPDATE NOWAIT`, id)
	return scanBid(row)
}

// LockPendingByTrip locks every pending bid on a trip. Rows come back in
// primary key order so concurrent accepts acquire locks in the same sequence.
func (repo *BidRepo) LockPendingByTrip(ctx context.Context, tripID string) ([]*bid.Bid, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT`+bidColumns+`
		FROM bids
		WHERE trip_id = $1 AND status = $2
		ORDER BY id
		FOR UPDATE NOWAIT
	`, tripID, bid.StatusPending.String())
	if err != nil {
		return nil, classify(err, "bid not found")
	}
	defer rows.Close()

	return collectBids(rows)
}

// HasPendingForDriver reports whether the driver already has a live bid on
// the trip.
func (repo *BidRepo) HasPendingForDriver(ctx context.Context, tripID, driverID string) (bool, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return false, err
	}

	var exists bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM bids
			WHERE trip_id = $1 AND driver_id = $2 AND status = $3
		)
	`, tripID, driverID, bid.StatusPending.String()).Scan(&exists)
	if err != nil {
		return false, classify(err, "bid not found")
	}
	return exists, nil
}

// Update writes the mutable columns back.
func (repo *BidRepo) Update(ctx context.Context, b *bid.Bid) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE bids SET updated_at = $2, version = $3, status = $4
		WHERE id = $1
	`, b.ID, b.UpdatedAt, b.Version, b.Status.String())
	if err != nil {
		return classify(err, "bid not found")
	}
	if tag.RowsAffected() == 0 {
		return classify(pgx.ErrNoRows, "bid not found")
	}
	return nil
}

// ListByTrip returns every bid on a trip, newest first.
func (repo *BidRepo) ListByTrip(ctx context.Context, tripID string) ([]*bid.Bid, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT`+bidColumns+`
		FROM bids
		WHERE trip_id = $1
		ORDER BY created_at DESC
	`, tripID)
	if err != nil {
		return nil, classify(err, "bid not found")
	}
	defer rows.Close()

	return collectBids(rows)
}

func collectBids(rows pgx.Rows) ([]*bid.Bid, error) {
	var bids []*bid.Bid
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		bids = append(bids, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return bids, nil
}

// scanBid reads one bid row from either pgx.Row or pgx.Rows.
func scanBid(row pgx.Row) (*bid.Bid, error) {
	var b bid.Bid
	var status string

	err := row.Scan(
		&b.ID, &b.CreatedAt, &b.UpdatedAt, &b.Version, &b.TripID, &b.DriverID,
		&b.Amount, &b.Message, &status, &b.IsCounterBid, &b.ParentBidID,
	)
	if err != nil {
		return nil, classify(err, "bid not found")
	}
	b.Status = bid.Status(status)
	return &b, nil
}
