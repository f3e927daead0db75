package postgres

import (
	"context"

	"commuto/internal/ports"
)

// UserRepo maintains per-user counters.
type UserRepo struct{}

// NewUserRepo constructs a new UserRepo.
func NewUserRepo() ports.UserRepository {
	return &UserRepo{}
}

// IncrementCompletedTrips bumps the driver's completed trip counter. The row
// is created on first completion so unseen drivers don't fail the cascade.
func (repo *UserRepo) IncrementCompletedTrips(ctx context.Context, driverID string) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO users (id, total_trips)
		VALUES ($1, 1)
		ON CONFLICT (id) DO UPDATE SET
			total_trips = users.total_trips + 1,
			updated_at = now()
	`, driverID)
	if err != nil {
		return classify(err, "user not found")
	}
	return nil
}
