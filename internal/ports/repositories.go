package ports

import (
	"context"

	"commuto/internal/domain/bid"
	"commuto/internal/domain/booking"
	"commuto/internal/domain/geo"
	"commuto/internal/domain/trip"
)

// UnitOfWork interface is used to manage transactions across multiple repository operations.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// TripRepository defines the methods for managing trip data.
type TripRepository interface {
	Create(ctx context.Context, t *trip.Trip) error
	GetByID(ctx context.Context, id string) (*trip.Trip, error)
	// LockByID acquires a row lock on the trip for the duration of the
	// enclosing transaction. A held lock surfaces as a conflict error
	// rather than blocking.
	LockByID(ctx context.Context, id string) (*trip.Trip, error)
	Update(ctx context.Context, t *trip.Trip) error
	ListOpen(ctx context.Context, limit int) ([]*trip.Trip, error)
}

// BidRepository defines the methods for managing bid data.
type BidRepository interface {
	Create(ctx context.Context, b *bid.Bid) error
	GetByID(ctx context.Context, id string) (*bid.Bid, error)
	// LockByID acquires a row lock on the bid for the duration of the
	// enclosing transaction.
	LockByID(ctx context.Context, id string) (*bid.Bid, error)
	// LockPendingByTrip locks every pending bid on a trip in primary key
	// order so concurrent accepts acquire rows in the same sequence.
	LockPendingByTrip(ctx context.Context, tripID string) ([]*bid.Bid, error)
	HasPendingForDriver(ctx context.Context, tripID, driverID string) (bool, error)
	Update(ctx context.Context, b *bid.Bid) error
	ListByTrip(ctx context.Context, tripID string) ([]*bid.Bid, error)
}

// BookingRepository defines the methods for managing booking data.
type BookingRepository interface {
	Create(ctx context.Context, bk *booking.Booking) error
	LockByTrip(ctx context.Context, tripID string) ([]*booking.Booking, error)
	Update(ctx context.Context, bk *booking.Booking) error
}

// LocationRepository defines the methods for archiving driver location samples.
type LocationRepository interface {
	Append(ctx context.Context, s *geo.LocationSample) error
}

// UserRepository defines the methods for managing user counters.
type UserRepository interface {
	IncrementCompletedTrips(ctx context.Context, driverID string) error
}
