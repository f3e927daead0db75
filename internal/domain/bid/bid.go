package bid

import (
	"strings"
	"time"

	"commuto/internal/domain/fault"
)

// Bid is a driver's priced offer against a trip, corresponding to the `bids`
// table. Bids are never deleted; acceptance and rejection are one-way moves.
type Bid struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64

	TripID   string
	DriverID string

	Amount  float64
	Message *string

	Status       Status
	IsCounterBid bool
	ParentBidID  *string
}

// Classified domain errors surfaced to callers as-is.
var (
	ErrTripRequired     = fault.Validation("trip id is required")
	ErrDriverRequired   = fault.Validation("driver id is required")
	ErrNonPositive      = fault.Validation("bid amount must be greater than zero")
	ErrSelfDealing      = fault.Forbidden("cannot bid on your own trip")
	ErrDuplicatePending = fault.Validation("a pending bid from this driver already exists for this trip")
	ErrNotBidOwner      = fault.Forbidden("only the trip creator can act on this bid")
)

// NewBid creates a pending bid.
func NewBid(tripID, driverID string, amount float64, message string, now time.Time) (*Bid, error) {
	if tripID = strings.TrimSpace(tripID); tripID == "" {
		return nil, ErrTripRequired
	}
	if driverID = strings.TrimSpace(driverID); driverID == "" {
		return nil, ErrDriverRequired
	}
	if amount <= 0 {
		return nil, ErrNonPositive
	}

	b := &Bid{
		CreatedAt: now,
		UpdatedAt: now,
		TripID:    tripID,
		DriverID:  driverID,
		Amount:    amount,
		Status:    StatusPending,
	}
	if msg := strings.TrimSpace(message); msg != "" {
		b.Message = &msg
	}
	return b, nil
}

// Counter rejects this bid and returns the passenger's counter offer: a fresh
// pending bid for the same (trip, driver) pair at the new amount.
func (b *Bid) Counter(newAmount float64, message string, now time.Time) (*Bid, error) {
	if b.Status != StatusPending {
		return nil, ErrNotPending(b.Status)
	}
	if newAmount <= 0 {
		return nil, ErrNonPositive
	}
	if err := b.Reject(now); err != nil {
		return nil, err
	}

	msg := "Counter offer"
	if m := strings.TrimSpace(message); m != "" {
		msg = "Counter offer: " + m
	}
	counter := &Bid{
		CreatedAt:    now,
		UpdatedAt:    now,
		TripID:       b.TripID,
		DriverID:     b.DriverID,
		Amount:       newAmount,
		Message:      &msg,
		Status:       StatusPending,
		IsCounterBid: true,
		ParentBidID:  &b.ID,
	}
	return counter, nil
}

// Accept moves PENDING -> ACCEPTED.
func (b *Bid) Accept(now time.Time) error {
	if b.Status != StatusPending {
		return ErrNotPending(b.Status)
	}
	b.Status = StatusAccepted
	b.touch(now)
	return nil
}

// Reject moves PENDING -> REJECTED.
func (b *Bid) Reject(now time.Time) error {
	if b.Status != StatusPending {
		return ErrNotPending(b.Status)
	}
	b.Status = StatusRejected
	b.touch(now)
	return nil
}

// ErrNotPending names the current status so callers see why the move failed.
func ErrNotPending(current Status) error {
	return fault.Validation("bid is not pending (current status: %s)", strings.ToLower(current.String()))
}

// touch stamps UpdatedAt and bumps the optimistic version counter.
func (b *Bid) touch(now time.Time) {
	b.UpdatedAt = now
	b.Version++
}
