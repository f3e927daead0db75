package trip

import (
	"strings"
	"time"

	"commuto/internal/domain/fault"
)

// Place is an address with its resolved coordinates.
type Place struct {
	Address string
	Lat     float64
	Lng     float64
}

// Trip is the domain entity corresponding to the `trips` table.
type Trip struct {
	// Identity & audit
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64 // incremented by exactly 1 on every committed mutation

	// Actors
	PassengerID string
	DriverID    *string // nil until a bid is accepted

	// Route & schedule
	Origin      Place
	Destination Place
	StartTime   time.Time

	// Seats & price
	TotalSeats     int
	AvailableSeats int
	PricePerSeat   float64 // zero until a bid is accepted

	// Core state
	Status       Status
	StartCode    *string // 6-digit code, set exactly once at activation
	CodeVerified bool
	StartedAt    *time.Time
	CompletedAt  *time.Time

	// Cancellation
	CancelledAt         *time.Time
	CancelledBy         *string
	CancellationReason  *string
	CancellationPenalty float64
}

const (
	MinSeats = 1
	MaxSeats = 4
)

// Classified domain errors surfaced to callers as-is.
var (
	ErrPassengerRequired   = fault.Validation("passenger id is required")
	ErrAddressRequired     = fault.Validation("origin and destination addresses are required")
	ErrStartNotInFuture    = fault.Validation("trip start time must be in the future")
	ErrSeatsOutOfRange     = fault.Validation("seat count must be between %d and %d", MinSeats, MaxSeats)
	ErrNotAcceptingBids    = fault.Validation("this trip is no longer accepting bids")
	ErrNotAssignedDriver   = fault.Forbidden("you are not assigned to this trip")
	ErrNotTripParticipant  = fault.Forbidden("you don't have permission to cancel this trip")
	ErrCodeMismatch        = fault.Validation("invalid start code")
	ErrCodeAlreadyVerified = fault.Conflict("ride already verified")
	ErrCodeNotVerified     = fault.Validation("ride has not been started with start code verification")
	ErrAlreadyActivated    = fault.Conflict("trip already has an accepted bid")
	ErrCompleteCancelled   = fault.Validation("cannot complete a cancelled trip")
	ErrCancelCompleted     = fault.Validation("cannot cancel a completed trip")
	ErrAlreadyCancelled    = fault.Conflict("trip already cancelled")
)

// NewTrip creates a trip in PENDING state with all seats still available.
func NewTrip(passengerID string, origin, destination Place, startTime time.Time, seats int, now time.Time) (*Trip, error) {
	if passengerID = strings.TrimSpace(passengerID); passengerID == "" {
		return nil, ErrPassengerRequired
	}
	if strings.TrimSpace(origin.Address) == "" || strings.TrimSpace(destination.Address) == "" {
		return nil, ErrAddressRequired
	}
	if !startTime.After(now) {
		return nil, ErrStartNotInFuture
	}
	if seats < MinSeats || seats > MaxSeats {
		return nil, ErrSeatsOutOfRange
	}

	return &Trip{
		CreatedAt:      now,
		UpdatedAt:      now,
		PassengerID:    passengerID,
		Origin:         origin,
		Destination:    destination,
		StartTime:      startTime,
		TotalSeats:     seats,
		AvailableSeats: seats,
		Status:         StatusPending,
	}, nil
}

// AcceptingBids reports whether a new bid may target this trip.
func (t *Trip) AcceptingBids() bool {
	return t.Status == StatusPending
}

// Activate assigns the winning driver, prices the trip, installs the start
// code and moves PENDING -> ACTIVE. The start code is set exactly once per
// trip lifetime.
func (t *Trip) Activate(driverID string, pricePerSeat float64, startCode string, now time.Time) error {
	if t.Status != StatusPending || t.DriverID != nil || t.StartCode != nil {
		return ErrAlreadyActivated
	}
	if driverID = strings.TrimSpace(driverID); driverID == "" {
		return fault.Validation("driver id is required")
	}
	if pricePerSeat <= 0 {
		return fault.Validation("price per seat must be positive")
	}

	t.DriverID = &driverID
	t.PricePerSeat = pricePerSeat
	t.StartCode = &startCode
	t.AvailableSeats = 0 // the booking consumes every requested seat
	t.setStatus(StatusActive, now)
	return nil
}

// VerifyStartCode checks the submitted code for the acting driver and marks
// the ride started. A second successful verification is impossible: the call
// fails once CodeVerified is set.
func (t *Trip) VerifyStartCode(submitted, actingDriver string, now time.Time) error {
	if t.DriverID == nil || *t.DriverID != actingDriver {
		return ErrNotAssignedDriver
	}
	if t.CodeVerified {
		return ErrCodeAlreadyVerified
	}
	if t.StartCode == nil || *t.StartCode != submitted {
		return ErrCodeMismatch
	}

	t.CodeVerified = true
	t.StartedAt = &now
	t.touch(now) // status stays ACTIVE
	return nil
}

// Complete moves ACTIVE -> COMPLETED. Requires the acting driver to be
// assigned and the start code to have been verified.
func (t *Trip) Complete(actingDriver string, now time.Time) error {
	if t.DriverID == nil || *t.DriverID != actingDriver {
		return ErrNotAssignedDriver
	}
	if t.Status == StatusCancelled {
		return ErrCompleteCancelled
	}
	if !t.CodeVerified || t.Status != StatusActive {
		return ErrCodeNotVerified
	}

	t.CompletedAt = &now
	t.setStatus(StatusCompleted, now)
	return nil
}

// Cancel moves PENDING/ACTIVE -> CANCELLED and records who cancelled and the
// penalty computed by the caller. Repeated cancels fail with a conflict so the
// penalty is never applied twice.
func (t *Trip) Cancel(actingUser, reason string, penalty float64, now time.Time) error {
	if !t.IsParticipant(actingUser) {
		return ErrNotTripParticipant
	}
	if t.Status == StatusCompleted {
		return ErrCancelCompleted
	}
	if t.Status == StatusCancelled {
		return ErrAlreadyCancelled
	}

	t.CancelledAt = &now
	t.CancelledBy = &actingUser
	t.CancellationPenalty = penalty
	if rs := strings.TrimSpace(reason); rs != "" {
		t.CancellationReason = &rs
	}
	t.setStatus(StatusCancelled, now)
	return nil
}

// IsParticipant reports whether userID is the trip's passenger or its
// assigned driver.
func (t *Trip) IsParticipant(userID string) bool {
	if t.PassengerID == userID {
		return true
	}
	return t.DriverID != nil && *t.DriverID == userID
}

// ----- internal helpers -----

func (t *Trip) setStatus(status Status, now time.Time) {
	t.Status = status
	t.touch(now)
}

// touch stamps UpdatedAt and bumps the optimistic version counter.
func (t *Trip) touch(now time.Time) {
	t.UpdatedAt = now
	t.Version++
}
