package booking

import (
	"strings"
	"time"

	"commuto/internal/domain/fault"
)

// Booking is the passenger's seat reservation tied to a trip. In the primary
// flow there is exactly one booking per trip, created together with it.
type Booking struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64

	TripID      string
	PassengerID string

	SeatsBooked int
	TotalPrice  float64 // acceptedBid.amount * seatsBooked, set at acceptance

	Status        Status
	PaymentStatus PaymentStatus
}

var (
	ErrTripRequired      = fault.Validation("trip id is required")
	ErrPassengerRequired = fault.Validation("passenger id is required")
	ErrSeatsRequired     = fault.Validation("seats booked must be at least 1")
	ErrNotConfirmable    = fault.Conflict("booking is no longer pending")
)

// NewBooking creates a pending booking with pending payment.
func NewBooking(tripID, passengerID string, seats int, now time.Time) (*Booking, error) {
	if tripID = strings.TrimSpace(tripID); tripID == "" {
		return nil, ErrTripRequired
	}
	if passengerID = strings.TrimSpace(passengerID); passengerID == "" {
		return nil, ErrPassengerRequired
	}
	if seats < 1 {
		return nil, ErrSeatsRequired
	}

	return &Booking{
		CreatedAt:     now,
		UpdatedAt:     now,
		TripID:        tripID,
		PassengerID:   passengerID,
		SeatsBooked:   seats,
		Status:        StatusPending,
		PaymentStatus: PaymentPending,
	}, nil
}

// Confirm prices and confirms the booking at bid acceptance time.
func (bk *Booking) Confirm(pricePerSeat float64, now time.Time) error {
	if bk.Status != StatusPending {
		return ErrNotConfirmable
	}
	if pricePerSeat <= 0 {
		return fault.Validation("price per seat must be positive")
	}
	bk.TotalPrice = pricePerSeat * float64(bk.SeatsBooked)
	bk.Status = StatusConfirmed
	bk.touch(now)
	return nil
}

// Complete marks the booking and its payment settled. Part of the trip
// completion cascade.
func (bk *Booking) Complete(now time.Time) {
	bk.Status = StatusCompleted
	bk.PaymentStatus = PaymentCompleted
	bk.touch(now)
}

// Cancel voids the booking and its payment. Part of the trip cancellation
// cascade; already-cancelled bookings are left untouched by the caller.
func (bk *Booking) Cancel(now time.Time) {
	bk.Status = StatusCancelled
	bk.PaymentStatus = PaymentCancelled
	bk.touch(now)
}

// touch stamps UpdatedAt and bumps the optimistic version counter.
func (bk *Booking) touch(now time.Time) {
	bk.UpdatedAt = now
	bk.Version++
}
