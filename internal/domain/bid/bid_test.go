package bid

import (
	"errors"
	"testing"
	"time"

	"commuto/internal/domain/fault"
)

func TestNewBidValidation(t *testing.T) {
	now := time.Now().UTC()

	if _, err := NewBid("", "drv-1", 20, "", now); !errors.Is(err, ErrTripRequired) {
		t.Errorf("empty trip: got %v", err)
	}
	if _, err := NewBid("trip-1", "", 20, "", now); !errors.Is(err, ErrDriverRequired) {
		t.Errorf("empty driver: got %v", err)
	}
	for _, amount := range []float64{0, -5} {
		if _, err := NewBid("trip-1", "drv-1", amount, "", now); !errors.Is(err, ErrNonPositive) {
			t.Errorf("amount=%v: got %v", amount, err)
		}
	}

	b, err := NewBid("trip-1", "drv-1", 25, "can pick you up early", now)
	if err != nil {
		t.Fatalf("NewBid: %v", err)
	}
	if b.Status != StatusPending || b.IsCounterBid || b.ParentBidID != nil {
		t.Errorf("unexpected initial state: %+v", b)
	}
	if b.Message == nil || *b.Message != "can pick you up early" {
		t.Errorf("message not kept")
	}
}

func TestAcceptReject(t *testing.T) {
	now := time.Now().UTC()

	b, _ := NewBid("trip-1", "drv-1", 25, "", now)
	if err := b.Accept(now); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if b.Status != StatusAccepted || b.Version != 1 {
		t.Errorf("accept not recorded: %+v", b)
	}
	// accepted bids cannot move again; the error names the current status
	err := b.Accept(now)
	if !fault.IsValidation(err) {
		t.Fatalf("second accept: got %v", err)
	}
	if want := "bid is not pending (current status: accepted)"; err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
	if err := b.Reject(now); !fault.IsValidation(err) {
		t.Errorf("reject after accept: got %v", err)
	}

	r, _ := NewBid("trip-1", "drv-2", 30, "", now)
	if err := r.Reject(now); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if r.Status != StatusRejected {
		t.Errorf("status = %s, want REJECTED", r.Status)
	}
}

func TestCounter(t *testing.T) {
	now := time.Now().UTC()

	b, _ := NewBid("trip-1", "drv-1", 30, "", now)
	b.ID = "bid-1"

	counter, err := b.Counter(22, "meet halfway?", now)
	if err != nil {
		t.Fatalf("Counter: %v", err)
	}
	if b.Status != StatusRejected {
		t.Errorf("original status = %s, want REJECTED", b.Status)
	}
	if !counter.IsCounterBid || counter.ParentBidID == nil || *counter.ParentBidID != "bid-1" {
		t.Errorf("counter chain broken: %+v", counter)
	}
	if counter.Status != StatusPending || counter.Amount != 22 {
		t.Errorf("counter state: %+v", counter)
	}
	if counter.DriverID != b.DriverID || counter.TripID != b.TripID {
		t.Errorf("counter must target the same (trip, driver) pair")
	}
	if counter.Message == nil || *counter.Message != "Counter offer: meet halfway?" {
		t.Errorf("message = %v", counter.Message)
	}

	// countering a non-pending bid is rejected
	if _, err := b.Counter(18, "", now); !fault.IsValidation(err) {
		t.Errorf("counter on rejected bid: got %v", err)
	}
	// non-positive counter amounts are rejected before the original moves
	fresh, _ := NewBid("trip-1", "drv-3", 40, "", now)
	if _, err := fresh.Counter(0, "", now); !errors.Is(err, ErrNonPositive) {
		t.Errorf("zero counter: got %v", err)
	}
	if fresh.Status != StatusPending {
		t.Errorf("failed counter must not reject the original")
	}
}
