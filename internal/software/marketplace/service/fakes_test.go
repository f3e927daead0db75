package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"commuto/internal/domain/bid"
	"commuto/internal/domain/booking"
	"commuto/internal/domain/fault"
	"commuto/internal/domain/geo"
	"commuto/internal/domain/trip"
	"commuto/internal/general/contracts"
)

// In-memory fakes over a shared store. WithinTx runs fn directly; the tests
// exercise service semantics, not transaction plumbing.

type memStore struct {
	mu       sync.Mutex
	seq      int
	trips    map[string]trip.Trip
	bids     map[string]bid.Bid
	bookings map[string]booking.Booking
	samples  []geo.LocationSample
	counters map[string]int // driverID -> completed trips
}

func newMemStore() *memStore {
	return &memStore{
		trips:    make(map[string]trip.Trip),
		bids:     make(map[string]bid.Bid),
		bookings: make(map[string]booking.Booking),
		counters: make(map[string]int),
	}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

type fakeUoW struct{}

func (fakeUoW) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// ----- trip repository -----

type fakeTripRepo struct{ store *memStore }

func (r *fakeTripRepo) Create(_ context.Context, t *trip.Trip) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	t.ID = r.store.nextID("trip")
	r.store.trips[t.ID] = *t
	return nil
}

func (r *fakeTripRepo) GetByID(_ context.Context, id string) (*trip.Trip, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	t, ok := r.store.trips[id]
	if !ok {
		return nil, errNotFound("trip not found")
	}
	return &t, nil
}

func (r *fakeTripRepo) LockByID(ctx context.Context, id string) (*trip.Trip, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeTripRepo) Update(_ context.Context, t *trip.Trip) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.trips[t.ID]; !ok {
		return errNotFound("trip not found")
	}
	r.store.trips[t.ID] = *t
	return nil
}

func (r *fakeTripRepo) ListOpen(_ context.Context, limit int) ([]*trip.Trip, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*trip.Trip
	for id := range r.store.trips {
		t := r.store.trips[id]
		if t.Status == trip.StatusPending {
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ----- bid repository -----

type fakeBidRepo struct{ store *memStore }

func (r *fakeBidRepo) Create(_ context.Context, b *bid.Bid) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	b.ID = r.store.nextID("bid")
	r.store.bids[b.ID] = *b
	return nil
}

func (r *fakeBidRepo) GetByID(_ context.Context, id string) (*bid.Bid, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	b, ok := r.store.bids[id]
	if !ok {
		return nil, errNotFound("bid not found")
	}
	return &b, nil
}

func (r *fakeBidRepo) LockByID(ctx context.Context, id string) (*bid.Bid, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeBidRepo) LockPendingByTrip(_ context.Context, tripID string) ([]*bid.Bid, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*bid.Bid
	for id := range r.store.bids {
		b := r.store.bids[id]
		if b.TripID == tripID && b.Status == bid.StatusPending {
			out = append(out, &b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeBidRepo) HasPendingForDriver(_ context.Context, tripID, driverID string) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, b := range r.store.bids {
		if b.TripID == tripID && b.DriverID == driverID && b.Status == bid.StatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeBidRepo) Update(_ context.Context, b *bid.Bid) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.bids[b.ID]; !ok {
		return errNotFound("bid not found")
	}
	r.store.bids[b.ID] = *b
	return nil
}

func (r *fakeBidRepo) ListByTrip(_ context.Context, tripID string) ([]*bid.Bid, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*bid.Bid
	for id := range r.store.bids {
		b := r.store.bids[id]
		if b.TripID == tripID {
			out = append(out, &b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ----- booking repository -----

type fakeBookingRepo struct{ store *memStore }

func (r *fakeBookingRepo) Create(_ context.Context, bk *booking.Booking) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	bk.ID = r.store.nextID("booking")
	r.store.bookings[bk.ID] = *bk
	return nil
}

func (r *fakeBookingRepo) LockByTrip(_ context.Context, tripID string) ([]*booking.Booking, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*booking.Booking
	for id := range r.store.bookings {
		bk := r.store.bookings[id]
		if bk.TripID == tripID {
			out = append(out, &bk)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeBookingRepo) Update(_ context.Context, bk *booking.Booking) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.bookings[bk.ID]; !ok {
		return errNotFound("booking not found")
	}
	r.store.bookings[bk.ID] = *bk
	return nil
}

// ----- location & user repositories -----

type fakeLocationRepo struct{ store *memStore }

func (r *fakeLocationRepo) Append(_ context.Context, s *geo.LocationSample) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	s.ID = r.store.nextID("sample")
	r.store.samples = append(r.store.samples, *s)
	return nil
}

type fakeUserRepo struct{ store *memStore }

func (r *fakeUserRepo) IncrementCompletedTrips(_ context.Context, driverID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.counters[driverID]++
	return nil
}

// ----- outbound fakes -----

type sentEvent struct {
	UserID string // empty for broadcasts
	Event  contracts.WSEvent
}

type fakeNotifier struct {
	mu        sync.Mutex
	direct    []sentEvent
	broadcast []contracts.WSEvent
}

func (n *fakeNotifier) SendToUser(userID string, event contracts.WSEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.direct = append(n.direct, sentEvent{UserID: userID, Event: event})
}

func (n *fakeNotifier) BroadcastToDrivers(event contracts.WSEvent, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.broadcast = append(n.broadcast, event)
}

func (n *fakeNotifier) sentTo(userID string) []contracts.WSEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []contracts.WSEvent
	for _, e := range n.direct {
		if e.UserID == userID {
			out = append(out, e.Event)
		}
	}
	return out
}

type publishedMsg struct {
	Kind       string // "trip", "bid", "location"
	RoutingKey string
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []publishedMsg
}

func (p *fakePublisher) PublishTripEvent(_ context.Context, routingKey string, _ contracts.TripEventData) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, publishedMsg{Kind: "trip", RoutingKey: routingKey})
	return nil
}

func (p *fakePublisher) PublishBidEvent(_ context.Context, routingKey string, _ contracts.BidEventData) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, publishedMsg{Kind: "bid", RoutingKey: routingKey})
	return nil
}

func (p *fakePublisher) PublishLocationSample(_ context.Context, _ contracts.LocationSampleMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, publishedMsg{Kind: "location"})
	return nil
}

// errNotFound mirrors the storage layer's not-found classification.
func errNotFound(msg string) error {
	return fault.NotFound("%s", msg)
}
