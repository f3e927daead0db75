package websocket

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"commuto/internal/domain/user"
	"commuto/internal/general/contracts"
	"commuto/internal/general/logger"
)

// fakeConn records written frames in memory.
type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
	fail   bool
	closed bool
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("broken pipe")
	}
	cp := append([]byte(nil), data...)
	c.frames = append(c.frames, cp)
	return nil
}

func (c *fakeConn) WriteControl(int, []byte, time.Time) error { return nil }
func (c *fakeConn) SetWriteDeadline(time.Time) error          { return nil }

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) events(t *testing.T) []contracts.WSEvent {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []contracts.WSEvent
	for _, f := range c.frames {
		var ev contracts.WSEvent
		if err := json.Unmarshal(f, &ev); err != nil {
			t.Fatalf("bad frame %q: %v", f, err)
		}
		out = append(out, ev)
	}
	return out
}

func newTestHub() *Hub {
	return NewHub(logger.New("hub-test"))
}

func TestSendToUserDeliversToAllConnections(t *testing.T) {
	hub := newTestHub()
	phone, web := &fakeConn{}, &fakeConn{}
	hub.Register("p1", user.RolePassenger, phone)
	hub.Register("p1", user.RolePassenger, web)

	hub.SendToUser("p1", contracts.WSEvent{Type: contracts.EventNewBid})

	for _, c := range []*fakeConn{phone, web} {
		evs := c.events(t)
		if len(evs) != 1 || evs[0].Type != contracts.EventNewBid {
			t.Errorf("events = %+v", evs)
		}
	}
}

func TestSendToUserWithoutConnectionIsSilent(t *testing.T) {
	hub := newTestHub()
	hub.SendToUser("ghost", contracts.WSEvent{Type: contracts.EventRideStatus})
	// nothing to assert beyond not panicking; the event is simply dropped
}

func TestBroadcastToDriversSkipsPassengersAndExcluded(t *testing.T) {
	hub := newTestHub()
	d1, d2, p1 := &fakeConn{}, &fakeConn{}, &fakeConn{}
	hub.Register("drv-1", user.RoleDriver, d1)
	hub.Register("drv-2", user.RoleDriver, d2)
	hub.Register("pas-1", user.RolePassenger, p1)

	hub.BroadcastToDrivers(contracts.WSEvent{Type: contracts.EventNewRideRequest}, "drv-2")

	if evs := d1.events(t); len(evs) != 1 {
		t.Errorf("drv-1 events = %+v", evs)
	}
	if evs := d2.events(t); len(evs) != 0 {
		t.Errorf("excluded driver got events: %+v", evs)
	}
	if evs := p1.events(t); len(evs) != 0 {
		t.Errorf("passenger got driver broadcast: %+v", evs)
	}
}

func TestFailedWriteDropsConnection(t *testing.T) {
	hub := newTestHub()
	broken := &fakeConn{fail: true}
	hub.Register("p1", user.RolePassenger, broken)

	hub.SendToUser("p1", contracts.WSEvent{Type: contracts.EventRideStatus})

	if !broken.closed {
		t.Error("broken connection not closed")
	}
	if n := hub.ConnectedUsers(); n != 0 {
		t.Errorf("connected users = %d, want 0", n)
	}

	// a healthy sibling keeps receiving
	healthy := &fakeConn{}
	hub.Register("p1", user.RolePassenger, healthy)
	hub.SendToUser("p1", contracts.WSEvent{Type: contracts.EventRideStatus})
	if evs := healthy.events(t); len(evs) != 1 {
		t.Errorf("healthy events = %+v", evs)
	}
}

func TestUnregisterIsIdempotent(t *testing.T) {
	hub := newTestHub()
	c := &fakeConn{}
	s := hub.Register("p1", user.RolePassenger, c)

	hub.Unregister(s)
	hub.Unregister(s)

	if n := hub.ConnectedUsers(); n != 0 {
		t.Errorf("connected users = %d", n)
	}
}

func TestConcurrentRegisterAndSend(t *testing.T) {
	hub := newTestHub()
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s := hub.Register("drv-1", user.RoleDriver, &fakeConn{})
			hub.Unregister(s)
		}()
		go func() {
			defer wg.Done()
			hub.BroadcastToDrivers(contracts.WSEvent{Type: contracts.EventNewRideRequest}, "")
		}()
	}
	wg.Wait()
}
