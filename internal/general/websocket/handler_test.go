package websocket

import (
	"errors"
	"testing"
	"time"

	"commuto/internal/general/logger"
)

// pingConn fails ping control frames on demand.
type pingConn struct {
	fakeConn
	ctrlErr error
}

func (c *pingConn) WriteControl(int, []byte, time.Time) error { return c.ctrlErr }

func newTestHandler() *Handler {
	log := logger.New("ws-test")
	return NewHandler(log, nil, NewHub(log))
}

func TestPingLoopReturnsWhenConnectionEnds(t *testing.T) {
	h := newTestHandler()
	sess := &Session{UserID: "drv-1", conn: &fakeConn{}}

	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		h.pingLoop(sess, time.Hour, done)
		close(stopped)
	}()

	close(done)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("ping loop still running after the connection ended")
	}
}

func TestPingLoopClosesSocketOnFailedPing(t *testing.T) {
	h := newTestHandler()
	conn := &pingConn{ctrlErr: errors.New("broken pipe")}
	sess := &Session{UserID: "drv-1", conn: conn}

	done := make(chan struct{})
	defer close(done)
	stopped := make(chan struct{})
	go func() {
		h.pingLoop(sess, time.Millisecond, done)
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("ping loop did not exit on failed ping")
	}

	conn.mu.Lock()
	closed := conn.closed
	conn.mu.Unlock()
	if !closed {
		t.Error("socket not closed after failed ping")
	}
}
