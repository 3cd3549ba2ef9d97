package session

import (
	"encoding/binary"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/contrib/websocket"
)

// fakeWSConn drives a session without a network. Inbound frames arrive on a
// channel; Close unblocks the read loop the way a dropped socket does.
type fakeWSConn struct {
	inbound chan []byte

	mu           sync.Mutex
	writes       [][]byte
	closeCode    int
	closeText    string
	closeWritten chan struct{}

	closeOnce sync.Once
	closed    chan struct{}
}

func newFakeWSConn() *fakeWSConn {
	return &fakeWSConn{
		inbound:      make(chan []byte, 8),
		closeWritten: make(chan struct{}),
		closed:       make(chan struct{}),
	}
}

func (c *fakeWSConn) ReadMessage() (int, []byte, error) {
	select {
	case msg, ok := <-c.inbound:
		if !ok {
			return 0, nil, errors.New("client went away")
		}
		return websocket.TextMessage, msg, nil
	case <-c.closed:
		return 0, nil, errors.New("use of closed connection")
	}
}

func (c *fakeWSConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = append(c.writes, data)
	return nil
}

func (c *fakeWSConn) WriteControl(messageType int, data []byte, deadline time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if messageType == websocket.CloseMessage && len(data) >= 2 {
		c.closeCode = int(binary.BigEndian.Uint16(data[:2]))
		c.closeText = string(data[2:])
		close(c.closeWritten)
	}
	return nil
}

func (c *fakeWSConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeWSConn) sentClose() (int, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCode, c.closeText
}

func runSession(conn *fakeWSConn, p *Processor, idleTimeout time.Duration) chan struct{} {
	done := make(chan struct{})
	go func() {
		newSession(conn, p, idleTimeout).run()
		close(done)
	}()
	return done
}

func waitFor(t *testing.T, ch chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func idleHarness() *harness {
	billing := &fakeBillingRepo{customer: entitledCustomer(), consumeOK: true}
	return newHarness(&fakeClient{chunks: []string{"ok"}}, billing, defaultEngines())
}

func TestSession_IdleTimeoutCloses(t *testing.T) {
	conn := newFakeWSConn()
	done := runSession(conn, idleHarness().proc, 30*time.Millisecond)

	waitFor(t, conn.closeWritten, "idle close frame")
	code, text := conn.sentClose()
	if code != CloseIdleTimeout {
		t.Fatalf("close code = %d, want %d", code, CloseIdleTimeout)
	}
	if text != "idle_timeout" {
		t.Fatalf("close reason = %q", text)
	}

	// the watcher and writer are joined before run returns
	waitFor(t, done, "session teardown")
}

func TestSession_InboundFrameResetsIdleTimer(t *testing.T) {
	conn := newFakeWSConn()
	done := runSession(conn, idleHarness().proc, 300*time.Millisecond)

	// keep the session busy past several timeout windows
	token := validToken(t)
	for i := 0; i < 4; i++ {
		time.Sleep(120 * time.Millisecond)
		select {
		case <-conn.closeWritten:
			t.Fatal("session closed while frames kept arriving")
		default:
		}
		conn.inbound <- []byte(`{"message":"ping","token":"` + token + `"}`)
	}

	// then go quiet and let the timer fire
	waitFor(t, conn.closeWritten, "idle close frame")
	if code, _ := conn.sentClose(); code != CloseIdleTimeout {
		t.Fatalf("close code = %d, want %d", code, CloseIdleTimeout)
	}
	waitFor(t, done, "session teardown")
}

func TestSession_InvalidJSONCloses(t *testing.T) {
	conn := newFakeWSConn()
	done := runSession(conn, idleHarness().proc, time.Minute)

	conn.inbound <- []byte("not json")

	waitFor(t, conn.closeWritten, "close frame")
	code, text := conn.sentClose()
	if code != CloseBadRequest || text != "invalid_json" {
		t.Fatalf("close = %d %q", code, text)
	}
	waitFor(t, done, "session teardown")
}

func TestSession_TurnCloseErrorReachesClient(t *testing.T) {
	conn := newFakeWSConn()
	done := runSession(conn, idleHarness().proc, time.Minute)

	conn.inbound <- []byte(`{"message":"hi","token":"garbage"}`)

	waitFor(t, conn.closeWritten, "close frame")
	if code, _ := conn.sentClose(); code != CloseUnauthorized {
		t.Fatalf("close code = %d, want %d", code, CloseUnauthorized)
	}
	waitFor(t, done, "session teardown")
}

func TestSession_ClientDisconnectTearsDownCleanly(t *testing.T) {
	conn := newFakeWSConn()
	done := runSession(conn, idleHarness().proc, time.Minute)

	close(conn.inbound)

	// no close frame is owed to a client that already left
	waitFor(t, done, "session teardown")
	if code, _ := conn.sentClose(); code != 0 {
		t.Fatalf("unexpected close frame %d after client disconnect", code)
	}
}

func TestSession_TurnFramesReachTheWire(t *testing.T) {
	conn := newFakeWSConn()
	h := idleHarness()
	done := runSession(conn, h.proc, time.Minute)

	conn.inbound <- []byte(`{"message":"hi","token":"` + validToken(t) + `"}`)

	// a full turn writes at least one chunk and the final frame
	deadline := time.After(2 * time.Second)
	for {
		conn.mu.Lock()
		n := len(conn.writes)
		conn.mu.Unlock()
		if n >= 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("turn produced %d frames", n)
		case <-time.After(5 * time.Millisecond):
		}
	}

	conn.Close()
	waitFor(t, done, "session teardown")
}
