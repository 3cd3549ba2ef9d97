package session

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

var errClientGone = errors.New("client gone")

// wsConn is the slice of the websocket connection the session uses.
type wsConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// Handler upgrades the connection and runs one Session per connection.
// No resources are allocated until the first inbound frame; the token
// arrives with each frame rather than during the handshake.
func Handler(p *Processor, idleTimeout time.Duration) fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		newSession(conn, p, idleTimeout).run()
	})
}

func newSession(conn wsConn, p *Processor, idleTimeout time.Duration) *Session {
	return &Session{
		conn:        conn,
		processor:   p,
		idleTimeout: idleTimeout,
		send:        make(chan []byte, 256),
		activity:    make(chan struct{}, 1),
		closed:      make(chan struct{}),
		watcherDone: make(chan struct{}),
		writerDone:  make(chan struct{}),
	}
}

// Session owns one connection. Turns run sequentially in the read loop;
// the idle watcher is the only concurrent task and is cancelled and
// awaited on every close path.
type Session struct {
	conn        wsConn
	processor   *Processor
	idleTimeout time.Duration

	send        chan []byte
	sendOnce    sync.Once
	closeOnce   sync.Once
	activity    chan struct{}
	closed      chan struct{}
	watcherDone chan struct{}
	writerDone  chan struct{}

	st State
}

func (s *Session) run() {
	go s.writePump()
	go s.idleWatcher()

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			// client_disconnect, or our own close already went out
			break
		}
		s.touch()

		var frame InboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			s.closeWith(closeErr(CloseBadRequest, "invalid_json"))
			break
		}

		if ce := s.processor.RunTurn(context.Background(), &s.st, frame, s); ce != nil {
			s.closeWith(ce)
			break
		}
		s.touch()
	}

	s.teardown()
}

// Emit marshals one frame onto the write pump. When the pump has died the
// send would block forever, so it degrades to an error instead.
func (s *Session) Emit(f OutboundFrame) error {
	b, err := json.Marshal(f)
	if err != nil {
		return err
	}
	select {
	case s.send <- b:
		return nil
	case <-s.writerDone:
		return errClientGone
	}
}

func (s *Session) writePump() {
	defer close(s.writerDone)
	for msg := range s.send {
		if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Println("write error:", err)
			return
		}
	}
}

// idleWatcher closes the session when no inbound frame arrives within the
// window. It exits on teardown; run() awaits it so no wakeup fires after
// the session is gone.
func (s *Session) idleWatcher() {
	defer close(s.watcherDone)

	timer := time.NewTimer(s.idleTimeout)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			s.closeWith(closeErr(CloseIdleTimeout, "idle_timeout"))
			s.conn.Close()
			return
		case <-s.activity:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(s.idleTimeout)
		case <-s.closed:
			return
		}
	}
}

func (s *Session) touch() {
	select {
	case s.activity <- struct{}{}:
	default:
	}
}

func (s *Session) closeWith(ce *CloseError) {
	s.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(ce.Code, ce.CloseText())
		deadline := time.Now().Add(5 * time.Second)
		if err := s.conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
			log.Println("close frame:", err)
		}
	})
}

func (s *Session) teardown() {
	close(s.closed)
	<-s.watcherDone

	s.sendOnce.Do(func() { close(s.send) })
	<-s.writerDone

	s.conn.Close()
}
