package session

import (
	"context"
	"errors"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/hafsabajwa/chatApp/internal/domain"
	"github.com/hafsabajwa/chatApp/pkg/logger"
)

// State tracks the lifecycle of one connection attempt.
type State int

const (
	StateConnecting State = iota
	StateOpen
	StateClosing
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// ErrNotOpen is returned by Send when the connection is not currently open.
var ErrNotOpen = errors.New("session: connection not open")

// ErrBacklog is returned when the outbound queue is full and the frame was not
// enqueued.
var ErrBacklog = errors.New("session: outbound queue full")

const outboundBuffer = 64

// Session owns exactly one websocket connection for one participant. It sends
// Join before yielding any inbound event and guarantees that Leave goes out
// exactly once, before the transport close, iff the connection ever opened.
type Session struct {
	endpoint string
	username string
	log      logger.Logger

	mu          sync.Mutex
	state       State
	err         error
	closeOnOpen bool
	sealed      bool

	out    chan domain.Event
	events chan domain.Event
}

// Dial starts connecting to the room endpoint and returns immediately; the
// session is in StateConnecting until the handshake completes. Inbound events
// arrive on Events once the connection is open.
func Dial(ctx context.Context, endpoint, username string, logg logger.Logger) *Session {
	s := &Session{
		endpoint: endpoint,
		username: username,
		log:      logg.WithModule("session"),
		state:    StateConnecting,
		out:      make(chan domain.Event, outboundBuffer),
		events:   make(chan domain.Event, outboundBuffer),
	}
	go s.connect(ctx)
	return s
}

// Events is the inbound feed. It closes when the connection ends, whether by
// Close or by transport failure; check State and Err afterwards.
func (s *Session) Events() <-chan domain.Event {
	return s.events
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err reports why the session ended, nil for a clean close.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Session) Username() string { return s.username }

// Send enqueues an event for transmission. It does not wait for the frame to
// reach the wire; delivery failures surface as a later state transition.
func (s *Session) Send(ev domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateOpen {
		return ErrNotOpen
	}
	select {
	case s.out <- ev:
		return nil
	default:
		return ErrBacklog
	}
}

// Close tears the session down. If the dial is still in flight the teardown is
// deferred: once the connection opens it announces Join, then Leave, then
// closes, so the leave is never dropped and never sent on a half-open channel.
// Closing an already closed or failed session is a no-op.
func (s *Session) Close() {
	s.mu.Lock()
	switch s.state {
	case StateConnecting:
		s.closeOnOpen = true
		s.mu.Unlock()
		return
	case StateOpen:
		s.state = StateClosing
		s.mu.Unlock()
		s.seal(true)
	default:
		s.mu.Unlock()
		s.seal(false)
	}
}

// seal closes the outbound queue exactly once, optionally queueing the leave
// announcement first; the write pump drains what is left and then closes the
// transport. Callers must have already moved the state off Open so no
// competing Send can touch s.out.
func (s *Session) seal(withLeave bool) {
	s.mu.Lock()
	if s.sealed {
		s.mu.Unlock()
		return
	}
	s.sealed = true
	s.mu.Unlock()

	if withLeave {
		s.out <- domain.Leave{Username: s.username}
	}
	close(s.out)
}

func (s *Session) connect(ctx context.Context) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		s.log.Errorf("dial %s failed: %v", s.endpoint, err)
		s.fail(err)
		close(s.events)
		return
	}

	// Join is the first frame on the wire, before any caller-visible event.
	data, err := domain.EncodeEvent(domain.Join{Username: s.username})
	if err == nil {
		err = conn.WriteMessage(websocket.TextMessage, data)
	}
	if err != nil {
		s.log.Errorf("join announcement failed: %v", err)
		s.fail(err)
		conn.Close()
		close(s.events)
		return
	}

	s.mu.Lock()
	deferred := s.closeOnOpen
	if deferred {
		s.state = StateClosing
	} else {
		s.state = StateOpen
	}
	s.mu.Unlock()

	go s.writePump(conn)
	go s.readPump(conn)

	if deferred {
		s.log.Infof("close requested during dial, leaving now")
		s.seal(true)
	}
}

func (s *Session) fail(err error) {
	s.mu.Lock()
	if s.state != StateFailed && s.state != StateClosed {
		s.state = StateFailed
		s.err = err
	}
	s.mu.Unlock()
}

// readPump decodes inbound frames and delivers them in arrival order.
// Undecodable frames are logged and skipped; they never stall the feed.
func (s *Session) readPump(conn *websocket.Conn) {
	defer close(s.events)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			if s.state == StateClosing {
				s.state = StateClosed
			} else if s.state != StateFailed {
				s.state = StateFailed
				s.err = err
			}
			s.mu.Unlock()
			// Unblock the write pump even if Close is never called.
			s.seal(false)
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warnf("connection lost: %v", err)
			}
			return
		}

		ev, err := domain.DecodeEvent(data)
		if err != nil {
			s.log.Warnf("dropping bad frame: %v", err)
			continue
		}
		s.events <- ev
	}
}

// writePump is the only writer on the connection. When the outbound queue is
// sealed it drains the remaining frames, sends a close frame and closes the
// transport, which is how leave-before-close ordering is kept.
func (s *Session) writePump(conn *websocket.Conn) {
	var broken bool
	for ev := range s.out {
		if broken {
			continue
		}
		data, err := domain.EncodeEvent(ev)
		if err != nil {
			s.log.Errorf("cannot encode outbound %s event: %v", domain.Type(ev), err)
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			s.log.Errorf("write failed: %v", err)
			s.fail(err)
			conn.Close()
			broken = true
		}
	}
	if !broken {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}
}
