package stream

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"broadcastmusic/internal/events"

	"go.uber.org/zap"
)

// DefaultIdleTimeout is how long a session waits before emitting a keepalive.
const DefaultIdleTimeout = 30 * time.Second

// EventWriter emits one event over a client connection.
type EventWriter interface {
	WriteEvent(ev events.Event) error
}

type SessionState int32

const (
	StateAttached SessionState = iota
	StateDelivering
	StateIdle
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateAttached:
		return "attached"
	case StateDelivering:
		return "delivering"
	case StateIdle:
		return "idle"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Session drains one client's queue into its connection until the
// connection goes away. It holds one reference on a Hub queue; Close
// releases it exactly once.
type Session struct {
	roomID   string
	clientID string
	hub      *Hub
	queue    *Queue
	out      EventWriter
	idle     time.Duration

	state     atomic.Int32
	closeOnce sync.Once
}

func NewSession(hub *Hub, roomID, clientID string, q *Queue, out EventWriter, idle time.Duration) *Session {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	return &Session{
		roomID:   roomID,
		clientID: clientID,
		hub:      hub,
		queue:    q,
		out:      out,
		idle:     idle,
	}
}

func (s *Session) RoomID() string      { return s.roomID }
func (s *Session) ClientID() string    { return s.clientID }
func (s *Session) State() SessionState { return SessionState(s.state.Load()) }

// Run blocks until ctx is cancelled, the queue is closed or a write fails.
// Cancellation and queue closure are normal exits and return nil.
func (s *Session) Run(ctx context.Context) error {
	defer s.Close()

	for {
		ev, err := s.queue.Pop(ctx, s.idle)
		switch {
		case err == nil:
			s.state.Store(int32(StateDelivering))
		case errors.Is(err, ErrIdle):
			s.state.Store(int32(StateIdle))
			ev = events.Ping()
		case errors.Is(err, ErrQueueClosed), errors.Is(err, context.Canceled):
			return nil
		default:
			return err
		}

		if err := s.out.WriteEvent(ev); err != nil {
			zap.L().Debug("stream.write_failed",
				zap.String("room", s.roomID),
				zap.String("client", s.clientID),
				zap.Error(err),
			)
			return err
		}
	}
}

// Close releases the session's hold on its queue. The queue leaves the Hub
// once no other session on the same clientID still reads it. Safe to call
// repeatedly.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.state.Store(int32(StateClosed))
		s.hub.Release(s.roomID, s.clientID, s.queue)
	})
}
