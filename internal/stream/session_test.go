package stream

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"broadcastmusic/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordWriter struct {
	mu      sync.Mutex
	written []events.Event
	got     chan events.Event
	failOn  int // fail the n-th write (1-based); 0 never fails
}

func newRecordWriter() *recordWriter {
	return &recordWriter{got: make(chan events.Event, 64)}
}

func (w *recordWriter) WriteEvent(ev events.Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failOn > 0 && len(w.written)+1 == w.failOn {
		return errors.New("broken pipe")
	}
	w.written = append(w.written, ev)
	w.got <- ev
	return nil
}

func (w *recordWriter) next(t *testing.T) events.Event {
	t.Helper()
	select {
	case ev := <-w.got:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event written")
		return events.Event{}
	}
}

func startSession(t *testing.T, h *Hub, w EventWriter, idle time.Duration) (*Session, context.CancelFunc, <-chan error) {
	t.Helper()
	q := h.Attach("party1", "c1")
	sess := NewSession(h, "party1", "c1", q, w, idle)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sess.Run(ctx) }()
	return sess, cancel, done
}

func wait(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("session did not stop")
		return nil
	}
}

func TestSession_DeliversInOrder(t *testing.T) {
	h := NewHub(0)
	w := newRecordWriter()
	_, cancel, done := startSession(t, h, w, time.Minute)
	defer cancel()

	h.Broadcast("party1", events.NewMusicState(events.MusicState{IsPlaying: true, CurrentTime: 42}))
	h.Broadcast("party1", events.NewMusicState(events.MusicState{IsPlaying: false, CurrentTime: 55}))

	first, second := w.next(t), w.next(t)
	assert.Equal(t, 42.0, first.Data.(events.MusicState).CurrentTime)
	assert.Equal(t, 55.0, second.Data.(events.MusicState).CurrentTime)

	cancel()
	assert.NoError(t, wait(t, done))
}

func TestSession_KeepaliveWhenIdle(t *testing.T) {
	h := NewHub(0)
	w := newRecordWriter()
	sess, cancel, done := startSession(t, h, w, 20*time.Millisecond)

	assert.Equal(t, events.TypePing, w.next(t).Type)
	assert.Equal(t, events.TypePing, w.next(t).Type)
	assert.Equal(t, StateIdle, sess.State())
	assert.True(t, h.HasClients("party1"), "stream stays attached after a keepalive")

	h.Broadcast("party1", events.NewUserJoined("bob", []string{"alice", "bob"}))
	for {
		if ev := w.next(t); ev.Type == events.TypeUserJoined {
			break
		}
	}

	cancel()
	require.NoError(t, wait(t, done))
}

func TestSession_CancelDetaches(t *testing.T) {
	h := NewHub(0)
	sess, cancel, done := startSession(t, h, newRecordWriter(), time.Minute)
	require.True(t, h.HasClients("party1"))

	cancel()
	require.NoError(t, wait(t, done))

	assert.Equal(t, StateClosed, sess.State())
	assert.False(t, h.HasClients("party1"))
	sess.Close() // second release is a no-op
}

func TestSession_WriteFailureDetaches(t *testing.T) {
	h := NewHub(0)
	w := newRecordWriter()
	w.failOn = 1
	_, cancel, done := startSession(t, h, w, time.Minute)
	defer cancel()

	h.Broadcast("party1", events.Ping())

	assert.Error(t, wait(t, done))
	assert.False(t, h.HasClients("party1"))
}

func TestSession_EndsWhenQueueDropped(t *testing.T) {
	h := NewHub(0)
	_, cancel, done := startSession(t, h, newRecordWriter(), time.Minute)
	defer cancel()

	h.Detach("party1", "c1")

	assert.NoError(t, wait(t, done))
}

func TestSession_StaleCloseKeepsNewerAttach(t *testing.T) {
	h := NewHub(0)
	oldQ := h.Attach("party1", "c1")
	stale := NewSession(h, "party1", "c1", oldQ, newRecordWriter(), time.Minute)
	h.Detach("party1", "c1")
	h.Attach("party1", "c1")

	stale.Close()

	assert.True(t, h.HasClients("party1"))
}
