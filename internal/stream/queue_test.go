package stream

import (
	"context"
	"sync"
	"testing"
	"time"

	"broadcastmusic/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userJoined(name string) events.Event { return events.NewUserJoined(name, []string{name}) }

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue(0)
	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, q.Push(userJoined(name)))
	}
	assert.Equal(t, 3, q.Len())

	for _, want := range []string{"a", "b", "c"} {
		ev, err := q.Pop(context.Background(), time.Second)
		require.NoError(t, err)
		assert.Equal(t, want, ev.Data.(events.UserJoined).Username)
	}
	assert.Zero(t, q.Len())
}

func TestQueue_PopOutcomes(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(q *Queue) context.Context
		wantErr error
	}{
		{
			name:    "idle wait elapses",
			setup:   func(q *Queue) context.Context { return context.Background() },
			wantErr: ErrIdle,
		},
		{
			name: "cancelled context",
			setup: func(q *Queue) context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			},
			wantErr: context.Canceled,
		},
		{
			name: "closed and drained",
			setup: func(q *Queue) context.Context {
				q.Close()
				return context.Background()
			},
			wantErr: ErrQueueClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewQueue(0)
			ctx := tt.setup(q)

			_, err := q.Pop(ctx, 20*time.Millisecond)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestQueue_PopWakesOnPush(t *testing.T) {
	q := NewQueue(0)
	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = q.Push(events.Ping())
	}()

	ev, err := q.Pop(context.Background(), 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, events.TypePing, ev.Type)
}

func TestQueue_CloseDrainsPending(t *testing.T) {
	q := NewQueue(0)
	require.NoError(t, q.Push(events.Ping()))
	q.Close()
	q.Close() // idempotent

	assert.ErrorIs(t, q.Push(events.Ping()), ErrQueueClosed)

	ev, err := q.Pop(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, events.TypePing, ev.Type)

	_, err = q.Pop(context.Background(), time.Second)
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestQueue_Limit(t *testing.T) {
	q := NewQueue(2)
	require.NoError(t, q.Push(events.Ping()))
	require.NoError(t, q.Push(events.Ping()))
	assert.ErrorIs(t, q.Push(events.Ping()), ErrQueueFull)

	_, err := q.Pop(context.Background(), time.Second)
	require.NoError(t, err)
	assert.NoError(t, q.Push(events.Ping()))
}

func TestQueue_ConcurrentProducers(t *testing.T) {
	const producers, perProducer = 8, 100
	q := NewQueue(0)

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				_ = q.Push(events.Ping())
			}
		}()
	}

	got := 0
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for got < producers*perProducer {
		_, err := q.Pop(context.Background(), time.Second)
		require.NoError(t, err)
		got++
	}
	<-done
	assert.Zero(t, q.Len())
}
