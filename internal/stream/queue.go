package stream

import (
	"context"
	"errors"
	"sync"
	"time"

	"broadcastmusic/internal/events"
)

var (
	ErrQueueClosed = errors.New("queue closed")
	ErrQueueFull   = errors.New("queue full")
	ErrIdle        = errors.New("queue idle")
)

// Queue is the outbound FIFO of one attached client. Any number of
// producers may Push; a single consumer (the stream session) Pops.
type Queue struct {
	mu     sync.Mutex
	items  []events.Event
	limit  int // 0 = unbounded
	closed bool
	notify chan struct{} // buffered(1), signalled on every push
}

func NewQueue(limit int) *Queue {
	return &Queue{
		limit:  limit,
		notify: make(chan struct{}, 1),
	}
}

// Push appends ev. It never blocks; a closed or saturated queue reports
// itself undeliverable instead.
func (q *Queue) Push(ev events.Event) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	if q.limit > 0 && len(q.items) >= q.limit {
		q.mu.Unlock()
		return ErrQueueFull
	}
	q.items = append(q.items, ev)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return nil
}

// Pop returns the oldest event, waiting up to wait for one to arrive.
// It returns ErrIdle when the wait elapses, ErrQueueClosed once the queue
// is closed and drained, or ctx.Err() on cancellation.
func (q *Queue) Pop(ctx context.Context, wait time.Duration) (events.Event, error) {
	timer := time.NewTimer(wait)
	defer timer.Stop()

	for {
		if ev, ok, err := q.take(); ok || err != nil {
			return ev, err
		}
		select {
		case <-q.notify:
		case <-timer.C:
			// one last look so a push racing the timer is not lost
			if ev, ok, err := q.take(); ok || err != nil {
				return ev, err
			}
			return events.Event{}, ErrIdle
		case <-ctx.Done():
			return events.Event{}, ctx.Err()
		}
	}
}

func (q *Queue) take() (events.Event, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) > 0 {
		ev := q.items[0]
		q.items[0] = events.Event{}
		q.items = q.items[1:]
		return ev, true, nil
	}
	if q.closed {
		return events.Event{}, false, ErrQueueClosed
	}
	return events.Event{}, false, nil
}

// Close rejects further pushes and wakes a waiting consumer.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
