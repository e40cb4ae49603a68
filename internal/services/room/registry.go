package room

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"broadcastmusic/internal/events"
	"broadcastmusic/internal/metrics"
)

// Publisher fans an event out to the clients attached to a room.
type Publisher interface {
	Broadcast(roomID string, ev events.Event)
}

// State is the shared playback state of one room.
type State struct {
	Track       string
	Title       string
	Artist      string
	IsPlaying   bool
	CurrentTime float64
	Users       []string
	UpdatedAt   time.Time
}

func (s State) MusicState() events.MusicState {
	return events.MusicState{
		Track:       s.Track,
		Title:       s.Title,
		Artist:      s.Artist,
		IsPlaying:   s.IsPlaying,
		CurrentTime: s.CurrentTime,
	}
}

func (s State) clone() State {
	s.Users = slices.Clone(s.Users)
	return s
}

type entry struct {
	mu      sync.Mutex
	state   State
	removed bool // set by Reap; a removed entry behaves as absent
}

// Registry owns every room's state. Each room has its own lock; a
// successful mutation publishes its event while that lock is held so
// events leave a room in the same order its state changed.
type Registry struct {
	rooms sync.Map // roomID -> *entry
	count atomic.Int64
	pub   Publisher
	now   func() time.Time
}

func NewRegistry(pub Publisher) *Registry {
	return &Registry{pub: pub, now: time.Now}
}

func (r *Registry) Create(roomID, creator string) error {
	fresh := &entry{state: State{
		Users:     []string{creator},
		UpdatedAt: r.now(),
	}}
	for {
		v, loaded := r.rooms.LoadOrStore(roomID, fresh)
		if !loaded {
			metrics.RoomsActive.Set(float64(r.count.Add(1)))
			return nil
		}
		e := v.(*entry)
		e.mu.Lock()
		removed := e.removed
		e.mu.Unlock()
		if !removed {
			return ErrAlreadyExists
		}
		// reaped concurrently; clear the tombstone and retry
		r.rooms.CompareAndDelete(roomID, e)
	}
}

// Join appends name to the member list and returns the resulting state.
// The room is notified with a user_joined event.
func (r *Registry) Join(roomID, name string) (State, error) {
	var snap State
	err := r.mutate(roomID, func(s *State) events.Event {
		s.Users = append(s.Users, name)
		snap = s.clone()
		return events.NewUserJoined(name, s.Users)
	})
	return snap, err
}

// SetTrack switches the room to a new track, paused at offset 0.
func (r *Registry) SetTrack(roomID, track, title, artist string) error {
	return r.mutate(roomID, func(s *State) events.Event {
		s.Track = track
		s.Title = title
		s.Artist = artist
		s.IsPlaying = false
		s.CurrentTime = 0
		return events.NewMusicState(s.MusicState())
	})
}

// SetPlayState updates the play flag and offset together; the track is kept.
func (r *Registry) SetPlayState(roomID string, isPlaying bool, currentTime float64) error {
	return r.mutate(roomID, func(s *State) events.Event {
		s.IsPlaying = isPlaying
		s.CurrentTime = currentTime
		return events.NewMusicState(s.MusicState())
	})
}

func (r *Registry) Snapshot(roomID string) (State, error) {
	var snap State
	err := r.WithSnapshot(roomID, func(s State) { snap = s })
	return snap, err
}

// WithSnapshot runs fn with a copy of the room state while holding the
// room lock, so nothing can be published to the room while fn runs.
func (r *Registry) WithSnapshot(roomID string, fn func(State)) error {
	e, err := r.lock(roomID)
	if err != nil {
		return err
	}
	defer e.mu.Unlock()

	fn(e.state.clone())
	return nil
}

func (r *Registry) Len() int { return int(r.count.Load()) }

// Reap removes rooms untouched for longer than ttl that busy reports as
// having no attached clients. It returns the removed room ids.
func (r *Registry) Reap(ttl time.Duration, busy func(roomID string) bool) []string {
	cutoff := r.now().Add(-ttl)
	var reaped []string

	r.rooms.Range(func(k, v any) bool {
		id, e := k.(string), v.(*entry)
		e.mu.Lock()
		if !e.removed && e.state.UpdatedAt.Before(cutoff) && !busy(id) {
			e.removed = true
			r.rooms.CompareAndDelete(id, e)
			reaped = append(reaped, id)
		}
		e.mu.Unlock()
		return true
	})

	if len(reaped) > 0 {
		metrics.RoomsActive.Set(float64(r.count.Add(-int64(len(reaped)))))
	}
	return reaped
}

func (r *Registry) mutate(roomID string, fn func(*State) events.Event) error {
	e, err := r.lock(roomID)
	if err != nil {
		return err
	}
	defer e.mu.Unlock()

	ev := fn(&e.state)
	e.state.UpdatedAt = r.now()
	r.pub.Broadcast(roomID, ev)
	return nil
}

// lock returns the room's entry with its mutex held.
func (r *Registry) lock(roomID string) (*entry, error) {
	v, ok := r.rooms.Load(roomID)
	if !ok {
		return nil, ErrNotFound
	}
	e := v.(*entry)
	e.mu.Lock()
	if e.removed {
		e.mu.Unlock()
		return nil, ErrNotFound
	}
	return e, nil
}
