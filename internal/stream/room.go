package stream

import (
	"sync"

	"broadcastmusic/internal/events"
)

// roomMembers is the member set of one roomID inside the Hub.
type roomMembers struct {
	mu      sync.RWMutex
	clients map[string]*attachment // clientID -> attachment
	dead    bool                   // unlinked from the Hub; attach must retry
}

// attachment is one client's queue plus the number of sessions reading it.
type attachment struct {
	q    *Queue
	refs int
}

type member struct {
	id string
	q  *Queue
}

func newRoomMembers() *roomMembers {
	return &roomMembers{clients: map[string]*attachment{}}
}

// snapshot copies the membership so pushes happen outside the lock.
func (m *roomMembers) snapshot() []member {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]member, 0, len(m.clients))
	for id, a := range m.clients {
		out = append(out, member{id: id, q: a.q})
	}
	return out
}

func (m *roomMembers) len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// broadcast pushes ev to each member and returns those that refused it.
func broadcast(members []member, ev events.Event) []member {
	var failed []member
	for _, m := range members {
		if err := m.q.Push(ev); err != nil {
			failed = append(failed, m)
		}
	}
	return failed
}
