package stream

import (
	"sync"

	"broadcastmusic/internal/events"
	"broadcastmusic/internal/metrics"

	"go.uber.org/zap"
)

// Hub keeps the attached client queues per roomID.
// Each room has its own lock, so attach/detach in one room never waits on
// another room.
type Hub struct {
	rooms      sync.Map // roomID -> *roomMembers
	queueLimit int
}

func NewHub(queueLimit int) *Hub {
	return &Hub{queueLimit: queueLimit}
}

// Attach returns the queue of clientID in roomID, creating the room entry
// and the queue on first use. Re-attaching returns the same queue and
// counts one more session on it; each Attach is paired with a Release.
func (h *Hub) Attach(roomID, clientID string) *Queue {
	for {
		v, _ := h.rooms.LoadOrStore(roomID, newRoomMembers())
		m := v.(*roomMembers)

		m.mu.Lock()
		if m.dead {
			// emptied and unlinked concurrently; take a fresh entry
			m.mu.Unlock()
			continue
		}
		a, ok := m.clients[clientID]
		if !ok {
			a = &attachment{q: NewQueue(h.queueLimit)}
			m.clients[clientID] = a
			metrics.ClientsAttached.Inc()
			zap.L().Debug("hub.attach",
				zap.String("room", roomID),
				zap.String("client", clientID),
				zap.Int("clients", len(m.clients)),
			)
		}
		a.refs++
		q := a.q
		m.mu.Unlock()
		return q
	}
}

// Release ends one session on q. The queue is removed and closed when the
// last session on it is released.
func (h *Hub) Release(roomID, clientID string, q *Queue) {
	h.remove(roomID, clientID, q, false)
}

// Detach removes clientID from roomID whatever queue it holds and however
// many sessions read it. It is a no-op when the client is not attached.
func (h *Hub) Detach(roomID, clientID string) {
	h.remove(roomID, clientID, nil, true)
}

// DetachQueue force-removes clientID only while it is still bound to q, so
// pruning a stale queue never drops one that a newer attach now owns.
func (h *Hub) DetachQueue(roomID, clientID string, q *Queue) {
	h.remove(roomID, clientID, q, true)
}

func (h *Hub) remove(roomID, clientID string, want *Queue, force bool) {
	v, ok := h.rooms.Load(roomID)
	if !ok {
		return
	}
	m := v.(*roomMembers)

	m.mu.Lock()
	a, ok := m.clients[clientID]
	if !ok || (want != nil && a.q != want) {
		m.mu.Unlock()
		return
	}
	if !force {
		a.refs--
		if a.refs > 0 {
			m.mu.Unlock()
			return
		}
	}
	delete(m.clients, clientID)
	left := len(m.clients)
	if left == 0 {
		m.dead = true
		h.rooms.CompareAndDelete(roomID, m)
	}
	m.mu.Unlock()

	a.q.Close()
	metrics.ClientsAttached.Dec()
	zap.L().Debug("hub.detach",
		zap.String("room", roomID),
		zap.String("client", clientID),
		zap.Int("clients", left),
	)
}

// Broadcast pushes ev onto every queue attached to roomID. Queues that
// refuse the event are detached once the sweep is over.
func (h *Hub) Broadcast(roomID string, ev events.Event) {
	metrics.EventsBroadcast.WithLabelValues(ev.Type).Inc()

	v, ok := h.rooms.Load(roomID)
	if !ok {
		return
	}
	members := v.(*roomMembers).snapshot()
	if len(members) == 0 {
		return
	}

	for _, m := range broadcast(members, ev) {
		metrics.DeliveryFailures.Inc()
		zap.L().Info("hub.drop_stale_client",
			zap.String("room", roomID),
			zap.String("client", m.id),
		)
		h.DetachQueue(roomID, m.id, m.q)
	}
}

// HasClients reports whether any queue is attached to roomID.
func (h *Hub) HasClients(roomID string) bool {
	v, ok := h.rooms.Load(roomID)
	return ok && v.(*roomMembers).len() > 0
}

// Clients lists the client ids attached to roomID.
func (h *Hub) Clients(roomID string) []string {
	v, ok := h.rooms.Load(roomID)
	if !ok {
		return nil
	}
	members := v.(*roomMembers).snapshot()
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.id)
	}
	return ids
}

// Stats returns the number of rooms with attached clients and the total
// number of attached clients.
func (h *Hub) Stats() (rooms, clients int) {
	h.rooms.Range(func(_, v any) bool {
		if n := v.(*roomMembers).len(); n > 0 {
			rooms++
			clients += n
		}
		return true
	})
	return rooms, clients
}
