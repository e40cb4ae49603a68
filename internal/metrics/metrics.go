package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Room metrics
	RoomsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "broadcastmusic_rooms_active",
			Help: "Rooms currently held in the room registry",
		},
	)

	RoomMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcastmusic_room_mutations_total",
			Help: "Room state mutations by operation and outcome",
		},
		[]string{"op", "outcome"},
	)

	RoomsReaped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcastmusic_rooms_reaped_total",
			Help: "Idle rooms removed by the janitor",
		},
	)

	// Fanout metrics
	ClientsAttached = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "broadcastmusic_clients_attached",
			Help: "Client queues currently attached across all rooms",
		},
	)

	EventsBroadcast = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcastmusic_events_broadcast_total",
			Help: "Broadcast calls by event type",
		},
		[]string{"type"},
	)

	DeliveryFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcastmusic_delivery_failures_total",
			Help: "Queue pushes rejected during a broadcast sweep",
		},
	)

	StreamSessions = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "broadcastmusic_stream_sessions",
			Help: "Running stream sessions by transport",
		},
		[]string{"transport"}, // "sse" or "ws"
	)

	// Search metrics
	SearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcastmusic_search_requests_total",
			Help: "Song search requests by outcome",
		},
		[]string{"outcome"}, // "hit", "miss", "error"
	)
)
