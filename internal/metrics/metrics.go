// Package metrics defines the Prometheus collectors exported by the chat relay.
//
// All methods are safe to call on a nil *Metrics so components can run
// without instrumentation in tests.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Drop reasons reported on chat_subscribers_dropped_total.
const (
	ReasonClosed   = "closed"
	ReasonOverflow = "overflow"
)

// Metrics groups the relay's collectors.
type Metrics struct {
	connections prometheus.Gauge
	rooms       prometheus.Gauge
	broadcasts  prometheus.Counter
	deliveries  prometheus.Counter
	replayed    prometheus.Counter
	dropped     *prometheus.CounterVec
	ignored     prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		connections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "chat_active_connections",
			Help: "Active websocket connections",
		}),
		rooms: factory.NewGauge(prometheus.GaugeOpts{
			Name: "chat_rooms",
			Help: "Rooms currently present in the registry",
		}),
		broadcasts: factory.NewCounter(prometheus.CounterOpts{
			Name: "chat_messages_broadcast_total",
			Help: "Messages accepted for broadcast into an existing room",
		}),
		deliveries: factory.NewCounter(prometheus.CounterOpts{
			Name: "chat_messages_delivered_total",
			Help: "Messages enqueued onto subscriber queues by broadcasts",
		}),
		replayed: factory.NewCounter(prometheus.CounterOpts{
			Name: "chat_history_replayed_total",
			Help: "History entries replayed to newly joined subscribers",
		}),
		dropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_subscribers_dropped_total",
			Help: "Subscribers removed from a room during broadcast",
		}, []string{"reason"}),
		ignored: factory.NewCounter(prometheus.CounterOpts{
			Name: "chat_frames_ignored_total",
			Help: "Inbound frames ignored as malformed or unknown",
		}),
	}
}

// Handler returns the exposition handler for the given gatherer.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.connections.Inc()
}

func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.connections.Dec()
}

func (m *Metrics) RoomCreated() {
	if m == nil {
		return
	}
	m.rooms.Inc()
}

// MessageBroadcast records one accepted broadcast and the number of queues it reached.
func (m *Metrics) MessageBroadcast(delivered int) {
	if m == nil {
		return
	}
	m.broadcasts.Inc()
	m.deliveries.Add(float64(delivered))
}

func (m *Metrics) HistoryReplayed(n int) {
	if m == nil || n == 0 {
		return
	}
	m.replayed.Add(float64(n))
}

func (m *Metrics) SubscriberDropped(reason string) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(reason).Inc()
}

func (m *Metrics) FrameIgnored() {
	if m == nil {
		return
	}
	m.ignored.Inc()
}
