// Package metrics exposes the coordinator's Prometheus collectors.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "tunetrivia"

// Rejection reasons.
const (
	ReasonNotHost        = "not_host"
	ReasonRoomNotFound   = "room_not_found"
	ReasonRoomFull       = "room_full"
	ReasonNameTaken      = "name_taken"
	ReasonRoomExists     = "room_exists"
	ReasonInvalid        = "invalid_payload"
	ReasonRateLimited    = "rate_limited"
	ReasonOutboxOverflow = "outbox_overflow"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	rooms       prometheus.Gauge
	connections prometheus.Gauge
	events      *prometheus.CounterVec
	rejections  *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		rooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rooms_active",
			Help:      "Rooms currently held in memory.",
		}),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Open websocket connections.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Client events handled, by event name.",
		}, []string{"event"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_rejections_total",
			Help:      "Client events rejected, by reason.",
		}, []string{"reason"}),
	}
	reg.MustRegister(m.rooms, m.connections, m.events, m.rejections)
	return m
}

func (m *Metrics) SetRooms(n int) {
	if m == nil {
		return
	}
	m.rooms.Set(float64(n))
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

func (m *Metrics) Event(name string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(name).Inc()
}

func (m *Metrics) Rejected(reason string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(reason).Inc()
}
