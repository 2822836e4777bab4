// Package metrics exposes prometheus collectors for the relay.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "chatrelay"

// Metrics groups the relay collectors.
type Metrics struct {
	Sessions  prometheus.Gauge
	Rooms     prometheus.Gauge
	Inbound   *prometheus.CounterVec
	Outbound  *prometheus.CounterVec
	Failures  *prometheus.CounterVec
	Refused   *prometheus.CounterVec
	Evictions prometheus.Counter
}

// New creates the collectors and registers them with reg. A nil reg
// creates unregistered collectors.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Sessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions",
			Help:      "Live authenticated sessions.",
		}),
		Rooms: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rooms",
			Help:      "Conversation rooms with at least one joined session.",
		}),
		Inbound: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbound_events_total",
			Help:      "Inbound events accepted from sessions, by event name.",
		}, []string{"event"}),
		Outbound: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbound_events_total",
			Help:      "Outbound event deliveries enqueued to sessions, by event name.",
		}, []string{"event"}),
		Failures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Scoped operation failures, by kind.",
		}, []string{"kind"}),
		Refused: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refused_connections_total",
			Help:      "Connection attempts refused before upgrade, by reason.",
		}, []string{"reason"}),
		Evictions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evicted_sessions_total",
			Help:      "Sessions dropped because their send buffer was full.",
		}),
	}
}
