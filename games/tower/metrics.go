/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package tower

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tumble"

type Metrics struct {
	roomsActive   prometheus.Gauge
	roomsCreated  prometheus.Counter
	roomsExpired  prometheus.Counter
	connections   prometheus.Gauge
	actions       *prometheus.CounterVec
	contentShared prometheus.Counter
	droppedFrames prometheus.Counter
}

// NewMetrics registers the room collectors on reg. Tests pass a fresh
// prometheus.NewRegistry() so counters never leak between cases.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		roomsActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rooms_active",
			Help:      "Rooms currently held in the registry.",
		}),
		roomsCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rooms_created_total",
			Help:      "Rooms created since start.",
		}),
		roomsExpired: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rooms_expired_total",
			Help:      "Rooms removed by the expiry sweep.",
		}),
		connections: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Open websocket connections.",
		}),
		actions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Block removal requests by outcome.",
		}, []string{"result"}),
		contentShared: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "content_shared_total",
			Help:      "Questions relayed to rooms.",
		}),
		droppedFrames: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_frames_total",
			Help:      "Inbound frames discarded as malformed.",
		}),
	}
}
