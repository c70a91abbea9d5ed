package network

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Directions used for metric labels and recorder calls
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// Drop reasons
const (
	DropUnknown   = "unknown"
	DropUnhandled = "unhandled"
	DropHandler   = "handler_error"
)

var (
	registerOnce sync.Once

	linkMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mirlink",
			Subsystem: "link",
			Name:      "messages_total",
			Help:      "Messages sent and received, by kind name.",
		},
		[]string{"direction", "kind"},
	)
	linkBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mirlink",
			Subsystem: "link",
			Name:      "bytes_total",
			Help:      "Wire bytes sent and received, including framing.",
		},
		[]string{"direction"},
	)
	linkDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mirlink",
			Subsystem: "link",
			Name:      "dropped_total",
			Help:      "Received messages that were not delivered to a handler.",
		},
		[]string{"reason"},
	)
	linkSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "mirlink",
			Subsystem: "link",
			Name:      "sessions",
			Help:      "Currently connected sessions.",
		},
	)
)

// RegisterMetrics registers the link collectors with the default registry.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(linkMessages, linkBytes, linkDropped, linkSessions)
	})
}

func recordTraffic(direction, kind string, n int) {
	RegisterMetrics()
	linkMessages.WithLabelValues(direction, kind).Inc()
	linkBytes.WithLabelValues(direction).Add(float64(n))
}

func recordDrop(reason string) {
	RegisterMetrics()
	linkDropped.WithLabelValues(reason).Inc()
}
