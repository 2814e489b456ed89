package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// FramesCaptured counts total frames received from a source.
	FramesCaptured = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zizzaniad",
			Name:      "frames_captured_total",
			Help:      "Total number of frames received from a capture source",
		},
		[]string{"interface"},
	)

	// FramesSkipped counts frames the parser discarded before they ever
	// reached the recognizer (wrong direction, broadcast, too short).
	FramesSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zizzaniad",
			Name:      "frames_skipped_total",
			Help:      "Total number of frames discarded by the frame parser",
		},
		[]string{"interface"},
	)

	// NewClientsTotal counts ZZ_NEW_CLIENT events emitted by the recognizer.
	NewClientsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zizzaniad",
			Name:      "new_clients_total",
			Help:      "Total number of new-client events emitted",
		},
		[]string{"bssid"},
	)

	// HandshakesTotal counts completed 4-way handshakes.
	HandshakesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zizzaniad",
			Name:      "handshakes_total",
			Help:      "Total number of completed 4-way handshakes",
		},
		[]string{"bssid"},
	)

	// DispatcherErrorsTotal counts dispatcher write failures, each of which
	// halts the recognizer.
	DispatcherErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "zizzaniad",
			Name:      "dispatcher_errors_total",
			Help:      "Total number of dispatcher write failures",
		},
	)

	// TargetsKnown reports the current number of registered targets.
	TargetsKnown = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "zizzaniad",
			Name:      "targets_known",
			Help:      "Number of targets currently tracked",
		},
	)

	once sync.Once
)

// InitMetrics registers all metrics with the global Prometheus registry.
// Idempotent: safe to call multiple times.
func InitMetrics() {
	once.Do(func() {
		prometheus.DefaultRegisterer.Register(FramesCaptured)
		prometheus.DefaultRegisterer.Register(FramesSkipped)
		prometheus.DefaultRegisterer.Register(NewClientsTotal)
		prometheus.DefaultRegisterer.Register(HandshakesTotal)
		prometheus.DefaultRegisterer.Register(DispatcherErrorsTotal)
		prometheus.DefaultRegisterer.Register(TargetsKnown)
	})
}
