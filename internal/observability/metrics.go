// Package observability exposes request and rotation counters to
// Prometheus.
package observability

import (
	"time"

	"codeberg.org/mutker/hwoled/internal/gamesense"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hwoled"

type Metrics struct {
	requests   *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	frames     *prometheus.CounterVec
	tickErrors prometheus.Counter
	activeView *prometheus.GaugeVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Requests sent to the display service, by endpoint and result.",
		}, []string{"endpoint", "result"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Round trip time of display service requests.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"endpoint"}),
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_dispatched_total",
			Help:      "Frames handed to the event manager, by view.",
		}, []string{"view"}),
		tickErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tick_errors_total",
			Help:      "Ticks that produced no frame.",
		}),
		activeView: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_view",
			Help:      "1 for the view currently on the display.",
		}, []string{"view"}),
	}

	reg.MustRegister(m.requests, m.latency, m.frames, m.tickErrors, m.activeView)

	return m
}

// ObserveRequest implements gamesense.Observer.
func (m *Metrics) ObserveRequest(endpoint gamesense.Endpoint, err error, elapsed time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.requests.WithLabelValues(string(endpoint), result).Inc()
	m.latency.WithLabelValues(string(endpoint)).Observe(elapsed.Seconds())
}

func (m *Metrics) FrameDispatched(view string) {
	m.frames.WithLabelValues(view).Inc()
	m.activeView.Reset()
	m.activeView.WithLabelValues(view).Set(1)
}

func (m *Metrics) TickFailed(error) {
	m.tickErrors.Inc()
}
