package metrics

import (
	"net/http"

	"github.com/0xpablo/slackkit/pkg/domain/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "slackkit"

var states = []types.ConnState{
	types.ConnStateDisconnected,
	types.ConnStateConnecting,
	types.ConnStateConnected,
	types.ConnStateReconnecting,
}

// Registry exports connection counters to Prometheus. It satisfies
// usecase.Metrics.
type Registry struct {
	registry *prometheus.Registry

	frames  *prometheus.CounterVec
	decode  *prometheus.CounterVec
	applied *prometheus.CounterVec
	skipped *prometheus.CounterVec
	state   *prometheus.GaugeVec
	pending prometheus.Gauge
}

func New() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_received_total",
			Help:      "Decoded inbound frames by event type.",
		}, []string{"type"}),
		decode: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_failures_total",
			Help:      "Inbound frames dropped by the decoder.",
		}, []string{"reason"}),
		applied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_applied_total",
			Help:      "Events applied to the replica.",
		}, []string{"type"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_skipped_total",
			Help:      "Events skipped because a referenced entity was missing.",
		}, []string{"type"}),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connection_state",
			Help:      "1 for the current connection state, 0 otherwise.",
		}, []string{"state"}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_requests",
			Help:      "Outbound messages and pings waiting for a reply.",
		}),
	}

	r.registry.MustRegister(
		r.frames, r.decode, r.applied, r.skipped, r.state, r.pending,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	r.StateChanged(types.ConnStateDisconnected)
	return r
}

// Handler serves the registry in the exposition format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Gatherer exposes the underlying registry, mostly for tests
func (r *Registry) Gatherer() prometheus.Gatherer { return r.registry }

func (r *Registry) FrameReceived(eventType string) { r.frames.WithLabelValues(eventType).Inc() }
func (r *Registry) DecodeFailed(reason string)     { r.decode.WithLabelValues(reason).Inc() }
func (r *Registry) EventApplied(eventType string)  { r.applied.WithLabelValues(eventType).Inc() }
func (r *Registry) EventSkipped(eventType string)  { r.skipped.WithLabelValues(eventType).Inc() }
func (r *Registry) PendingChanged(n int)           { r.pending.Set(float64(n)) }

func (r *Registry) StateChanged(state types.ConnState) {
	for _, s := range states {
		v := 0.0
		if s == state {
			v = 1
		}
		r.state.WithLabelValues(s.String()).Set(v)
	}
}
