package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jlaasanen/strand/pkg/api"
)

// Metrics holds the Prometheus collectors shared by instrumented
// primitives: an invocation counter and an error counter (labelled by
// primitive name, errors additionally by kind), plus a latency histogram.
type Metrics struct {
	invocations *prometheus.CounterVec
	errors      *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

// NewMetrics creates and registers the collectors on reg. A nil registerer
// leaves the collectors unregistered but still usable, which keeps tests
// simple.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "strand",
			Name:      "primitive_invocations_total",
			Help:      "Number of primitive Execute calls.",
		}, []string{"primitive"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "strand",
			Name:      "primitive_errors_total",
			Help:      "Number of primitive Execute calls that returned an error.",
		}, []string{"primitive", "kind"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "strand",
			Name:      "primitive_duration_seconds",
			Help:      "Latency of primitive Execute calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"primitive"}),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{m.invocations, m.errors, m.latency} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics) observe(primitive string, err error, d time.Duration) {
	m.invocations.WithLabelValues(primitive).Inc()
	m.latency.WithLabelValues(primitive).Observe(d.Seconds())
	if err != nil {
		m.errors.WithLabelValues(primitive, api.ErrorKind(err)).Inc()
	}
}
