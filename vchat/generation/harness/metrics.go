package harness

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ZanzyTHEbar/vchat/vchat/generation"
)

// Metrics counts exchanges per backend and outcome.
type Metrics struct {
	Exchanges *prometheus.CounterVec
	Latency   *prometheus.HistogramVec
	Rejected  *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg when it is
// non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Exchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vchat",
			Name:      "exchanges_total",
			Help:      "Completed exchanges by backend and outcome.",
		}, []string{"backend", "outcome"}),
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vchat",
			Name:      "exchange_duration_seconds",
			Help:      "Wall time from submit to reply, placeholders included.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"backend"}),
		Rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vchat",
			Name:      "submits_rejected_total",
			Help:      "Submits ignored without calling the backend.",
		}, []string{"reason"}),
	}
	if reg != nil {
		reg.MustRegister(m.Exchanges, m.Latency, m.Rejected)
	}
	return m
}

func (m *Metrics) observe(kind generation.Kind, err error, d time.Duration) {
	if m == nil {
		return
	}
	m.Exchanges.WithLabelValues(string(kind), Outcome(err)).Inc()
	m.Latency.WithLabelValues(string(kind)).Observe(d.Seconds())
}

func (m *Metrics) reject(reason string) {
	if m == nil {
		return
	}
	m.Rejected.WithLabelValues(reason).Inc()
}

// Outcome labels an exchange result.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, generation.ErrTransport):
		return "transport"
	case errors.Is(err, generation.ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, generation.ErrMissingField):
		return "missing_field"
	default:
		return "error"
	}
}
