// Package metrics exposes login counters and latencies to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
)

// Metrics owns a private registry so tests can create as many instances as they need.
type Metrics struct {
	registry *prometheus.Registry
	logins   *prometheus.CounterVec
	duration *prometheus.HistogramVec
	users    prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "miniauth",
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"provider", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "miniauth",
			Name:      "login_duration_seconds",
			Help:      "End-to-end login latency by outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider", "outcome"}),
		users: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "miniauth",
			Name:      "users_created_total",
			Help:      "Users created on first login.",
		}),
	}

	m.registry.MustRegister(
		m.logins,
		m.duration,
		m.users,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveLogin records one finished login attempt
func (m *Metrics) ObserveLogin(provider, outcome string, elapsed time.Duration) {
	m.logins.WithLabelValues(provider, outcome).Inc()
	m.duration.WithLabelValues(provider, outcome).Observe(elapsed.Seconds())
}

// LoginCounter returns the logins_total child for one label pair
func (m *Metrics) LoginCounter(provider, outcome string) prometheus.Counter {
	return m.logins.WithLabelValues(provider, outcome)
}

// ObserveUserCreated counts a first-time subject
func (m *Metrics) ObserveUserCreated() {
	m.users.Inc()
}

// Registry returns the registry backing Handler
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Module provides the metrics registry
var Module = fx.Module("metrics",
	fx.Provide(New),
)
