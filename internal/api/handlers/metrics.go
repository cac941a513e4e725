package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"synapselab/internal/engine/registration"
)

// Metrics owns a dedicated registry so tests can build as many as they need.
type Metrics struct {
	registry      *prometheus.Registry
	registrations *prometheus.CounterVec
	duration      prometheus.Histogram
	notifications *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		registrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "synapselab_registrations_total",
				Help: "Registration attempts by outcome",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "synapselab_registration_duration_seconds",
			Help:    "Time spent handling a registration, hashing and notification included",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "synapselab_welcome_notifications_total",
				Help: "Welcome emails by delivery result",
			},
			[]string{"result"},
		),
	}

	m.registry.MustRegister(
		m.registrations,
		m.duration,
		m.notifications,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRegistration records one finished registration. A nil result means
// the registration failed with err.
func (m *Metrics) ObserveRegistration(result *registration.Result, err error, elapsed time.Duration) {
	m.duration.Observe(elapsed.Seconds())

	if err != nil {
		m.registrations.WithLabelValues(strings.ToLower(string(registration.KindOf(err)))).Inc()
		return
	}

	m.registrations.WithLabelValues("success").Inc()
	if result.Notified() {
		m.notifications.WithLabelValues("sent").Inc()
	} else {
		m.notifications.WithLabelValues("failed").Inc()
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
