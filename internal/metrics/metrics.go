// Package metrics exposes Prometheus collectors for reservation admission,
// feedback and HTTP traffic.  A nil *Manager is valid and records nothing,
// which keeps call sites free of nil checks.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns the collectors and the registry they are registered on.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	reservationsAdmitted  *prometheus.CounterVec
	reservationsRejected  *prometheus.CounterVec
	reservationsConfirmed prometheus.Counter
	reservationsCancelled prometheus.Counter
	ratingsSubmitted      *prometheus.CounterVec
	reportsSubmitted      *prometheus.CounterVec
	storageRetries        prometheus.Counter

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// NewManager creates the collectors on a dedicated registry so that tests
// can build as many managers as they like.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "attendance",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.init()
	return m
}

func (m *Manager) init() {
	auto := promauto.With(m.registry)

	m.reservationsAdmitted = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "reservations",
		Name:      "admitted_total",
		Help:      "Reservation requests written, by requested status",
	}, []string{"status"})
	m.reservationsRejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "reservations",
		Name:      "rejected_total",
		Help:      "Reservation requests refused, by reason",
	}, []string{"reason"})
	m.reservationsConfirmed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "reservations",
		Name:      "confirmed_total",
		Help:      "Reservations confirmed by event owners",
	})
	m.reservationsCancelled = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "reservations",
		Name:      "cancelled_total",
		Help:      "Reservations removed by their participant",
	})
	m.ratingsSubmitted = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "feedback",
		Name:      "ratings_total",
		Help:      "Ratings stored, split into created and overwritten",
	}, []string{"outcome"})
	m.reportsSubmitted = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "feedback",
		Name:      "reports_total",
		Help:      "Reports filed, by target kind",
	}, []string{"target"})
	m.storageRetries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "storage",
		Name:      "retries_total",
		Help:      "Storage operations retried after a connectivity fault",
	})
	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, route and status code",
	}, []string{"method", "route", "code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   m.histogramBuckets,
	}, []string{"method", "route"})
}

// Registry returns the registry holding every collector.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Manager) ReservationAdmitted(status string) {
	if m == nil {
		return
	}
	m.reservationsAdmitted.WithLabelValues(status).Inc()
}

func (m *Manager) ReservationRejected(reason string) {
	if m == nil {
		return
	}
	m.reservationsRejected.WithLabelValues(reason).Inc()
}

func (m *Manager) ReservationConfirmed() {
	if m == nil {
		return
	}
	m.reservationsConfirmed.Inc()
}

func (m *Manager) ReservationCancelled() {
	if m == nil {
		return
	}
	m.reservationsCancelled.Inc()
}

func (m *Manager) RatingSubmitted(created bool) {
	if m == nil {
		return
	}
	outcome := "updated"
	if created {
		outcome = "created"
	}
	m.ratingsSubmitted.WithLabelValues(outcome).Inc()
}

func (m *Manager) ReportSubmitted(target string) {
	if m == nil {
		return
	}
	m.reportsSubmitted.WithLabelValues(target).Inc()
}

func (m *Manager) StorageRetry() {
	if m == nil {
		return
	}
	m.storageRetries.Inc()
}

// ObserveHTTP records one finished request.
func (m *Manager) ObserveHTTP(method, route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
