// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "campusfest"

var (
	RegistrationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Registrations created, by program type.",
	}, []string{"program_type"})

	RegistrationTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registration_transitions_total",
		Help:      "Registration status changes, by target status.",
	}, []string{"status"})

	ScoresSubmittedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scores_submitted_total",
		Help:      "Judge scores stored, including overwrites.",
	})

	RecomputeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "recompute_duration_seconds",
		Help:      "Time spent aggregating a program's scores.",
		Buckets:   prometheus.DefBuckets,
	})

	NotificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Notification deliveries, by channel, kind and outcome.",
	}, []string{"channel", "kind", "outcome"})

	NotificationsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_dropped_total",
		Help:      "Notifications discarded because the queue was full or closed.",
	}, []string{"kind"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency, by method, route pattern and status code.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

func all() []prometheus.Collector {
	return []prometheus.Collector{
		RegistrationsTotal,
		RegistrationTransitionsTotal,
		ScoresSubmittedTotal,
		RecomputeDuration,
		NotificationsTotal,
		NotificationsDropped,
		HTTPRequestDuration,
	}
}

// NewRegistry returns a registry holding the application collectors plus the
// Go runtime and process collectors
func NewRegistry() (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		return nil, err
	}
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}
	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, err
	}
	return reg, nil
}

// Register adds the application collectors to r; already registered collectors are ignored
func Register(r prometheus.Registerer) error {
	for _, c := range all() {
		if err := r.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return err
		}
	}
	return nil
}

// Handler serves the registry in the Prometheus exposition format
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
