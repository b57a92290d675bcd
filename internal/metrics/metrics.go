// Package metrics defines the service's Prometheus metrics in a standalone
// package to avoid import cycles between the HTTP and service layers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	LocationsIngested = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "locations_ingested_total",
		Help: "Location samples accepted and persisted",
	})

	AuthFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_failures_total",
		Help: "Rejected authentications by principal kind",
	}, []string{"kind"})

	RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by route and status",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// Register registers all metrics on the given registry (default when nil).
// Re-registration is tolerated so tests can build multiple handlers.
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{LocationsIngested, AuthFailures, RequestDuration} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
