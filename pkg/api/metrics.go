package api

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the client's Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "sweetshop").
	Namespace string

	// Buckets are the histogram buckets for request duration.
	// Default: prometheus.DefBuckets.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// metrics holds the Prometheus collectors shared by all Clients.
type clientMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

var (
	globalMetrics     *clientMetrics
	globalMetricsOnce sync.Once
)

// defaultMetricsConfig returns the default metrics configuration.
func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "sweetshop",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// initMetrics registers the collectors with the configured registry.
func initMetrics(config MetricsConfig) *clientMetrics {
	factory := promauto.With(config.Registry)

	return &clientMetrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of backend API requests by operation and outcome",
		}, []string{"operation", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Backend API request duration in seconds",
			Buckets:   config.Buckets,
		}, []string{"operation"}),
	}
}

// sharedMetrics returns the process-wide client metrics, initializing
// them on first use.
func sharedMetrics() *clientMetrics {
	globalMetricsOnce.Do(func() {
		globalMetrics = initMetrics(defaultMetricsConfig())
	})
	return globalMetrics
}
