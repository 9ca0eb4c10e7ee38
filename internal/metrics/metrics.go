// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts requests by method, route template and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration observes request latency in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// HTTPInFlight is the number of requests being served right now.
	HTTPInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Number of HTTP requests currently being served",
		},
	)

	// CounterValue is the last count this process read or wrote.
	CounterValue = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "counter_current_value",
			Help: "Most recently observed counter value",
		},
	)

	// CounterIncrements counts increments committed by this process.
	CounterIncrements = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "counter_increments_total",
			Help: "Number of successful increments handled by this process",
		},
	)

	// StoreErrors counts failed store calls by operation.
	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "counter_store_errors_total",
			Help: "Store failures partitioned by operation",
		},
		[]string{"operation"},
	)
)
