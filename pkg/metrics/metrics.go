// Package metrics provides the centralized Prometheus metrics registry for
// the BDTD client. All metrics are defined in their respective packages
// (client, cache, ratelimit) to maintain modularity and avoid circular
// dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the BDTD client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Interval Gate Metrics (pkg/ratelimit):
//   - bdtd_gate_wait_seconds (Histogram): Time spent waiting for the interval gate
//   - bdtd_gate_permits_total (Counter): Requests permitted through the gate
//
// Cache Metrics (pkg/cache):
//   - bdtd_cache_hits_total{layer="redis"} (Counter): Cache hits by layer
//   - bdtd_cache_misses_total (Counter): Cache misses
//   - bdtd_cache_size_bytes{layer="redis"} (Gauge): Current cache size in bytes
//   - bdtd_cache_errors_total{operation} (Counter): Cache operation errors
//
// Request Metrics (pkg/client):
//   - bdtd_requests_total{status} (Counter): Total requests by HTTP status
//   - bdtd_request_duration_seconds (Histogram): Request duration
//   - bdtd_errors_total{class} (Counter): Errors by class (client, server, network)
//
// Retry Metrics (pkg/client):
//   - bdtd_retries_total{error_class} (Counter): Retry attempts by error class
//   - bdtd_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(bdtd_cache_hits_total[5m])) /
//   (sum(rate(bdtd_cache_hits_total[5m])) + sum(rate(bdtd_cache_misses_total[5m])))
//
//   # Request Error Rate
//   rate(bdtd_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(bdtd_request_duration_seconds_bucket[5m]))
//
//   # Gate Pressure
//   histogram_quantile(0.95, rate(bdtd_gate_wait_seconds_bucket[5m]))
