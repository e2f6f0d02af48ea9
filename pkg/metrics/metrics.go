// Package metrics exposes the Prometheus registry shared by the gateway.
// Collectors are defined next to the code they measure (client, pagination,
// gateway) and registered through promauto on the default registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer every collector is added to.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the source scraped by Handler.
var Gatherer = prometheus.DefaultGatherer

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.InstrumentMetricHandler(Registry, promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{}))
}

// Metrics Documentation
//
// Upstream Metrics (pkg/client):
//   - swapi_upstream_requests_total{resource, status} (Counter): Attempts by resource and HTTP status or error class
//   - swapi_upstream_request_duration_seconds{resource} (Histogram): Request duration, retries included
//   - swapi_upstream_errors_total{class} (Counter): Failed attempts by class (timeout, connection, client, server, other)
//
// Retry Metrics (pkg/client):
//   - swapi_upstream_retries_total{error_class} (Counter): Retries by error class
//   - swapi_upstream_retry_backoff_seconds (Histogram): Backoff waited before a retry
//   - swapi_upstream_retry_exhausted_total{error_class} (Counter): Requests that used every attempt
//
// Pagination Metrics (pkg/pagination):
//   - swapi_pages_fetched_total{resource} (Counter): Listing pages fetched
//   - swapi_partial_walks_total{reason} (Counter): Walks stopped early (page_failed, max_pages, cycle)
//
// Gateway Metrics (pkg/gateway):
//   - swapi_gateway_requests_total{route, status} (Counter): Inbound requests by route pattern and status
//   - swapi_gateway_request_duration_seconds{route} (Histogram): Inbound request duration
//
// Example Prometheus Queries:
//
//   # Upstream error rate by class
//   sum by (class) (rate(swapi_upstream_errors_total[5m]))
//
//   # Share of walks returning partial results
//   sum(rate(swapi_partial_walks_total[5m])) /
//   sum(rate(swapi_gateway_requests_total{route="/explorar"}[5m]))
//
//   # P95 gateway latency
//   histogram_quantile(0.95, sum by (le) (rate(swapi_gateway_request_duration_seconds_bucket[5m])))
//
//   # 502 rate
//   sum(rate(swapi_gateway_requests_total{status="502"}[5m]))
