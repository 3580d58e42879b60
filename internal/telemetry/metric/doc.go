// Package metric exposes application metrics in Prometheus format.
//
// A single Registry carries every instrument the services touch:
// backup outcomes and latency, retention evictions, debounce
// collapses, copy channel failures, restore outcomes, and the HTTP
// request counters the middleware feeds. The registry also collects
// Go runtime and process metrics. Handler returns the /metrics
// endpoint.
package metric
