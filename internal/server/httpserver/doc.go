// Package httpserver provides the HTTP/HTTPS server for ChatVault.
//
// It exposes the event ingestion endpoint the host pushes to, the
// backup management API the CLI talks to, and the operational
// endpoints (health, readiness, Prometheus metrics). Routing uses the
// standard library net/http mux; cross-cutting concerns are applied
// as middleware.
package httpserver
