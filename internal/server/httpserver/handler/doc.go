// Package handler implements the HTTP API endpoints: event ingestion
// from the host, backup management for the CLI, and restore.
//
// All JSON responses use the standard envelope in types.go, except
// /metrics which uses the Prometheus exposition format.
package handler
