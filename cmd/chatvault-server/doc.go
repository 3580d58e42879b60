// Package main provides the entry point for chatvault-server.
//
// The server is the ChatVault backup service:
//
//   - HTTP/HTTPS API for event ingestion and backup management
//   - Badger-backed snapshot store with optional at-rest encryption
//   - Webhook callbacks that replay snapshots into the host
//
// Usage:
//
//	chatvault-server [flags]
//	chatvault-server --config /path/to/config.yaml
//
// The server loads configuration, initializes infrastructure
// components, and starts the HTTP listener.
package main
