// Package shutdown coordinates graceful process termination.
//
// A Handler waits for SIGINT or SIGTERM (or a programmatic Trigger)
// and then runs registered cleanup hooks in reverse registration
// order under a single timeout, so the HTTP server drains before the
// services stop and the store closes last.
package shutdown
