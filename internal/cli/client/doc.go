// Package client is the HTTP client chatvault-cli uses to talk to the
// chatvault-server management API. It unwraps the server's JSON
// response envelope and turns error envelopes into Go errors carrying
// the server's error code.
package client
