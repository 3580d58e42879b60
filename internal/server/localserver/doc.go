// Package localserver serves the API on a Unix domain socket.
//
// The socket carries the same HTTP handler as the TCP listener and is
// meant for local management access: operators and on-box tooling can
// hit the API without opening a network port. Access control is the
// socket file's permissions.
package localserver
