// Package tlsroots builds the trust pool for outbound TLS.
//
// Hosts often expose their callback listener behind a self-signed or
// privately-issued certificate. This package loads the system roots
// and layers custom CA certificates on top, producing the tls.Config
// the webhook client dials with.
package tlsroots
