// Package host adapts a chat application into the service.Host
// boundary over HTTP webhooks.
//
// The flow is asymmetric. On the backup side the host pushes its state
// to ChatVault: every event delivery carries the current conversation,
// which the Webhook caches and serves from memory, so taking a backup
// never calls back into the host. On the restore side the Webhook
// drives the host actively, posting JSON commands to the host's
// callback listener.
//
// Required restore operations use fixed paths under the callback URL.
// Optional capabilities are configured paths; a capability with no
// configured path reports domain.ErrNotSupported and callers degrade.
package host
