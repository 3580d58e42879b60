// Package adaptive provides authenticated encryption for backup
// payloads at rest.
//
// It selects the cipher from hardware capabilities:
//
//   - AES-256-GCM where AES instructions are available
//   - ChaCha20-Poly1305 otherwise
//
// Keys are either raw 32-byte keys or derived from an operator
// passphrase with HKDF-SHA256. All cipher operations are safe for
// concurrent use.
package adaptive
