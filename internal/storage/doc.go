// Package storage persists backup records.
//
// The primary implementation is BadgerStore, an embedded Badger v3
// database keyed by conversation identity and snapshot time. Records
// for one conversation share a key prefix, so the per-conversation
// listing the retention logic depends on is a single prefix scan in
// key order. Values are JSON, optionally sealed with an adaptive
// AEAD cipher before they touch disk.
//
// MemoryStore implements the same interface in process memory and
// backs tests and degraded operation without a data directory.
package storage
