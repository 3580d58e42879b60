// Package cmap provides a concurrent-safe sharded map.
//
// Sharding spreads lock contention across independent buckets, which
// performs better than a single mutex-guarded map under concurrent
// access from multiple workflows.
package cmap
