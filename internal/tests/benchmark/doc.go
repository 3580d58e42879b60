// Package benchmark provides performance benchmarks for ChatVault.
//
// The suite measures the hot paths of the backup workflow: deep
// copies, record serialization and sealing, and store operations at
// various record counts.
package benchmark
