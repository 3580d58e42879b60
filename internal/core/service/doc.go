// Package service contains the backup domain services.
//
// Services orchestrate operations on domain models and define the
// interfaces for their dependencies, allowing for injection and
// testability:
//
//   - BackupService: the backup workflow (dedup, write, retention),
//     listing and deletion
//   - RestoreService: the sequential restore state machine
//   - Debouncer: collapses bursts of debounced triggers into one
//     delayed execution
//   - Dispatcher: classifies host events and routes them to the
//     backup workflow
//
// Services are safe for concurrent use.
package service
