// Package domain defines the core domain models for ChatVault.
//
// Domain models are pure value objects without any IO dependencies
// or framework coupling. This package contains:
//
//   - ConversationIdentity: stable key identifying one chat thread
//   - Conversation: a point-in-time view of a live conversation
//   - BackupRecord: one stored snapshot of a conversation
//   - TriggerPolicy: mapping from domain events to backup trigger classes
//   - Errors: domain-specific error definitions
package domain
