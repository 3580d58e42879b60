// Package domain defines the core domain models for ChatVault.
package domain

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Record constraints.
const (
	// MaxPreviewLength is the maximum length of LastMessagePreview in runes.
	MaxPreviewLength = 100

	// AttemptIDPrefix is the prefix for backup/restore attempt ids.
	AttemptIDPrefix = "cvat-"
)

// BackupRecord is one stored snapshot of a conversation.
//
// Records are created only by the backup workflow, are never mutated
// after write, and are destroyed only by explicit delete (dedup
// replacement, retention eviction, or user-initiated delete).
// Primary key: (ConversationIdentity, SnapshotTime).
type BackupRecord struct {
	// ConversationIdentity is the partition key component.
	ConversationIdentity ConversationIdentity `json:"conversation_identity"`

	// SnapshotTime is the capture timestamp (Unix milliseconds).
	// It reflects intent-to-backup, not completion time, and is the
	// sort/uniqueness key component.
	SnapshotTime int64 `json:"snapshot_time"`

	// EntityLabel is the display name of the entity, resolved at capture time.
	EntityLabel string `json:"entity_label"`

	// ConversationLabel is the display name of the conversation.
	ConversationLabel string `json:"conversation_label"`

	// LastMessageIndex is the index of the newest message included:
	// the progress marker used for dedup.
	LastMessageIndex int `json:"last_message_index"`

	// LastMessagePreview is the truncated text of the newest message.
	LastMessagePreview string `json:"last_message_preview"`

	// Messages is the full conversation payload, deep-copied at capture.
	Messages []Message `json:"messages"`

	// Metadata is the conversation-level metadata, deep-copied at capture.
	Metadata Metadata `json:"metadata,omitempty"`
}

// Validate checks record integrity before write.
func (r *BackupRecord) Validate() error {
	if r.ConversationIdentity == "" {
		return ErrRecordValidation.WithDetails("conversation identity is required")
	}
	if r.SnapshotTime <= 0 {
		return ErrRecordValidation.WithDetails("snapshot time is required")
	}
	if len(r.Messages) == 0 {
		return ErrRecordValidation.WithDetails("messages must not be empty")
	}
	if r.LastMessageIndex != len(r.Messages)-1 {
		return ErrRecordValidation.WithDetails("last message index does not match payload")
	}
	return nil
}

// Summary returns the record's listing view without the payload.
func (r *BackupRecord) Summary() RecordSummary {
	return RecordSummary{
		ConversationIdentity: r.ConversationIdentity,
		SnapshotTime:         r.SnapshotTime,
		EntityLabel:          r.EntityLabel,
		ConversationLabel:    r.ConversationLabel,
		LastMessageIndex:     r.LastMessageIndex,
		LastMessagePreview:   r.LastMessagePreview,
		MessageCount:         len(r.Messages),
	}
}

// RecordSummary is the payload-free listing view of a BackupRecord.
type RecordSummary struct {
	ConversationIdentity ConversationIdentity `json:"conversation_identity"`
	SnapshotTime         int64                `json:"snapshot_time"`
	EntityLabel          string               `json:"entity_label"`
	ConversationLabel    string               `json:"conversation_label"`
	LastMessageIndex     int                  `json:"last_message_index"`
	LastMessagePreview   string               `json:"last_message_preview"`
	MessageCount         int                  `json:"message_count"`
}

// MakePreview truncates text to MaxPreviewLength runes.
func MakePreview(text string) string {
	runes := []rune(text)
	if len(runes) <= MaxPreviewLength {
		return text
	}
	return string(runes[:MaxPreviewLength])
}

// NewAttemptID generates a correlation id for one backup or restore
// attempt. Format: cvat-{ulid_lowercase}.
func NewAttemptID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", ErrInternal.WithCause(err)
	}
	return AttemptIDPrefix + strings.ToLower(id.String()), nil
}
