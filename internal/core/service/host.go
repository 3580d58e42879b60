package service

import (
	"context"

	"github.com/chatvault/chatvault-go/internal/core/domain"
	"github.com/chatvault/chatvault-go/internal/deepcopy"
)

// Host is the boundary to the chat application ChatVault protects.
//
// The first five operations are required. The remaining ones are
// optional capabilities: a host that lacks one returns
// domain.ErrNotSupported and callers degrade instead of failing.
type Host interface {
	// CurrentConversation returns the conversation currently open in
	// the host, or nil when none is selected.
	CurrentConversation(ctx context.Context) (*domain.Conversation, error)

	// ResolveEntityName returns the display name for an entity.
	ResolveEntityName(ctx context.Context, kind domain.Kind, entityID string) (string, error)

	// SelectEntity makes the entity the host's active selection.
	SelectEntity(ctx context.Context, kind domain.Kind, entityID string) error

	// NewConversation starts a fresh, empty conversation under the
	// currently selected entity.
	NewConversation(ctx context.Context) error

	// ReplaceMessages replaces the current conversation's message
	// sequence, preserving all message fields.
	ReplaceMessages(ctx context.Context, messages []domain.Message) error

	// ApplyMetadata overwrites the current conversation's metadata.
	// Optional capability.
	ApplyMetadata(ctx context.Context, metadata domain.Metadata) error

	// SaveConversation persists the current conversation in the host.
	// Optional capability.
	SaveConversation(ctx context.Context) error

	// NotifyConversationLoaded tells the host's views that the current
	// conversation was replaced. Optional capability.
	NotifyConversationLoaded(ctx context.Context) error

	// NotifyBackupListChanged asks the host to refresh its backup
	// listing. Optional capability.
	NotifyBackupListChanged(ctx context.Context) error
}

// Copier is the deep-copy boundary the backup workflow sends live
// conversation state through. deepcopy.Channel is the production
// implementation; deepcopy.Inline serves degraded mode.
type Copier interface {
	Copy(ctx context.Context, messages []domain.Message, metadata domain.Metadata) (*deepcopy.Result, error)
}

// RecreatableCopier is a Copier that fails closed on a channel-level
// fault and can rebuild its worker. The backup workflow recreates a
// failed copier and retries once, so a worker panic costs at most one
// attempt instead of every backup until process restart.
type RecreatableCopier interface {
	Copier

	// Failed reports whether the copier needs recreation.
	Failed() bool

	// Recreate rebuilds the worker after a failure.
	Recreate()
}
