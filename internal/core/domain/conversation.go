// Package domain defines the core domain models for ChatVault.
package domain

import "strings"

// Kind identifies the entity type a conversation belongs to.
type Kind string

const (
	// KindCharacter is a one-on-one conversation with a single character.
	KindCharacter Kind = "character"

	// KindGroup is a conversation with a group of characters.
	KindGroup Kind = "group"
)

// Valid reports whether k is a known conversation kind.
func (k Kind) Valid() bool {
	return k == KindCharacter || k == KindGroup
}

// ConversationIdentity is the stable key identifying one chat thread
// across sessions. It is derived deterministically from the
// (kind, entity, chat) triple: the same triple always yields the same
// identity. It is used as the partition key component of stored backups.
type ConversationIdentity string

// identitySep separates the identity components. Entity and chat IDs
// containing a reserved character are rejected at derivation time:
// the separator so that an identity never collides with one derived
// from a different triple, and the store's key delimiter so that one
// identity is never a key prefix of another.
const (
	identitySep     = ":"
	reservedIDChars = identitySep + "/"
)

// NewConversationIdentity derives the identity for a conversation.
func NewConversationIdentity(kind Kind, entityID, chatID string) (ConversationIdentity, error) {
	if !kind.Valid() {
		return "", ErrInvalidIdentity.WithDetails("unknown kind: " + string(kind))
	}
	if entityID == "" || chatID == "" {
		return "", ErrInvalidIdentity.WithDetails("entity id and chat id are required")
	}
	if strings.ContainsAny(entityID, reservedIDChars) || strings.ContainsAny(chatID, reservedIDChars) {
		return "", ErrInvalidIdentity.WithDetails("entity id and chat id must not contain any of " + reservedIDChars)
	}
	return ConversationIdentity(string(kind) + identitySep + entityID + identitySep + chatID), nil
}

// String returns the identity as a plain string.
func (id ConversationIdentity) String() string {
	return string(id)
}

// Kind returns the entity kind encoded in the identity,
// or an empty Kind if the identity is malformed.
func (id ConversationIdentity) Kind() Kind {
	parts := strings.SplitN(string(id), identitySep, 3)
	if len(parts) != 3 {
		return ""
	}
	k := Kind(parts[0])
	if !k.Valid() {
		return ""
	}
	return k
}

// EntityID returns the entity id encoded in the identity,
// or an empty string if the identity is malformed.
func (id ConversationIdentity) EntityID() string {
	parts := strings.SplitN(string(id), identitySep, 3)
	if len(parts) != 3 {
		return ""
	}
	return parts[1]
}

// ChatID returns the chat id encoded in the identity,
// or an empty string if the identity is malformed.
func (id ConversationIdentity) ChatID() string {
	parts := strings.SplitN(string(id), identitySep, 3)
	if len(parts) != 3 {
		return ""
	}
	return parts[2]
}

// Message is one opaque conversation message. ChatVault preserves all
// message fields verbatim; only the conventional text fields are inspected
// to build display previews.
type Message map[string]any

// textFields are the conventional keys carrying the message body,
// probed in order.
var textFields = []string{"text", "mes", "content"}

// Text returns the message body, or an empty string when no
// conventional text field is present.
func (m Message) Text() string {
	for _, f := range textFields {
		if v, ok := m[f]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}

// Metadata is opaque conversation-level metadata.
type Metadata map[string]any

// Conversation is a point-in-time view of the host's current conversation.
// Messages and Metadata alias live host state; they must be deep-copied
// before being retained in a BackupRecord.
type Conversation struct {
	Kind     Kind      `json:"kind"`
	EntityID string    `json:"entity_id"`
	ChatID   string    `json:"chat_id"`
	Messages []Message `json:"messages"`
	Metadata Metadata  `json:"metadata,omitempty"`
}

// Identity derives the ConversationIdentity for this conversation.
func (c *Conversation) Identity() (ConversationIdentity, error) {
	return NewConversationIdentity(c.Kind, c.EntityID, c.ChatID)
}

// Empty reports whether the conversation has no messages.
func (c *Conversation) Empty() bool {
	return len(c.Messages) == 0
}
