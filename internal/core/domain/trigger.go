// Package domain defines the core domain models for ChatVault.
package domain

// EventType identifies a domain event emitted by the host.
type EventType string

// Host event identifiers.
const (
	EventMessageSent         EventType = "message-sent"
	EventGenerationComplete  EventType = "generation-complete"
	EventReplySwiped         EventType = "reply-swiped"
	EventMessageEdited       EventType = "message-edited"
	EventMessageDeleted      EventType = "message-deleted"
	EventGroupUpdated        EventType = "group-updated"
	EventConversationChanged EventType = "conversation-changed"
)

// TriggerClass is the backup behavior assigned to a domain event.
type TriggerClass string

const (
	// TriggerImmediate runs a backup right away.
	TriggerImmediate TriggerClass = "immediate"

	// TriggerDebounced runs a backup after a quiet period, collapsing
	// bursts into one execution.
	TriggerDebounced TriggerClass = "debounced"

	// TriggerIgnored does nothing.
	TriggerIgnored TriggerClass = "ignored"
)

// TriggerPolicy maps event identifiers to trigger classes. The mapping is
// data, not code: it is reviewable and extensible without touching the
// backup workflow. Events absent from the policy classify as ignored.
type TriggerPolicy map[EventType]TriggerClass

// Classify returns the trigger class for an event identifier.
// Classification is a pure function of the identifier.
func (p TriggerPolicy) Classify(event EventType) TriggerClass {
	if class, ok := p[event]; ok {
		return class
	}
	return TriggerIgnored
}

// DefaultTriggerPolicy returns the standard event mapping: events that
// finalize a message back up immediately; events that mutate existing
// content back up after the quiet period.
func DefaultTriggerPolicy() TriggerPolicy {
	return TriggerPolicy{
		EventMessageSent:         TriggerImmediate,
		EventGenerationComplete:  TriggerImmediate,
		EventReplySwiped:         TriggerImmediate,
		EventMessageEdited:       TriggerDebounced,
		EventMessageDeleted:      TriggerDebounced,
		EventGroupUpdated:        TriggerDebounced,
		EventConversationChanged: TriggerDebounced,
	}
}
