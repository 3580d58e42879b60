// Package domain defines the core domain models for ChatVault.
package domain

import "testing"

func TestDefaultTriggerPolicyClassify(t *testing.T) {
	policy := DefaultTriggerPolicy()

	tests := []struct {
		event EventType
		want  TriggerClass
	}{
		{EventMessageSent, TriggerImmediate},
		{EventGenerationComplete, TriggerImmediate},
		{EventReplySwiped, TriggerImmediate},
		{EventMessageEdited, TriggerDebounced},
		{EventMessageDeleted, TriggerDebounced},
		{EventGroupUpdated, TriggerDebounced},
		{EventConversationChanged, TriggerDebounced},
		{EventType("settings-opened"), TriggerIgnored},
		{EventType(""), TriggerIgnored},
	}

	for _, tt := range tests {
		t.Run(string(tt.event), func(t *testing.T) {
			if got := policy.Classify(tt.event); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.event, got, tt.want)
			}
		})
	}
}

func TestTriggerPolicyIsPure(t *testing.T) {
	policy := DefaultTriggerPolicy()

	// Classification must not mutate the policy.
	before := len(policy)
	policy.Classify(EventType("unknown-event"))
	if len(policy) != before {
		t.Error("Classify mutated the policy map")
	}
}

func TestTriggerPolicyExtensible(t *testing.T) {
	policy := DefaultTriggerPolicy()
	custom := EventType("bookmark-added")
	policy[custom] = TriggerImmediate

	if got := policy.Classify(custom); got != TriggerImmediate {
		t.Errorf("Classify(%q) = %q, want %q", custom, got, TriggerImmediate)
	}
}
