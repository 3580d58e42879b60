package handler

import (
	"encoding/json"
	"net/http"

	"github.com/chatvault/chatvault-go/internal/core/domain"
)

// handleEvents handles POST /v1/events.
//
// Ingestion is two-phase: first the pushed conversation state replaces
// the webhook cache, then the event classifies and dispatches. The
// order matters: an immediate backup must see the state that came with
// its own event.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "CV-CORE-4000", "invalid request body: "+err.Error())
		return
	}
	if req.Event == "" {
		h.writeError(w, r, http.StatusBadRequest, "CV-CORE-4000", "event is required")
		return
	}

	if h.webhook != nil {
		h.webhook.SetConversation(req.Conversation.toDomain())
		for _, n := range req.EntityNames {
			h.webhook.CacheEntityName(domain.Kind(n.Kind), n.EntityID, n.Name)
		}
	}

	class := h.dispatcher.Dispatch(r.Context(), domain.EventType(req.Event))

	h.writeJSON(w, r, http.StatusAccepted, EventResponse{
		Event: req.Event,
		Class: string(class),
	})
}

// toDomain converts the pushed payload to the domain conversation.
// A nil payload means no conversation is open.
func (p *ConversationPayload) toDomain() *domain.Conversation {
	if p == nil {
		return nil
	}
	return &domain.Conversation{
		Kind:     domain.Kind(p.Kind),
		EntityID: p.EntityID,
		ChatID:   p.ChatID,
		Messages: p.Messages,
		Metadata: p.Metadata,
	}
}
