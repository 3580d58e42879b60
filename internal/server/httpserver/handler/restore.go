package handler

import (
	"encoding/json"
	"net/http"

	"github.com/chatvault/chatvault-go/internal/core/domain"
)

// handleRestore handles POST /v1/backups/restore.
//
// The record is fetched first so a missing key reports 404 instead of
// a generic restore failure.
func (h *Handler) handleRestore(w http.ResponseWriter, r *http.Request) {
	var req RestoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "CV-CORE-4000", "invalid request body: "+err.Error())
		return
	}

	identity := domain.ConversationIdentity(req.ConversationIdentity)
	if identity.Kind() == "" {
		h.writeError(w, r, http.StatusBadRequest, "CV-CONV-4000", "malformed conversation identity")
		return
	}

	record, err := h.backup.Get(r.Context(), identity, req.SnapshotTime)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	if !h.restore.Restore(r.Context(), record) {
		h.writeError(w, r, http.StatusBadGateway, "CV-RSTR-5000", "restore failed; the conversation was not replaced")
		return
	}
	h.writeJSON(w, r, http.StatusOK, RestoreResponse{Restored: true})
}
