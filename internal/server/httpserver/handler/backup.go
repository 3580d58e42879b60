package handler

import (
	"net/http"
	"strconv"

	"github.com/chatvault/chatvault-go/internal/core/domain"
	"github.com/chatvault/chatvault-go/internal/core/service"
)

// handleListBackups handles GET /v1/backups. The optional "identity"
// query parameter narrows the listing to one conversation.
func (h *Handler) handleListBackups(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.backup.List(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	if identity := r.URL.Query().Get("identity"); identity != "" {
		filtered := summaries[:0:0]
		for _, s := range summaries {
			if s.ConversationIdentity == domain.ConversationIdentity(identity) {
				filtered = append(filtered, s)
			}
		}
		summaries = filtered
	}

	h.writeJSON(w, r, http.StatusOK, ListBackupsResponse{
		Items: summaries,
		Total: len(summaries),
	})
}

// handleCreateBackup handles POST /v1/backups, a manual backup of the
// host's current conversation.
func (h *Handler) handleCreateBackup(w http.ResponseWriter, r *http.Request) {
	result, err := h.backup.ManualBackup(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	resp := BackupActionResponse{
		Status:    string(result.Status),
		AttemptID: result.AttemptID,
	}
	status := http.StatusOK
	if result.Status == service.StatusCreated {
		status = http.StatusCreated
		summary := result.Record.Summary()
		resp.Record = &summary
	}
	h.writeJSON(w, r, status, resp)
}

// handleGetBackup handles GET /v1/backups/{identity}/{snapshot_time},
// returning the full record including messages.
func (h *Handler) handleGetBackup(w http.ResponseWriter, r *http.Request) {
	identity, snapshotTime, ok := h.recordKey(w, r)
	if !ok {
		return
	}

	record, err := h.backup.Get(r.Context(), identity, snapshotTime)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, record)
}

// handleDeleteBackup handles DELETE /v1/backups/{identity}/{snapshot_time}.
func (h *Handler) handleDeleteBackup(w http.ResponseWriter, r *http.Request) {
	identity, snapshotTime, ok := h.recordKey(w, r)
	if !ok {
		return
	}

	if err := h.backup.Delete(r.Context(), identity, snapshotTime); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, map[string]bool{"deleted": true})
}

// recordKey parses the record key path segments.
func (h *Handler) recordKey(w http.ResponseWriter, r *http.Request) (domain.ConversationIdentity, int64, bool) {
	identity := domain.ConversationIdentity(r.PathValue("identity"))
	if identity.Kind() == "" {
		h.writeError(w, r, http.StatusBadRequest, "CV-CONV-4000", "malformed conversation identity")
		return "", 0, false
	}

	snapshotTime, err := strconv.ParseInt(r.PathValue("snapshot_time"), 10, 64)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, "CV-CORE-4000", "snapshot_time must be a unix millisecond timestamp")
		return "", 0, false
	}
	return identity, snapshotTime, true
}
