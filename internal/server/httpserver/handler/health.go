package handler

import (
	"net/http"
	"time"

	"github.com/chatvault/chatvault-go/internal/infra/buildinfo"
)

// handleHealth handles GET /health.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady handles GET /ready. The store is probed with a listing
// so readiness reflects the database, not just the process.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := h.backup.List(r.Context()); err != nil {
		h.writeError(w, r, http.StatusServiceUnavailable, "CV-STOR-5001", "store not ready: "+err.Error())
		return
	}
	h.writeJSON(w, r, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleStatus handles GET /v1/status.
func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.backup.List(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, StatusResponse{
		Build:      buildinfo.Get(),
		Backups:    len(summaries),
		MaxPerChat: h.backup.MaxPerChat(),
	})
}
