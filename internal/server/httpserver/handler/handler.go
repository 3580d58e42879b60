package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/chatvault/chatvault-go/internal/core/domain"
	"github.com/chatvault/chatvault-go/internal/core/service"
	"github.com/chatvault/chatvault-go/internal/host"
	"github.com/chatvault/chatvault-go/internal/telemetry/logger"
)

// Handler routes API requests to the backup and restore services.
type Handler struct {
	backup     *service.BackupService
	restore    *service.RestoreService
	dispatcher *service.Dispatcher
	webhook    *host.Webhook
	log        logger.Logger
	mux        *http.ServeMux
}

// New creates a Handler with the given services.
func New(backup *service.BackupService, restore *service.RestoreService, dispatcher *service.Dispatcher, webhook *host.Webhook, log logger.Logger) *Handler {
	h := &Handler{
		backup:     backup,
		restore:    restore,
		dispatcher: dispatcher,
		webhook:    webhook,
		log:        log,
		mux:        http.NewServeMux(),
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)
	h.mux.HandleFunc("GET /v1/status", h.handleStatus)

	h.mux.HandleFunc("POST /v1/events", h.handleEvents)

	h.mux.HandleFunc("GET /v1/backups", h.handleListBackups)
	h.mux.HandleFunc("POST /v1/backups", h.handleCreateBackup)
	h.mux.HandleFunc("POST /v1/backups/restore", h.handleRestore)
	h.mux.HandleFunc("GET /v1/backups/{identity}/{snapshot_time}", h.handleGetBackup)
	h.mux.HandleFunc("DELETE /v1/backups/{identity}/{snapshot_time}", h.handleDeleteBackup)
}

// writeJSON writes a JSON response with the standard envelope.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := getRequestID(r)
	response := NewResponse(requestID, data)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error("failed to encode response", "error", err)
	}
}

// writeError writes an error response with the standard envelope.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	requestID := getRequestID(r)
	response := NewErrorResponse(requestID, code, message)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// getRequestID extracts the request ID set by the middleware.
func getRequestID(r *http.Request) string {
	return r.Header.Get("X-Request-ID")
}

// handleServiceError converts service errors to HTTP responses.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if domain.IsDomainError(err, "") {
		code := domain.GetErrorCode(err)
		h.writeError(w, r, errorCodeToHTTPStatus(code), code, err.Error())
		return
	}

	h.log.Error("internal error", "error", err)
	h.writeError(w, r, http.StatusInternalServerError, "CV-CORE-5000", "internal server error")
}

// errorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func errorCodeToHTTPStatus(code string) int {
	switch {
	case strings.HasSuffix(code, "-4040"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "-4000"), strings.HasSuffix(code, "-4001"):
		return http.StatusBadRequest
	case strings.HasSuffix(code, "-5010"):
		return http.StatusNotImplemented
	case strings.HasSuffix(code, "-5030"):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
