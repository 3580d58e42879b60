package handler

import (
	"time"

	"github.com/chatvault/chatvault-go/internal/core/domain"
	"github.com/chatvault/chatvault-go/internal/infra/buildinfo"
)

// Response is the standard API response envelope.
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
	}
}

// EventRequest is the request body for POST /v1/events. The host
// pushes the full current conversation state with each event so
// ChatVault never has to call back to read it.
type EventRequest struct {
	Event        string               `json:"event"`
	Conversation *ConversationPayload `json:"conversation,omitempty"`
	EntityNames  []EntityNamePayload  `json:"entity_names,omitempty"`
}

// ConversationPayload is the host's current conversation state.
// A null conversation means nothing is open.
type ConversationPayload struct {
	Kind     string           `json:"kind"`
	EntityID string           `json:"entity_id"`
	ChatID   string           `json:"chat_id"`
	Messages []domain.Message `json:"messages"`
	Metadata domain.Metadata  `json:"metadata,omitempty"`
}

// EntityNamePayload maps an entity to its display name.
type EntityNamePayload struct {
	Kind     string `json:"kind"`
	EntityID string `json:"entity_id"`
	Name     string `json:"name"`
}

// EventResponse is the response body for POST /v1/events.
type EventResponse struct {
	Event string `json:"event"`
	Class string `json:"class"`
}

// BackupActionResponse is the response body for POST /v1/backups.
type BackupActionResponse struct {
	Status    string                `json:"status"`
	AttemptID string                `json:"attempt_id"`
	Record    *domain.RecordSummary `json:"record,omitempty"`
}

// ListBackupsResponse is the response body for GET /v1/backups.
type ListBackupsResponse struct {
	Items []domain.RecordSummary `json:"items"`
	Total int                    `json:"total"`
}

// RestoreRequest is the request body for POST /v1/backups/restore.
type RestoreRequest struct {
	ConversationIdentity string `json:"conversation_identity"`
	SnapshotTime         int64  `json:"snapshot_time"`
}

// RestoreResponse is the response body for POST /v1/backups/restore.
type RestoreResponse struct {
	Restored bool `json:"restored"`
}

// StatusResponse is the response body for GET /v1/status.
type StatusResponse struct {
	Build      buildinfo.Info `json:"build"`
	Backups    int            `json:"backups"`
	MaxPerChat int            `json:"max_per_chat"`
}
