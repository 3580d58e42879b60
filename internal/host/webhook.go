package host

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/chatvault/chatvault-go/internal/core/domain"
	"github.com/chatvault/chatvault-go/internal/telemetry/logger"
)

// Required restore operation paths, relative to the callback URL.
const (
	pathSelectEntity    = "/select-entity"
	pathNewConversation = "/new-conversation"
	pathReplaceMessages = "/replace-messages"
)

// DefaultTimeout bounds a callback request when none is configured.
const DefaultTimeout = 10 * time.Second

// Endpoints holds the optional capability paths. An empty path means
// the host does not support that capability.
type Endpoints struct {
	ApplyMetadata     string
	SaveConversation  string
	NotifyLoaded      string
	NotifyListChanged string
}

// Config configures the webhook host adapter.
type Config struct {
	// CallbackURL is the base URL of the host's callback listener.
	// Without one, restore-side operations fail with
	// domain.ErrHostUnavailable and only backup ingestion works.
	CallbackURL string

	// Timeout bounds each callback request.
	Timeout time.Duration

	// TLSConfig, when set, is used for HTTPS callback URLs. Hosts
	// behind a privately-issued certificate need a pool that trusts
	// it; see the tlsroots package.
	TLSConfig *tls.Config

	Endpoints Endpoints
}

// Webhook implements service.Host for a push-based chat application.
type Webhook struct {
	cfg    Config
	log    logger.Logger
	client *http.Client

	mu      sync.RWMutex
	current *domain.Conversation
	names   map[string]string
}

// NewWebhook creates a webhook host adapter.
func NewWebhook(cfg Config, log logger.Logger) *Webhook {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.Default()
	}
	client := &http.Client{Timeout: cfg.Timeout}
	if cfg.TLSConfig != nil {
		client.Transport = &http.Transport{TLSClientConfig: cfg.TLSConfig}
	}
	return &Webhook{
		cfg:    cfg,
		log:    log,
		client: client,
		names:  make(map[string]string),
	}
}

// SetConversation replaces the cached conversation state. The host
// pushes its state with every event delivery; nil means no
// conversation is open.
func (w *Webhook) SetConversation(conv *domain.Conversation) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.current = conv
}

// CacheEntityName records a display name pushed by the host.
func (w *Webhook) CacheEntityName(kind domain.Kind, entityID, name string) {
	if entityID == "" || name == "" {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.names[nameKey(kind, entityID)] = name
}

// CurrentConversation returns the last conversation state the host
// pushed, or nil when none is open.
func (w *Webhook) CurrentConversation(ctx context.Context) (*domain.Conversation, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current, nil
}

// ResolveEntityName returns the cached display name for an entity.
func (w *Webhook) ResolveEntityName(ctx context.Context, kind domain.Kind, entityID string) (string, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if name, ok := w.names[nameKey(kind, entityID)]; ok {
		return name, nil
	}
	return "", fmt.Errorf("no cached name for %s %q", kind, entityID)
}

// SelectEntity makes the entity the host's active selection.
func (w *Webhook) SelectEntity(ctx context.Context, kind domain.Kind, entityID string) error {
	return w.post(ctx, pathSelectEntity, map[string]any{
		"kind":      kind,
		"entity_id": entityID,
	})
}

// NewConversation starts a fresh, empty conversation in the host.
func (w *Webhook) NewConversation(ctx context.Context) error {
	return w.post(ctx, pathNewConversation, struct{}{})
}

// ReplaceMessages replaces the current conversation's messages.
func (w *Webhook) ReplaceMessages(ctx context.Context, messages []domain.Message) error {
	return w.post(ctx, pathReplaceMessages, map[string]any{
		"messages": messages,
	})
}

// ApplyMetadata overwrites the current conversation's metadata.
func (w *Webhook) ApplyMetadata(ctx context.Context, metadata domain.Metadata) error {
	return w.optional(ctx, w.cfg.Endpoints.ApplyMetadata, map[string]any{
		"metadata": metadata,
	})
}

// SaveConversation asks the host to persist the current conversation.
func (w *Webhook) SaveConversation(ctx context.Context) error {
	return w.optional(ctx, w.cfg.Endpoints.SaveConversation, struct{}{})
}

// NotifyConversationLoaded tells the host's views to re-render.
func (w *Webhook) NotifyConversationLoaded(ctx context.Context) error {
	return w.optional(ctx, w.cfg.Endpoints.NotifyLoaded, struct{}{})
}

// NotifyBackupListChanged asks the host to refresh its backup listing.
func (w *Webhook) NotifyBackupListChanged(ctx context.Context) error {
	return w.optional(ctx, w.cfg.Endpoints.NotifyListChanged, struct{}{})
}

func (w *Webhook) optional(ctx context.Context, path string, payload any) error {
	if path == "" {
		return domain.ErrNotSupported
	}
	return w.post(ctx, path, payload)
}

func (w *Webhook) post(ctx context.Context, path string, payload any) error {
	if w.cfg.CallbackURL == "" {
		return domain.ErrHostUnavailable.WithDetails("no callback URL configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return domain.ErrHostUnavailable.WithDetails(path).WithCause(err)
	}

	url := strings.TrimSuffix(w.cfg.CallbackURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return domain.ErrHostUnavailable.WithDetails(path).WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return domain.ErrHostUnavailable.WithDetails(path).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.ErrHostUnavailable.WithDetails(
			fmt.Sprintf("%s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(detail))))
	}

	w.log.Debug("host callback delivered", "path", path, "status", resp.StatusCode)
	return nil
}

func nameKey(kind domain.Kind, entityID string) string {
	return string(kind) + "/" + entityID
}
