// Package tests provides end-to-end tests for the backup service.
//
// The test drives a full stack: HTTP API, dispatcher, copy channel,
// encrypted Badger store, and a fake host callback listener.
package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/chatvault/chatvault-go/internal/core/domain"
	"github.com/chatvault/chatvault-go/internal/core/service"
	"github.com/chatvault/chatvault-go/internal/deepcopy"
	"github.com/chatvault/chatvault-go/internal/host"
	"github.com/chatvault/chatvault-go/internal/server/httpserver"
	"github.com/chatvault/chatvault-go/internal/storage"
	"github.com/chatvault/chatvault-go/internal/telemetry/logger"
	"github.com/chatvault/chatvault-go/internal/telemetry/metric"
	"github.com/chatvault/chatvault-go/pkg/crypto/adaptive"
)

// hostListener is the fake chat application side: it records every
// callback path the service invokes.
type hostListener struct {
	mu    sync.Mutex
	paths []string
}

func (h *hostListener) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.mu.Lock()
		h.paths = append(h.paths, r.URL.Path)
		h.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
}

func (h *hostListener) calledPaths() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.paths...)
}

// stack is the assembled service under test.
type stack struct {
	api  *httptest.Server
	host *hostListener
}

func newStack(t *testing.T) *stack {
	t.Helper()
	log := logger.Discard()
	metrics := metric.NewRegistry()

	listener := &hostListener{}
	callback := httptest.NewServer(listener.handler())
	t.Cleanup(callback.Close)

	cipher, err := adaptive.NewFromPassphrase("integration-test-passphrase", []byte("chatvault/storage/v1"))
	if err != nil {
		t.Fatalf("derive cipher: %v", err)
	}
	storeCfg := storage.DefaultConfig(t.TempDir())
	storeCfg.Cipher = cipher
	storeCfg.Badger.SyncWrites = false
	store, err := storage.NewBadgerStore(storeCfg, log)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	webhook := host.NewWebhook(host.Config{
		CallbackURL: callback.URL,
		Endpoints: host.Endpoints{
			SaveConversation: "/save",
			NotifyLoaded:     "/loaded",
		},
	}, log)

	copier, err := deepcopy.New(deepcopy.Config{}, log)
	if err != nil {
		t.Fatalf("copy channel: %v", err)
	}
	t.Cleanup(copier.Close)

	backupSvc := service.NewBackupService(service.BackupConfig{MaxPerChat: 3}, store, copier, webhook, log, metrics)
	restoreSvc := service.NewRestoreService(store, webhook, log, metrics)
	debouncer := service.NewDebouncer(20*time.Millisecond, func(ctx context.Context) error {
		_, err := backupSvc.RunBackup(ctx)
		return err
	}, log, metrics)
	t.Cleanup(debouncer.Stop)
	dispatcher := service.NewDispatcher(domain.DefaultTriggerPolicy(), backupSvc, debouncer, log)

	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Backup:     backupSvc,
		Restore:    restoreSvc,
		Dispatcher: dispatcher,
		Webhook:    webhook,
		Metrics:    metrics,
		Logger:     log,
	})
	api := httptest.NewServer(router)
	t.Cleanup(api.Close)

	return &stack{api: api, host: listener}
}

// call issues a request and decodes the envelope's data field.
func (s *stack) call(t *testing.T, method, path string, body, out any) int {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req, err := http.NewRequest(method, s.api.URL+path, reqBody)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var envelope struct {
		Code string          `json:"code"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("%s %s: decode envelope: %v", method, path, err)
	}
	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			t.Fatalf("%s %s: decode data: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func conversationPayload(text string) map[string]any {
	return map[string]any{
		"kind":      "character",
		"entity_id": "alice",
		"chat_id":   "chat-main",
		"messages": []map[string]any{
			{"text": "hello there"},
			{"text": text},
		},
		"metadata": map[string]any{"scenario": "test run"},
	}
}

type listResult struct {
	Items []map[string]any `json:"items"`
	Total int              `json:"total"`
}

// waitForBackups polls the list endpoint until the expected count
// shows up.
func (s *stack) waitForBackups(t *testing.T, want int) listResult {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	var result listResult
	for time.Now().Before(deadline) {
		s.call(t, http.MethodGet, "/v1/backups", nil, &result)
		if result.Total == want {
			return result
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("backup count never reached %d, last total %d", want, result.Total)
	return result
}

func TestBackupRestoreRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	s := newStack(t)

	// Host pushes an event with its conversation state.
	status := s.call(t, http.MethodPost, "/v1/events", map[string]any{
		"event":        "message-sent",
		"conversation": conversationPayload("the answer is 42"),
		"entity_names": []map[string]any{
			{"kind": "character", "entity_id": "alice", "name": "Alice"},
		},
	}, nil)
	if status != http.StatusAccepted {
		t.Fatalf("event status = %d, want 202", status)
	}

	listing := s.waitForBackups(t, 1)
	item := listing.Items[0]
	if item["conversation_identity"] != "character:alice:chat-main" {
		t.Errorf("identity = %v", item["conversation_identity"])
	}
	if item["entity_label"] != "Alice" {
		t.Errorf("entity label = %v, want resolved name", item["entity_label"])
	}
	if item["message_count"] != float64(2) {
		t.Errorf("message count = %v, want 2", item["message_count"])
	}

	// The stored record round-trips through the cipher intact.
	snapshotTime := int64(item["snapshot_time"].(float64))
	recordPath := fmt.Sprintf("/v1/backups/character:alice:chat-main/%d", snapshotTime)
	var record map[string]any
	if status := s.call(t, http.MethodGet, recordPath, nil, &record); status != http.StatusOK {
		t.Fatalf("get record status = %d", status)
	}
	messages := record["messages"].([]any)
	if got := messages[1].(map[string]any)["text"]; got != "the answer is 42" {
		t.Errorf("stored message text = %v", got)
	}

	// Restore replays the snapshot into the host.
	var restored struct {
		Restored bool `json:"restored"`
	}
	status = s.call(t, http.MethodPost, "/v1/backups/restore", map[string]any{
		"conversation_identity": "character:alice:chat-main",
		"snapshot_time":         snapshotTime,
	}, &restored)
	if status != http.StatusOK || !restored.Restored {
		t.Fatalf("restore status = %d restored = %v", status, restored.Restored)
	}

	paths := s.host.calledPaths()
	for _, want := range []string{"/select-entity", "/new-conversation", "/replace-messages", "/save", "/loaded"} {
		if !containsPath(paths, want) {
			t.Errorf("host never received %s, got %v", want, paths)
		}
	}

	// Delete empties the vault again.
	if status := s.call(t, http.MethodDelete, recordPath, nil, nil); status != http.StatusOK {
		t.Fatalf("delete status = %d", status)
	}
	s.waitForBackups(t, 0)
}

func TestDebouncedBurstCollapses(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	s := newStack(t)

	for i := 0; i < 5; i++ {
		s.call(t, http.MethodPost, "/v1/events", map[string]any{
			"event":        "message-edited",
			"conversation": conversationPayload(fmt.Sprintf("edit %d", i)),
		}, nil)
	}

	listing := s.waitForBackups(t, 1)
	if listing.Total != 1 {
		t.Fatalf("burst produced %d backups, want 1", listing.Total)
	}
}

func TestRetentionEvictsOldest(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	s := newStack(t)

	// MaxPerChat is 3; each event grows the conversation so every
	// backup lands on a new progress marker.
	payload := conversationPayload("start")
	for i := 0; i < 5; i++ {
		payload["messages"] = append(payload["messages"].([]map[string]any),
			map[string]any{"text": fmt.Sprintf("message %d", i)})
		s.call(t, http.MethodPost, "/v1/events", map[string]any{
			"event":        "message-sent",
			"conversation": payload,
		}, nil)

		// Let each backup land before the next event so the snapshots
		// get distinct markers.
		s.waitForBackups(t, min(i+1, 3))
	}

	listing := s.waitForBackups(t, 3)
	var indexes []float64
	for _, item := range listing.Items {
		indexes = append(indexes, item["last_message_index"].(float64))
	}
	for _, idx := range indexes {
		if idx < 3 {
			t.Errorf("an old snapshot survived eviction, markers %v", indexes)
			break
		}
	}
}

func containsPath(paths []string, want string) bool {
	for _, p := range paths {
		if p == want {
			return true
		}
	}
	return false
}
