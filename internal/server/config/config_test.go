package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig(t *testing.T) *ServerConfig {
	t.Helper()
	cfg := Default()
	cfg.Storage.DataDir = filepath.Join(t.TempDir(), "data")
	return cfg
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.HTTP.Addr != DefaultHTTPAddr {
		t.Errorf("http addr = %q, want %q", cfg.Server.HTTP.Addr, DefaultHTTPAddr)
	}
	if cfg.Backup.MaxPerChat < 1 {
		t.Error("default max_per_chat below 1")
	}
	if cfg.Backup.DebounceDelay != 2000*time.Millisecond {
		t.Errorf("default debounce delay = %v, want 2s", cfg.Backup.DebounceDelay)
	}
	if !cfg.Backup.OffloadCopies {
		t.Error("copy offload disabled by default")
	}
	if cfg.Log.Format != "json" {
		t.Errorf("default log format = %q, want json", cfg.Log.Format)
	}
}

func TestVerifyAcceptsDefault(t *testing.T) {
	if err := Verify(validConfig(t)); err != nil {
		t.Errorf("Verify(default) error = %v", err)
	}
}

func TestVerifyRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ServerConfig)
		wantErr string
	}{
		{
			name:    "missing http addr",
			mutate:  func(c *ServerConfig) { c.Server.HTTP.Addr = "" },
			wantErr: "server.http.addr",
		},
		{
			name:    "tls cert without key",
			mutate:  func(c *ServerConfig) { c.Server.HTTP.TLSCertFile = "/tmp/cert.pem" },
			wantErr: "tls cert and key",
		},
		{
			name:    "negative rate limit",
			mutate:  func(c *ServerConfig) { c.Server.HTTP.RateLimitRPS = -1 },
			wantErr: "rate limit",
		},
		{
			name:    "missing data dir",
			mutate:  func(c *ServerConfig) { c.Storage.DataDir = "" },
			wantErr: "storage.data_dir",
		},
		{
			name:    "bad gc interval",
			mutate:  func(c *ServerConfig) { c.Storage.GCInterval = "sometimes" },
			wantErr: "storage.gc_interval",
		},
		{
			name:    "gc threshold out of range",
			mutate:  func(c *ServerConfig) { c.Storage.GCThreshold = 1.5 },
			wantErr: "gc_threshold",
		},
		{
			name:    "zero retention cap",
			mutate:  func(c *ServerConfig) { c.Backup.MaxPerChat = 0 },
			wantErr: "max_per_chat",
		},
		{
			name:    "zero debounce delay",
			mutate:  func(c *ServerConfig) { c.Backup.DebounceDelay = 0 },
			wantErr: "debounce_delay",
		},
		{
			name:    "negative copy queue",
			mutate:  func(c *ServerConfig) { c.Backup.CopyQueueSize = -1 },
			wantErr: "copy_queue_size",
		},
		{
			name:    "relative callback url",
			mutate:  func(c *ServerConfig) { c.Host.CallbackURL = "/hooks" },
			wantErr: "callback_url",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)

			err := Verify(cfg)
			if err == nil {
				t.Fatal("Verify() accepted invalid config")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestVerifyCreatesDataDir(t *testing.T) {
	cfg := validConfig(t)
	if err := Verify(cfg); err != nil {
		t.Fatal(err)
	}
	// Second run against the now-existing directory is idempotent.
	if err := Verify(cfg); err != nil {
		t.Errorf("Verify() on existing data dir error = %v", err)
	}
}

func TestSanitizeMasksEncryptionKey(t *testing.T) {
	cfg := Default()
	cfg.Security.EncryptionKey = "super-secret-passphrase"

	sanitized := Sanitize(cfg)
	if sanitized.Security.EncryptionKey == cfg.Security.EncryptionKey {
		t.Error("encryption key not masked")
	}
	if !strings.Contains(sanitized.Security.EncryptionKey, "*") {
		t.Errorf("masked key %q has no mask characters", sanitized.Security.EncryptionKey)
	}
	// Original untouched.
	if cfg.Security.EncryptionKey != "super-secret-passphrase" {
		t.Error("Sanitize mutated its input")
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "****"},
		{"abcd", "****"},
		{"abcdefgh", "ab****gh"},
	}
	for _, tt := range tests {
		if got := maskSecret(tt.in); got != tt.want {
			t.Errorf("maskSecret(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
