// Package config defines the server configuration structure.
package config

import "time"

// ServerConfig is the root configuration for chatvault-server.
type ServerConfig struct {
	Server   ServerSection   `koanf:"server"`
	Storage  StorageSection  `koanf:"storage"`
	Backup   BackupSection   `koanf:"backup"`
	Host     HostSection     `koanf:"host"`
	Security SecuritySection `koanf:"security"`
	Log      LogSection      `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http"`

	// AdminSocket, when set, additionally serves the API on a Unix
	// domain socket for local management access. The socket bypasses
	// the per-IP rate limiter's client addressing, so it should stay
	// readable only by the service user.
	AdminSocket string `koanf:"admin_socket"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr        string `koanf:"addr"`
	TLSCertFile string `koanf:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file"`

	// RateLimitRPS throttles requests per second per client IP.
	// Zero disables the limiter.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`
}

// StorageSection configures the backup store.
type StorageSection struct {
	DataDir string `koanf:"data_dir"`

	// Badger engine tuning.
	GCInterval     string  `koanf:"gc_interval"`
	GCThreshold    float64 `koanf:"gc_threshold"`
	CacheSizeMB    int64   `koanf:"cache_size_mb"`
	ValueLogSizeMB int64   `koanf:"value_log_size_mb"`
	SyncWrites     bool    `koanf:"sync_writes"`
}

// BackupSection configures the backup workflow. MaxPerChat and
// DebounceDelay are hot-reloadable.
type BackupSection struct {
	// MaxPerChat caps stored records per conversation.
	MaxPerChat int `koanf:"max_per_chat"`

	// DebounceDelay is the quiet period for debounced triggers.
	DebounceDelay time.Duration `koanf:"debounce_delay"`

	// CopyQueueSize is the copy channel request queue depth.
	CopyQueueSize int `koanf:"copy_queue_size"`

	// OffloadCopies moves deep copies to the worker goroutine. When
	// false the service runs degraded with in-line synchronous copies.
	OffloadCopies bool `koanf:"offload_copies"`
}

// HostSection configures the webhook host adapter.
type HostSection struct {
	// CallbackURL is the base URL of the host's callback listener.
	// Restore-side operations need it; without one, restores fail and
	// only backup ingestion works.
	CallbackURL string `koanf:"callback_url"`

	// Timeout bounds each callback request.
	Timeout time.Duration `koanf:"timeout"`

	// CACertFile is a PEM bundle of extra CA certificates to trust
	// when the callback URL uses HTTPS. System roots always apply.
	CACertFile string `koanf:"ca_cert_file"`

	// Endpoints are the optional capability paths. An empty path means
	// the host does not support that capability.
	Endpoints HostEndpoints `koanf:"endpoints"`
}

// HostEndpoints holds the optional callback paths, relative to
// CallbackURL.
type HostEndpoints struct {
	ApplyMetadata     string `koanf:"apply_metadata"`
	SaveConversation  string `koanf:"save_conversation"`
	NotifyLoaded      string `koanf:"notify_loaded"`
	NotifyListChanged string `koanf:"notify_list_changed"`
}

// SecuritySection configures security settings.
type SecuritySection struct {
	// EncryptionKey is the passphrase for at-rest record encryption.
	// Empty disables encryption.
	EncryptionKey string `koanf:"encryption_key"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`

	// RedactContent masks message text and previews in log output.
	RedactContent bool `koanf:"redact_content"`
}
