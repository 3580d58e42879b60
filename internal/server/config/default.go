// Package config defines the server configuration structure.
package config

import (
	"time"

	"github.com/chatvault/chatvault-go/internal/core/service"
)

// Default configuration values.
const (
	DefaultHTTPAddr       = "127.0.0.1:5580"
	DefaultRateLimitRPS   = 50
	DefaultRateLimitBurst = 100

	DefaultDataDir        = "/var/lib/chatvault/data"
	DefaultGCInterval     = "10m"
	DefaultGCThreshold    = 0.5
	DefaultCacheSizeMB    = 32
	DefaultValueLogSizeMB = 256

	DefaultCopyQueueSize = 8
	DefaultHostTimeout   = 10 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:           DefaultHTTPAddr,
				RateLimitRPS:   DefaultRateLimitRPS,
				RateLimitBurst: DefaultRateLimitBurst,
			},
		},
		Storage: StorageSection{
			DataDir:        DefaultDataDir,
			GCInterval:     DefaultGCInterval,
			GCThreshold:    DefaultGCThreshold,
			CacheSizeMB:    DefaultCacheSizeMB,
			ValueLogSizeMB: DefaultValueLogSizeMB,
			SyncWrites:     true,
		},
		Backup: BackupSection{
			MaxPerChat:    service.DefaultMaxPerChat,
			DebounceDelay: service.DefaultDebounceDelay,
			CopyQueueSize: DefaultCopyQueueSize,
			OffloadCopies: true,
		},
		Host: HostSection{
			Timeout: DefaultHostTimeout,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
