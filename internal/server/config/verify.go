// Package config defines the server configuration structure.
package config

import (
	"errors"
	"net/url"
	"os"
	"time"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	if err := verifyBackup(&cfg.Backup); err != nil {
		return err
	}
	return verifyHost(&cfg.Host)
}

func verifyServer(cfg *ServerSection) error {
	if cfg.HTTP.Addr == "" {
		return errors.New("server.http.addr is required")
	}
	if (cfg.HTTP.TLSCertFile == "") != (cfg.HTTP.TLSKeyFile == "") {
		return errors.New("server.http tls cert and key must be set together")
	}
	if cfg.HTTP.RateLimitRPS < 0 || cfg.HTTP.RateLimitBurst < 0 {
		return errors.New("server.http rate limit values must not be negative")
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	if cfg.DataDir == "" {
		return errors.New("storage.data_dir is required")
	}

	// Creating the data directory is the idempotent schema step.
	if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
		return errors.New("cannot create data directory: " + err.Error())
	}

	if cfg.GCInterval != "" {
		if _, err := time.ParseDuration(cfg.GCInterval); err != nil {
			return errors.New("storage.gc_interval is not a duration: " + err.Error())
		}
	}
	if cfg.GCThreshold < 0 || cfg.GCThreshold >= 1 {
		return errors.New("storage.gc_threshold must be in [0, 1)")
	}
	return nil
}

func verifyBackup(cfg *BackupSection) error {
	if cfg.MaxPerChat < 1 {
		return errors.New("backup.max_per_chat must be at least 1")
	}
	if cfg.DebounceDelay <= 0 {
		return errors.New("backup.debounce_delay must be positive")
	}
	if cfg.CopyQueueSize < 0 {
		return errors.New("backup.copy_queue_size must not be negative")
	}
	return nil
}

func verifyHost(cfg *HostSection) error {
	if cfg.CallbackURL != "" {
		u, err := url.Parse(cfg.CallbackURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return errors.New("host.callback_url is not an absolute URL")
		}
	}
	if cfg.Timeout < 0 {
		return errors.New("host.timeout must not be negative")
	}
	return nil
}
