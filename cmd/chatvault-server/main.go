package main

import (
	"context"
	"crypto/tls"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/chatvault/chatvault-go/internal/core/domain"
	"github.com/chatvault/chatvault-go/internal/core/service"
	"github.com/chatvault/chatvault-go/internal/deepcopy"
	"github.com/chatvault/chatvault-go/internal/host"
	"github.com/chatvault/chatvault-go/internal/infra/buildinfo"
	"github.com/chatvault/chatvault-go/internal/infra/confloader"
	"github.com/chatvault/chatvault-go/internal/infra/shutdown"
	"github.com/chatvault/chatvault-go/internal/infra/tlsroots"
	"github.com/chatvault/chatvault-go/internal/server/config"
	"github.com/chatvault/chatvault-go/internal/server/httpserver"
	"github.com/chatvault/chatvault-go/internal/server/localserver"
	"github.com/chatvault/chatvault-go/internal/storage"
	"github.com/chatvault/chatvault-go/internal/telemetry/logger"
	"github.com/chatvault/chatvault-go/internal/telemetry/metric"
	"github.com/chatvault/chatvault-go/pkg/crypto/adaptive"
)

const shutdownTimeout = 30 * time.Second

// encryptionSalt pins key derivation so a restarted server can decrypt
// the records it wrote. Changing it orphans existing encrypted data.
var encryptionSalt = []byte("chatvault/storage/v1")

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("chatvault-server %s\n", buildinfo.String())
		return nil
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	log.Info("starting chatvault-server",
		"version", buildinfo.Get().Version,
		"commit", buildinfo.Get().Commit,
		"config", *configFile)

	metrics := metric.NewRegistry()

	store, err := initStore(cfg, log, metrics)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}

	hostTLS, err := hostTLSConfig(cfg)
	if err != nil {
		return fmt.Errorf("host CA certificates: %w", err)
	}
	webhook := host.NewWebhook(host.Config{
		CallbackURL: cfg.Host.CallbackURL,
		Timeout:     cfg.Host.Timeout,
		TLSConfig:   hostTLS,
		Endpoints: host.Endpoints{
			ApplyMetadata:     cfg.Host.Endpoints.ApplyMetadata,
			SaveConversation:  cfg.Host.Endpoints.SaveConversation,
			NotifyLoaded:      cfg.Host.Endpoints.NotifyLoaded,
			NotifyListChanged: cfg.Host.Endpoints.NotifyListChanged,
		},
	}, log)

	copier, copyChannel, err := initCopier(cfg, log)
	if err != nil {
		return fmt.Errorf("init copy channel: %w", err)
	}

	backupSvc := service.NewBackupService(
		service.BackupConfig{MaxPerChat: cfg.Backup.MaxPerChat},
		store, copier, webhook, log, metrics)
	restoreSvc := service.NewRestoreService(store, webhook, log, metrics)
	debouncer := service.NewDebouncer(cfg.Backup.DebounceDelay, func(ctx context.Context) error {
		_, err := backupSvc.RunBackup(ctx)
		return err
	}, log, metrics)
	dispatcher := service.NewDispatcher(domain.DefaultTriggerPolicy(), backupSvc, debouncer, log)

	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Backup:         backupSvc,
		Restore:        restoreSvc,
		Dispatcher:     dispatcher,
		Webhook:        webhook,
		Metrics:        metrics,
		Logger:         log,
		RateLimitRPS:   cfg.Server.HTTP.RateLimitRPS,
		RateLimitBurst: cfg.Server.HTTP.RateLimitBurst,
	})
	httpServer := httpserver.New(cfg.Server.HTTP.Addr, router)

	var adminServer *localserver.Server
	if cfg.Server.AdminSocket != "" {
		adminServer = localserver.New(cfg.Server.AdminSocket, router)
	}

	// Hooks run in reverse registration order: server drains first so
	// nothing reaches the services while they wind down, the store
	// closes last.
	shutdownHandler := shutdown.NewHandler(shutdownTimeout, log)
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("closing backup store")
		return store.Close()
	})
	if copyChannel != nil {
		shutdownHandler.OnShutdown(func(context.Context) error {
			copyChannel.Close()
			return nil
		})
	}
	shutdownHandler.OnShutdown(func(context.Context) error {
		debouncer.Stop()
		return nil
	})
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return httpServer.Shutdown(ctx)
	})
	if adminServer != nil {
		shutdownHandler.OnShutdown(func(ctx context.Context) error {
			return adminServer.Shutdown(ctx)
		})
	}

	watcher, err := watchConfig(*configFile, backupSvc, debouncer, log)
	if err != nil {
		log.Warn("config hot reload unavailable", "error", err)
	} else if watcher != nil {
		shutdownHandler.OnShutdown(func(context.Context) error {
			return watcher.Stop()
		})
	}

	go func() {
		log.Info("HTTP server listening", "addr", cfg.Server.HTTP.Addr)

		var err error
		if cfg.Server.HTTP.TLSCertFile != "" && cfg.Server.HTTP.TLSKeyFile != "" {
			err = httpServer.ListenAndServeTLS(cfg.Server.HTTP.TLSCertFile, cfg.Server.HTTP.TLSKeyFile)
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
			shutdownHandler.Trigger()
		}
	}()

	if adminServer != nil {
		go func() {
			log.Info("admin socket listening", "path", cfg.Server.AdminSocket)
			if err := adminServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("admin socket error", "error", err)
			}
		}()
	}

	if err := shutdownHandler.Wait(); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// hostTLSConfig builds the trust pool for HTTPS callback URLs. Without
// a configured CA bundle the client uses its default verification.
func hostTLSConfig(cfg *config.ServerConfig) (*tls.Config, error) {
	if cfg.Host.CACertFile == "" {
		return nil, nil
	}
	pool := tlsroots.NewPool()
	if err := pool.AddCertFile(cfg.Host.CACertFile); err != nil {
		return nil, err
	}
	return pool.ClientTLSConfig(), nil
}

// loadConfig loads configuration from file and environment.
func loadConfig(configFile string) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func initLogger(cfg *config.ServerConfig) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:         cfg.Log.Level,
		Format:        cfg.Log.Format,
		Output:        os.Stdout,
		RedactContent: cfg.Log.RedactContent,
	})
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)
	return log, nil
}

// initStore opens the Badger-backed store, sealed with a derived key
// when an encryption passphrase is configured.
func initStore(cfg *config.ServerConfig, log logger.Logger, metrics *metric.Registry) (*storage.BadgerStore, error) {
	storeCfg := storage.DefaultConfig(cfg.Storage.DataDir)
	if cfg.Storage.GCInterval != "" {
		storeCfg.Badger.GCInterval = cfg.Storage.GCInterval
	}
	if cfg.Storage.GCThreshold > 0 {
		storeCfg.Badger.GCThreshold = cfg.Storage.GCThreshold
	}
	if cfg.Storage.CacheSizeMB > 0 {
		storeCfg.Badger.CacheSize = cfg.Storage.CacheSizeMB << 20
	}
	if cfg.Storage.ValueLogSizeMB > 0 {
		storeCfg.Badger.ValueLogFileSize = cfg.Storage.ValueLogSizeMB << 20
	}
	storeCfg.Badger.SyncWrites = cfg.Storage.SyncWrites

	if cfg.Security.EncryptionKey != "" {
		cipher, err := adaptive.NewFromPassphrase(cfg.Security.EncryptionKey, encryptionSalt)
		if err != nil {
			return nil, fmt.Errorf("derive encryption key: %w", err)
		}
		storeCfg.Cipher = cipher
	}

	store, err := storage.NewBadgerStore(storeCfg, log)
	if err != nil {
		return nil, err
	}
	return store.RegisterMetrics(metrics.Prometheus()), nil
}

// initCopier selects the copy strategy. The channel copier is the
// normal path; inline copies are the degraded mode for hosts that
// cannot afford the extra goroutine.
func initCopier(cfg *config.ServerConfig, log logger.Logger) (service.Copier, *deepcopy.Channel, error) {
	if !cfg.Backup.OffloadCopies {
		log.Warn("copy offload disabled, running with in-line copies")
		return deepcopy.Inline{}, nil, nil
	}
	ch, err := deepcopy.New(deepcopy.Config{QueueSize: cfg.Backup.CopyQueueSize}, log)
	if err != nil {
		return nil, nil, err
	}
	return ch, ch, nil
}

// watchConfig hot-reloads the tunable backup knobs when the config
// file changes. Other sections need a restart.
func watchConfig(configFile string, backupSvc *service.BackupService, debouncer *service.Debouncer, log logger.Logger) (*confloader.Watcher, error) {
	if configFile == "" {
		return nil, nil
	}

	watcher, err := confloader.NewWatcher(log)
	if err != nil {
		return nil, err
	}
	if err := watcher.Watch(configFile); err != nil {
		watcher.Stop()
		return nil, err
	}

	watcher.OnChange(func(path string) {
		cfg, err := loadConfig(path)
		if err != nil {
			log.Warn("config reload failed, keeping current settings", "error", err)
			return
		}
		backupSvc.SetMaxPerChat(cfg.Backup.MaxPerChat)
		debouncer.SetDelay(cfg.Backup.DebounceDelay)
		log.Info("config reloaded",
			"max_per_chat", cfg.Backup.MaxPerChat,
			"debounce_delay", cfg.Backup.DebounceDelay)
	})
	watcher.StartAsync()
	return watcher, nil
}
