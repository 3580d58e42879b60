package httpserver

import (
	"net/http"

	"github.com/chatvault/chatvault-go/internal/core/service"
	"github.com/chatvault/chatvault-go/internal/host"
	"github.com/chatvault/chatvault-go/internal/server/httpserver/handler"
	"github.com/chatvault/chatvault-go/internal/telemetry/logger"
	"github.com/chatvault/chatvault-go/internal/telemetry/metric"
)

// RouterConfig holds the dependencies of the HTTP API.
type RouterConfig struct {
	// Backup handles backup management operations.
	Backup *service.BackupService

	// Restore handles restore operations.
	Restore *service.RestoreService

	// Dispatcher classifies and routes pushed host events.
	Dispatcher *service.Dispatcher

	// Webhook caches the conversation state the host pushes.
	Webhook *host.Webhook

	// Metrics backs the /metrics endpoint and the HTTP instruments.
	Metrics *metric.Registry

	// Logger for request logging.
	Logger logger.Logger

	// RateLimitRPS throttles requests per second per client IP.
	// Zero disables the limiter.
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter assembles the API handler with its middleware chain.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}

	h := handler.New(cfg.Backup, cfg.Restore, cfg.Dispatcher, cfg.Webhook, log)

	api := Chain(h,
		Recover(log),
		RequestID(),
		RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		RequestLog(log, cfg.Metrics),
	)

	mux := http.NewServeMux()
	if cfg.Metrics != nil {
		// Prometheus exposition bypasses the JSON envelope and the
		// request log.
		mux.Handle("GET /metrics", Chain(cfg.Metrics.Handler(), Recover(log), RequestID()))
	}
	mux.Handle("/", api)
	return mux
}
