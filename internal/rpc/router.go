package rpc

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// HealthChecker reports whether the market has been bootstrapped.
type HealthChecker interface {
	Initialized(ctx context.Context) (bool, error)
}

// RouterOptions assembles the HTTP surface. Stream and Metrics are optional.
type RouterOptions struct {
	RPC     *Server
	Stream  *StreamServer
	Health  HealthChecker
	Metrics interface {
		InstrumentHandler(next http.Handler) http.Handler
		Handler() http.Handler
	}
	Logger *zap.Logger
}

// NewRouter mounts JSON-RPC on / and /rpc, the receipt stream on /ws, and
// /health and /metrics.
func NewRouter(opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if opts.Metrics != nil {
		r.Use(opts.Metrics.InstrumentHandler)
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	r.Handle("/", opts.RPC)
	r.Handle("/rpc", opts.RPC)
	if opts.Stream != nil {
		r.Get("/ws", opts.Stream.ServeHTTP)
	}
	r.Get("/health", healthHandler(opts.Health, logger))

	return r
}

func healthHandler(checker HealthChecker, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]interface{}{"status": "ok", "service": "marketd"}

		if checker != nil {
			ok, err := checker.Initialized(r.Context())
			switch {
			case err != nil:
				logger.Warn("health check failed", zap.Error(err))
				status = http.StatusServiceUnavailable
				body["status"] = "error"
			case !ok:
				status = http.StatusServiceUnavailable
				body["status"] = "uninitialized"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}
