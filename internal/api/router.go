// Package api exposes a narrow, read-only HTTP and WebSocket surface over
// a running simulation: poll /api/state or /api/stats, or stream state
// over /ws. It never accepts a request that would mutate simulation
// state — combat outcomes must stay a function of (scenario, seed, tick
// count) alone, not of whoever happens to call the API.
//
// Grounded on the teacher's internal/api/router.go: the same chi
// router + CORS + IP rate limiting composition, narrowed from a
// player-management/streaming/Kick-OAuth admin surface down to the
// read-only shape this domain calls for.
package api

import (
	"net/http"
	"time"

	"tacticalcore/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig contains the dependencies needed to construct the HTTP
// router. Designed for dependency injection and testability.
type RouterConfig struct {
	// Engine is the wrapped simulation (required).
	Engine *Engine

	// RateLimiter is an optional pre-configured rate limiter. If nil, one
	// is created from RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is used to build a RateLimiter when RateLimiter is
	// nil. Defaults to DefaultRateLimitConfig if also nil.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins overrides the default allowed origins.
	CORSOrigins []string

	// DisableLogging disables the request logger middleware (useful for
	// benchmarks and quiet test output).
	DisableLogging bool
}

type routerHandlers struct {
	engine *Engine
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// NewRouter opens no listeners, so it is safe to use with
// httptest.NewServer in tests. When cfg.RateLimiter is nil it creates one
// with NewIPRateLimiter, which starts that limiter's cleanup goroutine.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	h := &routerHandlers{engine: cfg.Engine}

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", h.handleGetState)
		r.Get("/stats", h.handleGetStats)
		r.Get("/weapons", h.handleGetWeapons)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}

// metricsMiddleware records request latency and outcome against the route
// pattern (e.g. "/api/state"), never the raw URL, so cardinality stays
// bounded no matter what a caller requests.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		pattern := chi.RouteContext(r.Context()).RoutePattern()
		if pattern == "" {
			pattern = "unmatched"
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.RecordRequest(r.Method, pattern, status, time.Since(start))
	})
}

// GetRateLimiterFromRouter is a helper for tests that need to verify
// rate-limiting behavior against a freshly built configuration.
func GetRateLimiterFromRouter(cfg RouterConfig) *IPRateLimiter {
	if cfg.RateLimiter != nil {
		return cfg.RateLimiter
	}
	rateLimitCfg := DefaultRateLimitConfig
	if cfg.RateLimitConfig != nil {
		rateLimitCfg = *cfg.RateLimitConfig
	}
	return NewIPRateLimiter(rateLimitCfg)
}
