package metrics

import (
	"log"
	"net/http"
	"net/http/pprof"
	"os"
)

// DebugServerConfig configures the localhost-only metrics/pprof server.
type DebugServerConfig struct {
	Enabled    bool
	ListenAddr string // anything but "127.0.0.1:6060" or "localhost:6060" is replaced by "127.0.0.1:6060" unless ALLOW_DEBUG_EXTERNAL=true
}

// DefaultDebugServerConfig returns the safe default: enabled, bound to
// localhost only.
func DefaultDebugServerConfig() DebugServerConfig {
	return DebugServerConfig{
		Enabled:    true,
		ListenAddr: "127.0.0.1:6060",
	}
}

// StartDebugServer starts the metrics/pprof/health server in the
// background. It forces a localhost bind unless ALLOW_DEBUG_EXTERNAL=true
// is set, since pprof's profile/trace endpoints are themselves a DoS
// surface if reachable from outside.
func StartDebugServer(cfg DebugServerConfig) {
	if !cfg.Enabled {
		return
	}
	if cfg.ListenAddr != "127.0.0.1:6060" && cfg.ListenAddr != "localhost:6060" {
		if os.Getenv("ALLOW_DEBUG_EXTERNAL") != "true" {
			log.Printf("metrics: forcing debug server to localhost (was %q)", cfg.ListenAddr)
			cfg.ListenAddr = "127.0.0.1:6060"
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/metrics", Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	go func() {
		log.Printf("metrics: debug server listening on %s", cfg.ListenAddr)
		if err := http.ListenAndServe(cfg.ListenAddr, mux); err != nil {
			log.Printf("metrics: debug server stopped: %v", err)
		}
	}()
}
