package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Server is the HTTP API server with WebSocket support, combining the
// read-only router with a hub that streams periodic state snapshots.
type Server struct {
	engine      *Engine
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *IPRateLimiter
}

// NewServer creates an API server wrapping engine with default production
// configuration.
//
// No listener is opened until Start is called, so the server can be
// constructed and its Router used with httptest. The IP rate limiter
// created here starts its cleanup goroutine at once.
func NewServer(engine *Engine) *Server {
	s := &Server{engine: engine, wsHub: NewWebSocketHub()}
	s.rateLimiter = NewIPRateLimiter(DefaultRateLimitConfig)
	s.router = NewRouter(RouterConfig{Engine: engine, RateLimiter: s.rateLimiter})
	s.router.Get("/ws", s.handleWS)
	return s
}

// Start begins the simulation's background ticking, the WebSocket hub,
// and the HTTP listener. Call once; the process should exit to stop it.
func (s *Server) Start(addr string) error {
	s.engine.Start()
	go s.wsHub.Run()
	s.wsHub.StartBroadcastLoop(s.engine)
	return http.ListenAndServe(addr, s.router)
}

// Router returns the HTTP handler for use with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Stop performs graceful shutdown of background workers.
func (s *Server) Stop() {
	s.rateLimiter.Stop()
	s.engine.Stop()
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	s.wsHub.HandleWebSocket(w, r)
}
