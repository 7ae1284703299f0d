package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/thorfit/thor/internal/auth"
	"github.com/thorfit/thor/internal/ratelimit"
)

// Server is the Thor HTTP server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	handlers   *Handlers
	logger     *slog.Logger
}

// Handler returns the root HTTP handler for use in tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Config holds all dependencies and settings for creating a Server.
// MCPServer is optional; a nil AdminGate disables the admin surface.
type Config struct {
	Handlers    HandlersDeps
	AdminGate   *auth.AdminGate
	MCPServer   *mcpserver.MCPServer
	RateLimiter ratelimit.Limiter

	// OpenAPISpec is the raw YAML served at GET /openapi.yaml. Optional.
	OpenAPISpec []byte

	Port                int
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	MaxRequestBodyBytes int64
}

// New creates a new HTTP server with all routes configured.
func New(cfg Config) *Server {
	h := NewHandlers(cfg.Handlers)
	logger := cfg.Handlers.Logger

	gate := cfg.AdminGate
	if gate == nil {
		gate = auth.NewAdminGate("")
	}
	adminOnly := requireAdmin(gate)

	mux := http.NewServeMux()

	// Health (no auth).
	mux.HandleFunc("GET /health", h.HandleHealth)

	if len(cfg.OpenAPISpec) > 0 {
		mux.HandleFunc("GET /openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/yaml")
			_, _ = w.Write(cfg.OpenAPISpec)
		})
	}

	// Conversational and structured entry points.
	mux.HandleFunc("POST /chat", h.HandleChat)
	mux.HandleFunc("POST /route", h.HandleRoute)

	// Workout pipeline and plan reads.
	mux.HandleFunc("POST /v1/workouts/ingest", h.HandleIngestWorkout)
	mux.HandleFunc("GET /v1/exercises/today", h.HandleTodayExercises)
	mux.HandleFunc("GET /v1/exercises/{day}", h.HandleDayExercises)

	// Daily summaries.
	mux.HandleFunc("GET /v1/summary/daily", h.HandleDailySummary)
	mux.Handle("POST /v1/summary/run", adminOnly(http.HandlerFunc(h.HandleRunSummary)))

	// Runtime LLM tier config (admin).
	mux.Handle("GET /v1/admin/llm-config", adminOnly(http.HandlerFunc(h.HandleGetLLMConfig)))
	mux.Handle("PUT /v1/admin/llm-config", adminOnly(http.HandlerFunc(h.HandlePutLLMConfig)))

	// MCP StreamableHTTP transport.
	if cfg.MCPServer != nil {
		mcpHTTP := mcpserver.NewStreamableHTTPServer(cfg.MCPServer)
		mux.Handle("/mcp", mcpHTTP)
	}

	// Middleware chain (outermost executes first):
	// request ID → tracing → logging → rate limit → recovery → handler.
	var handler http.Handler = mux
	handler = recoveryMiddleware(logger, handler)
	if cfg.MaxRequestBodyBytes > 0 {
		handler = maxBodyMiddleware(cfg.MaxRequestBodyBytes, handler)
	}
	if cfg.RateLimiter != nil {
		handler = ratelimit.Middleware(cfg.RateLimiter, chatRateKey, RequestIDFromContextFn)(handler)
	}
	handler = loggingMiddleware(logger, handler)
	handler = tracingMiddleware(handler)
	handler = requestIDMiddleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		handler:  handler,
		handlers: h,
		logger:   logger,
	}
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}
