package thor

import (
	"log/slog"

	"github.com/thorfit/thor/internal/agent"
)

// Option configures an App.
type Option func(*resolvedOptions)

// resolvedOptions holds all extension points after applying defaults.
// Unexported — callers use the With* functions.
type resolvedOptions struct {
	port         int
	databaseURL  string
	llmStorePath string
	logger       *slog.Logger
	version      string
	newProvider  agent.ProviderFunc
}

// WithPort overrides the TCP port from config (THOR_PORT env var).
func WithPort(port int) Option {
	return func(o *resolvedOptions) { o.port = port }
}

// WithDatabaseURL overrides the database connection string from config (DATABASE_URL env var).
func WithDatabaseURL(url string) Option {
	return func(o *resolvedOptions) { o.databaseURL = url }
}

// WithLLMStorePath overrides the SQLite tier-config store location (THOR_LLM_STORE_PATH env var).
func WithLLMStorePath(path string) Option {
	return func(o *resolvedOptions) { o.llmStorePath = path }
}

// WithLogger sets the structured logger for the App.
// If not set, the default slog logger is used.
func WithLogger(logger *slog.Logger) Option {
	return func(o *resolvedOptions) { o.logger = logger }
}

// WithVersion sets the version string reported in the health endpoint and logs.
func WithVersion(version string) Option {
	return func(o *resolvedOptions) { o.version = version }
}

// WithProviderFactory replaces the built-in LLM provider constructor.
// The factory is used for every tier, the workout extractor, and the daily
// summary service — useful for tests and for routing to custom backends.
func WithProviderFactory(fn agent.ProviderFunc) Option {
	return func(o *resolvedOptions) { o.newProvider = fn }
}
