// Package thor is the public API for embedding the Thor fitness assistant
// server.
//
// Consumers import this package to construct and run the server without
// forking it:
//
//	app, err := thor.New(
//	    thor.WithVersion(version),
//	    thor.WithLogger(logger),
//	)
//	if err != nil { ... }
//	if err := app.Run(ctx); err != nil { ... }
//
// The import graph enforces a strict no-cycle rule: thor (root) imports
// internal/*, but internal/* never imports thor (root).
package thor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/thorfit/thor/api"
	"github.com/thorfit/thor/internal/agent"
	"github.com/thorfit/thor/internal/auth"
	"github.com/thorfit/thor/internal/catalog"
	"github.com/thorfit/thor/internal/config"
	"github.com/thorfit/thor/internal/dispatch"
	"github.com/thorfit/thor/internal/ingest"
	"github.com/thorfit/thor/internal/llm"
	"github.com/thorfit/thor/internal/mcp"
	"github.com/thorfit/thor/internal/model"
	"github.com/thorfit/thor/internal/parser"
	"github.com/thorfit/thor/internal/ratelimit"
	"github.com/thorfit/thor/internal/server"
	"github.com/thorfit/thor/internal/service/summary"
	"github.com/thorfit/thor/internal/storage"
	"github.com/thorfit/thor/internal/telemetry"
	"github.com/thorfit/thor/internal/tools"
	"github.com/thorfit/thor/migrations"
)

// App is the Thor server lifecycle. Construct with New(), run with Run().
// App has no public fields — use New() options to configure it.
type App struct {
	cfg          config.Config
	db           *storage.DB
	srv          *server.Server
	llmStore     *llm.Store
	registry     *tools.Registry
	scheduler    *summary.Scheduler
	limiter      ratelimit.Limiter
	otelShutdown func(context.Context) error
	logger       *slog.Logger
	version      string
}

// New initialises the Thor server. It connects to the database, runs
// migrations, wires all subsystems, and returns a ready-to-run App.
// It does NOT start any goroutines or accept HTTP connections — call Run().
func New(opts ...Option) (*App, error) {
	o := resolvedOptions{}
	for _, fn := range opts {
		fn(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	// Load configuration (env vars), then apply option overrides.
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.port != 0 {
		cfg.Port = o.port
	}
	if o.databaseURL != "" {
		cfg.DatabaseURL = o.databaseURL
	}
	if o.llmStorePath != "" {
		cfg.LLMStorePath = o.llmStorePath
	}
	version := o.version
	if version == "" {
		version = "dev"
	}

	logger.Info("thor starting", "version", version, "port", cfg.Port)

	// Initialize OpenTelemetry.
	otelShutdown, err := telemetry.Init(context.Background(), cfg.OTELEndpoint, cfg.ServiceName, version, cfg.OTELInsecure)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	// Connect to database and run migrations.
	db, err := storage.New(context.Background(), cfg.DatabaseURL, logger)
	if err != nil {
		_ = otelShutdown(context.Background())
		return nil, fmt.Errorf("storage: %w", err)
	}
	if err := db.RunMigrations(context.Background(), migrations.FS); err != nil {
		db.Close()
		_ = otelShutdown(context.Background())
		return nil, fmt.Errorf("migrations: %w", err)
	}

	// Resolve the workout plan serving this deployment.
	plan, err := ensurePlan(context.Background(), db, cfg, logger)
	if err != nil {
		db.Close()
		_ = otelShutdown(context.Background())
		return nil, fmt.Errorf("plan: %w", err)
	}

	cat := catalog.New(db, plan.ID, cfg.CatalogTTL, logger)

	// LLM tier store (SQLite) seeded with env defaults.
	llmStore, err := llm.OpenStore(cfg.LLMStorePath, cfg.TierDefaults(), logger)
	if err != nil {
		db.Close()
		_ = otelShutdown(context.Background())
		return nil, fmt.Errorf("llm store: %w", err)
	}

	llmOpts := llm.Options{
		OllamaURL:    cfg.OllamaURL,
		OpenAIAPIKey: cfg.OpenAIAPIKey,
	}
	newProvider := o.newProvider
	if newProvider == nil {
		newProvider = func(tc llm.TierConfig) (llm.Provider, error) {
			return llm.NewProvider(tc, llmOpts)
		}
	}

	// Workout extraction runs on the local model regardless of tier config.
	extractorProvider, err := newProvider(llm.TierConfig{
		Provider: llm.ProviderOllama,
		Model:    cfg.ExtractorModel,
	})
	if err != nil {
		llmStore.Close()
		db.Close()
		_ = otelShutdown(context.Background())
		return nil, fmt.Errorf("extractor provider: %w", err)
	}
	extractor := llm.NewWorkoutExtractor(extractorProvider)

	workoutParser := parser.New(cat, extractor, logger)
	ingestor := ingest.New(workoutParser, cat, db, logger)
	dispatcher := dispatch.New(db, cat, ingestor, logger)

	// MCP server exposing the tool surface, and the registry the agent
	// calls it through.
	mcpSrv := mcp.New(cat, ingestor, db, logger)
	registry := tools.NewRegistry(tools.NewMCPInvoker(cfg.MCPBaseURL, version), logger)

	orchestrator := agent.New(registry, llmStore, cfg.TierDefaults(), agent.Options{
		MaxToolRounds: cfg.MaxToolRounds,
		NewProvider:   newProvider,
		Logger:        logger,
	})

	// Daily summaries always use the complex tier.
	summarySvc := summary.New(db, plan.ID, func(ctx context.Context) (llm.Provider, error) {
		tc, err := llmStore.TierConfig(ctx, llm.TierComplex)
		if err != nil {
			tc = cfg.TierDefaults()[llm.TierComplex]
		}
		return newProvider(tc)
	}, logger)
	scheduler := summary.NewScheduler(summarySvc, logger)

	var limiter ratelimit.Limiter
	if cfg.RateLimitEnabled {
		limiter = ratelimit.NewMemoryLimiter(float64(cfg.RateLimitRPS), cfg.RateLimitBurst)
		logger.Info("rate limiting: memory (in-process token bucket)",
			"rps", cfg.RateLimitRPS, "burst", cfg.RateLimitBurst)
	} else {
		logger.Info("rate limiting: disabled")
	}

	srv := server.New(server.Config{
		Handlers: server.HandlersDeps{
			Orchestrator: orchestrator,
			Dispatcher:   dispatcher,
			Ingestor:     ingestor,
			Catalog:      cat,
			Store:        db,
			Summaries:    summarySvc,
			Tiers:        llmStore,
			Version:      version,
			Logger:       logger,
		},
		AdminGate:           auth.NewAdminGate(cfg.AdminKeyHash),
		MCPServer:           mcpSrv.MCPServer(),
		RateLimiter:         limiter,
		OpenAPISpec:         api.OpenAPISpec,
		Port:                cfg.Port,
		ReadTimeout:         cfg.ReadTimeout,
		WriteTimeout:        cfg.WriteTimeout,
		MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
	})

	return &App{
		cfg:          cfg,
		db:           db,
		srv:          srv,
		llmStore:     llmStore,
		registry:     registry,
		scheduler:    scheduler,
		limiter:      limiter,
		otelShutdown: otelShutdown,
		logger:       logger,
		version:      version,
	}, nil
}

// Run starts the cron scheduler and the HTTP server, then blocks until ctx
// is cancelled or a fatal server error occurs. On return, Shutdown is called
// automatically — callers should not call Shutdown separately.
func (a *App) Run(ctx context.Context) error {
	if a.cfg.SummaryCronSpec != "" {
		if err := a.scheduler.Start(a.cfg.SummaryCronSpec); err != nil {
			return fmt.Errorf("summary scheduler: %w", err)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// The tool registry dials our own /mcp endpoint, so the catalog warmup
	// has to wait until the listener is up.
	go a.warmToolRegistry(ctx)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	return a.Shutdown(context.Background())
}

// warmToolRegistry retries the initial tool list fetch until it succeeds.
// Chat turns that arrive before the first successful refresh still work;
// they just run without tool definitions.
func (a *App) warmToolRegistry(ctx context.Context) {
	for attempt := 1; attempt <= 5; attempt++ {
		refreshCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := a.registry.Refresh(refreshCtx)
		cancel()
		if err == nil {
			a.logger.Info("tool registry ready", "tools", len(a.registry.Definitions()))
			return
		}
		a.logger.Warn("tool registry refresh failed", "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}
	a.logger.Error("tool registry never became ready; chat will run without tools")
}

// Shutdown stops the scheduler, drains in-flight HTTP requests, and closes
// the database pool, LLM store, and OTEL providers.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("thor shutting down")

	a.scheduler.Stop()

	httpCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := a.srv.Shutdown(httpCtx); err != nil {
		a.logger.Error("http shutdown error", "error", err)
	}

	if a.limiter != nil {
		_ = a.limiter.Close()
	}
	if err := a.llmStore.Close(); err != nil {
		a.logger.Error("llm store close error", "error", err)
	}
	_ = a.otelShutdown(context.Background())
	a.db.Close()

	a.logger.Info("thor stopped")
	return nil
}

// ensurePlan resolves the configured plan ID, or finds/creates a plan by
// name when no ID is pinned.
func ensurePlan(ctx context.Context, db *storage.DB, cfg config.Config, logger *slog.Logger) (model.Plan, error) {
	if cfg.PlanID != "" {
		id, err := uuid.Parse(cfg.PlanID)
		if err != nil {
			return model.Plan{}, fmt.Errorf("parse plan id: %w", err)
		}
		plan, err := db.GetPlan(ctx, id)
		if err != nil {
			return model.Plan{}, fmt.Errorf("configured plan %s: %w", id, err)
		}
		return plan, nil
	}

	plan, err := db.PlanByName(ctx, cfg.PlanName)
	if err == nil {
		return plan, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return model.Plan{}, err
	}

	plan, err = db.CreatePlan(ctx, cfg.PlanName)
	if err != nil {
		return model.Plan{}, err
	}
	logger.Info("created workout plan", "plan_id", plan.ID, "name", plan.Name)
	return plan, nil
}
