package llm

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store is the runtime LLM tier configuration. It is seeded from static
// defaults at construction, persisted in a small local SQLite database so
// administrative updates survive restarts, and read on every ModelSelection.
//
// Reads and writes go through an in-process cache guarded by a RWMutex:
// concurrent request handlers may read while an admin update is in flight,
// and each request sees a consistent snapshot of one tier's config.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	mu    sync.RWMutex
	cache map[Tier]TierConfig
}

// OpenStore opens (creating if needed) the tier config database at path and
// seeds any missing tiers from defaults. Existing rows win over defaults.
func OpenStore(path string, defaults map[Tier]TierConfig, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("llm: open config store: %w", err)
	}
	// A single connection avoids SQLITE_BUSY on concurrent admin writes.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS llm_config (
			tier TEXT PRIMARY KEY,
			provider TEXT NOT NULL,
			model TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("llm: create llm_config table: %w", err)
	}

	s := &Store{db: db, logger: logger, cache: make(map[Tier]TierConfig)}

	for tier, cfg := range defaults {
		if _, err := db.ExecContext(ctx,
			`INSERT OR IGNORE INTO llm_config (tier, provider, model) VALUES (?, ?, ?)`,
			string(tier), cfg.Provider, cfg.Model,
		); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("llm: seed tier %s: %w", tier, err)
		}
	}

	if err := s.reload(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// TierConfig returns the provider/model pair serving a tier.
func (s *Store) TierConfig(_ context.Context, tier Tier) (TierConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.cache[tier]
	if !ok {
		return TierConfig{}, fmt.Errorf("llm: no config for tier %q", tier)
	}
	return cfg, nil
}

// SetTierConfig updates a tier. This is the administrative entry point;
// the change takes effect for the next request that selects the tier.
func (s *Store) SetTierConfig(ctx context.Context, tier Tier, cfg TierConfig) error {
	if cfg.Provider != ProviderOllama && cfg.Provider != ProviderOpenAI {
		return fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
	if cfg.Model == "" {
		return fmt.Errorf("llm: model is required")
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO llm_config (tier, provider, model, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(tier) DO UPDATE SET
			provider = excluded.provider,
			model = excluded.model,
			updated_at = CURRENT_TIMESTAMP
	`, string(tier), cfg.Provider, cfg.Model); err != nil {
		return fmt.Errorf("llm: update tier %s: %w", tier, err)
	}

	s.mu.Lock()
	s.cache[tier] = cfg
	s.mu.Unlock()

	s.logger.Info("llm tier config updated",
		"tier", tier, "provider", cfg.Provider, "model", cfg.Model)
	return nil
}

// All returns a snapshot of every configured tier.
func (s *Store) All(_ context.Context) map[Tier]TierConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[Tier]TierConfig, len(s.cache))
	for k, v := range s.cache {
		out[k] = v
	}
	return out
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) reload(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT tier, provider, model FROM llm_config`)
	if err != nil {
		return fmt.Errorf("llm: load config: %w", err)
	}
	defer rows.Close()

	cache := make(map[Tier]TierConfig)
	for rows.Next() {
		var tier, provider, model string
		if err := rows.Scan(&tier, &provider, &model); err != nil {
			return fmt.Errorf("llm: scan config row: %w", err)
		}
		cache[Tier(tier)] = TierConfig{Provider: provider, Model: model}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("llm: iterate config rows: %w", err)
	}

	s.mu.Lock()
	s.cache = cache
	s.mu.Unlock()
	return nil
}
