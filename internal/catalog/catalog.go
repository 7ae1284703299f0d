// Package catalog provides cached read access to the plan's canonical
// exercise table. The parser and the MCP tools hit it on every request, so
// lookups are cached briefly and concurrent refreshes are deduplicated.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/thorfit/thor/internal/model"
)

// Source is the storage dependency. *storage.DB implements it.
type Source interface {
	DayExercises(ctx context.Context, planID uuid.UUID, dayOfWeek int) ([]model.Exercise, error)
	PlanExercises(ctx context.Context, planID uuid.UUID) ([]model.Exercise, error)
}

// Catalog caches per-day exercise lists for a single plan.
type Catalog struct {
	source Source
	planID uuid.UUID
	ttl    time.Duration
	logger *slog.Logger

	group singleflight.Group

	mu      sync.RWMutex
	byDay   map[int][]model.Exercise
	fetched map[int]time.Time
}

// New creates a Catalog for one plan. ttl <= 0 disables expiry checks and
// caches indefinitely.
func New(source Source, planID uuid.UUID, ttl time.Duration, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{
		source:  source,
		planID:  planID,
		ttl:     ttl,
		logger:  logger,
		byDay:   make(map[int][]model.Exercise),
		fetched: make(map[int]time.Time),
	}
}

// PlanID returns the plan this catalog serves.
func (c *Catalog) PlanID() uuid.UUID {
	return c.planID
}

// DayExercises returns the plan's exercises for a day of week (1=Monday ..
// 7=Sunday). Concurrent cache misses for the same day are deduplicated so
// only one query runs; all waiters share its result.
func (c *Catalog) DayExercises(ctx context.Context, planID uuid.UUID, dayOfWeek int) ([]model.Exercise, error) {
	if planID != c.planID {
		return nil, fmt.Errorf("catalog: unknown plan %s", planID)
	}
	if dayOfWeek < 1 || dayOfWeek > 7 {
		return nil, fmt.Errorf("catalog: day_of_week %d out of range", dayOfWeek)
	}

	c.mu.RLock()
	exercises, ok := c.byDay[dayOfWeek]
	fresh := ok && (c.ttl <= 0 || time.Since(c.fetched[dayOfWeek]) < c.ttl)
	c.mu.RUnlock()
	if fresh {
		return exercises, nil
	}

	// Use context.Background() for the shared fetch: singleflight reuses the
	// first caller's context, and its cancellation would fail all waiters.
	result, err, _ := c.group.Do(fmt.Sprintf("day-%d", dayOfWeek), func() (any, error) {
		fetched, err := c.source.DayExercises(context.Background(), c.planID, dayOfWeek)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.byDay[dayOfWeek] = fetched
		c.fetched[dayOfWeek] = time.Now()
		c.mu.Unlock()
		c.logger.Debug("catalog refreshed", "plan_id", c.planID, "day_of_week", dayOfWeek, "count", len(fetched))
		return fetched, nil
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: day exercises: %w", err)
	}
	return result.([]model.Exercise), nil
}

// AllExercises returns every exercise in the plan across all seven days,
// ordered by day then position. It bypasses the per-day cache; week-wide
// renders are rare enough that only concurrent calls are deduplicated.
func (c *Catalog) AllExercises(ctx context.Context) ([]model.Exercise, error) {
	result, err, _ := c.group.Do("all", func() (any, error) {
		return c.source.PlanExercises(context.Background(), c.planID)
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: plan exercises: %w", err)
	}
	return result.([]model.Exercise), nil
}
