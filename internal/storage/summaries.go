package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/thorfit/thor/internal/model"
)

// UpsertDailySummary stores the generated recap for one date, replacing any
// earlier run for the same date.
func (db *DB) UpsertDailySummary(ctx context.Context, summaryDate time.Time, content, modelName, provider string) (model.DailySummary, error) {
	s := model.DailySummary{
		ID:          uuid.New(),
		SummaryDate: summaryDate,
		Content:     content,
		Model:       modelName,
		Provider:    provider,
		CreatedAt:   time.Now().UTC(),
	}
	// The cron job and the manual run endpoint can race on the same date.
	err := WithRetry(ctx, 2, 50*time.Millisecond, func() error {
		return db.pool.QueryRow(ctx,
			`INSERT INTO daily_summaries (id, summary_date, content, model, provider, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (summary_date) DO UPDATE
			 SET content = EXCLUDED.content, model = EXCLUDED.model,
			     provider = EXCLUDED.provider, created_at = EXCLUDED.created_at
			 RETURNING id`,
			s.ID, s.SummaryDate, s.Content, s.Model, s.Provider, s.CreatedAt,
		).Scan(&s.ID)
	})
	if err != nil {
		return model.DailySummary{}, fmt.Errorf("storage: upsert daily summary: %w", err)
	}
	return s, nil
}

// DailySummaryByDate returns the stored recap for one date.
func (db *DB) DailySummaryByDate(ctx context.Context, summaryDate time.Time) (model.DailySummary, error) {
	var s model.DailySummary
	err := db.pool.QueryRow(ctx,
		`SELECT id, summary_date, content, model, provider, created_at
		 FROM daily_summaries WHERE summary_date = $1`,
		summaryDate,
	).Scan(&s.ID, &s.SummaryDate, &s.Content, &s.Model, &s.Provider, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.DailySummary{}, ErrNotFound
		}
		return model.DailySummary{}, fmt.Errorf("storage: daily summary by date: %w", err)
	}
	return s, nil
}
