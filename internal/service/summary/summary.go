// Package summary generates and stores end-of-day recaps: the day's
// workouts, meals, and health events composed into a prompt for the
// complex-tier LLM.
package summary

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/thorfit/thor/internal/llm"
	"github.com/thorfit/thor/internal/model"
)

const summarySystemPrompt = `You write short end-of-day fitness recaps.
Given the day's workouts, meals, and health events, produce 2-4 sentences:
what was trained, how eating went, and anything health-related worth
flagging. Plain text, no markdown, no bullet lists.`

// retryAttempts is the completion retry budget for a summary run.
const retryAttempts = 2

// Store is the persistence surface. *storage.DB implements it.
type Store interface {
	ExerciseLogsByDate(ctx context.Context, planID uuid.UUID, logDate time.Time) ([]model.ExerciseLog, error)
	MealsByDate(ctx context.Context, mealDate time.Time) ([]model.Meal, error)
	HealthEventsByDate(ctx context.Context, date time.Time) ([]model.HealthEvent, error)
	UpsertDailySummary(ctx context.Context, summaryDate time.Time, content, modelName, provider string) (model.DailySummary, error)
	DailySummaryByDate(ctx context.Context, summaryDate time.Time) (model.DailySummary, error)
}

// ProviderSource resolves the completion provider for a run. The
// orchestrator's tier plumbing supplies it so summaries follow the
// configured complex tier.
type ProviderSource func(ctx context.Context) (llm.Provider, error)

// Service generates daily summaries.
type Service struct {
	store      Store
	planID     uuid.UUID
	provider   ProviderSource
	retryDelay time.Duration
	logger     *slog.Logger
}

func New(store Store, planID uuid.UUID, provider ProviderSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:      store,
		planID:     planID,
		provider:   provider,
		retryDelay: 2 * time.Second,
		logger:     logger,
	}
}

// Run composes the day's data, asks the LLM for a recap, and stores it.
// The completion is retried once on failure; a day with no data stores a
// fixed line without calling the LLM.
func (s *Service) Run(ctx context.Context, date time.Time) (model.DailySummary, error) {
	logs, err := s.store.ExerciseLogsByDate(ctx, s.planID, date)
	if err != nil {
		return model.DailySummary{}, fmt.Errorf("summary: load workouts: %w", err)
	}
	meals, err := s.store.MealsByDate(ctx, date)
	if err != nil {
		return model.DailySummary{}, fmt.Errorf("summary: load meals: %w", err)
	}
	events, err := s.store.HealthEventsByDate(ctx, date)
	if err != nil {
		return model.DailySummary{}, fmt.Errorf("summary: load health events: %w", err)
	}

	if len(logs) == 0 && len(meals) == 0 && len(events) == 0 {
		s.logger.Info("no activity for summary date", "date", date.Format("2006-01-02"))
		return s.store.UpsertDailySummary(ctx, date, "No activity logged.", "none", "heuristic")
	}

	provider, err := s.provider(ctx)
	if err != nil {
		return model.DailySummary{}, fmt.Errorf("summary: provider: %w", err)
	}

	resp, err := llm.CompleteWithRetry(ctx, provider, llm.Request{
		System: summarySystemPrompt,
		Messages: []llm.Message{{
			Role:    llm.RoleUser,
			Content: composeDay(date, logs, meals, events),
		}},
	}, retryAttempts, s.retryDelay)
	if err != nil {
		return model.DailySummary{}, fmt.Errorf("summary: completion: %w", err)
	}

	stored, err := s.store.UpsertDailySummary(ctx, date, resp.Content, provider.Model(), provider.Name())
	if err != nil {
		return model.DailySummary{}, err
	}
	s.logger.Info("daily summary stored",
		"date", date.Format("2006-01-02"), "model", provider.Model(), "provider", provider.Name())
	return stored, nil
}

// composeDay renders the day's records as the user prompt.
func composeDay(date time.Time, logs []model.ExerciseLog, meals []model.Meal, events []model.HealthEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Date: %s\n\n", date.Format("Monday, January 2 2006"))

	b.WriteString("Workouts:\n")
	if len(logs) == 0 {
		b.WriteString("- none\n")
	}
	for _, l := range logs {
		fmt.Fprintf(&b, "- %s", l.Exercise)
		if l.Sets != nil && l.Reps != nil {
			fmt.Fprintf(&b, " %dx%d", *l.Sets, *l.Reps)
		}
		if l.WeightLbs != nil {
			fmt.Fprintf(&b, " @%g lbs", *l.WeightLbs)
		}
		if l.Notes != nil && *l.Notes != "" {
			fmt.Fprintf(&b, " (%s)", *l.Notes)
		}
		b.WriteString("\n")
	}

	b.WriteString("\nMeals:\n")
	if len(meals) == 0 {
		b.WriteString("- none\n")
	}
	for _, m := range meals {
		fmt.Fprintf(&b, "- %s: %s\n", m.MealType, m.Description)
	}

	b.WriteString("\nHealth events:\n")
	if len(events) == 0 {
		b.WriteString("- none\n")
	}
	for _, e := range events {
		fmt.Fprintf(&b, "- %s: %s\n", e.EventType, e.Description)
	}
	return b.String()
}
