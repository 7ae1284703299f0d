// Package dispatch maps router classifications to concrete domain handlers.
// Every handler is deterministic except workout logging, which goes through
// the LLM-backed parser inside ingest.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/thorfit/thor/internal/model"
	"github.com/thorfit/thor/internal/router"
	"github.com/thorfit/thor/internal/storage"
)

// Store is the persistence surface the handlers read and write.
// *storage.DB implements it.
type Store interface {
	RecentExerciseLogs(ctx context.Context, planID uuid.UUID, limit int) ([]model.ExerciseLog, error)
	InsertMeal(ctx context.Context, mealType, description string, calories *int, mealDate time.Time) (model.Meal, error)
	MealsByDate(ctx context.Context, mealDate time.Time) ([]model.Meal, error)
	RecentMeals(ctx context.Context, limit int) ([]model.Meal, error)
	InsertHealthEvent(ctx context.Context, eventType, description string, occurredAt time.Time) (model.HealthEvent, error)
	RecentHealthEvents(ctx context.Context, eventType string, limit int) ([]model.HealthEvent, error)
	DeleteLatestHealthEvent(ctx context.Context, eventType string) (model.HealthEvent, error)
	ExerciseLogsByDate(ctx context.Context, planID uuid.UUID, logDate time.Time) ([]model.ExerciseLog, error)
	HealthEventsByDate(ctx context.Context, date time.Time) ([]model.HealthEvent, error)
}

// Catalog serves the plan's exercises for rendering plan queries.
type Catalog interface {
	PlanID() uuid.UUID
	DayExercises(ctx context.Context, planID uuid.UUID, dayOfWeek int) ([]model.Exercise, error)
	AllExercises(ctx context.Context) ([]model.Exercise, error)
}

// Ingestor logs freeform workout text. *ingest.Ingestor implements it.
type Ingestor interface {
	LogWorkoutText(ctx context.Context, text string, dayOfWeek int, logDate time.Time) (model.IngestResult, error)
}

// Dispatcher classifies and handles structured utterances (POST /route).
type Dispatcher struct {
	store    Store
	catalog  Catalog
	ingestor Ingestor
	now      func() time.Time
	logger   *slog.Logger
}

func New(store Store, catalog Catalog, ingestor Ingestor, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		store:    store,
		catalog:  catalog,
		ingestor: ingestor,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger,
	}
}

// Dispatch classifies the utterance and runs the matching handler. Handler
// failures surface as errors; classification itself never fails.
func (d *Dispatcher) Dispatch(ctx context.Context, req model.DispatchRequest) (model.DispatchResponse, error) {
	result := router.Classify(req.Text, req.Mode)
	d.logger.Info("dispatching utterance",
		"target", result.Target, "intent", result.Intent, "confidence", result.Confidence)

	resp := model.DispatchResponse{
		Agent:      result.Target,
		Intent:     result.Intent,
		Confidence: result.Confidence,
		Model:      "none",
		Provider:   "heuristic",
	}

	var err error
	switch result.Intent {
	case model.IntentLogWorkout:
		err = d.logWorkout(ctx, result, &resp)
	case model.IntentGetPlan:
		err = d.getPlan(ctx, result, &resp)
	case model.IntentGetWorkouts:
		err = d.getWorkouts(ctx, &resp)
	case model.IntentUpdateWorkout:
		err = d.updateWorkout(ctx, &resp)
	case model.IntentLogMeal:
		err = d.logMeal(ctx, result, &resp)
	case model.IntentGetMeals:
		err = d.getMeals(ctx, &resp)
	case model.IntentLogEvent:
		err = d.logEvent(ctx, result, &resp)
	case model.IntentGetHealthEvents:
		err = d.getHealthEvents(ctx, result, &resp)
	case model.IntentDeleteHealthEvent:
		err = d.deleteHealthEvent(ctx, result, &resp)
	case model.IntentGetSummary:
		err = d.getSummary(ctx, &resp)
	default:
		err = fmt.Errorf("dispatch: no handler for intent %q", result.Intent)
	}
	if err != nil {
		return model.DispatchResponse{}, err
	}
	return resp, nil
}

func (d *Dispatcher) logWorkout(ctx context.Context, result model.RouterResult, resp *model.DispatchResponse) error {
	now := d.now()
	ingRes, err := d.ingestor.LogWorkoutText(ctx, result.CleanedText, isoWeekday(now), now)
	if err != nil {
		return fmt.Errorf("dispatch: log workout: %w", err)
	}

	// Workout logging rides the parser's LLM tier, not the heuristic path.
	resp.Model = "extractor"
	resp.Provider = "llm"

	var logged, skipped int
	for _, item := range ingRes.Items {
		resp.Actions = append(resp.Actions, model.Action{
			Type: "workout_" + item.Status,
			Detail: map[string]any{
				"exercise": item.Exercise,
			},
		})
		if item.Status == model.IngestStatusLogged {
			logged++
		} else {
			skipped++
		}
	}
	switch {
	case logged == 0 && skipped == 0:
		resp.Message = "I couldn't find any exercises in that."
	case skipped == 0:
		resp.Message = fmt.Sprintf("Logged %d exercise(s).", logged)
	default:
		resp.Message = fmt.Sprintf("Logged %d exercise(s), skipped %d.", logged, skipped)
	}
	return nil
}

func (d *Dispatcher) getPlan(ctx context.Context, result model.RouterResult, resp *model.DispatchResponse) error {
	if wantsFullWeek(result.CleanedText) {
		return d.getWeekPlan(ctx, resp)
	}
	day := namedWeekday(result.CleanedText)
	if day == 0 {
		day = isoWeekday(d.now())
	}
	exercises, err := d.catalog.DayExercises(ctx, d.catalog.PlanID(), day)
	if err != nil {
		return fmt.Errorf("dispatch: get plan: %w", err)
	}

	resp.Actions = append(resp.Actions, model.Action{
		Type:   "fetched_plan",
		Detail: map[string]any{"day_of_week": day, "count": len(exercises)},
	})
	if len(exercises) == 0 {
		resp.Message = "Rest day! No exercises scheduled."
		return nil
	}
	var b strings.Builder
	b.WriteString("Here's what's scheduled:\n")
	for _, ex := range exercises {
		fmt.Fprintf(&b, "- %s\n", ex.Name)
	}
	resp.Message = strings.TrimRight(b.String(), "\n")
	return nil
}

// wantsFullWeek reports whether a plan query asks for the whole week rather
// than a single day.
func wantsFullWeek(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "week") ||
		strings.Contains(lower, "whole plan") ||
		strings.Contains(lower, "full plan")
}

func (d *Dispatcher) getWeekPlan(ctx context.Context, resp *model.DispatchResponse) error {
	exercises, err := d.catalog.AllExercises(ctx)
	if err != nil {
		return fmt.Errorf("dispatch: get week plan: %w", err)
	}
	resp.Actions = append(resp.Actions, model.Action{
		Type:   "fetched_plan",
		Detail: map[string]any{"day_of_week": 0, "count": len(exercises)},
	})
	if len(exercises) == 0 {
		resp.Message = "No exercises scheduled this week."
		return nil
	}

	// AllExercises comes back ordered by day then position.
	var b strings.Builder
	b.WriteString("This week's plan:\n")
	day := 0
	for _, ex := range exercises {
		if ex.DayOfWeek != day {
			day = ex.DayOfWeek
			fmt.Fprintf(&b, "%s:\n", time.Weekday(day%7))
		}
		fmt.Fprintf(&b, "- %s\n", ex.Name)
	}
	resp.Message = strings.TrimRight(b.String(), "\n")
	return nil
}

func (d *Dispatcher) getWorkouts(ctx context.Context, resp *model.DispatchResponse) error {
	logs, err := d.store.RecentExerciseLogs(ctx, d.catalog.PlanID(), 10)
	if err != nil {
		return fmt.Errorf("dispatch: get workouts: %w", err)
	}
	resp.Actions = append(resp.Actions, model.Action{
		Type:   "fetched_workouts",
		Detail: map[string]any{"count": len(logs)},
	})
	if len(logs) == 0 {
		resp.Message = "No workouts logged yet."
		return nil
	}
	var b strings.Builder
	b.WriteString("Recent workouts:\n")
	for _, l := range logs {
		fmt.Fprintf(&b, "- %s %s", l.LogDate.Format("Jan 2"), l.Exercise)
		if l.Sets != nil && l.Reps != nil {
			fmt.Fprintf(&b, " %dx%d", *l.Sets, *l.Reps)
		}
		if l.WeightLbs != nil {
			fmt.Fprintf(&b, " @%g lbs", *l.WeightLbs)
		}
		b.WriteString("\n")
	}
	resp.Message = strings.TrimRight(b.String(), "\n")
	return nil
}

func (d *Dispatcher) updateWorkout(ctx context.Context, resp *model.DispatchResponse) error {
	// Edits are a separate API path; report what was last logged so the
	// caller can correct it there.
	logs, err := d.store.RecentExerciseLogs(ctx, d.catalog.PlanID(), 3)
	if err != nil {
		return fmt.Errorf("dispatch: update workout: %w", err)
	}
	resp.Actions = append(resp.Actions, model.Action{
		Type:   "fetched_workouts",
		Detail: map[string]any{"count": len(logs)},
	})
	if len(logs) == 0 {
		resp.Message = "Nothing logged yet to update."
		return nil
	}
	names := make([]string, 0, len(logs))
	for _, l := range logs {
		names = append(names, l.Exercise)
	}
	resp.Message = fmt.Sprintf("Most recently logged: %s. Use the workouts API to edit an entry.",
		strings.Join(names, ", "))
	return nil
}

func (d *Dispatcher) logMeal(ctx context.Context, result model.RouterResult, resp *model.DispatchResponse) error {
	now := d.now()
	mealType := inferMealType(result.CleanedText, now)
	meal, err := d.store.InsertMeal(ctx, mealType, result.CleanedText, nil, now)
	if err != nil {
		return fmt.Errorf("dispatch: log meal: %w", err)
	}
	resp.Actions = append(resp.Actions, model.Action{
		Type:   "meal_logged",
		Detail: map[string]any{"id": meal.ID.String(), "meal_type": mealType},
	})
	resp.Message = fmt.Sprintf("Logged your %s.", mealType)
	return nil
}

func (d *Dispatcher) getMeals(ctx context.Context, resp *model.DispatchResponse) error {
	meals, err := d.store.MealsByDate(ctx, d.now())
	if err != nil {
		return fmt.Errorf("dispatch: get meals: %w", err)
	}
	resp.Actions = append(resp.Actions, model.Action{
		Type:   "fetched_meals",
		Detail: map[string]any{"count": len(meals)},
	})
	if len(meals) == 0 {
		resp.Message = "No meals logged today."
		return nil
	}
	var b strings.Builder
	b.WriteString("Today's meals:\n")
	for _, m := range meals {
		fmt.Fprintf(&b, "- %s: %s\n", m.MealType, m.Description)
	}
	resp.Message = strings.TrimRight(b.String(), "\n")
	return nil
}

func (d *Dispatcher) logEvent(ctx context.Context, result model.RouterResult, resp *model.DispatchResponse) error {
	eventType := inferEventType(result.CleanedText)
	event, err := d.store.InsertHealthEvent(ctx, eventType, result.CleanedText, d.now())
	if err != nil {
		return fmt.Errorf("dispatch: log event: %w", err)
	}
	resp.Actions = append(resp.Actions, model.Action{
		Type:   "health_event_logged",
		Detail: map[string]any{"id": event.ID.String(), "event_type": eventType},
	})
	resp.Message = fmt.Sprintf("Noted the %s.", eventType)
	return nil
}

func (d *Dispatcher) getHealthEvents(ctx context.Context, result model.RouterResult, resp *model.DispatchResponse) error {
	eventType := inferEventFilter(result.CleanedText)
	events, err := d.store.RecentHealthEvents(ctx, eventType, 10)
	if err != nil {
		return fmt.Errorf("dispatch: get health events: %w", err)
	}
	resp.Actions = append(resp.Actions, model.Action{
		Type:   "fetched_health_events",
		Detail: map[string]any{"count": len(events), "event_type": eventType},
	})
	if len(events) == 0 {
		resp.Message = "No health events recorded."
		return nil
	}
	var b strings.Builder
	b.WriteString("Recent health events:\n")
	for _, e := range events {
		fmt.Fprintf(&b, "- %s %s: %s\n", e.OccurredAt.Format("Jan 2"), e.EventType, e.Description)
	}
	resp.Message = strings.TrimRight(b.String(), "\n")
	return nil
}

func (d *Dispatcher) deleteHealthEvent(ctx context.Context, result model.RouterResult, resp *model.DispatchResponse) error {
	eventType := inferEventFilter(result.CleanedText)
	event, err := d.store.DeleteLatestHealthEvent(ctx, eventType)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			resp.Message = "Nothing to delete."
			return nil
		}
		return fmt.Errorf("dispatch: delete health event: %w", err)
	}
	resp.Actions = append(resp.Actions, model.Action{
		Type:   "health_event_deleted",
		Detail: map[string]any{"id": event.ID.String(), "event_type": event.EventType},
	})
	resp.Message = fmt.Sprintf("Deleted the %s entry from %s.", event.EventType, event.OccurredAt.Format("Jan 2"))
	return nil
}

func (d *Dispatcher) getSummary(ctx context.Context, resp *model.DispatchResponse) error {
	now := d.now()
	var workouts, meals, events int
	for i := range 7 {
		day := now.AddDate(0, 0, -i)
		logs, err := d.store.ExerciseLogsByDate(ctx, d.catalog.PlanID(), day)
		if err != nil {
			return fmt.Errorf("dispatch: summary workouts: %w", err)
		}
		workouts += len(logs)
		dayMeals, err := d.store.MealsByDate(ctx, day)
		if err != nil {
			return fmt.Errorf("dispatch: summary meals: %w", err)
		}
		meals += len(dayMeals)
		dayEvents, err := d.store.HealthEventsByDate(ctx, day)
		if err != nil {
			return fmt.Errorf("dispatch: summary events: %w", err)
		}
		events += len(dayEvents)
	}

	resp.Actions = append(resp.Actions, model.Action{
		Type: "fetched_summary",
		Detail: map[string]any{
			"workouts": workouts, "meals": meals, "health_events": events,
		},
	})
	resp.Message = fmt.Sprintf(
		"Last 7 days: %d exercises logged, %d meals, %d health events.",
		workouts, meals, events,
	)
	return nil
}
