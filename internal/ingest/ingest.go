// Package ingest turns freeform workout text into persisted exercise-log
// rows: parse, validate each item against the day's canonical exercises,
// and skip duplicates for the day.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/thorfit/thor/internal/model"
	"github.com/thorfit/thor/internal/parser"
)

// WorkoutParser is the parse dependency. *parser.Parser implements it.
type WorkoutParser interface {
	Parse(ctx context.Context, text string, planID uuid.UUID, dayOfWeek int) ([]model.ParsedLog, error)
}

// Catalog serves the day's canonical exercise entries for match validation.
type Catalog interface {
	PlanID() uuid.UUID
	DayExercises(ctx context.Context, planID uuid.UUID, dayOfWeek int) ([]model.Exercise, error)
}

// Store is the persistence dependency. *storage.DB implements it.
type Store interface {
	InsertExerciseLog(ctx context.Context, planID uuid.UUID, log model.ParsedLog, logDate time.Time) (model.ExerciseLog, error)
	HasExerciseLogForDate(ctx context.Context, planID uuid.UUID, exercise string, logDate time.Time) (bool, error)
}

// Ingestor processes freeform workout submissions.
type Ingestor struct {
	parser  WorkoutParser
	catalog Catalog
	store   Store
	logger  *slog.Logger
}

func New(p WorkoutParser, catalog Catalog, store Store, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{parser: p, catalog: catalog, store: store, logger: logger}
}

// LogWorkoutText parses a freeform workout description and persists one log
// row per recognized exercise. Unknown exercises and same-day duplicates are
// skipped, never inserted; each input item yields exactly one status entry
// in input order.
func (in *Ingestor) LogWorkoutText(ctx context.Context, text string, dayOfWeek int, logDate time.Time) (model.IngestResult, error) {
	planID := in.catalog.PlanID()

	parsed, err := in.parser.Parse(ctx, text, planID, dayOfWeek)
	if err != nil {
		return model.IngestResult{}, fmt.Errorf("ingest: parse: %w", err)
	}

	candidates, err := in.catalog.DayExercises(ctx, planID, dayOfWeek)
	if err != nil {
		return model.IngestResult{}, fmt.Errorf("ingest: day exercises: %w", err)
	}

	result := model.IngestResult{Items: make([]model.IngestItem, 0, len(parsed))}
	for _, log := range parsed {
		match := parser.MatchExercise(log.Exercise, candidates)
		if match.Entry == nil {
			in.logger.Info("skipping unknown exercise", "exercise", log.Exercise)
			result.Items = append(result.Items, model.IngestItem{
				Exercise: log.Exercise,
				Status:   model.IngestStatusSkippedUnknown,
			})
			continue
		}

		log.Exercise = match.CanonicalName
		done, err := in.store.HasExerciseLogForDate(ctx, planID, log.Exercise, logDate)
		if err != nil {
			return model.IngestResult{}, fmt.Errorf("ingest: duplicate check: %w", err)
		}
		if done {
			in.logger.Info("skipping already-logged exercise", "exercise", log.Exercise, "date", logDate.Format("2006-01-02"))
			result.Items = append(result.Items, model.IngestItem{
				Exercise: log.Exercise,
				Status:   model.IngestStatusSkippedAlreadyDone,
			})
			continue
		}

		row, err := in.store.InsertExerciseLog(ctx, planID, log, logDate)
		if err != nil {
			return model.IngestResult{}, fmt.Errorf("ingest: insert log: %w", err)
		}
		result.Items = append(result.Items, model.IngestItem{
			Exercise: log.Exercise,
			Status:   model.IngestStatusLogged,
			LogID:    &row.ID,
		})
	}
	return result, nil
}
