package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/thorfit/thor/internal/model"
)

// InsertExerciseLog persists one workout log row for the given date.
func (db *DB) InsertExerciseLog(ctx context.Context, planID uuid.UUID, log model.ParsedLog, logDate time.Time) (model.ExerciseLog, error) {
	row := model.ExerciseLog{
		ID:        uuid.New(),
		PlanID:    planID,
		Exercise:  log.Exercise,
		Sets:      log.Sets,
		Reps:      log.Reps,
		WeightLbs: log.WeightLbs,
		Notes:     log.Notes,
		LogDate:   logDate,
		CreatedAt: time.Now().UTC(),
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO exercise_logs (id, plan_id, exercise, sets, reps, weight_lbs, notes, log_date, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		row.ID, row.PlanID, row.Exercise, row.Sets, row.Reps, row.WeightLbs, row.Notes, row.LogDate, row.CreatedAt,
	)
	if err != nil {
		return model.ExerciseLog{}, fmt.Errorf("storage: insert exercise log: %w", err)
	}
	return row, nil
}

// HasExerciseLogForDate reports whether an exercise was already logged on
// the given date. Used by ingest to keep freeform submissions idempotent
// within a day.
func (db *DB) HasExerciseLogForDate(ctx context.Context, planID uuid.UUID, exercise string, logDate time.Time) (bool, error) {
	var exists bool
	err := db.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM exercise_logs
			WHERE plan_id = $1 AND lower(exercise) = lower($2) AND log_date = $3
		)`,
		planID, exercise, logDate,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("storage: has exercise log for date: %w", err)
	}
	return exists, nil
}

// ExerciseLogsByDate returns all logs for one date, oldest first.
func (db *DB) ExerciseLogsByDate(ctx context.Context, planID uuid.UUID, logDate time.Time) ([]model.ExerciseLog, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, plan_id, exercise, sets, reps, weight_lbs, notes, log_date, created_at
		 FROM exercise_logs
		 WHERE plan_id = $1 AND log_date = $2
		 ORDER BY created_at`,
		planID, logDate,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: exercise logs by date: %w", err)
	}
	defer rows.Close()
	return scanExerciseLogs(rows)
}

// RecentExerciseLogs returns the most recent logs up to limit, newest first.
func (db *DB) RecentExerciseLogs(ctx context.Context, planID uuid.UUID, limit int) ([]model.ExerciseLog, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, plan_id, exercise, sets, reps, weight_lbs, notes, log_date, created_at
		 FROM exercise_logs
		 WHERE plan_id = $1
		 ORDER BY log_date DESC, created_at DESC
		 LIMIT $2`,
		planID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: recent exercise logs: %w", err)
	}
	defer rows.Close()
	return scanExerciseLogs(rows)
}

func scanExerciseLogs(rows pgx.Rows) ([]model.ExerciseLog, error) {
	var logs []model.ExerciseLog
	for rows.Next() {
		var l model.ExerciseLog
		if err := rows.Scan(&l.ID, &l.PlanID, &l.Exercise, &l.Sets, &l.Reps, &l.WeightLbs, &l.Notes, &l.LogDate, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan exercise log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
