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

// CreatePlan inserts a new workout plan and returns it.
func (db *DB) CreatePlan(ctx context.Context, name string) (model.Plan, error) {
	plan := model.Plan{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO plans (id, name, created_at) VALUES ($1, $2, $3)`,
		plan.ID, plan.Name, plan.CreatedAt,
	)
	if err != nil {
		return model.Plan{}, fmt.Errorf("storage: create plan: %w", err)
	}
	return plan, nil
}

// GetPlan retrieves a plan by ID.
func (db *DB) GetPlan(ctx context.Context, id uuid.UUID) (model.Plan, error) {
	var plan model.Plan
	err := db.pool.QueryRow(ctx,
		`SELECT id, name, created_at FROM plans WHERE id = $1`, id,
	).Scan(&plan.ID, &plan.Name, &plan.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Plan{}, ErrNotFound
		}
		return model.Plan{}, fmt.Errorf("storage: get plan: %w", err)
	}
	return plan, nil
}

// PlanByName retrieves the newest plan with the given name.
func (db *DB) PlanByName(ctx context.Context, name string) (model.Plan, error) {
	var plan model.Plan
	err := db.pool.QueryRow(ctx,
		`SELECT id, name, created_at FROM plans WHERE name = $1
		 ORDER BY created_at DESC LIMIT 1`, name,
	).Scan(&plan.ID, &plan.Name, &plan.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Plan{}, ErrNotFound
		}
		return model.Plan{}, fmt.Errorf("storage: plan by name: %w", err)
	}
	return plan, nil
}

// AddPlanExercise appends a canonical exercise to a plan day.
func (db *DB) AddPlanExercise(ctx context.Context, ex model.Exercise) (model.Exercise, error) {
	if ex.ID == uuid.Nil {
		ex.ID = uuid.New()
	}
	if ex.Aliases == nil {
		ex.Aliases = []string{}
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO plan_exercises (id, plan_id, name, day_of_week, aliases, position)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		ex.ID, ex.PlanID, ex.Name, ex.DayOfWeek, ex.Aliases, ex.Position,
	)
	if err != nil {
		return model.Exercise{}, fmt.Errorf("storage: add plan exercise: %w", err)
	}
	return ex, nil
}

// DayExercises returns the plan's exercises for a day of week (1=Monday ..
// 7=Sunday), in plan position order.
func (db *DB) DayExercises(ctx context.Context, planID uuid.UUID, dayOfWeek int) ([]model.Exercise, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, plan_id, name, day_of_week, aliases, position
		 FROM plan_exercises
		 WHERE plan_id = $1 AND day_of_week = $2
		 ORDER BY position`,
		planID, dayOfWeek,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: day exercises: %w", err)
	}
	defer rows.Close()

	var exercises []model.Exercise
	for rows.Next() {
		var ex model.Exercise
		if err := rows.Scan(&ex.ID, &ex.PlanID, &ex.Name, &ex.DayOfWeek, &ex.Aliases, &ex.Position); err != nil {
			return nil, fmt.Errorf("storage: scan plan exercise: %w", err)
		}
		exercises = append(exercises, ex)
	}
	return exercises, rows.Err()
}

// PlanExercises returns every exercise in a plan, ordered by day then position.
func (db *DB) PlanExercises(ctx context.Context, planID uuid.UUID) ([]model.Exercise, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, plan_id, name, day_of_week, aliases, position
		 FROM plan_exercises
		 WHERE plan_id = $1
		 ORDER BY day_of_week, position`,
		planID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: plan exercises: %w", err)
	}
	defer rows.Close()

	var exercises []model.Exercise
	for rows.Next() {
		var ex model.Exercise
		if err := rows.Scan(&ex.ID, &ex.PlanID, &ex.Name, &ex.DayOfWeek, &ex.Aliases, &ex.Position); err != nil {
			return nil, fmt.Errorf("storage: scan plan exercise: %w", err)
		}
		exercises = append(exercises, ex)
	}
	return exercises, rows.Err()
}
