package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/thorfit/thor/internal/model"
)

// InsertMeal persists one nutrition row.
func (db *DB) InsertMeal(ctx context.Context, mealType, description string, calories *int, mealDate time.Time) (model.Meal, error) {
	meal := model.Meal{
		ID:          uuid.New(),
		MealType:    mealType,
		Description: description,
		Calories:    calories,
		MealDate:    mealDate,
		CreatedAt:   time.Now().UTC(),
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO meals (id, meal_type, description, calories, meal_date, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		meal.ID, meal.MealType, meal.Description, meal.Calories, meal.MealDate, meal.CreatedAt,
	)
	if err != nil {
		return model.Meal{}, fmt.Errorf("storage: insert meal: %w", err)
	}
	return meal, nil
}

// MealsByDate returns all meals for one date, oldest first.
func (db *DB) MealsByDate(ctx context.Context, mealDate time.Time) ([]model.Meal, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, meal_type, description, calories, meal_date, created_at
		 FROM meals WHERE meal_date = $1
		 ORDER BY created_at`,
		mealDate,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: meals by date: %w", err)
	}
	defer rows.Close()

	var meals []model.Meal
	for rows.Next() {
		var m model.Meal
		if err := rows.Scan(&m.ID, &m.MealType, &m.Description, &m.Calories, &m.MealDate, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan meal: %w", err)
		}
		meals = append(meals, m)
	}
	return meals, rows.Err()
}

// RecentMeals returns the most recent meals up to limit, newest first.
func (db *DB) RecentMeals(ctx context.Context, limit int) ([]model.Meal, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, meal_type, description, calories, meal_date, created_at
		 FROM meals
		 ORDER BY meal_date DESC, created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: recent meals: %w", err)
	}
	defer rows.Close()

	var meals []model.Meal
	for rows.Next() {
		var m model.Meal
		if err := rows.Scan(&m.ID, &m.MealType, &m.Description, &m.Calories, &m.MealDate, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan meal: %w", err)
		}
		meals = append(meals, m)
	}
	return meals, rows.Err()
}
