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

// InsertHealthEvent persists one health log row.
func (db *DB) InsertHealthEvent(ctx context.Context, eventType, description string, occurredAt time.Time) (model.HealthEvent, error) {
	event := model.HealthEvent{
		ID:          uuid.New(),
		EventType:   eventType,
		Description: description,
		OccurredAt:  occurredAt,
		CreatedAt:   time.Now().UTC(),
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO health_events (id, event_type, description, occurred_at, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		event.ID, event.EventType, event.Description, event.OccurredAt, event.CreatedAt,
	)
	if err != nil {
		return model.HealthEvent{}, fmt.Errorf("storage: insert health event: %w", err)
	}
	return event, nil
}

// RecentHealthEvents returns the most recent health events up to limit,
// newest first. eventType filters when non-empty.
func (db *DB) RecentHealthEvents(ctx context.Context, eventType string, limit int) ([]model.HealthEvent, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, event_type, description, occurred_at, created_at
		 FROM health_events
		 WHERE ($1 = '' OR event_type = $1)
		 ORDER BY occurred_at DESC
		 LIMIT $2`,
		eventType, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: recent health events: %w", err)
	}
	defer rows.Close()

	var events []model.HealthEvent
	for rows.Next() {
		var e model.HealthEvent
		if err := rows.Scan(&e.ID, &e.EventType, &e.Description, &e.OccurredAt, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan health event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// HealthEventsByDate returns all health events that occurred on one date.
func (db *DB) HealthEventsByDate(ctx context.Context, date time.Time) ([]model.HealthEvent, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, event_type, description, occurred_at, created_at
		 FROM health_events
		 WHERE occurred_at::date = $1::date
		 ORDER BY occurred_at`,
		date,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: health events by date: %w", err)
	}
	defer rows.Close()

	var events []model.HealthEvent
	for rows.Next() {
		var e model.HealthEvent
		if err := rows.Scan(&e.ID, &e.EventType, &e.Description, &e.OccurredAt, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan health event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// DeleteHealthEvent removes a health event by ID. Returns ErrNotFound when
// no row matched.
func (db *DB) DeleteHealthEvent(ctx context.Context, id uuid.UUID) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM health_events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("storage: delete health event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteLatestHealthEvent removes the most recent health event of a type.
// An empty type deletes the most recent event of any type. Returns the
// deleted event, or ErrNotFound when nothing matched.
func (db *DB) DeleteLatestHealthEvent(ctx context.Context, eventType string) (model.HealthEvent, error) {
	var e model.HealthEvent
	err := db.pool.QueryRow(ctx,
		`DELETE FROM health_events
		 WHERE id = (
			SELECT id FROM health_events
			WHERE ($1 = '' OR event_type = $1)
			ORDER BY occurred_at DESC
			LIMIT 1
		 )
		 RETURNING id, event_type, description, occurred_at, created_at`,
		eventType,
	).Scan(&e.ID, &e.EventType, &e.Description, &e.OccurredAt, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.HealthEvent{}, ErrNotFound
		}
		return model.HealthEvent{}, fmt.Errorf("storage: delete latest health event: %w", err)
	}
	return e, nil
}
