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

// SessionHistory returns the conversation turns stored for a session.
// A missing session yields an empty history, not an error.
func (db *DB) SessionHistory(ctx context.Context, sessionID uuid.UUID) ([]model.ChatMessage, error) {
	var history []model.ChatMessage
	err := db.pool.QueryRow(ctx,
		`SELECT history FROM chat_sessions WHERE id = $1`, sessionID,
	).Scan(&history)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("storage: session history: %w", err)
	}
	return history, nil
}

// SaveSessionHistory upserts a session's full conversation history.
func (db *DB) SaveSessionHistory(ctx context.Context, sessionID uuid.UUID, history []model.ChatMessage) error {
	if history == nil {
		history = []model.ChatMessage{}
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO chat_sessions (id, history, updated_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET history = EXCLUDED.history, updated_at = EXCLUDED.updated_at`,
		sessionID, history, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("storage: save session history: %w", err)
	}
	return nil
}

// ResetSession clears a session's history. Resetting an unknown session is
// a no-op.
func (db *DB) ResetSession(ctx context.Context, sessionID uuid.UUID) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE chat_sessions SET history = '[]'::jsonb, updated_at = $2 WHERE id = $1`,
		sessionID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("storage: reset session: %w", err)
	}
	return nil
}
