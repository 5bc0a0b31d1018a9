// Copyright 2025 ModelGate
// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// PostgresRepository implements Repository using PostgreSQL.
// Models are stored as a text array; responses as JSONB keyed by model id.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Insert stores a new comparison session
func (r *PostgresRepository) Insert(ctx context.Context, session *Session) error {
	responses, err := json.Marshal(session.Responses)
	if err != nil {
		return fmt.Errorf("failed to marshal responses: %w", err)
	}

	query := `
		INSERT INTO arena_sessions (
			id, user_id, models, prompt, system_prompt, responses, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = r.db.ExecContext(ctx, query,
		session.ID, session.UserID, pq.Array(session.Models),
		session.Prompt, nullString(session.SystemPrompt),
		responses, session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	return nil
}

// Get returns a session by id, scoped to its owner
func (r *PostgresRepository) Get(ctx context.Context, id, userID string) (*Session, error) {
	query := `
		SELECT id, user_id, models, prompt, system_prompt, responses,
			   winner, voted_at, created_at
		FROM arena_sessions
		WHERE id = $1 AND user_id = $2
	`

	var session Session
	var systemPrompt, winner sql.NullString
	var votedAt sql.NullTime
	var responses []byte

	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&session.ID, &session.UserID, pq.Array(&session.Models),
		&session.Prompt, &systemPrompt, &responses,
		&winner, &votedAt, &session.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	session.SystemPrompt = systemPrompt.String
	session.Winner = winner.String
	if votedAt.Valid {
		t := votedAt.Time
		session.VotedAt = &t
	}
	if len(responses) > 0 {
		if err := json.Unmarshal(responses, &session.Responses); err != nil {
			return nil, fmt.Errorf("failed to unmarshal responses: %w", err)
		}
	}

	return &session, nil
}

// SetWinner records the vote on an unvoted session. The WHERE clause makes
// the first vote win: a concurrent second vote matches zero rows.
func (r *PostgresRepository) SetWinner(ctx context.Context, id, userID, winner string, votedAt time.Time) error {
	query := `
		UPDATE arena_sessions
		SET winner = $1, voted_at = $2
		WHERE id = $3 AND user_id = $4 AND winner IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, winner, votedAt, id, userID)
	if err != nil {
		return fmt.Errorf("failed to record vote: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check vote result: %w", err)
	}
	if affected > 0 {
		return nil
	}

	// Zero rows: either the session is gone or it already has a winner
	_, err = r.Get(ctx, id, userID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	return ErrAlreadyVoted
}

// ListRecent returns the user's most recent sessions, newest first
func (r *PostgresRepository) ListRecent(ctx context.Context, userID string, limit int) ([]Session, error) {
	query := `
		SELECT id, user_id, models, prompt, system_prompt, responses,
			   winner, voted_at, created_at
		FROM arena_sessions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var session Session
		var systemPrompt, winner sql.NullString
		var votedAt sql.NullTime
		var responses []byte

		if err := rows.Scan(
			&session.ID, &session.UserID, pq.Array(&session.Models),
			&session.Prompt, &systemPrompt, &responses,
			&winner, &votedAt, &session.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}

		session.SystemPrompt = systemPrompt.String
		session.Winner = winner.String
		if votedAt.Valid {
			t := votedAt.Time
			session.VotedAt = &t
		}
		if len(responses) > 0 {
			if err := json.Unmarshal(responses, &session.Responses); err != nil {
				return nil, fmt.Errorf("failed to unmarshal responses: %w", err)
			}
		}

		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}

	return sessions, nil
}

// nullString converts an empty string to NULL for database insertion
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
