// Copyright 2025 ModelGate
// SPDX-License-Identifier: Apache-2.0

package usage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Append writes one ledger entry
func (r *PostgresRepository) Append(ctx context.Context, entry *Entry) error {
	query := `
		INSERT INTO usage_logs (
			id, user_id, api_key_id, model, provider,
			input_tokens, output_tokens, total_tokens, cost_micros,
			latency_ms, success, error_message, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.UserID, nullString(entry.APIKeyID),
		entry.Model, entry.Provider,
		entry.InputTokens, entry.OutputTokens, entry.TotalTokens,
		entry.CostMicros, nullInt64(entry.LatencyMs),
		entry.Success, nullString(entry.ErrorMessage), entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append usage entry: %w", err)
	}

	return nil
}

// ListRange returns a user's entries in [start, end], newest first
func (r *PostgresRepository) ListRange(ctx context.Context, userID string, start, end time.Time) ([]Entry, error) {
	query := `
		SELECT id, user_id, api_key_id, model, provider,
			   input_tokens, output_tokens, total_tokens, cost_micros,
			   latency_ms, success, error_message, created_at
		FROM usage_logs
		WHERE user_id = $1 AND created_at >= $2 AND created_at <= $3
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list usage entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var apiKeyID, errorMessage sql.NullString
		var latencyMs sql.NullInt64

		if err := rows.Scan(
			&entry.ID, &entry.UserID, &apiKeyID, &entry.Model, &entry.Provider,
			&entry.InputTokens, &entry.OutputTokens, &entry.TotalTokens,
			&entry.CostMicros, &latencyMs, &entry.Success, &errorMessage,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan usage entry: %w", err)
		}

		entry.APIKeyID = apiKeyID.String
		entry.ErrorMessage = errorMessage.String
		entry.LatencyMs = latencyMs.Int64

		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate usage entries: %w", err)
	}

	return entries, nil
}

// Ping verifies the database connection
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// nullString converts an empty string to NULL for database insertion
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// nullInt64 converts a zero value to NULL for database insertion
func nullInt64(n int64) sql.NullInt64 {
	return sql.NullInt64{Int64: n, Valid: n != 0}
}
