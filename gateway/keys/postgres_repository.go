// Copyright 2025 ModelGate
// SPDX-License-Identifier: Apache-2.0

package keys

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

// Insert stores a new key record
func (r *PostgresRepository) Insert(ctx context.Context, key *APIKey) error {
	query := `
		INSERT INTO api_keys (
			id, user_id, name, key_hash, key_prefix, proxy_token,
			active, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		key.ID, key.UserID, key.Name, key.KeyHash, key.KeyPrefix,
		nullString(key.ProxyToken), key.Active, key.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert api key: %w", err)
	}

	return nil
}

// Get returns a key by id, scoped to its owner
func (r *PostgresRepository) Get(ctx context.Context, id, userID string) (*APIKey, error) {
	query := `
		SELECT id, user_id, name, key_hash, key_prefix, proxy_token,
			   active, created_at, revoked_at
		FROM api_keys
		WHERE id = $1 AND user_id = $2
	`

	var key APIKey
	var proxyToken sql.NullString
	var revokedAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&key.ID, &key.UserID, &key.Name, &key.KeyHash, &key.KeyPrefix,
		&proxyToken, &key.Active, &key.CreatedAt, &revokedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get api key: %w", err)
	}

	key.ProxyToken = proxyToken.String
	if revokedAt.Valid {
		t := revokedAt.Time
		key.RevokedAt = &t
	}

	return &key, nil
}

// ListByUser returns a user's keys, newest first
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]APIKey, error) {
	query := `
		SELECT id, user_id, name, key_hash, key_prefix, proxy_token,
			   active, created_at, revoked_at
		FROM api_keys
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}
	defer rows.Close()

	var result []APIKey
	for rows.Next() {
		var key APIKey
		var proxyToken sql.NullString
		var revokedAt sql.NullTime

		if err := rows.Scan(
			&key.ID, &key.UserID, &key.Name, &key.KeyHash, &key.KeyPrefix,
			&proxyToken, &key.Active, &key.CreatedAt, &revokedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan api key: %w", err)
		}

		key.ProxyToken = proxyToken.String
		if revokedAt.Valid {
			t := revokedAt.Time
			key.RevokedAt = &t
		}

		result = append(result, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate api keys: %w", err)
	}

	return result, nil
}

// Deactivate marks an active key revoked
func (r *PostgresRepository) Deactivate(ctx context.Context, id, userID string, revokedAt time.Time) error {
	query := `
		UPDATE api_keys
		SET active = false, revoked_at = $1
		WHERE id = $2 AND user_id = $3 AND active = true
	`

	result, err := r.db.ExecContext(ctx, query, revokedAt, id, userID)
	if err != nil {
		return fmt.Errorf("failed to revoke api key: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check revoke result: %w", err)
	}
	if affected == 0 {
		return ErrKeyNotFound
	}

	return nil
}

// nullString converts an empty string to NULL for database insertion
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
