// Copyright 2025 ModelGate
// SPDX-License-Identifier: Apache-2.0

package admin

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// CountUsersByRole returns user counts keyed by role
func (r *PostgresRepository) CountUsersByRole(ctx context.Context) (map[string]int, error) {
	query := `SELECT role, COUNT(*) FROM users GROUP BY role`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var role string
		var count int
		if err := rows.Scan(&role, &count); err != nil {
			return nil, fmt.Errorf("failed to scan user count: %w", err)
		}
		counts[role] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user counts: %w", err)
	}

	return counts, nil
}

// CountActiveKeys returns the number of active API keys
func (r *PostgresRepository) CountActiveKeys(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM api_keys WHERE active = true`

	var count int
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count active keys: %w", err)
	}
	return count, nil
}

// UsageTotals returns ledger-wide totals across all users
func (r *PostgresRepository) UsageTotals(ctx context.Context) (UsageTotals, error) {
	query := `
		SELECT COALESCE(SUM(cost_micros), 0),
			   COUNT(*),
			   COALESCE(SUM(total_tokens), 0)
		FROM usage_logs
	`

	var totals UsageTotals
	err := r.db.QueryRowContext(ctx, query).Scan(&totals.CostMicros, &totals.Requests, &totals.Tokens)
	if err != nil {
		return UsageTotals{}, fmt.Errorf("failed to read usage totals: %w", err)
	}
	return totals, nil
}
