// Copyright 2025 ModelGate
// SPDX-License-Identifier: Apache-2.0

// Package admin serves the platform-wide stats rollup for the admin screen.
package admin

import (
	"context"
	"fmt"
	"time"

	"modelgate/platform/gateway/usage"
)

// Stats is the platform-wide rollup across all users
type Stats struct {
	TotalUsers    int       `json:"total_users"`
	PendingUsers  int       `json:"pending_users"`
	ActiveKeys    int       `json:"active_keys"`
	TotalRequests int64     `json:"total_requests"`
	TotalTokens   int64     `json:"total_tokens"`
	TotalCost     float64   `json:"total_cost"`
	GeneratedAt   time.Time `json:"generated_at"`
}

// UsageTotals is the ledger-wide accumulation in storage units
type UsageTotals struct {
	CostMicros int64
	Requests   int64
	Tokens     int64
}

// Repository defines the cross-table reads behind the stats rollup
type Repository interface {
	// CountUsersByRole returns user counts keyed by role
	CountUsersByRole(ctx context.Context) (map[string]int, error)

	// CountActiveKeys returns the number of active API keys
	CountActiveKeys(ctx context.Context) (int, error)

	// UsageTotals returns ledger-wide totals across all users
	UsageTotals(ctx context.Context) (UsageTotals, error)
}

// Service assembles admin stats
type Service struct {
	repo Repository
}

// NewService creates a new admin service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetStats assembles the platform-wide rollup
func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	byRole, err := s.repo.CountUsersByRole(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	activeKeys, err := s.repo.CountActiveKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count keys: %w", err)
	}

	totals, err := s.repo.UsageTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read usage totals: %w", err)
	}

	totalUsers := 0
	for _, count := range byRole {
		totalUsers += count
	}

	return &Stats{
		TotalUsers:    totalUsers,
		PendingUsers:  byRole["pending"],
		ActiveKeys:    activeKeys,
		TotalRequests: totals.Requests,
		TotalTokens:   totals.Tokens,
		TotalCost:     float64(totals.CostMicros) / usage.MicrosPerDollar,
		GeneratedAt:   time.Now().UTC(),
	}, nil
}
