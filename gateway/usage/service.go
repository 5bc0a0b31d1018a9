// Copyright 2025 ModelGate
// SPDX-License-Identifier: Apache-2.0

package usage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"modelgate/platform/shared/logger"
)

// DefaultRangeDays is the lookback window when a caller supplies no range
const DefaultRangeDays = 7

// Service provides ledger writes and cost aggregation.
// It holds no mutable state of its own, so concurrent calls for different
// users never interfere.
type Service struct {
	repo Repository
	log  *logger.Logger
}

// NewService creates a new usage service
func NewService(repo Repository, log *logger.Logger) *Service {
	if log == nil {
		log = logger.New("usage")
	}
	return &Service{repo: repo, log: log}
}

// Record validates and appends one ledger entry. Missing id, timestamp, and
// total token count are filled in; everything else is taken as-is.
func (s *Service) Record(ctx context.Context, entry *Entry) error {
	if entry == nil || entry.UserID == "" || entry.Model == "" {
		return ErrInvalidInput
	}
	if entry.CostMicros < 0 {
		return ErrNegativeCost
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.TotalTokens == 0 {
		entry.TotalTokens = entry.InputTokens + entry.OutputTokens
	}

	if err := s.repo.Append(ctx, entry); err != nil {
		s.log.Error(entry.UserID, "", "Failed to append usage entry", map[string]interface{}{
			"model": entry.Model,
			"error": err.Error(),
		})
		return fmt.Errorf("failed to record usage: %w", err)
	}

	return nil
}

// DefaultRange returns the range used when the caller supplies none:
// the last seven days ending now.
func DefaultRange(now time.Time) (time.Time, time.Time) {
	return now.Add(-DefaultRangeDays * 24 * time.Hour), now
}

// Summarize aggregates a user's ledger slice over [start, end] inclusive.
// The daily series contains one bucket per calendar day in the range, in
// chronological order, including days with no activity. The derivation is
// pure: calling it twice on an unchanged ledger returns identical results.
func (s *Service) Summarize(ctx context.Context, userID string, start, end time.Time) (*Summary, error) {
	if start.After(end) {
		return nil, ErrInvalidRange
	}

	entries, err := s.repo.ListRange(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}

	// Totals accumulate in microdollars; conversion to dollars happens once
	// at the end so bucket costs sum exactly to the total.
	var totalMicros, totalTokens int64

	type dayAccum struct {
		micros   int64
		requests int
		tokens   int64
	}
	days := make(map[string]*dayAccum)

	type modelAccum struct {
		micros   int64
		requests int
	}
	perModel := make(map[string]*modelAccum)

	for i := range entries {
		e := &entries[i]
		totalMicros += e.CostMicros
		totalTokens += int64(e.TotalTokens)

		dayKey := e.CreatedAt.UTC().Format("2006-01-02")
		if days[dayKey] == nil {
			days[dayKey] = &dayAccum{}
		}
		days[dayKey].micros += e.CostMicros
		days[dayKey].requests++
		days[dayKey].tokens += int64(e.TotalTokens)

		if perModel[e.Model] == nil {
			perModel[e.Model] = &modelAccum{}
		}
		perModel[e.Model].micros += e.CostMicros
		perModel[e.Model].requests++
	}

	// One bucket per calendar day, zero-seeded, chronological
	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	endDay := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)

	var series []DailyBucket
	for d := startDay; !d.After(endDay); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		bucket := DailyBucket{Date: key}
		if acc, ok := days[key]; ok {
			bucket.Cost = float64(acc.micros) / MicrosPerDollar
			bucket.Requests = acc.requests
			bucket.Tokens = acc.tokens
		}
		series = append(series, bucket)
	}

	totalCost := float64(totalMicros) / MicrosPerDollar

	breakdown := make([]ModelBreakdown, 0, len(perModel))
	for model, acc := range perModel {
		cost := float64(acc.micros) / MicrosPerDollar
		percentage := 0.0
		if totalCost > 0 {
			percentage = cost / totalCost * 100
		}
		breakdown = append(breakdown, ModelBreakdown{
			Model:      model,
			Cost:       cost,
			Requests:   acc.requests,
			Percentage: percentage,
		})
	}
	sort.Slice(breakdown, func(i, j int) bool {
		if breakdown[i].Cost != breakdown[j].Cost {
			return breakdown[i].Cost > breakdown[j].Cost
		}
		return breakdown[i].Model < breakdown[j].Model
	})

	// Entries arrive newest first from the repository
	limit := RecentRequestLimit
	if len(entries) < limit {
		limit = len(entries)
	}
	recent := make([]RecentRequest, 0, limit)
	for _, e := range entries[:limit] {
		recent = append(recent, RecentRequest{
			ID:           e.ID,
			Model:        e.Model,
			InputTokens:  e.InputTokens,
			OutputTokens: e.OutputTokens,
			Cost:         float64(e.CostMicros) / MicrosPerDollar,
			Success:      e.Success,
			CreatedAt:    e.CreatedAt,
		})
	}

	return &Summary{
		TotalCost:      totalCost,
		TotalRequests:  len(entries),
		TotalTokens:    totalTokens,
		DailySeries:    series,
		ModelBreakdown: breakdown,
		RecentRequests: recent,
		StartTime:      start,
		EndTime:        end,
	}, nil
}

// IsHealthy checks if the backing store is reachable
func (s *Service) IsHealthy(ctx context.Context) bool {
	return s.repo.Ping(ctx) == nil
}
