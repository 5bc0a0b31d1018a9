// Copyright 2025 ModelGate
// SPDX-License-Identifier: Apache-2.0

// Package usage implements the gateway's usage ledger and cost aggregation.
// Every completed (or failed) upstream model call appends one immutable
// ledger entry; summaries are derived on demand from ledger reads.
package usage

import "time"

// Entry is one row of the usage ledger. Entries are append-only: nothing in
// this service mutates or deletes them after the initial write.
// Cost is stored in microdollars (1e-6 USD) and only converted to dollars
// at presentation boundaries.
type Entry struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	APIKeyID     string    `json:"api_key_id,omitempty"`
	Model        string    `json:"model"`
	Provider     string    `json:"provider"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	TotalTokens  int       `json:"total_tokens"`
	CostMicros   int64     `json:"cost_micros"`
	LatencyMs    int64     `json:"latency_ms,omitempty"`
	Success      bool      `json:"success"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// DailyBucket is one calendar day of aggregated activity. Date is the full
// UTC date (YYYY-MM-DD); a truncated display label would collide across
// year boundaries.
type DailyBucket struct {
	Date     string  `json:"date"`
	Cost     float64 `json:"cost"`
	Requests int     `json:"requests"`
	Tokens   int64   `json:"tokens"`
}

// ModelBreakdown is the per-model share of spend within a range
type ModelBreakdown struct {
	Model      string  `json:"model"`
	Cost       float64 `json:"cost"`
	Requests   int     `json:"requests"`
	Percentage float64 `json:"percentage"`
}

// RecentRequest is a single ledger entry shaped for display
type RecentRequest struct {
	ID           string    `json:"id"`
	Model        string    `json:"model"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	Cost         float64   `json:"cost"`
	Success      bool      `json:"success"`
	CreatedAt    time.Time `json:"created_at"`
}

// Summary is the aggregation result for one user over one time range
type Summary struct {
	TotalCost      float64          `json:"total_cost"`
	TotalRequests  int              `json:"total_requests"`
	TotalTokens    int64            `json:"total_tokens"`
	DailySeries    []DailyBucket    `json:"daily_series"`
	ModelBreakdown []ModelBreakdown `json:"model_breakdown"`
	RecentRequests []RecentRequest  `json:"recent_requests"`
	StartTime      time.Time        `json:"start_time"`
	EndTime        time.Time        `json:"end_time"`
}

// MicrosPerDollar converts between microdollars and dollars
const MicrosPerDollar = 1_000_000

// RecentRequestLimit caps the recent request list in a summary
const RecentRequestLimit = 50
