// Copyright 2025 ModelGate
// SPDX-License-Identifier: Apache-2.0

// Package arena implements side-by-side model comparisons: two concurrent
// completion calls against the same prompt, persisted as a session, with an
// at-most-one vote bound to it afterwards.
package arena

import "time"

// ModelResponse is one branch's outcome. Exactly one of Content or Error is
// set; LatencyMs is the wall-clock elapsed time of that call either way.
type ModelResponse struct {
	Content   string `json:"content,omitempty"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms"`
}

// Session is one persisted comparison: two models, one prompt, both outcomes,
// and the eventual vote.
type Session struct {
	ID           string                   `json:"id"`
	UserID       string                   `json:"user_id"`
	Models       []string                 `json:"models"`
	Prompt       string                   `json:"prompt"`
	SystemPrompt string                   `json:"system_prompt,omitempty"`
	Responses    map[string]ModelResponse `json:"responses"`
	Winner       string                   `json:"winner,omitempty"`
	VotedAt      *time.Time               `json:"voted_at,omitempty"`
	CreatedAt    time.Time                `json:"created_at"`
}

// HistoryItem is a session shaped for list display, without the responses.
type HistoryItem struct {
	ID        string    `json:"id"`
	Prompt    string    `json:"prompt"`
	Models    []string  `json:"models"`
	Winner    string    `json:"winner,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryLimit caps the session history list
const HistoryLimit = 50
