// Copyright 2025 ModelGate
// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"modelgate/platform/gateway/llmproxy"
	"modelgate/platform/gateway/models"
	"modelgate/platform/gateway/usage"
	"modelgate/platform/shared/logger"
)

// Completer issues chat completions against the upstream proxy
type Completer interface {
	ChatCompletion(ctx context.Context, model string, messages []llmproxy.Message, opts *llmproxy.ChatOptions) (*llmproxy.ChatResult, error)
}

// Recorder appends entries to the usage ledger
type Recorder interface {
	Record(ctx context.Context, entry *usage.Entry) error
}

// Service runs comparisons and records votes
type Service struct {
	repo      Repository
	completer Completer
	recorder  Recorder
	registry  *models.Registry
	timeout   time.Duration
	log       *logger.Logger
}

// NewService creates a new arena service. timeout bounds each upstream call
// independently; zero means llmproxy.DefaultTimeout.
func NewService(repo Repository, completer Completer, recorder Recorder, registry *models.Registry, timeout time.Duration, log *logger.Logger) *Service {
	if timeout == 0 {
		timeout = llmproxy.DefaultTimeout
	}
	if log == nil {
		log = logger.New("arena")
	}
	return &Service{
		repo:      repo,
		completer: completer,
		recorder:  recorder,
		registry:  registry,
		timeout:   timeout,
		log:       log,
	}
}

// RunComparison issues both completion calls concurrently and persists the
// paired outcome. A failure on one branch is captured as that branch's result
// and never cancels the other; the call returns only after both branches have
// settled.
func (s *Service) RunComparison(ctx context.Context, userID string, modelIDs []string, prompt, systemPrompt string) (*Session, error) {
	if userID == "" || prompt == "" {
		return nil, ErrInvalidInput
	}
	if len(modelIDs) != 2 || modelIDs[0] == modelIDs[1] || modelIDs[0] == "" || modelIDs[1] == "" {
		return nil, ErrInvalidInput
	}

	var messages []llmproxy.Message
	if systemPrompt != "" {
		messages = append(messages, llmproxy.Message{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, llmproxy.Message{Role: "user", Content: prompt})

	responses := make(map[string]ModelResponse, 2)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, modelID := range modelIDs {
		wg.Add(1)
		go func(modelID string) {
			defer wg.Done()
			response := s.callModel(ctx, userID, modelID, messages)
			mu.Lock()
			responses[modelID] = response
			mu.Unlock()
		}(modelID)
	}
	wg.Wait()

	session := &Session{
		ID:           uuid.NewString(),
		UserID:       userID,
		Models:       modelIDs,
		Prompt:       prompt,
		SystemPrompt: systemPrompt,
		Responses:    responses,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Insert(ctx, session); err != nil {
		s.log.Error(userID, "", "Failed to persist comparison session", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, fmt.Errorf("failed to save comparison: %w", err)
	}

	return session, nil
}

// callModel runs one branch: a bounded completion call whose failure becomes
// a data value, plus a ledger entry either way.
func (s *Service) callModel(ctx context.Context, userID, modelID string, messages []llmproxy.Message) ModelResponse {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	result, err := s.completer.ChatCompletion(callCtx, modelID, messages, nil)
	latencyMs := time.Since(start).Milliseconds()

	entry := &usage.Entry{
		UserID:    userID,
		Model:     modelID,
		Provider:  s.registry.Provider(modelID),
		LatencyMs: latencyMs,
	}

	var response ModelResponse
	if err != nil {
		response = ModelResponse{Error: err.Error(), LatencyMs: latencyMs}
		entry.ErrorMessage = err.Error()
	} else {
		response = ModelResponse{Content: result.Content, LatencyMs: latencyMs}
		entry.Success = true
		entry.InputTokens = result.Usage.PromptTokens
		entry.OutputTokens = result.Usage.CompletionTokens
		entry.TotalTokens = result.Usage.TotalTokens
		entry.CostMicros = s.registry.CostMicros(modelID, result.Usage.PromptTokens, result.Usage.CompletionTokens)
	}

	// Ledger write failure does not fail the branch; the comparison result
	// is still useful without the accounting row.
	if recErr := s.recorder.Record(ctx, entry); recErr != nil {
		s.log.Error(userID, "", "Failed to record arena usage", map[string]interface{}{
			"model": modelID,
			"error": recErr.Error(),
		})
	}

	return response
}

// RecordVote binds a vote to a session. The first vote wins: a second vote
// on the same session fails with ErrAlreadyVoted regardless of target.
func (s *Service) RecordVote(ctx context.Context, userID, sessionID, winner string) error {
	if userID == "" || sessionID == "" || winner == "" {
		return ErrInvalidInput
	}

	session, err := s.repo.Get(ctx, sessionID, userID)
	if err != nil {
		return err
	}

	valid := false
	for _, m := range session.Models {
		if m == winner {
			valid = true
			break
		}
	}
	if !valid {
		return ErrInvalidWinner
	}

	if session.Winner != "" {
		return ErrAlreadyVoted
	}

	// The repository re-checks winner IS NULL, so a concurrent vote between
	// the read above and this update still loses.
	return s.repo.SetWinner(ctx, sessionID, userID, winner, time.Now().UTC())
}

// History returns the caller's most recent comparisons, newest first
func (s *Service) History(ctx context.Context, userID string) ([]HistoryItem, error) {
	sessions, err := s.repo.ListRecent(ctx, userID, HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	items := make([]HistoryItem, 0, len(sessions))
	for _, session := range sessions {
		items = append(items, HistoryItem{
			ID:        session.ID,
			Prompt:    session.Prompt,
			Models:    session.Models,
			Winner:    session.Winner,
			CreatedAt: session.CreatedAt,
		})
	}
	return items, nil
}

// ChatReply is the outcome of a single-model passthrough call
type ChatReply struct {
	Content   string         `json:"content"`
	Usage     llmproxy.Usage `json:"usage"`
	LatencyMs int64          `json:"latency_ms"`
}

// Chat runs a single-model completion through the proxy and records the
// ledger entry. Unlike a comparison, an upstream failure here is the caller's
// failure.
func (s *Service) Chat(ctx context.Context, userID, modelID string, messages []llmproxy.Message, opts *llmproxy.ChatOptions) (*ChatReply, error) {
	if userID == "" || modelID == "" || len(messages) == 0 {
		return nil, ErrInvalidInput
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	result, err := s.completer.ChatCompletion(callCtx, modelID, messages, opts)
	latencyMs := time.Since(start).Milliseconds()

	entry := &usage.Entry{
		UserID:    userID,
		Model:     modelID,
		Provider:  s.registry.Provider(modelID),
		LatencyMs: latencyMs,
	}

	if err != nil {
		entry.ErrorMessage = err.Error()
		if recErr := s.recorder.Record(ctx, entry); recErr != nil {
			s.log.Error(userID, "", "Failed to record chat usage", map[string]interface{}{
				"model": modelID,
				"error": recErr.Error(),
			})
		}
		return nil, err
	}

	entry.Success = true
	entry.InputTokens = result.Usage.PromptTokens
	entry.OutputTokens = result.Usage.CompletionTokens
	entry.TotalTokens = result.Usage.TotalTokens
	entry.CostMicros = s.registry.CostMicros(modelID, result.Usage.PromptTokens, result.Usage.CompletionTokens)
	if recErr := s.recorder.Record(ctx, entry); recErr != nil {
		s.log.Error(userID, "", "Failed to record chat usage", map[string]interface{}{
			"model": modelID,
			"error": recErr.Error(),
		})
	}

	return &ChatReply{
		Content:   result.Content,
		Usage:     result.Usage,
		LatencyMs: latencyMs,
	}, nil
}
