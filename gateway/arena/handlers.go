// Copyright 2025 ModelGate
// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"modelgate/platform/gateway/auth"
	"modelgate/platform/gateway/llmproxy"
)

// Handler provides HTTP handlers for the arena API
type Handler struct {
	service *Service
}

// NewHandler creates a new arena handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers arena routes with a gorilla/mux router
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/v1/arena", h.CreateComparison).Methods("POST")
	r.HandleFunc("/api/v1/arena/vote", h.Vote).Methods("POST")
	r.HandleFunc("/api/v1/arena/history", h.GetHistory).Methods("GET")
	r.HandleFunc("/api/v1/chat", h.Chat).Methods("POST")
}

type comparisonRequest struct {
	Models       []string `json:"models"`
	Prompt       string   `json:"prompt"`
	SystemPrompt string   `json:"system_prompt,omitempty"`
}

type comparisonResponse struct {
	SessionID string                   `json:"session_id"`
	Responses map[string]ModelResponse `json:"responses"`
}

// CreateComparison handles POST /api/v1/arena
func (h *Handler) CreateComparison(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req comparisonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	session, err := h.service.RunComparison(r.Context(), identity.UserID, req.Models, req.Prompt, req.SystemPrompt)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			writeError(w, "Exactly two distinct models and a non-empty prompt are required", http.StatusBadRequest)
			return
		}
		writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, comparisonResponse{
		SessionID: session.ID,
		Responses: session.Responses,
	})
}

type voteRequest struct {
	SessionID string `json:"session_id"`
	Winner    string `json:"winner"`
}

// Vote handles POST /api/v1/arena/vote. A second vote on the same session is
// rejected with 409; the first vote stands.
func (h *Handler) Vote(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	err := h.service.RecordVote(r.Context(), identity.UserID, req.SessionID, req.Winner)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidWinner):
		writeError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrSessionNotFound):
		writeError(w, "Session not found", http.StatusNotFound)
	case errors.Is(err, ErrAlreadyVoted):
		writeError(w, "Session already has a vote", http.StatusConflict)
	default:
		writeError(w, "Internal server error", http.StatusInternalServerError)
	}
}

// GetHistory handles GET /api/v1/arena/history
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	items, err := h.service.History(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": items})
}

type chatRequest struct {
	Model       string             `json:"model"`
	Messages    []llmproxy.Message `json:"messages"`
	MaxTokens   int                `json:"max_tokens,omitempty"`
	Temperature *float64           `json:"temperature,omitempty"`
}

// Chat handles POST /api/v1/chat, the single-model passthrough
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	opts := &llmproxy.ChatOptions{MaxTokens: req.MaxTokens, Temperature: -1}
	if req.Temperature != nil {
		opts.Temperature = *req.Temperature
	}

	reply, err := h.service.Chat(r.Context(), identity.UserID, req.Model, req.Messages, opts)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			writeError(w, "Model and at least one message are required", http.StatusBadRequest)
			return
		}
		var apiErr *llmproxy.APIError
		if errors.As(err, &apiErr) {
			// Pass the upstream verdict through where it is actionable
			status := http.StatusBadGateway
			if apiErr.IsRateLimitError() {
				status = http.StatusTooManyRequests
			}
			writeError(w, apiErr.Message, status)
			return
		}
		writeError(w, "Upstream request failed", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, reply)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
