// Copyright 2025 ModelGate
// SPDX-License-Identifier: Apache-2.0

package usage

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"modelgate/platform/gateway/auth"
)

// Handler provides HTTP handlers for the usage API
type Handler struct {
	service *Service
}

// NewHandler creates a new usage handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers usage routes with a gorilla/mux router
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/v1/usage", h.GetSummary).Methods("GET")
}

// GetSummary handles GET /api/v1/usage?start=RFC3339&end=RFC3339.
// The range defaults to the last seven days; an unparsable timestamp is a
// client error, never silently replaced with the default.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	query := r.URL.Query()
	start, end := DefaultRange(time.Now().UTC())

	if raw := query.Get("start"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, "Invalid start timestamp", http.StatusBadRequest)
			return
		}
		start = t
	}
	if raw := query.Get("end"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, "Invalid end timestamp", http.StatusBadRequest)
			return
		}
		end = t
	}

	summary, err := h.service.Summarize(r.Context(), identity.UserID, start, end)
	if err != nil {
		if errors.Is(err, ErrInvalidRange) {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(summary)
}

func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
