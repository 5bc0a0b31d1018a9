// Copyright 2025 ModelGate
// SPDX-License-Identifier: Apache-2.0

package admin

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"modelgate/platform/gateway/auth"
)

// Handler provides HTTP handlers for the admin API
type Handler struct {
	service *Service
}

// NewHandler creates a new admin handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers admin routes. The stats route is admin-only.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.Handle("/api/v1/admin/stats", auth.RequireAdmin(http.HandlerFunc(h.GetStats))).Methods("GET")
}

// GetStats handles GET /api/v1/admin/stats
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetStats(r.Context())
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Internal server error"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(stats)
}
