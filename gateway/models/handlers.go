// Copyright 2025 ModelGate
// SPDX-License-Identifier: Apache-2.0

package models

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

// Handler serves the model catalog
type Handler struct {
	registry *Registry
}

// NewHandler creates a new models handler
func NewHandler(registry *Registry) *Handler {
	return &Handler{registry: registry}
}

// RegisterRoutes registers model routes with a gorilla/mux router
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/v1/models", h.ListModels).Methods("GET")
}

// ListModels handles GET /api/v1/models
func (h *Handler) ListModels(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"models": h.registry.List(),
	})
}
