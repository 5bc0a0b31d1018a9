// Copyright 2025 ModelGate
// SPDX-License-Identifier: Apache-2.0

package keys

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"modelgate/platform/gateway/auth"
)

// Handler provides HTTP handlers for the key management API
type Handler struct {
	service *Service
}

// NewHandler creates a new key handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers key routes with a gorilla/mux router
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/v1/keys", h.ListKeys).Methods("GET")
	r.HandleFunc("/api/v1/keys", h.CreateKey).Methods("POST")
	r.HandleFunc("/api/v1/keys/{id}", h.RevokeKey).Methods("DELETE")
}

type createKeyRequest struct {
	Name string `json:"name"`
}

// ListKeys handles GET /api/v1/keys
func (h *Handler) ListKeys(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	result, err := h.service.List(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if result == nil {
		result = []APIKey{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"keys": result})
}

// CreateKey handles POST /api/v1/keys. The response carries the plaintext
// key; it is not retrievable afterwards.
func (h *Handler) CreateKey(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req createKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	created, err := h.service.Create(r.Context(), identity.UserID, req.Name)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			writeError(w, "Key name is required", http.StatusBadRequest)
			return
		}
		writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// RevokeKey handles DELETE /api/v1/keys/{id}
func (h *Handler) RevokeKey(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id := mux.Vars(r)["id"]
	err := h.service.Revoke(r.Context(), identity.UserID, id)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	case errors.Is(err, ErrKeyNotFound):
		writeError(w, "API key not found", http.StatusNotFound)
	case errors.Is(err, ErrInvalidInput):
		writeError(w, "Key id is required", http.StatusBadRequest)
	default:
		writeError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
