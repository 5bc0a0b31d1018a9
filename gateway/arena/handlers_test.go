// Copyright 2025 ModelGate
// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"modelgate/platform/gateway/auth"
)

func newArenaRouter(repo Repository, completer Completer) *mux.Router {
	handler := NewHandler(newTestService(repo, completer, &mockRecorder{}))
	r := mux.NewRouter()
	handler.RegisterRoutes(r)
	return r
}

func authedJSONRequest(t *testing.T, method, target, userID string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	ctx := auth.WithIdentity(req.Context(), &auth.Identity{UserID: userID, Role: "user"})
	return req.WithContext(ctx)
}

func TestCreateComparisonEndpoint(t *testing.T) {
	router := newArenaRouter(NewMockSessionRepository(), newFakeCompleter())

	req := authedJSONRequest(t, "POST", "/api/v1/arena", "user-1", comparisonRequest{
		Models: []string{"m1", "m2"},
		Prompt: "hello",
	})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp comparisonResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.SessionID == "" {
		t.Error("Expected session id in response")
	}
	if len(resp.Responses) != 2 {
		t.Errorf("Expected 2 responses, got %d", len(resp.Responses))
	}
}

func TestCreateComparisonValidationError(t *testing.T) {
	router := newArenaRouter(NewMockSessionRepository(), newFakeCompleter())

	tests := []struct {
		name string
		body comparisonRequest
	}{
		{"one model", comparisonRequest{Models: []string{"m1"}, Prompt: "hello"}},
		{"empty prompt", comparisonRequest{Models: []string{"m1", "m2"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := authedJSONRequest(t, "POST", "/api/v1/arena", "user-1", tt.body)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", w.Code)
			}
		})
	}
}

func TestVoteEndpoint(t *testing.T) {
	repo := NewMockSessionRepository()
	router := newArenaRouter(repo, newFakeCompleter())
	seedSession(t, repo, "s1", "user-1", []string{"a", "b"})

	req := authedJSONRequest(t, "POST", "/api/v1/arena/vote", "user-1",
		voteRequest{SessionID: "s1", Winner: "a"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]bool
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !resp["success"] {
		t.Error("Expected success true")
	}
}

func TestVoteEndpointStatuses(t *testing.T) {
	repo := NewMockSessionRepository()
	router := newArenaRouter(repo, newFakeCompleter())
	seedSession(t, repo, "s1", "user-1", []string{"a", "b"})
	seedSession(t, repo, "voted", "user-1", []string{"a", "b"})

	// Pre-vote on one session
	firstVote := authedJSONRequest(t, "POST", "/api/v1/arena/vote", "user-1",
		voteRequest{SessionID: "voted", Winner: "a"})
	router.ServeHTTP(httptest.NewRecorder(), firstVote)

	tests := []struct {
		name       string
		userID     string
		body       voteRequest
		wantStatus int
	}{
		{"invalid winner", "user-1", voteRequest{SessionID: "s1", Winner: "c"}, http.StatusBadRequest},
		{"missing session", "user-1", voteRequest{SessionID: "nope", Winner: "a"}, http.StatusNotFound},
		{"other user's session", "user-2", voteRequest{SessionID: "s1", Winner: "a"}, http.StatusNotFound},
		{"double vote", "user-1", voteRequest{SessionID: "voted", Winner: "b"}, http.StatusConflict},
		{"missing fields", "user-1", voteRequest{}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := authedJSONRequest(t, "POST", "/api/v1/arena/vote", tt.userID, tt.body)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestHistoryEndpoint(t *testing.T) {
	repo := NewMockSessionRepository()
	router := newArenaRouter(repo, newFakeCompleter())
	seedSession(t, repo, "s1", "user-1", []string{"a", "b"})

	req := authedJSONRequest(t, "GET", "/api/v1/arena/history", "user-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp struct {
		Sessions []HistoryItem `json:"sessions"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(resp.Sessions) != 1 {
		t.Errorf("Expected 1 session, got %d", len(resp.Sessions))
	}
}

func TestChatEndpoint(t *testing.T) {
	router := newArenaRouter(NewMockSessionRepository(), newFakeCompleter())

	req := authedJSONRequest(t, "POST", "/api/v1/chat", "user-1", map[string]interface{}{
		"model":    "gpt-4o",
		"messages": []map[string]string{{"role": "user", "content": "hello"}},
	})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var reply ChatReply
	if err := json.NewDecoder(w.Body).Decode(&reply); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if reply.Content == "" {
		t.Error("Expected content in reply")
	}
}

func TestChatEndpointMissingModel(t *testing.T) {
	router := newArenaRouter(NewMockSessionRepository(), newFakeCompleter())

	req := authedJSONRequest(t, "POST", "/api/v1/chat", "user-1", map[string]interface{}{
		"messages": []map[string]string{{"role": "user", "content": "hello"}},
	})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestArenaUnauthenticated(t *testing.T) {
	router := newArenaRouter(NewMockSessionRepository(), newFakeCompleter())

	for _, route := range []struct{ method, target string }{
		{"POST", "/api/v1/arena"},
		{"POST", "/api/v1/arena/vote"},
		{"GET", "/api/v1/arena/history"},
		{"POST", "/api/v1/chat"},
	} {
		req := httptest.NewRequest(route.method, route.target, bytes.NewBufferString("{}"))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected status 401, got %d", route.method, route.target, w.Code)
		}
	}
}
