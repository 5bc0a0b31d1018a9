// Copyright 2025 ModelGate
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"modelgate/platform/gateway/auth"
)

func TestRequestIDMiddleware(t *testing.T) {
	handler := requestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("generates id", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Header().Get(RequestIDHeader) == "" {
			t.Error("Expected generated request id header")
		}
	})

	t.Run("keeps client id", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(RequestIDHeader, "client-chosen")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if got := w.Header().Get(RequestIDHeader); got != "client-chosen" {
			t.Errorf("Expected client id preserved, got %q", got)
		}
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter, _ := newTestLimiter(t, 1)
	metrics := NewMetrics(prometheus.NewRegistry())

	r := mux.NewRouter()
	r.Use(rateLimitMiddleware(limiter, metrics))
	r.HandleFunc("/ok", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	send := func(userID string) int {
		req := httptest.NewRequest("GET", "/ok", nil)
		ctx := auth.WithIdentity(req.Context(), &auth.Identity{UserID: userID, Role: "user"})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req.WithContext(ctx))
		return w.Code
	}

	if code := send("user-1"); code != http.StatusOK {
		t.Fatalf("First request: expected 200, got %d", code)
	}
	if code := send("user-1"); code != http.StatusTooManyRequests {
		t.Errorf("Second request: expected 429, got %d", code)
	}
	if code := send("user-2"); code != http.StatusOK {
		t.Errorf("Other user: expected 200, got %d", code)
	}
}

func TestMetricsMiddlewareCounts(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())

	r := mux.NewRouter()
	r.Use(metricsMiddleware(metrics))
	r.HandleFunc("/thing/{id}", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	req := httptest.NewRequest("GET", "/thing/42", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	// Counter labeled by route template, not the concrete path
	counter, err := metrics.RequestsTotal.GetMetricWithLabelValues("/thing/{id}", "GET", "404")
	if err != nil {
		t.Fatalf("Failed to fetch counter: %v", err)
	}
	if counter == nil {
		t.Fatal("Expected counter for templated route")
	}
}
