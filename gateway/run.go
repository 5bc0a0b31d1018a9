// Copyright 2025 ModelGate
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"modelgate/platform/gateway/admin"
	"modelgate/platform/gateway/arena"
	"modelgate/platform/gateway/auth"
	"modelgate/platform/gateway/keys"
	"modelgate/platform/gateway/llmproxy"
	"modelgate/platform/gateway/models"
	"modelgate/platform/gateway/usage"
	"modelgate/platform/shared/logger"
)

// Run is the exported entry point for the gateway service.
//
// It loads configuration, connects to PostgreSQL and Redis, builds the
// component graph, sets up HTTP routes, and starts the server. The function
// blocks until the server exits.
func Run() {
	log.Println("Starting ModelGate Gateway...")

	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	appLog := logger.New("gateway")

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		cancel()
		log.Fatalf("Failed to connect to database: %v", err)
	}
	cancel()
	log.Println("PostgreSQL connected")

	registry := models.DefaultRegistry()
	if cfg.ModelsConfigPath != "" {
		registry, err = models.LoadFromFile(cfg.ModelsConfigPath)
		if err != nil {
			log.Fatalf("Failed to load model config: %v", err)
		}
		log.Printf("Model registry loaded from %s (%d models)", cfg.ModelsConfigPath, len(registry.List()))
	}

	proxyClient, err := llmproxy.NewClient(llmproxy.Config{
		BaseURL:   cfg.ProxyURL,
		MasterKey: cfg.ProxyMasterKey,
		Timeout:   cfg.UpstreamTimeout,
	})
	if err != nil {
		log.Fatalf("Failed to create proxy client: %v", err)
	}

	limiter, err := NewRateLimiter(cfg.RedisURL, cfg.RateLimitPerMinute, nil)
	if err != nil {
		log.Fatalf("Failed to initialize rate limiter: %v", err)
	}
	defer func() {
		_ = limiter.Close()
	}()
	if cfg.RedisURL != "" {
		log.Println("Redis rate limiting enabled")
	} else {
		log.Println("Rate limiting disabled (no REDIS_URL)")
	}

	metrics := NewMetrics(nil)

	usageService := usage.NewService(usage.NewPostgresRepository(db), nil)
	arenaService := arena.NewService(
		arena.NewPostgresRepository(db), proxyClient, usageService,
		registry, cfg.UpstreamTimeout, nil,
	)
	keyService := keys.NewService(keys.NewPostgresRepository(db), proxyClient, nil)
	adminService := admin.NewService(admin.NewPostgresRepository(db))

	verifier := auth.NewVerifier(cfg.JWTSecret)

	r := mux.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(metricsMiddleware(metrics))

	// Unauthenticated surface
	r.HandleFunc("/health", healthHandler(usageService)).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Authenticated API. Handlers register full /api/v1 paths, so the
	// subrouter exists only to scope the auth and rate-limit middleware.
	api := r.NewRoute().Subrouter()
	api.Use(mux.MiddlewareFunc(verifier.Middleware))
	api.Use(rateLimitMiddleware(limiter, metrics))

	usage.NewHandler(usageService).RegisterRoutes(api)
	arena.NewHandler(arenaService).RegisterRoutes(api)
	keys.NewHandler(keyService).RegisterRoutes(api)
	admin.NewHandler(adminService).RegisterRoutes(api)
	models.NewHandler(registry).RegisterRoutes(api)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // Configure for production
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	handler := c.Handler(r)

	appLog.Info("", "", "Gateway initialized", map[string]interface{}{
		"port":   cfg.Port,
		"models": len(registry.List()),
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("ModelGate Gateway listening on port %s", cfg.Port)
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatalf("Server error: %v", err)
	case sig := <-stop:
		log.Printf("Received %s, shutting down", sig)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	_ = db.Close()
}

// healthHandler reports liveness plus backing-store reachability
func healthHandler(usageService *usage.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		healthy := usageService.IsHealthy(r.Context())

		status := http.StatusOK
		state := "healthy"
		if !healthy {
			status = http.StatusServiceUnavailable
			state = "degraded"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":    state,
			"database":  healthy,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}
