// Copyright 2025 ModelGate
// SPDX-License-Identifier: Apache-2.0

// Package gateway wires the service together: configuration, router,
// middleware, and the HTTP server lifecycle.
package gateway

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the service configuration, read once at startup
type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string

	// Routing proxy (LiteLLM-compatible)
	ProxyURL       string
	ProxyMasterKey string

	JWTSecret string

	// Per-call budget for upstream completions
	UpstreamTimeout time.Duration

	// Optional YAML file merged over built-in model pricing
	ModelsConfigPath string

	// Requests per user per minute; 0 disables rate limiting
	RateLimitPerMinute int
}

// LoadConfig reads configuration from the environment.
//
// Environment variables used:
//   - PORT: HTTP server port (default: 8080)
//   - DATABASE_URL: PostgreSQL connection string (required)
//   - REDIS_URL: Redis URL for rate limiting (optional)
//   - LITELLM_URL: routing proxy base URL (required)
//   - LITELLM_MASTER_KEY: routing proxy admin credential (required)
//   - JWT_SECRET: HMAC secret for session tokens (required)
//   - UPSTREAM_TIMEOUT_SECONDS: per-call completion timeout (default: 60)
//   - MODELS_CONFIG: path to a model pricing YAML (optional)
//   - RATE_LIMIT_PER_MINUTE: per-user request budget (default: 60, 0 disables)
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		ProxyURL:         os.Getenv("LITELLM_URL"),
		ProxyMasterKey:   os.Getenv("LITELLM_MASTER_KEY"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		ModelsConfigPath: os.Getenv("MODELS_CONFIG"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.ProxyURL == "" {
		return nil, fmt.Errorf("LITELLM_URL is required")
	}
	if cfg.ProxyMasterKey == "" {
		return nil, fmt.Errorf("LITELLM_MASTER_KEY is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	timeoutSeconds, err := strconv.Atoi(getEnv("UPSTREAM_TIMEOUT_SECONDS", "60"))
	if err != nil || timeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid UPSTREAM_TIMEOUT_SECONDS")
	}
	cfg.UpstreamTimeout = time.Duration(timeoutSeconds) * time.Second

	rateLimit, err := strconv.Atoi(getEnv("RATE_LIMIT_PER_MINUTE", "60"))
	if err != nil || rateLimit < 0 {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE")
	}
	cfg.RateLimitPerMinute = rateLimit

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
