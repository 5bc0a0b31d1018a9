// Copyright 2025 ModelGate
// SPDX-License-Identifier: Apache-2.0

// Package main is the entry point for the ModelGate Gateway service.
//
// The Gateway is the dashboard core for a multi-tenant LLM platform:
// - Records every upstream model call in an append-only usage ledger
// - Aggregates per-user cost, token, and request summaries on demand
// - Runs side-by-side model comparisons (arena) with vote recording
// - Issues and revokes user-scoped API keys against the routing proxy
//
// Usage:
//
//	./gateway
//
// Environment Variables:
//
//	PORT - HTTP server port (default: 8080)
//	DATABASE_URL - PostgreSQL connection string (required)
//	REDIS_URL - Redis URL for rate limiting (optional)
//	LITELLM_URL - routing proxy base URL (required)
//	LITELLM_MASTER_KEY - routing proxy admin credential (required)
//	JWT_SECRET - HMAC secret for session tokens (required)
//	UPSTREAM_TIMEOUT_SECONDS - per-call completion timeout (default: 60)
//	MODELS_CONFIG - path to a model pricing YAML (optional)
//	RATE_LIMIT_PER_MINUTE - per-user request budget (default: 60)
package main

import (
	"modelgate/platform/gateway"
)

func main() {
	gateway.Run()
}
