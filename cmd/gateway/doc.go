// Copyright 2025 ModelGate
// SPDX-License-Identifier: Apache-2.0

/*
Command gateway runs the ModelGate Gateway service.

The Gateway is the dashboard core of the ModelGate platform: it meters every
upstream model call into an append-only usage ledger, serves per-user cost
summaries, runs side-by-side model comparisons (arena) with vote recording,
and manages user-scoped API keys against the routing proxy.

# Usage

	gateway

# Environment Variables

Required:
  - DATABASE_URL: PostgreSQL connection string
  - LITELLM_URL: routing proxy base URL
  - LITELLM_MASTER_KEY: routing proxy admin credential
  - JWT_SECRET: HMAC secret for session tokens

Optional:
  - PORT: HTTP server port (default: 8080)
  - REDIS_URL: Redis URL for per-user rate limiting
  - UPSTREAM_TIMEOUT_SECONDS: per-call completion timeout (default: 60)
  - MODELS_CONFIG: path to a model pricing YAML merged over defaults
  - RATE_LIMIT_PER_MINUTE: per-user request budget (default: 60, 0 disables)

# Endpoints

	GET  /health                  liveness + database reachability
	GET  /metrics                 Prometheus metrics
	GET  /api/v1/usage            per-user cost summary
	POST /api/v1/arena            run a two-model comparison
	POST /api/v1/arena/vote       vote on a comparison session
	GET  /api/v1/arena/history    recent comparison sessions
	POST /api/v1/chat             single-model chat passthrough
	GET  /api/v1/keys             list API keys
	POST /api/v1/keys             create an API key
	DELETE /api/v1/keys/{id}      revoke an API key
	GET  /api/v1/models           model catalog with pricing
	GET  /api/v1/admin/stats      platform rollup (admin only)
*/
package main
