// Copyright 2025 ModelGate
// SPDX-License-Identifier: Apache-2.0

/*
Package logger provides structured JSON logging for ModelGate components.

Log entries are written to stdout as single-line JSON so they can be
consumed by CloudWatch, ELK, or any other log aggregation system.

Each entry carries:
  - Timestamp (RFC3339Nano)
  - Log level (DEBUG, INFO, WARN, ERROR)
  - Component name (gateway, arena, usage, ...)
  - Container hostname
  - User ID (for per-tenant filtering)
  - Request ID (for request correlation)
  - Custom fields

Create a logger for your component:

	log := logger.New("gateway")

Log messages with user and request context:

	log.Info("user-123", "req-456", "Comparison started", map[string]interface{}{
	    "models": []string{"gpt-4o", "claude-3-5-sonnet"},
	})

Logger instances are safe for concurrent use from multiple goroutines.
*/
package logger
