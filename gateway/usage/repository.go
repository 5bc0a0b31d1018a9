// Copyright 2025 ModelGate
// SPDX-License-Identifier: Apache-2.0

package usage

import (
	"context"
	"time"
)

// Repository defines the interface for ledger persistence.
// The ledger is append-only: there are no update or delete operations.
type Repository interface {
	// Append writes one ledger entry
	Append(ctx context.Context, entry *Entry) error

	// ListRange returns a user's entries with created_at in [start, end],
	// newest first
	ListRange(ctx context.Context, userID string, start, end time.Time) ([]Entry, error)

	// Ping verifies the store is reachable
	Ping(ctx context.Context) error
}
