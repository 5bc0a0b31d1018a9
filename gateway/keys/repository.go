// Copyright 2025 ModelGate
// SPDX-License-Identifier: Apache-2.0

package keys

import (
	"context"
	"time"
)

// Repository defines the interface for key persistence
type Repository interface {
	// Insert stores a new key record
	Insert(ctx context.Context, key *APIKey) error

	// Get returns a key by id, scoped to its owner. A key owned by a
	// different user is ErrKeyNotFound.
	Get(ctx context.Context, id, userID string) (*APIKey, error)

	// ListByUser returns a user's keys, newest first
	ListByUser(ctx context.Context, userID string) ([]APIKey, error)

	// Deactivate marks an active key revoked. Returns ErrKeyNotFound if no
	// matching active key exists.
	Deactivate(ctx context.Context, id, userID string, revokedAt time.Time) error
}
