// Copyright 2025 ModelGate
// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"context"
	"time"
)

// Repository defines the interface for session persistence
type Repository interface {
	// Insert stores a new comparison session
	Insert(ctx context.Context, session *Session) error

	// Get returns a session by id, scoped to its owner. A session owned by
	// a different user is ErrSessionNotFound.
	Get(ctx context.Context, id, userID string) (*Session, error)

	// SetWinner records the vote on a session that has none yet. Returns
	// ErrAlreadyVoted if a winner is already set, ErrSessionNotFound if no
	// matching session exists.
	SetWinner(ctx context.Context, id, userID, winner string, votedAt time.Time) error

	// ListRecent returns the user's most recent sessions, newest first
	ListRecent(ctx context.Context, userID string, limit int) ([]Session, error)
}
