// Copyright 2025 ModelGate
// SPDX-License-Identifier: Apache-2.0

package arena

import "errors"

var (
	// ErrInvalidInput indicates malformed comparison input: wrong model
	// count, duplicate models, or an empty prompt
	ErrInvalidInput = errors.New("invalid input")

	// ErrSessionNotFound indicates the session does not exist or belongs to
	// another user
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidWinner indicates a vote for a model that was not part of the
	// comparison
	ErrInvalidWinner = errors.New("winner is not one of the compared models")

	// ErrAlreadyVoted indicates the session already has a recorded vote
	ErrAlreadyVoted = errors.New("session already has a vote")
)
