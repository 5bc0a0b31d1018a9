// Copyright 2025 ModelGate
// SPDX-License-Identifier: Apache-2.0

package keys

import "errors"

var (
	// ErrInvalidInput indicates a missing or malformed field
	ErrInvalidInput = errors.New("invalid input")

	// ErrKeyNotFound indicates the key does not exist or belongs to another
	// user
	ErrKeyNotFound = errors.New("api key not found")
)
