// Copyright 2025 ModelGate
// SPDX-License-Identifier: Apache-2.0

package usage

import "errors"

var (
	// ErrInvalidInput is returned for a malformed ledger entry
	ErrInvalidInput = errors.New("invalid usage entry")

	// ErrInvalidRange is returned when a query range has start after end
	ErrInvalidRange = errors.New("invalid time range: start must not be after end")

	// ErrNegativeCost is returned when an entry carries a negative cost
	ErrNegativeCost = errors.New("cost must not be negative")
)
