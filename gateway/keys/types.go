// Copyright 2025 ModelGate
// SPDX-License-Identifier: Apache-2.0

// Package keys manages user-scoped API keys for the gateway's direct access
// path. Keys are minted on the routing proxy when possible; only a SHA-256
// hash and a display prefix are stored locally, and the plaintext key is
// returned exactly once at creation.
package keys

import "time"

// KeyPrefixLength is how many leading characters of the plaintext key are
// kept for display
const KeyPrefixLength = 12

// LocalKeyPrefix marks keys minted locally when the proxy is unreachable
const LocalKeyPrefix = "sk-mg-"

// APIKey is the stored key record. KeyHash is the SHA-256 hex digest of the
// plaintext; the plaintext itself is never persisted.
type APIKey struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Name       string     `json:"name"`
	KeyHash    string     `json:"-"`
	KeyPrefix  string     `json:"key_prefix"`
	ProxyToken string     `json:"-"`
	Active     bool       `json:"active"`
	CreatedAt  time.Time  `json:"created_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
}

// CreatedKey is the creation response: the stored record plus the plaintext
// key, shown this one time.
type CreatedKey struct {
	APIKey
	Key string `json:"key"`
}
