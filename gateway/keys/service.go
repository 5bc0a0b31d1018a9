// Copyright 2025 ModelGate
// SPDX-License-Identifier: Apache-2.0

package keys

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"modelgate/platform/gateway/llmproxy"
	"modelgate/platform/shared/logger"
)

// ProxyKeyManager mints and revokes keys on the routing proxy
type ProxyKeyManager interface {
	GenerateKey(ctx context.Context, req llmproxy.KeyRequest) (*llmproxy.GeneratedKey, error)
	DeleteKey(ctx context.Context, key string) error
}

// Service manages API key lifecycle
type Service struct {
	repo  Repository
	proxy ProxyKeyManager
	log   *logger.Logger
}

// NewService creates a new key service. proxy may be nil, in which case all
// keys are minted locally.
func NewService(repo Repository, proxy ProxyKeyManager, log *logger.Logger) *Service {
	if log == nil {
		log = logger.New("keys")
	}
	return &Service{repo: repo, proxy: proxy, log: log}
}

// Create mints a new key for the user. The proxy is asked first so the key
// is routable immediately; if the proxy is unreachable the key is generated
// locally and will start routing once synced. The plaintext key appears only
// in the returned CreatedKey.
func (s *Service) Create(ctx context.Context, userID, name string) (*CreatedKey, error) {
	if userID == "" || name == "" {
		return nil, ErrInvalidInput
	}

	var plaintext, proxyToken string
	if s.proxy != nil {
		generated, err := s.proxy.GenerateKey(ctx, llmproxy.KeyRequest{
			UserID:   userID,
			KeyAlias: name,
		})
		if err == nil {
			plaintext = generated.Key
			proxyToken = generated.Token
		} else {
			s.log.Warn(userID, "", "Proxy key generation failed, minting locally", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	if plaintext == "" {
		local, err := generateLocalKey()
		if err != nil {
			return nil, fmt.Errorf("failed to generate key: %w", err)
		}
		plaintext = local
	}

	key := &APIKey{
		ID:         uuid.NewString(),
		UserID:     userID,
		Name:       name,
		KeyHash:    hashKey(plaintext),
		KeyPrefix:  keyPrefix(plaintext),
		ProxyToken: proxyToken,
		Active:     true,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.repo.Insert(ctx, key); err != nil {
		return nil, fmt.Errorf("failed to store api key: %w", err)
	}

	return &CreatedKey{APIKey: *key, Key: plaintext}, nil
}

// List returns the user's keys, newest first
func (s *Service) List(ctx context.Context, userID string) ([]APIKey, error) {
	result, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}
	return result, nil
}

// Revoke deactivates a key locally and best-effort deletes it on the proxy.
// The local revocation is authoritative; a proxy delete failure is logged
// and not surfaced.
func (s *Service) Revoke(ctx context.Context, userID, id string) error {
	if userID == "" || id == "" {
		return ErrInvalidInput
	}

	key, err := s.repo.Get(ctx, id, userID)
	if err != nil {
		return err
	}

	if err := s.repo.Deactivate(ctx, id, userID, time.Now().UTC()); err != nil {
		return err
	}

	if s.proxy != nil && key.ProxyToken != "" {
		if err := s.proxy.DeleteKey(ctx, key.ProxyToken); err != nil {
			s.log.Warn(userID, "", "Proxy key deletion failed", map[string]interface{}{
				"key_id": id,
				"error":  err.Error(),
			})
		}
	}

	return nil
}

// hashKey returns the SHA-256 hex digest of a plaintext key
func hashKey(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// keyPrefix returns the display prefix of a plaintext key
func keyPrefix(plaintext string) string {
	if len(plaintext) < KeyPrefixLength {
		return plaintext
	}
	return plaintext[:KeyPrefixLength]
}

// generateLocalKey mints a key without the proxy
func generateLocalKey() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return LocalKeyPrefix + hex.EncodeToString(buf), nil
}
