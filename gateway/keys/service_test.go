// Copyright 2025 ModelGate
// SPDX-License-Identifier: Apache-2.0

package keys

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"modelgate/platform/gateway/llmproxy"
)

// MockKeyRepository implements Repository for testing
type MockKeyRepository struct {
	mu   sync.Mutex
	keys map[string]*APIKey

	insertErr error
}

func NewMockKeyRepository() *MockKeyRepository {
	return &MockKeyRepository{keys: make(map[string]*APIKey)}
}

func (m *MockKeyRepository) Insert(ctx context.Context, key *APIKey) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *key
	m.keys[key.ID] = &copied
	return nil
}

func (m *MockKeyRepository) Get(ctx context.Context, id, userID string) (*APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key, ok := m.keys[id]
	if !ok || key.UserID != userID {
		return nil, ErrKeyNotFound
	}
	copied := *key
	return &copied, nil
}

func (m *MockKeyRepository) ListByUser(ctx context.Context, userID string) ([]APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []APIKey
	for _, key := range m.keys {
		if key.UserID == userID {
			result = append(result, *key)
		}
	}
	return result, nil
}

func (m *MockKeyRepository) Deactivate(ctx context.Context, id, userID string, revokedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key, ok := m.keys[id]
	if !ok || key.UserID != userID || !key.Active {
		return ErrKeyNotFound
	}
	key.Active = false
	key.RevokedAt = &revokedAt
	return nil
}

// fakeProxy scripts the proxy key endpoints
type fakeProxy struct {
	generateErr error
	deleteErr   error

	generated []llmproxy.KeyRequest
	deleted   []string
}

func (f *fakeProxy) GenerateKey(ctx context.Context, req llmproxy.KeyRequest) (*llmproxy.GeneratedKey, error) {
	if f.generateErr != nil {
		return nil, f.generateErr
	}
	f.generated = append(f.generated, req)
	return &llmproxy.GeneratedKey{
		Key:   "sk-proxy-1234567890abcdef",
		Token: "token-" + req.KeyAlias,
	}, nil
}

func (f *fakeProxy) DeleteKey(ctx context.Context, key string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, key)
	return nil
}

func TestCreateKeyViaProxy(t *testing.T) {
	repo := NewMockKeyRepository()
	proxy := &fakeProxy{}
	svc := NewService(repo, proxy, nil)

	created, err := svc.Create(context.Background(), "user-1", "ci key")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.Key != "sk-proxy-1234567890abcdef" {
		t.Errorf("Expected proxy-minted key, got %q", created.Key)
	}
	if created.ProxyToken != "token-ci key" {
		t.Errorf("Expected proxy token, got %q", created.ProxyToken)
	}
	if created.KeyPrefix != "sk-proxy-123" {
		t.Errorf("Expected 12-char prefix, got %q", created.KeyPrefix)
	}

	// Hash matches the plaintext, and the plaintext is not stored
	sum := sha256.Sum256([]byte(created.Key))
	if created.KeyHash != hex.EncodeToString(sum[:]) {
		t.Error("Stored hash does not match plaintext")
	}
	stored := repo.keys[created.ID]
	if stored == nil {
		t.Fatal("Expected key to be persisted")
	}
	if strings.Contains(stored.KeyHash, created.Key) {
		t.Error("Plaintext must not appear in stored record")
	}
}

// TestCreateKeyLocalFallback checks that a proxy outage falls back to local
// minting instead of failing creation.
func TestCreateKeyLocalFallback(t *testing.T) {
	repo := NewMockKeyRepository()
	proxy := &fakeProxy{generateErr: fmt.Errorf("proxy unreachable")}
	svc := NewService(repo, proxy, nil)

	created, err := svc.Create(context.Background(), "user-1", "backup key")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if !strings.HasPrefix(created.Key, LocalKeyPrefix) {
		t.Errorf("Expected local key prefix %q, got %q", LocalKeyPrefix, created.Key)
	}
	if created.ProxyToken != "" {
		t.Errorf("Expected no proxy token for local key, got %q", created.ProxyToken)
	}
	if len(created.Key) <= len(LocalKeyPrefix) {
		t.Error("Expected random suffix on local key")
	}
}

func TestCreateKeyWithoutProxy(t *testing.T) {
	svc := NewService(NewMockKeyRepository(), nil, nil)

	created, err := svc.Create(context.Background(), "user-1", "standalone")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if !strings.HasPrefix(created.Key, LocalKeyPrefix) {
		t.Errorf("Expected local key, got %q", created.Key)
	}
}

func TestCreateKeyValidation(t *testing.T) {
	svc := NewService(NewMockKeyRepository(), &fakeProxy{}, nil)

	if _, err := svc.Create(context.Background(), "user-1", ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty name, got %v", err)
	}
	if _, err := svc.Create(context.Background(), "", "name"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty user, got %v", err)
	}
}

func TestRevokeKey(t *testing.T) {
	repo := NewMockKeyRepository()
	proxy := &fakeProxy{}
	svc := NewService(repo, proxy, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, "user-1", "doomed")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := svc.Revoke(ctx, "user-1", created.ID); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	stored := repo.keys[created.ID]
	if stored.Active {
		t.Error("Expected key deactivated")
	}
	if stored.RevokedAt == nil {
		t.Error("Expected revoked_at set")
	}
	if len(proxy.deleted) != 1 || proxy.deleted[0] != created.ProxyToken {
		t.Errorf("Expected proxy delete of %q, got %v", created.ProxyToken, proxy.deleted)
	}
}

// TestRevokeKeyProxyFailure checks that local revocation holds even when the
// proxy delete fails.
func TestRevokeKeyProxyFailure(t *testing.T) {
	repo := NewMockKeyRepository()
	proxy := &fakeProxy{}
	svc := NewService(repo, proxy, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, "user-1", "sticky")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	proxy.deleteErr = fmt.Errorf("proxy down")
	if err := svc.Revoke(ctx, "user-1", created.ID); err != nil {
		t.Fatalf("Expected revoke to succeed despite proxy failure: %v", err)
	}
	if repo.keys[created.ID].Active {
		t.Error("Expected key deactivated locally")
	}
}

func TestRevokeKeyWrongUser(t *testing.T) {
	repo := NewMockKeyRepository()
	svc := NewService(repo, &fakeProxy{}, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, "user-1", "mine")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := svc.Revoke(ctx, "user-2", created.ID); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Expected ErrKeyNotFound for other user's key, got %v", err)
	}
	if !repo.keys[created.ID].Active {
		t.Error("Expected key to remain active")
	}
}

func TestRevokeKeyTwice(t *testing.T) {
	repo := NewMockKeyRepository()
	svc := NewService(repo, &fakeProxy{}, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, "user-1", "once")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := svc.Revoke(ctx, "user-1", created.ID); err != nil {
		t.Fatalf("First revoke failed: %v", err)
	}
	if err := svc.Revoke(ctx, "user-1", created.ID); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Expected ErrKeyNotFound on second revoke, got %v", err)
	}
}

func TestListKeysScopedToUser(t *testing.T) {
	repo := NewMockKeyRepository()
	svc := NewService(repo, &fakeProxy{}, nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "user-1", "k1"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Create(ctx, "user-2", "k2"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	result, err := svc.List(ctx, "user-1")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(result) != 1 || result[0].Name != "k1" {
		t.Errorf("Expected only user-1's key, got %+v", result)
	}
}
