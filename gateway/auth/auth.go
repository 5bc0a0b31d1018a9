// Copyright 2025 ModelGate
// SPDX-License-Identifier: Apache-2.0

// Package auth verifies bearer session tokens and exposes the caller's
// identity to downstream handlers. Session issuance lives outside this
// service; the gateway only verifies tokens minted by the identity layer.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Role values carried in session tokens
const (
	RolePending = "pending"
	RoleUser    = "user"
	RoleAdmin   = "admin"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey string

const ctxKeyIdentity contextKey = "identity"

// Identity is the verified caller extracted from a session token
type Identity struct {
	UserID string
	Role   string
}

// IsAdmin reports whether the caller has the admin role
func (id Identity) IsAdmin() bool {
	return id.Role == RoleAdmin
}

// Verifier validates session tokens using an HMAC secret
type Verifier struct {
	secret []byte
}

// NewVerifier creates a token verifier
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// VerifyToken parses and validates a session token, returning the identity
func (v *Verifier) VerifyToken(tokenString string) (*Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %v", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	userID := getClaimString(claims, "sub")
	if userID == "" {
		return nil, fmt.Errorf("token missing subject")
	}

	role := getClaimString(claims, "role")
	if role == "" {
		role = RolePending
	}

	return &Identity{UserID: userID, Role: role}, nil
}

// Middleware rejects requests without a valid session token or with the
// pending role, and injects the identity into the request context.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := v.identityFromRequest(r)
		if err != nil {
			writeJSONError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		// Pending users are registered but not yet approved
		if identity.Role == RolePending {
			writeJSONError(w, "Account pending approval", http.StatusUnauthorized)
			return
		}

		ctx := WithIdentity(r.Context(), identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin wraps a handler so only admins can reach it.
// Must run inside Middleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := FromContext(r.Context())
		if !ok || !identity.IsAdmin() {
			writeJSONError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (v *Verifier) identityFromRequest(r *http.Request) (*Identity, error) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, fmt.Errorf("missing bearer token")
	}
	return v.VerifyToken(strings.TrimPrefix(header, "Bearer "))
}

// WithIdentity returns a context carrying the identity
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity, identity)
}

// FromContext extracts the verified identity from a request context
func FromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(ctxKeyIdentity).(*Identity)
	return identity, ok
}

func getClaimString(claims jwt.MapClaims, key string) string {
	if val, ok := claims[key].(string); ok {
		return val
	}
	return ""
}

func writeJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, `{"error":%q}`+"\n", message)
}
