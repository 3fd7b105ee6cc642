// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"linksaver/internal/apperr"
	"linksaver/internal/token"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// ClaimsKey is the context key for the verified token claims.
	ClaimsKey contextKey = "claims"
)

// TokenParser verifies a raw bearer token.
type TokenParser interface {
	Parse(ctx context.Context, raw string) (*token.Claims, error)
}

// RequireAuth rejects requests without a valid bearer token with 401 and
// otherwise stores the verified claims in the request context. Handlers
// read the caller via OwnerFromCtx.
func RequireAuth(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, apperr.KindUnauthorized, "missing bearer token")
				return
			}

			claims, err := tokens.Parse(r.Context(), raw)
			if err != nil {
				if !errors.Is(err, token.ErrInvalid) {
					// Revocation lookup failed; treat as unauthenticated.
					slog.Warn("token check failed", "error", err)
				}
				writeError(w, http.StatusUnauthorized, apperr.KindUnauthorized, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromCtx extracts the verified claims from the request context.
// Returns nil if the request was not authenticated.
func ClaimsFromCtx(ctx context.Context) *token.Claims {
	claims, _ := ctx.Value(ClaimsKey).(*token.Claims)
	return claims
}

// OwnerFromCtx returns the authenticated user's ID.
func OwnerFromCtx(ctx context.Context) (uuid.UUID, bool) {
	claims := ClaimsFromCtx(ctx)
	if claims == nil {
		return uuid.Nil, false
	}
	id, err := claims.UserID()
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// WithClaims returns a copy of ctx carrying claims. Used by tests and by
// handlers that authenticate outside the middleware chain.
func WithClaims(ctx context.Context, claims *token.Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, raw, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

// writeError writes the JSON error body used across the API.
func writeError(w http.ResponseWriter, status int, kind apperr.Kind, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg, "kind": string(kind)})
}
