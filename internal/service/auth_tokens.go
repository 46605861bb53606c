package service

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the claims read from a backend-issued JWT. The client
// holds no signing key, so claims are only inspected, never verified.
type TokenClaims struct {
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// TokenUsable reports whether a persisted token may be used to resume a
// session. Empty tokens are rejected. Tokens that parse as JWTs must not be
// expired at now; anything else is opaque and trusted on presence.
func TokenUsable(token string, now time.Time) bool {
	token = strings.TrimSpace(token)
	if token == "" {
		return false
	}
	if strings.Count(token, ".") != 2 {
		return true
	}

	claims := &TokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	if claims.ExpiresAt != nil && !now.Before(claims.ExpiresAt.Time) {
		return false
	}
	return true
}
