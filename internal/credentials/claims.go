package credentials

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims holds the subset of access-token claims the client inspects.
type TokenClaims struct {
	UserID int `json:"user_id"`
	jwt.RegisteredClaims
}

// PeekClaims decodes a JWT without verifying its signature.
//
// The client never validates tokens (the server does); the claims are only
// used to display session expiry and to refresh a known-expired access token
// before spending a request on it.
func PeekClaims(token string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	return claims, nil
}

// Expired reports whether the access token's exp claim has passed.
//
// A token without an exp claim, or one that cannot be parsed, is reported as
// not expired: the server remains the authority and will answer 401.
func Expired(token string, now time.Time) bool {
	claims, err := PeekClaims(token)
	if err != nil || claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.Before(now)
}
