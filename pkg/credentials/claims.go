package credentials

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of an access token's claims shown by `auth status`.
type Claims struct {
	Subject   string
	Type      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token's expiry is at or before now. Tokens
// without an expiry never expire.
func (c *Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// ParseClaims decodes token without verifying its signature. The server is
// the only party that can verify it; the client only inspects it.
func ParseClaims(token string) (*Claims, error) {
	if token == "" {
		return nil, errors.New("empty token")
	}

	mapClaims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mapClaims); err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}

	claims := &Claims{}
	if sub, err := mapClaims.GetSubject(); err == nil {
		claims.Subject = sub
	}
	if typ, ok := mapClaims["type"].(string); ok {
		claims.Type = typ
	}
	if iat, err := mapClaims.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Time
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}

	return claims, nil
}
