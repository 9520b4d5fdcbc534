// Package auth issues and verifies the bearer tokens carried by API requests
// and live-channel handshakes.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"remod3/internal/domain"
)

// Claims carried inside an access token.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// DefaultTokenTTL matches the access-token lifetime handed out at login.
const DefaultTokenTTL = 24 * time.Hour

// IssueToken mints a signed HS256 access token for a user.
func IssueToken(secret []byte, userID, username, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken validates a token and extracts its claims.
// Returns domain.ErrUnauthorized on any failure: bad signature, wrong
// algorithm, expiry, or a missing subject.
func ParseToken(secret []byte, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// Prevent algorithm confusion attacks - only HS256 is ever issued
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, domain.ErrUnauthorized
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return nil, domain.ErrUnauthorized
	}

	return claims, nil
}
