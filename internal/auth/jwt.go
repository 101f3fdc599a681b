package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the caller identity inside an access token.
type Claims struct {
	UserID    string `json:"uid"`
	Role      string `json:"role"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// TokenManager signs and validates HS256 access tokens.
type TokenManager struct {
	signingKey []byte
	ttl        time.Duration
	issuer     string
}

// DefaultTokenTTL bounds how long an access token stays valid even when the
// session is never revoked.
const DefaultTokenTTL = 24 * time.Hour

// NewTokenManager builds a manager for the given signing key.
func NewTokenManager(signingKey, issuer string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if issuer == "" {
		issuer = "bloodlink"
	}
	return &TokenManager{
		signingKey: []byte(signingKey),
		ttl:        ttl,
		issuer:     issuer,
	}
}

// TTL exposes the configured token lifetime so sessions can share it.
func (m *TokenManager) TTL() time.Duration { return m.ttl }

// Issue signs a token for the user bound to the given session.
func (m *TokenManager) Issue(userID, role, sessionID string) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		UserID:    userID,
		Role:      role,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a token, rejecting unexpected signing methods.
func (m *TokenManager) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return m.signingKey, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
