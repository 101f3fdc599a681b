package auth

import (
	"context"
	"fmt"

	"bloodlink/internal/platform/middleware"
)

// SessionReader is the part of the session store the verifier needs.
type SessionReader interface {
	Exists(ctx context.Context, sessionID string) (bool, error)
}

// Verifier adapts the token manager and session store to the middleware's
// validator interface. A structurally valid token whose session has been
// revoked is rejected.
type Verifier struct {
	tokens   *TokenManager
	sessions SessionReader
}

// NewVerifier builds the middleware adapter.
func NewVerifier(tokens *TokenManager, sessions SessionReader) *Verifier {
	return &Verifier{tokens: tokens, sessions: sessions}
}

// ValidateToken implements middleware.JWTValidator.
func (v *Verifier) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	claims, err := v.tokens.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	alive, err := v.sessions.Exists(context.Background(), claims.SessionID)
	if err != nil {
		return nil, fmt.Errorf("check session: %w", err)
	}
	if !alive {
		return nil, fmt.Errorf("session revoked")
	}
	return &middleware.JWTClaims{
		UserID:    claims.UserID,
		Role:      claims.Role,
		SessionID: claims.SessionID,
	}, nil
}
