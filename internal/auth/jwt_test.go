package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager("test-secret", "bloodlink", time.Hour)

	token, err := m.Issue("user-1", RoleBloodBank, "session-1")
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, RoleBloodBank, claims.Role)
	assert.Equal(t, "session-1", claims.SessionID)
	assert.Equal(t, "user-1", claims.Subject)
}

func TestTokenManager_RejectsWrongKey(t *testing.T) {
	issued, err := NewTokenManager("key-a", "bloodlink", time.Hour).Issue("user-1", RoleDonor, "s")
	require.NoError(t, err)

	_, err = NewTokenManager("key-b", "bloodlink", time.Hour).Validate(issued)
	assert.Error(t, err)
}

func TestTokenManager_RejectsExpired(t *testing.T) {
	m := NewTokenManager("test-secret", "bloodlink", time.Hour)

	now := time.Now().UTC().Add(-2 * time.Hour)
	claims := Claims{
		UserID:    "user-1",
		Role:      RoleDonor,
		SessionID: "s",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "bloodlink",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = m.Validate(expired)
	assert.Error(t, err)
}

func TestTokenManager_RejectsUnsignedAlg(t *testing.T) {
	m := NewTokenManager("test-secret", "bloodlink", time.Hour)

	claims := Claims{UserID: "user-1", RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    "bloodlink",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = m.Validate(unsigned)
	assert.Error(t, err)
}

func TestTokenManager_RejectsWrongIssuer(t *testing.T) {
	issued, err := NewTokenManager("test-secret", "someone-else", time.Hour).Issue("user-1", RoleDonor, "s")
	require.NoError(t, err)

	_, err = NewTokenManager("test-secret", "bloodlink", time.Hour).Validate(issued)
	assert.Error(t, err)
}
