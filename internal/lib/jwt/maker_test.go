package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTMaker_GenerateAndParseToken_ValidCases(t *testing.T) {
	tokenTTL := 30 * 24 * time.Hour
	maker := NewJWTMaker("test_secret_key_1234567890", tokenTTL)

	tests := []struct {
		name       string
		customerID string
		email      string
	}{
		{name: "customer with email", customerID: "cus_123", email: "user@domain.com"},
		{name: "customer without email", customerID: "cus_456", email: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := maker.GenerateToken(tt.customerID, tt.email)
			require.NoError(t, err)
			assert.NotEmpty(t, token)

			claims, err := maker.ParseToken(token)
			require.NoError(t, err)

			assert.Equal(t, tt.customerID, claims.CustomerID)
			assert.Equal(t, tt.email, claims.Email)
			assert.WithinDuration(t, time.Now(), claims.IssuedAt.Time, time.Second)
			assert.WithinDuration(t, time.Now().Add(tokenTTL), claims.ExpiresAt.Time, time.Second)
		})
	}
}

func TestJWTMaker_ParseToken_InvalidTokens(t *testing.T) {
	secretKey := "test_secret_key_1234567890"
	maker := NewJWTMaker(secretKey, 15*time.Minute)

	validToken, err := maker.GenerateToken("cus_123", "user@domain.com")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty token", token: ""},
		{name: "malformed token", token: "invalid.token.here"},
		{name: "expired token", token: createExpiredToken(t, secretKey)},
		{name: "wrong secret key", token: createTokenWithWrongSecret(t)},
		{name: "tampered token", token: validToken + "tampered"},
		{name: "none algorithm", token: createUnsignedToken(t)},
		{name: "missing customer id", token: createTokenWithoutCustomer(t, secretKey)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := maker.ParseToken(tt.token)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidToken))
			assert.Nil(t, claims)
		})
	}
}

func TestJWTMaker_TokenExpiration(t *testing.T) {
	maker := NewJWTMaker("test_secret_key", time.Hour)
	start := time.Now()
	maker.now = func() time.Time { return start }

	token, err := maker.GenerateToken("cus_123", "")
	require.NoError(t, err)

	_, err = maker.ParseToken(token)
	require.NoError(t, err)

	maker.now = func() time.Time { return start.Add(2 * time.Hour) }
	_, err = maker.ParseToken(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func TestJWTMaker_NotConfigured(t *testing.T) {
	maker := NewJWTMaker("", time.Hour)
	assert.False(t, maker.Configured())

	_, err := maker.GenerateToken("cus_123", "")
	assert.Error(t, err)

	_, err = maker.ParseToken("anything")
	assert.Error(t, err)

	var nilMaker *MakerImpl
	assert.False(t, nilMaker.Configured())
}

func TestJWTMaker_GenerateToken_EmptyCustomer(t *testing.T) {
	maker := NewJWTMaker("secret", time.Hour)
	_, err := maker.GenerateToken("", "user@domain.com")
	assert.Error(t, err)
}

func createExpiredToken(t *testing.T, secretKey string) string {
	t.Helper()
	maker := NewJWTMaker(secretKey, -time.Hour)
	token, err := maker.GenerateToken("cus_123", "")
	require.NoError(t, err)
	return token
}

func createTokenWithWrongSecret(t *testing.T) string {
	t.Helper()
	token, err := NewJWTMaker("wrong_secret_key", 15*time.Minute).GenerateToken("cus_123", "")
	require.NoError(t, err)
	return token
}

func createUnsignedToken(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodNone, SessionClaims{CustomerID: "cus_123"})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	return signed
}

func createTokenWithoutCustomer(t *testing.T, secretKey string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{Email: "user@domain.com"})
	signed, err := token.SignedString([]byte(secretKey))
	require.NoError(t, err)
	return signed
}
