package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notechan/internal/notes/adapters/services"
	portservices "notechan/internal/notes/ports/services"
)

const secretKey = "test-secret-key"

func sign(t *testing.T, method jwt.SigningMethod, key []byte, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestIssueAndValidate(t *testing.T) {
	ctx := context.Background()
	service := services.NewJWT(secretKey)

	token, err := service.IssueAccessToken("user-123", time.Hour)
	require.NoError(t, err)

	userID, err := service.ValidateAccessToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)
}

func TestValidateAccessToken(t *testing.T) {
	ctx := context.Background()
	service := services.NewJWT(secretKey)
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))

	t.Run("user_id claim", func(t *testing.T) {
		token := sign(t, jwt.SigningMethodHS256, []byte(secretKey), &services.Claims{
			UserID:           "u-1",
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future},
		})
		userID, err := service.ValidateAccessToken(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, "u-1", userID)
	})

	t.Run("sub claim fallback", func(t *testing.T) {
		token := sign(t, jwt.SigningMethodHS512, []byte(secretKey), jwt.RegisteredClaims{
			Subject:   "u-2",
			ExpiresAt: future,
		})
		userID, err := service.ValidateAccessToken(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, "u-2", userID)
	})

	t.Run("expired token", func(t *testing.T) {
		token := sign(t, jwt.SigningMethodHS256, []byte(secretKey), &services.Claims{
			UserID:           "u-1",
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour))},
		})
		_, err := service.ValidateAccessToken(ctx, token)
		assert.ErrorIs(t, err, portservices.ErrExpiredJWTToken)
	})

	t.Run("missing expiry", func(t *testing.T) {
		token := sign(t, jwt.SigningMethodHS256, []byte(secretKey), &services.Claims{UserID: "u-1"})
		_, err := service.ValidateAccessToken(ctx, token)
		assert.ErrorIs(t, err, portservices.ErrInvalidJWTToken)
	})

	t.Run("malformed token", func(t *testing.T) {
		_, err := service.ValidateAccessToken(ctx, "invalid.token.format")
		assert.ErrorIs(t, err, portservices.ErrInvalidJWTToken)
	})

	t.Run("no subject", func(t *testing.T) {
		token := sign(t, jwt.SigningMethodHS256, []byte(secretKey), &services.Claims{
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future},
		})
		_, err := service.ValidateAccessToken(ctx, token)
		assert.ErrorIs(t, err, portservices.ErrInvalidJWTToken)
	})

	t.Run("different secret key", func(t *testing.T) {
		token := sign(t, jwt.SigningMethodHS256, []byte("different-secret-key"), &services.Claims{
			UserID:           "u-1",
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future},
		})
		_, err := service.ValidateAccessToken(ctx, token)
		assert.ErrorIs(t, err, portservices.ErrInvalidJWTToken)
	})

	t.Run("non-hmac algorithm", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodRS256, &services.Claims{
			UserID:           "u-1",
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future},
		}).SigningString()
		require.NoError(t, err)

		_, err = service.ValidateAccessToken(ctx, unsigned+".invalid-signature")
		assert.ErrorIs(t, err, portservices.ErrInvalidJWTToken)
	})
}
