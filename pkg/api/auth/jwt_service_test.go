package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telimanlogistique/telimanshare/pkg/models"
)

const testSecret = "test-secret-that-is-long-enough!"

func testUser() *models.User {
	return &models.User{
		ID:       "11111111-2222-3333-4444-555555555555",
		Email:    "alice@teliman.ml",
		Role:     string(models.RoleUser),
		Approved: true,
	}
}

func TestNewJWTServiceRejectsShortSecret(t *testing.T) {
	_, err := NewJWTService(JWTConfig{Secret: "short"})
	assert.ErrorIs(t, err, ErrInvalidSecretLength)
}

func TestGenerateAndValidateTokenPair(t *testing.T) {
	service, err := NewJWTService(JWTConfig{Secret: testSecret})
	require.NoError(t, err)

	pair, err := service.GenerateTokenPair(testUser())
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.Equal(t, int64(900), pair.ExpiresIn)

	claims, err := service.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice@teliman.ml", claims.Email)
	assert.Equal(t, "user", claims.Role)
	assert.True(t, claims.Approved)
	assert.False(t, claims.IsAdmin())

	refresh, err := service.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.True(t, refresh.IsRefreshToken())
}

func TestTokenTypeEnforcement(t *testing.T) {
	service, err := NewJWTService(JWTConfig{Secret: testSecret})
	require.NoError(t, err)

	pair, err := service.GenerateTokenPair(testUser())
	require.NoError(t, err)

	_, err = service.ValidateAccessToken(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidTokenType)

	_, err = service.ValidateRefreshToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidTokenType)
}

func TestExpiredToken(t *testing.T) {
	service, err := NewJWTService(JWTConfig{
		Secret:              testSecret,
		AccessTokenDuration: -time.Minute,
	})
	require.NoError(t, err)

	pair, err := service.GenerateTokenPair(testUser())
	require.NoError(t, err)

	_, err = service.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestTamperedToken(t *testing.T) {
	service, err := NewJWTService(JWTConfig{Secret: testSecret})
	require.NoError(t, err)

	other, err := NewJWTService(JWTConfig{Secret: "another-secret-that-is-long-enough"})
	require.NoError(t, err)

	pair, err := other.GenerateTokenPair(testUser())
	require.NoError(t, err)

	_, err = service.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
