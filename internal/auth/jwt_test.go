package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agoraai/backend/internal/models"
)

func testUser() *models.User {
	return &models.User{
		ID:    "user-1",
		Email: "a@example.com",
		Name:  "Ada",
	}
}

func TestJWT_GenerateAndValidate(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)

	token, err := svc.Generate(testUser(), "ya29.google-access")
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, "Ada", claims.Name)
	assert.Equal(t, "ya29.google-access", claims.GoogleToken)
	assert.Equal(t, "agoraai", claims.Issuer)
}

func TestJWT_RejectsWrongSecret(t *testing.T) {
	token, err := NewJWTService("secret-a", time.Hour).Generate(testUser(), "")
	require.NoError(t, err)

	_, err = NewJWTService("secret-b", time.Hour).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWT_RejectsExpired(t *testing.T) {
	svc := NewJWTService("test-secret", -time.Minute)

	token, err := svc.Generate(testUser(), "")
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWT_RefreshExpiredWithinGrace(t *testing.T) {
	expired := NewJWTService("test-secret", -time.Minute)
	token, err := expired.Generate(testUser(), "ya29.google-access")
	require.NoError(t, err)

	fresh := NewJWTService("test-secret", time.Hour)
	refreshed, err := fresh.Refresh(token)
	require.NoError(t, err)

	claims, err := fresh.Validate(refreshed)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "ya29.google-access", claims.GoogleToken)
}

func TestJWT_RefreshBeyondGrace(t *testing.T) {
	expired := NewJWTService("test-secret", -8*24*time.Hour)
	token, err := expired.Generate(testUser(), "")
	require.NoError(t, err)

	_, err = NewJWTService("test-secret", time.Hour).Refresh(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}
