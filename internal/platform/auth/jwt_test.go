package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	userID := uuid.New()

	token, err := m.GenerateToken(userID, "renter@example.com", RoleUser)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "renter@example.com", claims.Email)
	assert.Equal(t, RoleUser, claims.Role)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, err := NewJWTManager("secret1", time.Hour).GenerateToken(uuid.New(), "a@b.c", RoleAdmin)
	require.NoError(t, err)

	_, err = NewJWTManager("secret2", time.Hour).ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_Expired(t *testing.T) {
	m := NewJWTManager("secret", -time.Minute)
	token, err := m.GenerateToken(uuid.New(), "a@b.c", RoleUser)
	require.NoError(t, err)

	_, err = m.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_Garbage(t *testing.T) {
	_, err := NewJWTManager("secret", time.Hour).ValidateToken("not-a-token")
	assert.Error(t, err)
}
