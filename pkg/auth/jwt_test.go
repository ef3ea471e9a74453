package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

func newTestValidator(t *testing.T) *JWTValidator {
	t.Helper()
	validator, err := NewJWTValidator(JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     testSecret,
		Issuer:        "schoolhub-backend",
		Audience:      []string{"schoolhub-api"},
	})
	require.NoError(t, err)
	return validator
}

func newTestGenerator(t *testing.T, secret string, expiry time.Duration) *JWTGenerator {
	t.Helper()
	generator, err := NewJWTGenerator(JWTGeneratorConfig{
		SigningMethod: "HS256",
		SecretKey:     secret,
		Issuer:        "schoolhub-backend",
		Audience:      []string{"schoolhub-api"},
		ExpiryTime:    expiry,
	})
	require.NoError(t, err)
	return generator
}

func TestValidateTokenRoundTrip(t *testing.T) {
	generator := newTestGenerator(t, testSecret, time.Hour)
	validator := newTestValidator(t)

	token, err := generator.GenerateToken("user-1", "user-1@school.test", []string{"staff"})
	require.NoError(t, err)

	claims, err := validator.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "user-1@school.test", claims.Email)
	assert.Equal(t, []string{"staff"}, claims.Roles)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	generator := newTestGenerator(t, testSecret, -time.Hour)
	validator := newTestValidator(t)

	token, err := generator.GenerateToken("user-1", "", nil)
	require.NoError(t, err)

	_, err = validator.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	generator := newTestGenerator(t, "some-other-secret", time.Hour)
	validator := newTestValidator(t)

	token, err := generator.GenerateToken("user-1", "", nil)
	require.NoError(t, err)

	_, err = validator.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	validator := newTestValidator(t)

	_, err := validator.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestUserContextHasRole(t *testing.T) {
	user := &UserContext{UserID: "u", Roles: []string{"staff", "scheduler"}}

	assert.True(t, user.HasRole("staff"))
	assert.False(t, user.HasRole("student"))
}
