package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-env-manager/internal/model"
)

func TestAuthService_IssueAndValidate(t *testing.T) {
	svc := NewAuthService("s3cret", time.Hour)
	require.True(t, svc.Enabled())

	token, err := svc.IssueToken("ci-runner")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.Equal(t, int64(3600), token.ExpiresIn)

	claims, err := svc.ValidateToken(token.AccessToken, "access")
	require.NoError(t, err)
	assert.Equal(t, "ci-runner", claims.Subject)
	assert.NotEmpty(t, claims.TokenID)
}

func TestAuthService_RejectsForeignAndExpiredTokens(t *testing.T) {
	issuer := NewAuthService("one", time.Hour)
	token, err := issuer.IssueToken("me")
	require.NoError(t, err)

	other := NewAuthService("two", time.Hour)
	_, err = other.ValidateToken(token.AccessToken, "access")
	require.ErrorIs(t, err, model.ErrUnauthorized)

	_, err = issuer.ValidateToken(token.AccessToken, "refresh")
	require.Error(t, err)

	issuer.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = issuer.ValidateToken(token.AccessToken, "access")
	require.Error(t, err)
}

func TestAuthService_Disabled(t *testing.T) {
	svc := NewAuthService("  ", 0)
	assert.False(t, svc.Enabled())

	_, err := svc.IssueToken("me")
	require.Error(t, err)
}

func TestAuthService_RejectsTokenWithoutExpiry(t *testing.T) {
	svc := NewAuthService("s3cret", time.Hour)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "forever",
		"typ": accessTokenType,
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	_, err = svc.ValidateToken(signed, "access")
	require.ErrorIs(t, err, model.ErrUnauthorized)
}
