package jwttoken

import (
	"testing"
	"time"

	dErrors "custodia/pkg/domain-errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-signing-key", "custodia", "custodia-api")

	token, err := svc.GenerateAccessToken("0xTREASURY1", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "0xTREASURY1", claims.ActorID)
	assert.Equal(t, "custodia", claims.Issuer)
	assert.NotEmpty(t, claims.ID, "tokens must carry a jti")
}

func TestJWTService_ExpiredToken(t *testing.T) {
	svc := NewJWTService("test-signing-key", "custodia", "custodia-api")

	token, err := svc.GenerateAccessToken("0xTREASURY1", -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestJWTService_WrongKey(t *testing.T) {
	svc := NewJWTService("test-signing-key", "custodia", "custodia-api")
	other := NewJWTService("a-different-key", "custodia", "custodia-api")

	token, err := svc.GenerateAccessToken("0xTREASURY1", time.Hour)
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestJWTService_EmptyActorRejected(t *testing.T) {
	svc := NewJWTService("test-signing-key", "custodia", "custodia-api")

	token, err := svc.GenerateAccessToken("", time.Hour)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
}
