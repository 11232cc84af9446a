package security

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndParse(t *testing.T) {
	verified := true
	now := time.Now()
	token, err := SignToken("secret", "user-1", Claims{
		JwtID:    "session-1",
		Metadata: Metadata{Role: "ADMIN", Email: "a@example.com", IsVerified: &verified},
	}, time.Minute, now)
	require.NoError(t, err)

	claims, err := ParseToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "session-1", claims.JwtID)
	assert.Equal(t, "ADMIN", claims.Metadata.Role)
	require.NotNil(t, claims.Metadata.IsVerified)
	assert.True(t, *claims.Metadata.IsVerified)
	assert.NotEmpty(t, claims.ID)
}

func TestTokensIssuedTogetherDiffer(t *testing.T) {
	now := time.Now()
	a, err := SignToken("secret", "user-1", Claims{}, time.Minute, now)
	require.NoError(t, err)
	b, err := SignToken("secret", "user-1", Claims{}, time.Minute, now)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestParseExpired(t *testing.T) {
	token, err := SignToken("secret", "user-1", Claims{}, time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	_, err = ParseToken(token, "secret")
	assert.True(t, errors.Is(err, ErrTokenExpired))
	assert.False(t, errors.Is(err, ErrTokenInvalid))
}

func TestParseWrongSecret(t *testing.T) {
	token, err := SignToken("secret", "user-1", Claims{}, time.Minute, time.Now())
	require.NoError(t, err)

	_, err = ParseToken(token, "other")
	assert.True(t, errors.Is(err, ErrTokenInvalid))
}

func TestParseRejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = ParseToken(token, "secret")
	assert.True(t, errors.Is(err, ErrTokenInvalid))
}

func TestParseGarbage(t *testing.T) {
	_, err := ParseToken("not.a.jwt", "secret")
	assert.True(t, errors.Is(err, ErrTokenInvalid))
}
