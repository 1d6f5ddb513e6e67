package tokens

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	accessSecret  = []byte("access-secret")
	refreshSecret = []byte("refresh-secret")
)

func TestAccessToken_RoundTrip(t *testing.T) {
	tok, err := CreateAccessToken(accessSecret, "user-1", "admin", time.Now().Add(time.Minute))
	require.NoError(t, err)

	claims, err := AccessClaimsFromToken(tok, accessSecret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "admin", claims.Role)
}

func TestAccessToken_WrongSecret(t *testing.T) {
	tok, err := CreateAccessToken(accessSecret, "user-1", "user", time.Now().Add(time.Minute))
	require.NoError(t, err)

	_, err = AccessClaimsFromToken(tok, refreshSecret)
	require.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestAccessToken_Expired(t *testing.T) {
	tok, err := CreateAccessToken(accessSecret, "user-1", "user", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	_, err = AccessClaimsFromToken(tok, accessSecret)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestRefreshToken_CarriesJTI(t *testing.T) {
	tok, jti, err := CreateRefreshToken(refreshSecret, "user-2", time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.NotEmpty(t, jti)

	claims, err := RefreshClaimsFromToken(tok, refreshSecret)
	require.NoError(t, err)
	assert.Equal(t, jti, claims.ID)
	assert.Equal(t, "user-2", claims.Subject)
}

func TestRefreshToken_RejectsAccessToken(t *testing.T) {
	tok, err := CreateAccessToken(refreshSecret, "user-1", "user", time.Now().Add(time.Minute))
	require.NoError(t, err)

	_, err = RefreshClaimsFromToken(tok, refreshSecret)
	require.Error(t, err)
}

func TestParse_RejectsOtherAlg(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, AccessClaims{Role: "admin"}).SignedString(accessSecret)
	require.NoError(t, err)

	_, err = AccessClaimsFromToken(tok, accessSecret)
	require.Error(t, err)
}

func TestDeleteCookie(t *testing.T) {
	c := DeleteCookie(AccessCookie, "/")
	assert.Equal(t, -1, c.MaxAge)
	assert.Empty(t, c.Value)
	assert.True(t, c.HttpOnly)
}
