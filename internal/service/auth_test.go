package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/bookstore/pkg/tokens"
)

func newAuth(t *testing.T) (*testEnv, *AuthService) {
	env := newEnv(t)
	return env, &AuthService{
		Repo:          env.repo,
		JWTSecret:     []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
	}
}

func TestAuthService_Register(t *testing.T) {
	t.Parallel()
	env, svc := newAuth(t)

	u, err := svc.Register(env.ctx, "reader", "p@ss")
	require.NoError(t, err)
	assert.Equal(t, RoleUser, u.Role)
	assert.NotEqual(t, "p@ss", u.PasswordHash)

	_, err = svc.Register(env.ctx, "reader", "other")
	require.ErrorIs(t, err, ErrConflict)

	_, err = svc.Register(env.ctx, "", "x")
	require.ErrorIs(t, err, ErrValidation)
	_, err = svc.Register(env.ctx, "x", " ")
	require.ErrorIs(t, err, ErrValidation)
}

func TestAuthService_Login(t *testing.T) {
	t.Parallel()
	env, svc := newAuth(t)
	u, err := svc.Register(env.ctx, "reader", "p@ss")
	require.NoError(t, err)

	pair, err := svc.Login(env.ctx, "reader", "p@ss")
	require.NoError(t, err)
	assert.Equal(t, RoleUser, pair.Role)

	claims, err := tokens.AccessClaimsFromToken(pair.AccessToken, svc.JWTSecret)
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), claims.Subject)
	assert.Equal(t, RoleUser, claims.Role)

	_, err = svc.Login(env.ctx, "reader", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(env.ctx, "nobody", "p@ss")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_RefreshRotates(t *testing.T) {
	t.Parallel()
	env, svc := newAuth(t)
	_, err := svc.Register(env.ctx, "reader", "p@ss")
	require.NoError(t, err)
	first, err := svc.Login(env.ctx, "reader", "p@ss")
	require.NoError(t, err)

	second, err := svc.Refresh(env.ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = svc.Refresh(env.ctx, first.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefreshToken, "a rotated token cannot be replayed")

	_, err = svc.Refresh(env.ctx, "garbage")
	require.ErrorIs(t, err, ErrInvalidRefreshToken)
	_, err = svc.Refresh(env.ctx, second.AccessToken)
	require.ErrorIs(t, err, ErrInvalidRefreshToken, "access tokens are signed with another secret")
}

func TestAuthService_LogOut(t *testing.T) {
	t.Parallel()
	env, svc := newAuth(t)
	_, err := svc.Register(env.ctx, "reader", "p@ss")
	require.NoError(t, err)
	pair, err := svc.Login(env.ctx, "reader", "p@ss")
	require.NoError(t, err)

	require.NoError(t, svc.LogOut(env.ctx, ""))
	require.NoError(t, svc.LogOut(env.ctx, pair.RefreshToken))

	_, err = svc.Refresh(env.ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	t.Parallel()
	env, svc := newAuth(t)

	require.NoError(t, svc.EnsureAdmin(env.ctx, "root", "secret"))
	require.NoError(t, svc.EnsureAdmin(env.ctx, "root", "changed"), "second bootstrap is a no-op")

	pair, err := svc.Login(env.ctx, "root", "secret")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, pair.Role)
}
