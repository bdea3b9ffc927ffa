package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fintrack/internal/api"
	"fintrack/internal/apiclient"
	"fintrack/internal/core"
)

func TestAuthStore_LoginLogout(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.srv.Register("kim@example.com", "pass1", "kim")
	s := NewAuthStore(e.api.Auth, e.session)
	require.False(t, s.IsLoggedIn())

	u, err := s.Login(ctx, core.LoginInput{Email: "kim@example.com", Password: "pass1"})
	require.NoError(t, err)
	require.Equal(t, "kim@example.com", u.Email)
	require.Equal(t, "USER", u.Role)
	require.True(t, s.IsLoggedIn())

	persisted, err := e.persist.Load(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, persisted.Token)
	require.NotEmpty(t, persisted.RefreshToken)
	require.Equal(t, "kim@example.com", persisted.User.Email)

	exp, ok := s.TokenExpiry()
	require.True(t, ok)
	require.True(t, exp.After(time.Now()))

	require.NoError(t, s.Logout(ctx))
	require.False(t, s.IsLoggedIn())
	persisted, _ = e.persist.Load(ctx)
	require.Empty(t, persisted.Token)
	require.Nil(t, persisted.User)
}

func TestAuthStore_LoginFailure(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.srv.Register("kim@example.com", "pass1", "kim")
	s := NewAuthStore(e.api.Auth, e.session)

	_, err := s.Login(ctx, core.LoginInput{Email: "kim@example.com", Password: "nope"})
	require.Equal(t, apiclient.CodeLoginFailed, apiclient.Code(err))
	require.False(t, s.IsLoggedIn())
}

func TestAuthStore_SignupKeepsNickname(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	s := NewAuthStore(e.api.Auth, e.session)

	u, err := s.Signup(ctx, core.SignupInput{Email: "lee@example.com", Password: "pass1", Nickname: "lee"})
	require.NoError(t, err)
	require.Equal(t, "lee", u.Nickname)
	require.NotZero(t, u.ID)
	require.Equal(t, "lee", s.User().Nickname)
	require.True(t, s.IsLoggedIn())
}

type failingLogoutAPI struct{ AuthAPI }

func (failingLogoutAPI) Logout(context.Context, string) error { return errors.New("offline") }

func TestAuthStore_LogoutClearsEvenIfServerFails(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.login(t)

	s := NewAuthStore(failingLogoutAPI{AuthAPI: e.api.Auth}, e.session)
	require.NoError(t, s.Logout(ctx))
	require.False(t, s.IsLoggedIn())
}

func TestParseClaims(t *testing.T) {
	e := newEnv(t)
	e.srv.Register("kim@example.com", "pass1", "kim")
	access, _ := e.srv.Issue("kim@example.com")

	c, err := ParseClaims(access)
	require.NoError(t, err)
	require.Equal(t, "kim@example.com", c.Email)
	require.Equal(t, "USER", c.Role)
	require.False(t, c.ExpiresAt.IsZero())

	_, err = ParseClaims("")
	require.Error(t, err)
	_, err = ParseClaims("not-a-jwt")
	require.Error(t, err)
}

var _ AuthAPI = (*api.AuthAPI)(nil)
var _ AccountAPI = (*api.AccountAPI)(nil)
var _ CategoryAPI = (*api.CategoryAPI)(nil)
var _ TransactionAPI = (*api.TransactionAPI)(nil)
var _ DashboardAPI = (*api.DashboardAPI)(nil)
