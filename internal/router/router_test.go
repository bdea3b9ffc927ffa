package router

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fintrack/internal/api"
	"fintrack/internal/apiclient"
	"fintrack/internal/apitest"
	"fintrack/internal/core"
	"fintrack/internal/session"
	"fintrack/internal/storage"
	"fintrack/internal/store"
)

type fakeAuth struct{ loggedIn bool }

func (f *fakeAuth) IsLoggedIn() bool { return f.loggedIn }

func TestPush_Guard(t *testing.T) {
	tests := []struct {
		name     string
		loggedIn bool
		path     string
		want     string
	}{
		{"protected without session", false, "/transactions", "/login"},
		{"home without session", false, "/", "/login"},
		{"guest without session", false, "/signup", "/signup"},
		{"guest with session", true, "/login", "/"},
		{"signup with session", true, "/signup", "/"},
		{"protected with session", true, "/export", "/export"},
		{"query and trailing slash", true, "/accounts/?page=2", "/accounts"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(&fakeAuth{loggedIn: tt.loggedIn}, nil)
			nav, err := r.Push(context.Background(), tt.path)
			require.NoError(t, err)
			require.Equal(t, tt.want, nav.Route.Path)
			require.Equal(t, tt.path, nav.Requested)

			cur, err := r.Current()
			require.NoError(t, err)
			require.Equal(t, tt.want, cur.Path)
		})
	}
}

func TestPush_UnknownRoute(t *testing.T) {
	r := New(&fakeAuth{}, nil)
	_, err := r.Push(context.Background(), "/nowhere")
	require.ErrorIs(t, err, ErrRouteNotFound)

	_, err = r.Current()
	require.Error(t, err)
	require.Empty(t, r.History())
}

func TestRoutesMeta(t *testing.T) {
	r := New(&fakeAuth{}, nil)
	for _, rt := range Routes {
		got, err := r.Resolve(rt.Path)
		require.NoError(t, err)
		require.Equal(t, rt, got)
		require.NotEqual(t, rt.Meta.Guest, rt.Meta.RequiresAuth, rt.Path)
	}
}

func TestLoginFlow(t *testing.T) {
	ctx := context.Background()
	srv := apitest.New(t)
	srv.Register("kim@example.com", "pass1", "kim")

	sess, err := session.Open(ctx, storage.NewMemoryStore(), nil)
	require.NoError(t, err)
	client := apiclient.New(sess, apiclient.Options{BaseURL: srv.BaseURL(), Timeout: 5 * time.Second, CoalesceRefresh: true})
	a := api.New(client)
	auth := store.NewAuthStore(a.Auth, sess)
	r := New(auth, nil)
	client.SetNavigator(r)

	nav, err := r.Push(ctx, "/categories")
	require.NoError(t, err)
	require.True(t, nav.Redirected())
	require.Equal(t, "/login", nav.Route.Path)

	_, err = auth.Login(ctx, core.LoginInput{Email: "kim@example.com", Password: "pass1"})
	require.NoError(t, err)

	nav, err = r.Push(ctx, "/categories")
	require.NoError(t, err)
	require.False(t, nav.Redirected())

	// A dead refresh token ends the session and sends the user to login.
	srv.ExpireAccessTokens()
	srv.SetFailRefresh(true)
	_, err = a.Categories.List(ctx)
	require.ErrorIs(t, err, apiclient.ErrUnauthorized)
	require.False(t, auth.IsLoggedIn())

	cur, err := r.Current()
	require.NoError(t, err)
	require.Equal(t, "/login", cur.Path)
	require.Equal(t, []string{"/login", "/categories", "/login"}, r.History())
}
