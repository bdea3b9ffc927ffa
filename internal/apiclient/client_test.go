package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fintrack/internal/apitest"
	"fintrack/internal/core"
	"fintrack/internal/session"
	"fintrack/internal/storage"
)

type recordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (n *recordingNavigator) Redirect(_ context.Context, path string) {
	n.mu.Lock()
	n.paths = append(n.paths, path)
	n.mu.Unlock()
}

func (n *recordingNavigator) Paths() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

type fixture struct {
	srv     *apitest.Server
	store   *storage.MemoryStore
	session *session.Session
	client  *Client
	nav     *recordingNavigator
}

func newFixture(t *testing.T, coalesce bool) *fixture {
	t.Helper()
	srv := apitest.New(t)
	store := storage.NewMemoryStore()
	sess, err := session.Open(context.Background(), store, nil)
	require.NoError(t, err)

	client := New(sess, Options{BaseURL: srv.BaseURL(), Timeout: 5 * time.Second, CoalesceRefresh: coalesce})
	nav := &recordingNavigator{}
	client.SetNavigator(nav)
	return &fixture{srv: srv, store: store, session: sess, client: client, nav: nav}
}

func (f *fixture) login(t *testing.T) {
	t.Helper()
	f.srv.Register("kim@example.com", "secret", "kim")
	access, refresh := f.srv.Issue("kim@example.com")
	require.NoError(t, f.session.Set(context.Background(), core.Credential{
		Token:        access,
		RefreshToken: refresh,
		User:         &core.User{Email: "kim@example.com", Nickname: "kim"},
	}))
}

func TestBearerHeader(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	_, err := f.client.Do(ctx, &Request{Method: http.MethodPost, Path: "/auth/logout"})
	require.NoError(t, err)

	f.login(t)
	_, err = Call[[]core.Account](ctx, f.client, &Request{Method: http.MethodGet, Path: "/accounts"})
	require.NoError(t, err)

	headers := f.srv.AuthHeaders()
	require.Len(t, headers, 2)
	require.Empty(t, headers[0])
	require.Equal(t, "Bearer "+f.session.Token(), headers[1])
}

func TestEnvelopeUnwrap(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	f.login(t)
	seeded := f.srv.SeedAccount("Main", 5000)

	got, err := Call[core.Account](ctx, f.client, &Request{Method: http.MethodGet, Path: "/accounts/1"})
	require.Error(t, err, "id 1 is the registered user, not an account")
	require.True(t, errors.Is(err, ErrNotFound))

	got, err = Call[core.Account](ctx, f.client, &Request{Method: http.MethodGet, Path: "/accounts/" + itoa(seeded.ID)})
	require.NoError(t, err)
	require.Equal(t, seeded, got)

	resp, err := f.client.Do(ctx, &Request{Method: http.MethodDelete, Path: "/accounts/" + itoa(seeded.ID)})
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, resp.Status)
	require.Nil(t, resp.Data)
}

func TestBinaryResponse(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	f.login(t)

	resp, err := f.client.Do(ctx, &Request{Method: http.MethodGet, Path: "/transactions/export/xlsx", Binary: true})
	require.NoError(t, err)
	require.Equal(t, []byte{'P', 'K', 0x03, 0x04, 0x14, 0x00}, resp.Body)
	require.Equal(t, "transactions.xlsx", resp.Filename)
	require.Nil(t, resp.Data)
}

func TestAPIErrorFromEnvelope(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	f.srv.Register("kim@example.com", "secret", "kim")

	_, err := f.client.Do(ctx, &Request{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Body:   core.LoginInput{Email: "kim@example.com", Password: "wrong"},
	})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.Status)
	require.Equal(t, CodeLoginFailed, apiErr.Code)
	require.Equal(t, "wrong email or password", Message(err, "fallback"))
	require.Equal(t, CodeLoginFailed, Code(err))
	require.True(t, errors.Is(err, ErrBadRequest))
	require.NotEmpty(t, apiErr.RequestID)
	require.Zero(t, f.srv.RefreshCalls())
}

func TestRefreshAndReplay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	f.login(t)
	oldToken := f.session.Token()
	f.srv.SeedAccount("Main", 100)
	f.srv.ExpireAccessTokens()

	accounts, err := Call[[]core.Account](ctx, f.client, &Request{Method: http.MethodGet, Path: "/accounts"})
	require.NoError(t, err)
	require.Len(t, accounts, 1)

	require.EqualValues(t, 1, f.srv.RefreshCalls())
	require.NotEqual(t, oldToken, f.session.Token())
	require.Equal(t, "kim@example.com", f.session.User().Email, "user record survives refresh")

	persisted, err := f.store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, f.session.Token(), persisted.Token)

	headers := f.srv.AuthHeaders()
	require.Equal(t, "Bearer "+f.session.Token(), headers[len(headers)-1], "replay is re-stamped")
	require.Empty(t, f.nav.Paths())
}

func TestRefreshFailureEndsSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	f.login(t)
	f.srv.ExpireAccessTokens()
	f.srv.SetFailRefresh(true)

	_, err := f.client.Do(ctx, &Request{Method: http.MethodGet, Path: "/accounts"})
	require.Error(t, err)
	require.True(t, IsUnauthorized(err), "the first 401 is surfaced")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "/accounts", apiErr.Path)

	require.EqualValues(t, 1, f.srv.RefreshCalls(), "refresh endpoint 401 is not itself refreshed")
	require.False(t, f.session.IsLoggedIn())
	persisted, _ := f.store.Load(ctx)
	require.Empty(t, persisted.Token)
	require.Nil(t, persisted.User)
	require.Equal(t, []string{LoginRoute}, f.nav.Paths())

	_, _ = f.client.Do(ctx, &Request{Method: http.MethodGet, Path: "/accounts"})
	headers := f.srv.AuthHeaders()
	require.Empty(t, headers[len(headers)-1], "no bearer after session ended")
}

func TestReplayUnauthorizedIsNotRetried(t *testing.T) {
	ctx := context.Background()
	var accountCalls, refreshCalls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/refresh":
			refreshCalls.Add(1)
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"data":    map[string]string{"accessToken": "fresh"},
			})
		default:
			accountCalls.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	sess, err := session.Open(ctx, storage.NewMemoryStore(), nil)
	require.NoError(t, err)
	require.NoError(t, sess.Set(ctx, core.Credential{Token: "stale", RefreshToken: "r"}))
	nav := &recordingNavigator{}
	client := New(sess, Options{BaseURL: srv.URL + "/api"})
	client.SetNavigator(nav)

	_, err = client.Do(ctx, &Request{Method: http.MethodGet, Path: "/accounts"})
	require.True(t, IsUnauthorized(err))
	require.EqualValues(t, 2, accountCalls.Load(), "one send plus one replay")
	require.EqualValues(t, 1, refreshCalls.Load())
	require.Equal(t, "fresh", sess.Token(), "successful refresh is kept")
	require.Empty(t, nav.Paths())
}

func TestNonUnauthorizedFailureSkipsRefresh(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	f.login(t)

	_, err := f.client.Do(ctx, &Request{Method: http.MethodGet, Path: "/accounts/999"})
	require.True(t, IsNotFound(err))
	require.False(t, IsNotFound(errors.New("plain")))
	require.Zero(t, f.srv.RefreshCalls())
	require.True(t, f.session.IsLoggedIn())
}

func TestTransportFailure(t *testing.T) {
	ctx := context.Background()
	sess, err := session.Open(ctx, storage.NewMemoryStore(), nil)
	require.NoError(t, err)
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	client := New(sess, Options{BaseURL: base, Timeout: time.Second})
	_, err = client.Do(ctx, &Request{Method: http.MethodGet, Path: "/accounts"})
	require.Error(t, err)
	var apiErr *APIError
	require.False(t, errors.As(err, &apiErr))
}

func TestConcurrentRefresh(t *testing.T) {
	const workers = 4

	tests := []struct {
		name        string
		coalesce    bool
		wantRefresh int64
	}{
		{name: "coalesced", coalesce: true, wantRefresh: 1},
		{name: "independent", coalesce: false, wantRefresh: workers},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, tt.coalesce)
			f.login(t)
			f.srv.ExpireAccessTokens()
			release := f.srv.HoldRefresh()
			defer release()

			var wg sync.WaitGroup
			errs := make(chan error, workers)
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := f.client.Do(ctx, &Request{Method: http.MethodGet, Path: "/accounts"})
					errs <- err
				}()
			}

			require.Eventually(t, func() bool {
				return f.srv.Rejected() == workers && f.srv.RefreshCalls() == tt.wantRefresh
			}, 3*time.Second, 5*time.Millisecond)
			// Let every worker reach the refresh step before it completes.
			time.Sleep(50 * time.Millisecond)
			release()
			wg.Wait()
			close(errs)

			for err := range errs {
				require.NoError(t, err)
			}
			require.Equal(t, tt.wantRefresh, f.srv.RefreshCalls())
		})
	}
}

func TestLargeResponses(t *testing.T) {
	ctx := context.Background()
	const size = maxBodyBytes + 1<<20
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/transactions/export/xlsx":
			w.Header().Set("Content-Disposition", `attachment; filename="big.xlsx"`)
			_, _ = w.Write(make([]byte, size))
		default:
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"success":true,"data":"` + strings.Repeat("x", size) + `"}`))
		}
	}))
	defer srv.Close()

	sess, err := session.Open(ctx, storage.NewMemoryStore(), nil)
	require.NoError(t, err)
	client := New(sess, Options{BaseURL: srv.URL + "/api"})

	resp, err := client.Do(ctx, &Request{Method: http.MethodGet, Path: "/transactions/export/xlsx", Binary: true})
	require.NoError(t, err)
	require.Len(t, resp.Body, size, "downloads are never truncated")
	require.Equal(t, "big.xlsx", resp.Filename)

	_, err = client.Do(ctx, &Request{Method: http.MethodGet, Path: "/accounts"})
	require.ErrorIs(t, err, ErrResponseTooLarge)
}

func TestCancelledWaiterLeavesSharedRefresh(t *testing.T) {
	f := newFixture(t, true)
	f.login(t)
	f.srv.ExpireAccessTokens()
	release := f.srv.HoldRefresh()
	defer release()

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()
	errA := make(chan error, 1)
	go func() {
		_, err := f.client.Do(ctxA, &Request{Method: http.MethodGet, Path: "/accounts"})
		errA <- err
	}()
	require.Eventually(t, func() bool { return f.srv.RefreshCalls() == 1 }, 3*time.Second, 5*time.Millisecond)

	errB := make(chan error, 1)
	go func() {
		_, err := f.client.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/categories"})
		errB <- err
	}()
	require.Eventually(t, func() bool { return f.srv.Rejected() == 2 }, 3*time.Second, 5*time.Millisecond)
	// Give B time to join the held refresh.
	time.Sleep(50 * time.Millisecond)

	cancelA()
	select {
	case err := <-errA:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(3 * time.Second):
		t.Fatal("cancelled request did not return while the refresh was held")
	}

	release()
	require.NoError(t, <-errB)
	require.True(t, f.session.IsLoggedIn())
	require.Empty(t, f.nav.Paths())
	require.EqualValues(t, 1, f.srv.RefreshCalls())
}

func TestFailedSharedRefreshEndsSessionOnce(t *testing.T) {
	const workers = 3
	f := newFixture(t, true)
	f.login(t)
	f.srv.ExpireAccessTokens()
	f.srv.SetFailRefresh(true)
	release := f.srv.HoldRefresh()
	defer release()

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.client.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/accounts"})
			errs <- err
		}()
	}
	require.Eventually(t, func() bool { return f.srv.Rejected() == workers }, 3*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	release()
	wg.Wait()
	close(errs)

	for err := range errs {
		require.True(t, IsUnauthorized(err))
	}
	require.EqualValues(t, 1, f.srv.RefreshCalls())
	require.False(t, f.session.IsLoggedIn())
	require.Equal(t, []string{LoginRoute}, f.nav.Paths(), "one redirect for the shared refresh")
}

func TestAttemptStateString(t *testing.T) {
	require.Equal(t, "initial", AttemptInitial.String())
	require.Equal(t, "retried", AttemptRetried.String())
	require.Equal(t, "unknown", AttemptState(9).String())
}

func itoa(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
