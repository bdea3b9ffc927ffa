package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fintrack/internal/apiclient"
	"fintrack/internal/apitest"
	"fintrack/internal/core"
	"fintrack/internal/session"
	"fintrack/internal/storage"
)

type recordingDoer struct {
	reqs []*apiclient.Request
	resp *apiclient.Response
}

func (d *recordingDoer) Do(_ context.Context, req *apiclient.Request) (*apiclient.Response, error) {
	d.reqs = append(d.reqs, req)
	if d.resp != nil {
		return d.resp, nil
	}
	return &apiclient.Response{Status: http.StatusOK}, nil
}

func TestRouteMapping(t *testing.T) {
	ctx := context.Background()
	jan := core.ExportFilter{StartDate: core.NewDate(2024, 1, 1), EndDate: core.NewDate(2024, 1, 31)}

	tests := []struct {
		name   string
		call   func(a *API) error
		method string
		path   string
		query  string
		binary bool
	}{
		{"signup", func(a *API) error { _, err := a.Auth.Signup(ctx, core.SignupInput{}); return err }, http.MethodPost, "/auth/signup", "", false},
		{"login", func(a *API) error { _, err := a.Auth.Login(ctx, core.LoginInput{}); return err }, http.MethodPost, "/auth/login", "", false},
		{"logout", func(a *API) error { return a.Auth.Logout(ctx, "r") }, http.MethodPost, "/auth/logout", "", false},
		{"refresh", func(a *API) error { _, err := a.Auth.Refresh(ctx, "r"); return err }, http.MethodPost, "/auth/refresh", "", false},
		{"accounts list", func(a *API) error { _, err := a.Accounts.List(ctx); return err }, http.MethodGet, "/accounts", "", false},
		{"account get", func(a *API) error { _, err := a.Accounts.Get(ctx, 4); return err }, http.MethodGet, "/accounts/4", "", false},
		{"account summary", func(a *API) error { _, err := a.Accounts.Summary(ctx); return err }, http.MethodGet, "/accounts/summary", "", false},
		{"account create", func(a *API) error { _, err := a.Accounts.Create(ctx, core.AccountInput{}); return err }, http.MethodPost, "/accounts", "", false},
		{"account update", func(a *API) error { _, err := a.Accounts.Update(ctx, 4, core.AccountInput{}); return err }, http.MethodPut, "/accounts/4", "", false},
		{"account remove", func(a *API) error { return a.Accounts.Remove(ctx, 4) }, http.MethodDelete, "/accounts/4", "", false},
		{"categories list", func(a *API) error { _, err := a.Categories.List(ctx); return err }, http.MethodGet, "/categories", "", false},
		{"category create", func(a *API) error { _, err := a.Categories.Create(ctx, core.CategoryInput{}); return err }, http.MethodPost, "/categories", "", false},
		{"category update", func(a *API) error { _, err := a.Categories.Update(ctx, 9, core.CategoryUpdate{}); return err }, http.MethodPut, "/categories/9", "", false},
		{"category remove", func(a *API) error { return a.Categories.Remove(ctx, 9) }, http.MethodDelete, "/categories/9", "", false},
		{"transactions list", func(a *API) error {
			_, err := a.Transactions.List(ctx, core.TransactionFilter{Type: core.Income})
			return err
		}, http.MethodGet, "/transactions", "type=INCOME", false},
		{"transaction create", func(a *API) error { _, err := a.Transactions.Create(ctx, core.TransactionInput{}); return err }, http.MethodPost, "/transactions", "", false},
		{"transaction update", func(a *API) error { _, err := a.Transactions.Update(ctx, 2, core.TransactionInput{}); return err }, http.MethodPut, "/transactions/2", "", false},
		{"transaction remove", func(a *API) error { return a.Transactions.Remove(ctx, 2) }, http.MethodDelete, "/transactions/2", "", false},
		{"monthly summary", func(a *API) error { _, err := a.Transactions.MonthlySummary(ctx, 2024, 3); return err }, http.MethodGet, "/transactions/summary/2024/3", "", false},
		{"daily", func(a *API) error { _, err := a.Transactions.Daily(ctx, 2024, 3); return err }, http.MethodGet, "/transactions/daily/2024/3", "", false},
		{"export csv", func(a *API) error { _, err := a.Transactions.ExportCSV(ctx, jan); return err }, http.MethodGet, "/transactions/export/csv", "endDate=2024-01-31&startDate=2024-01-01", true},
		{"export xlsx", func(a *API) error { _, err := a.Transactions.ExportXLSX(ctx, jan); return err }, http.MethodGet, "/transactions/export/xlsx", "endDate=2024-01-31&startDate=2024-01-01", true},
		{"dashboard", func(a *API) error { _, err := a.Dashboard.Get(ctx); return err }, http.MethodGet, "/dashboard", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &recordingDoer{}
			require.NoError(t, tt.call(New(d)))
			require.Len(t, d.reqs, 1)
			req := d.reqs[0]
			require.Equal(t, tt.method, req.Method)
			require.Equal(t, tt.path, req.Path)
			require.Equal(t, tt.query, req.Query.Encode())
			require.Equal(t, tt.binary, req.Binary)
		})
	}
}

func TestLogoutSendsRefreshCookie(t *testing.T) {
	d := &recordingDoer{}
	require.NoError(t, New(d).Auth.Logout(context.Background(), "r-1"))
	require.Len(t, d.reqs[0].Cookies, 1)
	require.Equal(t, apiclient.RefreshCookieName, d.reqs[0].Cookies[0].Name)
	require.Equal(t, "r-1", d.reqs[0].Cookies[0].Value)
}

func TestLoginFallsBackToCookie(t *testing.T) {
	d := &recordingDoer{resp: &apiclient.Response{
		Status:  http.StatusOK,
		Data:    json.RawMessage(`{"accessToken":"a-1"}`),
		Cookies: []*http.Cookie{{Name: apiclient.RefreshCookieName, Value: "r-cookie"}},
	}}
	tokens, err := New(d).Auth.Login(context.Background(), core.LoginInput{Email: "a@b.co", Password: "x"})
	require.NoError(t, err)
	require.Equal(t, "a-1", tokens.AccessToken)
	require.Equal(t, "r-cookie", tokens.RefreshToken)
}

func TestExportDefaultName(t *testing.T) {
	d := &recordingDoer{resp: &apiclient.Response{Status: http.StatusOK, Body: []byte("a,b\n")}}
	f := core.ExportFilter{StartDate: core.NewDate(2024, 1, 1), EndDate: core.NewDate(2024, 1, 31)}

	file, err := New(d).Transactions.ExportCSV(context.Background(), f)
	require.NoError(t, err)
	require.Equal(t, "transactions-2024-01-01-2024-01-31.csv", file.Name)
	require.Equal(t, []byte("a,b\n"), file.Data)

	_, err = ParseExportFormat("pdf")
	require.Error(t, err)
}

func TestAgainstBackend(t *testing.T) {
	ctx := context.Background()
	srv := apitest.New(t)
	sess, err := session.Open(ctx, storage.NewMemoryStore(), nil)
	require.NoError(t, err)
	a := New(apiclient.New(sess, apiclient.Options{BaseURL: srv.BaseURL(), Timeout: 5 * time.Second}))

	created, err := a.Auth.Signup(ctx, core.SignupInput{Email: "kim@example.com", Password: "pass1", Nickname: "kim"})
	require.NoError(t, err)
	require.Equal(t, "kim", created.Nickname)

	tokens, err := a.Auth.Login(ctx, core.LoginInput{Email: "kim@example.com", Password: "pass1"})
	require.NoError(t, err)
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)
	require.NoError(t, sess.Set(ctx, core.Credential{Token: tokens.AccessToken, RefreshToken: tokens.RefreshToken}))

	food, err := a.Categories.Create(ctx, core.CategoryInput{Name: "Food", Type: core.Expense})
	require.NoError(t, err)

	tx, err := a.Transactions.Create(ctx, core.TransactionInput{
		CategoryID:      food.ID,
		Amount:          100,
		TransactionDate: core.NewDate(2024, 1, 1),
	})
	require.NoError(t, err)
	require.Equal(t, core.Expense, tx.Type)
	require.Equal(t, "Food", tx.CategoryName)

	sum, err := a.Transactions.MonthlySummary(ctx, 2024, 1)
	require.NoError(t, err)
	require.EqualValues(t, 100, sum.TotalExpense)
	require.Len(t, sum.ExpenseSummary, 1)

	file, err := a.Transactions.ExportCSV(ctx, core.ExportFilter{})
	require.NoError(t, err)
	require.Equal(t, "transactions.csv", file.Name)
	require.Contains(t, string(file.Data), "2024-01-01,EXPENSE,Food,100,")

	require.NoError(t, a.Auth.Logout(ctx, tokens.RefreshToken))
}
