package api

import (
	"context"
	"net/http"

	"fintrack/internal/core"
)

type AccountAPI struct{ c Doer }

func (a *AccountAPI) List(ctx context.Context) ([]core.Account, error) {
	return call[[]core.Account](ctx, a.c, http.MethodGet, "/accounts", nil, nil)
}

func (a *AccountAPI) Get(ctx context.Context, id int64) (core.Account, error) {
	return call[core.Account](ctx, a.c, http.MethodGet, idPath("/accounts", id), nil, nil)
}

func (a *AccountAPI) Summary(ctx context.Context) (core.AccountSummary, error) {
	return call[core.AccountSummary](ctx, a.c, http.MethodGet, "/accounts/summary", nil, nil)
}

func (a *AccountAPI) Create(ctx context.Context, in core.AccountInput) (core.Account, error) {
	return call[core.Account](ctx, a.c, http.MethodPost, "/accounts", nil, in)
}

func (a *AccountAPI) Update(ctx context.Context, id int64, in core.AccountInput) (core.Account, error) {
	return call[core.Account](ctx, a.c, http.MethodPut, idPath("/accounts", id), nil, in)
}

func (a *AccountAPI) Remove(ctx context.Context, id int64) error {
	return exec(ctx, a.c, http.MethodDelete, idPath("/accounts", id), nil)
}
