package api

import (
	"context"
	"net/http"

	"fintrack/internal/core"
)

type DashboardAPI struct{ c Doer }

func (a *DashboardAPI) Get(ctx context.Context) (core.Dashboard, error) {
	return call[core.Dashboard](ctx, a.c, http.MethodGet, "/dashboard", nil, nil)
}
