package api

import (
	"context"
	"net/http"

	"fintrack/internal/core"
)

type CategoryAPI struct{ c Doer }

func (a *CategoryAPI) List(ctx context.Context) ([]core.Category, error) {
	return call[[]core.Category](ctx, a.c, http.MethodGet, "/categories", nil, nil)
}

func (a *CategoryAPI) Create(ctx context.Context, in core.CategoryInput) (core.Category, error) {
	return call[core.Category](ctx, a.c, http.MethodPost, "/categories", nil, in)
}

func (a *CategoryAPI) Update(ctx context.Context, id int64, in core.CategoryUpdate) (core.Category, error) {
	return call[core.Category](ctx, a.c, http.MethodPut, idPath("/categories", id), nil, in)
}

func (a *CategoryAPI) Remove(ctx context.Context, id int64) error {
	return exec(ctx, a.c, http.MethodDelete, idPath("/categories", id), nil)
}
