// Package api maps backend operations onto HTTP verbs and paths. It holds no
// state and makes no decisions; retries and unwrapping live in apiclient.
package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"fintrack/internal/apiclient"
)

// Doer is the part of the HTTP client the wrappers need.
type Doer interface {
	Do(ctx context.Context, req *apiclient.Request) (*apiclient.Response, error)
}

// API groups the resource wrappers around one client.
type API struct {
	Auth         *AuthAPI
	Accounts     *AccountAPI
	Categories   *CategoryAPI
	Transactions *TransactionAPI
	Dashboard    *DashboardAPI
}

func New(c Doer) *API {
	return &API{
		Auth:         &AuthAPI{c: c},
		Accounts:     &AccountAPI{c: c},
		Categories:   &CategoryAPI{c: c},
		Transactions: &TransactionAPI{c: c},
		Dashboard:    &DashboardAPI{c: c},
	}
}

// File is a binary download.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

func call[T any](ctx context.Context, c Doer, method, path string, query url.Values, body any) (T, error) {
	var out T
	resp, err := c.Do(ctx, &apiclient.Request{Method: method, Path: path, Query: query, Body: body})
	if err != nil {
		return out, err
	}
	if err := resp.Decode(&out); err != nil {
		return out, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return out, nil
}

func exec(ctx context.Context, c Doer, method, path string, body any) error {
	_, err := c.Do(ctx, &apiclient.Request{Method: method, Path: path, Body: body})
	return err
}

func download(ctx context.Context, c Doer, path string, query url.Values) (File, error) {
	resp, err := c.Do(ctx, &apiclient.Request{Method: http.MethodGet, Path: path, Query: query, Binary: true})
	if err != nil {
		return File{}, err
	}
	return File{Name: resp.Filename, ContentType: resp.ContentType, Data: resp.Body}, nil
}

func idPath(prefix string, id int64) string {
	return fmt.Sprintf("%s/%d", prefix, id)
}
