package api

import (
	"context"
	"net/http"

	"fintrack/internal/apiclient"
	"fintrack/internal/core"
)

type AuthAPI struct{ c Doer }

// SignupResult is the created user as returned by /auth/signup.
type SignupResult struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
}

func (a *AuthAPI) Signup(ctx context.Context, in core.SignupInput) (SignupResult, error) {
	return call[SignupResult](ctx, a.c, http.MethodPost, "/auth/signup", nil, in)
}

// Login returns the token pair. The refresh token falls back to the
// Set-Cookie value when the body omits it.
func (a *AuthAPI) Login(ctx context.Context, in core.LoginInput) (apiclient.TokenPair, error) {
	resp, err := a.c.Do(ctx, &apiclient.Request{Method: http.MethodPost, Path: "/auth/login", Body: in})
	if err != nil {
		return apiclient.TokenPair{}, err
	}
	var tokens apiclient.TokenPair
	if err := resp.Decode(&tokens); err != nil {
		return apiclient.TokenPair{}, err
	}
	if tokens.RefreshToken == "" {
		tokens.RefreshToken = resp.Cookie(apiclient.RefreshCookieName)
	}
	return tokens, nil
}

// Logout revokes refreshToken on the server. An empty token still clears the
// server cookie.
func (a *AuthAPI) Logout(ctx context.Context, refreshToken string) error {
	req := &apiclient.Request{Method: http.MethodPost, Path: "/auth/logout"}
	if refreshToken != "" {
		req.Cookies = []*http.Cookie{{Name: apiclient.RefreshCookieName, Value: refreshToken}}
	}
	_, err := a.c.Do(ctx, req)
	return err
}

// Refresh exchanges refreshToken for a new pair. The HTTP client refreshes on
// its own after a 401; this is for explicit renewal.
func (a *AuthAPI) Refresh(ctx context.Context, refreshToken string) (apiclient.TokenPair, error) {
	req := &apiclient.Request{Method: http.MethodPost, Path: apiclient.RefreshPath}
	if refreshToken != "" {
		req.Cookies = []*http.Cookie{{Name: apiclient.RefreshCookieName, Value: refreshToken}}
	}
	resp, err := a.c.Do(ctx, req)
	if err != nil {
		return apiclient.TokenPair{}, err
	}
	var tokens apiclient.TokenPair
	if err := resp.Decode(&tokens); err != nil {
		return apiclient.TokenPair{}, err
	}
	if tokens.RefreshToken == "" {
		tokens.RefreshToken = resp.Cookie(apiclient.RefreshCookieName)
	}
	return tokens, nil
}
