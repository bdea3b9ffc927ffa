package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"fintrack/internal/api"
	"fintrack/internal/apiclient"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/session"
)

var ErrNoAccessToken = errors.New("login response carried no access token")

type AuthAPI interface {
	Signup(ctx context.Context, in core.SignupInput) (api.SignupResult, error)
	Login(ctx context.Context, in core.LoginInput) (apiclient.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
}

// AuthStore drives the session lifecycle: login and signup create it, logout
// ends it.
type AuthStore struct {
	base
	api     AuthAPI
	session *session.Session
}

func NewAuthStore(api AuthAPI, sess *session.Session, opts ...Option) *AuthStore {
	s := &AuthStore{api: api, session: sess}
	s.init(log.ComponentAuth, opts)
	return s
}

func (s *AuthStore) IsLoggedIn() bool { return s.session.IsLoggedIn() }

func (s *AuthStore) User() *core.User { return s.session.User() }

// Signup registers the user and logs them in with the same credentials. The
// stored user record keeps the id and nickname the signup returned.
func (s *AuthStore) Signup(ctx context.Context, in core.SignupInput) (*core.User, error) {
	created, err := s.api.Signup(ctx, in)
	if err != nil {
		return nil, err
	}
	known := &core.User{ID: created.ID, Email: created.Email, Nickname: created.Nickname}
	return s.login(ctx, core.LoginInput{Email: in.Email, Password: in.Password}, known)
}

func (s *AuthStore) Login(ctx context.Context, in core.LoginInput) (*core.User, error) {
	return s.login(ctx, in, nil)
}

func (s *AuthStore) login(ctx context.Context, in core.LoginInput, known *core.User) (*core.User, error) {
	tokens, err := s.api.Login(ctx, in)
	if err != nil {
		return nil, err
	}
	if tokens.AccessToken == "" {
		return nil, ErrNoAccessToken
	}

	u := &core.User{Email: in.Email}
	if claims, err := ParseClaims(tokens.AccessToken); err == nil {
		if claims.Email != "" {
			u.Email = claims.Email
		}
		u.Role = claims.Role
	} else {
		s.logger.DebugContext(ctx, "Access token claims unreadable", log.FieldError, err)
	}
	if known != nil {
		u.ID = known.ID
		u.Nickname = known.Nickname
	}

	if err := s.session.Set(ctx, core.Credential{
		Token:        tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		User:         u,
	}); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Logged in", log.FieldOperation, log.OpLogin, log.FieldUser, u.Email)
	s.emit(ctx, core.ResourceSession, core.OpLogin, u.ID, 1)
	return u, nil
}

// Logout revokes the refresh token on the server when possible and always
// clears the local session.
func (s *AuthStore) Logout(ctx context.Context) error {
	if s.session.IsLoggedIn() {
		if err := s.api.Logout(ctx, s.session.RefreshToken()); err != nil {
			s.logger.WarnContext(ctx, "Server logout failed, clearing local session",
				log.FieldOperation, log.OpLogout,
				log.FieldError, err)
		}
	}
	if err := s.session.Clear(ctx); err != nil {
		return err
	}
	s.emit(ctx, core.ResourceSession, core.OpLogout, 0, 0)
	return nil
}

// TokenExpiry reports when the held access token expires, if it says.
func (s *AuthStore) TokenExpiry() (time.Time, bool) {
	claims, err := ParseClaims(s.session.Token())
	if err != nil || claims.ExpiresAt.IsZero() {
		return time.Time{}, false
	}
	return claims.ExpiresAt, true
}

// Claims are the fields the client reads from an access token.
type Claims struct {
	Email     string
	Role      string
	ExpiresAt time.Time
}

// ParseClaims decodes an access token without verifying its signature. The
// client has no key; the server verifies every request.
func ParseClaims(token string) (Claims, error) {
	if token == "" {
		return Claims{}, fmt.Errorf("parse token: empty")
	}
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return Claims{}, fmt.Errorf("parse token: %w", err)
	}
	var c Claims
	c.Email, _ = mc.GetSubject()
	if role, ok := mc["role"].(string); ok {
		c.Role = role
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}
