// Package router resolves application paths to views and guards them on the
// session state.
package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/log"
)

const (
	LoginPath = "/login"
	HomePath  = "/"

	// A guard redirect may itself be guarded; more hops than this is a cycle.
	maxRedirects = 4
)

var (
	ErrRouteNotFound  = errors.New("route not found")
	ErrRedirectLoop   = errors.New("too many guard redirects")
	errNoCurrentRoute = errors.New("no route visited yet")
)

// Meta carries the guard flags of a route.
type Meta struct {
	RequiresAuth bool
	Guest        bool
}

type Route struct {
	Path string
	Name string
	Meta Meta
}

// Routes is the application's route table.
var Routes = []Route{
	{Path: "/login", Name: "Login", Meta: Meta{Guest: true}},
	{Path: "/signup", Name: "Signup", Meta: Meta{Guest: true}},
	{Path: "/", Name: "Dashboard", Meta: Meta{RequiresAuth: true}},
	{Path: "/accounts", Name: "Accounts", Meta: Meta{RequiresAuth: true}},
	{Path: "/transactions", Name: "Transactions", Meta: Meta{RequiresAuth: true}},
	{Path: "/categories", Name: "Categories", Meta: Meta{RequiresAuth: true}},
	{Path: "/export", Name: "Export", Meta: Meta{RequiresAuth: true}},
}

// AuthState is what the guard needs to know about the session.
type AuthState interface {
	IsLoggedIn() bool
}

// Navigation is the outcome of a Push.
type Navigation struct {
	Route Route
	// Requested is the path asked for; it differs from Route.Path after a
	// guard redirect.
	Requested string
}

func (n Navigation) Redirected() bool {
	return n.Requested != n.Route.Path
}

type Router struct {
	auth   AuthState
	logger *log.Logger

	mux    *chi.Mux
	routes map[string]Route

	mu      sync.RWMutex
	current *Route
	history []string
}

func New(auth AuthState, logger *log.Logger) *Router {
	if logger == nil {
		logger = log.Discard()
	}
	r := &Router{
		auth:   auth,
		logger: logger.WithComponent(log.ComponentRouter),
		mux:    chi.NewRouter(),
		routes: make(map[string]Route, len(Routes)),
	}
	for _, rt := range Routes {
		r.mux.Get(rt.Path, http.NotFound)
		r.routes[rt.Path] = rt
	}
	return r
}

// Resolve maps a path to its route without guarding it.
func (r *Router) Resolve(path string) (Route, error) {
	p := path
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		p = HomePath
	}
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}

	rctx := chi.NewRouteContext()
	if !r.mux.Match(rctx, http.MethodGet, p) {
		return Route{}, fmt.Errorf("%w: %s", ErrRouteNotFound, path)
	}
	rt, ok := r.routes[rctx.RoutePattern()]
	if !ok {
		return Route{}, fmt.Errorf("%w: %s", ErrRouteNotFound, path)
	}
	return rt, nil
}

// guard returns the path the navigation must go to instead, or "".
func (r *Router) guard(to Route) string {
	loggedIn := r.auth != nil && r.auth.IsLoggedIn()
	if to.Meta.RequiresAuth && !loggedIn {
		return LoginPath
	}
	if to.Meta.Guest && loggedIn {
		return HomePath
	}
	return ""
}

// Push navigates to path, following guard redirects, and records the final
// route as current.
func (r *Router) Push(ctx context.Context, path string) (Navigation, error) {
	rt, err := r.Resolve(path)
	if err != nil {
		r.logger.WarnContext(ctx, "Unknown route", log.FieldOperation, log.OpNavigate, log.FieldRoute, path)
		return Navigation{}, err
	}

	for hops := 0; ; hops++ {
		next := r.guard(rt)
		if next == "" {
			break
		}
		if hops >= maxRedirects {
			return Navigation{}, fmt.Errorf("%w: %s", ErrRedirectLoop, path)
		}
		r.logger.DebugContext(ctx, "Navigation redirected by guard",
			log.FieldOperation, log.OpNavigate,
			log.FieldRoute, rt.Path,
			log.FieldRedirect, next)
		if rt, err = r.Resolve(next); err != nil {
			return Navigation{}, err
		}
	}

	r.mu.Lock()
	cur := rt
	r.current = &cur
	r.history = append(r.history, rt.Path)
	r.mu.Unlock()

	r.logger.DebugContext(ctx, "Navigated", log.FieldOperation, log.OpNavigate, log.FieldRoute, rt.Path)
	return Navigation{Route: rt, Requested: path}, nil
}

// Redirect navigates without reporting the outcome. The HTTP client calls it
// after the session has ended.
func (r *Router) Redirect(ctx context.Context, path string) {
	if _, err := r.Push(ctx, path); err != nil {
		r.logger.ErrorContext(ctx, "Redirect failed", log.FieldRoute, path, log.FieldError, err)
	}
}

// Current returns the last route navigated to.
func (r *Router) Current() (Route, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.current == nil {
		return Route{}, errNoCurrentRoute
	}
	return *r.current, nil
}

// History lists the paths of every completed navigation, oldest first.
func (r *Router) History() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.history...)
}
