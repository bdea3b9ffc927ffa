// Package apiclient issues authenticated JSON requests to the finance backend.
//
// Every request is stamped with the session's bearer token. Successful JSON
// responses are unwrapped from the {success, data, message, errorCode}
// envelope. A 401 on a first attempt triggers a single token refresh and a
// single replay; if the refresh fails the session is cleared and the
// navigator is sent to the login route.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"fintrack/internal/log"
)

const (
	DefaultBaseURL = "http://localhost:8080/api"
	DefaultTimeout = 10 * time.Second

	RefreshPath       = "/auth/refresh"
	LoginRoute        = "/login"
	RefreshCookieName = "refreshToken"

	headerRequestID = "X-Request-ID"
	maxBodyBytes    = 32 << 20
)

// Session is the credential holder the client reads tokens from and
// updates on refresh.
type Session interface {
	Token() string
	RefreshToken() string
	UpdateTokens(ctx context.Context, token, refreshToken string) error
	Clear(ctx context.Context) error
}

// Navigator moves the application to another route.
type Navigator interface {
	Redirect(ctx context.Context, path string)
}

type Options struct {
	BaseURL string
	Timeout time.Duration
	// Headers are added to every request.
	Headers http.Header
	// CoalesceRefresh shares one in-flight refresh between concurrent 401s.
	CoalesceRefresh bool
	Transport       http.RoundTripper
	Logger          *log.Logger
}

// Request describes one backend call. Path is relative to the base URL.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    any
	Binary  bool
	Cookies []*http.Cookie
}

// Response is an unwrapped backend response. For JSON calls Data holds the
// envelope's data payload (nil for empty bodies); for binary calls Body holds
// the raw bytes.
type Response struct {
	Status      int
	Data        json.RawMessage
	Message     string
	Body        []byte
	ContentType string
	Filename    string
	Cookies     []*http.Cookie
}

type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Message   string          `json:"message"`
	ErrorCode string          `json:"errorCode"`
	Timestamp string          `json:"timestamp"`
}

// TokenPair is the payload of login and refresh responses.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	headers    http.Header
	session    Session
	logger     *log.Logger
	coalesce   bool
	group      singleflight.Group

	navMu     sync.RWMutex
	navigator Navigator
}

func New(sess Session, opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("Accept", "application/json")
	headers.Set("User-Agent", "fintrack-cli")
	for k, vs := range opts.Headers {
		headers[http.CanonicalHeaderKey(k)] = append([]string(nil), vs...)
	}

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: log.NewTransport(opts.Transport, opts.Logger),
		},
		headers:  headers,
		session:  sess,
		logger:   opts.Logger.WithComponent(log.ComponentHTTP),
		coalesce: opts.CoalesceRefresh,
	}
}

// SetNavigator installs the navigator used after an unrecoverable 401.
func (c *Client) SetNavigator(n Navigator) {
	c.navMu.Lock()
	c.navigator = n
	c.navMu.Unlock()
}

// BaseURL returns the backend root every path is resolved against.
func (c *Client) BaseURL() string { return c.baseURL }

// Do sends req and applies the refresh-and-replay sequence on a 401.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	a := &attempt{req: req, state: AttemptInitial}

	resp, err := c.send(ctx, a)
	if err == nil {
		return resp, nil
	}
	if a.state != AttemptInitial || !IsUnauthorized(err) {
		return nil, err
	}

	a.state = AttemptRetried
	if rerr := c.refresh(ctx, a); rerr != nil {
		if ctx.Err() != nil {
			// The caller gave up waiting; the session is not its to end.
			return nil, rerr
		}
		return nil, err
	}

	return c.send(ctx, a)
}

// refresh renews the access token for a. A rejected refresh ends the
// session once, from inside the refresh itself, so requests sharing it do
// not end it again.
func (c *Client) refresh(ctx context.Context, a *attempt) error {
	if !c.coalesce {
		return c.refreshOrEnd(ctx, a.req.Path)
	}
	// Another request already refreshed (or ended) the session while this
	// one was in flight.
	if current := c.session.Token(); current != a.token {
		if current == "" {
			return errSessionEnded
		}
		return nil
	}
	ch := c.group.DoChan("refresh", func() (any, error) {
		return nil, c.refreshOrEnd(ctx, a.req.Path)
	})
	select {
	case res := <-ch:
		if res.Shared {
			c.logger.DebugContext(ctx, "Joined in-flight token refresh", log.FieldPath, a.req.Path)
		}
		return res.Err
	case <-ctx.Done():
		return fmt.Errorf("wait for token refresh: %w", ctx.Err())
	}
}

// refreshOrEnd runs the refresh detached from the caller's cancellation;
// the HTTP client timeout still bounds it.
func (c *Client) refreshOrEnd(ctx context.Context, path string) error {
	ctx = context.WithoutCancel(ctx)
	err := c.refreshTokens(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "Token refresh failed, ending session",
			log.FieldPath, path, log.FieldError, err)
		c.endSession(ctx)
	}
	return err
}

func (c *Client) refreshTokens(ctx context.Context) error {
	req := &Request{Method: http.MethodPost, Path: RefreshPath}
	if rt := c.session.RefreshToken(); rt != "" {
		req.Cookies = []*http.Cookie{{Name: RefreshCookieName, Value: rt}}
	}

	// Issued already retried so a 401 from the refresh endpoint is final.
	resp, err := c.send(ctx, &attempt{req: req, state: AttemptRetried})
	if err != nil {
		return fmt.Errorf("refresh token: %w", err)
	}

	var tokens TokenPair
	if err := resp.Decode(&tokens); err != nil {
		return fmt.Errorf("decode refresh response: %w", err)
	}
	if tokens.AccessToken == "" {
		return fmt.Errorf("refresh response carried no access token")
	}
	refresh := tokens.RefreshToken
	if refresh == "" {
		refresh = resp.Cookie(RefreshCookieName)
	}

	if err := c.session.UpdateTokens(ctx, tokens.AccessToken, refresh); err != nil {
		return err
	}
	c.logger.DebugContext(ctx, "Access token refreshed", log.FieldOperation, log.OpRefresh)
	return nil
}

func (c *Client) endSession(ctx context.Context) {
	if err := c.session.Clear(ctx); err != nil {
		c.logger.ErrorContext(ctx, "Failed to clear session", log.FieldError, err)
	}
	c.navMu.RLock()
	nav := c.navigator
	c.navMu.RUnlock()
	if nav != nil {
		nav.Redirect(ctx, LoginRoute)
	}
}

// send performs one HTTP round trip for a, stamping the current token.
func (c *Client) send(ctx context.Context, a *attempt) (*Response, error) {
	req := a.req
	u := c.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range c.headers {
		httpReq.Header[k] = append([]string(nil), vs...)
	}
	if req.Binary {
		httpReq.Header.Set("Accept", "*/*")
	}
	requestID := uuid.NewString()
	httpReq.Header.Set(headerRequestID, requestID)

	a.token = c.session.Token()
	if a.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+a.token)
	}
	for _, ck := range req.Cookies {
		httpReq.AddCookie(ck)
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}
	defer httpResp.Body.Close()

	// Downloads are returned whole; envelopes past the cap are refused
	// rather than cut short.
	var src io.Reader = httpResp.Body
	if !req.Binary {
		src = io.LimitReader(httpResp.Body, maxBodyBytes+1)
	}
	raw, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if !req.Binary && len(raw) > maxBodyBytes {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, ErrResponseTooLarge)
	}

	c.logger.DebugContext(ctx, "Request attempt finished",
		log.FieldMethod, req.Method,
		log.FieldPath, req.Path,
		log.FieldStatusCode, httpResp.StatusCode,
		log.FieldAttempt, a.state.String(),
		log.FieldRequestID, requestID,
		log.FieldDuration, time.Since(start).Milliseconds())

	if httpResp.StatusCode >= 400 {
		apiErr := newAPIError(httpResp.StatusCode, raw, req, requestID)
		c.logger.DebugContext(ctx, "Request failed",
			log.FieldPath, req.Path,
			log.FieldStatusCode, apiErr.Status,
			log.FieldErrorCode, apiErr.Code)
		return nil, apiErr
	}

	resp := &Response{
		Status:      httpResp.StatusCode,
		ContentType: httpResp.Header.Get("Content-Type"),
		Cookies:     httpResp.Cookies(),
	}
	if req.Binary {
		resp.Body = raw
		resp.Filename = filenameFrom(httpResp.Header.Get("Content-Disposition"))
		return resp, nil
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return resp, nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope for %s %s: %w", req.Method, req.Path, err)
	}
	resp.Data = env.Data
	resp.Message = env.Message
	return resp, nil
}

func newAPIError(status int, raw []byte, req *Request, requestID string) *APIError {
	apiErr := &APIError{
		Status:    status,
		Method:    req.Method,
		Path:      req.Path,
		RequestID: requestID,
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil {
		apiErr.Code = env.ErrorCode
		apiErr.Message = env.Message
	} else if text := strings.TrimSpace(string(raw)); text != "" && len(text) < 512 {
		apiErr.Message = text
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

func filenameFrom(disposition string) string {
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return params["filename"]
}

// Decode unmarshals the data payload into v. An absent or null payload
// leaves v untouched.
func (r *Response) Decode(v any) error {
	if r == nil || len(r.Data) == 0 || string(r.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

// Cookie returns the value of the named response cookie, or "".
func (r *Response) Cookie(name string) string {
	for _, ck := range r.Cookies {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

// Call sends req and decodes the data payload into T.
func Call[T any](ctx context.Context, c *Client, req *Request) (T, error) {
	var out T
	resp, err := c.Do(ctx, req)
	if err != nil {
		return out, err
	}
	if err := resp.Decode(&out); err != nil {
		return out, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}
	return out, nil
}
