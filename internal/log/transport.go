package log

import (
	"log/slog"
	"net/http"
	"time"
)

// Transport wraps an http.RoundTripper and logs every outgoing request with
// its status and latency. 4xx responses log at warn, 5xx and transport
// failures at error. A logger carried by the request context (NewContext)
// takes precedence over the transport's own.
type Transport struct {
	Base   http.RoundTripper
	Logger *Logger
}

// NewTransport returns a logging round tripper around base (http.DefaultTransport when nil).
func NewTransport(base http.RoundTripper, logger *Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{Base: base, Logger: logger.WithComponent(ComponentHTTP)}
}

func (t *Transport) RoundTrip(r *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.Base.RoundTrip(r)
	elapsed := time.Since(start).Milliseconds()

	logger := t.Logger
	if l, ok := fromContext(r.Context()); ok {
		logger = l.WithComponent(ComponentHTTP)
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery).
		WithRequestID(r.Header.Get("X-Request-ID"))

	if err != nil {
		fields[FieldDuration] = elapsed
		logger.Log(r.Context(), slog.LevelError, "HTTP request failed", fields.WithError(err).ToSlice()...)
		return nil, err
	}

	level := slog.LevelDebug
	switch {
	case resp.StatusCode >= 500:
		level = slog.LevelError
	case resp.StatusCode >= 400:
		level = slog.LevelWarn
	}
	fields.WithHTTPResponse(resp.StatusCode, elapsed)
	logger.Log(r.Context(), level, "HTTP request completed", fields.ToSlice()...)
	return resp, nil
}
