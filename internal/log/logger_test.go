package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Component: ComponentApp, Output: &buf})

	logger.WithComponent(ComponentSession).Info("session restored", FieldUser, "a@b.c")

	out := buf.String()
	if !strings.Contains(out, "component=session") {
		t.Errorf("expected component=session in %q", out)
	}
	if !strings.Contains(out, "user=a@b.c") {
		t.Errorf("expected user field in %q", out)
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, Component: ComponentApp, Output: &buf})

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("unexpected low-level record in %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("expected warn record in %q", out)
	}
}

func TestFromContext(t *testing.T) {
	logger := Discard().WithComponent(ComponentRouter)
	ctx := NewContext(context.Background(), logger)

	if got := FromContext(ctx); got != logger {
		t.Errorf("FromContext() returned a different logger")
	}
	if got := FromContext(context.Background()); got.Component() != "unknown" {
		t.Errorf("FromContext() fallback component = %q, want unknown", got.Component())
	}
}

func TestLogFields(t *testing.T) {
	fields := NewFields().
		WithOperation(OpCreate).
		WithEntity(42).
		WithError(nil).
		WithRequestID("")

	if fields[FieldOperation] != OpCreate {
		t.Errorf("operation = %v", fields[FieldOperation])
	}
	if fields[FieldEntityID] != int64(42) {
		t.Errorf("entity_id = %v", fields[FieldEntityID])
	}
	if _, ok := fields[FieldError]; ok {
		t.Errorf("nil error should not be recorded")
	}
	if _, ok := fields[FieldRequestID]; ok {
		t.Errorf("empty request id should not be recorded")
	}
	if len(fields.WithError(errors.New("boom")).ToSlice()) != 6 {
		t.Errorf("ToSlice() should flatten three pairs")
	}
}

func TestTransportLogsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Component: ComponentApp, Output: &buf})
	client := &http.Client{Transport: NewTransport(nil, logger)}

	resp, err := client.Get(srv.URL + "/accounts?x=1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	resp.Body.Close()

	out := buf.String()
	for _, want := range []string{"level=WARN", "status_code=404", "path=/accounts", "component=http"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
}

func TestTransportPrefersContextLogger(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	var own, scoped bytes.Buffer
	client := &http.Client{Transport: NewTransport(nil, New(Config{Level: slog.LevelDebug, Output: &own}))}
	cmdLogger := New(Config{Level: slog.LevelDebug, Component: ComponentApp, Output: &scoped}).With("command", "accounts")

	req, err := http.NewRequestWithContext(NewContext(context.Background(), cmdLogger), http.MethodGet, srv.URL+"/accounts", nil)
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	resp.Body.Close()

	if own.Len() != 0 {
		t.Errorf("transport logger should be bypassed, got %q", own.String())
	}
	out := scoped.String()
	for _, want := range []string{"command=accounts", "component=http", "status_code=200"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
}
