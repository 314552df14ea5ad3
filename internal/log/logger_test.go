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

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{"WARN", slog.LevelWarn, false},
		{" error ", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewText(&buf, slog.LevelDebug, ComponentStore)

	logger.Info("hello", FieldCategory, "Food")
	out := buf.String()
	if !strings.Contains(out, "component=store") || !strings.Contains(out, "category=Food") {
		t.Errorf("unexpected output %q", out)
	}

	buf.Reset()
	logger.WithComponent(ComponentHTTP).Debug("request")
	if !strings.Contains(buf.String(), "component=http") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewText(&buf, slog.LevelWarn, ComponentApp)
	logger.Info("dropped")
	logger.Warn("kept")
	if strings.Contains(buf.String(), "dropped") || !strings.Contains(buf.String(), "kept") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestMiddlewareStoresLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewText(&buf, slog.LevelInfo, ComponentApp)

	var got *Logger
	h := Middleware(logger)(RequestIDMiddleware(func(*http.Request) string { return "req-1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = FromContext(r.Context())
			got.Info("inside")
		})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got == nil || !strings.Contains(buf.String(), "request_id=req-1") {
		t.Errorf("logger not propagated, output %q", buf.String())
	}
	if FromContext(context.Background()).Component() != "unknown" {
		t.Error("expected fallback logger")
	}
}

func TestComponentMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := NewText(&buf, slog.LevelInfo, ComponentApp)

	h := Middleware(logger)(ComponentMiddleware(ComponentAPI)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := FromContext(r.Context())
			if l.Component() != ComponentAPI {
				t.Errorf("component = %q, want %q", l.Component(), ComponentAPI)
			}
			l.Info("inside")
		})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/chart", nil))

	if !strings.Contains(buf.String(), "component=api") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestStructuredLoggerExpense(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(NewText(&buf, slog.LevelInfo, ComponentStore))

	sl.LogExpenseChanged(context.Background(), OpCreate, 7, "Coffee", 350, "Food", "Alex")
	sl.LogError(context.Background(), "boom", errors.New("disk"), ComponentStorage, OpUpdate, NewFields())

	out := buf.String()
	for _, want := range []string{"expense_id=7", "amount_cents=350", "person=Alex", "operation=create", "error=disk"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}
