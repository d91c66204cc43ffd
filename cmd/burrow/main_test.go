package main

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/erazemk/burrow/internal/config"
	"github.com/erazemk/burrow/internal/db"
)

func TestLevelRouter(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := slog.New(newLevelRouter(&stdout, &stderr)).With("component", "test")

	logger.Debug("hidden")
	logger.Info("info line")
	logger.Warn("warn line")
	logger.Error("error line")

	if strings.Contains(stdout.String(), "hidden") || strings.Contains(stderr.String(), "hidden") {
		t.Error("debug records should be dropped")
	}
	if !strings.Contains(stdout.String(), "info line") || !strings.Contains(stdout.String(), "warn line") {
		t.Errorf("expected info and warn on stdout, got %q", stdout.String())
	}
	if strings.Contains(stdout.String(), "error line") {
		t.Error("error records should not reach stdout")
	}
	if !strings.Contains(stderr.String(), "error line") || !strings.Contains(stderr.String(), "component=test") {
		t.Errorf("expected error with attrs on stderr, got %q", stderr.String())
	}
}

func newTestHandler(t *testing.T, origins ...string) http.Handler {
	t.Helper()
	cfg := config.Default()
	cfg.Server.CORSOrigins = origins

	handler, err := newHandler(cfg, db.NewTestDB(t), "test-secret")
	if err != nil {
		t.Fatalf("newHandler: %v", err)
	}
	return handler
}

func TestHandlerRoutes(t *testing.T) {
	handler := newTestHandler(t)

	tests := []struct {
		path        string
		status      int
		contentType string
	}{
		{"/", http.StatusOK, "text/html"},
		{"/browse", http.StatusOK, "text/html"},
		{"/static/style.css", http.StatusOK, "text/css"},
		{"/api/items", http.StatusOK, "application/json"},
		{"/api/nope", http.StatusNotFound, "application/json"},
		{"/nope", http.StatusNotFound, "text/html"},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

		if rec.Code != tt.status {
			t.Errorf("GET %s: expected %d, got %d", tt.path, tt.status, rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, tt.contentType) {
			t.Errorf("GET %s: expected content type %s, got %s", tt.path, tt.contentType, ct)
		}
	}
}

func TestHandlerLogsRequestID(t *testing.T) {
	handler := newTestHandler(t)

	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(newLevelRouter(&buf, &buf)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(buf.String(), "request_id=abc-123") {
		t.Errorf("expected request id in log, got %q", buf.String())
	}
}

func TestHandlerCORS(t *testing.T) {
	handler := newTestHandler(t, "https://app.example.com")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/items", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("expected allowed origin, got %q", got)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/items", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no CORS header for unknown origin, got %q", got)
	}
}
