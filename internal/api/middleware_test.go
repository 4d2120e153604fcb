// Cinegraph - Movie Similarity Graph Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tomtom215/cinegraph/internal/logging"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestNewChiMiddleware_DefaultConfig(t *testing.T) {
	m := NewChiMiddleware(nil)
	if m.config == nil {
		t.Fatal("config is nil")
	}
	if len(m.config.CORSAllowedOrigins) != 0 {
		t.Errorf("CORSAllowedOrigins = %v, want []", m.config.CORSAllowedOrigins)
	}
	if m.config.RateLimitRequests != 100 {
		t.Errorf("RateLimitRequests = %d, want 100", m.config.RateLimitRequests)
	}
}

func TestNewMiddlewareConfig(t *testing.T) {
	cfg := NewMiddlewareConfig([]string{"https://example.com"}, 10, 2*time.Minute, true)
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "https://example.com" {
		t.Errorf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
	if cfg.RateLimitRequests != 10 || cfg.RateLimitWindow != 2*time.Minute || !cfg.RateLimitDisabled {
		t.Errorf("rate limit settings not applied: %+v", cfg)
	}
	if cfg.CORSMaxAge != 86400 {
		t.Errorf("CORSMaxAge = %d, want default 86400", cfg.CORSMaxAge)
	}
}

func TestCORS_Preflight(t *testing.T) {
	m := NewChiMiddleware(NewMiddlewareConfig([]string{"https://viz.example.com"}, 100, time.Minute, true))
	handler := m.CORS()(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/movies", nil)
	req.Header.Set("Origin", "https://viz.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://viz.example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/movies", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unexpected Access-Control-Allow-Origin %q for disallowed origin", got)
	}
}

func TestRateLimit(t *testing.T) {
	m := NewChiMiddleware(NewMiddlewareConfig(nil, 2, time.Minute, false))
	handler := m.RateLimit()(okHandler())

	codes := make([]int, 3)
	for i := range codes {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/movies", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes[i] = rec.Code
		if i == 2 && rec.Header().Get("Content-Type") != "application/json" {
			t.Errorf("limited response Content-Type = %q", rec.Header().Get("Content-Type"))
		}
	}

	want := []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("request %d: status = %d, want %d", i, codes[i], want[i])
		}
	}
}

func TestRateLimit_Disabled(t *testing.T) {
	m := NewChiMiddleware(NewMiddlewareConfig(nil, 1, time.Minute, true))
	handler := m.RateLimit()(okHandler())

	for i := range 5 {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, rec.Code)
		}
	}
}

func TestRequestIDWithLogging(t *testing.T) {
	var seen string
	handler := RequestIDWithLogging()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.RequestIDFromContext(r.Context())
	}))

	t.Run("propagates incoming id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "req-123")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if seen != "req-123" {
			t.Errorf("context request id = %q, want req-123", seen)
		}
		if got := rec.Header().Get(RequestIDHeader); got != "req-123" {
			t.Errorf("response header = %q, want req-123", got)
		}
	})

	t.Run("generates id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if seen == "" {
			t.Error("expected generated request id in context")
		}
		if got := rec.Header().Get(RequestIDHeader); got != seen {
			t.Errorf("response header = %q, want %q", got, seen)
		}
	})
}

func TestRoutePattern_Unmatched(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if got := routePattern(req); got != "unmatched" {
		t.Errorf("routePattern = %q, want unmatched", got)
	}
}
