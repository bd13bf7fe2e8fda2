package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type fakeLimiterStore struct {
	counts map[string]int64
}

func (f *fakeLimiterStore) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	f.counts[key]++
	return f.counts[key], nil
}

func (f *fakeLimiterStore) RateLimitKey(scope string) string { return "rl:" + scope }

func TestRateLimitPerIP(t *testing.T) {
	store := &fakeLimiterStore{counts: map[string]int64{}}
	handler := RateLimit(NewRateLimitPolicy("global", 10*time.Minute, 2, 0), store, nil)(okHandler())

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		if resp := serve(handler, req); resp.Code != http.StatusOK {
			t.Fatalf("request %d should pass, got %d", i, resp.Code)
		}
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	resp := serve(handler, req)
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", resp.Code)
	}
	if resp.Header().Get("Retry-After") != "600" {
		t.Fatalf("expected Retry-After 600 got %q", resp.Header().Get("Retry-After"))
	}

	other := httptest.NewRequest(http.MethodGet, "/", nil)
	other.RemoteAddr = "10.0.0.2:1234"
	if resp := serve(handler, other); resp.Code != http.StatusOK {
		t.Fatalf("other IPs keep their own budget, got %d", resp.Code)
	}
}

func TestRateLimitPerEmailKeepsBody(t *testing.T) {
	store := &fakeLimiterStore{counts: map[string]int64{}}
	var seenBody string
	handler := RateLimit(NewRateLimitPolicy("login", time.Minute, 0, 1), store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := new(bytes.Buffer)
		_, _ = buf.ReadFrom(r.Body)
		seenBody = buf.String()
		w.WriteHeader(http.StatusOK)
	}))

	body := `{"email":"Ana@Example.com","password":"x"}`
	if resp := serve(handler, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))); resp.Code != http.StatusOK {
		t.Fatalf("first attempt should pass, got %d", resp.Code)
	}
	if seenBody != body {
		t.Fatalf("body must reach handler intact, got %q", seenBody)
	}
	second := `{"email":"ana@example.com","password":"y"}`
	if resp := serve(handler, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(second))); resp.Code != http.StatusTooManyRequests {
		t.Fatalf("normalized email should share budget, got %d", resp.Code)
	}
}

func TestRateLimitDisabledPolicy(t *testing.T) {
	handler := RateLimit(NewRateLimitPolicy("off", 0, 5, 5), &fakeLimiterStore{counts: map[string]int64{}}, nil)(okHandler())
	if resp := serve(handler, httptest.NewRequest(http.MethodGet, "/", nil)); resp.Code != http.StatusOK {
		t.Fatalf("disabled policy should pass, got %d", resp.Code)
	}
}
