package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"newsmarker/internal/core"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *string         `json:"error"`
	Message string          `json:"message"`
}

func testConfig() *core.Config {
	return &core.Config{
		Server:   core.ServerConfig{Host: "127.0.0.1", Port: 4000},
		Database: core.DatabaseConfig{Driver: core.DriverSQLite, DSN: ":memory:"},
		Auth:     core.AuthConfig{JWTSecret: "server-test-secret", TokenTTL: time.Hour},
		Log:      core.LogConfig{Level: "error"},
		RateLimit: core.RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 3,
		},
		Features: core.FeatureConfig{
			Feeds: core.FeedsConfig{
				Enabled:              true,
				FetchInterval:        30 * time.Minute,
				FetchTimeout:         2 * time.Second,
				MaxEntriesPerFeed:    15,
				MaxConcurrentFetches: 4,
				UserAgent:            "NewsMarker/test",
				FetchSecret:          "cron-secret",
			},
			AI: core.AIConfig{
				Provider:  core.AIProviderNone,
				Strategy:  core.StrategyPerCategory,
				BatchSize: 15,
				Timeout:   time.Second,
			},
			Bookmarks: core.BookmarksConfig{Enabled: true},
		},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	srv, err := New(context.Background(), testConfig(), core.NewLoggerWithLevel("error"))
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	t.Cleanup(func() { srv.Close() })
	return srv
}

func do(t *testing.T, srv *Server, method, path, body, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.RemoteAddr = "192.0.2.10:52000"
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: response is not an envelope: %v (%s)", method, path, err, rec.Body.String())
	}
	return rec, env
}

func errorCode(env envelope) string {
	if env.Error == nil {
		return ""
	}
	return *env.Error
}

func TestHealthReportsFeatures(t *testing.T) {
	srv := newTestServer(t)

	rec, env := do(t, srv, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("Expected healthy response, got %d %+v", rec.Code, env)
	}

	var data struct {
		Status   string                        `json:"status"`
		Database string                        `json:"database"`
		Features map[string]core.FeatureStatus `json:"features"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("Failed to decode health data: %v", err)
	}
	if data.Status != "ok" || data.Database != "ok" {
		t.Errorf("Unexpected health status: %+v", data)
	}
	for _, name := range []string{"auth", "feeds", "bookmarks"} {
		if !data.Features[name].Enabled {
			t.Errorf("Expected feature %s to be enabled", name)
		}
	}
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	srv := newTestServer(t)

	rec, env := do(t, srv, http.MethodGet, "/nope", "", "")
	if rec.Code != http.StatusNotFound || errorCode(env) != core.ErrCodeNotFound {
		t.Errorf("Expected 404 NOT_FOUND, got %d %q", rec.Code, errorCode(env))
	}
}

func TestBookmarksRequireAuthentication(t *testing.T) {
	srv := newTestServer(t)

	rec, env := do(t, srv, http.MethodGet, "/bookmarks", "", "")
	if rec.Code != http.StatusUnauthorized || errorCode(env) != core.ErrCodeUnauthenticated {
		t.Errorf("Expected 401 UNAUTHENTICATED, got %d %q", rec.Code, errorCode(env))
	}
	if string(env.Data) != "null" {
		t.Errorf("Expected null data, got %s", env.Data)
	}

	rec, env = do(t, srv, http.MethodGet, "/bookmarks", "", "not-a-jwt")
	if rec.Code != http.StatusUnauthorized || errorCode(env) != core.ErrCodeUnauthenticated {
		t.Errorf("Expected 401 for a bad token, got %d %q", rec.Code, errorCode(env))
	}
}

func TestRegisterThenBookmark(t *testing.T) {
	srv := newTestServer(t)

	rec, env := do(t, srv, http.MethodPost, "/auth/register",
		`{"email":"reader@example.com","password":"correct horse","displayName":"Reader"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201 on register, got %d %+v", rec.Code, env)
	}
	var auth struct {
		Token struct {
			Token string `json:"token"`
		} `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &auth); err != nil || auth.Token.Token == "" {
		t.Fatalf("Expected a token, got %s (%v)", env.Data, err)
	}
	token := auth.Token.Token

	body := `{"articleId":"abc123","title":"Chips","description":"d","link":"https://example.com/a",` +
		`"source":"Ars Technica","category":"tech","pubDate":"2026-01-01T00:00:00.000Z"}`
	rec, env = do(t, srv, http.MethodPost, "/bookmarks", body, token)
	if rec.Code != http.StatusCreated || env.Message != "Bookmarked successfully" {
		t.Fatalf("Expected 201 on add, got %d %+v", rec.Code, env)
	}

	rec, env = do(t, srv, http.MethodGet, "/bookmarks?category=tech", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 on list, got %d %+v", rec.Code, env)
	}
	var list struct {
		Total     int `json:"total"`
		Bookmarks []struct {
			ArticleID string `json:"articleId"`
		} `json:"bookmarks"`
	}
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("Failed to decode list: %v", err)
	}
	if list.Total != 1 || list.Bookmarks[0].ArticleID != "abc123" {
		t.Errorf("Unexpected bookmark list: %+v", list)
	}
}

func TestGetFeedBeforeFirstCycle(t *testing.T) {
	srv := newTestServer(t)

	rec, env := do(t, srv, http.MethodGet, "/feed?category=tech", "", "")
	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("Expected 200, got %d %+v", rec.Code, env)
	}
	if env.Message != "No articles found" {
		t.Errorf("Unexpected message %q", env.Message)
	}

	rec, env = do(t, srv, http.MethodGet, "/feed?category=sports", "", "")
	if rec.Code != http.StatusBadRequest || errorCode(env) != core.ErrCodeInvalidInput {
		t.Errorf("Expected 400 INVALID_INPUT, got %d %q", rec.Code, errorCode(env))
	}
}

func TestTriggerFetchRejectsWrongSecret(t *testing.T) {
	srv := newTestServer(t)

	rec, env := do(t, srv, http.MethodPost, "/feed/fetch", "", "wrong")
	if rec.Code != http.StatusUnauthorized || errorCode(env) != core.ErrCodeUnauthorized {
		t.Errorf("Expected 401 UNAUTHORIZED, got %d %q", rec.Code, errorCode(env))
	}
}

func TestWriteRoutesAreRateLimited(t *testing.T) {
	srv := newTestServer(t)

	for i := range 3 {
		rec, _ := do(t, srv, http.MethodPost, "/auth/login", `{}`, "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("Request %d: expected 400, got %d", i+1, rec.Code)
		}
	}

	rec, env := do(t, srv, http.MethodPost, "/auth/login", `{}`, "")
	if rec.Code != http.StatusTooManyRequests || errorCode(env) != core.ErrCodeRateLimited {
		t.Errorf("Expected 429 RATE_LIMITED, got %d %q", rec.Code, errorCode(env))
	}

	// Reads share no budget with writes.
	rec, _ = do(t, srv, http.MethodGet, "/feed", "", "")
	if rec.Code != http.StatusOK {
		t.Errorf("Expected reads to stay available, got %d", rec.Code)
	}
}

func TestRunFetchCycleWithUnreachableSources(t *testing.T) {
	srv := newTestServer(t)
	srv.Feeds().Pipeline().SetClock(func() time.Time {
		return time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)
	})

	// Point every source at a closed server so the cycle completes empty.
	ts := httptest.NewServer(http.NotFoundHandler())
	ts.Close()
	for i := range srv.Feeds().Pipeline().Sources() {
		srv.Feeds().Pipeline().Sources()[i].URL = ts.URL
	}

	result, err := srv.RunFetchCycle(context.Background())
	if err != nil {
		t.Fatalf("Expected the cycle to succeed, got %v", err)
	}
	if result.TotalArticles != 0 {
		t.Errorf("Expected no articles, got %d", result.TotalArticles)
	}

	rec, env := do(t, srv, http.MethodGet, "/feed?category=tech", "", "")
	if rec.Code != http.StatusOK || env.Message != "Fetched articles successfully" {
		t.Errorf("Expected the written cache to be readable, got %d %q", rec.Code, env.Message)
	}
}

func TestShutdownClosesDatabase(t *testing.T) {
	srv := newTestServer(t)

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	rec, env := do(t, srv, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusServiceUnavailable || env.Success {
		t.Fatalf("Expected 503 after shutdown, got %d %+v", rec.Code, env)
	}
	var data struct {
		Database string `json:"database"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Database != "unreachable" {
		t.Errorf("Expected an unreachable database, got %s (%v)", env.Data, err)
	}
}
