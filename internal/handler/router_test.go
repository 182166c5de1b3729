package handler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/postfeed/internal/middleware"
	"golang.org/x/time/rate"
)

type fakeHealthChecker struct {
	err error
}

func (f *fakeHealthChecker) PingContext(ctx context.Context) error {
	return f.err
}

func newTestRouterDeps(health HealthChecker) (*RouterDeps, *middleware.RateLimiter) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		GeneralRate:     rate.Limit(1000),
		GeneralBurst:    1000,
		CleanupInterval: time.Minute,
	})

	return &RouterDeps{
		Logger:            logger,
		CORSAllowedOrigin: "http://localhost:3000",
		RateLimiter:       rl,
		FeedService:       &fakeFeedService{},
		BookmarkService:   &fakeBookmarkService{},
		Health:            health,
	}, rl
}

func TestNewRouter_Healthz(t *testing.T) {
	deps, rl := newTestRouterDeps(&fakeHealthChecker{})
	defer rl.Stop()

	router := NewRouter(deps)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("ステータスコード = %d, want 200", rec.Code)
	}
}

func TestNewRouter_HealthzUnavailable(t *testing.T) {
	deps, rl := newTestRouterDeps(&fakeHealthChecker{err: errors.New("db down")})
	defer rl.Stop()

	router := NewRouter(deps)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("ステータスコード = %d, want 503", rec.Code)
	}
}

func TestNewRouter_APIRoutesAreWired(t *testing.T) {
	deps, rl := newTestRouterDeps(&fakeHealthChecker{})
	defer rl.Stop()

	router := NewRouter(deps)

	tests := []struct {
		method     string
		path       string
		deviceID   string
		wantStatus int
	}{
		{http.MethodGet, "/api/feed", "", http.StatusOK},
		{http.MethodGet, "/api/comments", "", http.StatusOK},
		{http.MethodGet, "/api/posts/1/comments", "", http.StatusOK},
		{http.MethodGet, "/api/posts/1", "", http.StatusNotFound}, // フェイクのdetailはnil
		{http.MethodGet, "/api/bookmarks", "device-1", http.StatusOK},
		{http.MethodDelete, "/api/bookmarks/1", "device-1", http.StatusNoContent},
		{http.MethodGet, "/api/unknown", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		if tt.deviceID != "" {
			req.Header.Set("X-Device-ID", tt.deviceID)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != tt.wantStatus {
			t.Errorf("%s %s: ステータスコード = %d, want %d", tt.method, tt.path, rec.Code, tt.wantStatus)
		}
	}
}

func TestNewRouter_MiddlewareChainApplied(t *testing.T) {
	deps, rl := newTestRouterDeps(&fakeHealthChecker{})
	defer rl.Stop()

	router := NewRouter(deps)

	req := httptest.NewRequest(http.MethodGet, "/api/feed", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// リクエストIDミドルウェアが適用されていること
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-IDヘッダーが設定されていない")
	}
	// CORSミドルウェアが適用されていること
	if rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Error("CORSヘッダーが設定されていない")
	}
}

func TestNewRouter_RateLimitAppliesOnlyToAPIRoutes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	// バースト1の厳しいリミッター
	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		GeneralRate:     rate.Limit(0.001),
		GeneralBurst:    1,
		CleanupInterval: time.Minute,
	})
	defer rl.Stop()

	deps := &RouterDeps{
		Logger:            logger,
		CORSAllowedOrigin: "http://localhost:3000",
		RateLimiter:       rl,
		FeedService:       &fakeFeedService{},
		BookmarkService:   &fakeBookmarkService{},
		Health:            &fakeHealthChecker{},
	}
	router := NewRouter(deps)

	// APIルートはバースト超過で429になる
	var last int
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/feed", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("バースト超過後のAPIステータスコード = %d, want 429", last)
	}

	// ヘルスチェックはレート制限の外
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("/healthzのステータスコード = %d, want 200", rec.Code)
	}
}
