package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/postfeed/internal/middleware"
)

// HealthChecker はヘルスチェックで疎通確認する依存のインターフェース。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// フィード
	FeedService FeedServiceInterface

	// ブックマーク
	BookmarkService BookmarkServiceInterface

	// 運用エンドポイント
	Health         HealthChecker
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RecoveryMiddleware → RequestIDMiddleware → LoggingMiddleware → CORSMiddleware → RateLimitMiddleware
//
// 運用エンドポイント（/healthz, /metrics）はレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	feedHandler := NewFeedHandler(deps.FeedService)
	bookmarkHandler := NewBookmarkHandler(deps.BookmarkService)

	// --- 運用エンドポイント ---

	r.Get("/healthz", newHealthzHandler(deps.Health))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- APIルート ---
	// ミドルウェアスタック: RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.Middleware())

		// フィード
		r.Get("/api/feed", feedHandler.GetFeedPage)

		// 投稿詳細
		r.Route("/api/posts/{id}", func(r chi.Router) {
			r.Get("/", feedHandler.GetPostDetail)
			r.Get("/comments", feedHandler.GetPostComments)
		})

		// コメント一覧
		r.Get("/api/comments", feedHandler.GetComments)

		// ブックマーク管理
		r.Route("/api/bookmarks", func(r chi.Router) {
			r.Get("/", bookmarkHandler.ListBookmarks)

			r.Route("/{id}", func(r chi.Router) {
				r.Put("/", bookmarkHandler.SaveBookmark)
				r.Delete("/", bookmarkHandler.DeleteBookmark)
			})
		})
	})

	return r
}

// newHealthzHandler はデータベース疎通を確認するヘルスチェックハンドラーを返す。
func newHealthzHandler(health HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if health != nil {
			if err := health.PingContext(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
