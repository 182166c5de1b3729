package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/postfeed/internal/gorest"
	"github.com/hitoshi/postfeed/internal/model"
)

// FeedServiceInterface はフィードハンドラーが必要とする集約サービスのインターフェース。
// すべての操作は失敗吸収境界の内側にあり、エラーを返さない。
type FeedServiceInterface interface {
	// LoadFeedPage はフィード1ページ分の投稿一覧を返す。空は終端または失敗を意味する。
	LoadFeedPage(ctx context.Context, page int) []model.PostWithUser
	// LoadPostDetail は投稿詳細を返す。未検出の場合はnilを返す。
	LoadPostDetail(ctx context.Context, postID int) *model.PostDetail
	// CommentsWithUsers は投稿のコメント一覧を合成ユーザー付きで返す。
	CommentsWithUsers(ctx context.Context, postID int) []model.CommentWithUser
	// LoadComments はコメントを横断的に取得する。
	LoadComments(ctx context.Context, page int) []model.CommentWithUser
	// LoadFeedPageFromKnownUsers は既知ユーザーに限定したフィードを返す。
	// この操作のみ失敗吸収境界の外にあり、エラーが伝播する。
	LoadFeedPageFromKnownUsers(ctx context.Context, page int) ([]model.PostWithUser, error)
}

// FeedHandler はフィード系エンドポイントのHTTPハンドラー。
type FeedHandler struct {
	service FeedServiceInterface
}

// NewFeedHandler はFeedHandlerを生成する。
func NewFeedHandler(service FeedServiceInterface) *FeedHandler {
	return &FeedHandler{service: service}
}

// --- レスポンス型 ---

// feedPageResponse はフィード1ページのレスポンス。
// has_moreは「ページがper_page件に満たなければ終端」というヒューリスティックであり、
// 取得失敗による空ページと真の終端は区別されない（意図された設計トレードオフ）。
type feedPageResponse struct {
	Page    int                  `json:"page"`
	Posts   []model.PostWithUser `json:"posts"`
	HasMore bool                 `json:"has_more"`
}

// commentsResponse はコメント一覧のレスポンス。
type commentsResponse struct {
	Comments []model.CommentWithUser `json:"comments"`
}

// commentsPageResponse は横断コメント一覧のレスポンス。
type commentsPageResponse struct {
	Page     int                     `json:"page"`
	Comments []model.CommentWithUser `json:"comments"`
}

// GetFeedPage はフィード1ページ分の投稿一覧を取得する。
// GET /api/feed?page=1
// source=known を指定すると既知ユーザー限定の代替パスを使用する。
// 通常パスは失敗を空ページに吸収するが、代替パスの失敗は503になる。
func (h *FeedHandler) GetFeedPage(w http.ResponseWriter, r *http.Request) {
	page, ok := parsePageParam(w, r)
	if !ok {
		return
	}

	var posts []model.PostWithUser
	if r.URL.Query().Get("source") == "known" {
		var err error
		posts, err = h.service.LoadFeedPageFromKnownUsers(r.Context(), page)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusServiceUnavailable, model.NewUpstreamUnavailableError())
			return
		}
	} else {
		posts = h.service.LoadFeedPage(r.Context(), page)
	}

	writeJSON(w, http.StatusOK, feedPageResponse{
		Page:    page,
		Posts:   posts,
		HasMore: len(posts) == gorest.PostsPerPage,
	})
}

// GetPostDetail は投稿詳細（投稿・投稿者・コメント）を取得する。
// GET /api/posts/{id}
func (h *FeedHandler) GetPostDetail(w http.ResponseWriter, r *http.Request) {
	postID, ok := parsePostIDParam(w, r)
	if !ok {
		return
	}

	detail := h.service.LoadPostDetail(r.Context(), postID)
	if detail == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewPostNotFoundError(postID))
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

// GetPostComments は投稿のコメント一覧を取得する。
// GET /api/posts/{id}/comments
func (h *FeedHandler) GetPostComments(w http.ResponseWriter, r *http.Request) {
	postID, ok := parsePostIDParam(w, r)
	if !ok {
		return
	}

	comments := h.service.CommentsWithUsers(r.Context(), postID)

	writeJSON(w, http.StatusOK, commentsResponse{Comments: comments})
}

// GetComments はコメントを横断的に取得する。
// GET /api/comments?page=1
func (h *FeedHandler) GetComments(w http.ResponseWriter, r *http.Request) {
	page, ok := parsePageParam(w, r)
	if !ok {
		return
	}

	comments := h.service.LoadComments(r.Context(), page)

	writeJSON(w, http.StatusOK, commentsPageResponse{
		Page:     page,
		Comments: comments,
	})
}

// parsePageParam はpageクエリパラメータを解析する。省略時は1。
// 無効な場合はエラーレスポンスを書き込んでfalseを返す。
func parsePageParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return 1, true
	}

	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidPageError(raw))
		return 0, false
	}

	return page, true
}

// parsePostIDParam はidパスパラメータを解析する。
// 無効な場合はエラーレスポンスを書き込んでfalseを返す。
func parsePostIDParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "id")

	postID, err := strconv.Atoi(raw)
	if err != nil || postID < 1 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidPostIDError(raw))
		return 0, false
	}

	return postID, true
}
