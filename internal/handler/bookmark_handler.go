package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hitoshi/postfeed/internal/middleware"
	"github.com/hitoshi/postfeed/internal/model"
)

// BookmarkServiceInterface はブックマークハンドラーが必要とするサービスインターフェース。
type BookmarkServiceInterface interface {
	// Save は投稿スナップショットをブックマークとして保存する（冪等）。
	Save(ctx context.Context, deviceID string, post model.PostWithUser) error
	// Remove は指定投稿のブックマークを削除する。削除された場合はtrueを返す。
	Remove(ctx context.Context, deviceID string, postID int) (bool, error)
	// List は端末の保存済み投稿一覧を保存の新しい順で返す。
	List(ctx context.Context, deviceID string) ([]model.PostWithUser, error)
}

// BookmarkHandler はブックマーク管理のHTTPハンドラー。
// 認証を持たないため、端末の識別はX-Device-IDヘッダーで行う。
type BookmarkHandler struct {
	service BookmarkServiceInterface
}

// NewBookmarkHandler はBookmarkHandlerを生成する。
func NewBookmarkHandler(service BookmarkServiceInterface) *BookmarkHandler {
	return &BookmarkHandler{service: service}
}

// bookmarkListResponse はブックマーク一覧のレスポンス。
type bookmarkListResponse struct {
	Posts []model.PostWithUser `json:"posts"`
}

// ListBookmarks は端末の保存済み投稿一覧を取得する。
// GET /api/bookmarks
func (h *BookmarkHandler) ListBookmarks(w http.ResponseWriter, r *http.Request) {
	deviceID, ok := deviceIDFromRequest(w, r)
	if !ok {
		return
	}

	posts, err := h.service.List(r.Context(), deviceID)
	if err != nil {
		handleBookmarkError(w, err)
		return
	}

	if posts == nil {
		posts = []model.PostWithUser{}
	}

	writeJSON(w, http.StatusOK, bookmarkListResponse{Posts: posts})
}

// SaveBookmark は投稿スナップショットをブックマークとして保存する。
// PUT /api/bookmarks/{id}  ボディは保存時点のPostWithUser。
func (h *BookmarkHandler) SaveBookmark(w http.ResponseWriter, r *http.Request) {
	deviceID, ok := deviceIDFromRequest(w, r)
	if !ok {
		return
	}

	postID, ok := parsePostIDParam(w, r)
	if !ok {
		return
	}

	var post model.PostWithUser
	if err := json.NewDecoder(r.Body).Decode(&post); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidBookmarkError("リクエストボディを解析できません"))
		return
	}

	// パスのIDとスナップショットのIDの不一致は拒否する
	if post.ID != postID {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidBookmarkError("パスの投稿IDとスナップショットの投稿IDが一致しません"))
		return
	}

	if err := h.service.Save(r.Context(), deviceID, post); err != nil {
		handleBookmarkError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteBookmark は指定投稿のブックマークを削除する。
// DELETE /api/bookmarks/{id}
// 冪等な削除であり、存在しない場合も204を返す。
func (h *BookmarkHandler) DeleteBookmark(w http.ResponseWriter, r *http.Request) {
	deviceID, ok := deviceIDFromRequest(w, r)
	if !ok {
		return
	}

	postID, ok := parsePostIDParam(w, r)
	if !ok {
		return
	}

	if _, err := h.service.Remove(r.Context(), deviceID, postID); err != nil {
		handleBookmarkError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// deviceIDFromRequest はX-Device-IDヘッダーから端末IDを取得する。
// 未指定の場合はエラーレスポンスを書き込んでfalseを返す。
func deviceIDFromRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	deviceID := r.Header.Get("X-Device-ID")
	if deviceID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewDeviceIDRequiredError())
		return "", false
	}
	return deviceID, true
}

// handleBookmarkError はブックマークサービスのエラーをHTTPレスポンスに変換する。
func handleBookmarkError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	middleware.WriteInternalServerError(w)
}
