// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, feed, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodePostNotFound     = "POST_NOT_FOUND"
	ErrCodeInvalidPage      = "INVALID_PAGE"
	ErrCodeInvalidPostID    = "INVALID_POST_ID"
	ErrCodeDeviceIDRequired = "DEVICE_ID_REQUIRED"
	ErrCodeInvalidBookmark  = "INVALID_BOOKMARK"
	ErrCodeUpstreamDown     = "UPSTREAM_UNAVAILABLE"
)

// NewPostNotFoundError は投稿未検出エラーを生成する。
func NewPostNotFoundError(postID int) *APIError {
	return &APIError{
		Code:     ErrCodePostNotFound,
		Message:  fmt.Sprintf("指定された投稿が見つかりません: %d", postID),
		Category: "feed",
		Action:   "投稿は削除された可能性があります。フィードを再読み込みしてください。",
	}
}

// NewInvalidPageError は無効なページ番号エラーを生成する。
func NewInvalidPageError(raw string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPage,
		Message:  fmt.Sprintf("無効なページ番号です: %s", raw),
		Category: "validation",
		Action:   "pageには1以上の整数を指定してください。",
	}
}

// NewInvalidPostIDError は無効な投稿IDエラーを生成する。
func NewInvalidPostIDError(raw string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPostID,
		Message:  fmt.Sprintf("無効な投稿IDです: %s", raw),
		Category: "validation",
		Action:   "投稿IDには1以上の整数を指定してください。",
	}
}

// NewDeviceIDRequiredError はデバイスID未指定エラーを生成する。
func NewDeviceIDRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeDeviceIDRequired,
		Message:  "X-Device-IDヘッダーが指定されていません。",
		Category: "validation",
		Action:   "端末固有のX-Device-IDヘッダーを付与してください。",
	}
}

// NewUpstreamUnavailableError はアップストリーム利用不可エラーを生成する。
func NewUpstreamUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamDown,
		Message:  "アップストリームAPIから応答を取得できませんでした。",
		Category: "feed",
		Action:   "しばらく待ってから再試行してください。",
	}
}

// NewInvalidBookmarkError は無効なブックマークリクエストエラーを生成する。
func NewInvalidBookmarkError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidBookmark,
		Message:  fmt.Sprintf("無効なブックマークリクエストです: %s", reason),
		Category: "validation",
		Action:   "保存する投稿のスナップショットをリクエストボディに指定してください。",
	}
}
