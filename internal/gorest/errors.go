package gorest

import (
	"errors"
	"fmt"
)

// ErrorKind はアップストリーム呼び出し失敗の分類を表す。
type ErrorKind int

const (
	// KindNotFound はHTTP 404。終端エラーでありリトライ対象外。
	KindNotFound ErrorKind = iota
	// KindRateLimited はHTTP 429。
	KindRateLimited
	// KindTransient はネットワークエラーおよび5xx。リトライで回復しうる。
	KindTransient
	// KindFatal は不正なレスポンスなど予期しない失敗。リトライしても無意味。
	KindFatal
)

// String はErrorKindの表示名を返す。
func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindRateLimited:
		return "rate_limited"
	case KindTransient:
		return "transient"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// APIError はアップストリームAPI呼び出しの失敗を表す。
// 分類・HTTPステータス・対象エンドポイントと原因エラーを保持する。
type APIError struct {
	Kind       ErrorKind
	StatusCode int // HTTPレスポンスに起因しない失敗では0
	Endpoint   string
	Err        error
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("gorest %s: %s (status %d)", e.Endpoint, e.Kind, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("gorest %s: %s: %v", e.Endpoint, e.Kind, e.Err)
	}
	return fmt.Sprintf("gorest %s: %s", e.Endpoint, e.Kind)
}

// Unwrap は原因エラーを返す。
func (e *APIError) Unwrap() error {
	return e.Err
}

// ClassifyStatus はHTTPステータスコードをErrorKindに分類する。
// 404はNotFound、429はRateLimited、5xxはTransient、それ以外の異常はFatal。
func ClassifyStatus(statusCode int) ErrorKind {
	switch {
	case statusCode == 404:
		return KindNotFound
	case statusCode == 429:
		return KindRateLimited
	case statusCode >= 500:
		return KindTransient
	default:
		return KindFatal
	}
}

// IsNotFound はerrが404分類のAPIErrorかどうかを返す。
func IsNotFound(err error) bool {
	return isKind(err, KindNotFound)
}

// IsRateLimited はerrが429分類のAPIErrorかどうかを返す。
func IsRateLimited(err error) bool {
	return isKind(err, KindRateLimited)
}

// IsTransient はerrが一時的失敗分類のAPIErrorかどうかを返す。
func IsTransient(err error) bool {
	return isKind(err, KindTransient)
}

func isKind(err error, kind ErrorKind) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind == kind
	}
	return false
}
