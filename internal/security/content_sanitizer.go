// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService はアップストリームAPI由来のテキストをサニタイズし、
// XSSなどのセキュリティリスクからモバイルUIを保護する。
// アップストリームの投稿・コメント本文はプレーンテキスト想定のため、
// bluemondayのStrictPolicyですべてのHTMLタグを除去する。
package security

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService はテキストサニタイズのインターフェースを定義する。
// フィード・投稿詳細のレスポンス組み立て時に使用される。
type ContentSanitizerService interface {
	// Sanitize は入力からすべてのHTMLタグを除去したプレーンテキストを返す。
	// 空文字列の入力には空文字列を返す。同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのStrictPolicyを保持し、スレッドセーフにサニタイズ処理を行う。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyはタグを一切許可しない（タグ除去後のテキストのみ通過させる）。
func NewContentSanitizer() *contentSanitizer {
	return &contentSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力からすべてのHTMLタグを除去したプレーンテキストを返す。
// bluemondayはエンティティをエスケープ済みで返すため、
// プレーンテキストとして扱えるようアンエスケープして返す。
func (s *contentSanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	return html.UnescapeString(s.policy.Sanitize(raw))
}
