// Package model はドメインモデルを定義する。
package model

// Post はアップストリームAPIの投稿を表す。
// 取得後は不変として扱い、更新は行わない（置き換えのみ）。
type Post struct {
	ID     int    `json:"id"`
	UserID int    `json:"user_id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// PostWithUser は投稿と投稿者を結合したUI表示用モデル。
// 集約層の出力ではUserは常に非nil（実ユーザーまたはプレースホルダー）。
// nilは集約処理中の一時状態としてのみ存在する。
type PostWithUser struct {
	Post
	User *User `json:"user"`
}

// PostDetail は投稿詳細画面用の集約モデル。
// 投稿・投稿者・コメント一覧を1回のロードでまとめて返す。
type PostDetail struct {
	PostWithUser
	Comments []CommentWithUser `json:"comments"`
}
