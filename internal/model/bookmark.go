// Package model はドメインモデルを定義する。
package model

import "time"

// Bookmark は端末ごとに保存された投稿スナップショットを表す。
// スナップショットは保存時点のPostWithUserをそのまま保持し、
// フィード取得コアからは読み書きされない（UI協調コンポーネントの責務）。
type Bookmark struct {
	ID        string
	DeviceID  string
	PostID    int
	Snapshot  PostWithUser
	CreatedAt time.Time
}
