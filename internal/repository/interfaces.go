// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/postfeed/internal/model"
)

// BookmarkRepository はブックマークデータの永続化インターフェース。
// ブックマークは保存時点のPostWithUserスナップショットを不透明なJSONとして保持する。
type BookmarkRepository interface {
	// Upsert はブックマークを作成する。同じ(device_id, post_id)が既に存在する
	// 場合はスナップショットを置き換える（保存時刻は維持する）。
	Upsert(ctx context.Context, deviceID string, postID int, snapshot []byte) error

	// Delete は指定端末・投稿のブックマークを削除する。
	// 削除された場合はtrueを返す。存在しない場合はfalseとnilエラーを返す。
	Delete(ctx context.Context, deviceID string, postID int) (bool, error)

	// ListByDevice は端末のブックマーク一覧を保存の新しい順で返す。
	ListByDevice(ctx context.Context, deviceID string) ([]*model.Bookmark, error)

	// Exists は指定端末・投稿のブックマークが存在するかを返す。
	Exists(ctx context.Context, deviceID string, postID int) (bool, error)
}
