package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/hitoshi/postfeed/internal/model"
)

// PostgresBookmarkRepo はPostgreSQLを使用したブックマークリポジトリ。
type PostgresBookmarkRepo struct {
	db *sql.DB
}

// NewPostgresBookmarkRepo はPostgresBookmarkRepoを生成する。
func NewPostgresBookmarkRepo(db *sql.DB) *PostgresBookmarkRepo {
	return &PostgresBookmarkRepo{db: db}
}

// Upsert はブックマークを作成する。同じ(device_id, post_id)が既に存在する場合は
// スナップショットのみ置き換える。
func (r *PostgresBookmarkRepo) Upsert(ctx context.Context, deviceID string, postID int, snapshot []byte) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bookmarks (id, device_id, post_id, snapshot, created_at)
		 VALUES ($1, $2, $3, $4, now())
		 ON CONFLICT (device_id, post_id)
		 DO UPDATE SET snapshot = EXCLUDED.snapshot`,
		uuid.NewString(), deviceID, postID, snapshot,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert bookmark: %w", err)
	}
	return nil
}

// Delete は指定端末・投稿のブックマークを削除する。
// 削除された場合はtrueを返す。
func (r *PostgresBookmarkRepo) Delete(ctx context.Context, deviceID string, postID int) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM bookmarks WHERE device_id = $1 AND post_id = $2`,
		deviceID, postID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete bookmark: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected > 0, nil
}

// ListByDevice は端末のブックマーク一覧を保存の新しい順で返す。
// スナップショットのデコードに失敗した行はスキップする（後方互換のため）。
func (r *PostgresBookmarkRepo) ListByDevice(ctx context.Context, deviceID string) ([]*model.Bookmark, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, device_id, post_id, snapshot, created_at
		 FROM bookmarks
		 WHERE device_id = $1
		 ORDER BY created_at DESC`,
		deviceID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}
	defer rows.Close()

	var bookmarks []*model.Bookmark
	for rows.Next() {
		b := &model.Bookmark{}
		var snapshot []byte
		if err := rows.Scan(&b.ID, &b.DeviceID, &b.PostID, &snapshot, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bookmark: %w", err)
		}
		if err := json.Unmarshal(snapshot, &b.Snapshot); err != nil {
			continue
		}
		bookmarks = append(bookmarks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookmarks: %w", err)
	}

	return bookmarks, nil
}

// Exists は指定端末・投稿のブックマークが存在するかを返す。
func (r *PostgresBookmarkRepo) Exists(ctx context.Context, deviceID string, postID int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM bookmarks WHERE device_id = $1 AND post_id = $2
		 )`,
		deviceID, postID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check bookmark existence: %w", err)
	}

	return exists, nil
}

// compile-time interface check
var _ BookmarkRepository = (*PostgresBookmarkRepo)(nil)
