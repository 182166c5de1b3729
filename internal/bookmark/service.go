// Package bookmark は保存済み投稿（ブックマーク）の管理を提供する。
// フィード取得コアとは独立した協調コンポーネントであり、
// PostWithUserスナップショットを不透明なJSONとして端末単位で永続化する。
package bookmark

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hitoshi/postfeed/internal/model"
	"github.com/hitoshi/postfeed/internal/repository"
)

// Service はブックマークのドメインサービス。
type Service struct {
	repo   repository.BookmarkRepository
	logger *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.BookmarkRepository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// Save は投稿スナップショットをブックマークとして保存する。
// 同じ投稿が保存済みの場合はスナップショットを更新する（冪等）。
func (s *Service) Save(ctx context.Context, deviceID string, post model.PostWithUser) error {
	if post.ID <= 0 {
		return fmt.Errorf("invalid post id: %d", post.ID)
	}

	snapshot, err := json.Marshal(post)
	if err != nil {
		return fmt.Errorf("failed to encode bookmark snapshot: %w", err)
	}

	if err := s.repo.Upsert(ctx, deviceID, post.ID, snapshot); err != nil {
		return err
	}

	s.logger.Info("ブックマークを保存しました",
		slog.String("device_id", deviceID),
		slog.Int("post_id", post.ID),
	)

	return nil
}

// Remove は指定投稿のブックマークを削除する。
// 削除された場合はtrueを返す。存在しない場合はfalse（エラーにしない・冪等）。
func (s *Service) Remove(ctx context.Context, deviceID string, postID int) (bool, error) {
	removed, err := s.repo.Delete(ctx, deviceID, postID)
	if err != nil {
		return false, err
	}

	if removed {
		s.logger.Info("ブックマークを削除しました",
			slog.String("device_id", deviceID),
			slog.Int("post_id", postID),
		)
	}

	return removed, nil
}

// List は端末の保存済み投稿スナップショットを保存の新しい順で返す。
func (s *Service) List(ctx context.Context, deviceID string) ([]model.PostWithUser, error) {
	bookmarks, err := s.repo.ListByDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	posts := make([]model.PostWithUser, 0, len(bookmarks))
	for _, b := range bookmarks {
		posts = append(posts, b.Snapshot)
	}

	return posts, nil
}

// IsSaved は指定投稿がブックマーク済みかを返す。
func (s *Service) IsSaved(ctx context.Context, deviceID string, postID int) (bool, error) {
	return s.repo.Exists(ctx, deviceID, postID)
}
