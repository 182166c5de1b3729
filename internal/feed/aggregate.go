// Package feed はアップストリームAPIの投稿・ユーザー・コメントを
// UI表示用の集約モデルへ組み立てるオーケストレーション層を提供する。
// ユーザー参照の重複排除、ずらしファンアウト、プレースホルダー代替を含む。
package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/postfeed/internal/gorest"
	"github.com/hitoshi/postfeed/internal/model"
)

// PostFetcher は投稿取得のインターフェース。テスト時にモックに差し替え可能。
type PostFetcher interface {
	// FetchPosts は指定ページの投稿一覧を返す。404は空スライス、それ以外の失敗は伝播する。
	FetchPosts(ctx context.Context, page int) ([]model.Post, error)
	// FetchPostByID は指定IDの投稿を返す。見つからない場合はnilを返す。
	FetchPostByID(ctx context.Context, postID int) (*model.Post, error)
}

// UserFetcher はユーザー取得のインターフェース。テスト時にモックに差し替え可能。
type UserFetcher interface {
	// FetchUserByID は指定IDのユーザーを返す。解決できない場合はnilを返す（ベストエフォート）。
	FetchUserByID(ctx context.Context, userID int) (*model.User, error)
	// FetchUsers は指定ページのユーザー一覧を返す。失敗は伝播する。
	FetchUsers(ctx context.Context, page, perPage int) ([]model.User, error)
}

// CommentFetcher はコメント取得のインターフェース。テスト時にモックに差し替え可能。
type CommentFetcher interface {
	// FetchCommentsByPostID は投稿に紐づくコメント一覧を返す。失敗は空スライスに縮退する。
	FetchCommentsByPostID(ctx context.Context, postID int) ([]model.Comment, error)
	// FetchComments はメインエンドポイントからコメント一覧を返す。postID=0でフィルタなし。
	FetchComments(ctx context.Context, page, postID int) ([]model.Comment, error)
}

// Sanitizer はアップストリーム由来テキストのサニタイズインターフェース。
type Sanitizer interface {
	Sanitize(raw string) string
}

// MetricsRecorder は集約処理のメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordPlaceholderUser()
	RecordFeedPage(postCount int)
}

// ServiceConfig は集約サービスの動作パラメータ。
type ServiceConfig struct {
	// UserFetchStagger はユーザーファンアウト時のインデックス比例起動遅延。
	UserFetchStagger time.Duration
	// MaxRetries は投稿取得リトライの最大回数。
	MaxRetries int
	// RetryInitialDelay は投稿取得リトライの初回遅延。
	RetryInitialDelay time.Duration
}

// DefaultServiceConfig はデフォルトの集約サービス設定を返す。
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		UserFetchStagger:  100 * time.Millisecond,
		MaxRetries:        gorest.DefaultMaxRetries,
		RetryInitialDelay: gorest.DefaultInitialDelay,
	}
}

// Service は投稿・ユーザー・コメントの集約とページ組み立てを行う。
// この層より下の失敗はすべて空シーケンス・未検出センチネル・
// プレースホルダー代替のいずれかに吸収され、呼び出し元には届かない。
type Service struct {
	posts     PostFetcher
	users     UserFetcher
	comments  CommentFetcher
	sanitizer Sanitizer
	logger    *slog.Logger
	metrics   MetricsRecorder
	config    ServiceConfig
}

// NewService はServiceの新しいインスタンスを生成する。
// metricsはnilでもよい（記録をスキップする）。
func NewService(
	posts PostFetcher,
	users UserFetcher,
	comments CommentFetcher,
	sanitizer Sanitizer,
	logger *slog.Logger,
	metrics MetricsRecorder,
	config ServiceConfig,
) *Service {
	defaults := DefaultServiceConfig()
	if config.UserFetchStagger <= 0 {
		config.UserFetchStagger = defaults.UserFetchStagger
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = defaults.MaxRetries
	}
	if config.RetryInitialDelay <= 0 {
		config.RetryInitialDelay = defaults.RetryInitialDelay
	}
	return &Service{
		posts:     posts,
		users:     users,
		comments:  comments,
		sanitizer: sanitizer,
		logger:    logger,
		metrics:   metrics,
		config:    config,
	}
}

// AttachUser は単一投稿に投稿者を結合する。
// ユーザーを解決できない場合はプレースホルダーを差し込む。失敗しない。
func (s *Service) AttachUser(ctx context.Context, post model.Post) model.PostWithUser {
	result := model.PostWithUser{Post: s.sanitizePost(post)}

	user, err := s.users.FetchUserByID(ctx, post.UserID)
	if err != nil || user == nil {
		result.User = model.PlaceholderUser(post.UserID)
		if s.metrics != nil {
			s.metrics.RecordPlaceholderUser()
		}
		return result
	}

	u := *user
	result.User = &u
	return result
}

// AttachUsers は投稿一覧に投稿者を重複排除しながら結合する。
//
//   - user_idの重複を除いた集合（初出順）に対して、ユニークなIDごとに
//     ちょうど1回だけユーザー取得を発行する。
//   - i番目のユニークIDの取得はUserFetchStagger×iだけ起動を遅らせる。
//     API側のレート制限を避けるためのずらしであり、正しさの要件ではない。
//     起動後の取得はすべて並行に走り、全完了を待ってから結合する。
//   - 出力の投稿順は入力順と常に一致する。完了順には依存しない。
//   - ユーザー全滅を含むあらゆる失敗でも投稿は欠落せず、
//     未解決の投稿にはプレースホルダーが入る。この関数は失敗しない。
func (s *Service) AttachUsers(ctx context.Context, posts []model.Post) []model.PostWithUser {
	if len(posts) == 0 {
		return []model.PostWithUser{}
	}

	// ユニークなuser_idを初出順で抽出する
	seen := make(map[int]bool, len(posts))
	var distinct []int
	for _, p := range posts {
		if !seen[p.UserID] {
			seen[p.UserID] = true
			distinct = append(distinct, p.UserID)
		}
	}

	var (
		mu    sync.Mutex
		found = make(map[int]model.User, len(distinct))
		wg    sync.WaitGroup
	)

	for i, userID := range distinct {
		wg.Add(1)
		go func(idx, id int) {
			defer wg.Done()

			if idx > 0 && s.config.UserFetchStagger > 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(time.Duration(idx) * s.config.UserFetchStagger):
				}
			}

			user, err := s.users.FetchUserByID(ctx, id)
			if err != nil || user == nil {
				return
			}

			mu.Lock()
			found[id] = *user
			mu.Unlock()
		}(i, userID)
	}

	wg.Wait()

	// 入力順のまま結合する。マップに無いIDはプレースホルダーで埋める。
	result := make([]model.PostWithUser, 0, len(posts))
	resolved := 0
	for _, p := range posts {
		pw := model.PostWithUser{Post: s.sanitizePost(p)}
		if u, ok := found[p.UserID]; ok {
			uc := u
			pw.User = &uc
			resolved++
		} else {
			pw.User = model.PlaceholderUser(p.UserID)
			if s.metrics != nil {
				s.metrics.RecordPlaceholderUser()
			}
		}
		result = append(result, pw)
	}

	s.logger.Info("投稿へのユーザー結合が完了しました",
		slog.Int("post_count", len(posts)),
		slog.Int("distinct_users", len(distinct)),
		slog.Int("resolved_users", len(found)),
	)

	return result
}

// CommentWithSyntheticUser はコメント自身のname/emailから合成ユーザーを組み立てて結合する。
// コメントはUserへの外部キーを持たないため、合成レコード（ID=0）で代替する。失敗しない。
func (s *Service) CommentWithSyntheticUser(comment model.Comment) model.CommentWithUser {
	sanitized := s.sanitizeComment(comment)
	return model.CommentWithUser{
		Comment: sanitized,
		User:    model.SyntheticCommentUser(sanitized),
	}
}

// sanitizePost は投稿のタイトルと本文をサニタイズする。
func (s *Service) sanitizePost(p model.Post) model.Post {
	p.Title = s.sanitizer.Sanitize(p.Title)
	p.Body = s.sanitizer.Sanitize(p.Body)
	return p
}

// sanitizeComment はコメントの本文をサニタイズする。
func (s *Service) sanitizeComment(c model.Comment) model.Comment {
	c.Body = s.sanitizer.Sanitize(c.Body)
	return c
}
