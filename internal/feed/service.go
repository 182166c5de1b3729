package feed

import (
	"context"
	"log/slog"

	"github.com/hitoshi/postfeed/internal/gorest"
	"github.com/hitoshi/postfeed/internal/model"
)

// knownUsersPerPage は既知ユーザー代替パスで取得するユーザー数。
const knownUsersPerPage = 100

// LoadFeedPage はフィード1ページ分のUI表示用投稿一覧を組み立てる。
//
// 投稿取得はリトライポリシー付きで行い、それでも失敗した場合は空ページに
// 縮退する。この層の最上位契約は「決して失敗しない」であり、空シーケンスは
// 「データ終端」と「取得失敗」を区別なく意味する（意図された設計トレードオフ）。
// 投稿が0件ならユーザー取得を試みずに即座に空を返す。
func (s *Service) LoadFeedPage(ctx context.Context, page int) []model.PostWithUser {
	posts, err := gorest.Do(ctx, func(ctx context.Context) ([]model.Post, error) {
		return s.posts.FetchPosts(ctx, page)
	}, s.config.MaxRetries, s.config.RetryInitialDelay)
	if err != nil {
		s.logger.Error("フィードページの投稿取得に失敗したため空ページを返します",
			slog.Int("page", page),
			slog.String("error", err.Error()),
		)
		return []model.PostWithUser{}
	}

	if len(posts) == 0 {
		s.logger.Info("投稿が0件のため空ページを返します",
			slog.Int("page", page),
		)
		return []model.PostWithUser{}
	}

	result := s.AttachUsers(ctx, posts)

	if s.metrics != nil {
		s.metrics.RecordFeedPage(len(result))
	}

	return result
}

// LoadPostDetail は投稿詳細（投稿・投稿者・コメント）を組み立てる。
//
// コメント取得は投稿取得の前に起動し、両者のレイテンシを重ねる。
// 投稿が404の場合はnilセンチネルを返す（呼び出し元は「投稿削除済み」として
// 扱うことを想定）。このときコメント取得結果は破棄される。
// 投稿者はベストエフォートで取得し、解決できなければプレースホルダーを使う。
func (s *Service) LoadPostDetail(ctx context.Context, postID int) *model.PostDetail {
	commentsCh := make(chan []model.CommentWithUser, 1)
	go func() {
		commentsCh <- s.CommentsWithUsers(ctx, postID)
	}()

	post, err := gorest.Do(ctx, func(ctx context.Context) (*model.Post, error) {
		return s.posts.FetchPostByID(ctx, postID)
	}, s.config.MaxRetries, s.config.RetryInitialDelay)
	if err != nil {
		s.logger.Error("投稿詳細の取得に失敗しました",
			slog.Int("post_id", postID),
			slog.String("error", err.Error()),
		)
		return nil
	}
	if post == nil {
		return nil
	}

	postWithUser := s.AttachUser(ctx, *post)
	comments := <-commentsCh

	return &model.PostDetail{
		PostWithUser: postWithUser,
		Comments:     comments,
	}
}

// CommentsWithUsers は投稿のコメント一覧を合成ユーザー付きで返す。
//
// まず投稿専用エンドポイントを試し、空だった場合はメインの/comments
// エンドポイント（post_idフィルタ付き）にフォールバックする。
// どちらも失敗・空でも空スライスを返す。失敗しない。
func (s *Service) CommentsWithUsers(ctx context.Context, postID int) []model.CommentWithUser {
	comments, err := s.comments.FetchCommentsByPostID(ctx, postID)
	if err != nil {
		comments = nil
	}

	if len(comments) == 0 {
		fallback, err := s.comments.FetchComments(ctx, 1, postID)
		if err == nil {
			comments = fallback
		}
	}

	result := make([]model.CommentWithUser, 0, len(comments))
	for _, c := range comments {
		result = append(result, s.CommentWithSyntheticUser(c))
	}
	return result
}

// LoadComments はメインの/commentsエンドポイントからコメントを横断的に取得する。
// コメント閲覧画面用。失敗は空スライスに縮退する。
func (s *Service) LoadComments(ctx context.Context, page int) []model.CommentWithUser {
	comments, err := s.comments.FetchComments(ctx, page, 0)
	if err != nil {
		comments = nil
	}

	result := make([]model.CommentWithUser, 0, len(comments))
	for _, c := range comments {
		result = append(result, s.CommentWithSyntheticUser(c))
	}
	return result
}

// LoadFeedPageFromKnownUsers は既知ユーザーの投稿のみでページを組み立てる代替パス。
//
// 先に/usersから実在ユーザー一覧を取得し、そのユーザーの投稿だけを
// フィルタして実ユーザーを結合する。プレースホルダーは使わない。
// 通常のLoadFeedPageと異なり失敗は伝播する（呼び出し側が明示的に選ぶパス）。
func (s *Service) LoadFeedPageFromKnownUsers(ctx context.Context, page int) ([]model.PostWithUser, error) {
	users, err := s.users.FetchUsers(ctx, 1, knownUsersPerPage)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		s.logger.Warn("実在ユーザーが0件のため空ページを返します")
		return []model.PostWithUser{}, nil
	}

	userByID := make(map[int]model.User, len(users))
	for _, u := range users {
		userByID[u.ID] = u
	}

	posts, err := s.posts.FetchPosts(ctx, page)
	if err != nil {
		return nil, err
	}

	result := make([]model.PostWithUser, 0, len(posts))
	for _, p := range posts {
		u, ok := userByID[p.UserID]
		if !ok {
			continue
		}
		uc := u
		result = append(result, model.PostWithUser{
			Post: s.sanitizePost(p),
			User: &uc,
		})
	}

	return result, nil
}
