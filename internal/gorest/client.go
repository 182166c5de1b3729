// Package gorest はアップストリーム公開REST API（gorest.co.in互換）のクライアントを提供する。
// HTTPステータスの分類、エンティティ別フェッチャー、リトライポリシーを含む。
package gorest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hitoshi/postfeed/internal/model"
)

const (
	// defaultBaseURL はアップストリームAPIの既定ベースURL。
	defaultBaseURL = "https://gorest.co.in/public/v2"
	// PostsPerPage はフィード1ページあたりの投稿取得件数。
	PostsPerPage = 10
	// CommentsPerPage は/commentsエンドポイントの1ページあたり取得件数。
	CommentsPerPage = 20
	// defaultMaxBodySize はレスポンスボディ読み取りの上限（5MiB）。
	defaultMaxBodySize = 5 * 1024 * 1024
	// rateLimitRetryDelay はユーザー取得が429を受けた際の単発リトライまでの待機時間。
	rateLimitRetryDelay = 1000 * time.Millisecond
)

// MetricsRecorder はアップストリーム呼び出しのメトリクス記録インターフェース。
// nil実装の代わりに呼び出し側でnilチェックする。
type MetricsRecorder interface {
	RecordUpstreamStatus(endpoint string, statusCode int)
	RecordUpstreamLatency(endpoint string, duration time.Duration)
}

// Client はアップストリームAPIのHTTPクライアント。
// リトライはここでは行わない（リトライポリシーはretry.goのDoの責務）。
// 例外としてFetchUserByIDのみ429に対する単発リトライを内蔵する。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    MetricsRecorder

	baseURL             string        // テスト用に差し替え可能
	maxBodySize         int64
	rateLimitRetryDelay time.Duration // テスト用に短縮可能
}

// ClientConfig はClientの任意設定。ゼロ値のフィールドには既定値が使われる。
type ClientConfig struct {
	// BaseURL はアップストリームAPIのベースURL。
	BaseURL string
	// MaxBodySize はレスポンスボディ読み取りの上限バイト数。
	MaxBodySize int64
}

// NewClient はClientの新しいインスタンスを生成する。
// metricsはnilでもよい（記録をスキップする）。
func NewClient(httpClient *http.Client, logger *slog.Logger, metrics MetricsRecorder) *Client {
	return NewClientWithConfig(httpClient, logger, metrics, ClientConfig{})
}

// NewClientWithConfig は設定を指定してClientを生成する。
func NewClientWithConfig(httpClient *http.Client, logger *slog.Logger, metrics MetricsRecorder, cfg ClientConfig) *Client {
	c := &Client{
		httpClient:          httpClient,
		logger:              logger,
		metrics:             metrics,
		baseURL:             defaultBaseURL,
		maxBodySize:         defaultMaxBodySize,
		rateLimitRetryDelay: rateLimitRetryDelay,
	}
	if cfg.BaseURL != "" {
		c.baseURL = cfg.BaseURL
	}
	if cfg.MaxBodySize > 0 {
		c.maxBodySize = cfg.MaxBodySize
	}
	return c
}

// get はGETリクエストを1回実行し、200以外のステータスを分類済みAPIErrorとして返す。
// ネットワークエラーはTransient、ボディ読み取り失敗はFatalに分類する。
func (c *Client) get(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	reqURL := c.baseURL + endpoint
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &APIError{Kind: KindFatal, Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Postfeed/1.0")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if c.metrics != nil {
		c.metrics.RecordUpstreamLatency(endpoint, time.Since(start))
	}
	if err != nil {
		// コンテキストキャンセルはそのまま伝播する
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &APIError{Kind: KindTransient, Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if c.metrics != nil {
		c.metrics.RecordUpstreamStatus(endpoint, resp.StatusCode)
	}

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxBodySize))
		return nil, &APIError{
			Kind:       ClassifyStatus(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Endpoint:   endpoint,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return nil, &APIError{Kind: KindFatal, Endpoint: endpoint, Err: err}
	}

	return body, nil
}

// FetchPosts は指定ページの投稿一覧を取得する。
// GET /posts?page={page}&per_page=10
// 404は「ページが存在しない」として空スライスを返し、それ以外の失敗は伝播する。
func (c *Client) FetchPosts(ctx context.Context, page int) ([]model.Post, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(PostsPerPage))

	body, err := c.get(ctx, "/posts", query)
	if err != nil {
		if IsNotFound(err) {
			return []model.Post{}, nil
		}
		c.logger.Error("投稿一覧の取得に失敗しました",
			slog.Int("page", page),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("投稿一覧の取得に失敗しました: %w", err)
	}

	var posts []model.Post
	if err := json.Unmarshal(body, &posts); err != nil {
		return nil, &APIError{Kind: KindFatal, Endpoint: "/posts", Err: err}
	}

	return posts, nil
}

// FetchPostByID は指定IDの投稿を取得する。
// 404の場合はエラーなしでnilを返し、それ以外の失敗は伝播する。
func (c *Client) FetchPostByID(ctx context.Context, postID int) (*model.Post, error) {
	endpoint := fmt.Sprintf("/posts/%d", postID)

	body, err := c.get(ctx, endpoint, nil)
	if err != nil {
		if IsNotFound(err) {
			c.logger.Warn("投稿が見つかりませんでした（404）",
				slog.Int("post_id", postID),
			)
			return nil, nil
		}
		c.logger.Error("投稿の取得に失敗しました",
			slog.Int("post_id", postID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}

	var post model.Post
	if err := json.Unmarshal(body, &post); err != nil {
		return nil, &APIError{Kind: KindFatal, Endpoint: endpoint, Err: err}
	}

	return &post, nil
}

// FetchUserByID は指定IDのユーザーを取得する。
// ユーザー取得はベストエフォートであり、404はリトライなしでnil、
// 429は固定待機後にちょうど1回だけリトライして失敗したらnil、
// その他の失敗もnilに縮退する。エラーを返すのはコンテキストキャンセル時のみ。
func (c *Client) FetchUserByID(ctx context.Context, userID int) (*model.User, error) {
	endpoint := fmt.Sprintf("/users/%d", userID)

	body, err := c.get(ctx, endpoint, nil)
	if err != nil {
		switch {
		case IsNotFound(err):
			return nil, nil
		case IsRateLimited(err):
			c.logger.Warn("ユーザー取得がレート制限されました。待機後に1回だけリトライします",
				slog.Int("user_id", userID),
				slog.Duration("delay", c.rateLimitRetryDelay),
			)
			if err := sleepCtx(ctx, c.rateLimitRetryDelay); err != nil {
				return nil, err
			}
			retryBody, retryErr := c.get(ctx, endpoint, nil)
			if retryErr != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				c.logger.Warn("ユーザー取得のリトライにも失敗しました",
					slog.Int("user_id", userID),
					slog.String("error", retryErr.Error()),
				)
				return nil, nil
			}
			return decodeUser(endpoint, retryBody)
		default:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Warn("ユーザーの取得に失敗しました",
				slog.Int("user_id", userID),
				slog.String("error", err.Error()),
			)
			return nil, nil
		}
	}

	return decodeUser(endpoint, body)
}

// decodeUser はユーザーレスポンスのJSONをデコードする。
// デコード失敗もベストエフォート方針に従いnilに縮退する。
func decodeUser(endpoint string, body []byte) (*model.User, error) {
	var user model.User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, nil
	}
	if user.ID == 0 {
		// 空ボディ等でIDが埋まらない場合は未検出として扱う
		return nil, nil
	}
	return &user, nil
}

// FetchCommentsByPostID は投稿に紐づくコメント一覧を取得する。
// GET /posts/{postID}/comments
// コメント欠落はハードエラーにしない方針のため、あらゆる失敗を空スライスに縮退する。
func (c *Client) FetchCommentsByPostID(ctx context.Context, postID int) ([]model.Comment, error) {
	endpoint := fmt.Sprintf("/posts/%d/comments", postID)

	body, err := c.get(ctx, endpoint, nil)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !IsNotFound(err) {
			c.logger.Warn("コメント一覧の取得に失敗しました",
				slog.Int("post_id", postID),
				slog.String("error", err.Error()),
			)
		}
		return []model.Comment{}, nil
	}

	var comments []model.Comment
	if err := json.Unmarshal(body, &comments); err != nil {
		return []model.Comment{}, nil
	}

	return comments, nil
}

// FetchComments はメインの/commentsエンドポイントからコメント一覧を取得する。
// GET /comments?page={page}&per_page=20[&post_id={postID}]
// postIDが0の場合はpost_idフィルタを付けない。失敗は空スライスに縮退する。
func (c *Client) FetchComments(ctx context.Context, page int, postID int) ([]model.Comment, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(CommentsPerPage))
	if postID > 0 {
		query.Set("post_id", strconv.Itoa(postID))
	}

	body, err := c.get(ctx, "/comments", query)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !IsNotFound(err) {
			c.logger.Warn("コメント一覧の取得に失敗しました（メインエンドポイント）",
				slog.Int("page", page),
				slog.Int("post_id", postID),
				slog.String("error", err.Error()),
			)
		}
		return []model.Comment{}, nil
	}

	var comments []model.Comment
	if err := json.Unmarshal(body, &comments); err != nil {
		return []model.Comment{}, nil
	}

	return comments, nil
}

// FetchUsers は指定ページのユーザー一覧を取得する。
// 既知ユーザー限定の代替フィード構築パスでのみ使用され、失敗は伝播する。
func (c *Client) FetchUsers(ctx context.Context, page, perPage int) ([]model.User, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(perPage))

	body, err := c.get(ctx, "/users", query)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}

	var users []model.User
	if err := json.Unmarshal(body, &users); err != nil {
		return nil, &APIError{Kind: KindFatal, Endpoint: "/users", Err: err}
	}

	return users, nil
}
