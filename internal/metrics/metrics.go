// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// gorestクライアントと集約サービスの両方から利用される。
type Collector struct {
	upstreamStatus    *prometheus.CounterVec
	upstreamLatency   *prometheus.HistogramVec
	placeholderUsers  prometheus.Counter
	feedPages         prometheus.Counter
	feedPagePostCount prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		upstreamStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "postfeed_upstream_status_total",
			Help: "アップストリームAPIレスポンスのエンドポイント・ステータスコード別の合計数",
		}, []string{"endpoint", "status_code"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "postfeed_upstream_latency_seconds",
			Help:    "アップストリームAPI呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		placeholderUsers: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "postfeed_placeholder_users_total",
			Help: "プレースホルダーユーザーで代替した投稿の合計数",
		}),
		feedPages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "postfeed_feed_pages_total",
			Help: "組み立てたフィードページの合計数",
		}),
		feedPagePostCount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "postfeed_feed_page_posts",
			Help:    "フィードページあたりの投稿数",
			Buckets: []float64{0, 1, 2, 5, 10},
		}),
	}

	reg.MustRegister(
		c.upstreamStatus,
		c.upstreamLatency,
		c.placeholderUsers,
		c.feedPages,
		c.feedPagePostCount,
	)

	return c
}

// RecordUpstreamStatus はアップストリームのHTTPステータスコードを記録する。
func (c *Collector) RecordUpstreamStatus(endpoint string, statusCode int) {
	c.upstreamStatus.WithLabelValues(endpoint, strconv.Itoa(statusCode)).Inc()
}

// RecordUpstreamLatency はアップストリーム呼び出しのレイテンシを記録する。
func (c *Collector) RecordUpstreamLatency(endpoint string, duration time.Duration) {
	c.upstreamLatency.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordPlaceholderUser はプレースホルダー代替を記録する。
func (c *Collector) RecordPlaceholderUser() {
	c.placeholderUsers.Inc()
}

// RecordFeedPage は組み立てたフィードページと投稿数を記録する。
func (c *Collector) RecordFeedPage(postCount int) {
	c.feedPages.Inc()
	c.feedPagePostCount.Observe(float64(postCount))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
