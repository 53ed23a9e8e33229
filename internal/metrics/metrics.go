// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はセッション操作とスイープのPrometheusメトリクスを収集する。
type Collector struct {
	sessionsCreated prometheus.Counter
	sessionsEnded   *prometheus.CounterVec
	sessionsUpdated *prometheus.CounterVec
	sweepMarked     prometheus.Counter
	sweepDuration   prometheus.Histogram
	httpStatus      *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		sessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sessiond_sessions_created_total",
			Help: "作成されたセッションの合計数",
		}),
		sessionsEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sessiond_sessions_ended_total",
			Help: "終了契機別の終了セッション数",
		}, []string{"reason"}),
		sessionsUpdated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sessiond_sessions_updated_total",
			Help: "更新後ステータス別のセッション更新数",
		}, []string{"status"}),
		sweepMarked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sessiond_sweep_marked_inactive_total",
			Help: "スイープでInactivaに更新されたセッションの合計数",
		}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sessiond_sweep_duration_seconds",
			Help:    "スイープ1回あたりの所要時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sessiond_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.sessionsCreated,
		c.sessionsEnded,
		c.sessionsUpdated,
		c.sweepMarked,
		c.sweepDuration,
		c.httpStatus,
	)

	return c
}

// RecordSessionCreated はセッション作成を記録する。
func (c *Collector) RecordSessionCreated() {
	c.sessionsCreated.Inc()
}

// RecordSessionEnded はセッション終了を終了契機付きで記録する。
func (c *Collector) RecordSessionEnded(reason string) {
	c.sessionsEnded.WithLabelValues(reason).Inc()
}

// RecordSessionUpdated はセッション更新を更新後ステータス付きで記録する。
func (c *Collector) RecordSessionUpdated(status string) {
	c.sessionsUpdated.WithLabelValues(status).Inc()
}

// RecordSweep はスイープ1回の実行結果を記録する。
func (c *Collector) RecordSweep(marked int64, duration time.Duration) {
	c.sweepMarked.Add(float64(marked))
	c.sweepDuration.Observe(duration.Seconds())
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
