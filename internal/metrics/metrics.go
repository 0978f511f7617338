// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// HTTPクライアント、同期パイプライン、通知スケジューラから利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
	RecordSyncSuccess(resource string, items int)
	RecordSyncFailure(resource string, reason string)
	RecordSyncSuperseded(resource string)
	RecordEventDropped(reason string)
	RecordNotificationScheduled()
	RecordNotificationSkipped(reason string)
	RecordNotificationDelivered()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus            *prometheus.CounterVec
	requestLatency        prometheus.Histogram
	syncSuccess           *prometheus.CounterVec
	syncFail              *prometheus.CounterVec
	syncSuperseded        *prometheus.CounterVec
	syncedItems           *prometheus.GaugeVec
	eventsDropped         *prometheus.CounterVec
	notificationScheduled prometheus.Counter
	notificationSkipped   *prometheus.CounterVec
	notificationDelivered prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lovendar_http_status_total",
			Help: "バックエンドAPIのHTTPステータスコード別レスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lovendar_request_latency_seconds",
			Help:    "バックエンドAPI呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		syncSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lovendar_sync_success_total",
			Help: "同期成功の合計数",
		}, []string{"resource"}),
		syncFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lovendar_sync_fail_total",
			Help: "同期失敗の合計数",
		}, []string{"resource", "reason"}),
		syncSuperseded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lovendar_sync_superseded_total",
			Help: "後続の同期に置き換えられた同期の合計数",
		}, []string{"resource"}),
		syncedItems: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "lovendar_synced_items",
			Help: "直近の同期で公開された件数",
		}, []string{"resource"}),
		eventsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lovendar_events_dropped_total",
			Help: "正規化できずに除外されたイベントの合計数",
		}, []string{"reason"}),
		notificationScheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lovendar_notification_scheduled_total",
			Help: "登録されたローカル通知の合計数",
		}),
		notificationSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lovendar_notification_skipped_total",
			Help: "登録を見送ったローカル通知の合計数",
		}, []string{"reason"}),
		notificationDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lovendar_notification_delivered_total",
			Help: "配信されたローカル通知の合計数",
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.requestLatency,
		c.syncSuccess,
		c.syncFail,
		c.syncSuperseded,
		c.syncedItems,
		c.eventsDropped,
		c.notificationScheduled,
		c.notificationSkipped,
		c.notificationDelivered,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はAPI呼び出しのレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// RecordSyncSuccess は同期成功と公開件数を記録する。
func (c *Collector) RecordSyncSuccess(resource string, items int) {
	c.syncSuccess.WithLabelValues(resource).Inc()
	c.syncedItems.WithLabelValues(resource).Set(float64(items))
}

// RecordSyncFailure は同期失敗を記録する。
func (c *Collector) RecordSyncFailure(resource string, reason string) {
	c.syncFail.WithLabelValues(resource, reason).Inc()
	c.syncedItems.WithLabelValues(resource).Set(0)
}

// RecordSyncSuperseded は置き換えられた同期を記録する。
func (c *Collector) RecordSyncSuperseded(resource string) {
	c.syncSuperseded.WithLabelValues(resource).Inc()
}

// RecordEventDropped は除外したイベントを記録する。
func (c *Collector) RecordEventDropped(reason string) {
	c.eventsDropped.WithLabelValues(reason).Inc()
}

// RecordNotificationScheduled は通知登録を記録する。
func (c *Collector) RecordNotificationScheduled() {
	c.notificationScheduled.Inc()
}

// RecordNotificationSkipped は通知の見送りを記録する。
func (c *Collector) RecordNotificationSkipped(reason string) {
	c.notificationSkipped.WithLabelValues(reason).Inc()
}

// RecordNotificationDelivered は通知の配信を記録する。
func (c *Collector) RecordNotificationDelivered() {
	c.notificationDelivered.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
