// Package syncrun は同期処理の世代管理と実行履歴の記録を提供する。
//
// 同じリソースの同期が重なった場合、新しい呼び出しが古い呼び出しを
// キャンセルし、最新世代だけが結果を公開できる。
package syncrun

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/lovendar/internal/metrics"
	"github.com/hitoshi/lovendar/internal/model"
	"github.com/hitoshi/lovendar/internal/repository"
)

// Outcome は取得に成功した同期の件数。
type Outcome struct {
	Items   int
	Dropped int
}

// Job は1回の同期処理。
type Job struct {
	// Authenticated がfalseの場合は通信せずにPublishEmptyだけを行う。
	Authenticated bool
	// Fetch はデータを取得し、公開処理と件数を返す。
	Fetch func(ctx context.Context) (publish func(), out Outcome, err error)
	// PublishEmpty は空の一覧とエラー文言を公開する。未ログイン時の文言は空。
	PublishEmpty func(errMessage string)
}

// Tracker はリソースごとの同期世代を管理する。
type Tracker struct {
	resource model.SyncResource
	runs     repository.SyncRunRepository
	metrics  metrics.MetricsCollector
	logger   *slog.Logger
	now      func() time.Time

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
}

// NewTracker はTrackerを生成する。runsとmetricsCollectorはnilでもよい。
func NewTracker(resource model.SyncResource, runs repository.SyncRunRepository, metricsCollector metrics.MetricsCollector, logger *slog.Logger) *Tracker {
	return &Tracker{
		resource: resource,
		runs:     runs,
		metrics:  metricsCollector,
		logger:   logger,
		now:      time.Now,
	}
}

// Run は同期を実行する。
// 後続の呼び出しに置き換えられた場合は何も公開せずにnilを返す。
// 取得に失敗した場合は空の一覧とエラー文言を公開し、エラーを返す。
// 呼び出し元のcontextがキャンセルされた場合は公開せずにcontextのエラーを返す。
func (t *Tracker) Run(ctx context.Context, job Job) (published bool, err error) {
	gen, runCtx, cancel := t.begin(ctx)
	defer cancel()

	run := &model.SyncRun{
		ID:        uuid.NewString(),
		Resource:  t.resource,
		StartedAt: t.now(),
	}

	if !job.Authenticated {
		if !t.commit(gen, func() { job.PublishEmpty("") }) {
			t.finish(run, model.SyncStatusSuperseded, Outcome{}, nil)
			return false, nil
		}
		t.finish(run, model.SyncStatusSkipped, Outcome{}, nil)
		return false, nil
	}

	publish, out, fetchErr := job.Fetch(runCtx)
	if fetchErr != nil {
		if !t.isLatest(gen) {
			t.finish(run, model.SyncStatusSuperseded, Outcome{}, nil)
			return false, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			t.finish(run, model.SyncStatusFailed, Outcome{}, ctxErr)
			return false, ctxErr
		}
		if !t.commit(gen, func() { job.PublishEmpty(UserMessage(fetchErr)) }) {
			t.finish(run, model.SyncStatusSuperseded, Outcome{}, nil)
			return false, nil
		}
		t.finish(run, model.SyncStatusFailed, Outcome{}, fetchErr)
		return false, fetchErr
	}

	if !t.commit(gen, publish) {
		t.finish(run, model.SyncStatusSuperseded, out, nil)
		return false, nil
	}
	t.finish(run, model.SyncStatusSuccess, out, nil)
	return true, nil
}

// begin は前の世代をキャンセルし、新しい世代を開始する。
func (t *Tracker) begin(ctx context.Context) (uint64, context.Context, context.CancelFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}
	t.generation++
	runCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	return t.generation, runCtx, cancel
}

func (t *Tracker) isLatest(gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return gen == t.generation
}

// commit は最新世代の場合のみpublishを実行する。
// 公開中は新しい世代を開始させない。
func (t *Tracker) commit(gen uint64, publish func()) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.generation {
		return false
	}
	if publish != nil {
		publish()
	}
	return true
}

func (t *Tracker) finish(run *model.SyncRun, status model.SyncStatus, out Outcome, err error) {
	run.FinishedAt = t.now()
	run.Status = status
	run.ItemCount = out.Items
	run.DroppedCount = out.Dropped
	if err != nil {
		run.ErrorMessage = err.Error()
	}

	attrs := []any{
		slog.String("resource", string(t.resource)),
		slog.String("status", string(status)),
		slog.Int("item_count", out.Items),
		slog.Int("dropped_count", out.Dropped),
		slog.Float64("duration_ms", float64(run.FinishedAt.Sub(run.StartedAt).Milliseconds())),
	}
	switch status {
	case model.SyncStatusFailed:
		t.logger.Warn("同期に失敗しました", append(attrs, slog.String("error", run.ErrorMessage))...)
		if t.metrics != nil {
			t.metrics.RecordSyncFailure(string(t.resource), FailureReason(err))
		}
	case model.SyncStatusSuperseded:
		t.logger.Info("後続の同期に置き換えられました", attrs...)
		if t.metrics != nil {
			t.metrics.RecordSyncSuperseded(string(t.resource))
		}
	case model.SyncStatusSuccess:
		t.logger.Info("同期が完了しました", attrs...)
		if t.metrics != nil {
			t.metrics.RecordSyncSuccess(string(t.resource), out.Items)
		}
	default:
		t.logger.Debug("未ログインのため同期をスキップしました", attrs...)
	}

	if t.runs == nil {
		return
	}
	// 置き換えでキャンセルされていても履歴は残す
	if err := t.runs.Create(context.Background(), run); err != nil {
		t.logger.Warn("同期履歴の保存に失敗しました",
			slog.String("resource", string(t.resource)),
			slog.String("error", err.Error()),
		)
	}
}

// UserMessage は同期エラーを画面に表示する文言に変換する。
func UserMessage(err error) string {
	var netErr *model.NetworkError
	if errors.As(err, &netErr) {
		return netErr.UserMessage()
	}
	return "エラーが発生しました: " + err.Error()
}

// FailureReason はメトリクスのラベルに使う失敗理由を返す。
func FailureReason(err error) string {
	var netErr *model.NetworkError
	switch {
	case errors.As(err, &netErr):
		return string(netErr.Kind)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "other"
	}
}
