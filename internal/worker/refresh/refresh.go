// Package refresh は推しとイベントの一覧を定期的に同期し直すジョブを提供する。
package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Syncer は1種類のリソースを同期する。
type Syncer interface {
	Sync(ctx context.Context) error
}

// Worker はcron式のスケジュールで推し・イベントの順に同期する。
type Worker struct {
	spec     string
	schedule cron.Schedule
	oshis    Syncer
	events   Syncer
	logger   *slog.Logger
}

// NewWorker はWorkerを生成する。specは5フィールドの標準cron式。
func NewWorker(spec string, oshis, events Syncer, logger *slog.Logger) (*Worker, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("同期スケジュールの解析に失敗しました: %q: %w", spec, err)
	}
	return &Worker{
		spec:     spec,
		schedule: schedule,
		oshis:    oshis,
		events:   events,
		logger:   logger,
	}, nil
}

// Next はfromより後の次回実行時刻を返す。
func (w *Worker) Next(from time.Time) time.Time {
	return w.schedule.Next(from)
}

// Start は起動直後に1回同期し、その後はスケジュールに従って同期する。
// コンテキストがキャンセルされると実行中の同期の終了を待って戻る。
func (w *Worker) Start(ctx context.Context) {
	c := cron.New()
	c.Schedule(w.schedule, cron.FuncJob(func() { w.RunOnce(ctx) }))

	w.logger.Info("定期同期を開始しました",
		slog.String("schedule", w.spec),
		slog.Time("next_run_at", w.Next(time.Now())),
	)

	w.RunOnce(ctx)
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	w.logger.Info("定期同期を停止しました")
}

// RunOnce は推し一覧、イベント一覧の順に1回同期する。
// 失敗は記録するだけで、次回の実行には影響しない。
func (w *Worker) RunOnce(ctx context.Context) {
	start := time.Now()

	if err := w.oshis.Sync(ctx); err != nil {
		w.logger.Warn("推し一覧の同期に失敗しました", slog.String("error", err.Error()))
	}
	if err := w.events.Sync(ctx); err != nil {
		w.logger.Warn("イベント一覧の同期に失敗しました", slog.String("error", err.Error()))
	}

	w.logger.Info("同期サイクルが完了しました",
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
}
