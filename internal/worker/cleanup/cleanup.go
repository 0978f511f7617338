// Package cleanup は同期実行履歴の自動削除ジョブを提供する。
// 保持期間（デフォルト14日）を超過した履歴を日次で削除する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Purger は指定時刻より前に終了した同期履歴を削除する。
type Purger interface {
	DeleteFinishedBefore(ctx context.Context, before time.Time) (int64, error)
}

// CleanupJob は保持期間を超過した同期履歴の自動削除ジョブ。
// 削除対象がなくてもエラーにしない。
type CleanupJob struct {
	runs          Purger
	logger        *slog.Logger
	now           func() time.Time
	RetentionDays int // 履歴の保持日数（デフォルト: 14）
}

// NewCleanupJob は新しいCleanupJobを生成する。
// retentionDaysが0以下の場合は14日とする。
func NewCleanupJob(runs Purger, retentionDays int, logger *slog.Logger) *CleanupJob {
	if retentionDays <= 0 {
		retentionDays = 14
	}
	return &CleanupJob{
		runs:          runs,
		logger:        logger,
		now:           time.Now,
		RetentionDays: retentionDays,
	}
}

// Run は終了時刻がRetentionDays日前より古い履歴を削除する。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := j.now()
	cutoff := start.AddDate(0, 0, -j.RetentionDays)

	deletedCount, err := j.runs.DeleteFinishedBefore(ctx, cutoff)
	if err != nil {
		j.logger.Error("同期履歴クリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.RetentionDays),
		)
		return fmt.Errorf("同期履歴クリーンアップの実行に失敗: %w", err)
	}

	j.logger.Info("同期履歴クリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deletedCount),
		slog.Int("retention_days", j.RetentionDays),
		slog.Time("cutoff", cutoff),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return nil
}

// Start は起動直後に1回実行し、その後はinterval間隔で実行する。
// コンテキストがキャンセルされるまで実行を継続する。
func (j *CleanupJob) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// 失敗はRun内で記録済み
	_ = j.Run(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = j.Run(ctx)
		}
	}
}
