package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/lovendar/internal/metrics"
	"github.com/hitoshi/lovendar/internal/model"
)

// ErrTriggerPassed は通知の発火時刻が既に過ぎていることを表す。
var ErrTriggerPassed = errors.New("notification trigger time has already passed")

// Scheduler はイベントの通知をCenterに登録する。
// 許可状態は確認しない。許可の確認は通知を有効にする呼び出し元が行う。
type Scheduler struct {
	center  Center
	metrics metrics.MetricsCollector
	logger  *slog.Logger
	now     func() time.Time
}

// NewScheduler はSchedulerを生成する。metricsCollectorはnilでもよい。
func NewScheduler(center Center, metricsCollector metrics.MetricsCollector, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		center:  center,
		metrics: metricsCollector,
		logger:  logger,
		now:     time.Now,
	}
}

// ScheduleNotifications は通知ありのイベントをまとめて登録する。
// 通知なしのイベントは登録済みの通知を取り消す。
func (s *Scheduler) ScheduleNotifications(ctx context.Context, events []model.Event) {
	scheduled := 0
	for _, ev := range events {
		if !ev.HasAlarm {
			s.center.Remove(ev.NotificationIdentifier())
			continue
		}
		if err := s.ScheduleNotification(ctx, ev); err != nil {
			s.logger.Debug("通知を登録しませんでした",
				slog.String("identifier", ev.NotificationIdentifier()),
				slog.String("reason", err.Error()),
			)
			continue
		}
		scheduled++
	}
	s.logger.Info("通知を登録しました",
		slog.Int("event_count", len(events)),
		slog.Int("scheduled_count", scheduled),
	)
}

// ScheduleNotification は1件のイベントの通知を登録する。
// 通知タイミングが数値でない場合はErrInvalidTiming、
// 発火時刻が過ぎている場合はErrTriggerPassedを返し、登録しない。
func (s *Scheduler) ScheduleNotification(ctx context.Context, ev model.Event) error {
	req, err := NewRequest(ev)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordNotificationSkipped("invalid_timing")
		}
		return err
	}
	if req.TriggerAt.Before(s.now()) {
		if s.metrics != nil {
			s.metrics.RecordNotificationSkipped("trigger_passed")
		}
		return ErrTriggerPassed
	}

	if err := s.center.Add(req); err != nil {
		return fmt.Errorf("通知の登録に失敗しました: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RecordNotificationScheduled()
	}
	return nil
}

// CancelNotification はイベントの通知を取り消す。
func (s *Scheduler) CancelNotification(ctx context.Context, ev model.Event) {
	s.center.Remove(ev.NotificationIdentifier())
}

// CancelAll は登録済みの通知を全て取り消す。
func (s *Scheduler) CancelAll() {
	s.center.RemoveAll()
	s.logger.Info("全ての通知を取り消しました")
}

// Pending は登録済みの通知を返す。
func (s *Scheduler) Pending() []Request {
	return s.center.Pending()
}
