package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/lovendar/internal/apiclient"
	"github.com/hitoshi/lovendar/internal/model"
)

// Remote はイベントの作成・更新・詳細取得APIの呼び出し口。
type Remote interface {
	Detail(ctx context.Context, id int64) (apiclient.EventDetailAPI, error)
	Create(ctx context.Context, data apiclient.CreateEventData) (apiclient.EventDetailAPI, error)
	Update(ctx context.Context, id int64, data apiclient.UpdateEventData) (apiclient.EventAPI, error)
}

// Notifier は1件のイベントの通知を登録・取り消す。
type Notifier interface {
	ScheduleNotification(ctx context.Context, ev model.Event) error
	CancelNotification(ctx context.Context, ev model.Event)
}

// PermissionChecker は通知許可の状態を返す。
type PermissionChecker interface {
	Status() model.AuthorizationStatus
}

// InputValidator はフォーム入力を検証する。
type InputValidator interface {
	Validate(s any) error
}

// Form はイベントの追加・編集画面の入力。
// 終日でない場合、StartTimeが未指定ならDateを開始日時とし、EndTimeが未指定なら開始の1時間後を終了とする。
type Form struct {
	OshiID             int64                    `json:"oshi_id" label:"推し" validate:"required"`
	Title              string                   `json:"title" label:"タイトル" validate:"required"`
	Date               time.Time                `json:"date" label:"日付" validate:"required"`
	StartTime          *time.Time               `json:"start_time"`
	EndTime            *time.Time               `json:"end_time"`
	IsAllDay           bool                     `json:"is_all_day"`
	Description        string                   `json:"description"`
	URL                string                   `json:"url" label:"URL" validate:"omitempty,http_url"`
	EventType          model.EventType          `json:"event_type" label:"種類" validate:"omitempty,event_type"`
	HasAlarm           bool                     `json:"has_alarm"`
	NotificationTiming model.NotificationTiming `json:"notification_timing" label:"通知タイミング" validate:"omitempty,notification_timing"`
}

// Service はイベントの作成・更新・詳細取得を行う。
// 作成・更新後は一覧を再同期し、通知を登録し直す。
type Service struct {
	remote      Remote
	pipeline    *Pipeline
	notifier    Notifier
	permissions PermissionChecker
	validator   InputValidator
	logger      *slog.Logger
}

// NewService はServiceを生成する。notifierとpermissionsはnilでもよい。
func NewService(
	remote Remote,
	pipeline *Pipeline,
	notifier Notifier,
	permissions PermissionChecker,
	validator InputValidator,
	logger *slog.Logger,
) *Service {
	return &Service{
		remote:      remote,
		pipeline:    pipeline,
		notifier:    notifier,
		permissions: permissions,
		validator:   validator,
		logger:      logger,
	}
}

// Create はイベントをサーバーに作成する。
// 通知ありで通知が許可されている場合は通知を登録し、その後一覧を同期する。
// 同期の失敗は作成結果に影響しない。
func (s *Service) Create(ctx context.Context, form Form) (model.Event, error) {
	ev, err := s.build(form)
	if err != nil {
		return model.Event{}, err
	}

	starts, ends := wireTimes(ev)
	created, err := s.remote.Create(ctx, apiclient.CreateEventData{
		OshiID:             form.OshiID,
		Title:              ev.Title,
		Description:        optional(ev.Description),
		URL:                optional(ev.URL),
		StartsAt:           starts,
		EndsAt:             ends,
		HasAlarm:           ev.HasAlarm,
		NotificationTiming: string(ev.NotificationTiming),
	})
	if err != nil {
		s.logger.Warn("イベントの作成に失敗しました",
			slog.Int64("oshi_id", form.OshiID),
			slog.String("error", err.Error()),
		)
		return model.Event{}, err
	}

	serverID := created.ID
	ev.ServerID = &serverID
	s.pipeline.adoptLocalID(&ev)
	s.logger.Info("イベントを作成しました", slog.Int64("event_id", serverID))

	s.applyNotification(ctx, ev)
	s.resync(ctx)
	return ev, nil
}

// Update はサーバーIDのイベントを更新する。
// 通知ありで通知が許可されている場合は通知を登録し直し、それ以外は取り消す。
func (s *Service) Update(ctx context.Context, serverID int64, form Form) (model.Event, error) {
	ev, err := s.build(form)
	if err != nil {
		return model.Event{}, err
	}
	id := serverID
	ev.ServerID = &id
	s.pipeline.adoptLocalID(&ev)

	starts, ends := wireTimes(ev)
	if _, err := s.remote.Update(ctx, serverID, apiclient.UpdateEventData{
		Title:              ev.Title,
		Description:        optional(ev.Description),
		URL:                optional(ev.URL),
		StartsAt:           starts,
		EndsAt:             ends,
		HasAlarm:           ev.HasAlarm,
		NotificationTiming: string(ev.NotificationTiming),
	}); err != nil {
		s.logger.Warn("イベントの更新に失敗しました",
			slog.Int64("event_id", serverID),
			slog.String("error", err.Error()),
		)
		return model.Event{}, err
	}
	s.logger.Info("イベントを更新しました", slog.Int64("event_id", serverID))

	s.applyNotification(ctx, ev)
	s.resync(ctx)
	return ev, nil
}

// Detail はイベント詳細を取得し、一覧と同じ規則で変換する。
func (s *Service) Detail(ctx context.Context, serverID int64) (model.Event, error) {
	dto, err := s.remote.Detail(ctx, serverID)
	if err != nil {
		return model.Event{}, err
	}
	ev, err := FromAPI(dto.EventAPI, dto.Oshi.ID, s.pipeline.Location())
	if err != nil {
		return model.Event{}, fmt.Errorf("イベント詳細の変換に失敗しました: %w", model.NewInvalidDateError(dto.StartsAt, time.RFC3339))
	}
	s.pipeline.adoptLocalID(&ev)
	return ev, nil
}

// build はフォームを検証してローカルのEventを組み立てる。
func (s *Service) build(form Form) (model.Event, error) {
	if err := s.validator.Validate(form); err != nil {
		return model.Event{}, err
	}

	start := form.Date
	if form.StartTime != nil {
		start = *form.StartTime
	}
	if !form.IsAllDay && form.EndTime != nil && !form.EndTime.After(start) {
		return model.Event{}, model.NewValidationError("終了日時は開始日時より後にしてください")
	}

	owner := form.OshiID
	return model.NewEvent(model.EventInput{
		Title:              form.Title,
		Description:        form.Description,
		URL:                form.URL,
		Date:               form.Date,
		StartTime:          form.StartTime,
		EndTime:            form.EndTime,
		IsAllDay:           form.IsAllDay,
		OshiID:             &owner,
		EventType:          form.EventType,
		HasAlarm:           form.HasAlarm,
		NotificationTiming: form.NotificationTiming,
	}), nil
}

func (s *Service) applyNotification(ctx context.Context, ev model.Event) {
	if s.notifier == nil {
		return
	}
	if !ev.HasAlarm || s.permissions == nil || s.permissions.Status() != model.AuthorizationAuthorized {
		s.notifier.CancelNotification(ctx, ev)
		return
	}
	if err := s.notifier.ScheduleNotification(ctx, ev); err != nil {
		s.logger.Info("通知を登録しませんでした",
			slog.String("identifier", ev.NotificationIdentifier()),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Service) resync(ctx context.Context) {
	if err := s.pipeline.Sync(ctx); err != nil {
		s.logger.Warn("イベント一覧の再同期に失敗しました", slog.String("error", err.Error()))
	}
}

// wireTimes は開始・終了日時をサーバー形式に変換する。終日の場合は終了を送らない。
func wireTimes(ev model.Event) (string, *string) {
	starts := FormatTimestamp(ev.StartTime)
	if ev.IsAllDay {
		return starts, nil
	}
	ends := FormatTimestamp(ev.EndTime)
	return starts, &ends
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
