// Package settings は端末に保存するユーザー設定と接続先環境の切り替えを提供する。
package settings

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/hitoshi/lovendar/internal/model"
	"github.com/hitoshi/lovendar/internal/observable"
	"github.com/hitoshi/lovendar/internal/repository"
)

// 永続化に使うキー。
const (
	KeyAPIEnvironment         = "api_environment"
	KeyTheme                  = "appTheme"
	KeyNotificationsEnabled   = "notificationsEnabled"
	KeyReminderMinutes        = "reminderMinutes"
	KeyWeekStart              = "weekStart"
	KeyTimeFormat             = "timeFormat"
	KeyHasCompletedOnboarding = "hasCompletedOnboarding"
)

// リマインダーの分数として受け付ける範囲。
const (
	MinReminderMinutes = 1
	MaxReminderMinutes = 60
)

// Pinger は接続先の疎通を確認する。
type Pinger interface {
	Ping(ctx context.Context) error
}

// ConnectionCheck は接続テストの結果。
type ConnectionCheck struct {
	Environment model.APIEnvironment `json:"environment"`
	BaseURL     string               `json:"base_url"`
	Connected   bool                 `json:"connected"`
	CheckedAt   time.Time            `json:"checked_at"`
}

// Patch は設定の部分更新。nilのフィールドは変更しない。
// 接続先環境はSwitchEnvironmentで変更する。
type Patch struct {
	Theme                  *model.Theme      `json:"theme"`
	NotificationsEnabled   *bool             `json:"notifications_enabled"`
	ReminderMinutes        *int              `json:"reminder_minutes"`
	WeekStart              *model.WeekStart  `json:"week_start"`
	TimeFormat             *model.TimeFormat `json:"time_format"`
	HasCompletedOnboarding *bool             `json:"has_completed_onboarding"`
}

// Service はユーザー設定を保持し、変更を永続化する。
// BaseURLはapiclient.BaseURLProviderを実装する。
type Service struct {
	repo     repository.KeyValueRepository
	override string
	logger   *slog.Logger
	now      func() time.Time

	mu        sync.RWMutex
	current   model.Settings
	pinger    Pinger
	lastCheck *ConnectionCheck

	value *observable.Value[model.Settings]
}

// NewService は保存済みの設定を読み込んでServiceを生成する。
// 保存値がない、または不正な項目は初期値を使う。接続先環境の初期値はdefaultEnv。
// overrideが空でない場合、BaseURLは環境に関わらずoverrideを返す。
func NewService(ctx context.Context, repo repository.KeyValueRepository, defaultEnv model.APIEnvironment, override string, logger *slog.Logger) *Service {
	s := &Service{
		repo:     repo,
		override: override,
		logger:   logger,
		now:      time.Now,
	}

	current := model.DefaultSettings()
	if defaultEnv.IsValid() {
		current.Environment = defaultEnv
	}
	s.load(ctx, &current)
	s.current = current
	s.value = observable.NewValue(current)
	return s
}

func (s *Service) load(ctx context.Context, cur *model.Settings) {
	read := func(key string) (string, bool) {
		v, err := s.repo.Get(ctx, key)
		if err != nil {
			s.logger.Warn("設定の読み込みに失敗しました", slog.String("key", key), slog.String("error", err.Error()))
			return "", false
		}
		if v == nil {
			return "", false
		}
		return string(v), true
	}
	invalid := func(key, value string) {
		s.logger.Warn("不正な保存値のため初期値を使います", slog.String("key", key), slog.String("value", value))
	}

	if v, ok := read(KeyAPIEnvironment); ok {
		if env := model.APIEnvironment(v); env.IsValid() {
			cur.Environment = env
		} else {
			invalid(KeyAPIEnvironment, v)
		}
	}
	if v, ok := read(KeyTheme); ok {
		if theme := model.Theme(v); theme.IsValid() {
			cur.Theme = theme
		} else {
			invalid(KeyTheme, v)
		}
	}
	if v, ok := read(KeyNotificationsEnabled); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cur.NotificationsEnabled = b
		} else {
			invalid(KeyNotificationsEnabled, v)
		}
	}
	if v, ok := read(KeyReminderMinutes); ok {
		if n, err := strconv.Atoi(v); err == nil && validReminder(n) {
			cur.ReminderMinutes = n
		} else {
			invalid(KeyReminderMinutes, v)
		}
	}
	if v, ok := read(KeyWeekStart); ok {
		if n, err := strconv.Atoi(v); err == nil && model.WeekStart(n).IsValid() {
			cur.WeekStart = model.WeekStart(n)
		} else {
			invalid(KeyWeekStart, v)
		}
	}
	if v, ok := read(KeyTimeFormat); ok {
		if f := model.TimeFormat(v); f.IsValid() {
			cur.TimeFormat = f
		} else {
			invalid(KeyTimeFormat, v)
		}
	}
	if v, ok := read(KeyHasCompletedOnboarding); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cur.HasCompletedOnboarding = b
		} else {
			invalid(KeyHasCompletedOnboarding, v)
		}
	}
}

func validReminder(n int) bool {
	return n >= MinReminderMinutes && n <= MaxReminderMinutes
}

// SetPinger は接続テストに使う疎通確認先を設定する。
func (s *Service) SetPinger(p Pinger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pinger = p
}

// Get は現在の設定を返す。
func (s *Service) Get() model.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Subscribe は設定変更の購読を開始する。
func (s *Service) Subscribe() (<-chan model.Settings, func()) {
	return s.value.Subscribe()
}

// BaseURL は現在の接続先のベースURLを返す。
func (s *Service) BaseURL() string {
	if s.override != "" {
		return s.override
	}
	return s.Get().Environment.BaseURL()
}

// Update は設定を部分更新して永続化する。
// 値が不正な場合は何も変更せずにINVALID_SETTINGエラーを返す。
func (s *Service) Update(ctx context.Context, p Patch) (model.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current
	writes := make(map[string]string)

	if p.Theme != nil {
		if !p.Theme.IsValid() {
			return s.current, model.NewInvalidSettingError("theme", string(*p.Theme))
		}
		next.Theme = *p.Theme
		writes[KeyTheme] = string(*p.Theme)
	}
	if p.NotificationsEnabled != nil {
		next.NotificationsEnabled = *p.NotificationsEnabled
		writes[KeyNotificationsEnabled] = strconv.FormatBool(*p.NotificationsEnabled)
	}
	if p.ReminderMinutes != nil {
		if !validReminder(*p.ReminderMinutes) {
			return s.current, model.NewInvalidSettingError("reminder_minutes", strconv.Itoa(*p.ReminderMinutes))
		}
		next.ReminderMinutes = *p.ReminderMinutes
		writes[KeyReminderMinutes] = strconv.Itoa(*p.ReminderMinutes)
	}
	if p.WeekStart != nil {
		if !p.WeekStart.IsValid() {
			return s.current, model.NewInvalidSettingError("week_start", strconv.Itoa(int(*p.WeekStart)))
		}
		next.WeekStart = *p.WeekStart
		writes[KeyWeekStart] = strconv.Itoa(int(*p.WeekStart))
	}
	if p.TimeFormat != nil {
		if !p.TimeFormat.IsValid() {
			return s.current, model.NewInvalidSettingError("time_format", string(*p.TimeFormat))
		}
		next.TimeFormat = *p.TimeFormat
		writes[KeyTimeFormat] = string(*p.TimeFormat)
	}
	if p.HasCompletedOnboarding != nil {
		next.HasCompletedOnboarding = *p.HasCompletedOnboarding
		writes[KeyHasCompletedOnboarding] = strconv.FormatBool(*p.HasCompletedOnboarding)
	}

	for key, value := range writes {
		if err := s.repo.Set(ctx, key, []byte(value)); err != nil {
			return s.current, fmt.Errorf("failed to save setting %s: %w", key, err)
		}
	}

	s.current = next
	s.value.Set(next)
	return next, nil
}

// CompleteOnboarding は通知設定を保存し、オンボーディング完了を記録する。
func (s *Service) CompleteOnboarding(ctx context.Context, notificationsEnabled bool) (model.Settings, error) {
	done := true
	return s.Update(ctx, Patch{
		NotificationsEnabled:   &notificationsEnabled,
		HasCompletedOnboarding: &done,
	})
}

// SwitchEnvironment は接続先環境を切り替えて保存し、接続テストを行う。
// 接続テストの失敗はエラーではなく結果として返す。
func (s *Service) SwitchEnvironment(ctx context.Context, env model.APIEnvironment) (ConnectionCheck, error) {
	if !env.IsValid() {
		return ConnectionCheck{}, model.NewInvalidSettingError("api_environment", string(env))
	}

	s.mu.Lock()
	if err := s.repo.Set(ctx, KeyAPIEnvironment, []byte(env)); err != nil {
		s.mu.Unlock()
		return ConnectionCheck{}, fmt.Errorf("failed to save api environment: %w", err)
	}
	s.current.Environment = env
	next := s.current
	s.mu.Unlock()

	s.value.Set(next)
	s.logger.Info("接続先環境を切り替えました",
		slog.String("environment", string(env)),
		slog.String("base_url", s.BaseURL()),
	)

	return s.TestConnection(ctx), nil
}

// TestConnection は現在の接続先に GET /common を送り、2xxなら接続済みとする。
func (s *Service) TestConnection(ctx context.Context) ConnectionCheck {
	s.mu.RLock()
	pinger := s.pinger
	env := s.current.Environment
	s.mu.RUnlock()

	check := ConnectionCheck{
		Environment: env,
		BaseURL:     s.BaseURL(),
	}
	if pinger == nil {
		s.logger.Warn("接続テスト先が未設定のためスキップします")
	} else if err := pinger.Ping(ctx); err != nil {
		s.logger.Warn("接続テストに失敗しました",
			slog.String("base_url", check.BaseURL),
			slog.String("error", err.Error()),
		)
	} else {
		check.Connected = true
	}
	check.CheckedAt = s.now()

	s.mu.Lock()
	s.lastCheck = &check
	s.mu.Unlock()
	return check
}

// LastConnectionCheck は直近の接続テスト結果を返す。未実施の場合はfalseを返す。
func (s *Service) LastConnectionCheck() (ConnectionCheck, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastCheck == nil {
		return ConnectionCheck{}, false
	}
	return *s.lastCheck, true
}
