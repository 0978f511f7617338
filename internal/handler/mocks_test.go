package handler

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/lovendar/internal/auth"
	"github.com/hitoshi/lovendar/internal/event"
	"github.com/hitoshi/lovendar/internal/model"
	"github.com/hitoshi/lovendar/internal/notification"
	"github.com/hitoshi/lovendar/internal/oshi"
	"github.com/hitoshi/lovendar/internal/settings"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// --- モック定義 ---

type mockAuthService struct {
	loginFn    func(ctx context.Context, form auth.LoginForm) (model.Session, error)
	registerFn func(ctx context.Context, form auth.RegisterForm) (model.Session, error)
	logoutFn   func(ctx context.Context)
}

func (m *mockAuthService) Login(ctx context.Context, form auth.LoginForm) (model.Session, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, form)
	}
	return model.Session{}, nil
}

func (m *mockAuthService) Register(ctx context.Context, form auth.RegisterForm) (model.Session, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, form)
	}
	return model.Session{}, nil
}

func (m *mockAuthService) Logout(ctx context.Context) {
	if m.logoutFn != nil {
		m.logoutFn(ctx)
	}
}

type stubSession struct {
	session model.Session
}

func (s *stubSession) Session() model.Session { return s.session }
func (s *stubSession) IsAuthenticated() bool { return s.session.IsAuthenticated() }

type countingRefresher struct {
	calls int
}

func (c *countingRefresher) RunOnce(ctx context.Context) { c.calls++ }

type mockEvents struct {
	snapshot event.Snapshot
	loc      *time.Location
	syncFn   func(ctx context.Context) error
}

func (m *mockEvents) Snapshot() event.Snapshot { return m.snapshot }
func (m *mockEvents) Location() *time.Location { return m.loc }

func (m *mockEvents) EventsForDate(date time.Time) []model.Event {
	var out []model.Event
	for _, ev := range m.snapshot.Events {
		y1, m1, d1 := ev.StartTime.In(m.loc).Date()
		y2, m2, d2 := date.In(m.loc).Date()
		if y1 == y2 && m1 == m2 && d1 == d2 {
			out = append(out, ev)
		}
	}
	return out
}

func (m *mockEvents) Sync(ctx context.Context) error {
	if m.syncFn != nil {
		return m.syncFn(ctx)
	}
	return nil
}

type mockEventService struct {
	createFn func(ctx context.Context, form event.Form) (model.Event, error)
	updateFn func(ctx context.Context, serverID int64, form event.Form) (model.Event, error)
	detailFn func(ctx context.Context, serverID int64) (model.Event, error)
}

func (m *mockEventService) Create(ctx context.Context, form event.Form) (model.Event, error) {
	if m.createFn != nil {
		return m.createFn(ctx, form)
	}
	return model.Event{}, nil
}

func (m *mockEventService) Update(ctx context.Context, serverID int64, form event.Form) (model.Event, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, serverID, form)
	}
	return model.Event{}, nil
}

func (m *mockEventService) Detail(ctx context.Context, serverID int64) (model.Event, error) {
	if m.detailFn != nil {
		return m.detailFn(ctx, serverID)
	}
	return model.Event{}, nil
}

type mockOshiService struct {
	snapshot oshi.Snapshot
	createFn func(ctx context.Context, form oshi.Form) (model.Oshi, error)
	updateFn func(ctx context.Context, id uuid.UUID, form oshi.Form) (model.Oshi, error)
	deleteFn func(id uuid.UUID) error
	syncFn   func(ctx context.Context) error
}

func (m *mockOshiService) Snapshot() oshi.Snapshot { return m.snapshot }

func (m *mockOshiService) Create(ctx context.Context, form oshi.Form) (model.Oshi, error) {
	if m.createFn != nil {
		return m.createFn(ctx, form)
	}
	return model.Oshi{}, nil
}

func (m *mockOshiService) Update(ctx context.Context, id uuid.UUID, form oshi.Form) (model.Oshi, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, form)
	}
	return model.Oshi{}, nil
}

func (m *mockOshiService) Delete(id uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(id)
	}
	return nil
}

func (m *mockOshiService) Sync(ctx context.Context) error {
	if m.syncFn != nil {
		return m.syncFn(ctx)
	}
	return nil
}

type mockSettingsService struct {
	current   model.Settings
	lastCheck *settings.ConnectionCheck
	updateFn  func(ctx context.Context, p settings.Patch) (model.Settings, error)
	switchFn  func(ctx context.Context, env model.APIEnvironment) (settings.ConnectionCheck, error)
}

func (m *mockSettingsService) Get() model.Settings { return m.current }

func (m *mockSettingsService) Update(ctx context.Context, p settings.Patch) (model.Settings, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, p)
	}
	return m.current, nil
}

func (m *mockSettingsService) SwitchEnvironment(ctx context.Context, env model.APIEnvironment) (settings.ConnectionCheck, error) {
	if m.switchFn != nil {
		return m.switchFn(ctx, env)
	}
	return settings.ConnectionCheck{}, nil
}

func (m *mockSettingsService) CompleteOnboarding(ctx context.Context, notificationsEnabled bool) (model.Settings, error) {
	m.current.NotificationsEnabled = notificationsEnabled
	m.current.HasCompletedOnboarding = true
	return m.current, nil
}

func (m *mockSettingsService) LastConnectionCheck() (settings.ConnectionCheck, bool) {
	if m.lastCheck == nil {
		return settings.ConnectionCheck{}, false
	}
	return *m.lastCheck, true
}

type mockScheduler struct {
	scheduled   []model.Event
	cancelCalls int
	pending     []notification.Request
}

func (m *mockScheduler) ScheduleNotifications(ctx context.Context, events []model.Event) {
	m.scheduled = append(m.scheduled, events...)
}

func (m *mockScheduler) CancelAll() { m.cancelCalls++ }
func (m *mockScheduler) Pending() []notification.Request { return m.pending }

type stubPermissions struct {
	status model.AuthorizationStatus
	err    error
}

func (s *stubPermissions) Status() model.AuthorizationStatus { return s.status }

func (s *stubPermissions) RequestAuthorization(ctx context.Context, granted bool) (model.AuthorizationStatus, error) {
	if s.err != nil {
		return s.status, s.err
	}
	if granted {
		s.status = model.AuthorizationAuthorized
	} else {
		s.status = model.AuthorizationDenied
	}
	return s.status, nil
}

type mockSyncRuns struct {
	runs      []*model.SyncRun
	lastLimit int
}

func (m *mockSyncRuns) ListRecent(ctx context.Context, limit int) ([]*model.SyncRun, error) {
	m.lastLimit = limit
	return m.runs, nil
}

func int64Ptr(v int64) *int64 { return &v }
