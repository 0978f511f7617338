package event

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/hitoshi/lovendar/internal/apiclient"
	"github.com/hitoshi/lovendar/internal/model"
	"github.com/hitoshi/lovendar/internal/repository"
	"github.com/hitoshi/lovendar/internal/syncrun"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// --- モック定義 ---

type mockLister struct {
	listFn func(ctx context.Context) ([]apiclient.OshiWithEvents, error)
}

func (m *mockLister) List(ctx context.Context) ([]apiclient.OshiWithEvents, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

type stubSession bool

func (s stubSession) IsAuthenticated() bool { return bool(s) }

type mockScheduler struct {
	mu    sync.Mutex
	calls [][]model.Event
}

func (m *mockScheduler) ScheduleNotifications(ctx context.Context, events []model.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, events)
}

type mockMetrics struct {
	mu      sync.Mutex
	dropped []string
}

func (m *mockMetrics) RecordHTTPStatus(int) {}
func (m *mockMetrics) RecordRequestLatency(time.Duration) {}
func (m *mockMetrics) RecordSyncSuccess(string, int) {}
func (m *mockMetrics) RecordSyncFailure(string, string) {}
func (m *mockMetrics) RecordSyncSuperseded(string) {}
func (m *mockMetrics) RecordNotificationScheduled() {}
func (m *mockMetrics) RecordNotificationSkipped(string) {}
func (m *mockMetrics) RecordNotificationDelivered() {}
func (m *mockMetrics) RecordEventDropped(r string) { m.mu.Lock(); m.dropped = append(m.dropped, r); m.mu.Unlock() }

func newTestPipeline(t *testing.T, lister Lister, authenticated bool, scheduler NotificationScheduler) (*Pipeline, *mockMetrics, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := newTestLogger(&buf)
	m := &mockMetrics{}
	tracker := syncrun.NewTracker(model.SyncResourceEvents, repository.NewMemoryStore().SyncRuns(), m, logger)
	p := NewPipeline(lister, stubSession(authenticated), scheduler, tracker, m, logger)
	p.loc = time.UTC
	return p, m, &buf
}

func TestPipeline_ImplementsInterface(t *testing.T) {
	var _ Lister = (*apiclient.EventClient)(nil)
	var _ Remote = (*apiclient.EventClient)(nil)
}

func TestPipeline_Sync_Unauthenticated(t *testing.T) {
	lister := &mockLister{
		listFn: func(ctx context.Context) ([]apiclient.OshiWithEvents, error) {
			t.Error("未ログインなのにAPIが呼ばれた")
			return nil, nil
		},
	}
	sched := &mockScheduler{}
	p, _, _ := newTestPipeline(t, lister, false, sched)

	if err := p.Sync(context.Background()); err != nil {
		t.Fatalf("Sync がエラーを返した: %v", err)
	}
	if got := p.Snapshot(); len(got.Events) != 0 || got.ErrorMessage != "" {
		t.Errorf("Snapshot = %+v", got)
	}
	if len(sched.calls) != 0 {
		t.Errorf("未ログインで通知が登録された: %d", len(sched.calls))
	}
}

func TestPipeline_Sync_NormalizesAndSchedules(t *testing.T) {
	lister := &mockLister{
		listFn: func(ctx context.Context) ([]apiclient.OshiWithEvents, error) {
			return []apiclient.OshiWithEvents{
				{ID: 1, Name: "ミク", Events: []apiclient.EventAPI{
					{ID: 10, Title: "終日", StartsAt: "2025-01-01T10:00:00Z"},
					{ID: 11, Title: "小数秒", StartsAt: "2025-01-02T10:00:00.250Z", EndsAt: strPtr("2025-01-02T11:00:00Z")},
				}},
				{ID: 2, Name: "リン", Events: []apiclient.EventAPI{
					{ID: 20, Title: "不正", StartsAt: "yesterday"},
					{ID: 21, Title: "通常", StartsAt: "2025-01-03T10:00:00Z", EndsAt: strPtr("2025-01-03T12:00:00Z")},
				}},
			}, nil
		},
	}
	sched := &mockScheduler{}
	p, m, logs := newTestPipeline(t, lister, true, sched)

	if err := p.Sync(context.Background()); err != nil {
		t.Fatalf("Sync がエラーを返した: %v", err)
	}

	events := p.Events()
	if len(events) != 3 {
		t.Fatalf("len = %d, want 3", len(events))
	}
	first := events[0]
	if !first.IsAllDay || !first.StartTime.Equal(time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("終日イベント = %+v", first)
	}
	if *events[2].OshiID != 2 {
		t.Errorf("OshiID = %d, want 2", *events[2].OshiID)
	}
	if len(m.dropped) != 1 || m.dropped[0] != "invalid_starts_at" {
		t.Errorf("dropped = %v", m.dropped)
	}
	if !bytes.Contains(logs.Bytes(), []byte("yesterday")) {
		t.Errorf("除外したイベントがログに出ていない: %s", logs.String())
	}
	if len(sched.calls) != 1 || len(sched.calls[0]) != 3 {
		t.Errorf("scheduler calls = %v", sched.calls)
	}
}

func TestPipeline_Sync_KeepsLocalIDs(t *testing.T) {
	lister := &mockLister{
		listFn: func(ctx context.Context) ([]apiclient.OshiWithEvents, error) {
			return []apiclient.OshiWithEvents{
				{ID: 1, Events: []apiclient.EventAPI{{ID: 10, StartsAt: "2025-01-01T10:00:00Z"}}},
			}, nil
		},
	}
	p, _, _ := newTestPipeline(t, lister, true, nil)
	ctx := context.Background()

	if err := p.Sync(ctx); err != nil {
		t.Fatalf("Sync がエラーを返した: %v", err)
	}
	before := p.Events()[0].NotificationIdentifier()
	if err := p.Sync(ctx); err != nil {
		t.Fatalf("Sync がエラーを返した: %v", err)
	}
	after := p.Events()[0].NotificationIdentifier()

	if before != after {
		t.Errorf("通知識別子が変わった: %s -> %s", before, after)
	}
}

func TestPipeline_Sync_FailurePublishesEmptyWithMessage(t *testing.T) {
	calls := 0
	lister := &mockLister{
		listFn: func(ctx context.Context) ([]apiclient.OshiWithEvents, error) {
			calls++
			if calls == 1 {
				return []apiclient.OshiWithEvents{
					{ID: 1, Events: []apiclient.EventAPI{{ID: 10, StartsAt: "2025-01-01T10:00:00Z"}}},
				}, nil
			}
			return nil, model.ErrServerError
		},
	}
	sched := &mockScheduler{}
	p, _, _ := newTestPipeline(t, lister, true, sched)
	ctx := context.Background()

	if err := p.Sync(ctx); err != nil {
		t.Fatalf("Sync がエラーを返した: %v", err)
	}
	err := p.Sync(ctx)
	if !errors.Is(err, model.ErrServerError) {
		t.Fatalf("err = %v, want server error", err)
	}

	snap := p.Snapshot()
	if len(snap.Events) != 0 {
		t.Errorf("失敗時に一覧が残っている: %+v", snap.Events)
	}
	if snap.ErrorMessage != model.ErrServerError.UserMessage() {
		t.Errorf("ErrorMessage = %q", snap.ErrorMessage)
	}
	if len(sched.calls) != 1 {
		t.Errorf("失敗時に通知が登録された: %d", len(sched.calls))
	}
}

func TestPipeline_Sync_NewerCallWins(t *testing.T) {
	started := make(chan struct{})
	var mu sync.Mutex
	calls := 0
	lister := &mockLister{
		listFn: func(ctx context.Context) ([]apiclient.OshiWithEvents, error) {
			mu.Lock()
			calls++
			n := calls
			mu.Unlock()
			if n == 1 {
				close(started)
				<-ctx.Done()
				return []apiclient.OshiWithEvents{
					{ID: 1, Events: []apiclient.EventAPI{{ID: 1, Title: "古い", StartsAt: "2025-01-01T10:00:00Z"}}},
				}, nil
			}
			return []apiclient.OshiWithEvents{
				{ID: 1, Events: []apiclient.EventAPI{{ID: 2, Title: "新しい", StartsAt: "2025-01-01T10:00:00Z"}}},
			}, nil
		},
	}
	sched := &mockScheduler{}
	p, _, _ := newTestPipeline(t, lister, true, sched)

	errCh := make(chan error, 1)
	go func() { errCh <- p.Sync(context.Background()) }()
	<-started

	if err := p.Sync(context.Background()); err != nil {
		t.Fatalf("2回目の Sync がエラーを返した: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Errorf("置き換えられた Sync がエラーを返した: %v", err)
	}

	events := p.Events()
	if len(events) != 1 || events[0].Title != "新しい" {
		t.Errorf("Events = %+v", events)
	}
	if len(sched.calls) != 1 {
		t.Errorf("scheduler calls = %d, want 1", len(sched.calls))
	}
}

// reentrantScheduler は最初の登録の途中で別の同期を走らせる。
type reentrantScheduler struct {
	mockScheduler
	during func()
}

func (r *reentrantScheduler) ScheduleNotifications(ctx context.Context, events []model.Event) {
	if during := r.during; during != nil {
		r.during = nil
		during()
	}
	r.mockScheduler.ScheduleNotifications(ctx, events)
}

func TestPipeline_Sync_StaleSchedulingIsReplacedByLatestList(t *testing.T) {
	var mu sync.Mutex
	hasAlarm := true
	lister := &mockLister{
		listFn: func(ctx context.Context) ([]apiclient.OshiWithEvents, error) {
			mu.Lock()
			defer mu.Unlock()
			return []apiclient.OshiWithEvents{
				{ID: 1, Events: []apiclient.EventAPI{{
					ID: 1, Title: "ライブ", StartsAt: "2099-01-01T10:00:00Z",
					HasAlarm: hasAlarm, NotificationTiming: "15",
				}}},
			}, nil
		},
	}
	sched := &reentrantScheduler{}
	p, _, _ := newTestPipeline(t, lister, true, sched)

	sched.during = func() {
		mu.Lock()
		hasAlarm = false
		mu.Unlock()
		if err := p.Sync(context.Background()); err != nil {
			t.Errorf("後続の Sync がエラーを返した: %v", err)
		}
	}

	if err := p.Sync(context.Background()); err != nil {
		t.Fatalf("Sync がエラーを返した: %v", err)
	}

	if got := p.Events(); len(got) != 1 || got[0].HasAlarm {
		t.Fatalf("Events = %+v, want HasAlarm=false", got)
	}
	calls := sched.calls
	if len(calls) != 3 {
		t.Fatalf("scheduler calls = %d, want 3", len(calls))
	}
	last := calls[len(calls)-1]
	if len(last) != 1 || last[0].HasAlarm {
		t.Errorf("最後に登録した一覧 = %+v, want HasAlarm=false", last)
	}
}

func TestPipeline_EventsForDate(t *testing.T) {
	lister := &mockLister{
		listFn: func(ctx context.Context) ([]apiclient.OshiWithEvents, error) {
			return []apiclient.OshiWithEvents{
				{ID: 1, Events: []apiclient.EventAPI{
					{ID: 1, StartsAt: "2025-01-01T10:00:00Z"},
					{ID: 2, StartsAt: "2025-01-01T23:00:00Z"},
					{ID: 3, StartsAt: "2025-01-02T00:30:00Z"},
				}},
			}, nil
		},
	}
	p, _, _ := newTestPipeline(t, lister, true, nil)
	if err := p.Sync(context.Background()); err != nil {
		t.Fatalf("Sync がエラーを返した: %v", err)
	}

	day := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := p.EventsForDate(day); len(got) != 2 {
		t.Errorf("EventsForDate = %d件, want 2", len(got))
	}
	if !p.HasEventsForDate(day.AddDate(0, 0, 1)) {
		t.Error("HasEventsForDate(1月2日) = false")
	}
	if p.HasEventsForDate(day.AddDate(0, 0, 2)) {
		t.Error("HasEventsForDate(1月3日) = true")
	}
	if _, ok := p.FindByServerID(3); !ok {
		t.Error("FindByServerID(3) が見つからない")
	}
}
