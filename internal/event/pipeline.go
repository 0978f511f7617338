package event

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/lovendar/internal/apiclient"
	"github.com/hitoshi/lovendar/internal/calendar"
	"github.com/hitoshi/lovendar/internal/metrics"
	"github.com/hitoshi/lovendar/internal/model"
	"github.com/hitoshi/lovendar/internal/observable"
	"github.com/hitoshi/lovendar/internal/syncrun"
)

// Lister は推しごとにまとめられたイベント一覧を取得する。
type Lister interface {
	List(ctx context.Context) ([]apiclient.OshiWithEvents, error)
}

// SessionChecker はログイン状態を返す。
type SessionChecker interface {
	IsAuthenticated() bool
}

// NotificationScheduler は同期したイベントの通知を登録する。
type NotificationScheduler interface {
	ScheduleNotifications(ctx context.Context, events []model.Event)
}

// Snapshot は公開中のイベント一覧。
// 取得に失敗した場合は空の一覧とエラー文言を持つ。
type Snapshot struct {
	Events       []model.Event `json:"events"`
	ErrorMessage string        `json:"error_message,omitempty"`
	SyncedAt     time.Time     `json:"synced_at"`
}

// Pipeline はサーバーのイベント一覧を取得・正規化して公開する。
// 同期が重なった場合は新しい呼び出しが古い呼び出しを置き換える。
type Pipeline struct {
	lister    Lister
	session   SessionChecker
	scheduler NotificationScheduler
	tracker   *syncrun.Tracker
	metrics   metrics.MetricsCollector
	logger    *slog.Logger
	loc       *time.Location
	now       func() time.Time

	idMu     sync.Mutex
	localIDs map[int64]uuid.UUID
	value    *observable.Value[Snapshot]
}

// NewPipeline はPipelineを生成する。schedulerとmetricsCollectorはnilでもよい。
func NewPipeline(
	lister Lister,
	session SessionChecker,
	scheduler NotificationScheduler,
	tracker *syncrun.Tracker,
	metricsCollector metrics.MetricsCollector,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		lister:    lister,
		session:   session,
		scheduler: scheduler,
		tracker:   tracker,
		metrics:   metricsCollector,
		logger:    logger,
		loc:       time.Local,
		now:       time.Now,
		localIDs:  make(map[int64]uuid.UUID),
		value:     observable.NewValue(Snapshot{Events: []model.Event{}}),
	}
}

// Location は日付の判定に使うタイムゾーンを返す。
func (p *Pipeline) Location() *time.Location {
	return p.loc
}

// Sync はイベント一覧を取得して公開中の一覧を置き換える。
// 未ログインの場合は通信せずに空の一覧を公開する。
// 成功した場合は全イベントを通知スケジューラに渡す。
func (p *Pipeline) Sync(ctx context.Context) error {
	var (
		events  []model.Event
		version uint64
	)
	published, err := p.tracker.Run(ctx, syncrun.Job{
		Authenticated: p.session.IsAuthenticated(),
		Fetch: func(ctx context.Context) (func(), syncrun.Outcome, error) {
			groups, err := p.lister.List(ctx)
			if err != nil {
				return nil, syncrun.Outcome{}, err
			}
			var dropped int
			events, dropped = p.normalize(groups)
			publish := func() {
				p.assignLocalIDs(events)
				p.value.Set(Snapshot{Events: events, SyncedAt: p.now()})
				version = p.value.Version()
			}
			return publish, syncrun.Outcome{Items: len(events), Dropped: dropped}, nil
		},
		PublishEmpty: func(msg string) {
			p.value.Set(Snapshot{Events: []model.Event{}, ErrorMessage: msg, SyncedAt: p.now()})
		},
	})
	if err != nil {
		return err
	}

	if published && p.scheduler != nil {
		p.schedule(ctx, events, version)
	}
	return nil
}

// schedule は公開した一覧の通知を登録する。
// 登録中に新しい一覧が公開されていた場合は、最後に公開された一覧で登録し直す。
func (p *Pipeline) schedule(ctx context.Context, events []model.Event, version uint64) {
	for {
		p.scheduler.ScheduleNotifications(ctx, events)
		latest, current := p.value.Load()
		if current == version {
			return
		}
		events, version = latest.Events, current
	}
}

// normalize はグループ化されたイベントを平坦化して変換する。
// 開始日時を解釈できないイベントは除外し、件数を返す。
func (p *Pipeline) normalize(groups []apiclient.OshiWithEvents) ([]model.Event, int) {
	events := make([]model.Event, 0)
	dropped := 0
	for _, group := range groups {
		for _, dto := range group.Events {
			ev, err := FromAPI(dto, group.ID, p.loc)
			if err != nil {
				dropped++
				p.logger.Warn("開始日時を解釈できないイベントを除外しました",
					slog.Int64("event_id", dto.ID),
					slog.Int64("oshi_id", group.ID),
					slog.String("starts_at", dto.StartsAt),
				)
				if p.metrics != nil {
					p.metrics.RecordEventDropped("invalid_starts_at")
				}
				continue
			}
			events = append(events, ev)
		}
	}
	return events, dropped
}

// assignLocalIDs は同じサーバーIDのイベントに以前と同じローカルIDを割り当てる。
// 通知の識別子がローカルIDを含むため、再同期で通知が重複しないようにする。
func (p *Pipeline) assignLocalIDs(events []model.Event) {
	for i := range events {
		p.adoptLocalID(&events[i])
	}
}

// adoptLocalID はサーバーIDに対応するローカルIDがあればevに設定し、なければevのIDを登録する。
func (p *Pipeline) adoptLocalID(ev *model.Event) {
	if ev.ServerID == nil {
		return
	}
	p.idMu.Lock()
	defer p.idMu.Unlock()
	if id, ok := p.localIDs[*ev.ServerID]; ok {
		ev.ID = id
		return
	}
	p.localIDs[*ev.ServerID] = ev.ID
}

// Snapshot は公開中の一覧を返す。
func (p *Pipeline) Snapshot() Snapshot {
	return p.value.Get()
}

// Events は公開中のイベント一覧を返す。
func (p *Pipeline) Events() []model.Event {
	return p.value.Get().Events
}

// Subscribe は一覧変更の購読を開始する。
func (p *Pipeline) Subscribe() (<-chan Snapshot, func()) {
	return p.value.Subscribe()
}

// EventsForDate は指定日に属するイベントを返す。日付はイベントのDateで判定する。
func (p *Pipeline) EventsForDate(date time.Time) []model.Event {
	out := make([]model.Event, 0)
	for _, ev := range p.Events() {
		if calendar.SameDay(ev.Date, date, p.loc) {
			out = append(out, ev)
		}
	}
	return out
}

// HasEventsForDate は指定日にイベントがあるかを返す。
func (p *Pipeline) HasEventsForDate(date time.Time) bool {
	for _, ev := range p.Events() {
		if calendar.SameDay(ev.Date, date, p.loc) {
			return true
		}
	}
	return false
}

// FindByServerID はサーバーIDでイベントを探す。
func (p *Pipeline) FindByServerID(serverID int64) (model.Event, bool) {
	for _, ev := range p.Events() {
		if ev.ServerID != nil && *ev.ServerID == serverID {
			return ev, true
		}
	}
	return model.Event{}, false
}
