package notification

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/hitoshi/lovendar/internal/metrics"
)

// deliveryTimeout は1件の通知配信に使う時間の上限。
const deliveryTimeout = 10 * time.Second

// Center は時刻指定のローカル通知を保持する。
// 同じ識別子で登録した場合は置き換える。
type Center interface {
	Add(req Request) error
	Remove(identifiers ...string)
	RemoveAll()
	Pending() []Request
}

// Authorizer は通知が許可されているかを返す。
type Authorizer interface {
	IsAuthorized() bool
}

type pendingEntry struct {
	req   Request
	timer *time.Timer
}

// TimerCenter は識別子ごとのタイマーで通知を発火させるCenter。
// 登録は許可状態に関わらず行い、発火時に許可がなければ配信しない。
type TimerCenter struct {
	permissions Authorizer
	deliverer   Deliverer
	metrics     metrics.MetricsCollector
	logger      *slog.Logger
	now         func() time.Time

	mu      sync.Mutex
	pending map[string]*pendingEntry
}

// NewTimerCenter はTimerCenterを生成する。metricsCollectorはnilでもよい。
func NewTimerCenter(permissions Authorizer, deliverer Deliverer, metricsCollector metrics.MetricsCollector, logger *slog.Logger) *TimerCenter {
	return &TimerCenter{
		permissions: permissions,
		deliverer:   deliverer,
		metrics:     metricsCollector,
		logger:      logger,
		now:         time.Now,
		pending:     make(map[string]*pendingEntry),
	}
}

// Add はCenterを実装する。
func (c *TimerCenter) Add(req Request) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.pending[req.Identifier]; ok {
		old.timer.Stop()
	}
	entry := &pendingEntry{req: req}
	entry.timer = time.AfterFunc(req.TriggerAt.Sub(c.now()), func() { c.fire(entry) })
	c.pending[req.Identifier] = entry
	return nil
}

// Remove はCenterを実装する。登録されていない識別子は無視する。
func (c *TimerCenter) Remove(identifiers ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range identifiers {
		if entry, ok := c.pending[id]; ok {
			entry.timer.Stop()
			delete(c.pending, id)
		}
	}
}

// RemoveAll はCenterを実装する。
func (c *TimerCenter) RemoveAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, entry := range c.pending {
		entry.timer.Stop()
		delete(c.pending, id)
	}
}

// Pending はCenterを実装する。発火時刻の早い順に返す。
func (c *TimerCenter) Pending() []Request {
	c.mu.Lock()
	out := make([]Request, 0, len(c.pending))
	for _, entry := range c.pending {
		out = append(out, entry.req)
	}
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].TriggerAt.Equal(out[j].TriggerAt) {
			return out[i].Identifier < out[j].Identifier
		}
		return out[i].TriggerAt.Before(out[j].TriggerAt)
	})
	return out
}

// fire は発火した通知を配信する。置き換え・取り消し済みの場合は何もしない。
func (c *TimerCenter) fire(entry *pendingEntry) {
	c.mu.Lock()
	current, ok := c.pending[entry.req.Identifier]
	if !ok || current != entry {
		c.mu.Unlock()
		return
	}
	delete(c.pending, entry.req.Identifier)
	c.mu.Unlock()

	if !c.permissions.IsAuthorized() {
		c.logger.Debug("通知が許可されていないため配信しませんでした",
			slog.String("identifier", entry.req.Identifier),
		)
		if c.metrics != nil {
			c.metrics.RecordNotificationSkipped("not_authorized")
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()
	if err := c.deliverer.Deliver(ctx, entry.req); err != nil {
		c.logger.Warn("通知の配信に失敗しました",
			slog.String("identifier", entry.req.Identifier),
			slog.String("error", err.Error()),
		)
		if c.metrics != nil {
			c.metrics.RecordNotificationSkipped("delivery_failed")
		}
		return
	}
	if c.metrics != nil {
		c.metrics.RecordNotificationDelivered()
	}
}
