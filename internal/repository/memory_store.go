package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hitoshi/lovendar/internal/model"
)

// MemoryStore はプロセス内メモリのみを使うストア。
// テストや永続化不要な一時実行で使う。
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
	runs    []*model.SyncRun
}

// NewMemoryStore はMemoryStoreを生成する。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]byte)}
}

// KV はキーバリューリポジトリを返す。
func (s *MemoryStore) KV() KeyValueRepository { return (*memoryKV)(s) }

// SyncRuns は同期履歴リポジトリを返す。
func (s *MemoryStore) SyncRuns() SyncRunRepository { return (*memorySyncRuns)(s) }

// Close は何もしない。
func (s *MemoryStore) Close() error { return nil }

type memoryKV MemoryStore

func (r *memoryKV) Get(_ context.Context, key string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.entries[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (r *memoryKV) Set(_ context.Context, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	v := make([]byte, len(value))
	copy(v, value)
	r.entries[key] = v
	return nil
}

func (r *memoryKV) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, key)
	return nil
}

type memorySyncRuns MemoryStore

func (r *memorySyncRuns) Create(_ context.Context, run *model.SyncRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *run
	r.runs = append(r.runs, &cp)
	return nil
}

func (r *memorySyncRuns) ListRecent(_ context.Context, limit int) ([]*model.SyncRun, error) {
	r.mu.RLock()
	sorted := make([]*model.SyncRun, len(r.runs))
	copy(sorted, r.runs)
	r.mu.RUnlock()

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].FinishedAt.After(sorted[j].FinishedAt)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

func (r *memorySyncRuns) DeleteFinishedBefore(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.runs[:0]
	var deleted int64
	for _, run := range r.runs {
		if run.FinishedAt.Before(before) {
			deleted++
			continue
		}
		kept = append(kept, run)
	}
	r.runs = kept
	return deleted, nil
}
