package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/hitoshi/lovendar/internal/model"
)

const (
	kvPrefix      = "kv:"
	syncRunPrefix = "sync_run:"
)

// BadgerStore はBadgerを使用した埋め込みストア。
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore は指定ディレクトリのBadgerデータベースを開く。
func OpenBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	opts.SyncWrites = true
	return openBadger(opts)
}

// OpenInMemoryBadgerStore はディスクに書き込まないBadgerストアを開く。
func OpenInMemoryBadgerStore() (*BadgerStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	return openBadger(opts)
}

func openBadger(opts badger.Options) (*BadgerStore, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// KV はキーバリューリポジトリを返す。
func (s *BadgerStore) KV() KeyValueRepository { return (*badgerKV)(s) }

// SyncRuns は同期履歴リポジトリを返す。
func (s *BadgerStore) SyncRuns() SyncRunRepository { return (*badgerSyncRuns)(s) }

// Close はデータベースを閉じる。
func (s *BadgerStore) Close() error { return s.db.Close() }

type badgerKV BadgerStore

// Get は指定キーの値を取得する。見つからない場合はnilを返す。
func (r *badgerKV) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var value []byte
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(kvPrefix + key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get kv entry: %w", err)
	}
	return value, nil
}

// Set は指定キーに値を保存する。
func (r *badgerKV) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(kvPrefix+key), value)
	})
}

// Delete は指定キーを削除する。
func (r *badgerKV) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(kvPrefix + key))
	})
}

type badgerSyncRuns BadgerStore

// invertedTimestamp は新しい順に並ぶキー用のタイムスタンプ文字列を返す。
func invertedTimestamp(t time.Time) string {
	return fmt.Sprintf("%019d", math.MaxInt64-t.UnixNano())
}

func syncRunKey(run *model.SyncRun) []byte {
	return []byte(syncRunPrefix + invertedTimestamp(run.FinishedAt) + ":" + run.ID)
}

// Create は同期実行の記録を追加する。
func (r *badgerSyncRuns) Create(ctx context.Context, run *model.SyncRun) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal sync run: %w", err)
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(syncRunKey(run), data)
	})
}

// ListRecent は終了時刻の新しい順に最大limit件の記録を返す。
func (r *badgerSyncRuns) ListRecent(ctx context.Context, limit int) ([]*model.SyncRun, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var runs []*model.SyncRun
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(syncRunPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid() && len(runs) < limit; it.Next() {
			var run model.SyncRun
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &run)
			}); err != nil {
				return err
			}
			runs = append(runs, &run)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}
	return runs, nil
}

// DeleteFinishedBefore は指定時刻より前に終了した記録を削除し、削除件数を返す。
func (r *badgerSyncRuns) DeleteFinishedBefore(ctx context.Context, before time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	// 反転タイムスタンプのため、境界より大きいキーが古い記録になる
	boundary := syncRunPrefix + invertedTimestamp(before)
	var keys [][]byte
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(syncRunPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(boundary)); it.Valid(); it.Next() {
			key := it.Item().KeyCopy(nil)
			if strings.HasPrefix(string(key), boundary+":") {
				continue
			}
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to scan sync runs: %w", err)
	}

	wb := r.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return 0, fmt.Errorf("failed to delete sync run: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("failed to flush deletes: %w", err)
	}
	return int64(len(keys)), nil
}
