package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/lovendar/internal/database"
	"github.com/hitoshi/lovendar/internal/model"
)

// SQLStore はPostgreSQLまたはSQLiteを使用したストア。
// スキーマはdatabase.RunMigrationsで作成しておくこと。
type SQLStore struct {
	db *database.DB
}

// NewSQLStore はSQLStoreを生成する。
func NewSQLStore(db *database.DB) *SQLStore {
	return &SQLStore{db: db}
}

// KV はキーバリューリポジトリを返す。
func (s *SQLStore) KV() KeyValueRepository { return &SQLKeyValueRepo{db: s.db} }

// SyncRuns は同期履歴リポジトリを返す。
func (s *SQLStore) SyncRuns() SyncRunRepository { return &SQLSyncRunRepo{db: s.db} }

// Close はデータベース接続を閉じる。
func (s *SQLStore) Close() error { return s.db.Close() }

// SQLKeyValueRepo はkv_entriesテーブルを使用したキーバリューリポジトリ。
type SQLKeyValueRepo struct {
	db *database.DB
}

// NewSQLKeyValueRepo はSQLKeyValueRepoを生成する。
func NewSQLKeyValueRepo(db *database.DB) *SQLKeyValueRepo {
	return &SQLKeyValueRepo{db: db}
}

// Get は指定キーの値を取得する。見つからない場合はnilを返す。
func (r *SQLKeyValueRepo) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		r.db.Rebind(`SELECT value FROM kv_entries WHERE key = ?`),
		key,
	).Scan(&value)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get kv entry: %w", err)
	}

	return []byte(value), nil
}

// Set は指定キーに値を保存する。既存の値は上書きする。
func (r *SQLKeyValueRepo) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx,
		r.db.Rebind(`INSERT INTO kv_entries (key, value, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`),
		key, string(value), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to set kv entry: %w", err)
	}
	return nil
}

// Delete は指定キーを削除する。存在しない場合もエラーにしない。
func (r *SQLKeyValueRepo) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx,
		r.db.Rebind(`DELETE FROM kv_entries WHERE key = ?`),
		key,
	)
	if err != nil {
		return fmt.Errorf("failed to delete kv entry: %w", err)
	}
	return nil
}

// SQLSyncRunRepo はsync_runsテーブルを使用した同期履歴リポジトリ。
type SQLSyncRunRepo struct {
	db *database.DB
}

// NewSQLSyncRunRepo はSQLSyncRunRepoを生成する。
func NewSQLSyncRunRepo(db *database.DB) *SQLSyncRunRepo {
	return &SQLSyncRunRepo{db: db}
}

// Create は同期実行の記録を追加する。
func (r *SQLSyncRunRepo) Create(ctx context.Context, run *model.SyncRun) error {
	_, err := r.db.ExecContext(ctx,
		r.db.Rebind(`INSERT INTO sync_runs (id, resource, started_at, finished_at, status, item_count, dropped_count, error_message)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		run.ID, string(run.Resource), run.StartedAt.UTC(), run.FinishedAt.UTC(), string(run.Status),
		run.ItemCount, run.DroppedCount, run.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sync run: %w", err)
	}
	return nil
}

// ListRecent は終了時刻の新しい順に最大limit件の記録を返す。
func (r *SQLSyncRunRepo) ListRecent(ctx context.Context, limit int) ([]*model.SyncRun, error) {
	rows, err := r.db.QueryContext(ctx,
		r.db.Rebind(`SELECT id, resource, started_at, finished_at, status, item_count, dropped_count, error_message
		 FROM sync_runs ORDER BY finished_at DESC LIMIT ?`),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}
	defer rows.Close()

	var runs []*model.SyncRun
	for rows.Next() {
		run := &model.SyncRun{}
		var resource, status string
		if err := rows.Scan(&run.ID, &resource, &run.StartedAt, &run.FinishedAt, &status,
			&run.ItemCount, &run.DroppedCount, &run.ErrorMessage); err != nil {
			return nil, fmt.Errorf("failed to scan sync run: %w", err)
		}
		run.Resource = model.SyncResource(resource)
		run.Status = model.SyncStatus(status)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sync runs: %w", err)
	}

	return runs, nil
}

// DeleteFinishedBefore は指定時刻より前に終了した記録を削除し、削除件数を返す。
func (r *SQLSyncRunRepo) DeleteFinishedBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		r.db.Rebind(`DELETE FROM sync_runs WHERE finished_at < ?`),
		before.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete sync runs: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}
