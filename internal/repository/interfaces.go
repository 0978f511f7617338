// Package repository は端末ローカルの永続化インターフェースと実装を提供する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/lovendar/internal/model"
)

// KeyValueRepository は固定キーで値を保存するキーバリューストア。
// 認証トークン、ユーザー情報、各種設定の保存に使う。
type KeyValueRepository interface {
	// Get は指定キーの値を取得する。見つからない場合はnilを返す。
	Get(ctx context.Context, key string) ([]byte, error)

	// Set は指定キーに値を保存する。既存の値は上書きする。
	Set(ctx context.Context, key string, value []byte) error

	// Delete は指定キーを削除する。存在しない場合もエラーにしない。
	Delete(ctx context.Context, key string) error
}

// SyncRunRepository は同期実行履歴の永続化インターフェース。
type SyncRunRepository interface {
	// Create は同期実行の記録を追加する。
	Create(ctx context.Context, run *model.SyncRun) error

	// ListRecent は終了時刻の新しい順に最大limit件の記録を返す。
	ListRecent(ctx context.Context, limit int) ([]*model.SyncRun, error)

	// DeleteFinishedBefore は指定時刻より前に終了した記録を削除し、削除件数を返す。
	DeleteFinishedBefore(ctx context.Context, before time.Time) (int64, error)
}

// Store はKeyValueRepositoryとSyncRunRepositoryをまとめたバックエンド。
type Store interface {
	KV() KeyValueRepository
	SyncRuns() SyncRunRepository
	Close() error
}
