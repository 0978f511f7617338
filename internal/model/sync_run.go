package model

import "time"

// SyncResource は同期対象のリソース種別。
type SyncResource string

const (
	SyncResourceEvents SyncResource = "events"
	SyncResourceOshis  SyncResource = "oshis"
)

// SyncStatus は同期実行の結果。
type SyncStatus string

const (
	SyncStatusSuccess    SyncStatus = "success"
	SyncStatusFailed     SyncStatus = "failed"
	SyncStatusSkipped    SyncStatus = "skipped"    // 未ログインのため通信しなかった
	SyncStatusSuperseded SyncStatus = "superseded" // 後続の同期に置き換えられた
)

// SyncRun は1回の同期実行の記録。
type SyncRun struct {
	ID           string       `json:"id"`
	Resource     SyncResource `json:"resource"`
	StartedAt    time.Time    `json:"started_at"`
	FinishedAt   time.Time    `json:"finished_at"`
	Status       SyncStatus   `json:"status"`
	ItemCount    int          `json:"item_count"`
	DroppedCount int          `json:"dropped_count"`
	ErrorMessage string       `json:"error_message"`
}
