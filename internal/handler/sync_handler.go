package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hitoshi/lovendar/internal/event"
	"github.com/hitoshi/lovendar/internal/middleware"
	"github.com/hitoshi/lovendar/internal/model"
	"github.com/hitoshi/lovendar/internal/oshi"
)

const (
	defaultRunLimit = 20
	maxRunLimit     = 100
)

// OshiSyncer は推し一覧を同期する。
type OshiSyncer interface {
	Sync(ctx context.Context) error
	Snapshot() oshi.Snapshot
}

// EventSyncer はイベント一覧を同期する。
type EventSyncer interface {
	Sync(ctx context.Context) error
	Snapshot() event.Snapshot
}

// SyncRunLister は同期実行履歴を返す。
type SyncRunLister interface {
	ListRecent(ctx context.Context, limit int) ([]*model.SyncRun, error)
}

// SyncHandler は手動同期と同期履歴のHTTPハンドラー。
type SyncHandler struct {
	oshis  OshiSyncer
	events EventSyncer
	runs   SyncRunLister
	logger *slog.Logger
}

// NewSyncHandler はSyncHandlerを生成する。
func NewSyncHandler(oshis OshiSyncer, events EventSyncer, runs SyncRunLister, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{
		oshis:  oshis,
		events: events,
		runs:   runs,
		logger: logger,
	}
}

type syncResponse struct {
	Oshis  oshi.Snapshot  `json:"oshis"`
	Events event.Snapshot `json:"events"`
}

// Sync は推しとイベントの一覧を同期し、公開中の状態を返す。
// 失敗した場合も空の一覧とエラー文言は公開済み。
// POST /api/sync
func (h *SyncHandler) Sync(w http.ResponseWriter, r *http.Request) {
	oshiErr := h.oshis.Sync(r.Context())
	eventErr := h.events.Sync(r.Context())

	for _, err := range []error{oshiErr, eventErr} {
		if err != nil {
			middleware.WriteError(w, h.logger, err)
			return
		}
	}

	middleware.WriteJSON(w, http.StatusOK, syncResponse{
		Oshis:  h.oshis.Snapshot(),
		Events: h.events.Snapshot(),
	})
}

// ListRuns は同期実行履歴を新しい順に返す。
// GET /api/sync/runs[?limit=N]
func (h *SyncHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("limitは正の整数で指定してください"))
			return
		}
		limit = min(n, maxRunLimit)
	}

	runs, err := h.runs.ListRecent(r.Context(), limit)
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	if runs == nil {
		runs = []*model.SyncRun{}
	}
	middleware.WriteJSON(w, http.StatusOK, runs)
}
