package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/lovendar/internal/calendar"
	"github.com/hitoshi/lovendar/internal/event"
	"github.com/hitoshi/lovendar/internal/middleware"
	"github.com/hitoshi/lovendar/internal/model"
)

// EventListInterface は公開中のイベント一覧を返す。
type EventListInterface interface {
	Snapshot() event.Snapshot
	EventsForDate(date time.Time) []model.Event
	Location() *time.Location
}

// EventServiceInterface はイベントハンドラーが必要とするサービスインターフェース。
type EventServiceInterface interface {
	Create(ctx context.Context, form event.Form) (model.Event, error)
	Update(ctx context.Context, serverID int64, form event.Form) (model.Event, error)
	Detail(ctx context.Context, serverID int64) (model.Event, error)
}

// EventHandler はイベントのHTTPハンドラー。
type EventHandler struct {
	events  EventListInterface
	service EventServiceInterface
	logger  *slog.Logger
}

// NewEventHandler はEventHandlerを生成する。
func NewEventHandler(events EventListInterface, service EventServiceInterface, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		events:  events,
		service: service,
		logger:  logger,
	}
}

// ListEvents は公開中のイベント一覧を返す。
// dateを指定した場合はその日のイベントだけを返す。
// GET /api/events[?date=YYYY-MM-DD]
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	snap := h.events.Snapshot()

	if v := r.URL.Query().Get("date"); v != "" {
		date, err := time.ParseInLocation(calendar.DateLayout, v, h.events.Location())
		if err != nil {
			middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidDateError(v, calendar.DateLayout))
			return
		}
		snap.Events = h.events.EventsForDate(date)
	}

	middleware.WriteJSON(w, http.StatusOK, snap)
}

// GetEvent はイベント詳細をサーバーから取得する。
// GET /api/events/{id}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := serverIDParam(r)
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewEventNotFoundError(chi.URLParam(r, "id")))
		return
	}

	ev, err := h.service.Detail(r.Context(), id)
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, ev)
}

// CreateEvent はイベントを作成する。
// POST /api/events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var form event.Form
	if !decodeJSON(w, r, &form) {
		return
	}

	ev, err := h.service.Create(r.Context(), form)
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, ev)
}

// UpdateEvent はイベントを更新する。
// PUT /api/events/{id}
func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := serverIDParam(r)
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewEventNotFoundError(chi.URLParam(r, "id")))
		return
	}

	var form event.Form
	if !decodeJSON(w, r, &form) {
		return
	}

	ev, err := h.service.Update(r.Context(), id, form)
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, ev)
}
