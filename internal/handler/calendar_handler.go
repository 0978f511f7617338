package handler

import (
	"net/http"
	"time"

	"github.com/hitoshi/lovendar/internal/calendar"
	"github.com/hitoshi/lovendar/internal/middleware"
	"github.com/hitoshi/lovendar/internal/model"
)

// SettingsReader は現在の設定を返す。
type SettingsReader interface {
	Get() model.Settings
}

// CalendarHandler は月表示のHTTPハンドラー。
type CalendarHandler struct {
	events   EventListInterface
	settings SettingsReader
	now      func() time.Time
}

// NewCalendarHandler はCalendarHandlerを生成する。
func NewCalendarHandler(events EventListInterface, settings SettingsReader) *CalendarHandler {
	return &CalendarHandler{
		events:   events,
		settings: settings,
		now:      time.Now,
	}
}

// GetMonth は週の開始曜日に揃えた月のグリッドと日ごとのイベント件数を返す。
// monthを省略した場合は今月。
// GET /api/calendar[?month=YYYY-MM]
func (h *CalendarHandler) GetMonth(w http.ResponseWriter, r *http.Request) {
	loc := h.events.Location()
	now := h.now()
	month := now.In(loc)

	if v := r.URL.Query().Get("month"); v != "" {
		parsed, err := time.ParseInLocation(calendar.MonthLayout, v, loc)
		if err != nil {
			middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidDateError(v, calendar.MonthLayout))
			return
		}
		month = parsed
	}

	m := calendar.BuildMonth(month, h.settings.Get().WeekStart, loc, now, h.events.Snapshot().Events)
	middleware.WriteJSON(w, http.StatusOK, m)
}
