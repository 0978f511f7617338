package handler

import (
	"bytes"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/lovendar/internal/export"
	"github.com/hitoshi/lovendar/internal/middleware"
	"github.com/hitoshi/lovendar/internal/oshi"
)

// OshiListInterface は公開中の推し一覧を返す。
type OshiListInterface interface {
	Snapshot() oshi.Snapshot
}

// ExportHandler はiCalendarエクスポートのHTTPハンドラー。
type ExportHandler struct {
	events EventListInterface
	oshis  OshiListInterface
	logger *slog.Logger
	now    func() time.Time
}

// NewExportHandler はExportHandlerを生成する。
func NewExportHandler(events EventListInterface, oshis OshiListInterface, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		events: events,
		oshis:  oshis,
		logger: logger,
		now:    time.Now,
	}
}

// ExportICS は公開中のイベントをiCalendarファイルとして返す。
// GET /api/export.ics
func (h *ExportHandler) ExportICS(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	err := export.WriteICS(&buf, h.events.Snapshot().Events, h.oshis.Snapshot().Oshis, h.events.Location(), h.now())
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="lovendar.ics"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
