package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/lovendar/internal/event"
	"github.com/hitoshi/lovendar/internal/model"
	"github.com/hitoshi/lovendar/internal/oshi"
)

const (
	streamHeartbeatInterval = 30 * time.Second
	streamWriteTimeout      = 60 * time.Second
)

// SessionStream はログイン状態の変更を購読する。
type SessionStream interface {
	Subscribe() (<-chan model.Session, func())
}

// SettingsStream は設定の変更を購読する。
type SettingsStream interface {
	Subscribe() (<-chan model.Settings, func())
}

// EventStream は公開中のイベント一覧の変更を購読する。
type EventStream interface {
	Subscribe() (<-chan event.Snapshot, func())
}

// OshiStream は公開中の推し一覧の変更を購読する。
type OshiStream interface {
	Subscribe() (<-chan oshi.Snapshot, func())
}

// StreamHandler は公開中の状態の変更をServer-Sent Eventsで配信する。
// 接続直後に各状態の現在値を送り、以降は変更のたびに最新値を送る。
type StreamHandler struct {
	session  SessionStream
	settings SettingsStream
	events   EventStream
	oshis    OshiStream
	logger   *slog.Logger
}

// NewStreamHandler はStreamHandlerを生成する。
func NewStreamHandler(session SessionStream, settings SettingsStream, events EventStream, oshis OshiStream, logger *slog.Logger) *StreamHandler {
	return &StreamHandler{
		session:  session,
		settings: settings,
		events:   events,
		oshis:    oshis,
		logger:   logger,
	}
}

// ServeHTTP はSSE接続を処理する。
// GET /api/stream
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if ctx.Err() != nil {
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		h.logger.Error("ストリームを開始できませんでした", slog.String("error", err.Error()))
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	sessions, stopSession := h.session.Subscribe()
	defer stopSession()
	settings, stopSettings := h.settings.Subscribe()
	defer stopSettings()
	events, stopEvents := h.events.Subscribe()
	defer stopEvents()
	oshis, stopOshis := h.oshis.Subscribe()
	defer stopOshis()

	h.logger.Debug("ストリームに接続しました", slog.String("remote_addr", r.RemoteAddr))

	heartbeat := time.NewTicker(streamHeartbeatInterval)
	defer heartbeat.Stop()

	for {
		var (
			name string
			data any
		)
		select {
		case s, ok := <-sessions:
			if !ok {
				return
			}
			name, data = "session", toSessionResponse(s)
		case s, ok := <-settings:
			if !ok {
				return
			}
			name, data = "settings", s
		case s, ok := <-events:
			if !ok {
				return
			}
			name, data = "events", s
		case s, ok := <-oshis:
			if !ok {
				return
			}
			name, data = "oshis", s
		case <-heartbeat.C:
			name, data = "heartbeat", map[string]string{"status": "ok"}
		case <-ctx.Done():
			h.logger.Debug("ストリームから切断しました", slog.String("remote_addr", r.RemoteAddr))
			return
		}

		if err := h.send(w, rc, name, data); err != nil {
			h.logger.Debug("ストリームへの送信に失敗しました",
				slog.String("event", name),
				slog.String("error", err.Error()),
			)
			return
		}
	}
}

// send はSSEの1イベントを書き込んでフラッシュする。
func (h *StreamHandler) send(w http.ResponseWriter, rc *http.ResponseController, name string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, payload); err != nil {
		return err
	}
	if err := rc.Flush(); err != nil {
		return err
	}
	// 書き込みごとに期限を延ばす。未対応のResponseWriterでは無視する。
	_ = rc.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	return nil
}
