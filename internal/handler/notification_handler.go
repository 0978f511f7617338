package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/lovendar/internal/middleware"
	"github.com/hitoshi/lovendar/internal/model"
	"github.com/hitoshi/lovendar/internal/notification"
)

// NotificationSchedulerInterface は通知ハンドラーが必要とするスケジューラのインターフェース。
type NotificationSchedulerInterface interface {
	ScheduleNotifications(ctx context.Context, events []model.Event)
	CancelAll()
	Pending() []notification.Request
}

// PermissionInterface は通知許可の状態を管理する。
type PermissionInterface interface {
	Status() model.AuthorizationStatus
	RequestAuthorization(ctx context.Context, granted bool) (model.AuthorizationStatus, error)
}

// NotificationHandler は通知のHTTPハンドラー。
type NotificationHandler struct {
	scheduler   NotificationSchedulerInterface
	permissions PermissionInterface
	events      EventListInterface
	logger      *slog.Logger
}

// NewNotificationHandler はNotificationHandlerを生成する。
func NewNotificationHandler(
	scheduler NotificationSchedulerInterface,
	permissions PermissionInterface,
	events EventListInterface,
	logger *slog.Logger,
) *NotificationHandler {
	return &NotificationHandler{
		scheduler:   scheduler,
		permissions: permissions,
		events:      events,
		logger:      logger,
	}
}

type notificationsResponse struct {
	AuthorizationStatus model.AuthorizationStatus `json:"authorization_status"`
	Pending             []notification.Request    `json:"pending"`
}

type permissionRequest struct {
	Granted bool `json:"granted"`
}

// ListNotifications は通知許可の状態と登録済みの通知を返す。
// GET /api/notifications
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	pending := h.scheduler.Pending()
	if pending == nil {
		pending = []notification.Request{}
	}
	middleware.WriteJSON(w, http.StatusOK, notificationsResponse{
		AuthorizationStatus: h.permissions.Status(),
		Pending:             pending,
	})
}

// UpdatePermission は通知許可ダイアログの回答を記録する。
// 許可された場合は公開中のイベントの通知を登録し、拒否された場合は全て取り消す。
// PUT /api/notifications/permission
func (h *NotificationHandler) UpdatePermission(w http.ResponseWriter, r *http.Request) {
	var req permissionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	status, err := h.permissions.RequestAuthorization(r.Context(), req.Granted)
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}

	if status == model.AuthorizationAuthorized {
		h.scheduler.ScheduleNotifications(r.Context(), h.events.Snapshot().Events)
	} else {
		h.scheduler.CancelAll()
	}

	pending := h.scheduler.Pending()
	if pending == nil {
		pending = []notification.Request{}
	}
	middleware.WriteJSON(w, http.StatusOK, notificationsResponse{
		AuthorizationStatus: status,
		Pending:             pending,
	})
}
