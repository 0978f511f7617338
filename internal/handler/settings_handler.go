package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/lovendar/internal/middleware"
	"github.com/hitoshi/lovendar/internal/model"
	"github.com/hitoshi/lovendar/internal/settings"
)

// SettingsServiceInterface は設定ハンドラーが必要とするサービスインターフェース。
type SettingsServiceInterface interface {
	Get() model.Settings
	Update(ctx context.Context, p settings.Patch) (model.Settings, error)
	SwitchEnvironment(ctx context.Context, env model.APIEnvironment) (settings.ConnectionCheck, error)
	LastConnectionCheck() (settings.ConnectionCheck, bool)
	CompleteOnboarding(ctx context.Context, notificationsEnabled bool) (model.Settings, error)
}

// SettingsHandler は設定のHTTPハンドラー。
type SettingsHandler struct {
	service SettingsServiceInterface
	logger  *slog.Logger
}

// NewSettingsHandler はSettingsHandlerを生成する。
func NewSettingsHandler(service SettingsServiceInterface, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{service: service, logger: logger}
}

type settingsResponse struct {
	Settings            model.Settings            `json:"settings"`
	LastConnectionCheck *settings.ConnectionCheck `json:"last_connection_check"`
}

type environmentRequest struct {
	Environment model.APIEnvironment `json:"environment"`
}

type onboardingRequest struct {
	NotificationsEnabled bool `json:"notifications_enabled"`
}

// GetSettings は現在の設定と直近の接続テスト結果を返す。
// GET /api/settings
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	resp := settingsResponse{Settings: h.service.Get()}
	if check, ok := h.service.LastConnectionCheck(); ok {
		resp.LastConnectionCheck = &check
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}

// UpdateSettings は指定された項目だけを更新する。
// PUT /api/settings
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch settings.Patch
	if !decodeJSON(w, r, &patch) {
		return
	}

	updated, err := h.service.Update(r.Context(), patch)
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, updated)
}

// SwitchEnvironment は接続先環境を切り替え、接続テストの結果を返す。
// PUT /api/settings/environment
func (h *SettingsHandler) SwitchEnvironment(w http.ResponseWriter, r *http.Request) {
	var req environmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	check, err := h.service.SwitchEnvironment(r.Context(), req.Environment)
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, check)
}

// CompleteOnboarding は初回起動の案内を完了し、通知の希望を保存する。
// POST /api/settings/onboarding
func (h *SettingsHandler) CompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	var req onboardingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.service.CompleteOnboarding(r.Context(), req.NotificationsEnabled)
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, updated)
}
