package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/lovendar/internal/auth"
	"github.com/hitoshi/lovendar/internal/middleware"
	"github.com/hitoshi/lovendar/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Login(ctx context.Context, form auth.LoginForm) (model.Session, error)
	Register(ctx context.Context, form auth.RegisterForm) (model.Session, error)
	Logout(ctx context.Context)
}

// SessionReader は現在のセッションを返す。
type SessionReader interface {
	Session() model.Session
}

// Refresher は推しとイベントの一覧を同期し直す。
type Refresher interface {
	RunOnce(ctx context.Context)
}

// NotificationCanceller は登録済みの通知を全て取り消す。
type NotificationCanceller interface {
	CancelAll()
}

// AuthHandler はログイン・新規登録・ログアウトのHTTPハンドラー。
type AuthHandler struct {
	service       AuthServiceInterface
	session       SessionReader
	refresher     Refresher
	notifications NotificationCanceller
	logger        *slog.Logger
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(
	service AuthServiceInterface,
	session SessionReader,
	refresher Refresher,
	notifications NotificationCanceller,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		service:       service,
		session:       session,
		refresher:     refresher,
		notifications: notifications,
		logger:        logger,
	}
}

// sessionResponse はログイン状態のAPIレスポンス。トークンは含めない。
type sessionResponse struct {
	Authenticated bool        `json:"authenticated"`
	User          *model.User `json:"user"`
}

func toSessionResponse(s model.Session) sessionResponse {
	return sessionResponse{Authenticated: s.IsAuthenticated(), User: s.User}
}

// Login はメールアドレスとパスワードでログインし、一覧を同期する。
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var form auth.LoginForm
	if !decodeJSON(w, r, &form) {
		return
	}

	session, err := h.service.Login(r.Context(), form)
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	h.refresher.RunOnce(r.Context())

	middleware.WriteJSON(w, http.StatusOK, toSessionResponse(session))
}

// Register は新規登録してログイン状態にする。
// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var form auth.RegisterForm
	if !decodeJSON(w, r, &form) {
		return
	}

	session, err := h.service.Register(r.Context(), form)
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	h.refresher.RunOnce(r.Context())

	middleware.WriteJSON(w, http.StatusCreated, toSessionResponse(session))
}

// Logout はログアウトし、通知を全て取り消して空の一覧を公開する。
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.service.Logout(r.Context())
	h.notifications.CancelAll()
	h.refresher.RunOnce(r.Context())

	w.WriteHeader(http.StatusNoContent)
}

// Me は現在のログインユーザーを返す。
// GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session := h.session.Session()
	if !session.IsAuthenticated() {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewNotAuthenticatedError())
		return
	}
	middleware.WriteJSON(w, http.StatusOK, toSessionResponse(session))
}
