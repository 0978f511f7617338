package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/lovendar/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Logger *slog.Logger

	// ミドルウェア依存
	Session           middleware.SessionChecker
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// 認証
	AuthService   AuthServiceInterface
	SessionReader SessionReader
	Refresher     Refresher

	// 推し・イベント
	OshiService  OshiServiceInterface
	OshiSyncer   OshiSyncer
	Events       EventListInterface
	EventSyncer  EventSyncer
	EventService EventServiceInterface
	SyncRuns     SyncRunLister

	// 共通・設定
	Categories      CategoryFetcher
	SettingsService SettingsServiceInterface

	// 通知
	Notifications NotificationSchedulerInterface
	Permissions   PermissionInterface

	// GET /api/stream。nilの場合は公開しない。
	Stream http.Handler

	// GET /metrics。nilの場合は公開しない。
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → SecurityHeaders → CORS → OriginGuard → RateLimit → Session
//
// ログイン前に使う認証・設定・カテゴリのルートはSessionMiddlewareの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware(deps.Logger))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewOriginGuardMiddleware(deps.CORSAllowedOrigin, deps.Logger))

	authHandler := NewAuthHandler(deps.AuthService, deps.SessionReader, deps.Refresher, deps.Notifications, deps.Logger)
	oshiHandler := NewOshiHandler(deps.OshiService, deps.Logger)
	eventHandler := NewEventHandler(deps.Events, deps.EventService, deps.Logger)
	syncHandler := NewSyncHandler(deps.OshiSyncer, deps.EventSyncer, deps.SyncRuns, deps.Logger)
	commonHandler := NewCommonHandler(deps.Categories, deps.Logger)
	calendarHandler := NewCalendarHandler(deps.Events, deps.SettingsService)
	settingsHandler := NewSettingsHandler(deps.SettingsService, deps.Logger)
	notificationHandler := NewNotificationHandler(deps.Notifications, deps.Permissions, deps.Events, deps.Logger)
	exportHandler := NewExportHandler(deps.Events, deps.OshiService, deps.Logger)

	r.Get("/health", Health)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// --- ログイン不要のルート ---

		r.Route("/auth", func(r chi.Router) {
			r.With(deps.RateLimiter.AuthMiddleware()).Post("/login", authHandler.Login)
			r.With(deps.RateLimiter.AuthMiddleware()).Post("/register", authHandler.Register)
			r.Post("/logout", authHandler.Logout)
			r.Get("/me", authHandler.Me)
		})

		r.Get("/categories", commonHandler.ListCategories)

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", settingsHandler.GetSettings)
			r.Put("/", settingsHandler.UpdateSettings)
			r.Put("/environment", settingsHandler.SwitchEnvironment)
			r.Post("/onboarding", settingsHandler.CompleteOnboarding)
		})

		if deps.Stream != nil {
			r.Method(http.MethodGet, "/stream", deps.Stream)
		}

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", notificationHandler.ListNotifications)
			r.Put("/permission", notificationHandler.UpdatePermission)
		})

		// --- ログインが必要なルート ---
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewSessionMiddleware(deps.Session))

			r.Route("/events", func(r chi.Router) {
				r.Get("/", eventHandler.ListEvents)
				r.Post("/", eventHandler.CreateEvent)
				r.Get("/{id}", eventHandler.GetEvent)
				r.Put("/{id}", eventHandler.UpdateEvent)
			})

			r.Route("/oshis", func(r chi.Router) {
				r.Get("/", oshiHandler.ListOshis)
				r.Post("/", oshiHandler.CreateOshi)
				r.Put("/{id}", oshiHandler.UpdateOshi)
				r.Delete("/{id}", oshiHandler.DeleteOshi)
			})

			r.Post("/sync", syncHandler.Sync)
			r.Get("/sync/runs", syncHandler.ListRuns)
			r.Get("/calendar", calendarHandler.GetMonth)
			r.Get("/export.ics", exportHandler.ExportICS)
		})
	})

	return r
}

// Health は死活監視用のエンドポイント。
// GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
