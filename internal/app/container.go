package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/lovendar/internal/apiclient"
	"github.com/hitoshi/lovendar/internal/auth"
	"github.com/hitoshi/lovendar/internal/config"
	"github.com/hitoshi/lovendar/internal/database"
	"github.com/hitoshi/lovendar/internal/event"
	"github.com/hitoshi/lovendar/internal/handler"
	"github.com/hitoshi/lovendar/internal/metrics"
	"github.com/hitoshi/lovendar/internal/middleware"
	"github.com/hitoshi/lovendar/internal/model"
	"github.com/hitoshi/lovendar/internal/notification"
	"github.com/hitoshi/lovendar/internal/oshi"
	"github.com/hitoshi/lovendar/internal/repository"
	"github.com/hitoshi/lovendar/internal/settings"
	"github.com/hitoshi/lovendar/internal/syncrun"
	"github.com/hitoshi/lovendar/internal/validation"
	"github.com/hitoshi/lovendar/internal/worker/cleanup"
	"github.com/hitoshi/lovendar/internal/worker/refresh"
	"github.com/prometheus/client_golang/prometheus"
)

// Container は全コンポーネントを配線した結果を保持する。
type Container struct {
	Config   *config.Config
	Logger   *slog.Logger
	Store    repository.Store
	Registry *prometheus.Registry

	Session       *auth.Manager
	Auth          *auth.Service
	Settings      *settings.Service
	Categories    *apiclient.CommonClient
	Permissions   *notification.PermissionStore
	Notifications *notification.Scheduler
	Oshis         *oshi.Service
	Events        *event.Pipeline
	EventService  *event.Service
	Refresher     *refresh.Worker
	Cleanup       *cleanup.CleanupJob
}

// openStore は設定に応じたバックエンドのストアを開く。
func openStore(cfg *config.Config) (repository.Store, error) {
	switch cfg.StoreBackend {
	case config.StoreBackendMemory:
		return repository.NewMemoryStore(), nil
	case config.StoreBackendSQL:
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			return nil, fmt.Errorf("migration failed: %w", err)
		}
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return repository.NewSQLStore(db), nil
	default:
		return repository.OpenBadgerStore(cfg.StorePath)
	}
}

// newDeliverer はNOTIFY_WEBHOOK_URLが設定されていればWebhook、なければログに通知を届ける。
func newDeliverer(cfg *config.Config, logger *slog.Logger) notification.Deliverer {
	if cfg.NotifyWebhookURL == "" {
		return notification.NewLogDeliverer(logger)
	}
	return notification.NewWebhookDeliverer(&http.Client{Timeout: cfg.HTTPTimeout}, cfg.NotifyWebhookURL, logger)
}

// Build はストアを開き、全依存関係をワイヤリングする。
// セッションと設定は相互に参照するため、プロフィール取得と接続テストは生成後に注入する。
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 1. 端末ローカルの状態
	session := auth.NewManager(ctx, store.KV(), logger)
	settingsSvc := settings.NewService(ctx, store.KV(), cfg.APIEnvironment, cfg.APIBaseURL, logger)
	permissions := notification.NewPermissionStore(ctx, store.KV(), logger)

	// 2. バックエンドAPIクライアント
	client := apiclient.NewClient(&http.Client{Timeout: cfg.HTTPTimeout}, settingsSvc, session, logger, collector)
	authClient := apiclient.NewAuthClient(client)
	meClient := apiclient.NewMeClient(client)
	commonClient := apiclient.NewCommonClient(client)
	oshiClient := apiclient.NewOshiClient(client)
	eventClient := apiclient.NewEventClient(client)

	session.SetProfileFetcher(meClient)
	settingsSvc.SetPinger(commonClient)

	// 3. 通知
	center := notification.NewTimerCenter(permissions, newDeliverer(cfg, logger), collector, logger)
	scheduler := notification.NewScheduler(center, collector, logger)

	// 4. 同期とドメインサービス
	validator := validation.New()
	oshiSvc := oshi.NewService(
		oshiClient, session, validator,
		syncrun.NewTracker(model.SyncResourceOshis, store.SyncRuns(), collector, logger),
		logger,
	)
	pipeline := event.NewPipeline(
		eventClient, session, scheduler,
		syncrun.NewTracker(model.SyncResourceEvents, store.SyncRuns(), collector, logger),
		collector, logger,
	)
	eventSvc := event.NewService(eventClient, pipeline, scheduler, permissions, validator, logger)
	authSvc := auth.NewService(authClient, session, validator, logger)

	// 5. バックグラウンドジョブ
	refresher, err := refresh.NewWorker(cfg.SyncCron, oshiSvc, pipeline, logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	cleanupJob := cleanup.NewCleanupJob(store.SyncRuns(), cfg.SyncHistoryRetentionDays, logger)

	return &Container{
		Config:        cfg,
		Logger:        logger,
		Store:         store,
		Registry:      registry,
		Session:       session,
		Auth:          authSvc,
		Settings:      settingsSvc,
		Categories:    commonClient,
		Permissions:   permissions,
		Notifications: scheduler,
		Oshis:         oshiSvc,
		Events:        pipeline,
		EventService:  eventSvc,
		Refresher:     refresher,
		Cleanup:       cleanupJob,
	}, nil
}

// Router はループバックAPIのルーターを構成する。
func (c *Container) Router(rl *middleware.RateLimiter) http.Handler {
	return handler.NewRouter(&handler.RouterDeps{
		Logger:            c.Logger,
		Session:           c.Session,
		CORSAllowedOrigin: c.Config.CORSAllowedOrigin,
		RateLimiter:       rl,
		AuthService:       c.Auth,
		SessionReader:     c.Session,
		Refresher:         c.Refresher,
		OshiService:       c.Oshis,
		OshiSyncer:        c.Oshis,
		Events:            c.Events,
		EventSyncer:       c.Events,
		EventService:      c.EventService,
		SyncRuns:          c.Store.SyncRuns(),
		Categories:        c.Categories,
		SettingsService:   c.Settings,
		Notifications:     c.Notifications,
		Permissions:       c.Permissions,
		Stream:            handler.NewStreamHandler(c.Session, c.Settings, c.Events, c.Oshis, c.Logger),
		MetricsHandler:    metrics.Handler(c.Registry),
	})
}

// Close は登録済みの通知を取り消し、ストアを閉じる。
func (c *Container) Close() error {
	c.Notifications.CancelAll()
	return c.Store.Close()
}
