package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hitoshi/lovendar/internal/config"
	"github.com/hitoshi/lovendar/internal/database"
	"github.com/hitoshi/lovendar/internal/export"
	"github.com/hitoshi/lovendar/internal/logger"
	"github.com/hitoshi/lovendar/internal/middleware"
)

// cleanupInterval は同期履歴クリーンアップの実行間隔。
const cleanupInterval = 24 * time.Hour

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// 設定読み込み後はLOG_LEVELのレベルでロガーを作り直す。
func Init(w io.Writer) (*config.Config, *slog.Logger, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, logger.SetupDefault(w, cfg.LogLevel), nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8787"
		}
		return runHealthcheck(port)
	}

	cfg, log, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	log.Info("アプリケーションを起動します",
		slog.String("command", string(cmd)),
		slog.String("environment", string(cfg.APIEnvironment)),
		slog.String("store_backend", cfg.StoreBackend),
	)

	switch cmd {
	case CommandSync:
		return runSync(cfg, log)
	case CommandMigrate:
		return runMigrate(cfg, log)
	case CommandExport:
		return runExport(cfg, log, exportPath(args))
	default:
		return runServe(cfg, log)
	}
}

// runServe はループバックAPIサーバーと定期同期を起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config, log *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	c, err := Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer c.Close()

	rl := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig(cfg.RateLimitPerMinute), log)
	defer rl.Stop()

	server := &http.Server{
		Addr:         "127.0.0.1:" + cfg.ServerPort,
		Handler:      c.Router(rl),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout(cfg.HTTPTimeout),
		IdleTimeout:  60 * time.Second,
	}

	go c.Refresher.Start(ctx)
	go c.Cleanup.Start(ctx, cleanupInterval)

	serveErr := make(chan error, 1)
	go func() {
		log.Info("APIサーバーを起動しました", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		return fmt.Errorf("server listen error: %w", err)
	}
	log.Info("APIサーバーを停止します")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("APIサーバーを停止しました")
	return nil
}

// runSync は推しとイベントを1回だけ同期して終了する。
func runSync(cfg *config.Config, log *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	c, err := Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer c.Close()

	c.Refresher.RunOnce(ctx)
	return nil
}

// runExport は同期後に公開中のイベントをiCalendarファイルへ書き出す。
func runExport(cfg *config.Config, log *slog.Logger, path string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	c, err := Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer c.Close()

	c.Refresher.RunOnce(ctx)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	events := c.Events.Snapshot().Events
	if err := export.WriteICS(f, events, c.Oshis.Snapshot().Oshis, c.Events.Location(), time.Now()); err != nil {
		return err
	}

	log.Info("イベントを書き出しました",
		slog.String("path", path),
		slog.Int("event_count", len(events)),
	)
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// SQLバックエンド以外ではマイグレーション対象がないため何もしない。
func runMigrate(cfg *config.Config, log *slog.Logger) error {
	if cfg.StoreBackend != config.StoreBackendSQL {
		log.Info("SQLバックエンドではないためマイグレーションをスキップしました",
			slog.String("store_backend", cfg.StoreBackend),
		)
		return nil
	}

	log.Info("マイグレーションを実行します",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	log.Info("マイグレーションが完了しました")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://127.0.0.1:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}

// writeTimeout は応答の書き込み期限を返す。
// 上流への通信に期限がない場合は、応答にも期限を設けない。
func writeTimeout(upstream time.Duration) time.Duration {
	if upstream <= 0 {
		return 0
	}
	return 2*upstream + 15*time.Second
}
