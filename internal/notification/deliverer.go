package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// Deliverer は発火した通知を利用者に届ける。
type Deliverer interface {
	Deliver(ctx context.Context, req Request) error
}

// LogDeliverer は通知をログに出力する。配信先が設定されていない場合に使う。
type LogDeliverer struct {
	logger *slog.Logger
}

// NewLogDeliverer はLogDelivererを生成する。
func NewLogDeliverer(logger *slog.Logger) *LogDeliverer {
	return &LogDeliverer{logger: logger}
}

// Deliver はDelivererを実装する。
func (d *LogDeliverer) Deliver(ctx context.Context, req Request) error {
	d.logger.Info("通知を配信しました",
		slog.String("identifier", req.Identifier),
		slog.String("title", req.Title),
		slog.String("subtitle", req.Subtitle),
		slog.String("body", req.Body),
	)
	return nil
}

// WebhookDeliverer は通知をJSONでWebhookにPOSTする。
type WebhookDeliverer struct {
	httpClient *http.Client
	endpoint   string
	logger     *slog.Logger
}

// NewWebhookDeliverer はWebhookDelivererを生成する。
func NewWebhookDeliverer(httpClient *http.Client, endpoint string, logger *slog.Logger) *WebhookDeliverer {
	return &WebhookDeliverer{
		httpClient: httpClient,
		endpoint:   endpoint,
		logger:     logger,
	}
}

// Deliver はDelivererを実装する。2xx以外の応答はエラーとする。
func (d *WebhookDeliverer) Deliver(ctx context.Context, req Request) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("通知のエンコードに失敗しました: %w", err)
	}

	// HTTPリクエスト作成
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", "Lovendar/1.0")

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		d.logger.Error("通知Webhookの呼び出しに失敗しました",
			slog.String("identifier", req.Identifier),
			slog.String("error", err.Error()),
		)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		d.logger.Error("通知Webhookがエラーステータスを返しました",
			slog.String("identifier", req.Identifier),
			slog.Int("http_status", resp.StatusCode),
		)
		return fmt.Errorf("通知Webhookがステータス %d を返しました", resp.StatusCode)
	}
	return nil
}
