// Package apiclient はLovendarバックエンドのHTTPクライアントとリソースごとのクライアントを提供する。
// 全ての失敗はmodel.NetworkErrorの閉じた分類で返す。
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/hitoshi/lovendar/internal/metrics"
	"github.com/hitoshi/lovendar/internal/model"
)

// BaseURLProvider は現在のAPIベースURLを返す。
// 環境切り替えに追従するため、リクエストごとに参照する。
type BaseURLProvider interface {
	BaseURL() string
}

// TokenSource は認証トークンを返す。未ログインの場合はfalseを返す。
type TokenSource interface {
	Token() (string, bool)
}

// StaticBaseURL は固定のベースURL。
type StaticBaseURL string

// BaseURL はBaseURLProviderを実装する。
func (s StaticBaseURL) BaseURL() string { return string(s) }

// Request は1回のAPI呼び出しの内容。
type Request struct {
	Method       string
	Endpoint     string // ベースURLからの相対パス（例: "/me/events"）
	Body         any    // nilの場合はボディなし
	RequiresAuth bool
}

// errorResponse は4xx応答のエラーエンベロープ。
type errorResponse struct {
	Error string `json:"error"`
}

// Client はバックエンドAPIのHTTPクライアント。
// リトライや重複排除は行わず、1回の呼び出しは1往復で完結する。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    BaseURLProvider
	tokens     TokenSource
	metrics    metrics.MetricsCollector
}

// NewClient はClientの新しいインスタンスを生成する。
// metricsCollectorはnilでもよい。
func NewClient(httpClient *http.Client, baseURL BaseURLProvider, tokens TokenSource, logger *slog.Logger, metricsCollector metrics.MetricsCollector) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    baseURL,
		tokens:     tokens,
		metrics:    metricsCollector,
	}
}

// Do はリクエストを送信し、2xx応答のJSONをTにデコードして返す。
// ctxがキャンセルされた場合はNetworkErrorではなくctxのエラーを返す。
func Do[T any](ctx context.Context, c *Client, req Request) (T, error) {
	var zero T

	body, err := c.send(ctx, req)
	if err != nil {
		return zero, err
	}

	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		c.logger.Warn("レスポンスのデコードに失敗しました",
			slog.String("endpoint", req.Endpoint),
			slog.String("target_type", fmt.Sprintf("%T", out)),
			slog.String("error", err.Error()),
		)
		return zero, &model.NetworkError{Kind: model.NetworkErrorDecodingError}
	}
	return out, nil
}

// Probe はリクエストを送信し、2xx応答であればnilを返す。ボディはデコードしない。
func (c *Client) Probe(ctx context.Context, req Request) error {
	_, err := c.send(ctx, req)
	return err
}

// send はリクエストを送信し、2xx応答のボディを返す。
// それ以外のステータスはNetworkErrorに変換する。
func (c *Client) send(ctx context.Context, req Request) ([]byte, error) {
	reqURL, err := c.buildURL(req.Endpoint)
	if err != nil {
		c.logger.Warn("APIのURLが不正です",
			slog.String("endpoint", req.Endpoint),
			slog.String("error", err.Error()),
		)
		return nil, &model.NetworkError{Kind: model.NetworkErrorInvalidURL}
	}

	var token string
	if req.RequiresAuth {
		var t string
		var ok bool
		if c.tokens != nil {
			t, ok = c.tokens.Token()
		}
		if !ok || t == "" {
			return nil, &model.NetworkError{Kind: model.NetworkErrorUnauthorized}
		}
		token = t
	}

	var reader io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			c.logger.Error("リクエストボディのエンコードに失敗しました",
				slog.String("endpoint", req.Endpoint),
				slog.String("error", err.Error()),
			)
			return nil, &model.NetworkError{Kind: model.NetworkErrorUnknown}
		}
		reader = bytes.NewReader(payload)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, &model.NetworkError{Kind: model.NetworkErrorInvalidURL}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.Warn("APIリクエストの送信に失敗しました",
			slog.String("method", method),
			slog.String("url", reqURL),
			slog.String("error", err.Error()),
		)
		return nil, &model.NetworkError{Kind: model.NetworkErrorInvalidResponse}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &model.NetworkError{Kind: model.NetworkErrorInvalidResponse}
	}
	duration := time.Since(start)

	if c.metrics != nil {
		c.metrics.RecordHTTPStatus(resp.StatusCode)
		c.metrics.RecordRequestLatency(duration)
	}

	level := slog.LevelDebug
	if resp.StatusCode >= 400 {
		level = slog.LevelWarn
	}
	c.logger.Log(ctx, level, "APIリクエスト完了",
		slog.String("method", method),
		slog.String("url", reqURL),
		slog.Int("http_status", resp.StatusCode),
		slog.Int("bytes", len(body)),
		slog.Int64("duration_ms", duration.Milliseconds()),
	)

	if err := statusError(resp.StatusCode, body); err != nil {
		return nil, err
	}
	return body, nil
}

// buildURL はベースURLとエンドポイントを連結し、絶対URLであることを検証する。
func (c *Client) buildURL(endpoint string) (string, error) {
	raw := c.baseURL.BaseURL() + endpoint
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", errors.New("base url must be absolute")
	}
	return u.String(), nil
}

// statusError はHTTPステータスコードをNetworkErrorに変換する。2xxの場合はnilを返す。
func statusError(status int, body []byte) error {
	switch {
	case status >= 200 && status <= 299:
		return nil
	case status == http.StatusBadRequest:
		var env errorResponse
		if err := json.Unmarshal(body, &env); err == nil && env.Error != "" {
			return model.NewBadRequestError(env.Error)
		}
		return model.NewBadRequestError("")
	case status == http.StatusUnauthorized:
		return &model.NetworkError{Kind: model.NetworkErrorUnauthorized}
	case status == http.StatusForbidden:
		return &model.NetworkError{Kind: model.NetworkErrorForbidden}
	case status == http.StatusNotFound:
		return &model.NetworkError{Kind: model.NetworkErrorNotFound}
	case status == http.StatusConflict:
		// サーバーのメッセージは保持しない
		return model.NewConflictError()
	case status >= 500 && status <= 599:
		return &model.NetworkError{Kind: model.NetworkErrorServerError}
	default:
		return &model.NetworkError{Kind: model.NetworkErrorUnknown}
	}
}
