package middleware

import (
	"log/slog"
	"net/http"

	"github.com/hitoshi/lovendar/internal/model"
)

// NewOriginGuardMiddleware は状態変更リクエストのOriginヘッダーを検証するミドルウェアを返す。
// 安全なメソッド（GET, HEAD, OPTIONS）は検証しない。
// Originヘッダーがない場合はブラウザ以外のクライアントとして通す。
// Originが許可オリジンと異なる場合は403を返す。
func NewOriginGuardMiddleware(allowedOrigin string, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSafeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			origin := r.Header.Get("Origin")
			if origin != "" && origin != allowedOrigin {
				logger.Warn("許可されていないオリジンからのリクエストを拒否しました",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("origin", origin),
				)
				WriteErrorResponse(w, http.StatusForbidden, &model.APIError{
					Code:     "ORIGIN_NOT_ALLOWED",
					Message:  "許可されていないオリジンです",
					Category: "auth",
					Action:   "許可されたアプリから操作してください。",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// isSafeMethod はHTTPメソッドが安全（読み取り専用）かどうかを判定する。
func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}
