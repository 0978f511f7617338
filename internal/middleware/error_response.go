package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/lovendar/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// 原因カテゴリと対処方法を含む。
type ErrorResponseBody struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// WriteJSON はJSONレスポンスを書き込む。
func WriteJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
// すべてのAPIエンドポイントで一貫したエラーレスポンスを提供する。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	WriteJSON(w, statusCode, ErrorResponseBody{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// WriteError はエラーの種類に応じたステータスコードで統一エラーレスポンスを書き込む。
// APIErrorとNetworkError以外のエラーは内部エラーとして扱い、詳細はログにのみ記録する。
func WriteError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		WriteErrorResponse(w, statusForAPIError(apiErr), apiErr)
		return
	}

	var netErr *model.NetworkError
	if errors.As(err, &netErr) {
		WriteErrorResponse(w, statusForNetworkError(netErr), model.NewBackendError(netErr))
		return
	}

	logger.Error("リクエストの処理に失敗しました", slog.String("error", err.Error()))
	WriteInternalServerError(w)
}

func statusForAPIError(e *model.APIError) int {
	switch e.Code {
	case model.ErrCodeNotAuthenticated:
		return http.StatusUnauthorized
	case model.ErrCodeEventNotFound, model.ErrCodeOshiNotFound:
		return http.StatusNotFound
	case model.ErrCodeValidation, model.ErrCodeInvalidDate, model.ErrCodeInvalidSetting, model.ErrCodeOshiNotSynced:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// statusForNetworkError はバックエンドのエラーをローカルAPIのステータスに変換する。
// バックエンドの障害は502として返す。
func statusForNetworkError(e *model.NetworkError) int {
	switch e.Kind {
	case model.NetworkErrorUnauthorized:
		return http.StatusUnauthorized
	case model.NetworkErrorForbidden:
		return http.StatusForbidden
	case model.NetworkErrorNotFound:
		return http.StatusNotFound
	case model.NetworkErrorConflict:
		return http.StatusConflict
	case model.NetworkErrorBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}
