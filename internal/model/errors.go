package model

import (
	"errors"
	"fmt"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, network, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation       = "VALIDATION_FAILED"
	ErrCodeNotAuthenticated = "NOT_AUTHENTICATED"
	ErrCodeEventNotFound    = "EVENT_NOT_FOUND"
	ErrCodeOshiNotFound     = "OSHI_NOT_FOUND"
	ErrCodeOshiNotSynced    = "OSHI_NOT_SYNCED"
	ErrCodeInvalidDate      = "INVALID_DATE"
	ErrCodeInvalidSetting   = "INVALID_SETTING"
	ErrCodeBackend          = "BACKEND_ERROR"
)

// NewValidationError は入力検証エラーを生成する。
func NewValidationError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  message,
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewNotAuthenticatedError は未ログインエラーを生成する。
func NewNotAuthenticatedError() *APIError {
	return &APIError{
		Code:     ErrCodeNotAuthenticated,
		Message:  "認証が必要です",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewEventNotFoundError はイベント未検出エラーを生成する。
func NewEventNotFoundError(eventID string) *APIError {
	return &APIError{
		Code:     ErrCodeEventNotFound,
		Message:  fmt.Sprintf("指定されたイベントが見つかりません: %s", eventID),
		Category: "validation",
		Action:   "イベント一覧を更新してから再度お試しください。",
	}
}

// NewOshiNotFoundError は推し未検出エラーを生成する。
func NewOshiNotFoundError(oshiID string) *APIError {
	return &APIError{
		Code:     ErrCodeOshiNotFound,
		Message:  fmt.Sprintf("指定された推しが見つかりません: %s", oshiID),
		Category: "validation",
		Action:   "推し一覧を更新してから再度お試しください。",
	}
}

// NewOshiNotSyncedError はサーバーIDを持たない推しを編集しようとした場合のエラーを生成する。
func NewOshiNotSyncedError() *APIError {
	return &APIError{
		Code:     ErrCodeOshiNotSynced,
		Message:  "推しIDが見つかりません",
		Category: "validation",
		Action:   "推し一覧を更新してから再度お試しください。",
	}
}

// NewInvalidDateError は日付パラメータが不正な場合のエラーを生成する。
func NewInvalidDateError(value, layout string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDate,
		Message:  fmt.Sprintf("無効な日付です: %s", value),
		Category: "validation",
		Action:   fmt.Sprintf("%s 形式で指定してください。", layout),
	}
}

// NewInvalidSettingError は設定値が不正な場合のエラーを生成する。
func NewInvalidSettingError(name, value string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidSetting,
		Message:  fmt.Sprintf("無効な設定値です: %s=%s", name, value),
		Category: "validation",
		Action:   "選択肢の中から指定してください。",
	}
}

// NewBackendError はバックエンド通信エラーをAPIErrorに変換する。
func NewBackendError(err *NetworkError) *APIError {
	action := "しばらく待ってから再度お試しください。"
	switch err.Kind {
	case NetworkErrorUnauthorized:
		action = "ログインし直してください。"
	case NetworkErrorBadRequest:
		action = "入力内容を確認してください。"
	case NetworkErrorInvalidURL:
		action = "接続先の環境設定を確認してください。"
	}
	return &APIError{
		Code:     ErrCodeBackend,
		Message:  err.UserMessage(),
		Category: "network",
		Action:   action,
	}
}

// AsAPIError はエラーをAPIErrorとして解釈する。
// NetworkErrorはNewBackendErrorで変換する。どちらでもない場合はfalseを返す。
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return NewBackendError(netErr), true
	}
	return nil, false
}
