package model

// NetworkErrorKind はバックエンド通信エラーの種類を表す。
type NetworkErrorKind string

const (
	NetworkErrorInvalidURL      NetworkErrorKind = "invalid_url"
	NetworkErrorInvalidResponse NetworkErrorKind = "invalid_response"
	NetworkErrorUnauthorized    NetworkErrorKind = "unauthorized"
	NetworkErrorForbidden       NetworkErrorKind = "forbidden"
	NetworkErrorNotFound        NetworkErrorKind = "not_found"
	NetworkErrorConflict        NetworkErrorKind = "conflict"
	NetworkErrorBadRequest      NetworkErrorKind = "bad_request"
	NetworkErrorServerError     NetworkErrorKind = "server_error"
	NetworkErrorDecodingError   NetworkErrorKind = "decoding_error"
	NetworkErrorUnknown         NetworkErrorKind = "unknown"
)

// DefaultBadRequestMessage は400応答にエラーメッセージが含まれない場合の文言。
const DefaultBadRequestMessage = "リクエストが無効です"

// NetworkError はHTTPクライアントが返す閉じたエラー分類。
// MessageはBadRequestでのみ意味を持つ。Conflictのメッセージは破棄される。
type NetworkError struct {
	Kind    NetworkErrorKind
	Message string
}

// 種類ごとの比較用エラー。errors.Is で種類を判定できる。
var (
	ErrInvalidURL      = &NetworkError{Kind: NetworkErrorInvalidURL}
	ErrInvalidResponse = &NetworkError{Kind: NetworkErrorInvalidResponse}
	ErrUnauthorized    = &NetworkError{Kind: NetworkErrorUnauthorized}
	ErrForbidden       = &NetworkError{Kind: NetworkErrorForbidden}
	ErrNotFound        = &NetworkError{Kind: NetworkErrorNotFound}
	ErrConflict        = &NetworkError{Kind: NetworkErrorConflict}
	ErrBadRequest      = &NetworkError{Kind: NetworkErrorBadRequest}
	ErrServerError     = &NetworkError{Kind: NetworkErrorServerError}
	ErrDecodingError   = &NetworkError{Kind: NetworkErrorDecodingError}
	ErrUnknown         = &NetworkError{Kind: NetworkErrorUnknown}
)

// NewBadRequestError は400応答のエラーを生成する。
// メッセージが空の場合は既定の文言を使う。
func NewBadRequestError(message string) *NetworkError {
	if message == "" {
		message = DefaultBadRequestMessage
	}
	return &NetworkError{Kind: NetworkErrorBadRequest, Message: message}
}

// NewConflictError は409応答のエラーを生成する。サーバーのメッセージは保持しない。
func NewConflictError() *NetworkError {
	return &NetworkError{Kind: NetworkErrorConflict}
}

// Error はerrorインターフェースを実装する。
func (e *NetworkError) Error() string {
	if e.Message != "" {
		return "network error: " + string(e.Kind) + ": " + e.Message
	}
	return "network error: " + string(e.Kind)
}

// Is は種類が一致する場合にtrueを返す。
func (e *NetworkError) Is(target error) bool {
	t, ok := target.(*NetworkError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// UserMessage はユーザー向けに表示する文言を返す。
func (e *NetworkError) UserMessage() string {
	switch e.Kind {
	case NetworkErrorInvalidURL:
		return "無効なURLです"
	case NetworkErrorInvalidResponse:
		return "無効なレスポンスです"
	case NetworkErrorUnauthorized:
		return "認証が必要です"
	case NetworkErrorForbidden:
		return "アクセス権限がありません"
	case NetworkErrorNotFound:
		return "データが見つかりません"
	case NetworkErrorConflict:
		return "データが重複しています"
	case NetworkErrorBadRequest:
		if e.Message != "" {
			return e.Message
		}
		return DefaultBadRequestMessage
	case NetworkErrorServerError:
		return "サーバーエラーが発生しました"
	case NetworkErrorDecodingError:
		return "データの解析に失敗しました"
	default:
		return "不明なエラーが発生しました"
	}
}
