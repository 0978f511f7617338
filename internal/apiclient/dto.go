package apiclient

// LoginRequest は POST /auth/login のリクエスト。
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse は POST /auth/login のレスポンス。
type LoginResponse struct {
	Token string `json:"token"`
}

// RegisterRequest は POST /auth/register のリクエスト。
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterResponse は POST /auth/register のレスポンス。
type RegisterResponse struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token"`
}

// UserInfoResponse は GET /me のレスポンス。
type UserInfoResponse struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CategoryAPI はカテゴリのワイヤー表現。
type CategoryAPI struct {
	ID          int64   `json:"id"`
	Slug        string  `json:"slug"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// CommonResponse は GET /common のレスポンス。
type CommonResponse struct {
	Categories []CategoryAPI `json:"categories"`
}

// OshiAPI は推しのワイヤー表現。
type OshiAPI struct {
	ID         int64    `json:"id"`
	Name       string   `json:"name"`
	Color      string   `json:"color"`
	URLs       []string `json:"urls"`
	Categories []string `json:"categories"`
}

// OshiListResponse は GET /me/oshis のレスポンス。
type OshiListResponse struct {
	Oshis []OshiAPI `json:"oshis"`
}

// OshiResponse は推し作成・更新のレスポンス。
type OshiResponse struct {
	Oshi OshiAPI `json:"oshi"`
}

// OshiRequest は推し作成・更新のリクエスト。
// URLsとCategoriesは空の場合nullを送る。
type OshiRequest struct {
	Name       string   `json:"name"`
	Color      string   `json:"color"`
	URLs       []string `json:"urls"`
	Categories []string `json:"categories"`
}

// OshiBasic はイベント詳細に含まれる推しの要約。
type OshiBasic struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// EventAPI はイベントのワイヤー表現。
// 時刻は文字列のまま受け取り、同期パイプラインで解釈する。
type EventAPI struct {
	ID                  int64        `json:"id"`
	Title               string       `json:"title"`
	Description         *string      `json:"description"`
	URL                 *string      `json:"url"`
	StartsAt            string       `json:"starts_at"`
	EndsAt              *string      `json:"ends_at"`
	HasAlarm            bool         `json:"has_alarm"`
	NotificationTiming  string       `json:"notification_timing"`
	HasNotificationSent bool         `json:"has_notification_sent"`
	Category            *CategoryAPI `json:"category"`
}

// EventDetailAPI は所属する推しを含むイベントのワイヤー表現。
type EventDetailAPI struct {
	EventAPI
	Oshi OshiBasic `json:"oshi"`
}

// OshiWithEvents は推しごとにまとめられたイベント一覧。
type OshiWithEvents struct {
	ID     int64      `json:"id"`
	Name   string     `json:"name"`
	Color  string     `json:"color"`
	Events []EventAPI `json:"events"`
}

// EventListResponse は GET /me/events のレスポンス。
type EventListResponse struct {
	Oshis []OshiWithEvents `json:"oshis"`
}

// EventDetailResponse は GET /me/events/{id} と作成のレスポンス。
type EventDetailResponse struct {
	Event EventDetailAPI `json:"event"`
}

// EventUpdateResponse は PUT /me/events/{id} のレスポンス。
type EventUpdateResponse struct {
	Event EventAPI `json:"event"`
}

// CreateEventData はイベント作成の本体。
type CreateEventData struct {
	OshiID             int64   `json:"oshi_id"`
	Title              string  `json:"title"`
	Description        *string `json:"description"`
	URL                *string `json:"url"`
	StartsAt           string  `json:"starts_at"`
	EndsAt             *string `json:"ends_at"`
	HasAlarm           bool    `json:"has_alarm"`
	NotificationTiming string  `json:"notification_timing"`
	CategoryID         *int64  `json:"category_id"`
}

// UpdateEventData はイベント更新の本体。
type UpdateEventData struct {
	Title              string  `json:"title"`
	Description        *string `json:"description"`
	URL                *string `json:"url"`
	StartsAt           string  `json:"starts_at"`
	EndsAt             *string `json:"ends_at"`
	HasAlarm           bool    `json:"has_alarm"`
	NotificationTiming string  `json:"notification_timing"`
	CategoryID         *int64  `json:"category_id"`
}

// CreateEventRequest は POST /me/events/new のリクエスト。
type CreateEventRequest struct {
	Event CreateEventData `json:"event"`
}

// UpdateEventRequest は PUT /me/events/{id} のリクエスト。
type UpdateEventRequest struct {
	Event UpdateEventData `json:"event"`
}
