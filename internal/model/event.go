// Package model はドメインモデルを定義する。
package model

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// EventType はイベントの種類を表す。
type EventType string

const (
	EventTypeGeneral       EventType = "general"
	EventTypeBirthday      EventType = "birthday"
	EventTypeDebut         EventType = "debut"
	EventTypeLive          EventType = "live"
	EventTypeRelease       EventType = "release"
	EventTypeBroadcast     EventType = "broadcast"
	EventTypeCollaboration EventType = "collaboration"
	EventTypeAnniversary   EventType = "anniversary"
)

// EventTypes は選択可能なイベント種類の一覧。
var EventTypes = []EventType{
	EventTypeGeneral,
	EventTypeBirthday,
	EventTypeDebut,
	EventTypeLive,
	EventTypeRelease,
	EventTypeBroadcast,
	EventTypeCollaboration,
	EventTypeAnniversary,
}

// DisplayName は通知のサブタイトルなどに使う表示名を返す。
func (t EventType) DisplayName() string {
	switch t {
	case EventTypeBirthday:
		return "誕生日"
	case EventTypeDebut:
		return "デビュー記念日"
	case EventTypeLive:
		return "ライブ"
	case EventTypeRelease:
		return "リリース"
	case EventTypeBroadcast:
		return "配信・放送"
	case EventTypeCollaboration:
		return "コラボ"
	case EventTypeAnniversary:
		return "記念日"
	default:
		return "一般"
	}
}

// IsValid は定義済みのイベント種類かを判定する。
func (t EventType) IsValid() bool {
	for _, v := range EventTypes {
		if v == t {
			return true
		}
	}
	return false
}

// NotificationTiming は開始何分前に通知するかを表す文字列トークン。
type NotificationTiming string

const (
	NotificationTiming60 NotificationTiming = "60"
	NotificationTiming45 NotificationTiming = "45"
	NotificationTiming30 NotificationTiming = "30"
	NotificationTiming15 NotificationTiming = "15"
	NotificationTiming10 NotificationTiming = "10"
	NotificationTiming5  NotificationTiming = "5"
)

// NotificationTimings は選択可能な通知タイミングの一覧。
var NotificationTimings = []NotificationTiming{
	NotificationTiming60,
	NotificationTiming45,
	NotificationTiming30,
	NotificationTiming15,
	NotificationTiming10,
	NotificationTiming5,
}

// DefaultNotificationTiming はフォーム初期値の通知タイミング。
const DefaultNotificationTiming = NotificationTiming15

// Minutes は通知タイミングを分数として返す。数値でない場合はfalseを返す。
func (n NotificationTiming) Minutes() (int, bool) {
	m, err := strconv.Atoi(string(n))
	if err != nil {
		return 0, false
	}
	return m, true
}

// IsValid は定義済みの通知タイミングかを判定する。
func (n NotificationTiming) IsValid() bool {
	for _, v := range NotificationTimings {
		if v == n {
			return true
		}
	}
	return false
}

// DisplayName は "15分前" 形式の表示名を返す。
func (n NotificationTiming) DisplayName() string {
	return string(n) + "分前"
}

// Event はカレンダー上のイベントを表す。
// 部分更新は行わず、常に丸ごと置き換える。
type Event struct {
	ID                 uuid.UUID          `json:"id"`
	ServerID           *int64             `json:"server_id,omitempty"`
	Title              string             `json:"title"`
	Description        string             `json:"description"`
	URL                string             `json:"url,omitempty"`
	Date               time.Time          `json:"date"`
	StartTime          time.Time          `json:"start_time"`
	EndTime            time.Time          `json:"end_time"`
	IsAllDay           bool               `json:"is_all_day"`
	OshiID             *int64             `json:"oshi_id,omitempty"`
	EventType          EventType          `json:"event_type"`
	HasAlarm           bool               `json:"has_alarm"`
	NotificationTiming NotificationTiming `json:"notification_timing"`
}

// EventInput はNewEventに渡すイベントの入力値。
// EndTimeがnilかつ終日でない場合、終了時刻は開始の1時間後になる。
type EventInput struct {
	ServerID           *int64
	Title              string
	Description        string
	URL                string
	Date               time.Time
	StartTime          *time.Time
	EndTime            *time.Time
	IsAllDay           bool
	OshiID             *int64
	EventType          EventType
	HasAlarm           bool
	NotificationTiming NotificationTiming
}

// NewEvent は入力値から新しいローカルIDを持つEventを生成する。
// 終日の場合は開始を日付の0時、終了を翌日0時に揃える。
func NewEvent(in EventInput) Event {
	ev := Event{
		ID:                 uuid.New(),
		ServerID:           in.ServerID,
		Title:              in.Title,
		Description:        in.Description,
		URL:                in.URL,
		Date:               in.Date,
		IsAllDay:           in.IsAllDay,
		OshiID:             in.OshiID,
		EventType:          in.EventType,
		HasAlarm:           in.HasAlarm,
		NotificationTiming: in.NotificationTiming,
	}
	if ev.EventType == "" {
		ev.EventType = EventTypeGeneral
	}
	if ev.NotificationTiming == "" {
		ev.NotificationTiming = DefaultNotificationTiming
	}

	if in.IsAllDay {
		ev.StartTime = StartOfDay(in.Date)
		ev.EndTime = ev.StartTime.AddDate(0, 0, 1)
		return ev
	}

	ev.StartTime = in.Date
	if in.StartTime != nil {
		ev.StartTime = *in.StartTime
	}
	if in.EndTime != nil {
		ev.EndTime = *in.EndTime
	} else {
		ev.EndTime = ev.StartTime.Add(time.Hour)
	}
	return ev
}

// StartOfDay は時刻が属する日の0時を同じロケーションで返す。
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// NotificationIdentifier はローカル通知の識別子を返す。
// サーバーIDとローカルIDの組から導出するため、再登録は置き換えになる。
func (e Event) NotificationIdentifier() string {
	var serverID int64
	if e.ServerID != nil {
		serverID = *e.ServerID
	}
	return "event_" + strconv.FormatInt(serverID, 10) + "_" + e.ID.String()
}
