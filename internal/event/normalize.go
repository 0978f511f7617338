// Package event はイベント一覧の同期パイプラインとイベントの作成・更新を提供する。
package event

import (
	"errors"
	"time"

	"github.com/hitoshi/lovendar/internal/apiclient"
	"github.com/hitoshi/lovendar/internal/model"
)

// サーバーの日時表記。小数秒あり・なしの両方を受け付ける。
const (
	layoutFractional = "2006-01-02T15:04:05.999999999Z07:00"
	layoutPlain      = "2006-01-02T15:04:05Z07:00"
)

// ErrInvalidStartsAt は開始日時を解釈できないイベントを表す。
var ErrInvalidStartsAt = errors.New("starts_at is not a valid timestamp")

// ParseTimestamp はサーバーの日時文字列を解釈する。
// 小数秒ありの形式を先に試し、失敗した場合は小数秒なしの形式で解釈する。
func ParseTimestamp(s string) (time.Time, bool) {
	if t, err := time.Parse(layoutFractional, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(layoutPlain, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// FormatTimestamp は日時をサーバーに送る形式に変換する。
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(layoutPlain)
}

// FromAPI はサーバーのイベントをローカルのEventに変換する。
// 終了日時がない、または解釈できない場合は終日イベントとし、
// 終了を開始日の翌日0時(loc基準)にする。
// カテゴリはイベント種類に対応付けず、常にgeneralとする。
func FromAPI(dto apiclient.EventAPI, oshiID int64, loc *time.Location) (model.Event, error) {
	start, ok := ParseTimestamp(dto.StartsAt)
	if !ok {
		return model.Event{}, ErrInvalidStartsAt
	}

	serverID := dto.ID
	owner := oshiID
	in := model.EventInput{
		ServerID:           &serverID,
		Title:              dto.Title,
		Date:               start,
		StartTime:          &start,
		OshiID:             &owner,
		EventType:          model.EventTypeGeneral,
		HasAlarm:           dto.HasAlarm,
		NotificationTiming: model.NotificationTiming(dto.NotificationTiming),
	}
	if dto.Description != nil {
		in.Description = *dto.Description
	}
	if dto.URL != nil {
		in.URL = *dto.URL
	}

	var end time.Time
	hasEnd := false
	if dto.EndsAt != nil {
		end, hasEnd = ParseTimestamp(*dto.EndsAt)
	}
	if hasEnd {
		in.EndTime = &end
	}

	ev := model.NewEvent(in)
	if !hasEnd {
		ev.IsAllDay = true
		ev.EndTime = model.StartOfDay(start.In(loc)).AddDate(0, 0, 1)
	}
	return ev, nil
}
