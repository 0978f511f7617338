// Package notification はイベント開始前のローカル通知の登録と配信を提供する。
//
// Scheduler はイベントから通知内容と発火時刻を決めて Center に登録する。
// Center は発火時刻に Deliverer へ通知を渡す。通知許可がない場合は配信しない。
package notification

import (
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/hitoshi/lovendar/internal/model"
	"github.com/microcosm-cc/bluemonday"
)

// Request は登録済み、または登録しようとしている1件の通知。
type Request struct {
	Identifier string    `json:"identifier"`
	Title      string    `json:"title"`
	Subtitle   string    `json:"subtitle"`
	Body       string    `json:"body"`
	TriggerAt  time.Time `json:"trigger_at"`
}

var stripPolicy = bluemonday.StrictPolicy()

// ErrInvalidTiming は通知タイミングが分数として解釈できないことを表す。
var ErrInvalidTiming = errors.New("notification timing is not a number of minutes")

// NewRequest はイベントから通知を組み立てる。
// 本文は "<n>分後に開始します" に続けて、説明があればタグを除去して改行区切りで付ける。
// 通知タイミングが数値でない場合はErrInvalidTimingを返す。
func NewRequest(ev model.Event) (Request, error) {
	minutes, ok := ev.NotificationTiming.Minutes()
	if !ok {
		return Request{}, fmt.Errorf("%w: %q", ErrInvalidTiming, ev.NotificationTiming)
	}

	body := strconv.Itoa(minutes) + "分後に開始します"
	if desc := strings.TrimSpace(html.UnescapeString(stripPolicy.Sanitize(ev.Description))); desc != "" {
		body += "\n" + desc
	}

	return Request{
		Identifier: ev.NotificationIdentifier(),
		Title:      ev.Title,
		Subtitle:   ev.EventType.DisplayName(),
		Body:       body,
		TriggerAt:  ev.StartTime.Add(-time.Duration(minutes) * time.Minute),
	}, nil
}
