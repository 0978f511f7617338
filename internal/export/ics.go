// Package export は公開中のイベントをiCalendar形式で書き出す。
package export

import (
	"fmt"
	"io"
	"strconv"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/hitoshi/lovendar/internal/model"
)

// ProductID はiCalendarのPRODID。
const ProductID = "-//Lovendar//Lovendar Calendar//JA"

// CalendarName はカレンダーアプリに表示される名前。
const CalendarName = "Lovendar"

// UID はイベントのUIDを返す。通知の識別子と同じ組から導出する。
func UID(ev model.Event) string {
	return ev.NotificationIdentifier() + "@lovendar"
}

// WriteICS はイベントをiCalendarとしてwに書き出す。
// 終日イベントは日付値で、それ以外はUTCの日時で出力する。
// 通知ありで通知タイミングが数値のイベントには開始前に表示するVALARMを付ける。
// oshisはイベントのCATEGORIESとCOLORに推しの名前と色を入れるために使う。
func WriteICS(w io.Writer, events []model.Event, oshis []model.Oshi, loc *time.Location, now time.Time) error {
	byServerID := make(map[int64]model.Oshi, len(oshis))
	for _, o := range oshis {
		if o.ServerID != nil {
			byServerID[*o.ServerID] = o
		}
	}

	cal := ical.NewCalendar()
	cal.SetProductId(ProductID)
	cal.SetMethod(ical.MethodPublish)
	cal.SetXWRCalName(CalendarName)

	for _, ev := range events {
		vevent := cal.AddEvent(UID(ev))
		vevent.SetDtStampTime(now)
		vevent.SetSummary(ev.Title)
		if ev.Description != "" {
			vevent.SetDescription(ev.Description)
		}
		if ev.URL != "" {
			vevent.SetURL(ev.URL)
		}

		if ev.IsAllDay {
			vevent.SetAllDayStartAt(ev.StartTime.In(loc))
			vevent.SetAllDayEndAt(ev.EndTime.In(loc))
		} else {
			vevent.SetStartAt(ev.StartTime)
			vevent.SetEndAt(ev.EndTime)
		}

		if ev.OshiID != nil {
			if o, ok := byServerID[*ev.OshiID]; ok {
				vevent.SetProperty(ical.ComponentPropertyCategories, o.Name)
				vevent.SetProperty(ical.ComponentProperty("COLOR"), o.Color)
			}
		}

		if minutes, ok := ev.NotificationTiming.Minutes(); ev.HasAlarm && ok {
			alarm := vevent.AddAlarm()
			alarm.SetAction(ical.ActionDisplay)
			alarm.SetTrigger("-PT" + strconv.Itoa(minutes) + "M")
			alarm.SetProperty(ical.ComponentPropertyDescription, ev.Title)
		}
	}

	if err := cal.SerializeTo(w); err != nil {
		return fmt.Errorf("iCalendarの書き出しに失敗しました: %w", err)
	}
	return nil
}
