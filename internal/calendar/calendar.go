// Package calendar は月表示カレンダーの日付計算を提供する。
package calendar

import (
	"time"

	"github.com/hitoshi/lovendar/internal/model"
)

// MonthLayout は月の指定に使う形式。
const MonthLayout = "2006-01"

// DateLayout は日の指定に使う形式。
const DateLayout = "2006-01-02"

// Day は月表示の1マス。
type Day struct {
	Date       time.Time `json:"date"`
	InMonth    bool      `json:"in_month"`
	IsToday    bool      `json:"is_today"`
	EventCount int       `json:"event_count"`
}

// Month は月表示の全マスと見出し。
type Month struct {
	Title string `json:"title"`
	Days  []Day  `json:"days"`
}

// DaysInMonth は指定月を含む週の先頭から、月末を含む週の末尾までの日付を返す。
// 週の始まりはweekStartに従う。
func DaysInMonth(month time.Time, weekStart model.WeekStart, loc *time.Location) []time.Time {
	m := month.In(loc)
	first := time.Date(m.Year(), m.Month(), 1, 0, 0, 0, 0, loc)
	last := first.AddDate(0, 1, -1)

	start := first.AddDate(0, 0, -offsetFromWeekStart(first.Weekday(), weekStart))
	end := last.AddDate(0, 0, 6-offsetFromWeekStart(last.Weekday(), weekStart))

	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// offsetFromWeekStart は曜日が週の先頭から何日目かを返す。
func offsetFromWeekStart(wd time.Weekday, weekStart model.WeekStart) int {
	first := time.Sunday
	if weekStart == model.WeekStartMonday {
		first = time.Monday
	}
	return (int(wd) - int(first) + 7) % 7
}

// IsDateInMonth は日付が指定月に含まれるかを返す。
func IsDateInMonth(date, month time.Time, loc *time.Location) bool {
	dy, dm, _ := date.In(loc).Date()
	my, mm, _ := month.In(loc).Date()
	return dy == my && dm == mm
}

// SameDay は2つの日時が同じ日かを返す。
func SameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// MonthYearString は "2025年1月" 形式の見出しを返す。
func MonthYearString(t time.Time) string {
	return t.Format("2006年1月")
}

// BuildMonth は月表示の全マスを組み立てる。
// 各マスのイベント数はイベントのDateで数える。
func BuildMonth(month time.Time, weekStart model.WeekStart, loc *time.Location, now time.Time, events []model.Event) Month {
	counts := make(map[string]int)
	for _, ev := range events {
		counts[ev.Date.In(loc).Format(DateLayout)]++
	}

	dates := DaysInMonth(month, weekStart, loc)
	days := make([]Day, 0, len(dates))
	for _, d := range dates {
		days = append(days, Day{
			Date:       d,
			InMonth:    IsDateInMonth(d, month, loc),
			IsToday:    SameDay(d, now, loc),
			EventCount: counts[d.Format(DateLayout)],
		})
	}
	return Month{
		Title: MonthYearString(month.In(loc)),
		Days:  days,
	}
}
