package calendar

import (
	"testing"
	"time"

	"github.com/hitoshi/lovendar/internal/model"
)

func TestDaysInMonth(t *testing.T) {
	loc := time.UTC
	// 2025年1月1日は水曜日、31日は金曜日
	jan := time.Date(2025, 1, 15, 12, 0, 0, 0, loc)

	tests := []struct {
		name      string
		weekStart model.WeekStart
		wantFirst time.Time
		wantLast  time.Time
		wantLen   int
	}{
		{"日曜始まり", model.WeekStartSunday, time.Date(2024, 12, 29, 0, 0, 0, 0, loc), time.Date(2025, 2, 1, 0, 0, 0, 0, loc), 35},
		{"月曜始まり", model.WeekStartMonday, time.Date(2024, 12, 30, 0, 0, 0, 0, loc), time.Date(2025, 2, 2, 0, 0, 0, 0, loc), 35},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days := DaysInMonth(jan, tt.weekStart, loc)

			if len(days) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(days), tt.wantLen)
			}
			if !days[0].Equal(tt.wantFirst) {
				t.Errorf("first = %v, want %v", days[0], tt.wantFirst)
			}
			if !days[len(days)-1].Equal(tt.wantLast) {
				t.Errorf("last = %v, want %v", days[len(days)-1], tt.wantLast)
			}
			if len(days)%7 != 0 {
				t.Errorf("週単位になっていない: %d", len(days))
			}
		})
	}
}

func TestDaysInMonth_MonthStartingOnWeekStart(t *testing.T) {
	// 2026年2月1日は日曜日、28日は土曜日
	feb := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	days := DaysInMonth(feb, model.WeekStartSunday, time.UTC)
	if len(days) != 28 {
		t.Errorf("len = %d, want 28", len(days))
	}
}

func TestIsDateInMonthAndSameDay(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	// UTCでは1月31日だが、JSTでは2月1日
	d := time.Date(2025, 1, 31, 16, 0, 0, 0, time.UTC)
	feb := time.Date(2025, 2, 10, 0, 0, 0, 0, tokyo)

	if !IsDateInMonth(d, feb, tokyo) {
		t.Error("JSTで2月の日付が2月に含まれない")
	}
	if IsDateInMonth(d, feb, time.UTC) {
		t.Error("UTCで1月の日付が2月に含まれる")
	}
	if !SameDay(d, time.Date(2025, 2, 1, 8, 0, 0, 0, tokyo), tokyo) {
		t.Error("SameDay = false, want true")
	}
}

func TestMonthYearString(t *testing.T) {
	got := MonthYearString(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	if got != "2025年3月" {
		t.Errorf("MonthYearString = %q, want 2025年3月", got)
	}
}

func TestBuildMonth(t *testing.T) {
	loc := time.UTC
	now := time.Date(2025, 1, 10, 9, 0, 0, 0, loc)
	events := []model.Event{
		{Date: time.Date(2025, 1, 10, 10, 0, 0, 0, loc)},
		{Date: time.Date(2025, 1, 10, 18, 0, 0, 0, loc)},
		{Date: time.Date(2024, 12, 31, 18, 0, 0, 0, loc)},
	}

	m := BuildMonth(now, model.WeekStartSunday, loc, now, events)

	if m.Title != "2025年1月" {
		t.Errorf("Title = %q", m.Title)
	}
	var today, dec31 *Day
	for i := range m.Days {
		switch m.Days[i].Date.Format(DateLayout) {
		case "2025-01-10":
			today = &m.Days[i]
		case "2024-12-31":
			dec31 = &m.Days[i]
		}
	}
	if today == nil || !today.IsToday || today.EventCount != 2 || !today.InMonth {
		t.Errorf("1月10日 = %+v", today)
	}
	if dec31 == nil || dec31.InMonth || dec31.EventCount != 1 {
		t.Errorf("12月31日 = %+v", dec31)
	}
}
