package market

import (
	"testing"
	"time"
)

func nyCalendar(t *testing.T) *Calendar {
	t.Helper()
	cal, err := NewCalendar("America/New_York", "09:30", "16:00")
	if err != nil {
		t.Fatalf("calendar: %v", err)
	}
	return cal
}

func TestNewCalendar_InvalidInputs(t *testing.T) {
	if _, err := NewCalendar("Not/AZone", "09:30", "16:00"); err == nil {
		t.Error("expected error for unknown timezone")
	}
	if _, err := NewCalendar("UTC", "25:00", "16:00"); err == nil {
		t.Error("expected error for invalid open time")
	}
	if _, err := NewCalendar("UTC", "09:30", "nope"); err == nil {
		t.Error("expected error for unparseable close time")
	}
}

func TestIsOpen(t *testing.T) {
	cal := nyCalendar(t)
	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"mid-session Wednesday", time.Date(2024, 1, 10, 12, 0, 0, 0, cal.Location), true},
		{"exact open", time.Date(2024, 1, 10, 9, 30, 0, 0, cal.Location), true},
		{"exact close", time.Date(2024, 1, 10, 16, 0, 0, 0, cal.Location), true},
		{"before open", time.Date(2024, 1, 10, 9, 0, 0, 0, cal.Location), false},
		{"after close", time.Date(2024, 1, 10, 17, 0, 0, 0, cal.Location), false},
		{"Saturday", time.Date(2024, 1, 13, 12, 0, 0, 0, cal.Location), false},
		{"Sunday", time.Date(2024, 1, 14, 12, 0, 0, 0, cal.Location), false},
	}
	for _, tt := range tests {
		if got := cal.IsOpen(tt.at); got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}

func TestHourBoundary(t *testing.T) {
	cal := nyCalendar(t)

	exact := time.Date(2024, 1, 10, 13, 0, 0, 0, cal.Location)
	if got := cal.HourBoundary(exact); !got.Equal(exact) {
		t.Errorf("exact hour is its own boundary, got %v", got)
	}

	mid := time.Date(2024, 1, 10, 12, 30, 0, 0, cal.Location)
	want := time.Date(2024, 1, 10, 11, 0, 0, 0, cal.Location)
	if got := cal.HourBoundary(mid); !got.Equal(want) {
		t.Errorf("12:30 bar still forming, expected boundary 11:00, got %v", got)
	}
}

func TestHourBoundary_FractionalOffsetZone(t *testing.T) {
	// A UTC+5:30 zone: flooring in UTC would land on :30 local instead of :00.
	cal, err := NewCalendar("Asia/Kolkata", "09:15", "15:30")
	if err != nil {
		t.Fatalf("calendar: %v", err)
	}

	mid := time.Date(2024, 1, 10, 12, 30, 0, 0, cal.Location)
	want := time.Date(2024, 1, 10, 11, 0, 0, 0, cal.Location)
	if got := cal.HourBoundary(mid); !got.Equal(want) {
		t.Errorf("expected local-hour boundary 11:00 IST, got %v", got)
	}

	exact := time.Date(2024, 1, 10, 13, 0, 0, 0, cal.Location)
	if got := cal.HourBoundary(exact); !got.Equal(exact) {
		t.Errorf("exact local hour is its own boundary, got %v", got)
	}
}

func TestDailyBoundary(t *testing.T) {
	cal := nyCalendar(t)

	// Wednesday mid-session: Tuesday's close.
	mid := time.Date(2024, 1, 10, 12, 0, 0, 0, cal.Location)
	want := time.Date(2024, 1, 9, 16, 0, 0, 0, cal.Location)
	if got := cal.DailyBoundary(mid); !got.Equal(want) {
		t.Errorf("expected Tuesday close, got %v", got)
	}

	// After the close the same day's close counts.
	evening := time.Date(2024, 1, 10, 17, 0, 0, 0, cal.Location)
	want = time.Date(2024, 1, 10, 16, 0, 0, 0, cal.Location)
	if got := cal.DailyBoundary(evening); !got.Equal(want) {
		t.Errorf("expected Wednesday close, got %v", got)
	}

	// Monday morning rolls back over the weekend to Friday.
	monday := time.Date(2024, 1, 8, 10, 0, 0, 0, cal.Location)
	want = time.Date(2024, 1, 5, 16, 0, 0, 0, cal.Location)
	if got := cal.DailyBoundary(monday); !got.Equal(want) {
		t.Errorf("expected Friday close, got %v", got)
	}
}

func TestSameTradingDay(t *testing.T) {
	cal := nyCalendar(t)
	a := time.Date(2024, 1, 10, 9, 30, 0, 0, cal.Location)
	b := time.Date(2024, 1, 10, 15, 59, 0, 0, cal.Location)
	c := time.Date(2024, 1, 11, 9, 30, 0, 0, cal.Location)

	if !cal.SameTradingDay(a, b) {
		t.Error("expected same trading day")
	}
	if cal.SameTradingDay(a, c) {
		t.Error("expected different trading days")
	}
}
