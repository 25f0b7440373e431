package utils

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{in: "2024-03-05", want: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{in: "2024-03-05T08:30:00Z", want: time.Date(2024, 3, 5, 8, 30, 0, 0, time.UTC)},
		{in: "2024-03-05T08:30:00-05:00", want: time.Date(2024, 3, 5, 13, 30, 0, 0, time.UTC)},
		{in: "2024-03-05T08:30", want: time.Date(2024, 3, 5, 8, 30, 0, 0, time.UTC)},
		{in: "05/03/2024", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseDate(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseDate(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDate(%q) error = %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseDate(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestTodayIsNotFutureButTomorrowIs(t *testing.T) {
	now := time.Now().UTC()

	today, _ := ParseDate(now.Format(DateLayout))
	tomorrow, _ := ParseDate(now.AddDate(0, 0, 1).Format(DateLayout))

	if IsFuture(today, now) {
		t.Error("today's date must not count as future")
	}
	if !IsFuture(tomorrow, now) {
		t.Error("tomorrow's date must count as future")
	}
}

func TestDayBounds(t *testing.T) {
	t0 := time.Date(2024, 2, 29, 15, 4, 5, 0, time.UTC)

	if got := EndOfDay(t0); got != time.Date(2024, 2, 29, 23, 59, 59, 999999999, time.UTC) {
		t.Errorf("EndOfDay() = %s", got)
	}

	start, end := MonthRange(2024, time.February)
	if start != time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC) || end != time.Date(2024, 2, 29, 23, 59, 59, 999999999, time.UTC) {
		t.Errorf("MonthRange() = %s, %s", start, end)
	}
}
