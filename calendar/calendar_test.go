package calendar

import (
	"testing"
	"time"
)

func TestAddMonthsMonthEndTracking(t *testing.T) {
	jan31 := NewDate(2024, time.January, 31)
	feb := jan31.AddMonths(1)
	if feb.Month() != time.February || feb.Day() != 29 { // 2024 is a leap year
		t.Errorf("AddMonths(1) from Jan 31 2024 = %s, want Feb 29 2024", feb)
	}

	mar := feb.AddMonths(1)
	if mar.Month() != time.March || mar.Day() != 29 {
		t.Errorf("AddMonths(1) from Feb 29 2024 = %s, want Mar 29 2024", mar)
	}
}

func TestOffsetDayRoundTrip(t *testing.T) {
	start := NewDate(2024, time.September, 2)
	target := NewDate(2024, time.October, 2)

	offset := ToOffsetDay(start, target)
	if offset != 30 {
		t.Errorf("ToOffsetDay = %d, want 30", offset)
	}

	back := ToDate(start, offset)
	if !back.Equal(target) {
		t.Errorf("ToDate(ToOffsetDay()) = %s, want %s", back, target)
	}
}

func TestDateRangeContains(t *testing.T) {
	r := DateRange{Start: NewDate(2024, time.October, 1), End: NewDate(2024, time.October, 31)}
	if !r.Contains(NewDate(2024, time.October, 15)) {
		t.Errorf("expected Oct 15 to be contained in range")
	}
	if r.Contains(NewDate(2024, time.November, 1)) {
		t.Errorf("expected Nov 1 to not be contained in range")
	}
}
