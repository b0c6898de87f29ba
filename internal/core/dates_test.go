package core

import (
	"testing"
	"time"
)

func TestMonthKeyOf(t *testing.T) {
	cases := []struct {
		date string
		want string
	}{
		{"2026-02-10", "2026-02"},
		{"2025-12-31", "2025-12"},
		{"2026-01-01", "2026-01"},
		{"short", "short"}, // degraded, not a crash
	}
	for _, tc := range cases {
		if got := MonthKeyOf(tc.date); got != tc.want {
			t.Fatalf("MonthKeyOf(%q) = %q, want %q", tc.date, got, tc.want)
		}
	}
}

func TestPreviousMonthKey(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2026-02", "2026-01"},
		{"2026-01", "2025-12"}, // year wrap
		{"2025-12", "2025-11"},
	}
	for _, tc := range cases {
		if got := PreviousMonthKey(tc.in); got != tc.want {
			t.Fatalf("PreviousMonthKey(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	// Applied twice, 2026-03 lands on 2026-01.
	if got := PreviousMonthKey(PreviousMonthKey("2026-03")); got != "2026-01" {
		t.Fatalf("double PreviousMonthKey(2026-03) = %q, want 2026-01", got)
	}
}

func TestDaysInMonth(t *testing.T) {
	cases := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2026, time.January, 31},
		{2026, time.February, 28},
		{2024, time.February, 29}, // leap year
		{2000, time.February, 29}, // century leap year
		{1900, time.February, 28}, // century non-leap
		{2026, time.April, 30},
		{2026, time.December, 31},
	}
	for _, tc := range cases {
		if got := DaysInMonth(tc.year, tc.month); got != tc.want {
			t.Fatalf("DaysInMonth(%d, %v) = %d, want %d", tc.year, tc.month, got, tc.want)
		}
	}
}

func TestAddDays(t *testing.T) {
	cases := []struct {
		date string
		n    int
		want string
	}{
		{"2026-01-31", 1, "2026-02-01"},  // month boundary
		{"2025-12-31", 1, "2026-01-01"},  // year boundary
		{"2026-03-01", -1, "2026-02-28"}, // backwards across a month
		{"2024-02-28", 1, "2024-02-29"},  // into a leap day
		{"2026-02-10", 0, "2026-02-10"},
	}
	for _, tc := range cases {
		if got := AddDays(tc.date, tc.n); got != tc.want {
			t.Fatalf("AddDays(%q, %d) = %q, want %q", tc.date, tc.n, got, tc.want)
		}
	}
}

func TestAddDaysMonthKeyIdentity(t *testing.T) {
	for _, d := range []string{"2026-01-01", "2026-02-28", "2024-02-29", "2025-12-31"} {
		if MonthKeyOf(AddDays(d, 0)) != MonthKeyOf(d) {
			t.Fatalf("month key of %q changed under AddDays(_, 0)", d)
		}
	}
}

func TestDaysBetweenRoundTrip(t *testing.T) {
	anchor := "2026-02-10"
	for _, n := range []int{-400, -31, -1, 0, 1, 28, 30, 365, 1000} {
		if got := DaysBetween(anchor, AddDays(anchor, n)); got != n {
			t.Fatalf("DaysBetween(%s, %s+%dd) = %d, want %d", anchor, anchor, n, got, n)
		}
	}
}

func TestDayOfMonth(t *testing.T) {
	if got := DayOfMonth("2026-02-10"); got != 10 {
		t.Fatalf("DayOfMonth = %d, want 10", got)
	}
	if got := DayOfMonth("garbage"); got != 0 {
		t.Fatalf("DayOfMonth(garbage) = %d, want 0", got)
	}
}
