// Calendar helpers over ISO YYYY-MM-DD strings. All arithmetic happens at
// UTC midnight so day offsets never drift across daylight-saving changes.
// Inputs are assumed well-formed; the backup normalizer is the boundary that
// rejects anything unparseable before it reaches these helpers.

package core

import "time"

// DateLayout is the wire format for all dates in the system.
const DateLayout = "2006-01-02"

const monthKeyLayout = "2006-01"

// ParseDate parses an ISO date at UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// FormatDate serializes a time back to the ISO date form.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// MonthKeyOf returns the YYYY-MM bucket of an ISO date.
func MonthKeyOf(date string) string {
	if len(date) < 7 {
		return date
	}
	return date[:7]
}

// MonthKeyAt returns the bucket for a point in time.
func MonthKeyAt(t time.Time) string {
	return t.Format(monthKeyLayout)
}

// ValidMonthKey reports whether s is a well-formed YYYY-MM key.
func ValidMonthKey(s string) bool {
	_, err := time.Parse(monthKeyLayout, s)
	return err == nil
}

// PreviousMonthKey returns the calendar month immediately before monthKey,
// wrapping year boundaries ("2026-01" yields "2025-12").
func PreviousMonthKey(monthKey string) string {
	t, err := time.Parse(monthKeyLayout, monthKey)
	if err != nil {
		return ""
	}
	return t.AddDate(0, -1, 0).Format(monthKeyLayout)
}

// DaysInMonth counts the days of a calendar month. Day zero of the next
// month normalizes to the last day of this one, which handles leap years
// without a month-length table.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DayOfMonth returns the day component of an ISO date, zero when unparseable.
func DayOfMonth(date string) int {
	t, err := ParseDate(date)
	if err != nil {
		return 0
	}
	return t.Day()
}

// AddDays shifts an ISO date by n days, which may be negative.
func AddDays(date string, n int) string {
	t, err := ParseDate(date)
	if err != nil {
		return ""
	}
	return FormatDate(t.AddDate(0, 0, n))
}

// DaysBetween returns the signed day count from a to b, positive when b is
// after a.
func DaysBetween(a, b string) int {
	ta, err := ParseDate(a)
	if err != nil {
		return 0
	}
	tb, err := ParseDate(b)
	if err != nil {
		return 0
	}
	return int(tb.Sub(ta) / (24 * time.Hour))
}
