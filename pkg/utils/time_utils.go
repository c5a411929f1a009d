package utils

import (
	"time"
)

// DateLayout is the ISO 8601 calendar date layout used for consent dates
const DateLayout = "2006-01-02"

// TimeToMillis converts time.Time to milliseconds since epoch
func TimeToMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// FormatDate formats the calendar date of t
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses an ISO 8601 calendar date
func ParseDate(date string) (time.Time, error) {
	return time.Parse(DateLayout, date)
}

// IsDateBefore reports whether date lies strictly before the calendar day of now.
// Unparseable or empty dates are never considered before.
func IsDateBefore(date string, now time.Time) bool {
	if date == "" {
		return false
	}
	d, err := ParseDate(date)
	if err != nil {
		return false
	}
	return d.Before(startOfDay(now))
}

// AddDays returns the calendar date n days after now
func AddDays(now time.Time, days int) string {
	return FormatDate(now.AddDate(0, 0, days))
}

// EarlierDate returns the earlier of two ISO dates; an empty or invalid date loses
func EarlierDate(a, b string) string {
	ta, errA := ParseDate(a)
	tb, errB := ParseDate(b)
	switch {
	case errA != nil:
		return b
	case errB != nil:
		return a
	case tb.Before(ta):
		return b
	default:
		return a
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
