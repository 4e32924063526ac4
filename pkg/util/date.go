package util

import (
	"strconv"
	"time"
)

const dayLayout = "2006-01-02"

// ParseDay parses a calendar date in YYYY-MM-DD form (UTC). Returns (t, true) if valid.
func ParseDay(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(dayLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatDay renders a time as a YYYY-MM-DD calendar date in UTC.
func FormatDay(t time.Time) string {
	return t.UTC().Format(dayLayout)
}

// ParseTime tries RFC3339, YYYY-MM-DD, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, ok := ParseDay(s); ok {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}
