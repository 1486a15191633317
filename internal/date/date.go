// Package date parses and formats the instants stored on tasks.
package date

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Format is the calendar-day layout used for deadlines on input and display.
const Format = "2006-01-02"

var storedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	Format,
}

// Today returns midnight UTC of the current day.
func Today(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDeadline parses user input for a deadline. It accepts YYYY-MM-DD
// (midnight UTC), RFC 3339, "today", "tomorrow" and relative days like "+3d".
func ParseDeadline(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "today":
		return Today(now), nil
	case "tomorrow":
		return Today(now).AddDate(0, 0, 1), nil
	}

	if strings.HasPrefix(s, "+") && strings.HasSuffix(s, "d") {
		n, err := strconv.Atoi(s[1 : len(s)-1])
		if err == nil && n >= 0 {
			return Today(now).AddDate(0, 0, n), nil
		}
	}

	if t, err := time.Parse(Format, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
}

// ParseStored converts a value read from the store into an instant.
// It reports false for nil, empty or unparseable values.
func ParseStored(v any) (time.Time, bool) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return x, !x.IsZero()
	case *time.Time:
		if x == nil {
			return time.Time{}, false
		}
		return *x, !x.IsZero()
	case []byte:
		return parseString(string(x))
	case string:
		return parseString(x)
	}
	return time.Time{}, false
}

func parseString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range storedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// String formats t as YYYY-MM-DD in UTC, or "" for nil.
func String(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(Format)
}

// Wire formats t the way instants are written to the store.
func Wire(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
