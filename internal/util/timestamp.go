package util

import (
	"strings"
	"time"
)

// Timestamp layouts the upstream has been observed to emit. Dates arrive with
// "/" separators and must be normalized to "-" before parsing.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

// ParseTimestamp parses an upstream expiry string. The boolean is false for
// empty or malformed input, which callers treat as "no expiry tracked".
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	normalized := strings.ReplaceAll(s, "/", "-")
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, normalized, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatTimestamp renders a time in the upstream's slash-separated form so
// values written back to the store round-trip through ParseTimestamp.
func FormatTimestamp(t time.Time) string {
	return t.Format("2006/01/02 15:04:05")
}
