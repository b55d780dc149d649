// internal/models/time.go
package models

import "time"

// TimeLayout matches the browser's Date.toISOString output.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Timestamp formats t in UTC with millisecond precision.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTimestamp reads an RFC3339 timestamp with or without fractional seconds.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
