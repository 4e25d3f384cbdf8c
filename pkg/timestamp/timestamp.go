// Package timestamp provides the time formats used by the target.
//
// Two representations are in play:
//   - int64 milliseconds since Unix epoch for sequence numbers (_sdc_sequence)
//   - RFC 3339 strings in UTC with nanosecond precision for metadata columns
//
// Artifact names use a compact, sortable stamp (see RunStamp) captured once
// per run so every stream written by the same invocation shares it.
package timestamp

import (
	"time"
)

// RunStampLayout names output artifacts, e.g. 20240301T102030Z.
const RunStampLayout = "20060102T150405Z0700"

// Now returns the current time as Unix milliseconds.
func Now() int64 {
	return time.Now().UnixMilli()
}

// ToUnixMs converts a time.Time to Unix milliseconds.
// Returns 0 for the zero time.
func ToUnixMs(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// Format renders t as an RFC 3339 UTC string with nanosecond precision.
// Returns an empty string for the zero time.
func Format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// Parse reads an RFC 3339 timestamp with optional fractional seconds.
func Parse(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// lenientLayouts are tried in order by ParseLenient. Layouts without a zone
// are read as UTC.
var lenientLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseLenient reads the timestamp forms taps commonly emit: RFC 3339, the
// same with a space separator or a compact offset, zoneless date-times, and
// bare dates.
func ParseLenient(s string) (time.Time, bool) {
	for _, layout := range lenientLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// RunStamp renders t in RunStampLayout, in UTC.
func RunStamp(t time.Time) string {
	return t.UTC().Format(RunStampLayout)
}
