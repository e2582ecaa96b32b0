package domain

import (
	"bytes"
	"fmt"
	"strconv"
	"time"
)

// Layouts the API has been seen to emit for timestamps.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	DateLayout,
}

// DateLayout is the wire format of calendar dates (reservation dates, schedule days).
const DateLayout = "2006-01-02"

// Time is a timestamp that tolerates the layouts produced by different server
// revisions, including epoch milliseconds.
type Time struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Time) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	if b[0] != '"' {
		ms, err := strconv.ParseInt(string(b), 10, 64)
		if err != nil {
			return fmt.Errorf("domain.Time: %w", err)
		}
		t.Time = time.UnixMilli(ms)
		return nil
	}
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return fmt.Errorf("domain.Time: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := ParseTime(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// MarshalJSON writes the server's local "yyyy-MM-dd HH:mm:ss" form.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(t.Format("2006-01-02 15:04:05"))), nil
}

// ParseTime parses s using every known timestamp layout.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("domain.ParseTime: unrecognized time %q", s)
}
