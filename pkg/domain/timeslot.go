package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// TimeSlot is a bookable period of the day.
type TimeSlot struct {
	ID        int64  `json:"id"`
	Name      string `json:"name,omitempty"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	SortOrder int    `json:"sortOrder"`
	Enabled   bool   `json:"enabled"`
	Reserved  bool   `json:"reserved,omitempty"`
}

// UnmarshalJSON trims seconds from HH:mm:ss times and maps the numeric
// status field onto Enabled.
func (t *TimeSlot) UnmarshalJSON(b []byte) error {
	type plain TimeSlot
	var w struct {
		plain
		Status   *int `json:"status"`
		Sort     *int `json:"sort"`
		IsBooked bool `json:"isBooked"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*t = TimeSlot(w.plain)
	if w.Status != nil {
		t.Enabled = *w.Status == 1
	}
	if t.SortOrder == 0 && w.Sort != nil {
		t.SortOrder = *w.Sort
	}
	t.Reserved = t.Reserved || w.IsBooked
	t.StartTime = trimSeconds(t.StartTime)
	t.EndTime = trimSeconds(t.EndTime)
	return nil
}

func trimSeconds(s string) string {
	if len(s) == len("15:04:05") && strings.Count(s, ":") == 2 {
		return s[:5]
	}
	return s
}

// Range renders the slot in the "HH:mm-HH:mm" form reservations carry.
func (t TimeSlot) Range() string {
	return t.StartTime + "-" + t.EndTime
}

// TimeSlotInput is the create/update payload.
type TimeSlotInput struct {
	Name      string `json:"name,omitempty"`
	StartTime string `json:"startTime" validate:"required,datetime=15:04"`
	EndTime   string `json:"endTime" validate:"required,datetime=15:04"`
	SortOrder int    `json:"sortOrder"`
	Status    int    `json:"status" validate:"oneof=0 1"`
}

// SortItem assigns a new sort order to a slot.
type SortItem struct {
	ID        int64 `json:"id"`
	SortOrder int   `json:"sortOrder"`
}

// ParseTimeRange splits "HH:mm-HH:mm" and checks that start precedes end.
func ParseTimeRange(s string) (start, end time.Time, err error) {
	parts := strings.SplitN(strings.TrimSpace(s), "-", 2)
	if len(parts) != 2 {
		return start, end, fmt.Errorf("domain.ParseTimeRange: %q is not HH:mm-HH:mm", s)
	}
	if start, err = time.Parse("15:04", strings.TrimSpace(parts[0])); err != nil {
		return start, end, fmt.Errorf("domain.ParseTimeRange: %w", err)
	}
	if end, err = time.Parse("15:04", strings.TrimSpace(parts[1])); err != nil {
		return start, end, fmt.Errorf("domain.ParseTimeRange: %w", err)
	}
	if !start.Before(end) {
		return start, end, fmt.Errorf("domain.ParseTimeRange: %q ends before it starts", s)
	}
	return start, end, nil
}
