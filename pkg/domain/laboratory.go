package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// LabStatus is the availability state of a laboratory.
type LabStatus int

const (
	LabInactive    LabStatus = 0
	LabActive      LabStatus = 1
	LabMaintenance LabStatus = 2
)

var labStatusNames = map[LabStatus]string{
	LabInactive:    "INACTIVE",
	LabActive:      "ACTIVE",
	LabMaintenance: "MAINTENANCE",
}

func (s LabStatus) String() string {
	if n, ok := labStatusNames[s]; ok {
		return n
	}
	return "LabStatus(" + strconv.Itoa(int(s)) + ")"
}

// Label is the short human label shown in lists.
func (s LabStatus) Label() string {
	switch s {
	case LabActive:
		return "available"
	case LabMaintenance:
		return "maintenance"
	default:
		return "closed"
	}
}

// ParseLabStatus accepts a status name (any case) or its number.
func ParseLabStatus(s string) (LabStatus, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return LabStatus(n), nil
	}
	for st, name := range labStatusNames {
		if strings.EqualFold(s, name) {
			return st, nil
		}
	}
	return 0, fmt.Errorf("domain.ParseLabStatus: unknown status %q", s)
}

// UnmarshalJSON accepts numeric and string statuses.
func (s *LabStatus) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		str, err := strconv.Unquote(string(b))
		if err != nil {
			return err
		}
		st, err := ParseLabStatus(str)
		if err != nil {
			return err
		}
		*s = st
		return nil
	}
	if string(b) == "null" {
		return nil
	}
	n, err := strconv.Atoi(string(b))
	if err != nil {
		return fmt.Errorf("domain.LabStatus: %w", err)
	}
	*s = LabStatus(n)
	return nil
}

// Laboratory is the canonical laboratory record.
type Laboratory struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Location    string    `json:"location"`
	Capacity    int       `json:"capacity"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Equipment   string    `json:"equipment,omitempty"`
	Status      LabStatus `json:"status"`
	CreatedAt   Time      `json:"createdAt"`
	UpdatedAt   Time      `json:"updatedAt"`
}

// UnmarshalJSON normalizes the lab-prefixed field names used by older
// server revisions (labName, labType, labLocation, labCapacity,
// labDescription, labId) into the canonical fields.
func (l *Laboratory) UnmarshalJSON(b []byte) error {
	type plain Laboratory
	var w struct {
		plain
		LabID          int64  `json:"labId"`
		LabName        string `json:"labName"`
		LabType        string `json:"labType"`
		LabLocation    string `json:"labLocation"`
		LabCapacity    int    `json:"labCapacity"`
		LabDescription string `json:"labDescription"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*l = Laboratory(w.plain)
	if w.LabID != 0 && l.ID == 0 {
		l.ID = w.LabID
	}
	if w.LabName != "" {
		l.Name = w.LabName
	}
	if w.LabType != "" {
		l.Type = w.LabType
	}
	if w.LabLocation != "" {
		l.Location = w.LabLocation
	}
	if w.LabCapacity != 0 {
		l.Capacity = w.LabCapacity
	}
	if w.LabDescription != "" {
		l.Description = w.LabDescription
	}
	return nil
}

// Available reports whether the lab accepts reservations.
func (l Laboratory) Available() bool {
	return l.Status == LabActive
}

// ClampPeople limits n to [1, capacity]. A zero capacity means unknown and
// only the lower bound applies.
func (l Laboratory) ClampPeople(n int) int {
	if n < 1 {
		n = 1
	}
	if l.Capacity > 0 && n > l.Capacity {
		n = l.Capacity
	}
	return n
}

// LaboratoryInput is the create/update payload. It is written with the
// lab-prefixed names that every server revision accepts.
type LaboratoryInput struct {
	ID          int64     `json:"id,omitempty"`
	Name        string    `json:"labName" validate:"required,max=100"`
	Type        string    `json:"labType" validate:"required"`
	Location    string    `json:"labLocation" validate:"required"`
	Capacity    int       `json:"labCapacity" validate:"required,min=1,max=10000"`
	Description string    `json:"labDescription,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Equipment   string    `json:"equipment,omitempty"`
	Status      LabStatus `json:"status"`
}

// LabSearch filters the laboratory search endpoint.
type LabSearch struct {
	Keyword string
	Type    string
	Status  *LabStatus
}
