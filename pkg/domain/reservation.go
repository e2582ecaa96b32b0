package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus int

const (
	ReservationPending   ReservationStatus = 0
	ReservationApproved  ReservationStatus = 1
	ReservationRejected  ReservationStatus = 2
	ReservationCancelled ReservationStatus = 3
	ReservationCompleted ReservationStatus = 4
)

var reservationStatusNames = []string{"PENDING", "APPROVED", "REJECTED", "CANCELLED", "COMPLETED"}

// ReservationStatuses lists every status in numeric order.
var ReservationStatuses = []ReservationStatus{
	ReservationPending,
	ReservationApproved,
	ReservationRejected,
	ReservationCancelled,
	ReservationCompleted,
}

func (s ReservationStatus) String() string {
	if s >= 0 && int(s) < len(reservationStatusNames) {
		return reservationStatusNames[s]
	}
	return "ReservationStatus(" + strconv.Itoa(int(s)) + ")"
}

// Label is the lower-case form used in the terminal UI.
func (s ReservationStatus) Label() string {
	return strings.ToLower(s.String())
}

// Cancellable reports whether the owner may still cancel.
func (s ReservationStatus) Cancellable() bool {
	return s == ReservationPending || s == ReservationApproved
}

// ParseReservationStatus accepts "PENDING".."COMPLETED" in any case, or 0..4.
func ParseReservationStatus(s string) (ReservationStatus, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n >= len(reservationStatusNames) {
			return 0, fmt.Errorf("domain.ParseReservationStatus: status %d out of range", n)
		}
		return ReservationStatus(n), nil
	}
	for i, name := range reservationStatusNames {
		if strings.EqualFold(s, name) {
			return ReservationStatus(i), nil
		}
	}
	return 0, fmt.Errorf("domain.ParseReservationStatus: unknown status %q", s)
}

// UnmarshalJSON accepts the numeric and string encodings.
func (s *ReservationStatus) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	raw := string(b)
	if len(b) > 0 && b[0] == '"' {
		var err error
		if raw, err = strconv.Unquote(raw); err != nil {
			return err
		}
	}
	st, err := ParseReservationStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// Reservation is the canonical reservation record.
type Reservation struct {
	ID             int64             `json:"id"`
	UserID         int64             `json:"userId"`
	UserName       string            `json:"userName,omitempty"`
	LabID          int64             `json:"labId"`
	LabName        string            `json:"labName,omitempty"`
	ReserveDate    string            `json:"reserveDate"`
	TimeSlot       string            `json:"timeSlot"`
	Purpose        string            `json:"purpose,omitempty"`
	PeopleNum      int               `json:"peopleNum,omitempty"`
	ExperimentName string            `json:"experimentName,omitempty"`
	Equipment      string            `json:"equipment,omitempty"`
	Remark         string            `json:"remark,omitempty"`
	Status         ReservationStatus `json:"status"`
	ApprovalNote   string            `json:"approvalNote,omitempty"`
	Feedback       string            `json:"feedback,omitempty"`
	CreatedAt      Time              `json:"createdAt"`
	UpdatedAt      Time              `json:"updatedAt"`
}

// UnmarshalJSON normalizes reservationDate/reserveDate, numberOfPeople/peopleNum,
// laboratoryId/labId and trims any time-of-day from the date. Revisions that
// embed the laboratory and time slot as objects fill LabID, LabName and
// TimeSlot from them.
func (r *Reservation) UnmarshalJSON(b []byte) error {
	type plain Reservation
	var w struct {
		plain
		ReservationDate string          `json:"reservationDate"`
		NumberOfPeople  int             `json:"numberOfPeople"`
		LaboratoryID    int64           `json:"laboratoryId"`
		Notes           string          `json:"notes"`
		Laboratory      *Laboratory     `json:"laboratory"`
		Timeslot        json.RawMessage `json:"timeslot"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*r = Reservation(w.plain)
	if r.ReserveDate == "" {
		r.ReserveDate = w.ReservationDate
	}
	if len(r.ReserveDate) > len(DateLayout) {
		r.ReserveDate = r.ReserveDate[:len(DateLayout)]
	}
	if r.PeopleNum == 0 {
		r.PeopleNum = w.NumberOfPeople
	}
	if r.LabID == 0 {
		r.LabID = w.LaboratoryID
	}
	if r.Remark == "" {
		r.Remark = w.Notes
	}
	if lab := w.Laboratory; lab != nil {
		if r.LabID == 0 {
			r.LabID = lab.ID
		}
		if r.LabName == "" {
			r.LabName = lab.Name
		}
	}
	if len(w.Timeslot) > 0 && w.Timeslot[0] == '{' && r.TimeSlot == "" {
		var ts TimeSlot
		if err := json.Unmarshal(w.Timeslot, &ts); err != nil {
			return err
		}
		r.TimeSlot = ts.Range()
	}
	return nil
}

// Date parses ReserveDate.
func (r Reservation) Date() (time.Time, error) {
	return time.ParseInLocation(DateLayout, r.ReserveDate, time.Local)
}

// ReservationRequest is the create/update payload.
type ReservationRequest struct {
	ID             int64  `json:"id,omitempty"`
	UserID         int64  `json:"userId" validate:"required"`
	UserName       string `json:"userName,omitempty"`
	LabID          int64  `json:"labId" validate:"required"`
	LabName        string `json:"labName,omitempty"`
	ReserveDate    string `json:"reserveDate" validate:"required,datetime=2006-01-02"`
	TimeSlot       string `json:"timeSlot" validate:"required,timeslot"`
	Purpose        string `json:"purpose" validate:"required,max=500"`
	PeopleNum      int    `json:"peopleNum" validate:"min=1"`
	ExperimentName string `json:"experimentName,omitempty"`
	Equipment      string `json:"equipment,omitempty"`
	Remark         string `json:"remark,omitempty"`
}

// ReservationQuery filters list and search endpoints.
type ReservationQuery struct {
	Keyword   string
	UserID    int64
	LabID     int64
	Status    *ReservationStatus
	StartDate string
	EndDate   string
}

// ConflictResult is the outcome of a conflict check.
type ConflictResult struct {
	Conflict bool
	Message  string
}

// BookingWindow returns the first and last bookable dates relative to now.
func BookingWindow(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 0, 30)
}

// InBookingWindow reports whether date (yyyy-MM-dd) lies within BookingWindow(now).
func InBookingWindow(date string, now time.Time) bool {
	d, err := time.ParseInLocation(DateLayout, date, now.Location())
	if err != nil {
		return false
	}
	start, end := BookingWindow(now)
	return !d.Before(start) && !d.After(end)
}
