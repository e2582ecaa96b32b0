package domain

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestReservationUnmarshal_StatusEncodings(t *testing.T) {
	tests := []struct {
		body string
		want ReservationStatus
	}{
		{`{"id":1,"status":0}`, ReservationPending},
		{`{"id":1,"status":"APPROVED"}`, ReservationApproved},
		{`{"id":1,"status":"rejected"}`, ReservationRejected},
		{`{"id":1,"status":3}`, ReservationCancelled},
		{`{"id":1,"status":"COMPLETED"}`, ReservationCompleted},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			var r Reservation
			if err := json.Unmarshal([]byte(tt.body), &r); err != nil {
				t.Fatalf("Unmarshal() error: %v", err)
			}
			if r.Status != tt.want {
				t.Errorf("Status = %v, want %v", r.Status, tt.want)
			}
		})
	}
}

func TestReservationUnmarshal_DateVariants(t *testing.T) {
	var a, b Reservation
	if err := json.Unmarshal([]byte(`{"reserveDate":"2025-03-04","labId":2,"peopleNum":3}`), &a); err != nil {
		t.Fatalf("Unmarshal(reserveDate) error: %v", err)
	}
	if err := json.Unmarshal([]byte(`{"reservationDate":"2025-03-04T00:00:00","laboratoryId":2,"numberOfPeople":3}`), &b); err != nil {
		t.Fatalf("Unmarshal(reservationDate) error: %v", err)
	}
	for _, r := range []Reservation{a, b} {
		if r.ReserveDate != "2025-03-04" {
			t.Errorf("ReserveDate = %q, want %q", r.ReserveDate, "2025-03-04")
		}
		if r.LabID != 2 {
			t.Errorf("LabID = %d, want 2", r.LabID)
		}
		if r.PeopleNum != 3 {
			t.Errorf("PeopleNum = %d, want 3", r.PeopleNum)
		}
	}
}

func TestReservationUnmarshal_NestedObjects(t *testing.T) {
	body := `{"id":4,"reserveDate":"2025-03-04","status":1,
		"laboratory":{"id":9,"name":"Optics","location":"B201"},
		"timeslot":{"id":2,"startTime":"08:00:00","endTime":"10:00:00","status":1}}`
	var r Reservation
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if r.LabID != 9 || r.LabName != "Optics" {
		t.Errorf("lab = %d %q, want 9 Optics", r.LabID, r.LabName)
	}
	if r.TimeSlot != "08:00-10:00" {
		t.Errorf("TimeSlot = %q, want 08:00-10:00", r.TimeSlot)
	}

	// Flat fields win over the nested copies.
	var flat Reservation
	err := json.Unmarshal([]byte(`{"labId":3,"labName":"Wet Lab","timeSlot":"14:00-16:00","laboratory":{"id":9,"name":"Optics"}}`), &flat)
	if err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if flat.LabID != 3 || flat.LabName != "Wet Lab" || flat.TimeSlot != "14:00-16:00" {
		t.Errorf("flat = %+v", flat)
	}
}

func TestReservationUnmarshal_UnknownStatus(t *testing.T) {
	var r Reservation
	if err := json.Unmarshal([]byte(`{"status":"EXPIRED"}`), &r); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestReservationStatusCancellable(t *testing.T) {
	want := map[ReservationStatus]bool{
		ReservationPending:   true,
		ReservationApproved:  true,
		ReservationRejected:  false,
		ReservationCancelled: false,
		ReservationCompleted: false,
	}
	for st, ok := range want {
		if got := st.Cancellable(); got != ok {
			t.Errorf("%v.Cancellable() = %v, want %v", st, got, ok)
		}
	}
}

func TestInBookingWindow(t *testing.T) {
	now := time.Date(2025, 5, 10, 15, 30, 0, 0, time.Local)
	tests := []struct {
		date string
		want bool
	}{
		{"2025-05-10", true},
		{"2025-05-09", false},
		{"2025-06-09", true},
		{"2025-06-10", false},
		{"not-a-date", false},
	}
	for _, tt := range tests {
		if got := InBookingWindow(tt.date, now); got != tt.want {
			t.Errorf("InBookingWindow(%q) = %v, want %v", tt.date, got, tt.want)
		}
	}
}
