package main

import (
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/labdesk/labctl/pkg/domain"
)

func tomorrow() string {
	return time.Now().AddDate(0, 0, 1).Format(domain.DateLayout)
}

// bookingAPI serves lab 3 (capacity 4) and records created reservations.
func bookingAPI(conflict func(w http.ResponseWriter), created chan<- domain.ReservationRequest) func(r chi.Router) {
	return func(r chi.Router) {
		r.Get("/api/laboratory/3", ok(testLabs[0]))
		r.Get("/api/laboratory/5", ok(testLabs[1]))
		r.Get("/api/reservation/check-conflict", func(w http.ResponseWriter, _ *http.Request) {
			conflict(w)
		})
		r.Post("/api/reservation", func(w http.ResponseWriter, req *http.Request) {
			var body domain.ReservationRequest
			json.NewDecoder(req.Body).Decode(&body) //nolint:errcheck
			created <- body
			writeEnvelope(w, 200, "ok", map[string]any{
				"id": 31, "labId": body.LabID, "labName": body.LabName, "reserveDate": body.ReserveDate,
				"timeSlot": body.TimeSlot, "status": 0,
			})
		})
	}
}

func free(w http.ResponseWriter) { writeEnvelope(w, 200, "ok", false) }

func TestReserve(t *testing.T) {
	created := make(chan domain.ReservationRequest, 1)
	c := newCLI(t, bookingAPI(free, created))
	c.signIn(member)

	date := tomorrow()
	res := c.run("", "reserve", "--lab", "3", "--date", date, "--slot", "10:00-12:00",
		"--purpose", "interferometry", "--people", "9")
	if res.err != nil {
		t.Fatalf("reserve: %v (%s)", res.err, res.errOut)
	}
	req := <-created
	if req.PeopleNum != 4 || req.UserID != 7 || req.UserName != "Ada Lovelace" || req.LabName != "Optics" {
		t.Errorf("request = %+v", req)
	}
	if !strings.Contains(res.errOut, "people limited to 4 (lab capacity 4)") {
		t.Errorf("stderr = %q", res.errOut)
	}
	want := "#31 Optics " + date + " 10:00-12:00 (pending)"
	if !strings.Contains(res.out, want) {
		t.Errorf("out = %q, want %q", res.out, want)
	}
}

func TestReserveConflict(t *testing.T) {
	created := make(chan domain.ReservationRequest, 1)
	taken := func(w http.ResponseWriter) { writeEnvelope(w, 409, "slot already booked", nil) }
	c := newCLI(t, bookingAPI(taken, created))
	c.signIn(member)

	res := c.run("", "reserve", "--lab", "3", "--date", tomorrow(), "--slot", "10:00-12:00", "--purpose", "x")
	if res.err == nil || !strings.Contains(res.err.Error(), "slot already booked, pick another time") {
		t.Fatalf("err = %v", res.err)
	}
	select {
	case <-created:
		t.Error("reservation created despite the conflict")
	default:
	}
}

func TestReserveChecks(t *testing.T) {
	created := make(chan domain.ReservationRequest, 1)
	c := newCLI(t, bookingAPI(free, created))
	c.signIn(member)

	far := time.Now().AddDate(0, 0, 45).Format(domain.DateLayout)
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"outside window", []string{"--lab", "3", "--date", far, "--slot", "10:00-12:00", "--purpose", "x"}, "pick a date from"},
		{"closed lab", []string{"--lab", "5", "--date", tomorrow(), "--slot", "10:00-12:00", "--purpose", "x"}, "cannot be booked"},
		{"no purpose", []string{"--lab", "3", "--date", tomorrow(), "--slot", "10:00-12:00"}, "purpose is required"},
		{"bad slot", []string{"--lab", "3", "--date", tomorrow(), "--slot", "morning", "--purpose", "x"}, "must look like 08:00-10:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := c.run("", append([]string{"reserve"}, tt.args...)...)
			if res.err == nil || !strings.Contains(res.errOut, tt.want) {
				t.Errorf("err = %v, stderr = %q, want %q", res.err, res.errOut, tt.want)
			}
		})
	}
}

var myReservations = []map[string]any{
	{"id": 11, "labId": 3, "labName": "Optics", "reserveDate": "2026-03-10", "timeSlot": "08:00-10:00", "status": 0},
	{"id": 12, "labId": 3, "labName": "Optics", "reserveDate": "2026-03-11", "timeSlot": "10:00-12:00", "status": 2},
}

func TestReservationsMineFiltersStatus(t *testing.T) {
	c := newCLI(t, func(r chi.Router) {
		r.Get("/api/reservation/user/7", ok(myReservations))
	})
	c.signIn(member)

	res := c.run("", "reservations", "mine")
	if res.err != nil || !strings.Contains(res.out, "2026-03-10") || !strings.Contains(res.out, "2026-03-11") {
		t.Fatalf("mine: %v %q", res.err, res.out)
	}

	res = c.run("", "res", "mine", "--status", "rejected")
	if res.err != nil {
		t.Fatal(res.err)
	}
	if strings.Contains(res.out, "2026-03-10") || !strings.Contains(res.out, "rejected") {
		t.Errorf("filtered out = %q", res.out)
	}
}

func TestReservationsShow(t *testing.T) {
	c := newCLI(t, func(r chi.Router) {
		r.Get("/api/reservation/11", ok(map[string]any{
			"id": 11, "labId": 3, "labName": "Optics", "reserveDate": "2026-03-10", "timeSlot": "08:00-10:00",
			"status": 1, "purpose": "alignment", "peopleNum": 2, "approvalNote": "bring goggles",
		}))
	})
	res := c.run("", "reservations", "show", "#11")
	if res.err != nil {
		t.Fatal(res.err)
	}
	for _, want := range []string{"#11 Optics 2026-03-10 08:00-10:00 (approved)", "alignment", "bring goggles"} {
		if !strings.Contains(res.out, want) {
			t.Errorf("missing %q in %q", want, res.out)
		}
	}
}

func TestReservationsCancel(t *testing.T) {
	var cancels atomic.Int32
	c := newCLI(t, func(r chi.Router) {
		r.Get("/api/reservation/11", ok(myReservations[0]))
		r.Get("/api/reservation/12", ok(myReservations[1]))
		r.Put("/api/reservation/cancel/{id}", func(w http.ResponseWriter, _ *http.Request) {
			cancels.Add(1)
			writeEnvelope(w, 200, "ok", nil)
		})
	})
	c.signIn(member)

	res := c.run("n\n", "reservations", "cancel", "11")
	if res.err != nil || !strings.Contains(res.out, "kept") || cancels.Load() != 0 {
		t.Fatalf("declined cancel: %v %q calls=%d", res.err, res.out, cancels.Load())
	}

	res = c.run("y\n", "reservations", "cancel", "11")
	if res.err != nil || !strings.Contains(res.out, "reservation #11 cancelled") || cancels.Load() != 1 {
		t.Fatalf("confirmed cancel: %v %q calls=%d", res.err, res.out, cancels.Load())
	}

	res = c.run("", "reservations", "cancel", "11", "--yes")
	if res.err != nil || cancels.Load() != 2 {
		t.Fatalf("--yes cancel: %v calls=%d", res.err, cancels.Load())
	}

	res = c.run("", "reservations", "cancel", "12", "-y")
	if res.err == nil || !strings.Contains(res.errOut, "cannot be cancelled") {
		t.Errorf("rejected reservation: %v %q", res.err, res.errOut)
	}
	if cancels.Load() != 2 {
		t.Error("rejected reservation was cancelled")
	}
}

func TestReservationsCheck(t *testing.T) {
	var conflict atomic.Bool
	c := newCLI(t, func(r chi.Router) {
		r.Get("/api/reservation/check-conflict", func(w http.ResponseWriter, _ *http.Request) {
			writeEnvelope(w, 200, "ok", conflict.Load())
		})
	})

	res := c.run("", "reservations", "check", "3", "2026-03-10", "08:00-10:00")
	if res.err != nil || !strings.Contains(res.out, "free") {
		t.Fatalf("free slot: %v %q", res.err, res.out)
	}
	conflict.Store(true)
	res = c.run("", "reservations", "check", "3", "2026-03-10", "08:00-10:00")
	if res.err != nil || !strings.Contains(res.out, "taken") {
		t.Errorf("taken slot: %v %q", res.err, res.out)
	}
}
