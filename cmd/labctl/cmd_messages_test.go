package main

import (
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/labdesk/labctl/pkg/domain"
)

var inbox = []map[string]any{
	{"id": 1, "receiverId": 7, "title": "Reservation approved", "content": "See you **Tuesday**.", "messageType": "RESERVATION_APPROVED", "isRead": false, "priority": 1},
	{"id": 2, "receiverId": 7, "title": "Maintenance window", "content": "Optics closes Friday.", "messageType": "SYSTEM", "isRead": true},
}

func TestMessagesList(t *testing.T) {
	size := make(chan string, 1)
	c := newCLI(t, func(r chi.Router) {
		r.Get("/api/messages/page/7", func(w http.ResponseWriter, req *http.Request) {
			size <- req.URL.Query().Get("pageSize")
			writeEnvelope(w, 200, "ok", map[string]any{"records": inbox, "total": 2})
		})
		r.Get("/api/messages/unread/7", ok(inbox[:1]))
	})
	c.signIn(member)

	res := c.run("", "messages", "list")
	if res.err != nil {
		t.Fatal(res.err)
	}
	if s := <-size; s != "10" {
		t.Errorf("pageSize = %q, want config default 10", s)
	}
	if !strings.Contains(res.out, "Reservation approved") || !strings.Contains(res.out, "Maintenance window") {
		t.Errorf("out = %q", res.out)
	}
	if !strings.Contains(res.out, "new!") {
		t.Errorf("unread high-priority marker missing: %q", res.out)
	}

	res = c.run("", "msg", "list", "--unread")
	if res.err != nil || strings.Contains(res.out, "Maintenance window") {
		t.Errorf("unread list: %v %q", res.err, res.out)
	}
}

func TestMessagesReadMarksRead(t *testing.T) {
	var marked atomic.Int64
	c := newCLI(t, func(r chi.Router) {
		r.Get("/api/messages/detail/1", ok(inbox[0]))
		r.Get("/api/messages/detail/2", ok(inbox[1]))
		r.Put("/api/messages/mark-read/{id}", func(w http.ResponseWriter, req *http.Request) {
			if req.URL.Query().Get("userId") == "7" {
				marked.Add(1)
			}
			writeEnvelope(w, 200, "ok", nil)
		})
	})
	c.signIn(member)

	res := c.run("", "messages", "read", "1")
	if res.err != nil {
		t.Fatal(res.err)
	}
	if !strings.Contains(res.out, "Reservation approved") || !strings.Contains(res.out, "Tuesday") {
		t.Errorf("out = %q", res.out)
	}
	if marked.Load() != 1 {
		t.Errorf("mark-read calls = %d", marked.Load())
	}

	if res := c.run("", "messages", "read", "2"); res.err != nil {
		t.Fatal(res.err)
	}
	if marked.Load() != 1 {
		t.Error("an already read message was marked again")
	}
}

func TestMessagesUnread(t *testing.T) {
	c := newCLI(t, func(r chi.Router) {
		r.Get("/api/messages/unread-count/7", ok(120))
		r.Get("/api/messages/unread-count-by-types/7", ok(map[string]int{"SYSTEM": 20, "RESERVATION_APPROVED": 100}))
	})
	c.signIn(member)

	res := c.run("", "messages", "unread")
	if res.err != nil {
		t.Fatal(res.err)
	}
	if !strings.Contains(res.out, "99+ unread") {
		t.Errorf("out = %q", res.out)
	}
	if !strings.Contains(res.out, domain.MessageTypeLabel("SYSTEM")) {
		t.Errorf("per-type counts missing: %q", res.out)
	}
}

func TestMessagesUnreadWithoutBreakdown(t *testing.T) {
	c := newCLI(t, func(r chi.Router) {
		r.Get("/api/messages/unread-count/7", ok(0))
	})
	c.signIn(member)

	res := c.run("", "messages", "unread")
	if res.err != nil {
		t.Fatal(res.err)
	}
	if !strings.Contains(res.out, "0 unread") {
		t.Errorf("out = %q", res.out)
	}
}

func TestMessagesMarkAll(t *testing.T) {
	var calls atomic.Int32
	c := newCLI(t, func(r chi.Router) {
		r.Put("/api/messages/mark-all-read/7", func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			writeEnvelope(w, 200, "ok", nil)
		})
	})
	c.signIn(member)

	res := c.run("", "messages", "mark-all")
	if res.err != nil || calls.Load() != 1 {
		t.Fatalf("mark-all: %v calls=%d", res.err, calls.Load())
	}
}
