package tui

import (
	"net/http"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-chi/chi/v5"

	"github.com/labdesk/labctl/internal/paging"
	"github.com/labdesk/labctl/pkg/domain"
)

func msgPage(page int, more bool, msgs ...domain.Message) messagesPageMsg {
	return messagesPageMsg{page: paging.Page[domain.Message]{Items: msgs, Page: page, Size: 10, HasMore: more}}
}

var (
	unreadMsg = domain.Message{ID: 1, Title: "Reservation approved", Content: "See you **Monday**.", Type: "RESERVATION"}
	readMsg   = domain.Message{ID: 2, Title: "Maintenance window", Read: true, Type: "SYSTEM"}
)

func TestMessagesFeedLoadsMore(t *testing.T) {
	m := newMessagesModel(testEnv(t, nil))
	if !strings.Contains(m.View(), "loading messages") {
		t.Error("first load should show loading")
	}

	m, _ = m.Update(msgPage(1, true, unreadMsg))
	if len(m.feed.Items) != 1 || m.loading {
		t.Fatalf("items = %d, loading = %v", len(m.feed.Items), m.loading)
	}
	if !strings.Contains(m.View(), "m for more") {
		t.Error("more pages should be offered")
	}

	m, cmd := m.Update(key("m"))
	if cmd == nil || !m.loading {
		t.Fatal("m should request the next page")
	}

	// A duplicate first page arriving late is not appended.
	m, _ = m.Update(msgPage(1, true, unreadMsg))
	if len(m.feed.Items) != 1 {
		t.Errorf("items = %d after a stale page, want 1", len(m.feed.Items))
	}

	m, _ = m.Update(msgPage(2, false, readMsg))
	if len(m.feed.Items) != 2 || m.feed.HasMore() {
		t.Errorf("items = %d, hasMore = %v", len(m.feed.Items), m.feed.HasMore())
	}
}

func TestMessagesUnreadBookkeeping(t *testing.T) {
	m := newMessagesModel(testEnv(t, nil))
	m, _ = m.Update(msgPage(1, false, unreadMsg, readMsg))
	m, _ = m.Update(unreadCountMsg{n: 5})
	if !m.unreadKnown || m.unread != 5 {
		t.Fatalf("unread = %d", m.unread)
	}

	m, _ = m.Update(messageReadMsg{id: 1})
	if m.unread != 4 || !m.feed.Items[0].Read {
		t.Errorf("after mark read: unread = %d, read = %v", m.unread, m.feed.Items[0].Read)
	}
	// Marking the same message twice does not count twice.
	m, _ = m.Update(messageReadMsg{id: 1})
	if m.unread != 4 {
		t.Errorf("unread = %d, want 4", m.unread)
	}

	m, cmd := m.Update(allReadMsg{})
	if m.unread != 0 || cmd == nil {
		t.Errorf("mark all read: unread = %d", m.unread)
	}
}

func TestMessagesDeleteNeedsConfirmation(t *testing.T) {
	m := newMessagesModel(testEnv(t, nil))
	m, _ = m.Update(msgPage(1, false, unreadMsg, readMsg))
	m, _ = m.Update(unreadCountMsg{n: 1})

	m, _ = m.Update(key("d"))
	if !m.confirming {
		t.Fatal("d should ask first")
	}
	m, cmd := m.Update(key("n"))
	if cmd != nil || m.confirming {
		t.Error("anything but y keeps the message")
	}

	m, _ = m.Update(messageDeletedMsg{id: 1})
	if len(m.feed.Items) != 1 || m.feed.Items[0].ID != 2 {
		t.Errorf("items = %+v", m.feed.Items)
	}
	if m.unread != 0 {
		t.Errorf("deleting an unread message should drop the count, got %d", m.unread)
	}
}

func TestMessagesOpenMarksRead(t *testing.T) {
	sess := signedIn(t)
	marked := make(chan string, 1)
	c := fakeAPI(t, sess, func(r chi.Router) {
		r.Put("/api/messages/mark-read/{id}", func(w http.ResponseWriter, r *http.Request) {
			marked <- chi.URLParam(r, "id")
			writeEnvelope(w, 200, "ok", nil)
		})
	})
	e := testEnv(t, c)
	e.session = sess
	m := newMessagesModel(e)
	m, _ = m.Update(msgPage(1, false, unreadMsg))

	m, cmd := m.Update(key("enter"))
	if !m.detail || cmd == nil {
		t.Fatal("enter should open the message")
	}
	if !strings.Contains(m.View(), "rendering") {
		t.Error("detail should show a placeholder until rendered")
	}

	batch, ok := cmd().(tea.BatchMsg)
	if !ok || len(batch) != 2 {
		t.Fatalf("expected render and mark-read commands, got %T", cmd())
	}
	for _, c := range batch {
		m, _ = m.Update(c())
	}
	if id := <-marked; id != "1" {
		t.Errorf("marked %s, want 1", id)
	}
	if !m.feed.Items[0].Read {
		t.Error("opened message should be marked read locally")
	}
	if !strings.Contains(m.View(), "Monday") {
		t.Errorf("rendered message not shown:\n%s", m.View())
	}

	m, _ = m.Update(key("esc"))
	if m.detail {
		t.Error("esc should close the message")
	}
}
