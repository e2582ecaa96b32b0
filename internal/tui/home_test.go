package tui

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/labdesk/labctl/pkg/domain"
)

var chem = domain.Laboratory{ID: 1, Name: "Chemistry 101", Type: "chemistry", Location: "B-201", Capacity: 20, Status: domain.LabActive}

func TestHomeWidgetsDegradeIndividually(t *testing.T) {
	m := newHomeModel(testEnv(t, nil))
	if !strings.Contains(m.View(), "loading dashboard") {
		t.Error("expected loading state before the first result")
	}

	var errs [widgetCount]error
	errs[widgetStats] = errors.New("boom")
	m, _ = m.Update(dashboardLoadedMsg{data: dashboard{labs: []domain.Laboratory{chem}, unread: 2}, errs: errs})

	view := m.View()
	if !strings.Contains(view, "statistics unavailable") {
		t.Error("failed statistics widget should say so")
	}
	if !strings.Contains(view, "Chemistry 101") {
		t.Error("laboratories should render despite the statistics failure")
	}
	if n, ok := m.unread(); !ok || n != 2 {
		t.Errorf("unread() = %d, %v; want 2, true", n, ok)
	}
	if !strings.Contains(view, "Welcome, Ada Lovelace") {
		t.Error("greeting should use the cached profile")
	}

	// A later refresh where only the labs fail keeps the last good list.
	errs = [widgetCount]error{}
	errs[widgetLabs] = errors.New("down")
	m, _ = m.Update(dashboardLoadedMsg{data: dashboard{unread: 5, stats: domain.Statistics{"total": float64(3)}}, errs: errs})
	if len(m.data.labs) != 1 {
		t.Errorf("labs = %d, want the previous list kept", len(m.data.labs))
	}
	if m.data.unread != 5 {
		t.Errorf("unread = %d, want 5", m.data.unread)
	}
	if !strings.Contains(m.View(), "total") {
		t.Error("statistics should render once they load")
	}
}

func TestLoadDashboardAgainstServer(t *testing.T) {
	sess := signedIn(t)
	c := fakeAPI(t, sess, func(r chi.Router) {
		r.Get("/api/laboratory/available", func(w http.ResponseWriter, r *http.Request) {
			labs := make([]map[string]any, 7)
			for i := range labs {
				labs[i] = map[string]any{"id": i + 1, "name": fmt.Sprintf("Lab %d", i+1), "status": 1, "capacity": 10}
			}
			writeEnvelope(w, 200, "ok", labs)
		})
		r.Get("/api/messages/unread-count/{userID}", func(w http.ResponseWriter, r *http.Request) {
			if chi.URLParam(r, "userID") != "7" {
				t.Errorf("unread count for user %s, want 7", chi.URLParam(r, "userID"))
			}
			writeEnvelope(w, 200, "ok", 3)
		})
		r.Get("/api/user/statistics", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
	})

	msg := loadDashboard(scope{gen: 4}, c, sess.UserID())
	if msg.generation() != 4 {
		t.Errorf("generation = %d, want 4", msg.generation())
	}
	if msg.errs[widgetLabs] != nil || msg.errs[widgetUnread] != nil {
		t.Fatalf("labs/unread failed: %v / %v", msg.errs[widgetLabs], msg.errs[widgetUnread])
	}
	if msg.errs[widgetStats] == nil {
		t.Error("statistics should fail on a 500")
	}
	if len(msg.data.labs) != featuredLabs {
		t.Errorf("labs = %d, want %d", len(msg.data.labs), featuredLabs)
	}
	if msg.data.unread != 3 {
		t.Errorf("unread = %d, want 3", msg.data.unread)
	}
}

func TestHomeBookSelectedLab(t *testing.T) {
	m := newHomeModel(testEnv(t, nil))
	other := chem
	other.ID, other.Name = 2, "Physics"
	m, _ = m.Update(dashboardLoadedMsg{data: dashboard{labs: []domain.Laboratory{chem, other}}})
	m, _ = m.Update(key("j"))
	_, cmd := m.Update(key("b"))
	if cmd == nil {
		t.Fatal("expected a booking command")
	}
	msg, ok := cmd().(bookLabMsg)
	if !ok || msg.lab.ID != 2 {
		t.Errorf("booked %+v, want lab 2", msg)
	}
}

func TestRenderStatsNumericOnly(t *testing.T) {
	out := renderStats(domain.Statistics{"pending": float64(2), "approved": 5, "label": "x"})
	for _, want := range []string{"2", "pending", "5", "approved"} {
		if !strings.Contains(out, want) {
			t.Errorf("renderStats missing %q: %q", want, out)
		}
	}
	if strings.Contains(out, "label") {
		t.Errorf("non-numeric entries should be skipped: %q", out)
	}
	if strings.Index(out, "approved") > strings.Index(out, "pending") {
		t.Error("keys should be sorted")
	}
}

func TestHomeSpinnerOnlyWhileLoading(t *testing.T) {
	m := newHomeModel(testEnv(t, nil))
	tick := m.spin.Tick()

	_, cmd := m.Update(tick)
	if cmd == nil {
		t.Error("spinner should keep ticking while the dashboard loads")
	}

	m, _ = m.Update(dashboardLoadedMsg{})
	if _, cmd := m.Update(tick); cmd != nil {
		t.Error("spinner should stop once the dashboard is loaded")
	}

	m, cmd = m.Update(key("r"))
	if !m.loading || cmd == nil {
		t.Error("refresh should start a load")
	}
	if _, cmd := m.Update(key("r")); cmd != nil {
		t.Error("refresh while loading should not start a second load")
	}
}
