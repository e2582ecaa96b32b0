package tui

import (
	"net/http"
	"net/http/httptest"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/labdesk/labctl/internal/session"
	"github.com/labdesk/labctl/internal/storage"
	"github.com/labdesk/labctl/pkg/client"
	"github.com/labdesk/labctl/pkg/domain"
)

var testProfile = domain.UserProfile{UserID: 7, Username: "ada", RealName: "Ada Lovelace", Email: "ada@example.edu"}

// signedIn returns a memory-backed session holding testProfile.
func signedIn(t *testing.T) *session.Store {
	t.Helper()
	s := session.New(storage.NewMemoryStorage(), nil)
	if err := s.Adopt("tok", testProfile); err != nil {
		t.Fatalf("Adopt: %v", err)
	}
	return s
}

func testEnv(t *testing.T, c *client.Client) env {
	t.Helper()
	return env{client: c, session: signedIn(t), pageSize: 10, scope: scope{gen: 1}, width: 100, height: 30}
}

// fakeAPI serves routes and returns a client whose token store is sess.
func fakeAPI(t *testing.T, sess *session.Store, routes func(r chi.Router)) *client.Client {
	t.Helper()
	r := chi.NewRouter()
	routes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return client.New(srv.URL, sess)
}

func writeEnvelope(w http.ResponseWriter, code int, msg string, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
		"code":    code,
		"message": msg,
		"data":    data,
		"success": code == 200,
	})
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	case "ctrl+f":
		return tea.KeyMsg{Type: tea.KeyCtrlF}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// mustNavigate runs cmd and checks it asks for view want.
func mustNavigate(t *testing.T, cmd tea.Cmd, want view) {
	t.Helper()
	if cmd == nil {
		t.Fatalf("expected navigate(%v), got nil cmd", want)
	}
	got := cmd()
	msg, ok := got.(navigateMsg)
	if !ok {
		t.Fatalf("expected navigateMsg, got %T", got)
	}
	if msg.to != want {
		t.Errorf("navigate to %v, want %v", msg.to, want)
	}
}
