package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/labdesk/labctl/internal/session"
	"github.com/labdesk/labctl/internal/storage"
	"github.com/labdesk/labctl/pkg/client"
	"github.com/labdesk/labctl/pkg/domain"
)

func newTestApp(t *testing.T, sess *session.Store) App {
	t.Helper()
	a := NewApp(Deps{Session: sess, Bridge: NewBridge(), Version: "dev"})
	model, _ := a.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return model.(App)
}

func update(a App, msg tea.Msg) (App, tea.Cmd) {
	model, cmd := a.Update(msg)
	return model.(App), cmd
}

func TestNewAppStartsOnLoginWithoutSession(t *testing.T) {
	a := newTestApp(t, session.New(storage.NewMemoryStorage(), nil))
	if a.view != viewLogin {
		t.Errorf("view = %v, want login", a.view)
	}
	if !a.deps.Bridge.OnLoginRoute() {
		t.Error("bridge should report the login route")
	}
}

func TestNewAppStartsOnHomeWhenSignedIn(t *testing.T) {
	a := newTestApp(t, signedIn(t))
	if a.view != viewHome {
		t.Errorf("view = %v, want home", a.view)
	}
	if a.deps.Bridge.OnLoginRoute() {
		t.Error("bridge should not report the login route on home")
	}
}

func TestAppTabSwitching(t *testing.T) {
	tests := []struct {
		key      string
		wantView view
	}{
		{"1", viewHome},
		{"2", viewLabs},
		{"3", viewReservations},
		{"4", viewMessages},
		{"5", viewProfile},
	}

	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			a := newTestApp(t, signedIn(t))
			a, _ = update(a, key(tc.key))
			if a.view != tc.wantView {
				t.Errorf("after key %q: view = %v, want %v", tc.key, a.view, tc.wantView)
			}
		})
	}
}

func TestAppTabKeysTypeIntoLoginForm(t *testing.T) {
	a := newTestApp(t, session.New(storage.NewMemoryStorage(), nil))
	a, _ = update(a, key("3"))
	if a.view != viewLogin {
		t.Fatalf("view = %v, want login", a.view)
	}
	if got := a.login.form.value(0); got != "3" {
		t.Errorf("username = %q, want %q", got, "3")
	}
}

func TestAppNavigationCancelsPreviousView(t *testing.T) {
	a := newTestApp(t, signedIn(t))
	old := a.scope
	a, _ = update(a, key("2"))
	if old.ctx.Err() == nil {
		t.Error("leaving home should cancel its context")
	}
	if a.scope.gen != old.gen+1 {
		t.Errorf("gen = %d, want %d", a.scope.gen, old.gen+1)
	}
	if a.scope.ctx.Err() != nil {
		t.Error("the new view's context should be live")
	}
}

func TestAppDropsStaleResults(t *testing.T) {
	a := newTestApp(t, signedIn(t))
	gen := a.scope.gen

	a, _ = update(a, dashboardLoadedMsg{tag: tag{gen: gen - 1}, data: dashboard{unread: 42}})
	if a.home.loaded {
		t.Fatal("a result from an earlier visit must be dropped")
	}

	a, _ = update(a, dashboardLoadedMsg{tag: tag{gen: gen}, data: dashboard{unread: 42}})
	if !a.home.loaded {
		t.Fatal("a current result should be applied")
	}
	if !a.unreadKnown || a.unread != 42 {
		t.Errorf("unread = %d (known %v), want 42", a.unread, a.unreadKnown)
	}
	if !strings.Contains(a.tabBar(), "42") {
		t.Errorf("tab bar should carry the unread badge: %q", a.tabBar())
	}
}

func TestAppRedirectToLogin(t *testing.T) {
	sess := signedIn(t)
	a := newTestApp(t, sess)
	sess.ClearToken()

	a, _ = update(a, redirectLoginMsg{})
	if a.view != viewLogin {
		t.Errorf("view = %v, want login", a.view)
	}
	if !a.deps.Bridge.OnLoginRoute() {
		t.Error("bridge should report the login route after the redirect")
	}
}

func TestAppProtectedViewRequiresSession(t *testing.T) {
	a := newTestApp(t, session.New(storage.NewMemoryStorage(), nil))
	a, _ = update(a, navigateMsg{to: viewMessages})
	if a.view != viewLogin {
		t.Errorf("view = %v, want login", a.view)
	}
}

func TestAppAuthNavigation(t *testing.T) {
	a := newTestApp(t, session.New(storage.NewMemoryStorage(), nil))
	a, _ = update(a, navigateMsg{to: viewRegister})
	if a.view != viewRegister {
		t.Errorf("view = %v, want register", a.view)
	}
	a, _ = update(a, navigateMsg{to: viewForgot})
	if a.view != viewForgot {
		t.Errorf("view = %v, want forgot", a.view)
	}
}

func TestAppBookLabOpensWizard(t *testing.T) {
	a := newTestApp(t, signedIn(t))
	lab := domain.Laboratory{ID: 3, Name: "Optics", Capacity: 12, Status: domain.LabActive}
	a, _ = update(a, bookLabMsg{lab: lab})
	if a.view != viewReserve {
		t.Fatalf("view = %v, want reserve", a.view)
	}
	if a.reserve.lab.ID != 3 {
		t.Errorf("wizard lab = %d, want 3", a.reserve.lab.ID)
	}
	if !a.isEditing() {
		t.Error("the date step takes typed input")
	}
}

func TestAppToastLifecycle(t *testing.T) {
	a := newTestApp(t, signedIn(t))
	a, cmd := update(a, noticeMsg{Level: client.LevelWarn, Text: "network error, check your connection"})
	if cmd == nil {
		t.Fatal("a toast should schedule its own expiry")
	}
	if !strings.Contains(a.View(), "network error") {
		t.Fatal("toast not rendered")
	}

	a, _ = update(a, toastExpiredMsg{id: "someone-else"})
	if a.toast == nil {
		t.Fatal("an older toast's expiry must not clear the current one")
	}

	a, _ = update(a, toastExpiredMsg{id: a.toast.id})
	if a.toast != nil {
		t.Error("toast should clear on its own expiry")
	}
}

func TestAppSessionChangedElsewhere(t *testing.T) {
	sess := signedIn(t)
	a := newTestApp(t, sess)
	if err := sess.Logout(); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	a, _ = update(a, sessionChangedMsg{})
	if a.view != viewLogin {
		t.Errorf("view = %v, want login", a.view)
	}
}

func TestAppLoggedOut(t *testing.T) {
	a := newTestApp(t, signedIn(t))
	a, _ = update(a, key("5"))
	a, _ = update(a, loggedOutMsg{})
	if a.view != viewLogin {
		t.Errorf("view = %v, want login", a.view)
	}
	if a.unreadKnown {
		t.Error("unread badge should reset on logout")
	}
}

func TestAppQuit(t *testing.T) {
	a := newTestApp(t, signedIn(t))
	_, cmd := update(a, key("q"))
	if cmd == nil {
		t.Fatal("expected quit command on 'q'")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("'q' should quit")
	}

	login := newTestApp(t, session.New(storage.NewMemoryStorage(), nil))
	_, cmd = update(login, key("ctrl+c"))
	if cmd == nil {
		t.Fatal("ctrl+c should quit from a form")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c should quit")
	}
}

func TestAppHelpOverlay(t *testing.T) {
	a := newTestApp(t, signedIn(t))
	a, _ = update(a, key("h"))
	if !a.helpOpen {
		t.Fatal("h should open help")
	}
	if !strings.Contains(a.View(), "Commands") {
		t.Error("help overlay not rendered")
	}
	a, _ = update(a, key("esc"))
	if a.helpOpen {
		t.Error("esc should close help")
	}
}
