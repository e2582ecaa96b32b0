package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/labdesk/labctl/internal/session"
	"github.com/labdesk/labctl/pkg/client"
	"github.com/labdesk/labctl/pkg/domain"
)

type view int

const (
	viewLogin view = iota
	viewRegister
	viewForgot
	viewHome
	viewLabs
	viewReserve
	viewReservations
	viewMessages
	viewProfile
)

// auth reports whether v is reachable without a session.
func (v view) auth() bool {
	return v == viewLogin || v == viewRegister || v == viewForgot
}

func (v view) String() string {
	switch v {
	case viewLogin:
		return "login"
	case viewRegister:
		return "register"
	case viewForgot:
		return "forgot"
	case viewHome:
		return "home"
	case viewLabs:
		return "labs"
	case viewReserve:
		return "reserve"
	case viewReservations:
		return "reservations"
	case viewMessages:
		return "messages"
	case viewProfile:
		return "profile"
	}
	return "unknown"
}

// toastTTL is how long a notice stays on screen.
const toastTTL = 3 * time.Second

type navigateMsg struct{ to view }

func navigate(v view) tea.Cmd {
	return func() tea.Msg { return navigateMsg{to: v} }
}

// bookLabMsg opens the reservation wizard for a laboratory.
type bookLabMsg struct{ lab domain.Laboratory }

// loggedInMsg is sent once a session has been established.
type loggedInMsg struct{}

// sessionChangedMsg fires when another process rewrote the session.
type sessionChangedMsg struct{}

type toastExpiredMsg struct{ id string }

// env is what every view gets when it is created.
type env struct {
	client   *client.Client
	session  *session.Store
	pageSize int
	scope    scope
	width    int
	height   int
}

type toast struct {
	id     string
	notice client.Notice
}

// Deps wires the console to the rest of labctl.
type Deps struct {
	Client   *client.Client
	Session  *session.Store
	Bridge   *Bridge
	Logger   *zap.Logger
	PageSize int
	Version  string
	// ReleaseURL is checked for newer builds; empty disables the check.
	ReleaseURL string
	// Changes delivers a value whenever the stored session changes on disk.
	Changes <-chan struct{}
}

type tabEntry struct {
	key  string
	name string
	v    view
}

var tabs = []tabEntry{
	{"1", "Home", viewHome},
	{"2", "Labs", viewLabs},
	{"3", "Reservations", viewReservations},
	{"4", "Messages", viewMessages},
	{"5", "Profile", viewProfile},
}

// App is the root Bubbletea model. Only the current view's model is live;
// every visit builds a fresh one.
type App struct {
	deps   Deps
	log    *zap.Logger
	view   view
	scope  scope
	cancel context.CancelFunc

	login        loginModel
	register     registerModel
	forgot       forgotModel
	home         homeModel
	labs         labsModel
	reserve      reserveModel
	reservations reservationsModel
	messages     messagesModel
	profile      profileModel

	initCmd     tea.Cmd
	helpOpen    bool
	toast       *toast
	unread      int
	unreadKnown bool
	latest      string
	width       int
	height      int
	frame       int
}

// NewApp creates the console, starting on home when a session exists.
func NewApp(d Deps) App {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.PageSize <= 0 {
		d.PageSize = 10
	}
	a := App{deps: d, log: d.Logger}
	start := viewLogin
	if d.Session != nil && d.Session.LoggedIn() {
		start = viewHome
	}
	a, a.initCmd = a.enter(start, domain.Laboratory{})
	return a
}

func (a App) Init() tea.Cmd {
	return tea.Batch(a.initCmd, shimmerTickCmd(), checkVersion(a.deps.ReleaseURL, a.deps.Version), a.waitForChange())
}

func (a App) waitForChange() tea.Cmd {
	ch := a.deps.Changes
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return sessionChangedMsg{}
	}
}

func (a App) loggedIn() bool {
	return a.deps.Session != nil && a.deps.Session.LoggedIn()
}

// enter tears down the current view and builds v. Requests still in
// flight for the old view are cancelled and their results dropped.
func (a App) enter(v view, lab domain.Laboratory) (App, tea.Cmd) {
	if !v.auth() && !a.loggedIn() {
		v = viewLogin
	}
	if a.cancel != nil {
		a.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.scope = scope{ctx: ctx, gen: a.scope.gen + 1}
	a.view = v
	a.helpOpen = false
	a.deps.Bridge.setRoute(v)
	a.log.Debug("view", zap.Stringer("view", v), zap.Int("gen", a.scope.gen))

	e := env{
		client:   a.deps.Client,
		session:  a.deps.Session,
		pageSize: a.deps.PageSize,
		scope:    a.scope,
		width:    a.width,
		height:   a.bodyHeight(),
	}
	switch v {
	case viewLogin:
		a.login = newLoginModel(e)
		return a, a.login.Init()
	case viewRegister:
		a.register = newRegisterModel(e)
		return a, a.register.Init()
	case viewForgot:
		a.forgot = newForgotModel(e)
		return a, a.forgot.Init()
	case viewHome:
		a.home = newHomeModel(e)
		return a, a.home.Init()
	case viewLabs:
		a.labs = newLabsModel(e)
		return a, a.labs.Init()
	case viewReserve:
		a.reserve = newReserveModel(e, lab)
		return a, a.reserve.Init()
	case viewReservations:
		a.reservations = newReservationsModel(e)
		return a, a.reservations.Init()
	case viewMessages:
		a.messages = newMessagesModel(e)
		return a, a.messages.Init()
	case viewProfile:
		a.profile = newProfileModel(e)
		return a, a.profile.Init()
	}
	return a, nil
}

// Chrome: header(2) + tabs(1) + toast(1) + help(1).
const chromeLines = 5

func (a App) bodyHeight() int {
	return max(a.height-chromeLines, 0)
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if sm, ok := msg.(scopedMsg); ok && sm.generation() != a.scope.gen {
		return a, nil
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		msg.Height = a.bodyHeight()
		return a.route(msg)

	case shimmerTickMsg:
		a.frame++
		return a, shimmerTickCmd()

	case versionCheckMsg:
		if msg.hasUpdate {
			a.latest = msg.latestVersion
		}
		return a, nil

	case navigateMsg:
		return a.enter(msg.to, domain.Laboratory{})

	case bookLabMsg:
		return a.enter(viewReserve, msg.lab)

	case loggedInMsg:
		return a.enter(viewHome, domain.Laboratory{})

	case loggedOutMsg:
		a.unread, a.unreadKnown = 0, false
		a, cmd := a.enter(viewLogin, domain.Laboratory{})
		return a, tea.Batch(cmd, notify(client.LevelInfo, "signed out"))

	case redirectLoginMsg:
		a.unread, a.unreadKnown = 0, false
		if a.view.auth() {
			return a, nil
		}
		return a.enter(viewLogin, domain.Laboratory{})

	case sessionChangedMsg:
		wait := a.waitForChange()
		switch {
		case !a.loggedIn() && !a.view.auth():
			a, cmd := a.enter(viewLogin, domain.Laboratory{})
			return a, tea.Batch(cmd, wait, notify(client.LevelWarn, "signed out elsewhere"))
		case a.loggedIn() && a.view.auth():
			a, cmd := a.enter(viewHome, domain.Laboratory{})
			return a, tea.Batch(cmd, wait)
		}
		return a, wait

	case noticeMsg:
		t := &toast{id: uuid.NewString(), notice: client.Notice(msg)}
		a.toast = t
		return a, tea.Tick(toastTTL, func(time.Time) tea.Msg { return toastExpiredMsg{id: t.id} })

	case toastExpiredMsg:
		if a.toast != nil && a.toast.id == msg.id {
			a.toast = nil
		}
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a.quit()
		}
		if a.helpOpen {
			switch msg.String() {
			case "h", "esc":
				a.helpOpen = false
			case "q":
				return a.quit()
			}
			return a, nil
		}
		if !a.isEditing() {
			switch msg.String() {
			case "h":
				a.helpOpen = true
				return a, nil
			case "q":
				return a.quit()
			}
			if !a.view.auth() {
				for _, t := range tabs {
					if msg.String() == t.key {
						if a.view == t.v {
							return a, nil
						}
						return a.enter(t.v, domain.Laboratory{})
					}
				}
			}
		}
	}

	return a.route(msg)
}

func (a App) quit() (tea.Model, tea.Cmd) {
	if a.cancel != nil {
		a.cancel()
	}
	return a, tea.Quit
}

// route hands msg to the current view.
func (a App) route(msg tea.Msg) (App, tea.Cmd) {
	var cmd tea.Cmd
	switch a.view {
	case viewLogin:
		a.login, cmd = a.login.Update(msg)
	case viewRegister:
		a.register, cmd = a.register.Update(msg)
	case viewForgot:
		a.forgot, cmd = a.forgot.Update(msg)
	case viewHome:
		a.home, cmd = a.home.Update(msg)
		if n, ok := a.home.unread(); ok {
			a.unread, a.unreadKnown = n, true
		}
	case viewLabs:
		a.labs, cmd = a.labs.Update(msg)
	case viewReserve:
		a.reserve, cmd = a.reserve.Update(msg)
	case viewReservations:
		a.reservations, cmd = a.reservations.Update(msg)
	case viewMessages:
		a.messages, cmd = a.messages.Update(msg)
		if a.messages.unreadKnown {
			a.unread, a.unreadKnown = a.messages.unread, true
		}
	case viewProfile:
		a.profile, cmd = a.profile.Update(msg)
	}
	return a, cmd
}

// isEditing reports whether keystrokes belong to a text input.
func (a App) isEditing() bool {
	switch a.view {
	case viewLogin, viewRegister, viewForgot:
		return true
	case viewLabs:
		return a.labs.editing()
	case viewReserve:
		return a.reserve.step == stepDate || a.reserve.step == stepDetails
	}
	return false
}

func center(s string, width int) string {
	pad := max((width-lipgloss.Width(s))/2, 0)
	return strings.Repeat(" ", pad) + s
}

func (a App) statusLine() string {
	var parts []string
	if a.deps.Session != nil {
		if p, ok := a.deps.Session.Profile(); ok && !a.view.auth() {
			name := p.DisplayName()
			if p.IsAdmin() {
				name += " (admin)"
			}
			parts = append(parts, name)
		}
	}
	if a.latest != "" {
		parts = append(parts, warnStyle.Render(a.latest+" available"))
	}
	if len(parts) == 0 {
		return ""
	}
	return metaStyle.Render(strings.Join(parts, " · "))
}

func (a App) tabBar() string {
	if a.view.auth() {
		return center(dimStyle.Render("sign in to book laboratories"), a.width)
	}
	current := a.view
	if current == viewReserve {
		current = viewLabs
	}
	colWidth := a.width / len(tabs)
	var sb strings.Builder
	for _, t := range tabs {
		var label string
		if t.v == current {
			label = accentStyle.Render(t.key) + " " + selectedStyle.Underline(true).Render(t.name)
		} else {
			label = metaStyle.Render(t.key) + " " + dimStyle.Render(t.name)
		}
		if t.v == viewMessages && a.unreadKnown && a.unread > 0 {
			label += " " + badgeStyle.Render(domain.UnreadBadge(a.unread))
		}
		w := lipgloss.Width(label)
		left := max((colWidth-w)/2, 0)
		right := max(colWidth-w-left, 0)
		sb.WriteString(strings.Repeat(" ", left) + label + strings.Repeat(" ", right))
	}
	return sb.String()
}

func (a App) body() (string, string) {
	switch a.view {
	case viewLogin:
		return a.login.View(), a.login.helpKeys()
	case viewRegister:
		return a.register.View(), a.register.helpKeys()
	case viewForgot:
		return a.forgot.View(), a.forgot.helpKeys()
	case viewHome:
		return a.home.View(), a.home.helpKeys()
	case viewLabs:
		return a.labs.View(), a.labs.helpKeys()
	case viewReserve:
		return a.reserve.View(), a.reserve.helpKeys()
	case viewReservations:
		return a.reservations.View(), a.reservations.helpKeys()
	case viewMessages:
		return a.messages.View(), a.messages.helpKeys()
	case viewProfile:
		return a.profile.View(), a.profile.helpKeys()
	}
	return "", ""
}

func (a App) View() string {
	header := center(renderShimmerLogo(a.frame), a.width) + "\n" + center(a.statusLine(), a.width)

	body, help := a.body()
	if a.helpOpen {
		body = helpView()
		help = helpBar("esc", "close", "q", "quit")
	}
	body = strings.TrimRight(truncateToHeight(body, a.bodyHeight()), "\n")

	var toastLine string
	if a.toast != nil {
		toastLine = " " + noticeStyle(a.toast.notice.Level).Render(a.toast.notice.Text)
	}

	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s", header, a.tabBar(), body, toastLine, help)
}
