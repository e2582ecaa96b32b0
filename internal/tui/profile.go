package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/labdesk/labctl/pkg/client"
	"github.com/labdesk/labctl/pkg/domain"
)

type profileRefreshedMsg struct {
	tag
	user *domain.User
	err  error
}

type loggedOutMsg struct{}

// setting is one toggle on the profile page.
type setting struct {
	label string
	field func(*domain.AppSettings) *bool
}

var settingRows = []setting{
	{"message notifications", func(s *domain.AppSettings) *bool { return &s.MessageNotification }},
	{"sound reminder", func(s *domain.AppSettings) *bool { return &s.SoundReminder }},
	{"vibration reminder", func(s *domain.AppSettings) *bool { return &s.VibrationReminder }},
	{"show reservation history", func(s *domain.AppSettings) *bool { return &s.ShowReservationHistory }},
	{"show contact info", func(s *domain.AppSettings) *bool { return &s.ShowContactInfo }},
}

// profileModel shows the cached profile, token expiry and local settings.
type profileModel struct {
	env
	profile    domain.UserProfile
	hasProfile bool
	expiry     time.Time
	hasExpiry  bool
	settings   domain.AppSettings
	cursor     int
	refreshing bool
	confirming bool
	now        func() time.Time
}

func newProfileModel(e env) profileModel {
	m := profileModel{env: e, now: time.Now}
	if e.session != nil {
		m.profile, m.hasProfile = e.session.Profile()
		m.expiry, m.hasExpiry = e.session.TokenExpiry()
		m.settings = e.session.Settings()
	}
	return m
}

// Init refreshes the cached profile from the server.
func (m profileModel) Init() tea.Cmd {
	if !m.hasProfile || m.profile.UserID == 0 {
		return nil
	}
	c, s, id := m.client, m.scope, m.profile.UserID
	return func() tea.Msg {
		u, err := c.GetUser(s.context(), id)
		return profileRefreshedMsg{tag: s.tag(), user: u, err: err}
	}
}

func (m profileModel) Update(msg tea.Msg) (profileModel, tea.Cmd) {
	switch msg := msg.(type) {
	case profileRefreshedMsg:
		m.refreshing = false
		if msg.err != nil || msg.user == nil {
			return m, nil
		}
		fresh := msg.user.Profile()
		if err := m.session.UpdateProfile(func(p *domain.UserProfile) { *p = fresh }); err != nil {
			return m, nil
		}
		m.profile, m.hasProfile = fresh, true
		return m, nil

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.confirming {
			m.confirming = false
			if msg.String() == "y" {
				return m, m.logout()
			}
			return m, nil
		}
		switch msg.String() {
		case "j", "down":
			m.cursor = moveCursor(m.cursor, 1, len(settingRows))
		case "k", "up":
			m.cursor = moveCursor(m.cursor, -1, len(settingRows))
		case " ", "enter":
			next := m.settings
			p := settingRows[m.cursor].field(&next)
			*p = !*p
			if err := m.session.SaveSettings(next); err != nil {
				return m, notify(client.LevelError, "could not save settings: "+err.Error())
			}
			m.settings = next
		case "r":
			m.refreshing = true
			return m, m.Init()
		case "c":
			return m, copyText(fmt.Sprintf("%s (%s)", m.profile.DisplayName(), m.profile.Username), "profile copied")
		case "o":
			m.confirming = true
		}
	}
	return m, nil
}

func (m profileModel) logout() tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		if err := sess.Logout(); err != nil {
			return noticeMsg{Level: client.LevelError, Text: "logout: " + err.Error()}
		}
		return loggedOutMsg{}
	}
}

func (m profileModel) View() string {
	var sb strings.Builder
	if !m.hasProfile {
		sb.WriteString("\n  " + dimStyle.Render("no profile cached") + "\n")
	} else {
		p := m.profile
		role := "member"
		if p.IsAdmin() {
			role = "administrator"
		}
		sb.WriteString("\n  " + titleStyle.Render(p.DisplayName()) + "  " + dimStyle.Render(role) + "\n\n")
		row := func(label, value string) {
			if value != "" {
				sb.WriteString("  " + dimStyle.Render(fmt.Sprintf("%-12s", label)) + normalStyle.Render(value) + "\n")
			}
		}
		row("username", p.Username)
		row("user id", fmt.Sprintf("%d", p.UserID))
		if m.settings.ShowContactInfo {
			row("email", p.Email)
		}
	}

	sb.WriteString("  " + dimStyle.Render(fmt.Sprintf("%-12s", "session")) + m.expiryText() + "\n")

	sb.WriteString("\n  " + sectionHeaderStyle.Render("SETTINGS") + "\n")
	for i, row := range settingRows {
		v := *row.field(&m.settings)
		box := metaStyle.Render("[ ]")
		if v {
			box = accentStyle.Render("[x]")
		}
		label := normalStyle.Render(row.label)
		marker := "  "
		if i == m.cursor {
			marker = accentStyle.Render("> ")
			label = selectedStyle.Render(row.label)
		}
		sb.WriteString("  " + marker + box + " " + label + "\n")
	}

	switch {
	case m.confirming:
		sb.WriteString("\n  " + warnStyle.Render("sign out? y to confirm") + "\n")
	case m.refreshing:
		sb.WriteString("\n  " + dimStyle.Render("refreshing...") + "\n")
	}
	return sb.String()
}

// expiryText describes the advisory token expiry.
func (m profileModel) expiryText() string {
	if !m.hasExpiry {
		return dimStyle.Render("no expiry recorded")
	}
	left := m.expiry.Sub(m.now())
	if left <= 0 {
		return errorStyle.Render("expired " + m.expiry.Format("2006-01-02 15:04"))
	}
	return normalStyle.Render("expires "+m.expiry.Format("2006-01-02 15:04")) + dimStyle.Render(" (in "+left.Round(time.Minute).String()+")")
}

func (m profileModel) helpKeys() string {
	return helpBar("1-5", "tabs", "j/k", "nav", "space", "toggle", "r", "refresh", "c", "copy", "o", "sign out", "q", "quit")
}
