package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/labdesk/labctl/internal/validate"
	"github.com/labdesk/labctl/pkg/domain"
)

type loginDoneMsg struct {
	tag
	err error
}

type loginModel struct {
	env
	form       form
	submitting bool
	err        string
}

func newLoginModel(e env) loginModel {
	return loginModel{
		env: e,
		form: newForm(
			[]string{"username", "password"},
			[]textinput.Model{newInput("username", false), newInput("password", true)},
		),
	}
}

func (m loginModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m loginModel) request() domain.LoginRequest {
	return domain.LoginRequest{
		Username: m.form.value(0),
		Password: m.form.inputs[1].Value(),
	}
}

func (m loginModel) submit() (loginModel, tea.Cmd) {
	req := m.request()
	if err := validate.Struct(req); err != nil {
		m.err = firstProblem(err)
		return m, nil
	}
	m.err = ""
	m.submitting = true
	sess, c, s := m.session, m.client, m.scope
	return m, func() tea.Msg {
		_, err := sess.Login(s.context(), c, req)
		return loginDoneMsg{tag: s.tag(), err: err}
	}
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case loginDoneMsg:
		m.submitting = false
		if msg.err != nil {
			// The client has already shown a notice; keep a copy on the form.
			m.err = errText(msg.err)
			m.form.inputs[1].SetValue("")
			m.form.focusOn(1)
			return m, nil
		}
		return m, func() tea.Msg { return loggedInMsg{} }

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch msg.String() {
		case "tab", "down":
			m.form.next()
			return m, nil
		case "shift+tab", "up":
			m.form.prev()
			return m, nil
		case "enter":
			if !m.form.last() {
				m.form.next()
				return m, nil
			}
			return m.submit()
		case "ctrl+r":
			return m, navigate(viewRegister)
		case "ctrl+f":
			return m, navigate(viewForgot)
		}
	}
	return m, m.form.update(msg)
}

func (m loginModel) View() string {
	var sb strings.Builder
	sb.WriteString("\n  " + titleStyle.Render("Sign in") + "\n\n")
	sb.WriteString(m.form.view())
	sb.WriteString("\n")
	switch {
	case m.submitting:
		sb.WriteString("  " + dimStyle.Render("signing in...") + "\n")
	case m.err != "":
		sb.WriteString("  " + errorStyle.Render(m.err) + "\n")
	}
	return sb.String()
}

func (m loginModel) helpKeys() string {
	return helpBar("tab", "next", "enter", "sign in", "ctrl+r", "register", "ctrl+f", "forgot password", "ctrl+c", "quit")
}
