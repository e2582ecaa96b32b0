package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/labdesk/labctl/internal/validate"
	"github.com/labdesk/labctl/pkg/client"
	"github.com/labdesk/labctl/pkg/domain"
)

type resetDoneMsg struct {
	tag
	err error
}

const (
	forgotEmail = iota
	forgotCode
	forgotPassword
)

// forgotModel resets a password with an emailed code.
type forgotModel struct {
	env
	form       form
	countdown  countdown
	sending    bool
	submitting bool
	err        string
	info       string
}

func newForgotModel(e env) forgotModel {
	return forgotModel{
		env: e,
		form: newForm(
			[]string{"email", "code", "new password"},
			[]textinput.Model{
				newInput("you@example.edu", false),
				newInput("6 digits", false),
				newInput("at least 6 characters", true),
			},
		),
	}
}

func (m forgotModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m forgotModel) request() domain.ResetPasswordByEmailRequest {
	return domain.ResetPasswordByEmailRequest{
		Email:       m.form.value(forgotEmail),
		Code:        m.form.value(forgotCode),
		NewPassword: m.form.inputs[forgotPassword].Value(),
	}
}

func (m forgotModel) Update(msg tea.Msg) (forgotModel, tea.Cmd) {
	switch msg := msg.(type) {
	case codeSentMsg:
		m.sending = false
		if msg.err != nil {
			m.err = errText(msg.err)
			return m, nil
		}
		m.err = ""
		m.info = "code sent to " + m.form.value(forgotEmail)
		m.form.focusOn(forgotCode)
		var cmd tea.Cmd
		m.countdown, cmd = m.countdown.start(m.scope)
		return m, cmd

	case countdownTickMsg:
		var cmd tea.Cmd
		m.countdown, cmd = m.countdown.update(msg, m.scope)
		return m, cmd

	case resetDoneMsg:
		m.submitting = false
		if msg.err != nil {
			m.err = errText(msg.err)
			return m, nil
		}
		m.countdown = m.countdown.stop()
		return m, tea.Batch(
			notify(client.LevelInfo, "password reset, please sign in"),
			navigate(viewLogin),
		)

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
		case "ctrl+s":
			if m.countdown.running() || m.sending {
				return m, nil
			}
			cmd, problem := sendCode(m.client, m.scope, m.form.value(forgotEmail), client.PurposeResetPassword)
			if problem != "" {
				m.err = problem
				return m, nil
			}
			m.err = ""
			m.sending = true
			return m, cmd
		case "enter":
			if !m.form.last() {
				m.form.next()
				return m, nil
			}
			req := m.request()
			if err := validate.Struct(req); err != nil {
				m.err = firstProblem(err)
				return m, nil
			}
			m.err = ""
			m.submitting = true
			c, s := m.client, m.scope
			return m, func() tea.Msg {
				return resetDoneMsg{tag: s.tag(), err: c.ResetPasswordByEmail(s.context(), req.Email, req.Code, req.NewPassword)}
			}
		case "esc":
			m.countdown = m.countdown.stop()
			return m, navigate(viewLogin)
		}
	}
	return m, m.form.update(msg)
}

func (m forgotModel) View() string {
	var sb strings.Builder
	sb.WriteString("\n  " + titleStyle.Render("Reset password") + "\n\n")
	sb.WriteString(m.form.view())
	sb.WriteString("\n  " + codeAction(m.countdown, m.sending) + "\n")
	switch {
	case m.submitting:
		sb.WriteString("  " + dimStyle.Render("resetting...") + "\n")
	case m.err != "":
		sb.WriteString("  " + errorStyle.Render(m.err) + "\n")
	case m.info != "":
		sb.WriteString("  " + okStyle.Render(m.info) + "\n")
	}
	return sb.String()
}

func (m forgotModel) helpKeys() string {
	return helpBar("tab", "next", "ctrl+s", m.countdown.label(), "enter", "reset", "esc", "back")
}
