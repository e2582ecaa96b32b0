package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/labdesk/labctl/internal/validate"
	"github.com/labdesk/labctl/pkg/client"
	"github.com/labdesk/labctl/pkg/domain"
)

type codeSentMsg struct {
	tag
	err error
}

type registerDoneMsg struct {
	tag
	signedIn bool
	err      error
}

// codeRequest is the client-side check before asking for a code.
type codeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// sendCode validates email and asks the server to mail a code for purpose.
func sendCode(c *client.Client, s scope, email, purpose string) (tea.Cmd, string) {
	if err := validate.Struct(codeRequest{Email: email}); err != nil {
		return nil, firstProblem(err)
	}
	return func() tea.Msg {
		return codeSentMsg{tag: s.tag(), err: c.SendCode(s.context(), email, purpose)}
	}, ""
}

const (
	regUsername = iota
	regEmail
	regCode
	regPassword
	regConfirm
)

type registerModel struct {
	env
	form       form
	countdown  countdown
	sending    bool
	submitting bool
	err        string
	info       string
}

func newRegisterModel(e env) registerModel {
	return registerModel{
		env: e,
		form: newForm(
			[]string{"username", "email", "code", "password", "confirm password"},
			[]textinput.Model{
				newInput("3-32 characters", false),
				newInput("you@example.edu", false),
				newInput("6 digits", false),
				newInput("at least 6 characters", true),
				newInput("repeat password", true),
			},
		),
	}
}

func (m registerModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m registerModel) request() domain.RegisterRequest {
	return domain.RegisterRequest{
		Username:        m.form.value(regUsername),
		Email:           m.form.value(regEmail),
		Code:            m.form.value(regCode),
		Password:        m.form.inputs[regPassword].Value(),
		ConfirmPassword: m.form.inputs[regConfirm].Value(),
	}
}

func (m registerModel) sendCode() (registerModel, tea.Cmd) {
	if m.countdown.running() || m.sending {
		return m, nil
	}
	cmd, problem := sendCode(m.client, m.scope, m.form.value(regEmail), client.PurposeRegister)
	if problem != "" {
		m.err = problem
		m.form.focusOn(regEmail)
		return m, nil
	}
	m.err = ""
	m.sending = true
	return m, cmd
}

func (m registerModel) submit() (registerModel, tea.Cmd) {
	req := m.request()
	if err := validate.Struct(req); err != nil {
		m.err = firstProblem(err)
		return m, nil
	}
	m.err = ""
	m.submitting = true
	c, sess, s := m.client, m.session, m.scope
	return m, func() tea.Msg {
		res, err := c.Register(s.context(), req)
		if err != nil {
			return registerDoneMsg{tag: s.tag(), err: err}
		}
		if res.Token == "" {
			return registerDoneMsg{tag: s.tag()}
		}
		if err := sess.Adopt(res.Token, res.Profile); err != nil {
			return registerDoneMsg{tag: s.tag(), err: err}
		}
		return registerDoneMsg{tag: s.tag(), signedIn: true}
	}
}

func (m registerModel) Update(msg tea.Msg) (registerModel, tea.Cmd) {
	switch msg := msg.(type) {
	case codeSentMsg:
		m.sending = false
		if msg.err != nil {
			m.err = errText(msg.err)
			return m, nil
		}
		m.err = ""
		m.info = "code sent to " + m.form.value(regEmail)
		m.form.focusOn(regCode)
		var cmd tea.Cmd
		m.countdown, cmd = m.countdown.start(m.scope)
		return m, cmd

	case countdownTickMsg:
		var cmd tea.Cmd
		m.countdown, cmd = m.countdown.update(msg, m.scope)
		return m, cmd

	case registerDoneMsg:
		m.submitting = false
		if msg.err != nil {
			m.err = errText(msg.err)
			return m, nil
		}
		m.countdown = m.countdown.stop()
		if msg.signedIn {
			return m, func() tea.Msg { return loggedInMsg{} }
		}
		return m, tea.Batch(
			notify(client.LevelInfo, "account created, please sign in"),
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
			return m.sendCode()
		case "enter":
			if !m.form.last() {
				m.form.next()
				return m, nil
			}
			return m.submit()
		case "esc":
			m.countdown = m.countdown.stop()
			return m, navigate(viewLogin)
		}
	}
	return m, m.form.update(msg)
}

func (m registerModel) View() string {
	var sb strings.Builder
	sb.WriteString("\n  " + titleStyle.Render("Create an account") + "\n\n")
	sb.WriteString(m.form.view())
	sb.WriteString("\n  " + codeAction(m.countdown, m.sending) + "\n")
	switch {
	case m.submitting:
		sb.WriteString("  " + dimStyle.Render("creating account...") + "\n")
	case m.err != "":
		sb.WriteString("  " + errorStyle.Render(m.err) + "\n")
	case m.info != "":
		sb.WriteString("  " + okStyle.Render(m.info) + "\n")
	}
	return sb.String()
}

func (m registerModel) helpKeys() string {
	return helpBar("tab", "next", "ctrl+s", m.countdown.label(), "enter", "register", "esc", "back")
}

// codeAction renders the send-code button state.
func codeAction(c countdown, sending bool) string {
	switch {
	case sending:
		return dimStyle.Render("sending code...")
	case c.running():
		return metaStyle.Render("[" + c.label() + "]")
	default:
		return accentStyle.Render("[ctrl+s " + c.label() + "]")
	}
}
