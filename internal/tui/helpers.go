package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/labdesk/labctl/internal/validate"
	"github.com/labdesk/labctl/pkg/client"
)

// maxInputLen is the maximum number of runes allowed in form inputs.
const maxInputLen = 500

// scope ties a view's requests to one visit of that view. Leaving the view
// cancels ctx, and results tagged with an older gen are dropped.
type scope struct {
	ctx context.Context
	gen int
}

func (s scope) context() context.Context {
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

func (s scope) tag() tag { return tag{gen: s.gen} }

// scopedMsg is implemented by every result that belongs to a view visit.
type scopedMsg interface {
	generation() int
}

// tag is embedded in view result messages.
type tag struct{ gen int }

func (t tag) generation() int { return t.gen }

// formatTime renders a relative timestamp; anything older than a week
// shows the date.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}

// truncStr truncates a string to maxLen runes, appending an ellipsis if needed.
func truncStr(s string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-1]) + "…"
}

// oneLine collapses whitespace so free text fits a list row.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateToHeight limits output to maxLines newline-delimited lines.
// Returns the original string if it fits or maxLines is <= 0.
func truncateToHeight(s string, maxLines int) string {
	if maxLines <= 0 {
		return s
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			n++
			if n >= maxLines {
				return s[:i+1]
			}
		}
	}
	return s
}

// moveCursor applies j/k style movement within [0, n).
func moveCursor(cursor, delta, n int) int {
	cursor += delta
	if cursor >= n {
		cursor = n - 1
	}
	if cursor < 0 {
		cursor = 0
	}
	return cursor
}

// newInput builds a form field in the app's style.
func newInput(placeholder string, secret bool) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = maxInputLen
	in.Prompt = "  "
	in.PromptStyle = inputPromptStyle
	in.PlaceholderStyle = inputPlaceholderStyle
	in.TextStyle = normalStyle
	if secret {
		in.EchoMode = textinput.EchoPassword
		in.EchoCharacter = '•'
	}
	return in
}

// form is an ordered set of inputs with a single focused field.
type form struct {
	labels []string
	inputs []textinput.Model
	focus  int
}

func newForm(labels []string, inputs []textinput.Model) form {
	f := form{labels: labels, inputs: inputs}
	if len(f.inputs) > 0 {
		f.inputs[0].Focus()
	}
	return f
}

func (f *form) value(i int) string {
	return strings.TrimSpace(f.inputs[i].Value())
}

func (f *form) focusOn(i int) {
	if i < 0 || i >= len(f.inputs) {
		return
	}
	f.inputs[f.focus].Blur()
	f.focus = i
	f.inputs[f.focus].Focus()
}

func (f *form) next() { f.focusOn((f.focus + 1) % len(f.inputs)) }

func (f *form) prev() { f.focusOn((f.focus - 1 + len(f.inputs)) % len(f.inputs)) }

// update feeds msg to the focused input.
func (f *form) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f *form) last() bool { return f.focus == len(f.inputs)-1 }

// view renders label/input rows, marking the focused row.
func (f *form) view() string {
	var sb strings.Builder
	for i, in := range f.inputs {
		label := dimStyle.Render(fmt.Sprintf("%-18s", f.labels[i]))
		if i == f.focus {
			label = selectedStyle.Render(fmt.Sprintf("%-18s", f.labels[i]))
		}
		sb.WriteString("  " + label + in.View() + "\n")
	}
	return sb.String()
}

// firstProblem returns the first validation message, or the error text.
func firstProblem(err error) string {
	var errs validate.Errors
	if errors.As(err, &errs) {
		return errs.First()
	}
	return err.Error()
}

// errText is the inline form of an API failure. Business failures keep the
// server's wording, so a rejected login reads "wrong password" rather than
// the generic session notice.
func errText(err error) string {
	var bizErr *client.BusinessError
	if errors.As(err, &bizErr) && bizErr.Envelope.Message != "" {
		return bizErr.Envelope.Message
	}
	return client.Message(err)
}

// notify shows a toast from inside a view.
func notify(level client.Level, text string) tea.Cmd {
	return func() tea.Msg { return noticeMsg{Level: level, Text: text} }
}
