package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// resendSeconds is how long the "send code" action stays disabled.
const resendSeconds = 60

type countdownTickMsg struct {
	tag
	id int
}

// countdown is the resend timer on the verification-code forms. It only
// advances on its own ticks: a fresh view visit has a new generation, so
// ticks from a torn-down view are dropped and the chain ends.
type countdown struct {
	remaining int
	id        int
}

func (c countdown) running() bool { return c.remaining > 0 }

// start resets the timer and schedules the first tick.
func (c countdown) start(s scope) (countdown, tea.Cmd) {
	c.id++
	c.remaining = resendSeconds
	return c, c.tick(s)
}

// stop ends the timer; any tick still in flight is ignored.
func (c countdown) stop() countdown {
	c.id++
	c.remaining = 0
	return c
}

func (c countdown) tick(s scope) tea.Cmd {
	id, t := c.id, s.tag()
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return countdownTickMsg{tag: t, id: id}
	})
}

// update advances the timer on its own ticks.
func (c countdown) update(msg countdownTickMsg, s scope) (countdown, tea.Cmd) {
	if msg.id != c.id || c.remaining <= 0 {
		return c, nil
	}
	c.remaining--
	if c.remaining == 0 {
		return c, nil
	}
	return c, c.tick(s)
}

// label is the text of the send-code action.
func (c countdown) label() string {
	if c.running() {
		return fmt.Sprintf("resend in %ds", c.remaining)
	}
	return "send code"
}
