package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/labdesk/labctl/internal/fanout"
	"github.com/labdesk/labctl/pkg/client"
	"github.com/labdesk/labctl/pkg/domain"
)

// featuredLabs is how many available labs the dashboard lists.
const featuredLabs = 5

// Dashboard widgets, in load order.
const (
	widgetLabs = iota
	widgetUnread
	widgetStats
	widgetCount
)

type dashboard struct {
	labs   []domain.Laboratory
	unread int
	stats  domain.Statistics
}

type dashboardLoadedMsg struct {
	tag
	data dashboard
	errs [widgetCount]error
}

// homeModel is the dashboard. Its widgets load concurrently and each one
// fails on its own: a dead statistics endpoint still shows labs and unread.
type homeModel struct {
	env
	data    dashboard
	errs    [widgetCount]error
	loaded  bool
	loading bool
	cursor  int
	spin    spinner.Model
}

func newHomeModel(e env) homeModel {
	spin := spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(accentStyle))
	return homeModel{env: e, loading: true, spin: spin}
}

func (m homeModel) Init() tea.Cmd {
	return tea.Batch(m.load(), m.spin.Tick)
}

func (m homeModel) load() tea.Cmd {
	c, s := m.client, m.scope
	var userID int64
	if m.session != nil {
		userID = m.session.UserID()
	}
	return func() tea.Msg {
		return loadDashboard(s, c, userID)
	}
}

func loadDashboard(s scope, c *client.Client, userID int64) dashboardLoadedMsg {
	results := fanout.Settle[func(*dashboard)](s.context(),
		func(ctx context.Context) (func(*dashboard), error) {
			labs, err := c.AvailableLaboratories(ctx)
			if err != nil {
				return nil, err
			}
			if len(labs) > featuredLabs {
				labs = labs[:featuredLabs]
			}
			return func(d *dashboard) { d.labs = labs }, nil
		},
		func(ctx context.Context) (func(*dashboard), error) {
			n, err := c.UnreadCount(ctx, userID)
			if err != nil {
				return nil, err
			}
			return func(d *dashboard) { d.unread = n }, nil
		},
		func(ctx context.Context) (func(*dashboard), error) {
			stats, err := c.UserStatistics(ctx)
			if err != nil {
				return nil, err
			}
			return func(d *dashboard) { d.stats = stats }, nil
		},
	)

	msg := dashboardLoadedMsg{tag: s.tag()}
	for i, r := range results {
		if !r.OK() {
			msg.errs[i] = r.Err
			continue
		}
		r.Value(&msg.data)
	}
	return msg
}

func (m homeModel) Update(msg tea.Msg) (homeModel, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardLoadedMsg:
		m.loading = false
		m.loaded = true
		m.errs = msg.errs
		// Keep the last good value of a widget that failed this time.
		if msg.errs[widgetLabs] == nil {
			m.data.labs = msg.data.labs
			m.cursor = moveCursor(m.cursor, 0, len(m.data.labs))
		}
		if msg.errs[widgetUnread] == nil {
			m.data.unread = msg.data.unread
		}
		if msg.errs[widgetStats] == nil {
			m.data.stats = msg.data.stats
		}
		return m, nil

	case spinner.TickMsg:
		// The spinner stops once nothing is in flight; reload restarts it.
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			m.cursor = moveCursor(m.cursor, 1, len(m.data.labs))
		case "k", "up":
			m.cursor = moveCursor(m.cursor, -1, len(m.data.labs))
		case "r":
			if m.loading {
				return m, nil
			}
			m.loading = true
			return m, tea.Batch(m.load(), m.spin.Tick)
		case "b", "enter":
			if len(m.data.labs) == 0 {
				return m, nil
			}
			lab := m.data.labs[m.cursor]
			return m, func() tea.Msg { return bookLabMsg{lab: lab} }
		}
	}
	return m, nil
}

// unread reports the loaded unread count, if the widget succeeded.
func (m homeModel) unread() (int, bool) {
	return m.data.unread, m.loaded && m.errs[widgetUnread] == nil
}

func (m homeModel) View() string {
	if m.loading && !m.loaded {
		return " " + m.spin.View() + " " + dimStyle.Render("loading dashboard...")
	}

	var sb strings.Builder
	greeting := "Welcome"
	if m.session != nil {
		if p, ok := m.session.Profile(); ok {
			greeting = "Welcome, " + p.DisplayName()
		}
	}
	sb.WriteString("\n  " + titleStyle.Render(greeting) + "\n")
	sb.WriteString("  " + dimStyle.Render("Plan your lab time carefully and cancel early if plans change.") + "\n\n")

	// Unread
	sb.WriteString("  " + sectionHeaderStyle.Render("MESSAGES") + "\n")
	switch {
	case m.errs[widgetUnread] != nil:
		sb.WriteString("  " + errorStyle.Render("unread count unavailable") + "\n")
	case m.data.unread == 0:
		sb.WriteString("  " + dimStyle.Render("no unread messages") + "\n")
	default:
		sb.WriteString("  " + badgeStyle.Render(domain.UnreadBadge(m.data.unread)) + " " + normalStyle.Render("unread") + "\n")
	}
	sb.WriteString("\n")

	// Statistics
	sb.WriteString("  " + sectionHeaderStyle.Render("STATISTICS") + "\n")
	switch {
	case m.errs[widgetStats] != nil:
		sb.WriteString("  " + errorStyle.Render("statistics unavailable") + "\n")
	case len(m.data.stats) == 0:
		sb.WriteString("  " + dimStyle.Render("nothing yet") + "\n")
	default:
		sb.WriteString("  " + renderStats(m.data.stats) + "\n")
	}
	sb.WriteString("\n")

	// Labs
	sb.WriteString("  " + sectionHeaderStyle.Render("AVAILABLE LABORATORIES") + "\n")
	switch {
	case m.errs[widgetLabs] != nil && len(m.data.labs) == 0:
		sb.WriteString("  " + errorStyle.Render("laboratories unavailable: "+errText(m.errs[widgetLabs])) + "\n")
	case len(m.data.labs) == 0:
		sb.WriteString("  " + dimStyle.Render("no laboratories are open for booking") + "\n")
	default:
		for i, lab := range m.data.labs {
			sb.WriteString(labRow(lab, i == m.cursor) + "\n")
		}
	}
	return sb.String()
}

// renderStats prints numeric counters in key order.
func renderStats(stats domain.Statistics) string {
	keys := make([]string, 0, len(stats))
	for k, v := range stats {
		switch v.(type) {
		case float64, int, int64:
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, selectedStyle.Render(fmt.Sprint(stats.Int(k)))+" "+dimStyle.Render(k))
	}
	return strings.Join(parts, metaStyle.Render(" · "))
}

func (m homeModel) helpKeys() string {
	return helpBar("1-5", "tabs", "j/k", "nav", "b", "book", "r", "refresh", "h", "help", "q", "quit")
}
