package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/labdesk/labctl/internal/paging"
	"github.com/labdesk/labctl/pkg/client"
	"github.com/labdesk/labctl/pkg/domain"
)

type messagesPageMsg struct {
	tag
	page paging.Page[domain.Message]
	err  error
}

type unreadCountMsg struct {
	tag
	n   int
	err error
}

type messageReadMsg struct {
	tag
	id  int64
	err error
}

type allReadMsg struct {
	tag
	err error
}

type messageDeletedMsg struct {
	tag
	id  int64
	err error
}

type messageRenderedMsg struct {
	tag
	id  int64
	out string
	err error
}

// messagesModel is the inbox: a "load more" feed over the paged endpoint.
type messagesModel struct {
	env
	userID      int64
	pager       paging.Pager[domain.Message]
	feed        *paging.Feed[domain.Message]
	cursor      int
	loading     bool
	err         error
	unread      int
	unreadKnown bool
	confirming  bool

	detail   bool
	open     domain.Message
	rendered string
}

func newMessagesModel(e env) messagesModel {
	m := messagesModel{env: e, feed: paging.NewFeed[domain.Message](e.pageSize), loading: true}
	if e.session != nil {
		m.userID = e.session.UserID()
	}
	c, userID := m.client, m.userID
	m.pager = paging.NewServer[domain.Message](func(ctx context.Context, page, size int) ([]domain.Message, error) {
		return c.MessagePage(ctx, userID, page, size)
	})
	return m
}

func (m messagesModel) Init() tea.Cmd {
	return tea.Batch(m.loadMore(), m.loadUnread())
}

func (m messagesModel) loadMore() tea.Cmd {
	p, s := m.pager, m.scope
	page, size := m.feed.Next()
	return func() tea.Msg {
		pg, err := p.Fetch(s.context(), page, size)
		return messagesPageMsg{tag: s.tag(), page: pg, err: err}
	}
}

func (m messagesModel) loadUnread() tea.Cmd {
	c, s, userID := m.client, m.scope, m.userID
	return func() tea.Msg {
		n, err := c.UnreadCount(s.context(), userID)
		return unreadCountMsg{tag: s.tag(), n: n, err: err}
	}
}

func (m messagesModel) selected() (domain.Message, bool) {
	if m.cursor < 0 || m.cursor >= len(m.feed.Items) {
		return domain.Message{}, false
	}
	return m.feed.Items[m.cursor], true
}

// setRead marks message id read locally.
func (m messagesModel) setRead(id int64) messagesModel {
	for i := range m.feed.Items {
		if m.feed.Items[i].ID == id && !m.feed.Items[i].Read {
			m.feed.Items[i].Read = true
			if m.unread > 0 {
				m.unread--
			}
		}
	}
	return m
}

func (m messagesModel) openMessage(msg domain.Message) (messagesModel, tea.Cmd) {
	m.detail = true
	m.open = msg
	m.rendered = ""
	c, s, userID, width := m.client, m.scope, m.userID, m.width
	cmds := []tea.Cmd{func() tea.Msg {
		out, err := renderMessage(msg, width)
		return messageRenderedMsg{tag: s.tag(), id: msg.ID, out: out, err: err}
	}}
	if !msg.Read {
		cmds = append(cmds, func() tea.Msg {
			return messageReadMsg{tag: s.tag(), id: msg.ID, err: c.MarkRead(s.context(), userID, msg.ID)}
		})
	}
	return m, tea.Batch(cmds...)
}

// renderMessage renders the message body as markdown.
func renderMessage(msg domain.Message, width int) (string, error) {
	if width < 40 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		return "", err
	}
	var md strings.Builder
	fmt.Fprintf(&md, "# %s\n\n", msg.Title)
	fmt.Fprintf(&md, "*%s · %s*\n\n", domain.MessageTypeLabel(msg.Type), msg.CreatedAt.Format("2006-01-02 15:04"))
	md.WriteString(msg.Content)
	return r.Render(md.String())
}

func (m messagesModel) Update(msg tea.Msg) (messagesModel, tea.Cmd) {
	switch msg := msg.(type) {
	case messagesPageMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.feed.Add(msg.page)
		m.cursor = moveCursor(m.cursor, 0, len(m.feed.Items))
		return m, nil

	case unreadCountMsg:
		if msg.err == nil {
			m.unread, m.unreadKnown = msg.n, true
		}
		return m, nil

	case messageReadMsg:
		if msg.err == nil {
			m = m.setRead(msg.id)
		}
		return m, nil

	case allReadMsg:
		if msg.err != nil {
			return m, nil
		}
		for i := range m.feed.Items {
			m.feed.Items[i].Read = true
		}
		m.unread, m.unreadKnown = 0, true
		return m, notify(client.LevelInfo, "all messages marked read")

	case messageDeletedMsg:
		if msg.err != nil {
			return m, nil
		}
		items := m.feed.Items[:0]
		for _, it := range m.feed.Items {
			if it.ID == msg.id {
				if !it.Read && m.unread > 0 {
					m.unread--
				}
				continue
			}
			items = append(items, it)
		}
		m.feed.Items = items
		m.cursor = moveCursor(m.cursor, 0, len(items))
		return m, nil

	case messageRenderedMsg:
		if msg.id != m.open.ID {
			return m, nil
		}
		if msg.err != nil {
			m.rendered = m.open.Title + "\n\n" + m.open.Content
		} else {
			m.rendered = msg.out
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.detail {
			if s := msg.String(); s == "esc" || s == "backspace" || s == "enter" {
				m.detail = false
			}
			return m, nil
		}
		if m.confirming {
			m.confirming = false
			if msg.String() != "y" {
				return m, nil
			}
			sel, ok := m.selected()
			if !ok {
				return m, nil
			}
			c, s, userID := m.client, m.scope, m.userID
			return m, func() tea.Msg {
				return messageDeletedMsg{tag: s.tag(), id: sel.ID, err: c.DeleteMessage(s.context(), userID, sel.ID)}
			}
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m messagesModel) updateList(msg tea.KeyMsg) (messagesModel, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		m.cursor = moveCursor(m.cursor, 1, len(m.feed.Items))
		// Reaching the bottom pulls the next page.
		if m.cursor == len(m.feed.Items)-1 && m.feed.HasMore() && !m.loading {
			m.loading = true
			return m, m.loadMore()
		}
	case "k", "up":
		m.cursor = moveCursor(m.cursor, -1, len(m.feed.Items))
	case "m":
		if m.feed.HasMore() && !m.loading {
			m.loading = true
			return m, m.loadMore()
		}
	case "r":
		m.feed.Reset()
		m.cursor = 0
		m.loading = true
		return m, tea.Batch(m.loadMore(), m.loadUnread())
	case "enter":
		if sel, ok := m.selected(); ok {
			return m.openMessage(sel)
		}
	case "a":
		c, s, userID := m.client, m.scope, m.userID
		return m, func() tea.Msg {
			return allReadMsg{tag: s.tag(), err: c.MarkAllRead(s.context(), userID)}
		}
	case "d":
		if _, ok := m.selected(); ok {
			m.confirming = true
		}
	}
	return m, nil
}

func (m messagesModel) View() string {
	if m.detail {
		if m.rendered == "" {
			return " " + dimStyle.Render("rendering...")
		}
		return m.rendered
	}

	var sb strings.Builder
	header := " " + sectionHeaderStyle.Render("MESSAGES")
	if m.unreadKnown && m.unread > 0 {
		header += "  " + badgeStyle.Render(domain.UnreadBadge(m.unread))
	}
	sb.WriteString(header + "\n\n")

	items := m.feed.Items
	switch {
	case m.err != nil && len(items) == 0:
		sb.WriteString(" " + errorStyle.Render("error: "+errText(m.err)) + "\n")
	case m.loading && len(items) == 0:
		sb.WriteString(" " + dimStyle.Render("loading messages...") + "\n")
	case len(items) == 0:
		sb.WriteString(" " + dimStyle.Render("no messages") + "\n")
	default:
		titleWidth := max(m.width-34, 20)
		for i, msg := range items {
			dot := "  "
			if !msg.Read {
				dot = accentStyle.Render("● ")
			}
			title := normalStyle.Render(truncStr(oneLine(msg.Title), titleWidth))
			marker := "  "
			if i == m.cursor {
				marker = accentStyle.Render("> ")
				title = selectedStyle.Render(truncStr(oneLine(msg.Title), titleWidth))
			}
			if msg.Priority >= domain.PriorityHigh {
				title = warnStyle.Render("! ") + title
			}
			sb.WriteString(" " + marker + dot + metaStyle.Render(fmt.Sprintf("%9s", formatTime(msg.CreatedAt.Time))) + "  " +
				dimStyle.Render(fmt.Sprintf("%-22s", truncStr(domain.MessageTypeLabel(msg.Type), 22))) + title + "\n")
		}
	}

	switch {
	case m.confirming:
		sb.WriteString("\n " + warnStyle.Render("delete this message? y to confirm") + "\n")
	case m.loading && len(items) > 0:
		sb.WriteString("\n " + metaStyle.Render("loading more...") + "\n")
	case m.feed.HasMore() && len(items) > 0:
		sb.WriteString("\n " + metaStyle.Render("m for more") + "\n")
	}
	return sb.String()
}

func (m messagesModel) helpKeys() string {
	if m.detail {
		return helpBar("esc", "back")
	}
	return helpBar("1-5", "tabs", "j/k", "nav", "enter", "read", "a", "mark all read", "d", "delete", "m", "more", "r", "refresh", "q", "quit")
}
