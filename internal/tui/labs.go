package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/labdesk/labctl/internal/paging"
	"github.com/labdesk/labctl/pkg/client"
	"github.com/labdesk/labctl/pkg/domain"
)

type scheduleLoadedMsg struct {
	tag
	labID    int64
	bookings []domain.Reservation
	err      error
}

// labsModel lists laboratories a page at a time. The server has no paged
// laboratory endpoint, so pages are cut from one full fetch.
type labsModel struct {
	env
	list      pageList[domain.Laboratory]
	search    textinput.Model
	searching bool
	keyword   string

	detail      bool
	lab         domain.Laboratory
	schedule    []domain.Reservation
	schedErr    error
	schedLoaded bool
}

func newLabsModel(e env) labsModel {
	in := newInput("name, type or location", false)
	in.Prompt = "/ "
	m := labsModel{env: e, search: in}
	m.list = newPageList(m.pager(""), e.pageSize)
	return m
}

func (m labsModel) pager(keyword string) paging.Pager[domain.Laboratory] {
	c := m.client
	if keyword == "" {
		return paging.NewSlice[domain.Laboratory](c.ListLaboratories)
	}
	return paging.NewSlice[domain.Laboratory](func(ctx context.Context) ([]domain.Laboratory, error) {
		return c.SearchLaboratories(ctx, domain.LabSearch{Keyword: keyword})
	})
}

func (m labsModel) Init() tea.Cmd {
	_, cmd := m.list.fetch(m.scope, 1)
	return cmd
}

func (m labsModel) loadSchedule(lab domain.Laboratory) tea.Cmd {
	c, s := m.client, m.scope
	today := time.Now().Format(domain.DateLayout)
	return func() tea.Msg {
		bookings, err := c.LabSchedule(s.context(), lab.ID, today)
		return scheduleLoadedMsg{tag: s.tag(), labID: lab.ID, bookings: bookings, err: err}
	}
}

func (m labsModel) Update(msg tea.Msg) (labsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case pageLoadedMsg[domain.Laboratory]:
		m.list = m.list.loaded(msg)
		return m, nil

	case scheduleLoadedMsg:
		if msg.labID == m.lab.ID {
			m.schedule, m.schedErr = msg.bookings, msg.err
			m.schedLoaded = true
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		if m.detail {
			return m.updateDetail(msg)
		}
		var cmd tea.Cmd
		switch msg.String() {
		case "j", "down":
			m.list = m.list.move(1)
		case "k", "up":
			m.list = m.list.move(-1)
		case "]", "right":
			m.list, cmd = m.list.next(m.scope)
		case "[", "left":
			m.list, cmd = m.list.prev(m.scope)
		case "r":
			m.list, cmd = m.list.fetch(m.scope, 1)
		case "/":
			m.searching = true
			m.search.SetValue(m.keyword)
			return m, m.search.Focus()
		case "esc":
			if m.keyword != "" {
				m.keyword = ""
				m.list, cmd = m.list.reset(m.pager(""), m.scope)
			}
		case "enter":
			if lab, ok := m.list.selected(); ok {
				m.detail = true
				m.lab = lab
				m.schedule, m.schedErr, m.schedLoaded = nil, nil, false
				cmd = m.loadSchedule(lab)
			}
		case "b":
			if lab, ok := m.list.selected(); ok {
				cmd = book(lab)
			}
		case "c":
			if lab, ok := m.list.selected(); ok {
				cmd = copyText(labSummary(lab), "laboratory copied")
			}
		}
		return m, cmd
	}
	return m, nil
}

func (m labsModel) updateSearch(msg tea.KeyMsg) (labsModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.search.Blur()
		return m, nil
	case "enter":
		m.searching = false
		m.search.Blur()
		m.keyword = strings.TrimSpace(m.search.Value())
		var cmd tea.Cmd
		m.list, cmd = m.list.reset(m.pager(m.keyword), m.scope)
		return m, cmd
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m labsModel) updateDetail(msg tea.KeyMsg) (labsModel, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace":
		m.detail = false
	case "b":
		return m, book(m.lab)
	case "c":
		return m, copyText(labSummary(m.lab), "laboratory copied")
	}
	return m, nil
}

// book starts the reservation wizard for lab, unless it is closed.
func book(lab domain.Laboratory) tea.Cmd {
	if !lab.Available() {
		return notify(client.LevelWarn, lab.Name+" is not open for booking ("+lab.Status.Label()+")")
	}
	return func() tea.Msg { return bookLabMsg{lab: lab} }
}

// copyText puts text on the system clipboard and confirms with a toast.
func copyText(text, done string) tea.Cmd {
	return func() tea.Msg {
		if err := clipboard.WriteAll(text); err != nil {
			return noticeMsg{Level: client.LevelWarn, Text: "clipboard unavailable: " + err.Error()}
		}
		return noticeMsg{Level: client.LevelInfo, Text: done}
	}
}

func labSummary(lab domain.Laboratory) string {
	return fmt.Sprintf("%s (#%d) · %s · %s · capacity %d", lab.Name, lab.ID, lab.Type, lab.Location, lab.Capacity)
}

// labRow renders one laboratory in a list.
func labRow(lab domain.Laboratory, selected bool) string {
	name := normalStyle.Render(truncStr(lab.Name, 28))
	marker := "  "
	if selected {
		name = selectedStyle.Render(truncStr(lab.Name, 28))
		marker = accentStyle.Render("> ")
	}
	pad := 28 - len([]rune(truncStr(lab.Name, 28)))
	if pad < 0 {
		pad = 0
	}
	meta := dimStyle.Render(fmt.Sprintf("%-12s %-18s %3d seats", truncStr(lab.Type, 12), truncStr(lab.Location, 18), lab.Capacity))
	row := " " + marker + name + strings.Repeat(" ", pad) + "  " + meta + "  " + LabStatusStyle(lab.Status).Render(lab.Status.Label())
	if selected {
		return selectedRowBg.Render(row)
	}
	return row
}

func (m labsModel) View() string {
	if m.detail {
		return m.detailView()
	}
	var sb strings.Builder
	switch {
	case m.searching:
		sb.WriteString(" " + m.search.View() + "\n")
	case m.keyword != "":
		sb.WriteString(" " + dimStyle.Render("results for ") + accentStyle.Render(m.keyword) + dimStyle.Render("  (esc clears)") + "\n")
	default:
		sb.WriteString(" " + sectionHeaderStyle.Render("LABORATORIES") + "\n")
	}

	items := m.list.page.Items
	switch {
	case m.list.err != nil && len(items) == 0:
		sb.WriteString(" " + errorStyle.Render("error: "+errText(m.list.err)) + "\n")
	case m.list.loading && len(items) == 0:
		sb.WriteString(" " + dimStyle.Render("loading laboratories...") + "\n")
	case len(items) == 0:
		sb.WriteString(" " + dimStyle.Render("no laboratories found") + "\n")
	default:
		for i, lab := range items {
			sb.WriteString(labRow(lab, i == m.list.cursor) + "\n")
		}
	}
	sb.WriteString("\n" + m.list.footer() + "\n")
	return sb.String()
}

func (m labsModel) detailView() string {
	lab := m.lab
	var sb strings.Builder
	sb.WriteString("\n  " + titleStyle.Render(lab.Name) + "  " + LabStatusStyle(lab.Status).Render(lab.Status.Label()) + "\n\n")
	field := func(label, value string) {
		if value == "" {
			return
		}
		sb.WriteString("  " + dimStyle.Render(fmt.Sprintf("%-12s", label)) + normalStyle.Render(value) + "\n")
	}
	field("type", lab.Type)
	field("location", lab.Location)
	field("capacity", fmt.Sprintf("%d", lab.Capacity))
	field("equipment", lab.Equipment)
	if lab.Description != "" {
		sb.WriteString("\n  " + normalStyle.Width(max(m.width-4, 20)).Render(lab.Description) + "\n")
	}

	sb.WriteString("\n  " + sectionHeaderStyle.Render("TODAY") + "\n")
	switch {
	case m.schedErr != nil:
		sb.WriteString("  " + errorStyle.Render("schedule unavailable") + "\n")
	case !m.schedLoaded:
		sb.WriteString("  " + dimStyle.Render("loading...") + "\n")
	case len(m.schedule) == 0:
		sb.WriteString("  " + dimStyle.Render("no bookings today") + "\n")
	default:
		for _, r := range m.schedule {
			sb.WriteString("  " + accentStyle.Render(r.TimeSlot) + "  " + StatusStyle(r.Status).Render(r.Status.Label()) + "  " + dimStyle.Render(truncStr(oneLine(r.Purpose), 40)) + "\n")
		}
	}
	return sb.String()
}

func (m labsModel) helpKeys() string {
	switch {
	case m.searching:
		return helpBar("enter", "search", "esc", "cancel")
	case m.detail:
		return helpBar("b", "book", "c", "copy", "esc", "back")
	default:
		return helpBar("1-5", "tabs", "j/k", "nav", "[ ]", "page", "/", "search", "enter", "detail", "b", "book", "c", "copy", "q", "quit")
	}
}

func (m labsModel) editing() bool { return m.searching }
