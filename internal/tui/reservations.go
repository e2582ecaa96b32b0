package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/labdesk/labctl/internal/paging"
	"github.com/labdesk/labctl/pkg/client"
	"github.com/labdesk/labctl/pkg/domain"
)

type reservationCancelledMsg struct {
	tag
	id  int64
	err error
}

// statusTabs are the filters across the top of the list; nil is "all".
var statusTabs = append([]*domain.ReservationStatus{nil}, func() []*domain.ReservationStatus {
	out := make([]*domain.ReservationStatus, len(domain.ReservationStatuses))
	for i := range domain.ReservationStatuses {
		out[i] = &domain.ReservationStatuses[i]
	}
	return out
}()...)

// reservationsModel is the signed-in user's reservations, filtered by status.
type reservationsModel struct {
	env
	tab        int
	list       pageList[domain.Reservation]
	detail     bool
	confirming bool
	cancelling bool
}

func newReservationsModel(e env) reservationsModel {
	m := reservationsModel{env: e}
	m.list = newPageList(m.pager(), e.pageSize)
	return m
}

func (m reservationsModel) pager() paging.Pager[domain.Reservation] {
	c, status := m.client, statusTabs[m.tab]
	var userID int64
	if m.session != nil {
		userID = m.session.UserID()
	}
	return paging.NewSlice[domain.Reservation](func(ctx context.Context) ([]domain.Reservation, error) {
		return c.MyReservations(ctx, userID, status)
	})
}

func (m reservationsModel) Init() tea.Cmd {
	_, cmd := m.list.fetch(m.scope, 1)
	return cmd
}

func (m reservationsModel) switchTab(delta int) (reservationsModel, tea.Cmd) {
	m.tab = (m.tab + delta + len(statusTabs)) % len(statusTabs)
	m.detail = false
	var cmd tea.Cmd
	m.list, cmd = m.list.reset(m.pager(), m.scope)
	return m, cmd
}

func (m reservationsModel) Update(msg tea.Msg) (reservationsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case pageLoadedMsg[domain.Reservation]:
		m.list = m.list.loaded(msg)
		return m, nil

	case reservationCancelledMsg:
		m.cancelling = false
		if msg.err != nil {
			// The client already raised a notice.
			return m, nil
		}
		var cmd tea.Cmd
		m.list, cmd = m.list.refresh(m.scope)
		return m, tea.Batch(notify(client.LevelInfo, fmt.Sprintf("reservation #%d cancelled", msg.id)), cmd)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.confirming {
			m.confirming = false
			if msg.String() != "y" {
				return m, nil
			}
			r, ok := m.list.selected()
			if !ok {
				return m, nil
			}
			m.cancelling = true
			c, s := m.client, m.scope
			return m, func() tea.Msg {
				return reservationCancelledMsg{tag: s.tag(), id: r.ID, err: c.CancelReservation(s.context(), r.ID)}
			}
		}

		var cmd tea.Cmd
		switch msg.String() {
		case "tab", "l":
			return m.switchTab(1)
		case "shift+tab":
			return m.switchTab(-1)
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
		case "enter":
			m.detail = !m.detail
		case "esc":
			m.detail = false
		case "x":
			if r, ok := m.list.selected(); ok && r.Status.Cancellable() && !m.cancelling {
				m.confirming = true
			}
		case "c":
			if r, ok := m.list.selected(); ok {
				cmd = copyText(reservationSummary(r), "reservation copied")
			}
		}
		return m, cmd
	}
	return m, nil
}

func (m reservationsModel) tabBar() string {
	parts := make([]string, len(statusTabs))
	for i, st := range statusTabs {
		name := "all"
		if st != nil {
			name = st.Label()
		}
		if i == m.tab {
			parts[i] = selectedStyle.Underline(true).Render(name)
		} else {
			parts[i] = dimStyle.Render(name)
		}
	}
	return " " + strings.Join(parts, "  ")
}

func reservationRow(r domain.Reservation, selected bool) string {
	lab := r.LabName
	if lab == "" {
		lab = "lab #" + strconv.FormatInt(r.LabID, 10)
	}
	marker := "  "
	labStyle := normalStyle
	if selected {
		marker = accentStyle.Render("> ")
		labStyle = selectedStyle
	}
	row := " " + marker +
		metaStyle.Render(fmt.Sprintf("#%-5d", r.ID)) + " " +
		accentStyle.Render(r.ReserveDate) + " " +
		normalStyle.Render(fmt.Sprintf("%-11s", r.TimeSlot)) + " " +
		labStyle.Render(fmt.Sprintf("%-24s", truncStr(lab, 24))) + " " +
		StatusStyle(r.Status).Render(r.Status.Label())
	if selected {
		return selectedRowBg.Render(row)
	}
	return row
}

func (m reservationsModel) View() string {
	var sb strings.Builder
	sb.WriteString(m.tabBar() + "\n\n")

	items := m.list.page.Items
	switch {
	case m.list.err != nil && len(items) == 0:
		sb.WriteString(" " + errorStyle.Render("error: "+errText(m.list.err)) + "\n")
	case m.list.loading && len(items) == 0:
		sb.WriteString(" " + dimStyle.Render("loading reservations...") + "\n")
	case len(items) == 0:
		sb.WriteString(" " + dimStyle.Render("no reservations here yet") + "\n")
	default:
		for i, r := range items {
			sb.WriteString(reservationRow(r, i == m.list.cursor) + "\n")
			if m.detail && i == m.list.cursor {
				sb.WriteString(reservationDetail(r))
			}
		}
	}
	sb.WriteString("\n" + m.list.footer() + "\n")

	switch {
	case m.confirming:
		sb.WriteString(" " + warnStyle.Render("cancel this reservation? y to confirm, any key to keep it") + "\n")
	case m.cancelling:
		sb.WriteString(" " + dimStyle.Render("cancelling...") + "\n")
	}
	return sb.String()
}

func reservationDetail(r domain.Reservation) string {
	var sb strings.Builder
	row := func(label, value string) {
		if value != "" {
			sb.WriteString("        " + dimStyle.Render(fmt.Sprintf("%-12s", label)) + normalStyle.Render(value) + "\n")
		}
	}
	row("purpose", oneLine(r.Purpose))
	if r.PeopleNum > 0 {
		row("people", strconv.Itoa(r.PeopleNum))
	}
	row("experiment", r.ExperimentName)
	row("approval", r.ApprovalNote)
	row("feedback", r.Feedback)
	row("created", formatTime(r.CreatedAt.Time))
	return sb.String()
}

func (m reservationsModel) helpKeys() string {
	return helpBar("1-5", "tabs", "tab", "status", "j/k", "nav", "[ ]", "page", "enter", "detail", "x", "cancel", "c", "copy", "q", "quit")
}
