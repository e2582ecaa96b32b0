package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/labdesk/labctl/internal/validate"
	"github.com/labdesk/labctl/pkg/domain"
)

type reserveStep int

const (
	stepDate reserveStep = iota
	stepSlot
	stepDetails
	stepConfirm
	stepDone
)

type slotsLoadedMsg struct {
	tag
	date  string
	slots []domain.TimeSlot
	err   error
}

type conflictCheckedMsg struct {
	tag
	result *domain.ConflictResult
	err    error
}

type reservationCreatedMsg struct {
	tag
	res *domain.Reservation
	err error
}

const (
	detailPurpose = iota
	detailPeople
	detailExperiment
)

// reserveModel is the booking wizard: date, free slot, details, conflict
// check, then create.
type reserveModel struct {
	env
	lab     domain.Laboratory
	step    reserveStep
	date    textinput.Model
	slots   []domain.TimeSlot
	cursor  int
	details form
	req     domain.ReservationRequest
	created *domain.Reservation
	busy    bool
	err     string
	note    string
	now     func() time.Time
}

func newReserveModel(e env, lab domain.Laboratory) reserveModel {
	date := newInput("yyyy-MM-dd", false)
	date.SetValue(time.Now().Format(domain.DateLayout))
	date.Focus()

	people := newInput("1", false)
	people.SetValue("1")
	return reserveModel{
		env:  e,
		lab:  lab,
		date: date,
		details: newForm(
			[]string{"purpose", "people", "experiment"},
			[]textinput.Model{newInput("what the session is for", false), people, newInput("optional", false)},
		),
		now: time.Now,
	}
}

// bookable reports whether slot i can be chosen.
func (m reserveModel) bookable(i int) bool {
	return i >= 0 && i < len(m.slots) && m.slots[i].Enabled && !m.slots[i].Reserved
}

func (m reserveModel) firstBookable() int {
	for i := range m.slots {
		if m.bookable(i) {
			return i
		}
	}
	return -1
}

func (m reserveModel) submitDate() (reserveModel, tea.Cmd) {
	date := strings.TrimSpace(m.date.Value())
	now := m.now()
	if !domain.InBookingWindow(date, now) {
		start, end := domain.BookingWindow(now)
		m.err = fmt.Sprintf("pick a date from %s to %s", start.Format(domain.DateLayout), end.Format(domain.DateLayout))
		return m, nil
	}
	m.err = ""
	m.busy = true
	c, s, labID := m.client, m.scope, m.lab.ID
	return m, func() tea.Msg {
		slots, err := c.AvailableTimeSlots(s.context(), labID, date)
		return slotsLoadedMsg{tag: s.tag(), date: date, slots: slots, err: err}
	}
}

// shiftDate moves the date field by days, staying inside the booking window.
func (m reserveModel) shiftDate(days int) reserveModel {
	now := m.now()
	d, err := time.ParseInLocation(domain.DateLayout, strings.TrimSpace(m.date.Value()), now.Location())
	if err != nil {
		d, _ = domain.BookingWindow(now)
	}
	d = d.AddDate(0, 0, days)
	if next := d.Format(domain.DateLayout); domain.InBookingWindow(next, now) {
		m.date.SetValue(next)
		m.date.CursorEnd()
	}
	return m
}

func (m reserveModel) submitDetails() (reserveModel, tea.Cmd) {
	m.note = ""
	people, err := strconv.Atoi(m.details.value(detailPeople))
	if err != nil {
		m.err = "people must be a number"
		m.details.focusOn(detailPeople)
		return m, nil
	}
	if clamped := m.lab.ClampPeople(people); clamped != people {
		m.note = fmt.Sprintf("people limited to %d (lab capacity %d)", clamped, m.lab.Capacity)
		people = clamped
		m.details.inputs[detailPeople].SetValue(strconv.Itoa(people))
	}

	var userID int64
	var userName string
	if m.session != nil {
		userID = m.session.UserID()
		if p, ok := m.session.Profile(); ok {
			userName = p.DisplayName()
		}
	}
	m.req = domain.ReservationRequest{
		UserID:         userID,
		UserName:       userName,
		LabID:          m.lab.ID,
		LabName:        m.lab.Name,
		ReserveDate:    strings.TrimSpace(m.date.Value()),
		TimeSlot:       m.slots[m.cursor].Range(),
		Purpose:        m.details.value(detailPurpose),
		PeopleNum:      people,
		ExperimentName: m.details.value(detailExperiment),
	}
	if err := validate.Struct(m.req); err != nil {
		m.err = firstProblem(err)
		return m, nil
	}
	m.err = ""
	m.busy = true
	c, s, req := m.client, m.scope, m.req
	return m, func() tea.Msg {
		res, err := c.CheckConflict(s.context(), req.LabID, req.ReserveDate, req.TimeSlot)
		return conflictCheckedMsg{tag: s.tag(), result: res, err: err}
	}
}

func (m reserveModel) create() (reserveModel, tea.Cmd) {
	m.busy = true
	m.err = ""
	c, s, req := m.client, m.scope, m.req
	return m, func() tea.Msg {
		res, err := c.CreateReservation(s.context(), req)
		return reservationCreatedMsg{tag: s.tag(), res: res, err: err}
	}
}

func (m reserveModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m reserveModel) Update(msg tea.Msg) (reserveModel, tea.Cmd) {
	switch msg := msg.(type) {
	case slotsLoadedMsg:
		m.busy = false
		if msg.err != nil {
			m.err = errText(msg.err)
			return m, nil
		}
		m.slots = msg.slots
		m.cursor = m.firstBookable()
		if m.cursor < 0 {
			m.err = "no free time slots on " + msg.date
			return m, nil
		}
		m.step = stepSlot
		m.date.Blur()
		return m, nil

	case conflictCheckedMsg:
		m.busy = false
		switch {
		case msg.err != nil:
			m.err = errText(msg.err)
		case msg.result != nil && msg.result.Conflict:
			reason := msg.result.Message
			if reason == "" {
				reason = "the slot is already booked"
			}
			m.err = reason + ", pick another time"
			m.step = stepSlot
		default:
			m.step = stepConfirm
		}
		return m, nil

	case reservationCreatedMsg:
		m.busy = false
		if msg.err != nil {
			m.err = errText(msg.err)
			return m, nil
		}
		m.created = msg.res
		m.step = stepDone
		return m, nil

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		return m.updateKey(msg)
	}

	switch m.step {
	case stepDate:
		var cmd tea.Cmd
		m.date, cmd = m.date.Update(msg)
		return m, cmd
	case stepDetails:
		return m, m.details.update(msg)
	}
	return m, nil
}

func (m reserveModel) updateKey(msg tea.KeyMsg) (reserveModel, tea.Cmd) {
	key := msg.String()
	switch m.step {
	case stepDate:
		switch key {
		case "enter":
			return m.submitDate()
		case "esc":
			return m, navigate(viewLabs)
		case "up":
			return m.shiftDate(1), nil
		case "down":
			return m.shiftDate(-1), nil
		}
		var cmd tea.Cmd
		m.date, cmd = m.date.Update(msg)
		return m, cmd

	case stepSlot:
		switch key {
		case "j", "down":
			for i := m.cursor + 1; i < len(m.slots); i++ {
				if m.bookable(i) {
					m.cursor = i
					break
				}
			}
		case "k", "up":
			for i := m.cursor - 1; i >= 0; i-- {
				if m.bookable(i) {
					m.cursor = i
					break
				}
			}
		case "enter":
			if m.bookable(m.cursor) {
				m.err = ""
				m.step = stepDetails
				m.details.focusOn(detailPurpose)
			}
		case "esc":
			m.err = ""
			m.step = stepDate
			m.date.Focus()
		}
		return m, nil

	case stepDetails:
		switch key {
		case "tab", "down":
			m.details.next()
			return m, nil
		case "shift+tab", "up":
			m.details.prev()
			return m, nil
		case "enter":
			if !m.details.last() {
				m.details.next()
				return m, nil
			}
			return m.submitDetails()
		case "esc":
			m.err = ""
			m.step = stepSlot
			return m, nil
		}
		return m, m.details.update(msg)

	case stepConfirm:
		switch key {
		case "enter", "y":
			return m.create()
		case "esc", "n":
			m.step = stepDetails
		}
		return m, nil

	case stepDone:
		switch key {
		case "c":
			if m.created != nil {
				return m, copyText(reservationSummary(*m.created), "reservation copied")
			}
		case "enter", "esc":
			return m, navigate(viewReservations)
		}
	}
	return m, nil
}

func (m reserveModel) View() string {
	var sb strings.Builder
	sb.WriteString("\n  " + titleStyle.Render("Book "+m.lab.Name) + "  " + dimStyle.Render(fmt.Sprintf("%s · capacity %d", m.lab.Location, m.lab.Capacity)) + "\n")
	sb.WriteString("  " + m.progress() + "\n\n")

	switch m.step {
	case stepDate:
		sb.WriteString("  " + dimStyle.Render(fmt.Sprintf("%-18s", "date")) + m.date.View() + "\n")
		start, end := domain.BookingWindow(m.now())
		sb.WriteString("  " + metaStyle.Render("bookable "+start.Format(domain.DateLayout)+" to "+end.Format(domain.DateLayout)+", up/down to change") + "\n")

	case stepSlot:
		sb.WriteString("  " + dimStyle.Render("free slots on "+strings.TrimSpace(m.date.Value())) + "\n")
		for i, slot := range m.slots {
			label := slot.Range()
			if slot.Name != "" {
				label += "  " + slot.Name
			}
			switch {
			case !m.bookable(i):
				sb.WriteString("    " + metaStyle.Render(label+"  (taken)") + "\n")
			case i == m.cursor:
				sb.WriteString("  " + accentStyle.Render("> ") + selectedStyle.Render(label) + "\n")
			default:
				sb.WriteString("    " + normalStyle.Render(label) + "\n")
			}
		}

	case stepDetails:
		sb.WriteString("  " + dimStyle.Render(strings.TrimSpace(m.date.Value())+" "+m.slots[m.cursor].Range()) + "\n\n")
		sb.WriteString(m.details.view())

	case stepConfirm:
		sb.WriteString("  " + normalStyle.Render("no conflicts found, book this slot?") + "\n\n")
		sb.WriteString(requestSummary(m.req))
		sb.WriteString("\n  " + accentStyle.Render("enter") + dimStyle.Render(" to confirm") + "\n")

	case stepDone:
		sb.WriteString("  " + okStyle.Render("reservation submitted, waiting for approval") + "\n\n")
		if m.created != nil {
			sb.WriteString("  " + normalStyle.Render(reservationSummary(*m.created)) + "\n")
		}
	}

	sb.WriteString("\n")
	switch {
	case m.busy:
		sb.WriteString("  " + dimStyle.Render("working...") + "\n")
	case m.err != "":
		sb.WriteString("  " + errorStyle.Render(m.err) + "\n")
	case m.note != "":
		sb.WriteString("  " + warnStyle.Render(m.note) + "\n")
	}
	return sb.String()
}

func (m reserveModel) progress() string {
	names := []string{"date", "slot", "details", "confirm"}
	parts := make([]string, len(names))
	for i, n := range names {
		switch {
		case reserveStep(i) == m.step:
			parts[i] = selectedStyle.Render(n)
		case reserveStep(i) < m.step:
			parts[i] = accentStyle.Render(n)
		default:
			parts[i] = metaStyle.Render(n)
		}
	}
	return strings.Join(parts, metaStyle.Render(" › "))
}

func requestSummary(r domain.ReservationRequest) string {
	var sb strings.Builder
	row := func(label, value string) {
		if value != "" {
			sb.WriteString("  " + dimStyle.Render(fmt.Sprintf("%-12s", label)) + normalStyle.Render(value) + "\n")
		}
	}
	row("laboratory", r.LabName)
	row("date", r.ReserveDate)
	row("time", r.TimeSlot)
	row("people", strconv.Itoa(r.PeopleNum))
	row("purpose", r.Purpose)
	row("experiment", r.ExperimentName)
	return sb.String()
}

// reservationSummary is the one-line form used for clipboard copies.
func reservationSummary(r domain.Reservation) string {
	lab := r.LabName
	if lab == "" {
		lab = fmt.Sprintf("lab #%d", r.LabID)
	}
	return fmt.Sprintf("#%d %s %s %s (%s)", r.ID, lab, r.ReserveDate, r.TimeSlot, r.Status.Label())
}

func (m reserveModel) helpKeys() string {
	switch m.step {
	case stepDate:
		return helpBar("enter", "find slots", "up/down", "day", "esc", "cancel")
	case stepSlot:
		return helpBar("j/k", "slot", "enter", "choose", "esc", "back")
	case stepDetails:
		return helpBar("tab", "next", "enter", "check", "esc", "back")
	case stepConfirm:
		return helpBar("enter", "book", "esc", "edit")
	default:
		return helpBar("c", "copy", "enter", "my reservations")
	}
}
