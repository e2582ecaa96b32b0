package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/goccy/go-json"

	"github.com/labdesk/labctl/pkg/client"
	"github.com/labdesk/labctl/pkg/domain"
)

var (
	colorAccent = lipgloss.Color("#4ade80")
	colorWarn   = lipgloss.Color("#d4a844")
	colorError  = lipgloss.Color("#f87171")
	colorDim    = lipgloss.Color("#8890a0")

	accentStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(colorWarn)
	errorStyle  = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	headerStyle = lipgloss.NewStyle().Foreground(colorDim).Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// cliNotifier prints client notices on stderr.
type cliNotifier struct {
	mu    sync.Mutex
	w     io.Writer
	count atomic.Int32
}

func newCLINotifier(w io.Writer) *cliNotifier {
	return &cliNotifier{w: w}
}

func (n *cliNotifier) Notify(notice client.Notice) {
	style := dimStyle
	switch notice.Level {
	case client.LevelWarn:
		style = warnStyle
	case client.LevelError:
		style = errorStyle
	}
	n.count.Add(1)
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.w, style.Render(notice.Text)) //nolint:errcheck
}

func (n *cliNotifier) shown() int { return int(n.count.Load()) }

// render writes v as JSON when --json is set, otherwise calls human.
func (a *app) render(v any, human func(w io.Writer)) error {
	if a.jsonOut {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	human(a.out)
	return nil
}

func printTable(w io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(w, dimStyle.Render("nothing to show")) //nolint:errcheck
		return
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	fmt.Fprintln(w, t.String()) //nolint:errcheck
}

// printFields prints label/value pairs, skipping empty values.
func printFields(w io.Writer, pairs ...string) {
	width := 0
	for i := 0; i+1 < len(pairs); i += 2 {
		width = max(width, len(pairs[i]))
	}
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			continue
		}
		fmt.Fprintf(w, "%s  %s\n", dimStyle.Render(fmt.Sprintf("%-*s", width, pairs[i])), pairs[i+1]) //nolint:errcheck
	}
}

func id(n int64) string { return strconv.FormatInt(n, 10) }

func parseID(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return n, nil
}

func labRows(labs []domain.Laboratory) [][]string {
	rows := make([][]string, len(labs))
	for i, l := range labs {
		rows[i] = []string{id(l.ID), l.Name, l.Type, l.Location, strconv.Itoa(l.Capacity), l.Status.Label()}
	}
	return rows
}

var labHeaders = []string{"ID", "NAME", "TYPE", "LOCATION", "CAPACITY", "STATUS"}

func reservationRows(rs []domain.Reservation) [][]string {
	rows := make([][]string, len(rs))
	for i, r := range rs {
		lab := r.LabName
		if lab == "" {
			lab = "lab #" + id(r.LabID)
		}
		rows[i] = []string{id(r.ID), r.ReserveDate, r.TimeSlot, lab, r.UserName, r.Status.Label()}
	}
	return rows
}

var reservationHeaders = []string{"ID", "DATE", "TIME", "LAB", "USER", "STATUS"}

func formatStamp(t domain.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}

// ask reads one trimmed line from stdin after printing label on stderr.
func (a *app) ask(label string) (string, error) {
	if a.reader == nil {
		a.reader = bufio.NewReader(a.in)
	}
	fmt.Fprint(a.errOut, label) //nolint:errcheck
	line, err := a.reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.TrimSpace(label), ":"), err)
	}
	return strings.TrimSpace(line), nil
}
