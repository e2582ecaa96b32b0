package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/labdesk/labctl/internal/paging"
)

type pageLoadedMsg[T any] struct {
	tag
	seq  int
	page paging.Page[T]
	err  error
}

// pageList is a cursor over one page of a pager. Swapping the pager bumps
// seq so pages still in flight for the old query are ignored.
type pageList[T any] struct {
	pager   paging.Pager[T]
	size    int
	seq     int
	page    paging.Page[T]
	cursor  int
	loading bool
	err     error
}

func newPageList[T any](p paging.Pager[T], size int) pageList[T] {
	if size < 1 {
		size = paging.DefaultSize
	}
	return pageList[T]{pager: p, size: size, page: paging.Page[T]{Page: 1}}
}

// reset switches to pager p and fetches its first page.
func (l pageList[T]) reset(p paging.Pager[T], s scope) (pageList[T], tea.Cmd) {
	l.pager = p
	l.seq++
	l.page = paging.Page[T]{Page: 1}
	l.cursor = 0
	return l.fetch(s, 1)
}

func (l pageList[T]) fetch(s scope, page int) (pageList[T], tea.Cmd) {
	if l.pager == nil {
		return l, nil
	}
	l.loading = true
	p, size, seq := l.pager, l.size, l.seq
	return l, func() tea.Msg {
		pg, err := p.Fetch(s.context(), page, size)
		return pageLoadedMsg[T]{tag: s.tag(), seq: seq, page: pg, err: err}
	}
}

// loaded applies a fetched page.
func (l pageList[T]) loaded(msg pageLoadedMsg[T]) pageList[T] {
	if msg.seq != l.seq {
		return l
	}
	l.loading = false
	if msg.err != nil {
		l.err = msg.err
		return l
	}
	l.err = nil
	l.page = msg.page
	l.cursor = moveCursor(l.cursor, 0, len(l.page.Items))
	return l
}

func (l pageList[T]) next(s scope) (pageList[T], tea.Cmd) {
	if l.loading || !l.page.HasMore {
		return l, nil
	}
	l.cursor = 0
	return l.fetch(s, l.page.Page+1)
}

func (l pageList[T]) prev(s scope) (pageList[T], tea.Cmd) {
	if l.loading || l.page.Page <= 1 {
		return l, nil
	}
	l.cursor = 0
	return l.fetch(s, l.page.Page-1)
}

func (l pageList[T]) refresh(s scope) (pageList[T], tea.Cmd) {
	return l.fetch(s, max(l.page.Page, 1))
}

func (l pageList[T]) move(delta int) pageList[T] {
	l.cursor = moveCursor(l.cursor, delta, len(l.page.Items))
	return l
}

func (l pageList[T]) selected() (T, bool) {
	var zero T
	if l.cursor < 0 || l.cursor >= len(l.page.Items) {
		return zero, false
	}
	return l.page.Items[l.cursor], true
}

// footer is the "page N" line under a list.
func (l pageList[T]) footer() string {
	s := fmt.Sprintf("page %d", max(l.page.Page, 1))
	if l.page.Page > 1 {
		s = "[ " + s
	}
	if l.page.HasMore {
		s += " ]"
	}
	if l.loading {
		s += "  loading..."
	}
	return " " + metaStyle.Render(s)
}
