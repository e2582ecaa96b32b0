// Package paging gives every list view the same contract: ask for a page
// of a given size, get the items back and whether more exist. Server
// re-issues a paged call per page; Slice fetches everything once and cuts
// pages locally.
package paging

import (
	"context"
	"sync"
)

// DefaultSize is the page size used when none is configured.
const DefaultSize = 10

// Page is one page of results. Page numbers start at 1.
type Page[T any] struct {
	Items   []T
	Page    int
	Size    int
	HasMore bool
}

// Pager fetches pages.
type Pager[T any] interface {
	Fetch(ctx context.Context, page, size int) (Page[T], error)
}

// ServerFunc fetches one page from the server.
type ServerFunc[T any] func(ctx context.Context, page, size int) ([]T, error)

// Server pages by calling the server for each page. A full page means
// there may be more.
type Server[T any] struct {
	fn ServerFunc[T]
}

// NewServer returns a Server pager over fn.
func NewServer[T any](fn ServerFunc[T]) *Server[T] {
	return &Server[T]{fn: fn}
}

func (s *Server[T]) Fetch(ctx context.Context, page, size int) (Page[T], error) {
	page, size = normalize(page, size)
	items, err := s.fn(ctx, page, size)
	if err != nil {
		return Page[T]{}, err
	}
	return Page[T]{Items: items, Page: page, Size: size, HasMore: len(items) == size}, nil
}

// LoadFunc fetches a complete list.
type LoadFunc[T any] func(ctx context.Context) ([]T, error)

// Slice loads the full list on the first fetch (and again after Reset)
// and serves pages from memory.
type Slice[T any] struct {
	load LoadFunc[T]

	mu     sync.Mutex
	items  []T
	loaded bool
}

// NewSlice returns a Slice pager over load.
func NewSlice[T any](load LoadFunc[T]) *Slice[T] {
	return &Slice[T]{load: load}
}

func (s *Slice[T]) Fetch(ctx context.Context, page, size int) (Page[T], error) {
	page, size = normalize(page, size)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded || page == 1 {
		items, err := s.load(ctx)
		if err != nil {
			return Page[T]{}, err
		}
		s.items = items
		s.loaded = true
	}

	start := (page - 1) * size
	if start >= len(s.items) {
		return Page[T]{Page: page, Size: size}, nil
	}
	end := min(start+size, len(s.items))
	out := make([]T, end-start)
	copy(out, s.items[start:end])
	return Page[T]{Items: out, Page: page, Size: size, HasMore: end < len(s.items)}, nil
}

// Reset drops the cached list.
func (s *Slice[T]) Reset() {
	s.mu.Lock()
	s.items = nil
	s.loaded = false
	s.mu.Unlock()
}

// Len returns the size of the cached list.
func (s *Slice[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func normalize(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultSize
	}
	return page, size
}
