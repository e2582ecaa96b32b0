package paging

// Feed accumulates pages for a "load more" list. It is not safe for
// concurrent use; the TUI drives it from Update only.
type Feed[T any] struct {
	Items   []T
	next    int
	size    int
	hasMore bool
}

// NewFeed returns an empty feed that will request pages of size.
func NewFeed[T any](size int) *Feed[T] {
	_, size = normalize(1, size)
	return &Feed[T]{next: 1, size: size, hasMore: true}
}

// Next returns the page number and size to request next.
func (f *Feed[T]) Next() (page, size int) { return f.next, f.size }

// HasMore reports whether another page may exist.
func (f *Feed[T]) HasMore() bool { return f.hasMore }

// Add appends p if it is the page the feed expects. Stale pages are
// ignored and Add returns false.
func (f *Feed[T]) Add(p Page[T]) bool {
	if p.Page != f.next {
		return false
	}
	if p.Page == 1 {
		f.Items = nil
	}
	f.Items = append(f.Items, p.Items...)
	f.hasMore = p.HasMore
	f.next = p.Page + 1
	return true
}

// Reset starts over from page 1.
func (f *Feed[T]) Reset() {
	f.Items = nil
	f.next = 1
	f.hasMore = true
}
