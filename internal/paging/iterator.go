// Package paging walks cursor-paginated listings one page at a time.
package paging

import (
	"context"
	"iter"
)

// Page is one fetched page of records and the cursor to the next page,
// nil when there is none.
type Page[T any] struct {
	Items []T
	Next  *Cursor
}

// FetchFunc fetches the page at cursor, asking for at most limit records.
// The zero Cursor means the first page.
type FetchFunc[T any] func(ctx context.Context, cursor Cursor, limit int) (Page[T], error)

// Option configures an Iterator.
type Option[T any] func(*Iterator[T])

// WithCursor starts the listing at c instead of the first page.
func WithCursor[T any](c Cursor) Option[T] {
	return func(it *Iterator[T]) { it.cursor = c }
}

// WithFilter drops records for which keep returns false. Dropped records do
// not count against the limit.
func WithFilter[T any](keep func(T) bool) Option[T] {
	return func(it *Iterator[T]) { it.keep = keep }
}

// Iterator yields up to limit records across as many pages as needed. It
// fetches lazily, one page in flight, and cannot be restarted. Stopping
// early needs no cleanup.
//
//	it := paging.New(fetch, 50)
//	for it.Next(ctx) {
//		use(it.Value())
//	}
//	if err := it.Err(); err != nil { ... }
type Iterator[T any] struct {
	fetch      FetchFunc[T]
	keep       func(T) bool
	cursor     Cursor // next unfetched page
	pageCursor Cursor // page the buffer came from
	remaining  int
	buf        []T
	cur        T
	last       bool // no page after the buffered one
	done       bool
	err        error
	fetches    int
}

// New returns an iterator over at most limit records.
func New[T any](fetch FetchFunc[T], limit int, opts ...Option[T]) *Iterator[T] {
	it := &Iterator[T]{fetch: fetch, remaining: limit}
	for _, opt := range opts {
		opt(it)
	}
	return it
}

// Next advances to the next record, fetching a page if the buffer is
// empty. It returns false at the end of the listing, once the limit is
// reached, or on error.
func (it *Iterator[T]) Next(ctx context.Context) bool {
	for !it.done {
		if it.remaining <= 0 {
			it.done = true
			break
		}
		if len(it.buf) > 0 {
			item := it.buf[0]
			it.buf = it.buf[1:]
			if it.keep != nil && !it.keep(item) {
				continue
			}
			it.cur = item
			it.remaining--
			return true
		}
		if it.last {
			it.done = true
			break
		}
		it.load(ctx)
	}
	var zero T
	it.cur = zero
	return false
}

func (it *Iterator[T]) load(ctx context.Context) {
	page, err := it.fetch(ctx, it.cursor, it.remaining)
	it.fetches++
	if err != nil {
		it.err = err
		it.done = true
		return
	}
	// An empty page ends the stream even if it carries a cursor.
	if len(page.Items) == 0 {
		it.last = true
		it.done = true
		return
	}
	it.pageCursor = it.cursor
	it.buf = page.Items
	if page.Next == nil || page.Next.IsZero() {
		it.last = true
		return
	}
	it.cursor = *page.Next
}

// Value returns the current record.
func (it *Iterator[T]) Value() T {
	return it.cur
}

// Err returns the error that stopped the iteration, if any.
func (it *Iterator[T]) Err() error {
	return it.err
}

// Fetches returns the number of page fetches issued so far.
func (it *Iterator[T]) Fetches() int {
	return it.fetches
}

// Cursor returns where a later listing should resume. While records of
// the current page are still unread (cut off by the limit, or not yet
// reached), that is the current page's cursor, so resuming repeats the
// records already read from it rather than skipping the unread ones.
// Otherwise it is the next unfetched page, or the failed page after a
// fetch error. It is zero once the listing is exhausted.
func (it *Iterator[T]) Cursor() Cursor {
	if len(it.buf) > 0 {
		return it.pageCursor
	}
	if it.last {
		return Cursor{}
	}
	return it.cursor
}

// All adapts the iterator to a range-over-func sequence. A fetch error is
// yielded once as the final element.
func (it *Iterator[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for it.Next(ctx) {
			if !yield(it.Value(), nil) {
				return
			}
		}
		if err := it.Err(); err != nil {
			var zero T
			yield(zero, err)
		}
	}
}

// Collect drains the iterator into a slice. Records read before an error
// are returned along with it.
func (it *Iterator[T]) Collect(ctx context.Context) ([]T, error) {
	var out []T
	for it.Next(ctx) {
		out = append(out, it.Value())
	}
	return out, it.Err()
}
