// Package fanout runs independent calls concurrently under one of two
// failure policies: Settle keeps every branch's outcome, Join fails as a
// unit once every branch has finished.
package fanout

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Func is one branch of a fan-out.
type Func[T any] func(ctx context.Context) (T, error)

// Result is the outcome of one branch.
type Result[T any] struct {
	Value T
	Err   error
}

// OK reports whether the branch succeeded.
func (r Result[T]) OK() bool { return r.Err == nil }

// Settle runs every fn concurrently and waits for all of them. A failing
// branch does not cancel the others; results are returned in input order.
func Settle[T any](ctx context.Context, fns ...Func[T]) []Result[T] {
	return SettleLimit(ctx, 0, fns...)
}

// SettleLimit is Settle with at most limit branches running at once
// (limit <= 0 means no limit).
func SettleLimit[T any](ctx context.Context, limit int, fns ...Func[T]) []Result[T] {
	results := make([]Result[T], len(fns))
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, fn := range fns {
		g.Go(func() error {
			v, err := fn(ctx)
			results[i] = Result[T]{Value: v, Err: err}
			return nil
		})
	}
	g.Wait() //nolint:errcheck // branches never return an error
	return results
}

// Join issues every fn at once and waits for all of them. Branches share
// ctx but a failure cancels none of its siblings. The first error in input
// order is returned; on success values are returned in input order.
func Join[T any](ctx context.Context, fns ...Func[T]) ([]T, error) {
	results := Settle(ctx, fns...)
	values := make([]T, len(results))
	for i, r := range results {
		if !r.OK() {
			return nil, r.Err
		}
		values[i] = r.Value
	}
	return values, nil
}
