package commands

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// fetchLimit bounds concurrent upstream calls within one command.
const fetchLimit = 8

// settled is the outcome of one task in a batch.
type settled[T any] struct {
	Value T
	Err   error
}

// settle runs fn for 0..n-1 concurrently and collects every outcome in input
// order. A failing or panicking task never cancels its siblings.
func settle[T any](ctx context.Context, n int, fn func(ctx context.Context, i int) (T, error)) []settled[T] {
	out := make([]settled[T], n)
	var g errgroup.Group
	g.SetLimit(fetchLimit)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					out[i].Err = fmt.Errorf("task %d panicked: %v", i, r)
				}
			}()
			if err := ctx.Err(); err != nil {
				out[i].Err = err
				return nil
			}
			out[i].Value, out[i].Err = fn(ctx, i)
			return nil // don't fail the whole batch
		})
	}
	_ = g.Wait()
	return out
}
