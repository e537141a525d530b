package nav

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// forEachCode calls fn for every code with at most workers calls in flight.
// No new calls start once ctx is done.
func forEachCode(ctx context.Context, workers int, codes []string, fn func(ctx context.Context, code string)) {
	var g errgroup.Group
	g.SetLimit(max(workers, 1))

	for _, code := range codes {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			fn(ctx, code)
			return nil
		})
	}

	_ = g.Wait()
}
