package local

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/distgraph/transport"
)

// Run executes fn once per rank of g, each on its own goroutine, and waits
// for all of them. The first error cancels the context passed to the other
// ranks, which unblocks ranks waiting in Synchronize.
func Run(ctx context.Context, g *Group, fn func(ctx context.Context, ch transport.Channel) error) error {
	eg, ctx := errgroup.WithContext(ctx)
	for _, e := range g.endpoints {
		eg.Go(func() error {
			return fn(ctx, e)
		})
	}
	return eg.Wait()
}
