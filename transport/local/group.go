package local

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/hupe1980/distgraph/transport"
)

// Options configures a Group.
type Options struct {
	// MaxInflight bounds the number of concurrently outstanding
	// SendWithReply calls per endpoint. Zero means unbounded.
	MaxInflight int64

	// Logger receives transport diagnostics. Nil discards them.
	Logger *slog.Logger
}

// DefaultOptions contains the default group options.
var DefaultOptions = Options{}

// Group is an in-process process group of a fixed number of ranks.
type Group struct {
	id     string
	size   int
	opts   Options
	logger *slog.Logger

	endpoints []*Endpoint

	// Barrier state, guarded by mu.
	mu         sync.Mutex
	cond       *sync.Cond
	arrived    int
	generation uint64
	pending    int64
	closed     int

	childMu  sync.Mutex
	children []*Group

	baseCtx context.Context
	cancel  context.CancelFunc
}

// NewGroup creates a group of size ranks and starts their dispatch loops.
func NewGroup(size int, optFns ...func(o *Options)) (*Group, error) {
	if size < 1 {
		return nil, fmt.Errorf("local: invalid group size %d", size)
	}

	opts := DefaultOptions
	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}
	return newGroup(size, opts), nil
}

func newGroup(size int, opts Options) *Group {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	g := &Group{
		id:   uuid.NewString(),
		size: size,
		opts: opts,
	}
	g.logger = logger.With("group", g.id)
	g.cond = sync.NewCond(&g.mu)
	g.baseCtx, g.cancel = context.WithCancel(context.Background())

	g.endpoints = make([]*Endpoint, size)
	for r := range g.endpoints {
		g.endpoints[r] = newEndpoint(g, r)
	}
	return g
}

// ID returns the unique group identifier used in logs.
func (g *Group) ID() string { return g.id }

// Size returns the number of ranks.
func (g *Group) Size() int { return g.size }

// Endpoint returns the channel of rank r.
func (g *Group) Endpoint(r int) *Endpoint {
	if r < 0 || r >= g.size {
		panic(fmt.Sprintf("local: rank %d out of range [0,%d)", r, g.size))
	}
	return g.endpoints[r]
}

// Channels returns the channels of all ranks in rank order.
func (g *Group) Channels() []transport.Channel {
	out := make([]transport.Channel, g.size)
	for i, e := range g.endpoints {
		out[i] = e
	}
	return out
}

// Pending returns the number of messages sent but not yet handled.
func (g *Group) Pending() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending
}

// Close closes every endpoint of the group and of its forks.
func (g *Group) Close() error {
	g.childMu.Lock()
	children := g.children
	g.children = nil
	g.childMu.Unlock()

	for _, c := range children {
		if c != nil {
			_ = c.Close()
		}
	}
	for _, e := range g.endpoints {
		_ = e.Close()
	}
	g.cancel()
	return nil
}

// child returns the k-th forked group, creating it on first use.
func (g *Group) child(k int) *Group {
	g.childMu.Lock()
	defer g.childMu.Unlock()

	for len(g.children) <= k {
		g.children = append(g.children, nil)
	}
	if g.children[k] == nil {
		g.children[k] = newGroup(g.size, g.opts)
		g.logger.Debug("forked group", "fork", k, "child", g.children[k].id)
	}
	return g.children[k]
}

func (g *Group) beginMessage() {
	g.mu.Lock()
	g.pending++
	g.mu.Unlock()
}

func (g *Group) endMessage() {
	g.mu.Lock()
	g.pending--
	if g.pending == 0 {
		g.cond.Broadcast()
	}
	g.mu.Unlock()
}

func (g *Group) rankClosed() {
	g.mu.Lock()
	g.closed++
	g.cond.Broadcast()
	g.mu.Unlock()
}

// barrier blocks until all ranks arrived and no message is in flight.
func (g *Group) barrier(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		g.mu.Lock()
		g.cond.Broadcast()
		g.mu.Unlock()
	})
	defer stop()

	g.mu.Lock()
	defer g.mu.Unlock()

	gen := g.generation
	g.arrived++

	for {
		if g.generation != gen {
			return nil
		}
		if g.closed > 0 {
			g.arrived--
			return transport.ErrClosed
		}
		if g.arrived == g.size && g.pending == 0 {
			g.arrived = 0
			g.generation++
			g.cond.Broadcast()
			return nil
		}
		if err := ctx.Err(); err != nil {
			g.arrived--
			return err
		}
		g.cond.Wait()
	}
}
