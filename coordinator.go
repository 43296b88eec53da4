package distgraph

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/distgraph/codec"
	"github.com/hupe1980/distgraph/distid"
	"github.com/hupe1980/distgraph/pedigree"
	"github.com/hupe1980/distgraph/transport"
	"github.com/hupe1980/distgraph/value"
)

// Route is the path a request took to the rank that applied it.
type Route uint8

const (
	// RouteLocal means the request was applied on the calling rank.
	RouteLocal Route = iota
	// RouteForward means the request was sent fire-and-forget to its owner.
	RouteForward
	// RouteAwaitReply means the caller waited for the owner's reply.
	RouteAwaitReply
)

// String returns the route name.
func (r Route) String() string {
	switch r {
	case RouteLocal:
		return "local"
	case RouteForward:
		return "forward"
	case RouteAwaitReply:
		return "await_reply"
	default:
		return fmt.Sprintf("route(%d)", uint8(r))
	}
}

// Helper is the capability set a graph builder needs from a distribution
// layer, independent of the transport underneath.
type Helper interface {
	// Attach binds the helper to an empty graph.
	Attach(g *Graph) error
	// Synchronize waits until all pending requests of every rank are applied.
	Synchronize(ctx context.Context) error
	// AddEdge creates an edge and returns its id.
	AddEdge(ctx context.Context, u, v Endpoint, props []value.Value) (distid.ID, error)
	// Clone returns an unattached helper over an independent channel.
	Clone() (Helper, error)
}

// Compile time check to ensure Coordinator satisfies the Helper interface.
var _ Helper = (*Coordinator)(nil)

// Coordinator routes graph construction requests of one rank.
//
// Requests concerning vertices or edges owned by this rank are applied
// directly; all others are sent to the owning rank. All mutations of the
// attached graph run on the channel's dispatch path, so a Coordinator may be
// used from several goroutines.
type Coordinator struct {
	ch       transport.Channel
	ids      distid.Codec
	resolver *pedigree.Resolver
	codec    codec.Codec
	logger   *Logger
	metrics  MetricsCollector
	optFns   []Option

	mu    sync.Mutex
	graph atomic.Pointer[Graph]
}

// NewCoordinator creates a coordinator for the rank ch represents.
func NewCoordinator(ch transport.Channel, optFns ...Option) (*Coordinator, error) {
	if ch == nil {
		return nil, &ConfigurationError{Reason: "nil channel"}
	}

	opts := applyOptions(optFns)

	ids, err := distid.NewCodec(ch.Size())
	if err != nil {
		return nil, &ConfigurationError{Reason: "invalid group size", cause: err}
	}

	logger := opts.logger.WithRank(ch.Rank(), ch.Size())

	resolver, err := pedigree.NewResolver(ch.Size(),
		pedigree.WithDistribution(opts.distribution, opts.distributionData),
		pedigree.WithLogger(logger.Logger),
	)
	if err != nil {
		return nil, &ConfigurationError{Reason: "invalid group size", cause: err}
	}

	return &Coordinator{
		ch:       ch,
		ids:      ids,
		resolver: resolver,
		codec:    opts.codec,
		logger:   logger,
		metrics:  opts.metricsCollector,
		optFns:   optFns,
	}, nil
}

// Rank returns this coordinator's rank.
func (c *Coordinator) Rank() int { return c.ch.Rank() }

// Size returns the number of ranks.
func (c *Coordinator) Size() int { return c.ch.Size() }

// Channel returns the underlying channel.
func (c *Coordinator) Channel() transport.Channel { return c.ch }

// Graph returns the attached graph, or nil.
func (c *Coordinator) Graph() *Graph { return c.graph.Load() }

// Attach binds the coordinator to g and registers its message handlers.
//
// g must be empty and not attached to another coordinator, and a coordinator
// attaches at most once. Every rank must attach before the first Synchronize.
func (c *Coordinator) Attach(g *Graph) error {
	if g == nil {
		return &ConfigurationError{Reason: "nil graph"}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.graph.Load() != nil {
		return &ConfigurationError{Reason: "coordinator already attached"}
	}
	if g.attached {
		return &ConfigurationError{Reason: "graph already attached"}
	}
	if !g.isEmpty() {
		return &ConfigurationError{Reason: fmt.Sprintf("graph not empty (%d vertices, %d edges)",
			g.NumberOfVertices(), g.NumberOfEdges())}
	}

	g.attached = true
	g.codec = c.ids
	g.rank = c.ch.Rank()
	c.graph.Store(g)

	c.registerHandlers()

	c.logger.Debug("coordinator attached", "direction", g.direction.String(), "codec", c.codec.Name())
	return nil
}

// AddVertex creates the vertex described by req on its owner, or returns
// the existing vertex with the same pedigree, and returns its id.
func (c *Coordinator) AddVertex(ctx context.Context, req VertexRequest) (distid.ID, error) {
	start := time.Now()
	id, route, err := c.addVertex(ctx, req, true)
	c.metrics.RecordAddVertex(route, time.Since(start), err)
	c.logger.LogAddVertex(ctx, route, id, err)
	return id, err
}

// AddVertexAsync is AddVertex without waiting for a remote owner. Remote
// failures are reported by the next Synchronize on the owner's rank.
func (c *Coordinator) AddVertexAsync(ctx context.Context, req VertexRequest) error {
	start := time.Now()
	id, route, err := c.addVertex(ctx, req, false)
	c.metrics.RecordAddVertex(route, time.Since(start), err)
	c.logger.LogAddVertex(ctx, route, id, err)
	return err
}

// AddEdge creates an edge from u to v and returns its id. Pedigree
// endpoints are resolved first, creating missing vertices.
//
// The mirror entry on a remote target is installed no later than the next
// Synchronize.
func (c *Coordinator) AddEdge(ctx context.Context, u, v Endpoint, props []value.Value) (distid.ID, error) {
	start := time.Now()
	id, route, err := c.addEdge(ctx, u, v, props)
	c.metrics.RecordAddEdge(route, time.Since(start), err)
	c.logger.LogAddEdge(ctx, route, id, err)
	return id, err
}

// AddEdgeAsync is AddEdge without waiting for any remote rank. When neither
// endpoint is owned here and both are pedigrees, the request goes to the
// target's owner, which resolves the source itself.
func (c *Coordinator) AddEdgeAsync(ctx context.Context, u, v Endpoint, props []value.Value) error {
	start := time.Now()
	route, err := c.addEdgeAsyncChecked(ctx, u, v, props)
	c.metrics.RecordAddEdge(route, time.Since(start), err)
	c.logger.LogAddEdge(ctx, route, 0, err)
	return err
}

// FindVertex returns the id of the vertex with pedigree p.
func (c *Coordinator) FindVertex(ctx context.Context, p value.Value) (distid.ID, error) {
	start := time.Now()
	id, route, err := c.findVertex(ctx, p)
	c.metrics.RecordFind(route, time.Since(start), err)
	return id, err
}

// FindEdgeEndpoints returns the source and target of edge e, asking the
// rank that minted it when necessary.
func (c *Coordinator) FindEdgeEndpoints(ctx context.Context, e distid.ID) (src, dst distid.ID, err error) {
	start := time.Now()
	src, dst, route, err := c.findEdge(ctx, e)
	c.metrics.RecordFind(route, time.Since(start), err)
	return src, dst, err
}

// Synchronize blocks until every rank called it and every request sent
// before that has been applied. Failures of fire-and-forget requests handled
// on this rank since the previous barrier are returned joined.
func (c *Coordinator) Synchronize(ctx context.Context) error {
	start := time.Now()
	err := c.ch.Synchronize(ctx)
	c.metrics.RecordSynchronize(time.Since(start), err)
	c.logger.LogSynchronize(ctx, err)
	return err
}

// Clone returns an unattached coordinator with the same options over a
// forked channel. Clone is collective: every rank must call it in the same
// order.
func (c *Coordinator) Clone() (Helper, error) {
	ch, err := c.ch.Fork()
	if err != nil {
		return nil, fmt.Errorf("clone: %w", err)
	}
	return NewCoordinator(ch, c.optFns...)
}

// VertexOwner returns the rank owning vertex v.
func (c *Coordinator) VertexOwner(v distid.ID) int { return c.ids.Owner(v) }

// VertexIndex returns the owner-local index of vertex v.
func (c *Coordinator) VertexIndex(v distid.ID) int64 { return c.ids.Index(v) }

// EdgeOwner returns the rank that minted edge e.
func (c *Coordinator) EdgeOwner(e distid.ID) int { return c.ids.Owner(e) }

// EdgeIndex returns the owner-local index of edge e.
func (c *Coordinator) EdgeIndex(e distid.ID) int64 { return c.ids.Index(e) }

// MakeDistributedID packs owner and index into an id.
func (c *Coordinator) MakeDistributedID(owner int, index int64) (distid.ID, error) {
	if owner < 0 || owner >= c.ch.Size() {
		return 0, fmt.Errorf("%w: %d", transport.ErrInvalidRank, owner)
	}
	if index < 0 || index > c.ids.MaxIndex() {
		return 0, fmt.Errorf("index %d out of range [0,%d]", index, c.ids.MaxIndex())
	}
	return c.ids.Encode(owner, index), nil
}

// VertexOwnerByPedigree returns the rank owning pedigree p. It does not
// communicate and returns the same rank on every rank.
func (c *Coordinator) VertexOwnerByPedigree(p value.Value) int { return c.resolver.Owner(p) }

func (c *Coordinator) attachedGraph() (*Graph, error) {
	g := c.graph.Load()
	if g == nil {
		return nil, ErrNotAttached
	}
	return g, nil
}

func (c *Coordinator) addVertex(ctx context.Context, req VertexRequest, wantID bool) (distid.ID, Route, error) {
	g, err := c.attachedGraph()
	if err != nil {
		return 0, RouteLocal, err
	}

	p := req.Pedigree
	if req.Properties != nil {
		if err := g.VertexSchema().Validate(req.Properties); err != nil {
			return 0, RouteLocal, fmt.Errorf("add vertex: %w", err)
		}
		if !p.IsValid() {
			p, _ = g.VertexSchema().Pedigree(req.Properties)
		}
	}

	owner := c.ch.Rank()
	if p.IsValid() {
		owner = c.resolver.Owner(p)
	}

	if owner == c.ch.Rank() {
		var id distid.ID
		err := c.local(ctx, func(context.Context) error {
			var err error
			id, err = c.createVertex(g, p, req.Properties)
			return err
		})
		return id, RouteLocal, err
	}

	msg := addVertexMsg{Pedigree: p, Properties: req.Properties}
	if !wantID {
		return 0, RouteForward, c.send(ctx, owner, TagAddVertex, msg)
	}

	var reply idReply
	if err := c.call(ctx, owner, TagAddVertexReply, msg, &reply); err != nil {
		return 0, RouteAwaitReply, err
	}
	return reply.ID, RouteAwaitReply, nil
}

func (c *Coordinator) addEdge(ctx context.Context, u, v Endpoint, props []value.Value) (distid.ID, Route, error) {
	g, err := c.checkEdge(u, v, props)
	if err != nil {
		return 0, RouteLocal, err
	}

	src, err := c.resolve(ctx, u)
	if err != nil {
		return 0, RouteLocal, fmt.Errorf("add edge: source: %w", err)
	}
	dst, err := c.resolve(ctx, v)
	if err != nil {
		return 0, RouteLocal, fmt.Errorf("add edge: target: %w", err)
	}

	owner := c.ids.Owner(src)
	if owner == c.ch.Rank() {
		var id distid.ID
		err := c.local(ctx, func(ctx context.Context) error {
			var err error
			id, err = c.insertEdge(ctx, g, src, dst, props)
			return err
		})
		return id, RouteLocal, err
	}

	var reply idReply
	msg := addEdgeMsg{Source: src, Target: dst, Properties: props}
	if err := c.call(ctx, owner, TagAddEdgeReply, msg, &reply); err != nil {
		return 0, RouteAwaitReply, err
	}
	return reply.ID, RouteAwaitReply, nil
}

func (c *Coordinator) addEdgeAsyncChecked(ctx context.Context, u, v Endpoint, props []value.Value) (Route, error) {
	g, err := c.checkEdge(u, v, props)
	if err != nil {
		return RouteLocal, err
	}
	return c.addEdgeAsync(ctx, g, u, v, props)
}

// addEdgeAsync never waits for a reply, so handlers can use it.
func (c *Coordinator) addEdgeAsync(ctx context.Context, g *Graph, u, v Endpoint, props []value.Value) (Route, error) {
	self := c.ch.Rank()

	switch {
	case u.resolved && v.resolved:
		owner := c.ids.Owner(u.id)
		if owner == self {
			return RouteLocal, c.local(ctx, func(ctx context.Context) error {
				_, err := c.insertEdge(ctx, g, u.id, v.id, props)
				return err
			})
		}
		return RouteForward, c.send(ctx, owner, TagAddEdge,
			addEdgeMsg{Source: u.id, Target: v.id, Properties: props})

	case u.resolved:
		owner := c.resolver.Owner(v.pedigree)
		if owner == self {
			dst, err := c.createVertexLocal(ctx, g, v.pedigree)
			if err != nil {
				return RouteLocal, err
			}
			return c.addEdgeAsync(ctx, g, u, ByID(dst), props)
		}
		return RouteForward, c.send(ctx, owner, TagAddEdgeIDPedigree,
			addEdgeMsg{Source: u.id, TargetPedigree: v.pedigree, Properties: props})

	case v.resolved:
		owner := c.resolver.Owner(u.pedigree)
		if owner == self {
			src, err := c.createVertexLocal(ctx, g, u.pedigree)
			if err != nil {
				return RouteLocal, err
			}
			return c.addEdgeAsync(ctx, g, ByID(src), v, props)
		}
		return RouteForward, c.send(ctx, owner, TagAddEdgePedigreeID,
			addEdgeMsg{SourcePedigree: u.pedigree, Target: v.id, Properties: props})

	default:
		srcOwner := c.resolver.Owner(u.pedigree)
		if srcOwner == self {
			src, err := c.createVertexLocal(ctx, g, u.pedigree)
			if err != nil {
				return RouteLocal, err
			}
			return c.addEdgeAsync(ctx, g, ByID(src), v, props)
		}
		dstOwner := c.resolver.Owner(v.pedigree)
		if dstOwner == self {
			dst, err := c.createVertexLocal(ctx, g, v.pedigree)
			if err != nil {
				return RouteLocal, err
			}
			return c.addEdgeAsync(ctx, g, u, ByID(dst), props)
		}
		// The target's owner resolves the target locally and forwards the
		// remaining id/pedigree request to the source's owner.
		return RouteForward, c.send(ctx, dstOwner, TagAddEdgePedigreePedigree,
			addEdgeMsg{SourcePedigree: u.pedigree, TargetPedigree: v.pedigree, Properties: props})
	}
}

func (c *Coordinator) checkEdge(u, v Endpoint, props []value.Value) (*Graph, error) {
	g, err := c.attachedGraph()
	if err != nil {
		return nil, err
	}
	if err := u.validate(); err != nil {
		return nil, fmt.Errorf("add edge: source: %w", err)
	}
	if err := v.validate(); err != nil {
		return nil, fmt.Errorf("add edge: target: %w", err)
	}
	if props != nil {
		if err := g.EdgeSchema().Validate(props); err != nil {
			return nil, fmt.Errorf("add edge: %w", err)
		}
	}
	return g, nil
}

// resolve returns the id of e, creating a pedigree vertex on its owner.
func (c *Coordinator) resolve(ctx context.Context, e Endpoint) (distid.ID, error) {
	if e.resolved {
		return e.id, nil
	}
	id, _, err := c.addVertex(ctx, VertexRequest{Pedigree: e.pedigree}, true)
	return id, err
}

func (c *Coordinator) findVertex(ctx context.Context, p value.Value) (distid.ID, Route, error) {
	g, err := c.attachedGraph()
	if err != nil {
		return 0, RouteLocal, err
	}
	if !p.IsValid() {
		return 0, RouteLocal, fmt.Errorf("find vertex: invalid pedigree: %w", ErrVertexNotFound)
	}

	owner := c.resolver.Owner(p)
	if owner == c.ch.Rank() {
		var (
			id    distid.ID
			found bool
		)
		if err := c.local(ctx, func(context.Context) error {
			id, found = c.lookupVertex(g, p)
			return nil
		}); err != nil {
			return 0, RouteLocal, err
		}
		if !found {
			return 0, RouteLocal, fmt.Errorf("find vertex %s: %w", p, ErrVertexNotFound)
		}
		return id, RouteLocal, nil
	}

	var reply idReply
	if err := c.call(ctx, owner, TagFindVertex, findVertexMsg{Pedigree: p}, &reply); err != nil {
		return 0, RouteAwaitReply, err
	}
	if !reply.Found {
		return 0, RouteAwaitReply, fmt.Errorf("find vertex %s: %w", p, ErrVertexNotFound)
	}
	return reply.ID, RouteAwaitReply, nil
}

func (c *Coordinator) findEdge(ctx context.Context, e distid.ID) (distid.ID, distid.ID, Route, error) {
	g, err := c.attachedGraph()
	if err != nil {
		return 0, 0, RouteLocal, err
	}

	owner := c.ids.Owner(e)
	if owner == c.ch.Rank() {
		var reply endpointsReply
		if err := c.local(ctx, func(context.Context) error {
			reply = c.lookupEdge(g, e)
			return nil
		}); err != nil {
			return 0, 0, RouteLocal, err
		}
		if !reply.Found {
			return 0, 0, RouteLocal, fmt.Errorf("find edge %d: %w", e, ErrEdgeNotFound)
		}
		return reply.Source, reply.Target, RouteLocal, nil
	}

	var reply endpointsReply
	if err := c.call(ctx, owner, TagFindEdge, findEdgeMsg{Edge: e}, &reply); err != nil {
		return 0, 0, RouteAwaitReply, err
	}
	if !reply.Found {
		return 0, 0, RouteAwaitReply, fmt.Errorf("find edge %d: %w", e, ErrEdgeNotFound)
	}
	return reply.Source, reply.Target, RouteAwaitReply, nil
}

// local runs fn on the dispatch path, inline if already there.
func (c *Coordinator) local(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	if execErr := c.ch.Exec(ctx, func(ctx context.Context) {
		err = fn(ctx)
	}); execErr != nil {
		return execErr
	}
	return err
}

func (c *Coordinator) send(ctx context.Context, to int, tag transport.Tag, msg any) error {
	payload, err := c.codec.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s: %w", tag, err)
	}
	if err := c.ch.Send(ctx, to, tag, payload); err != nil {
		return fmt.Errorf("send %s to rank %d: %w", tag, to, err)
	}
	return nil
}

func (c *Coordinator) call(ctx context.Context, to int, tag transport.Tag, msg, reply any) error {
	payload, err := c.codec.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s: %w", tag, err)
	}
	data, err := c.ch.SendWithReply(ctx, to, tag, payload)
	if err != nil {
		return fmt.Errorf("%s on rank %d: %w", tag, to, err)
	}
	if err := c.codec.Unmarshal(data, reply); err != nil {
		return fmt.Errorf("decode %s reply: %w", tag, err)
	}
	return nil
}
