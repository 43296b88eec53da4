package distgraph

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/hupe1980/distgraph/distid"
	"github.com/hupe1980/distgraph/shard"
	"github.com/hupe1980/distgraph/transport"
	"github.com/hupe1980/distgraph/value"
)

type handlerFunc func(ctx context.Context, g *Graph, m transport.Message) ([]byte, error)

func (c *Coordinator) registerHandlers() {
	handlers := map[transport.Tag]handlerFunc{
		TagAddVertex:               c.handleAddVertex,
		TagAddVertexReply:          c.handleAddVertexReply,
		TagAddEdge:                 c.handleAddEdge,
		TagAddEdgeReply:            c.handleAddEdgeReply,
		TagAddEdgeIDPedigree:       c.handleAddEdgeIDPedigree,
		TagAddEdgePedigreeID:       c.handleAddEdgePedigreeID,
		TagAddEdgePedigreePedigree: c.handleAddEdgePedigreePedigree,
		TagAddBackEdge:             c.handleAddBackEdge,
		TagFindVertex:              c.handleFindVertex,
		TagFindEdge:                c.handleFindEdge,
	}
	for tag, fn := range handlers {
		c.ch.RegisterHandler(tag, c.wrap(tag, fn))
	}
}

func (c *Coordinator) wrap(tag transport.Tag, fn handlerFunc) transport.Handler {
	logger := c.logger.WithTag(tag)
	return func(ctx context.Context, m transport.Message) ([]byte, error) {
		start := time.Now()
		g, err := c.attachedGraph()
		var reply []byte
		if err == nil {
			reply, err = fn(ctx, g, m)
		}
		c.metrics.RecordMessage(tag, time.Since(start), err)
		if err != nil {
			logger.LogHandlerError(ctx, m, err)
		}
		return reply, err
	}
}

func (c *Coordinator) handleAddVertex(ctx context.Context, g *Graph, m transport.Message) ([]byte, error) {
	var msg addVertexMsg
	if err := c.decode(m, &msg); err != nil {
		return nil, err
	}
	_, err := c.createVertex(g, msg.Pedigree, msg.Properties)
	return nil, err
}

func (c *Coordinator) handleAddVertexReply(ctx context.Context, g *Graph, m transport.Message) ([]byte, error) {
	var msg addVertexMsg
	if err := c.decode(m, &msg); err != nil {
		return nil, err
	}
	id, err := c.createVertex(g, msg.Pedigree, msg.Properties)
	if err != nil {
		return nil, err
	}
	return c.codec.Marshal(idReply{ID: id, Found: true})
}

func (c *Coordinator) handleAddEdge(ctx context.Context, g *Graph, m transport.Message) ([]byte, error) {
	var msg addEdgeMsg
	if err := c.decode(m, &msg); err != nil {
		return nil, err
	}
	_, err := c.insertEdge(ctx, g, msg.Source, msg.Target, msg.Properties)
	return nil, err
}

func (c *Coordinator) handleAddEdgeReply(ctx context.Context, g *Graph, m transport.Message) ([]byte, error) {
	var msg addEdgeMsg
	if err := c.decode(m, &msg); err != nil {
		return nil, err
	}
	id, err := c.insertEdge(ctx, g, msg.Source, msg.Target, msg.Properties)
	if err != nil {
		return nil, err
	}
	return c.codec.Marshal(idReply{ID: id, Found: true})
}

// handleAddEdgeIDPedigree runs on the target's owner.
func (c *Coordinator) handleAddEdgeIDPedigree(ctx context.Context, g *Graph, m transport.Message) ([]byte, error) {
	var msg addEdgeMsg
	if err := c.decode(m, &msg); err != nil {
		return nil, err
	}
	dst, err := c.createVertex(g, msg.TargetPedigree, nil)
	if err != nil {
		return nil, err
	}
	_, err = c.addEdgeAsync(ctx, g, ByID(msg.Source), ByID(dst), msg.Properties)
	return nil, err
}

// handleAddEdgePedigreeID runs on the source's owner.
func (c *Coordinator) handleAddEdgePedigreeID(ctx context.Context, g *Graph, m transport.Message) ([]byte, error) {
	var msg addEdgeMsg
	if err := c.decode(m, &msg); err != nil {
		return nil, err
	}
	src, err := c.createVertex(g, msg.SourcePedigree, nil)
	if err != nil {
		return nil, err
	}
	_, err = c.insertEdge(ctx, g, src, msg.Target, msg.Properties)
	return nil, err
}

// handleAddEdgePedigreePedigree runs on the target's owner.
func (c *Coordinator) handleAddEdgePedigreePedigree(ctx context.Context, g *Graph, m transport.Message) ([]byte, error) {
	var msg addEdgeMsg
	if err := c.decode(m, &msg); err != nil {
		return nil, err
	}
	dst, err := c.createVertex(g, msg.TargetPedigree, nil)
	if err != nil {
		return nil, err
	}
	_, err = c.addEdgeAsync(ctx, g, ByPedigree(msg.SourcePedigree), ByID(dst), msg.Properties)
	return nil, err
}

func (c *Coordinator) handleAddBackEdge(ctx context.Context, g *Graph, m transport.Message) ([]byte, error) {
	var msg backEdgeMsg
	if err := c.decode(m, &msg); err != nil {
		return nil, err
	}
	if c.ids.Owner(msg.Target) != c.ch.Rank() {
		return nil, fmt.Errorf("back edge %d: target %d: %w", msg.Edge, msg.Target, ErrVertexNotLocal)
	}
	i := c.ids.Index(msg.Target)
	if err := c.installMirror(g, i, msg.Source, msg.Target, msg.Edge, msg.Directed); err != nil {
		return nil, err
	}
	g.shard.MarkBoundary(i)
	return nil, nil
}

func (c *Coordinator) handleFindVertex(ctx context.Context, g *Graph, m transport.Message) ([]byte, error) {
	var msg findVertexMsg
	if err := c.decode(m, &msg); err != nil {
		return nil, err
	}
	id, found := c.lookupVertex(g, msg.Pedigree)
	return c.codec.Marshal(idReply{ID: id, Found: found})
}

func (c *Coordinator) handleFindEdge(ctx context.Context, g *Graph, m transport.Message) ([]byte, error) {
	var msg findEdgeMsg
	if err := c.decode(m, &msg); err != nil {
		return nil, err
	}
	return c.codec.Marshal(c.lookupEdge(g, msg.Edge))
}

func (c *Coordinator) decode(m transport.Message, v any) error {
	if err := c.codec.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("decode %s: %w", m.Tag, err)
	}
	return nil
}

// The functions below must run on the dispatch path.

// createVertex returns the resident vertex with pedigree p, creating it if
// needed. Without a pedigree a new vertex is always created.
func (c *Coordinator) createVertex(g *Graph, p value.Value, props []value.Value) (distid.ID, error) {
	rank := c.ch.Rank()
	if i, ok := g.shard.Lookup(p); ok {
		return c.ids.Encode(rank, i), nil
	}

	schema := g.VertexSchema()
	row := props
	if pc := schema.Index(schema.PedigreeColumn); p.IsValid() && pc >= 0 {
		if row == nil {
			row = make([]value.Value, schema.Len())
		}
		if pc < len(row) && !row[pc].IsValid() {
			row = slices.Clone(row)
			row[pc] = p
		}
	}
	if row != nil {
		if err := schema.Validate(row); err != nil {
			return 0, fmt.Errorf("add vertex: %w", err)
		}
	}

	if err := c.checkCapacity(g.shard.VertexCount()); err != nil {
		return 0, fmt.Errorf("add vertex: %w", err)
	}

	i := g.shard.AddVertex(p)
	if row == nil {
		g.vertices.AppendEmpty()
	} else if err := g.vertices.Append(row); err != nil {
		return 0, fmt.Errorf("add vertex: %w", err)
	}
	return c.ids.Encode(rank, i), nil
}

func (c *Coordinator) createVertexLocal(ctx context.Context, g *Graph, p value.Value) (distid.ID, error) {
	var id distid.ID
	err := c.local(ctx, func(context.Context) error {
		var err error
		id, err = c.createVertex(g, p, nil)
		return err
	})
	return id, err
}

// insertEdge mints an edge on the source's owner and installs or sends the
// mirror entry.
func (c *Coordinator) insertEdge(ctx context.Context, g *Graph, src, dst distid.ID, props []value.Value) (distid.ID, error) {
	rank := c.ch.Rank()

	srcOwner, si := c.ids.Decode(src)
	if srcOwner != rank || !g.shard.HasVertex(si) {
		return 0, fmt.Errorf("add edge: source %d: %w", src, ErrVertexNotLocal)
	}
	dstOwner, di := c.ids.Decode(dst)
	if dstOwner < 0 || dstOwner >= c.ch.Size() {
		return 0, fmt.Errorf("add edge: target %d: %w: %d", dst, transport.ErrInvalidRank, dstOwner)
	}
	if dstOwner == rank && !g.shard.HasVertex(di) {
		return 0, fmt.Errorf("add edge: target %d: %w", dst, ErrVertexNotLocal)
	}

	if props != nil {
		if err := g.EdgeSchema().Validate(props); err != nil {
			return 0, fmt.Errorf("add edge: %w", err)
		}
	}

	if err := c.checkCapacity(g.shard.EdgeCount()); err != nil {
		return 0, fmt.Errorf("add edge: %w", err)
	}

	idx := g.shard.NextEdgeIndex()
	eid := c.ids.Encode(rank, idx)

	g.shard.AddOutEdge(si, shard.Adjacency{Neighbor: dst, Edge: eid})
	g.shard.RecordEdge(idx, src, dst)
	if props == nil {
		g.edges.AppendEmpty()
	} else if err := g.edges.Append(props); err != nil {
		return eid, fmt.Errorf("add edge: %w", err)
	}

	directed := g.direction == Directed
	if dstOwner == rank {
		return eid, c.installMirror(g, di, src, dst, eid, directed)
	}

	g.shard.MarkBoundary(si)
	err := c.send(ctx, dstOwner, TagAddBackEdge, backEdgeMsg{
		Source:   src,
		Target:   dst,
		Edge:     eid,
		Directed: directed,
	})
	return eid, err
}

// checkCapacity fails if local index next cannot be encoded.
func (c *Coordinator) checkCapacity(next int64) error {
	if next > c.ids.MaxIndex() {
		return fmt.Errorf("%w: %d", ErrCapacityExceeded, next)
	}
	return nil
}

// installMirror adds the target-side entry of edge e to resident vertex i.
func (c *Coordinator) installMirror(g *Graph, i int64, src, dst, e distid.ID, directed bool) error {
	adj := shard.Adjacency{Neighbor: src, Edge: e}
	var ok bool
	switch {
	case directed:
		ok = g.shard.AddInEdge(i, adj)
	case src == dst:
		// Undirected self-loops keep a single entry.
		ok = g.shard.HasVertex(i)
	default:
		ok = g.shard.AddOutEdge(i, adj)
	}
	if !ok {
		return fmt.Errorf("mirror of edge %d: target %d: %w", e, dst, ErrVertexNotLocal)
	}
	return nil
}

func (c *Coordinator) lookupVertex(g *Graph, p value.Value) (distid.ID, bool) {
	i, ok := g.shard.Lookup(p)
	if !ok {
		return 0, false
	}
	return c.ids.Encode(c.ch.Rank(), i), true
}

func (c *Coordinator) lookupEdge(g *Graph, e distid.ID) endpointsReply {
	owner, i := c.ids.Decode(e)
	if owner != c.ch.Rank() {
		return endpointsReply{}
	}
	ep, ok := g.shard.Endpoints(i)
	if !ok {
		return endpointsReply{}
	}
	return endpointsReply{Source: ep.Source, Target: ep.Target, Found: true}
}
