package distgraph

import (
	"fmt"
	"iter"

	"github.com/hupe1980/distgraph/distid"
	"github.com/hupe1980/distgraph/property"
	"github.com/hupe1980/distgraph/shard"
	"github.com/hupe1980/distgraph/value"
)

// Direction selects directed or undirected edge semantics.
type Direction uint8

const (
	// Directed graphs mirror every edge as an in-edge of its target.
	Directed Direction = iota
	// Undirected graphs mirror every edge as a second out-edge of its
	// target. Self-loops are stored once.
	Undirected
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case Directed:
		return "directed"
	case Undirected:
		return "undirected"
	default:
		return fmt.Sprintf("direction(%d)", uint8(d))
	}
}

// Edge is one adjacency entry as seen from a resident vertex.
type Edge struct {
	ID     distid.ID
	Source distid.ID
	Target distid.ID
}

// Graph is the part of a distributed graph resident on one rank.
//
// A Graph owns its shard and property tables; the coordinator attached to it
// only references them. Reads are safe once Synchronize returned and before
// new mutations are issued.
type Graph struct {
	direction Direction
	shard     *shard.Shard
	vertices  *property.Table
	edges     *property.Table

	// set by Attach
	attached bool
	codec    distid.Codec
	rank     int
}

// NewGraph creates an empty graph with the given vertex and edge property
// schemas. Zero schemas mean no properties.
func NewGraph(direction Direction, vertexSchema, edgeSchema property.Schema) *Graph {
	return &Graph{
		direction: direction,
		shard:     shard.New(),
		vertices:  property.NewTable(vertexSchema),
		edges:     property.NewTable(edgeSchema),
		codec:     distid.MustCodec(1),
	}
}

// Direction returns the edge semantics of the graph.
func (g *Graph) Direction() Direction { return g.direction }

// IsDistributed reports whether a coordinator is attached.
func (g *Graph) IsDistributed() bool { return g.attached }

// Rank returns the rank this part resides on (0 when not attached).
func (g *Graph) Rank() int { return g.rank }

// Codec returns the id layout in use.
func (g *Graph) Codec() distid.Codec { return g.codec }

// VertexSchema returns the vertex property schema.
func (g *Graph) VertexSchema() property.Schema { return g.vertices.Schema() }

// EdgeSchema returns the edge property schema.
func (g *Graph) EdgeSchema() property.Schema { return g.edges.Schema() }

// NumberOfVertices returns the number of resident vertices.
func (g *Graph) NumberOfVertices() int64 { return g.shard.VertexCount() }

// NumberOfEdges returns the number of edges minted on this rank.
func (g *Graph) NumberOfEdges() int64 { return g.shard.EdgeCount() }

// Vertices iterates the resident vertices in local index order. The sequence
// is finite and may be restarted.
func (g *Graph) Vertices() iter.Seq[distid.ID] {
	return g.codec.Range(g.rank, g.shard.VertexCount())
}

// HasVertex reports whether v is resident on this rank.
func (g *Graph) HasVertex(v distid.ID) bool {
	_, ok := g.local(v)
	return ok
}

// OutEdges iterates the out-edges of resident vertex v. For undirected
// graphs these are all incident edges.
func (g *Graph) OutEdges(v distid.ID) (iter.Seq[Edge], error) {
	i, ok := g.local(v)
	if !ok {
		return nil, fmt.Errorf("out-edges of %d: %w", v, ErrVertexNotLocal)
	}
	return func(yield func(Edge) bool) {
		for adj := range g.shard.OutEdges(i) {
			if !yield(Edge{ID: adj.Edge, Source: v, Target: adj.Neighbor}) {
				return
			}
		}
	}, nil
}

// InEdges iterates the in-edges of resident vertex v. Undirected graphs
// have no in-edge lists.
func (g *Graph) InEdges(v distid.ID) (iter.Seq[Edge], error) {
	i, ok := g.local(v)
	if !ok {
		return nil, fmt.Errorf("in-edges of %d: %w", v, ErrVertexNotLocal)
	}
	return func(yield func(Edge) bool) {
		for adj := range g.shard.InEdges(i) {
			if !yield(Edge{ID: adj.Edge, Source: adj.Neighbor, Target: v}) {
				return
			}
		}
	}, nil
}

// OutDegree returns the out-degree of resident vertex v.
func (g *Graph) OutDegree(v distid.ID) (int, error) {
	i, ok := g.local(v)
	if !ok {
		return 0, fmt.Errorf("out-degree of %d: %w", v, ErrVertexNotLocal)
	}
	return g.shard.OutDegree(i), nil
}

// InDegree returns the in-degree of resident vertex v.
func (g *Graph) InDegree(v distid.ID) (int, error) {
	i, ok := g.local(v)
	if !ok {
		return 0, fmt.Errorf("in-degree of %d: %w", v, ErrVertexNotLocal)
	}
	return g.shard.InDegree(i), nil
}

// VertexPedigree returns the pedigree of resident vertex v, if it has one.
func (g *Graph) VertexPedigree(v distid.ID) (value.Value, bool) {
	i, ok := g.local(v)
	if !ok {
		return value.Value{}, false
	}
	p := g.shard.Pedigree(i)
	return p, p.IsValid()
}

// VertexProperties returns a copy of the property row of resident vertex v.
func (g *Graph) VertexProperties(v distid.ID) ([]value.Value, bool) {
	i, ok := g.local(v)
	if !ok {
		return nil, false
	}
	return g.vertices.Row(i)
}

// VertexProperty returns the named property of resident vertex v.
func (g *Graph) VertexProperty(v distid.ID, column string) (value.Value, bool) {
	i, ok := g.local(v)
	if !ok {
		return value.Value{}, false
	}
	return g.vertices.Get(i, column)
}

// EdgeProperties returns a copy of the property row of edge e.
// Only edges minted on this rank carry properties here.
func (g *Graph) EdgeProperties(e distid.ID) ([]value.Value, bool) {
	owner, i := g.codec.Decode(e)
	if owner != g.rank {
		return nil, false
	}
	return g.edges.Row(i)
}

// EdgeProperty returns the named property of an edge minted on this rank.
func (g *Graph) EdgeProperty(e distid.ID, column string) (value.Value, bool) {
	owner, i := g.codec.Decode(e)
	if owner != g.rank {
		return value.Value{}, false
	}
	return g.edges.Get(i, column)
}

// BoundaryVertices iterates resident vertices that carry an adjacency entry
// of an edge shared with another rank.
func (g *Graph) BoundaryVertices() iter.Seq[distid.ID] {
	return func(yield func(distid.ID) bool) {
		for i := range g.shard.Boundary() {
			if !yield(g.codec.Encode(g.rank, i)) {
				return
			}
		}
	}
}

// IsBoundary reports whether resident vertex v is a boundary vertex.
func (g *Graph) IsBoundary(v distid.ID) bool {
	i, ok := g.local(v)
	return ok && g.shard.IsBoundary(i)
}

func (g *Graph) isEmpty() bool {
	return g.shard.VertexCount() == 0 && g.shard.EdgeCount() == 0
}

func (g *Graph) local(v distid.ID) (int64, bool) {
	owner, i := g.codec.Decode(v)
	if owner != g.rank || !g.shard.HasVertex(i) {
		return 0, false
	}
	return i, true
}
