// Package gonumgraph exposes the resident part of a distributed graph as a
// gonum graph, so that gonum algorithms can run on one rank.
//
// A View contains every vertex resident on the rank plus a ghost node for
// every remote neighbour. A ghost only carries the edges it shares with
// resident vertices; its other edges live on its owner.
package gonumgraph

import (
	"slices"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/iterator"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/hupe1980/distgraph"
	"github.com/hupe1980/distgraph/distid"
)

// Compile time check to ensure View satisfies the graph.Directed interface.
var _ graph.Directed = (*View)(nil)

// Edge is a view edge carrying the distributed edge id.
type Edge struct {
	F, T graph.Node
	ID   distid.ID
}

// From returns the source node.
func (e Edge) From() graph.Node { return e.F }

// To returns the target node.
func (e Edge) To() graph.Node { return e.T }

// ReversedEdge returns the edge with endpoints swapped.
func (e Edge) ReversedEdge() graph.Edge { return Edge{F: e.T, T: e.F, ID: e.ID} }

// View is an immutable snapshot of a Graph. Build it after Synchronize.
type View struct {
	nodes  []int64
	ghosts map[int64]bool
	from   map[int64]map[int64]distid.ID
	to     map[int64]map[int64]distid.ID
}

// New snapshots the resident part of g.
func New(g *distgraph.Graph) (*View, error) {
	v := &View{
		ghosts: make(map[int64]bool),
		from:   make(map[int64]map[int64]distid.ID),
		to:     make(map[int64]map[int64]distid.ID),
	}

	for u := range g.Vertices() {
		v.nodes = append(v.nodes, int64(u))
	}

	for u := range g.Vertices() {
		out, err := g.OutEdges(u)
		if err != nil {
			return nil, err
		}
		for e := range out {
			v.link(e.Source, e.Target, e.ID)
			if g.Direction() == distgraph.Undirected {
				v.link(e.Target, e.Source, e.ID)
			}
		}

		if g.Direction() == distgraph.Directed {
			in, err := g.InEdges(u)
			if err != nil {
				return nil, err
			}
			for e := range in {
				v.link(e.Source, e.Target, e.ID)
			}
		}
	}

	for _, u := range v.nodes {
		delete(v.ghosts, u)
	}
	for id := range v.ghosts {
		v.nodes = append(v.nodes, id)
	}
	slices.Sort(v.nodes)
	return v, nil
}

func (v *View) link(src, dst distid.ID, e distid.ID) {
	s, d := int64(src), int64(dst)
	if v.from[s] == nil {
		v.from[s] = make(map[int64]distid.ID)
	}
	v.from[s][d] = e
	if v.to[d] == nil {
		v.to[d] = make(map[int64]distid.ID)
	}
	v.to[d][s] = e
	v.ghosts[s] = true
	v.ghosts[d] = true
}

// IsGhost reports whether id is a remote neighbour rather than a resident
// vertex.
func (v *View) IsGhost(id int64) bool { return v.ghosts[id] }

// Node implements graph.Graph.
func (v *View) Node(id int64) graph.Node {
	if _, ok := slices.BinarySearch(v.nodes, id); !ok {
		return nil
	}
	return simple.Node(id)
}

// Nodes implements graph.Graph.
func (v *View) Nodes() graph.Nodes {
	if len(v.nodes) == 0 {
		return graph.Empty
	}
	return iterator.NewOrderedNodes(toNodes(v.nodes))
}

// From implements graph.Graph.
func (v *View) From(id int64) graph.Nodes {
	return nodesOf(v.from[id])
}

// To implements graph.Directed.
func (v *View) To(id int64) graph.Nodes {
	return nodesOf(v.to[id])
}

// HasEdgeBetween implements graph.Graph.
func (v *View) HasEdgeBetween(xid, yid int64) bool {
	return v.HasEdgeFromTo(xid, yid) || v.HasEdgeFromTo(yid, xid)
}

// HasEdgeFromTo implements graph.Directed.
func (v *View) HasEdgeFromTo(uid, vid int64) bool {
	_, ok := v.from[uid][vid]
	return ok
}

// Edge implements graph.Graph. With parallel edges one of them is returned.
func (v *View) Edge(uid, vid int64) graph.Edge {
	e, ok := v.from[uid][vid]
	if !ok {
		return nil
	}
	return Edge{F: simple.Node(uid), T: simple.Node(vid), ID: e}
}

func nodesOf(m map[int64]distid.ID) graph.Nodes {
	if len(m) == 0 {
		return graph.Empty
	}
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return iterator.NewOrderedNodes(toNodes(ids))
}

func toNodes(ids []int64) []graph.Node {
	nodes := make([]graph.Node, len(ids))
	for i, id := range ids {
		nodes[i] = simple.Node(id)
	}
	return nodes
}
