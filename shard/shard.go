package shard

import (
	"iter"

	"github.com/hupe1980/distgraph/distid"
	"github.com/hupe1980/distgraph/value"
)

// Direction selects an adjacency list.
type Direction uint8

const (
	// Out selects the out-edge list.
	Out Direction = iota
	// In selects the in-edge list.
	In
)

// Adjacency is one entry of an adjacency list.
type Adjacency struct {
	Neighbor distid.ID
	Edge     distid.ID
}

// Endpoints are the source and target of a locally minted edge.
type Endpoints struct {
	Source distid.ID
	Target distid.ID
}

type vertex struct {
	out []Adjacency
	in  []Adjacency
}

// Shard is the adjacency storage of one rank.
type Shard struct {
	vertices  []vertex
	pedigrees []value.Value
	byKey     map[string]int64

	edges       []Endpoints
	edgeCounter int64

	boundary *Bitmap
}

// New creates an empty shard.
func New() *Shard {
	return &Shard{
		byKey:    make(map[string]int64),
		boundary: NewBitmap(),
	}
}

// AddVertex appends an empty adjacency record and returns its local index.
// A valid pedigree is indexed for Lookup.
func (s *Shard) AddVertex(pedigree value.Value) int64 {
	idx := int64(len(s.vertices))
	s.vertices = append(s.vertices, vertex{})
	s.pedigrees = append(s.pedigrees, pedigree)
	if pedigree.IsValid() {
		s.byKey[pedigree.PedigreeKey()] = idx
	}
	return idx
}

// Lookup returns the local index of the vertex with the given pedigree.
func (s *Shard) Lookup(pedigree value.Value) (int64, bool) {
	if !pedigree.IsValid() {
		return 0, false
	}
	idx, ok := s.byKey[pedigree.PedigreeKey()]
	return idx, ok
}

// Pedigree returns the pedigree of local vertex i (invalid if none).
func (s *Shard) Pedigree(i int64) value.Value {
	if !s.HasVertex(i) {
		return value.Value{}
	}
	return s.pedigrees[i]
}

// HasVertex reports whether i is a valid local index.
func (s *Shard) HasVertex(i int64) bool {
	return i >= 0 && i < int64(len(s.vertices))
}

// VertexCount returns the number of local vertices.
func (s *Shard) VertexCount() int64 { return int64(len(s.vertices)) }

// NextEdgeIndex returns the next local edge index. The counter is monotonic.
func (s *Shard) NextEdgeIndex() int64 {
	idx := s.edgeCounter
	s.edgeCounter++
	return idx
}

// RecordEdge stores the endpoints of the locally minted edge index.
func (s *Shard) RecordEdge(index int64, source, target distid.ID) {
	for int64(len(s.edges)) <= index {
		s.edges = append(s.edges, Endpoints{})
	}
	s.edges[index] = Endpoints{Source: source, Target: target}
}

// Endpoints returns the endpoints of a locally minted edge.
func (s *Shard) Endpoints(index int64) (Endpoints, bool) {
	if index < 0 || index >= int64(len(s.edges)) {
		return Endpoints{}, false
	}
	return s.edges[index], true
}

// EdgeCount returns the number of edges minted on this shard.
func (s *Shard) EdgeCount() int64 { return s.edgeCounter }

// AddEdge appends adj to the dir list of local vertex i.
// It reports false if i is not a local vertex.
func (s *Shard) AddEdge(i int64, adj Adjacency, dir Direction) bool {
	if !s.HasVertex(i) {
		return false
	}
	v := &s.vertices[i]
	if dir == In {
		v.in = append(v.in, adj)
	} else {
		v.out = append(v.out, adj)
	}
	return true
}

// AddOutEdge appends adj to the out-edges of local vertex i.
func (s *Shard) AddOutEdge(i int64, adj Adjacency) bool { return s.AddEdge(i, adj, Out) }

// AddInEdge appends adj to the in-edges of local vertex i.
func (s *Shard) AddInEdge(i int64, adj Adjacency) bool { return s.AddEdge(i, adj, In) }

// OutDegree returns the out-degree of local vertex i.
func (s *Shard) OutDegree(i int64) int {
	if !s.HasVertex(i) {
		return 0
	}
	return len(s.vertices[i].out)
}

// InDegree returns the in-degree of local vertex i.
func (s *Shard) InDegree(i int64) int {
	if !s.HasVertex(i) {
		return 0
	}
	return len(s.vertices[i].in)
}

// OutEdges iterates the out-edges of local vertex i.
func (s *Shard) OutEdges(i int64) iter.Seq[Adjacency] {
	return s.list(i, Out)
}

// InEdges iterates the in-edges of local vertex i.
func (s *Shard) InEdges(i int64) iter.Seq[Adjacency] {
	return s.list(i, In)
}

func (s *Shard) list(i int64, dir Direction) iter.Seq[Adjacency] {
	return func(yield func(Adjacency) bool) {
		if !s.HasVertex(i) {
			return
		}
		entries := s.vertices[i].out
		if dir == In {
			entries = s.vertices[i].in
		}
		for _, adj := range entries {
			if !yield(adj) {
				return
			}
		}
	}
}

// MarkBoundary records that local vertex i has an adjacency entry installed
// on behalf of another rank.
func (s *Shard) MarkBoundary(i int64) {
	if s.HasVertex(i) {
		s.boundary.Add(uint64(i))
	}
}

// IsBoundary reports whether local vertex i is a boundary vertex.
func (s *Shard) IsBoundary(i int64) bool {
	return i >= 0 && s.boundary.Contains(uint64(i))
}

// Boundary iterates boundary vertices in ascending local index order.
func (s *Shard) Boundary() iter.Seq[int64] {
	return func(yield func(int64) bool) {
		for i := range s.boundary.Iterator() {
			if !yield(int64(i)) {
				return
			}
		}
	}
}

// BoundaryCount returns the number of boundary vertices.
func (s *Shard) BoundaryCount() uint64 { return s.boundary.Cardinality() }
