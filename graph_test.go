package distgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/distgraph/distid"
	"github.com/hupe1980/distgraph/property"
)

func TestDirection_String(t *testing.T) {
	assert.Equal(t, "directed", Directed.String())
	assert.Equal(t, "undirected", Undirected.String())
	assert.Equal(t, "direction(7)", Direction(7).String())
}

func TestGraph_Unattached(t *testing.T) {
	g := NewGraph(Undirected, property.Schema{}, property.Schema{})

	assert.Equal(t, Undirected, g.Direction())
	assert.False(t, g.IsDistributed())
	assert.Equal(t, 0, g.Rank())
	assert.Equal(t, int64(0), g.NumberOfVertices())
	assert.Equal(t, int64(0), g.NumberOfEdges())
	assert.Empty(t, collect(g.Vertices()))
	assert.Empty(t, collect(g.BoundaryVertices()))
	assert.True(t, g.isEmpty())
}

func TestGraph_NonResidentVertex(t *testing.T) {
	g := NewGraph(Directed, property.Schema{}, property.Schema{})
	v := distid.ID(3)

	assert.False(t, g.HasVertex(v))
	assert.False(t, g.IsBoundary(v))

	_, err := g.OutEdges(v)
	assert.ErrorIs(t, err, ErrVertexNotLocal)
	_, err = g.InEdges(v)
	assert.ErrorIs(t, err, ErrVertexNotLocal)
	_, err = g.OutDegree(v)
	assert.ErrorIs(t, err, ErrVertexNotLocal)
	_, err = g.InDegree(v)
	assert.ErrorIs(t, err, ErrVertexNotLocal)

	_, ok := g.VertexPedigree(v)
	assert.False(t, ok)
	_, ok = g.VertexProperties(v)
	assert.False(t, ok)
	_, ok = g.EdgeProperties(v)
	assert.False(t, ok)
}

func TestGraph_VerticesRestartable(t *testing.T) {
	harness{ranks: 2, direction: Directed}.run(t, func(e rankEnv) error {
		for range 3 {
			if _, err := e.c.AddVertex(e.ctx, VertexRequest{}); err != nil {
				return err
			}
		}
		ids := e.g.Codec()
		want := []distid.ID{ids.Encode(e.rank, 0), ids.Encode(e.rank, 1), ids.Encode(e.rank, 2)}

		seq := e.g.Vertices()
		assert.Equal(t, want, collect(seq))
		assert.Equal(t, want, collect(seq))

		for v := range seq {
			assert.True(t, e.g.HasVertex(v))
			_, ok := e.g.VertexPedigree(v)
			assert.False(t, ok)
			break
		}
		assert.Equal(t, e.rank, e.g.Rank())
		assert.True(t, e.g.IsDistributed())
		return e.c.Synchronize(e.ctx)
	})
}
