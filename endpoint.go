package distgraph

import (
	"fmt"

	"github.com/hupe1980/distgraph/distid"
	"github.com/hupe1980/distgraph/value"
)

// Endpoint names one end of an edge: either a resolved id or a pedigree.
type Endpoint struct {
	id       distid.ID
	pedigree value.Value
	resolved bool
}

// ByID names a vertex by its distributed id.
func ByID(id distid.ID) Endpoint {
	return Endpoint{id: id, resolved: true}
}

// ByPedigree names a vertex by pedigree. The vertex is created on its owner
// if it does not exist yet.
func ByPedigree(p value.Value) Endpoint {
	return Endpoint{pedigree: p}
}

// ID returns the id and whether the endpoint is resolved.
func (e Endpoint) ID() (distid.ID, bool) { return e.id, e.resolved }

// Pedigree returns the pedigree of an unresolved endpoint.
func (e Endpoint) Pedigree() value.Value { return e.pedigree }

// String returns the id or the pedigree.
func (e Endpoint) String() string {
	if e.resolved {
		return fmt.Sprintf("id(%d)", e.id)
	}
	return "pedigree(" + e.pedigree.String() + ")"
}

func (e Endpoint) validate() error {
	if !e.resolved && !e.pedigree.IsValid() {
		return ErrInvalidEndpoint
	}
	return nil
}

// VertexRequest describes a vertex to create.
//
// Pedigree names the vertex; when invalid, the pedigree is taken from the
// vertex schema's pedigree column of Properties. Properties, when non-nil,
// must have one value per vertex column. A request without any pedigree
// always creates a new vertex on the calling rank.
type VertexRequest struct {
	Pedigree   value.Value
	Properties []value.Value
}
