package distgraph

import (
	"github.com/hupe1980/distgraph/distid"
	"github.com/hupe1980/distgraph/transport"
	"github.com/hupe1980/distgraph/value"
)

// Message tags exchanged between coordinators.
const (
	TagAddVertex transport.Tag = iota + 1
	TagAddVertexReply
	TagAddEdge
	TagAddEdgeReply
	TagAddEdgeIDPedigree
	TagAddEdgePedigreeID
	TagAddEdgePedigreePedigree
	TagAddBackEdge
	TagFindVertex
	TagFindEdge
)

func init() {
	transport.RegisterTagName(TagAddVertex, "add_vertex")
	transport.RegisterTagName(TagAddVertexReply, "add_vertex_reply")
	transport.RegisterTagName(TagAddEdge, "add_edge")
	transport.RegisterTagName(TagAddEdgeReply, "add_edge_reply")
	transport.RegisterTagName(TagAddEdgeIDPedigree, "add_edge_id_pedigree")
	transport.RegisterTagName(TagAddEdgePedigreeID, "add_edge_pedigree_id")
	transport.RegisterTagName(TagAddEdgePedigreePedigree, "add_edge_pedigree_pedigree")
	transport.RegisterTagName(TagAddBackEdge, "add_back_edge")
	transport.RegisterTagName(TagFindVertex, "find_vertex")
	transport.RegisterTagName(TagFindEdge, "find_edge")
}

// addVertexMsg carries TagAddVertex and TagAddVertexReply.
type addVertexMsg struct {
	Pedigree   value.Value   `json:"pedigree" msgpack:"p"`
	Properties []value.Value `json:"properties,omitempty" msgpack:"props,omitempty"`
}

// addEdgeMsg carries every edge creation tag. Which endpoint fields are
// meaningful depends on the tag.
type addEdgeMsg struct {
	Source         distid.ID     `json:"source" msgpack:"s"`
	Target         distid.ID     `json:"target" msgpack:"t"`
	SourcePedigree value.Value   `json:"source_pedigree" msgpack:"sp"`
	TargetPedigree value.Value   `json:"target_pedigree" msgpack:"tp"`
	Properties     []value.Value `json:"properties,omitempty" msgpack:"props,omitempty"`
}

type backEdgeMsg struct {
	Source   distid.ID `json:"source" msgpack:"s"`
	Target   distid.ID `json:"target" msgpack:"t"`
	Edge     distid.ID `json:"edge" msgpack:"e"`
	Directed bool      `json:"directed" msgpack:"d"`
}

type findVertexMsg struct {
	Pedigree value.Value `json:"pedigree" msgpack:"p"`
}

type findEdgeMsg struct {
	Edge distid.ID `json:"edge" msgpack:"e"`
}

// idReply answers TagAddVertexReply, TagAddEdgeReply and TagFindVertex.
type idReply struct {
	ID    distid.ID `json:"id" msgpack:"id"`
	Found bool      `json:"found" msgpack:"f"`
}

type endpointsReply struct {
	Source distid.ID `json:"source" msgpack:"s"`
	Target distid.ID `json:"target" msgpack:"t"`
	Found  bool      `json:"found" msgpack:"f"`
}
