// Package distgraph partitions a graph across a fixed group of ranks and
// coordinates its construction.
//
// Every rank holds one Graph: the vertices it owns, their adjacency lists
// and their property rows. A Coordinator attached to that Graph routes each
// creation or lookup request to the rank that owns the affected vertex or
// edge and applies it there, either directly or through messages exchanged
// over a transport.Channel.
//
// # Identifiers
//
// Vertex and edge ids pack the owning rank and a rank-local index into one
// distid.ID (see package distid). Vertices may additionally be named by a
// pedigree, a typed value that identifies a vertex independent of the rank
// that created it. The owner of a pedigree is computed without communication
// (see package pedigree), so every rank agrees on it.
//
// # Quick Start
//
// Run one coordinator per rank over an in-process group:
//
//	group, _ := local.NewGroup(2)
//	defer group.Close()
//
//	err := local.Run(ctx, group, func(ctx context.Context, ch transport.Channel) error {
//	    g := distgraph.NewGraph(distgraph.Directed, property.Schema{}, property.Schema{})
//	    c, err := distgraph.NewCoordinator(ch)
//	    if err != nil {
//	        return err
//	    }
//	    if err := c.Attach(g); err != nil {
//	        return err
//	    }
//	    if ch.Rank() == 0 {
//	        if err := c.AddEdgeAsync(ctx, distgraph.ByPedigree(value.String("a")),
//	            distgraph.ByPedigree(value.String("b")), nil); err != nil {
//	            return err
//	        }
//	    }
//	    // Mirrors of cross-rank edges land no later than this barrier.
//	    return c.Synchronize(ctx)
//	})
//
// # Consistency
//
// Fire-and-forget requests (the Async variants, and the mirror entry of
// every cross-rank edge) are applied no later than the next Synchronize.
// Reads of a Graph (in-edges, FindEdgeEndpoints of remote edges, boundary
// sets) are consistent only after Synchronize returned on every rank and
// before new mutations are issued.
package distgraph
