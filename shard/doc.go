// Package shard implements the per-rank adjacency storage of a distributed
// graph.
//
// A Shard owns the adjacency lists of the vertices resident on one rank, the
// endpoints of every edge minted there and the counter used to mint new edge
// indices. It is exclusively owned by its rank and is not safe for concurrent
// use: all mutation happens on that rank's single dispatch path.
package shard
