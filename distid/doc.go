// Package distid encodes distributed vertex and edge identifiers.
//
// A distributed ID packs the owning rank and the rank-local index into one
// signed 64-bit integer:
//
//	[sign:1][owner:ownerBits-1][index:indexBits]
//
// ownerBits is ceil(log2(P)) + 1 (minimum 2 when P == 1), so the sign bit is
// accounted to the owner field and indexBits = 64 - ownerBits. Every rank
// derives the same parameters from P alone, which makes ownership of an ID
// decidable without communication.
//
// Decoding is bit-compatible with identifiers produced by older writers:
// the owner of an ID with the sign bit set is reconstructed with an explicit
// marker bit, and the index is recovered by a sign-preserving shift pair
// rather than a mask.
package distid
