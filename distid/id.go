package distid

import (
	"fmt"
	"iter"
)

// ID is a distributed vertex or edge identifier.
type ID int64

// Width is the bit width of an ID.
const Width = 64

const signBit = ID(-1) << (Width - 1)

// Codec packs (owner, index) pairs for a fixed process count.
//
// A Codec is an immutable value and safe for concurrent use.
type Codec struct {
	ranks      int
	ownerBits  uint
	indexBits  uint
	highMarker ID
}

// NewCodec computes the bit layout for a group of ranks processes.
func NewCodec(ranks int) (Codec, error) {
	if ranks < 1 {
		return Codec{}, fmt.Errorf("distid: invalid rank count %d", ranks)
	}

	// Integer ceil(log2(ranks)).
	var procBits uint
	for tmp := ranks - 1; tmp != 0; tmp >>= 1 {
		procBits++
	}
	if procBits == 0 {
		procBits = 1
	}

	return Codec{
		ranks:      ranks,
		ownerBits:  procBits + 1, // one more bit for the sign
		indexBits:  Width - (procBits + 1),
		highMarker: ID(1) << procBits,
	}, nil
}

// MustCodec is like NewCodec but panics on error.
func MustCodec(ranks int) Codec {
	c, err := NewCodec(ranks)
	if err != nil {
		panic(err)
	}
	return c
}

// Ranks returns the process count the codec was built for.
func (c Codec) Ranks() int { return c.ranks }

// OwnerBits returns the number of high bits reserved for the owner (including the sign bit).
func (c Codec) OwnerBits() uint { return c.ownerBits }

// IndexBits returns the number of low bits holding the local index.
func (c Codec) IndexBits() uint { return c.indexBits }

// MaxIndex returns the largest index that survives an Encode/Index round trip.
func (c Codec) MaxIndex() int64 {
	if c.ranks == 1 {
		return int64(^uint64(0) >> 1)
	}
	return int64(1)<<(c.indexBits-1) - 1
}

// Encode builds the ID for index on owner.
//
// Encode panics if owner is outside [0, Ranks()).
func (c Codec) Encode(owner int, index int64) ID {
	if owner < 0 || owner >= c.ranks {
		panic(fmt.Sprintf("distid: owner %d out of range [0,%d)", owner, c.ranks))
	}
	if c.ranks == 1 {
		return ID(index)
	}
	return ID(owner)<<c.indexBits | ID(index)
}

// Owner returns the rank that owns id.
func (c Codec) Owner(id ID) int {
	if c.ranks == 1 {
		return 0
	}
	if id&signBit != 0 {
		tmp := id ^ signBit
		return int(tmp>>c.indexBits | c.highMarker)
	}
	return int(id >> c.indexBits)
}

// Index returns the owner-local index of id.
func (c Codec) Index(id ID) int64 {
	if c.ranks == 1 {
		return int64(id)
	}
	// Shift off the owner bits.
	return int64((id << c.ownerBits) >> c.ownerBits)
}

// Decode returns both halves of id.
func (c Codec) Decode(id ID) (owner int, index int64) {
	return c.Owner(id), c.Index(id)
}

// Range yields the IDs owner assigns to its first n local indices.
func (c Codec) Range(owner int, n int64) iter.Seq[ID] {
	return func(yield func(ID) bool) {
		for i := int64(0); i < n; i++ {
			if !yield(c.Encode(owner, i)) {
				return
			}
		}
	}
}
