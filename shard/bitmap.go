package shard

import (
	"iter"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// Bitmap is a set of local vertex indices.
// It wraps the 64-bit roaring implementation.
type Bitmap struct {
	rb *roaring64.Bitmap
}

// NewBitmap creates an empty bitmap.
func NewBitmap() *Bitmap {
	return &Bitmap{
		rb: roaring64.New(),
	}
}

// Add adds i to the bitmap.
func (b *Bitmap) Add(i uint64) {
	b.rb.Add(i)
}

// Contains checks if i is in the bitmap.
func (b *Bitmap) Contains(i uint64) bool {
	return b.rb.Contains(i)
}

// IsEmpty returns true if the bitmap is empty.
func (b *Bitmap) IsEmpty() bool {
	return b.rb.IsEmpty()
}

// Cardinality returns the number of elements in the bitmap.
func (b *Bitmap) Cardinality() uint64 {
	return b.rb.GetCardinality()
}

// Clone returns a deep copy of the bitmap.
func (b *Bitmap) Clone() *Bitmap {
	return &Bitmap{
		rb: b.rb.Clone(),
	}
}

// Iterator returns an iterator over the bitmap in ascending order.
func (b *Bitmap) Iterator() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		it := b.rb.Iterator()
		for it.HasNext() {
			if !yield(it.Next()) {
				return
			}
		}
	}
}
