package distid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec_Layout(t *testing.T) {
	tests := []struct {
		ranks     int
		ownerBits uint
		indexBits uint
	}{
		{1, 2, 62},
		{2, 2, 62},
		{3, 3, 61},
		{4, 3, 61},
		{5, 4, 60},
		{8, 4, 60},
		{9, 5, 59},
		{1024, 11, 53},
	}

	for _, tt := range tests {
		c, err := NewCodec(tt.ranks)
		require.NoError(t, err)
		assert.Equal(t, tt.ownerBits, c.OwnerBits(), "ranks=%d", tt.ranks)
		assert.Equal(t, tt.indexBits, c.IndexBits(), "ranks=%d", tt.ranks)
		assert.Equal(t, tt.ranks, c.Ranks())
	}
}

func TestCodec_InvalidRanks(t *testing.T) {
	_, err := NewCodec(0)
	assert.Error(t, err)

	assert.Panics(t, func() { MustCodec(-1) })
}

func TestCodec_RoundTrip(t *testing.T) {
	for _, ranks := range []int{1, 2, 3, 4, 7, 16, 255, 256, 1000} {
		c := MustCodec(ranks)
		indices := []int64{0, 1, 42, 12345, 1 << 20, c.MaxIndex() - 1, c.MaxIndex()}

		for owner := 0; owner < ranks; owner += max(1, ranks/8) {
			for _, index := range indices {
				id := c.Encode(owner, index)
				gotOwner, gotIndex := c.Decode(id)
				assert.Equal(t, owner, gotOwner, "ranks=%d owner=%d index=%d", ranks, owner, index)
				assert.Equal(t, index, gotIndex, "ranks=%d owner=%d index=%d", ranks, owner, index)
			}
		}
	}
}

func TestCodec_ThreeRanks(t *testing.T) {
	c := MustCodec(3)
	require.Equal(t, uint(3), c.OwnerBits())
	require.Equal(t, uint(61), c.IndexBits())

	id := c.Encode(2, 12345)
	assert.Equal(t, ID(2)<<61|12345, id)
	assert.Equal(t, 2, c.Owner(id))
	assert.Equal(t, int64(12345), c.Index(id))
}

func TestCodec_SingleRankIsIdentity(t *testing.T) {
	c := MustCodec(1)

	for _, raw := range []int64{0, 1, 99, 1 << 40, -1, -12345} {
		id := ID(raw)
		assert.Equal(t, 0, c.Owner(id))
		assert.Equal(t, raw, c.Index(id))
	}
	assert.Equal(t, ID(77), c.Encode(0, 77))
}

func TestCodec_SignBitOwner(t *testing.T) {
	// Identifiers with the sign bit set decode the sign as the owner's marker bit.
	c := MustCodec(2)
	id := signBit | 5

	assert.Equal(t, 2, c.Owner(id))
	assert.Equal(t, int64(5), c.Index(id))

	c4 := MustCodec(4)
	id = signBit | ID(1)<<c4.IndexBits() | 9
	assert.Equal(t, 5, c4.Owner(id))
	assert.Equal(t, int64(9), c4.Index(id))
}

func TestCodec_IndexSignExtends(t *testing.T) {
	// The top index bit is sign-extended, matching previously stored identifiers.
	c := MustCodec(2)
	id := c.Encode(1, int64(1)<<(c.IndexBits()-1))

	assert.Equal(t, 1, c.Owner(id))
	assert.Equal(t, -(int64(1) << (c.IndexBits() - 1)), c.Index(id))
}

func TestCodec_EncodePanicsOnBadOwner(t *testing.T) {
	c := MustCodec(3)

	assert.Panics(t, func() { c.Encode(3, 0) })
	assert.Panics(t, func() { c.Encode(-1, 0) })
}

func TestCodec_Range(t *testing.T) {
	c := MustCodec(4)

	var got []ID
	for id := range c.Range(3, 4) {
		got = append(got, id)
	}

	require.Len(t, got, 4)
	for i, id := range got {
		assert.Equal(t, 3, c.Owner(id))
		assert.Equal(t, int64(i), c.Index(id))
	}

	// Early break.
	n := 0
	for range c.Range(0, 100) {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func BenchmarkCodec_Encode(b *testing.B) {
	c := MustCodec(16)
	var i int64
	for b.Loop() {
		_ = c.Encode(int(i%16), i)
		i++
	}
}

func BenchmarkCodec_Decode(b *testing.B) {
	c := MustCodec(16)
	id := c.Encode(7, 1000000)
	for b.Loop() {
		_ = c.Owner(id)
		_ = c.Index(id)
	}
}
