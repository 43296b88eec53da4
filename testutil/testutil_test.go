package testutil

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/distgraph/transport"
)

func TestRNG_Reset(t *testing.T) {
	rng := NewRNG(4711)

	a := rng.Uint64()
	rng.Reset()
	b := rng.Uint64()

	assert.Equal(t, a, b)
	assert.Equal(t, int64(4711), rng.Seed())
}

func TestRNG_Pedigrees(t *testing.T) {
	rng := NewRNG(4711)

	ps := rng.Pedigrees(50)
	require.Len(t, ps, 50)

	seen := make(map[string]bool)
	for _, p := range ps {
		s, ok := p.AsString()
		require.True(t, ok)
		seen[s] = true
	}
	assert.Len(t, seen, 50)
}

func TestRNG_Pairs(t *testing.T) {
	rng := NewRNG(4711)

	pairs := rng.Pairs(100, 7)
	require.Len(t, pairs, 100)
	for _, p := range pairs {
		assert.GreaterOrEqual(t, p.From, 0)
		assert.Less(t, p.From, 7)
		assert.GreaterOrEqual(t, p.To, 0)
		assert.Less(t, p.To, 7)
	}
}

func TestRunRanks(t *testing.T) {
	var calls atomic.Int64
	seen := make([]atomic.Bool, 4)

	RunRanks(t, 4, func(ctx context.Context, ch transport.Channel) error {
		calls.Add(1)
		seen[ch.Rank()].Store(true)
		assert.Equal(t, 4, ch.Size())
		return ch.Synchronize(ctx)
	})

	assert.Equal(t, int64(4), calls.Load())
	for i := range seen {
		assert.True(t, seen[i].Load(), "rank %d", i)
	}
}

func TestRunRanksErr(t *testing.T) {
	boom := errors.New("boom")

	err := RunRanksErr(3, func(ctx context.Context, ch transport.Channel) error {
		if ch.Rank() == 1 {
			return boom
		}
		// The failing rank never arrives; cancellation releases the barrier.
		return ch.Synchronize(ctx)
	})

	assert.ErrorIs(t, err, boom)
}
