package testutil

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/hupe1980/distgraph/transport"
	"github.com/hupe1980/distgraph/transport/local"
	"github.com/hupe1980/distgraph/value"
)

// DefaultTimeout bounds a RunRanks execution.
const DefaultTimeout = 10 * time.Second

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Int63n returns a non-negative pseudo-random int64 in [0,n).
func (r *RNG) Int63n(n int64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Int63n(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Pedigrees returns n distinct string pedigrees ("v0", "v1", ...) in random
// order.
func (r *RNG) Pedigrees(n int) []value.Value {
	r.mu.Lock()
	perm := r.rand.Perm(n)
	r.mu.Unlock()

	out := make([]value.Value, n)
	for i, p := range perm {
		out[i] = value.String("v" + strconv.Itoa(p))
	}
	return out
}

// Pair is an ordered pair of indices.
type Pair struct {
	From int
	To   int
}

// Pairs returns m random pairs over [0,n). Self-pairs and duplicates may
// occur.
func (r *RNG) Pairs(m, n int) []Pair {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Pair, m)
	for i := range out {
		out[i] = Pair{From: r.rand.Intn(n), To: r.rand.Intn(n)}
	}
	return out
}

// RunRanks runs fn once per rank of a new in-process group of size ranks and
// fails t if any rank returns an error or the run exceeds DefaultTimeout.
func RunRanks(t testing.TB, ranks int, fn func(ctx context.Context, ch transport.Channel) error, optFns ...func(o *local.Options)) {
	t.Helper()

	if err := RunRanksErr(ranks, fn, optFns...); err != nil {
		t.Fatalf("run %d ranks: %v", ranks, err)
	}
}

// RunRanksErr is RunRanks without a testing.TB; it returns the first error.
func RunRanksErr(ranks int, fn func(ctx context.Context, ch transport.Channel) error, optFns ...func(o *local.Options)) error {
	g, err := local.NewGroup(ranks, optFns...)
	if err != nil {
		return err
	}
	defer g.Close()

	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()

	return local.Run(ctx, g, fn)
}
