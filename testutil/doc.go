// Package testutil provides testing utilities for distgraph.
//
// This package is intended for use in tests and benchmarks only.
//
// # SPMD Runs
//
// RunRanks executes the same function once per rank over a fresh in-process
// group and fails the test on the first error:
//
//	testutil.RunRanks(t, 3, func(ctx context.Context, ch transport.Channel) error {
//	    c, _ := distgraph.NewCoordinator(ch)
//	    ...
//	    return c.Synchronize(ctx)
//	})
//
// # Random Input Generation
//
//	rng := testutil.NewRNG(seed)
//	names := rng.Pedigrees(100)     // distinct string pedigrees
//	pairs := rng.Pairs(500, 100)    // random index pairs
package testutil
