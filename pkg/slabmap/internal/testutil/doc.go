// Package testutil provides test-only infrastructure for slabmap behavior and
// fuzz testing.
//
// It includes deterministic byte streams, operation generators, and a
// model/real harness that drives the slab map and every small-map variant
// through the same operation stream.
package testutil
