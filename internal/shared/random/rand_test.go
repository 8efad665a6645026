package random

import (
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"testing"
)

// TestFloat64_Range checks that Float64 stays in [0,1).
func TestFloat64_Range(t *testing.T) {
	for i := 0; i < 10_000; i++ {
		v := Float64()
		require.GreaterOrEqual(t, v, 0.0)
		require.Less(t, v, 1.0)
	}
}

// TestFloat64_Spread checks that values cover the unit interval.
func TestFloat64_Spread(t *testing.T) {
	buckets := make(map[int]struct{})
	for i := 0; i < 1000; i++ {
		buckets[int(Float64()*100)] = struct{}{}
	}
	require.Greater(t, len(buckets), 80)
}

// TestInt64N checks bounds and the non-positive case.
func TestInt64N(t *testing.T) {
	require.Zero(t, Int64N(0))
	require.Zero(t, Int64N(-5))
	for i := 0; i < 1000; i++ {
		v := Int64N(7)
		require.GreaterOrEqual(t, v, int64(0))
		require.Less(t, v, int64(7))
	}
}

// TestChance checks the certain cases and a rough frequency.
func TestChance(t *testing.T) {
	for i := 0; i < 100; i++ {
		require.False(t, Chance(0))
		require.True(t, Chance(1))
	}

	hits := 0
	for i := 0; i < 10_000; i++ {
		if Chance(0.25) {
			hits++
		}
	}
	require.InDelta(t, 2500, hits, 400)
}

// TestInit_RoundsShards checks the power-of-two shard layout.
func TestInit_RoundsShards(t *testing.T) {
	defer Init(0)

	Init(5)
	require.Len(t, shards, 8)
	require.Equal(t, uint32(7), mask)

	Init(-1)
	n := len(shards)
	require.Positive(t, n)
	require.Zero(t, n&(n-1))
}

// TestUint64_Concurrent checks that concurrent readers are safe and produce distinct values.
func TestUint64_Concurrent(t *testing.T) {
	const workers, per = 8, 1000
	results := make([][]uint64, workers)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			out := make([]uint64, per)
			for i := range out {
				out[i] = Uint64()
			}
			results[w] = out
			return nil
		})
	}
	require.NoError(t, g.Wait())

	seen := make(map[uint64]struct{}, workers*per)
	for _, out := range results {
		for _, v := range out {
			seen[v] = struct{}{}
		}
	}
	require.Greater(t, len(seen), workers*per*99/100)
}
