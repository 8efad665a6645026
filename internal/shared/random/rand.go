// Package random is a lock-free SplitMix64 source sharded across CPUs, used
// where simulated user behavior needs cheap concurrent randomness.
package random

import (
	"runtime"
	"sync/atomic"
	"time"
)

const golden = 0x9e3779b97f4a7c15

type shard struct {
	state atomic.Uint64
	_     [56]byte
}

var (
	shards []shard
	mask   uint32
	rr     atomic.Uint32
)

func init() { Init(0) }

// Init reseeds the source with n shards rounded up to a power of two.
// If n <= 0, it uses GOMAXPROCS*4. Init must not race with readers.
func Init(n int) {
	if n <= 0 {
		n = max(runtime.GOMAXPROCS(0)*4, 1)
	}
	p := 1
	for p < n {
		p <<= 1
	}

	shards = make([]shard, p)
	mask = uint32(p - 1)

	seed := mix(uint64(time.Now().UnixNano()) + golden)
	for i := range shards {
		seed += golden
		shards[i].state.Store(max(mix(seed), 1))
	}
	rr.Store(0)
}

// Uint64 returns 64 uniformly distributed bits.
func Uint64() uint64 {
	s := &shards[rr.Add(1)&mask]
	return mix(s.state.Add(golden))
}

// Float64 returns a uniform value in [0,1).
func Float64() float64 {
	const inv53 = 1.0 / (1 << 53)
	return float64(Uint64()>>11) * inv53
}

// Int64N returns a uniform value in [0,n). It returns 0 if n <= 0.
func Int64N(n int64) int64 {
	if n <= 0 {
		return 0
	}
	return int64(Uint64() % uint64(n))
}

// Chance reports true with probability p.
func Chance(p float64) bool {
	switch {
	case p <= 0:
		return false
	case p >= 1:
		return true
	}
	return Float64() < p
}

func mix(z uint64) uint64 {
	z ^= z >> 30
	z *= 0xbf58476d1ce4e5b9
	z ^= z >> 27
	z *= 0x94d049bb133111eb
	z ^= z >> 31
	return z
}
