package cache

import (
	"fmt"
	"sync/atomic"
)

// Generation is a monotonically increasing counter folded into cache
// keys. Every mutating store operation bumps it, so the next snapshot
// read misses the cache and refetches instead of serving pre-write data.
// This replaces ad hoc cache clearing with an explicit read-after-write
// contract.
type Generation struct {
	n atomic.Uint64
}

// Current returns the current generation number.
func (g *Generation) Current() uint64 {
	return g.n.Load()
}

// Bump invalidates all keys built against earlier generations.
func (g *Generation) Bump() uint64 {
	return g.n.Add(1)
}

// Key builds a cache key scoped to the current generation.
func (g *Generation) Key(base string) string {
	return fmt.Sprintf("%s@g%d", base, g.n.Load())
}
