// charts/lru.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package charts

import (
	"math"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultLoadLimitDivisor and DefaultLoadLimitCap define the default byte
// budget: min(physical_memory/32, 256MiB) (§4.5).
const (
	DefaultLoadLimitDivisor = 32
	DefaultLoadLimitCap     = 256 * 1024 * 1024
	MinLoadLimit            = 16 * 1024 * 1024
)

// lruAccountant is the C5 LRU memory accountant: load_seq from §4.4/§4.5,
// ordered most-recently-used first. It's built on the same
// hashicorp/golang-lru package the teacher uses for its weather-manifest
// decompression cache, sized effectively unbounded since eviction here is
// driven by a byte budget rather than an entry count — touch/evict below
// implement that policy on top of the library's recency ordering.
type lruAccountant struct {
	cache  *lru.Cache[string, *Chart]
	budget int64
}

func newLRUAccountant(budget int64) *lruAccountant {
	c, err := lru.New[string, *Chart](math.MaxInt32)
	if err != nil {
		// Only returns an error for a non-positive size, which MaxInt32
		// never is.
		panic(err)
	}
	return &lruAccountant{cache: c, budget: budget}
}

// touch makes c the most-recently-used entry, inserting it if it wasn't
// already resident.
func (l *lruAccountant) touch(c *Chart) {
	l.cache.Add(c.lruKey(), c)
	c.inLRU = true
}

// remove evicts c from the list without regard to the budget. (The purge
// command uses clear instead.)
func (l *lruAccountant) remove(c *Chart) {
	l.cache.Remove(c.lruKey())
	c.inLRU = false
}

// totalBytes sums the current byte cost of every resident chart.
func (l *lruAccountant) totalBytes() int64 {
	var total int64
	for _, key := range l.cache.Keys() {
		if c, ok := l.cache.Peek(key); ok {
			total += chartByteCost(c)
		}
	}
	return total
}

// evict drops least-recently-used charts (releasing their surface and
// payload via drop) until either only one resident chart remains or the
// byte budget is satisfied, whichever comes first (§4.5): the
// most-recently-touched chart is never evicted by its own load.
func (l *lruAccountant) evict(drop func(*Chart)) {
	for l.cache.Len() > 1 && l.totalBytes() > l.budget {
		_, c, ok := l.cache.RemoveOldest()
		if !ok {
			return
		}
		c.inLRU = false
		drop(c)
	}
}

func (l *lruAccountant) setBudget(budget int64) {
	if budget < MinLoadLimit {
		budget = MinLoadLimit
	}
	l.budget = budget
}

// clear drops every resident entry (the purge sentinel, §4.4). Naming
// entries (Airport/Chart identity) are untouched; only load_seq residency
// is cleared.
func (l *lruAccountant) clear(drop func(*Chart)) {
	for _, key := range l.cache.Keys() {
		if c, ok := l.cache.Peek(key); ok {
			drop(c)
			c.inLRU = false
		}
	}
	l.cache.Purge()
}

// chartByteCost is the Σ byte-cost(c) term from §4.5: decoded surface
// bytes plus any in-memory compressed payload bytes currently held.
func chartByteCost(c *Chart) int64 {
	var total int64
	if c.surface != nil {
		total += c.surface.Surface.ByteCost()
	}
	total += int64(len(c.payload))
	return total
}
