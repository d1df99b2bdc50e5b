// charts/lru_test.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package charts

import "testing"

func chartWithBytes(icao, name string, n int) *Chart {
	a := &Airport{ICAO: icao}
	c := newChart(a, name, ChartTypeApproach)
	c.surface = newSharedSurface(Surface{Width: 1, Height: n / 4, Stride: 1, Pix: make([]byte, n)})
	return c
}

func TestLRUEvictionBudget(t *testing.T) {
	// Two charts fit within the budget; a third pushes it over.
	const chartBytes = 400 * 1024
	l := newLRUAccountant(1024 * 1024) // 1 MiB, per §8 scenario 4

	a := chartWithBytes("KXYZ", "A", chartBytes)
	b := chartWithBytes("KXYZ", "B", chartBytes)
	c := chartWithBytes("KXYZ", "C", chartBytes)

	var dropped []*Chart
	drop := func(ch *Chart) {
		ch.surface = nil
		dropped = append(dropped, ch)
	}

	l.touch(a)
	l.evict(drop)
	l.touch(b)
	l.evict(drop)
	l.touch(c)
	l.evict(drop)

	if len(dropped) != 1 || dropped[0] != a {
		t.Fatalf("expected A to be the sole eviction, got %v", dropped)
	}
	if a.surface != nil {
		t.Error("A's surface should have been dropped")
	}
	if l.cache.Len() != 2 {
		t.Errorf("load_seq length = %d, want 2", l.cache.Len())
	}
	if _, ok := l.cache.Peek(b.lruKey()); !ok {
		t.Error("B should still be resident")
	}
	if _, ok := l.cache.Peek(c.lruKey()); !ok {
		t.Error("C should still be resident")
	}
}

func TestLRUNeverEmptiesBelowOne(t *testing.T) {
	l := newLRUAccountant(1) // absurdly small budget
	a := chartWithBytes("KXYZ", "A", 600*1024)
	l.touch(a)

	var dropped int
	l.evict(func(c *Chart) { dropped++ })

	if dropped != 0 {
		t.Error("the sole resident chart must never be evicted by its own load")
	}
}

func TestSetBudgetFloor(t *testing.T) {
	l := newLRUAccountant(MinLoadLimit)
	l.setBudget(1024)
	if l.budget != MinLoadLimit {
		t.Errorf("budget = %d, want floor of %d", l.budget, MinLoadLimit)
	}
}
