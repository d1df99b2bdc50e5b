// internal/util/generic.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"github.com/iancoleman/orderedmap"
	"golang.org/x/exp/constraints"
)

// Select returns a or b depending on sel; a small readability helper used
// in place of an inline ternary-shaped if/else.
func Select[T any](sel bool, a, b T) T {
	if sel {
		return a
	}
	return b
}

// Clamp restricts v to [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	} else if v > hi {
		return hi
	}
	return v
}

// Min returns the smaller of a and b.
func Min[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}

///////////////////////////////////////////////////////////////////////////
// OrderedMap

// OrderedMap is a typed, insertion-ordered string-keyed map. It wraps
// github.com/iancoleman/orderedmap, which stores values as interface{};
// this wrapper adds the type assertions so callers work with V directly.
// It is the backing structure for the naming index's ICAO and chart-name
// maps, where iteration order must match insertion order (discovery
// order, not sorted order) unless the caller asks for an explicit sort.
type OrderedMap[V any] struct {
	m *orderedmap.OrderedMap
}

func NewOrderedMap[V any]() *OrderedMap[V] {
	return &OrderedMap[V]{m: orderedmap.New()}
}

// Get returns the value stored under key and whether it was present.
func (o *OrderedMap[V]) Get(key string) (V, bool) {
	var zero V
	v, ok := o.m.Get(key)
	if !ok {
		return zero, false
	}
	vv, ok := v.(V)
	if !ok {
		return zero, false
	}
	return vv, true
}

// Set inserts or overwrites the value stored under key. Insertion order is
// preserved for new keys; overwriting an existing key does not move it.
func (o *OrderedMap[V]) Set(key string, v V) {
	o.m.Set(key, v)
}

// SetIfAbsent inserts v under key iff key is not already present, and
// reports whether the insert happened.
func (o *OrderedMap[V]) SetIfAbsent(key string, v V) bool {
	if _, ok := o.m.Get(key); ok {
		return false
	}
	o.m.Set(key, v)
	return true
}

func (o *OrderedMap[V]) Delete(key string) {
	o.m.Delete(key)
}

func (o *OrderedMap[V]) Len() int {
	return len(o.m.Keys())
}

// Keys returns the keys in insertion order.
func (o *OrderedMap[V]) Keys() []string {
	return o.m.Keys()
}

// Values returns the values in insertion-order, skipping any entry whose
// value somehow doesn't type-assert to V (which should never happen given
// Set is the only inserter).
func (o *OrderedMap[V]) Values() []V {
	keys := o.m.Keys()
	vs := make([]V, 0, len(keys))
	for _, k := range keys {
		if v, ok := o.Get(k); ok {
			vs = append(vs, v)
		}
	}
	return vs
}
