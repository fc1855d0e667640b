// Copyright 2024 The bithash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package bithash provides an in-memory hash Map and Set built on open
// addressing with per-slot bitmaps.
//
// Every 64 slots share a pair of bitmaps recording which slots hold a live
// entry and which slots an insertion has probed past.  Lookups stop at the
// first slot that is neither, so keys need no reserved "empty" value and
// deletes leave no tombstones.  Deletes do leave probe sequences longer than
// they need to be; Health measures that damage and Heal repairs it in place.
//
// Maps and Sets are not safe for concurrent use.  Slots, value pointers and
// iterators are invalidated by the next call that mutates the table.
package bithash

import (
	"iter"

	"github.com/bpowers/bithash/internal/table"
)

// Map is a hash table from K to V.  The zero Map is empty and ready to use
// with the default options.
type Map[K comparable, V any] struct {
	t table.Table[K, V]
}

// New returns an empty Map configured by opts.  Storage is allocated on the
// first Add or Expand.
func New[K comparable, V any](opts ...Option) (*Map[K, V], error) {
	cfg, err := newConfig[K](opts)
	if err != nil {
		return nil, err
	}
	return &Map[K, V]{t: *table.New[K, V](cfg)}, nil
}

// Add stores value under key and returns a pointer to the stored value.
// Adding a key that is already present fails with ErrDuplicateKey and
// leaves the Map unchanged.
func (m *Map[K, V]) Add(key K, value V) (*V, error) {
	slot, err := m.t.Add(key)
	if err != nil {
		return nil, err
	}
	v := m.t.Value(slot)
	*v = value
	return v, nil
}

// Find returns a pointer to the value stored under key, or nil.
func (m *Map[K, V]) Find(key K) *V {
	slot := m.t.Find(key)
	if slot < 0 {
		return nil
	}
	return m.t.Value(slot)
}

// Get returns the value stored under key and whether it was present.
func (m *Map[K, V]) Get(key K) (V, bool) {
	if v := m.Find(key); v != nil {
		return *v, true
	}
	var zero V
	return zero, false
}

// Delete removes key and reports whether it was present.
func (m *Map[K, V]) Delete(key K) bool {
	return m.t.Delete(key)
}

// Move rekeys the entry stored under oldKey to newKey, keeping its value, and
// returns a pointer to the value in its new slot.  Moving a key that isn't
// present returns nil.  Moving onto a different key that is already present
// fails with ErrDuplicateKey and leaves the Map unchanged.
func (m *Map[K, V]) Move(oldKey, newKey K) (*V, error) {
	slot, err := m.t.Move(oldKey, newKey)
	if err != nil || slot < 0 {
		return nil, err
	}
	return m.t.Value(slot), nil
}

// Expand grows the Map by delta slots and rehashes every entry.  The new
// capacity must be a power of two.  Expand(0) rehashes in place.
func (m *Map[K, V]) Expand(delta int) error {
	return m.t.Expand(delta)
}

// Reserve is a synonym for Expand.
func (m *Map[K, V]) Reserve(delta int) error {
	return m.t.Reserve(delta)
}

// Health returns the fraction of entries stored in their home slot.  An
// empty Map reports 1.
func (m *Map[K, V]) Health() float64 {
	return m.t.Health()
}

// Heal moves displaced entries closer to their home slots and drops the
// probe-sequence markers left behind by deletes.  It returns the number of
// entries moved.
func (m *Map[K, V]) Heal() int {
	return m.t.Heal()
}

// Stats reports the Map's occupancy and probe lengths.
func (m *Map[K, V]) Stats() Stats {
	return m.t.Stats()
}

// Len returns the number of entries.
func (m *Map[K, V]) Len() int {
	return m.t.Len()
}

// Cap returns the number of slots.
func (m *Map[K, V]) Cap() int {
	return m.t.Cap()
}

// Clear removes every entry but keeps the Map's storage.
func (m *Map[K, V]) Clear() {
	m.t.Clear()
}

// Release frees the Map's storage.  The Map stays usable and reallocates on
// the next Add.
func (m *Map[K, V]) Release() {
	m.t.Release()
}

// First returns an iterator positioned at the lowest-slot entry.
func (m *Map[K, V]) First() Iterator[K, V] {
	return newIterator(&m.t)
}

// All yields every key/value pair in slot order.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for it := m.First(); !it.Done(); it.Next() {
			if !yield(it.Key(), *it.Value()) {
				return
			}
		}
	}
}

// Keys yields every key in slot order.
func (m *Map[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		for it := m.First(); !it.Done(); it.Next() {
			if !yield(it.Key()) {
				return
			}
		}
	}
}

// Values yields every value in slot order.
func (m *Map[K, V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		for it := m.First(); !it.Done(); it.Next() {
			if !yield(*it.Value()) {
				return
			}
		}
	}
}
