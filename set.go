// Copyright 2024 The bithash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package bithash

import (
	"iter"

	"github.com/bpowers/bithash/internal/table"
)

// Set is a hash set of K.  Entries are addressed by slot number, which stays
// valid until the next mutating call.  The zero Set is empty and ready to
// use with the default options.
type Set[K comparable] struct {
	t table.Table[K, struct{}]
}

// NewSet returns an empty Set configured by opts.
func NewSet[K comparable](opts ...Option) (*Set[K], error) {
	cfg, err := newConfig[K](opts)
	if err != nil {
		return nil, err
	}
	return &Set[K]{t: *table.New[K, struct{}](cfg)}, nil
}

// Add inserts key and returns its slot.  Adding a key that is already
// present fails with ErrDuplicateKey and leaves the Set unchanged.
func (s *Set[K]) Add(key K) (int, error) {
	return s.t.Add(key)
}

// Find returns the slot holding key, or -1.
func (s *Set[K]) Find(key K) int {
	return s.t.Find(key)
}

// Contains reports whether key is in the Set.
func (s *Set[K]) Contains(key K) bool {
	return s.t.Find(key) >= 0
}

// Key returns the key stored in slot.  The slot must be live.
func (s *Set[K]) Key(slot int) K {
	return s.t.Key(slot)
}

// Delete removes key and reports whether it was present.
func (s *Set[K]) Delete(key K) bool {
	return s.t.Delete(key)
}

// Move replaces oldKey with newKey and returns newKey's slot.  Moving a key
// that isn't present returns -1.  Moving onto a different key that is
// already present fails with ErrDuplicateKey and leaves the Set unchanged.
func (s *Set[K]) Move(oldKey, newKey K) (int, error) {
	return s.t.Move(oldKey, newKey)
}

// Expand grows the Set by delta slots and rehashes every key.  The new
// capacity must be a power of two.
func (s *Set[K]) Expand(delta int) error {
	return s.t.Expand(delta)
}

// Reserve is a synonym for Expand.
func (s *Set[K]) Reserve(delta int) error {
	return s.t.Reserve(delta)
}

// Health returns the fraction of keys stored in their home slot.
func (s *Set[K]) Health() float64 {
	return s.t.Health()
}

// Heal repairs the damage deletes leave behind and returns the number of
// keys moved.
func (s *Set[K]) Heal() int {
	return s.t.Heal()
}

// Stats reports the Set's occupancy and probe lengths.
func (s *Set[K]) Stats() Stats {
	return s.t.Stats()
}

// Len returns the number of keys.
func (s *Set[K]) Len() int {
	return s.t.Len()
}

// Cap returns the number of slots.
func (s *Set[K]) Cap() int {
	return s.t.Cap()
}

// Clear removes every key but keeps the Set's storage.
func (s *Set[K]) Clear() {
	s.t.Clear()
}

// Release frees the Set's storage.
func (s *Set[K]) Release() {
	s.t.Release()
}

// First returns an iterator positioned at the lowest-slot key.  Its Value
// is always the empty struct.
func (s *Set[K]) First() Iterator[K, struct{}] {
	return newIterator(&s.t)
}

// All yields every key in slot order.
func (s *Set[K]) All() iter.Seq[K] {
	return func(yield func(K) bool) {
		for it := s.First(); !it.Done(); it.Next() {
			if !yield(it.Key()) {
				return
			}
		}
	}
}
