// Copyright 2024 The bithash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package bithash

import "github.com/bpowers/bithash/internal/table"

// Iterator is a cursor over the live entries of a Map or Set in ascending
// slot order.  It is exhausted once Done reports true and can't be rewound.
// Mutating the table while iterating invalidates the cursor.
//
//	for it := m.First(); !it.Done(); it.Next() {
//		fmt.Println(it.Key(), *it.Value())
//	}
type Iterator[K comparable, V any] struct {
	t    *table.Table[K, V]
	slot int
}

func newIterator[K comparable, V any](t *table.Table[K, V]) Iterator[K, V] {
	return Iterator[K, V]{t: t, slot: t.First()}
}

// Done reports whether the cursor has moved past the last entry.
func (it Iterator[K, V]) Done() bool {
	return it.slot >= it.t.Cap()
}

// Next advances to the next live entry.
func (it *Iterator[K, V]) Next() {
	it.slot = it.t.Next(it.slot)
}

// Slot returns the slot of the current entry, or the table's capacity once
// the cursor is Done.
func (it Iterator[K, V]) Slot() int {
	return it.slot
}

// Key returns the current entry's key.
func (it Iterator[K, V]) Key() K {
	return it.t.Key(it.slot)
}

// Value returns a pointer to the current entry's value.
func (it Iterator[K, V]) Value() *V {
	return it.t.Value(it.slot)
}
