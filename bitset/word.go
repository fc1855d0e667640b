// Copyright 2024 The bithash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package bitset

import (
	"math/bits"
)

// BitSet is a single 64-bit word of flags.  Bit indexes must be in
// [0, 64); larger indexes wrap around rather than being checked.
type BitSet uint64

// Full is a BitSet with every bit set.
const Full = ^BitSet(0)

func scan(w uint64) int {
	if w == 0 {
		return -1
	}
	return bits.TrailingZeros64(w)
}

// above returns a mask of the bits at and above i.
func above(i int) uint64 {
	if i <= 0 {
		return ^uint64(0)
	}
	if i >= 64 {
		return 0
	}
	return ^uint64(0) << uint(i)
}

// Count returns the number of set bits.
func (b BitSet) Count() int {
	return bits.OnesCount64(uint64(b))
}

// Get returns true if bit i is set.
func (b BitSet) Get(i int) bool {
	return (b>>(uint(i)&63))&1 != 0
}

// Set sets bit i.
func (b *BitSet) Set(i int) {
	*b |= 1 << (uint(i) & 63)
}

// SetTo sets bit i to state.
func (b *BitSet) SetTo(i int, state bool) {
	if state {
		b.Set(i)
	} else {
		b.Reset(i)
	}
}

// Reset clears bit i.
func (b *BitSet) Reset(i int) {
	*b &^= 1 << (uint(i) & 63)
}

// Clear clears every bit.
func (b *BitSet) Clear() {
	*b = 0
}

// Query returns the index of the lowest clear bit, or -1 if every bit is set.
func (b BitSet) Query() int {
	return scan(^uint64(b))
}

// QueryFrom is Query restricted to bits at or above i.
func (b BitSet) QueryFrom(i int) int {
	return scan(^uint64(b) & above(i))
}

// QueryRun returns the lowest index of a run of n adjacent clear bits, or
// -1 if there is no such run.
func (b BitSet) QueryRun(n int) int {
	if n <= 0 {
		return 0
	}
	if n > 64 {
		return -1
	}
	free := ^uint64(b)
	runs := free
	// bit i of runs stays set only while bits i..i+k are all clear in b
	for k := 1; k < n && runs != 0; k++ {
		runs &= free >> uint(k)
	}
	return scan(runs)
}

// Peek returns the index of the lowest set bit, or -1 if no bit is set.
func (b BitSet) Peek() int {
	return scan(uint64(b))
}

// PeekFrom is Peek restricted to bits at or above i.
func (b BitSet) PeekFrom(i int) int {
	return scan(uint64(b) & above(i))
}

// Request finds the lowest clear bit and sets it, returning its index.  It
// returns -1 when the word is full.
func (b *BitSet) Request() int {
	i := b.Query()
	if i >= 0 {
		b.Set(i)
	}
	return i
}

// Pop finds the lowest set bit and clears it, returning its index.  It
// returns -1 when the word is empty.
func (b *BitSet) Pop() int {
	i := b.Peek()
	if i >= 0 {
		b.Reset(i)
	}
	return i
}

// Iterate returns an Iterator over the set bits of b.  The iterator works on
// a copy, so later changes to b are not observed.
func (b BitSet) Iterate() Iterator {
	return Iterator{mask: b}
}

// Iterator walks the set bits of a BitSet from lowest to highest.
type Iterator struct {
	mask BitSet
}

// Count returns the number of bits left to visit.
func (it Iterator) Count() int {
	return it.mask.Count()
}

// Peek returns the next bit index without consuming it, or -1 when done.
func (it Iterator) Peek() int {
	return it.mask.Peek()
}

// Next consumes and returns the next bit index, or -1 when done.
func (it *Iterator) Next() int {
	return it.mask.Pop()
}
