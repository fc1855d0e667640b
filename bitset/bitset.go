// Copyright 2024 The bithash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package bitset provides fixed-width bitmaps with bit-scan queries: BitSet,
// a single 64-bit word, and Slice, a run of words of any length.
package bitset

// Slice is a fixed-length bitmap spanning as many BitSet words as needed.
// Offsets outside [0, Len()) are ignored by the mutators and read as clear.
type Slice struct {
	words  []BitSet
	length int
}

func getOffsets(off int) (wordOff int, bitOff int) {
	wordOff = off >> 6
	bitOff = off & 63
	return
}

// NewSlice returns a cleared Slice that can hold length bits.
func NewSlice(length int) Slice {
	if length < 0 {
		length = 0
	}
	return Slice{
		words:  make([]BitSet, (length+63)/64),
		length: length,
	}
}

// Len returns the number of bits s holds.
func (s *Slice) Len() int {
	return s.length
}

// Words returns the backing words.  The last word may have unused high bits,
// which are always clear.
func (s *Slice) Words() []BitSet {
	return s.words
}

// Set sets the bit at position `off` to 1.
func (s *Slice) Set(off int) {
	if off < 0 || off >= s.length {
		return
	}
	w, b := getOffsets(off)
	s.words[w].Set(b)
}

// Reset sets the bit at position `off` to 0.
func (s *Slice) Reset(off int) {
	if off < 0 || off >= s.length {
		return
	}
	w, b := getOffsets(off)
	s.words[w].Reset(b)
}

// Get returns true if the bit at position `off` is 1.
func (s *Slice) Get(off int) bool {
	if off < 0 || off >= s.length {
		return false
	}
	w, b := getOffsets(off)
	return s.words[w].Get(b)
}

// Clear resets every bit.
func (s *Slice) Clear() {
	clear(s.words)
}

// Count returns the number of set bits.
func (s *Slice) Count() int {
	n := 0
	for _, w := range s.words {
		n += w.Count()
	}
	return n
}

// Peek returns the position of the lowest set bit, or -1 if none is set.
func (s *Slice) Peek() int {
	return s.PeekFrom(0)
}

// PeekFrom returns the position of the lowest set bit at or above off, or -1.
func (s *Slice) PeekFrom(off int) int {
	if off < 0 {
		off = 0
	}
	if off >= s.length {
		return -1
	}
	w, b := getOffsets(off)
	if i := s.words[w].PeekFrom(b); i >= 0 {
		return w<<6 + i
	}
	for w++; w < len(s.words); w++ {
		if i := s.words[w].Peek(); i >= 0 {
			return w<<6 + i
		}
	}
	return -1
}
