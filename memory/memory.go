// Copyright 2024 The bithash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package memory provides the allocators tables use for their bookkeeping
// words (the per-bucket Active and Collided bitmaps).
package memory

import (
	"errors"
	"fmt"
)

var (
	errNegativeSize = errors.New("negative allocation size")
	// ErrUnsupported is returned by allocators that can't work on this platform.
	ErrUnsupported = errors.New("allocator not supported on this platform")
)

// Allocator hands out blocks of 64-bit words.  Blocks are not required to be
// zeroed; callers that need cleared memory must clear it themselves.
type Allocator interface {
	// Alloc returns a block of exactly `words` words.
	Alloc(words int) ([]uint64, error)
	// Resize returns a block of `words` words holding the first
	// min(len(block), words) words of block.  A nil block is a fresh
	// allocation.  After a successful Resize the old block must not be used.
	Resize(block []uint64, words int) ([]uint64, error)
	// Free releases a block returned by Alloc or Resize.  Freeing nil is a no-op.
	Free(block []uint64) error
}

// Heap allocates blocks on the Go heap.  Free is a no-op; the garbage
// collector reclaims blocks once they are unreachable.
type Heap struct{}

var _ Allocator = Heap{}

// Alloc returns a zeroed block of words words.
func (Heap) Alloc(words int) ([]uint64, error) {
	if words < 0 {
		return nil, fmt.Errorf("Alloc(%d): %w", words, errNegativeSize)
	}
	return make([]uint64, words), nil
}

// Resize reslices block in place when its capacity allows, and copies it
// into a new block otherwise.
func (h Heap) Resize(block []uint64, words int) ([]uint64, error) {
	if words < 0 {
		return nil, fmt.Errorf("Resize(%d): %w", words, errNegativeSize)
	}
	if block == nil {
		return h.Alloc(words)
	}
	if words <= cap(block) {
		return block[:words], nil
	}
	grown := make([]uint64, words)
	copy(grown, block)
	return grown, nil
}

// Free does nothing.
func (Heap) Free([]uint64) error {
	return nil
}
