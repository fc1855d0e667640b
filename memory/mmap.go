// Copyright 2024 The bithash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

//go:build linux || darwin

package memory

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Mmap allocates blocks from private anonymous mappings, outside the Go
// heap.  Fresh blocks are zero-filled by the kernel.  Every block must be
// released with Free; the garbage collector never unmaps them.
type Mmap struct{}

var _ Allocator = Mmap{}

// Alloc maps a fresh, zeroed anonymous region of words words.
func (Mmap) Alloc(words int) ([]uint64, error) {
	if words < 0 {
		return nil, fmt.Errorf("Alloc(%d): %w", words, errNegativeSize)
	}
	if words == 0 {
		// mmap rejects zero-length mappings
		return []uint64{}, nil
	}
	m, err := unix.Mmap(-1, 0, words*8, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("unix.Mmap(%d bytes): %w", words*8, err)
	}
	// bucket access follows hash order
	if err := unix.Madvise(m, unix.MADV_RANDOM); err != nil {
		_ = unix.Munmap(m)
		return nil, fmt.Errorf("madvise: %w", err)
	}
	return unsafe.Slice((*uint64)(unsafe.Pointer(unsafe.SliceData(m))), words), nil
}

// Resize reslices block when its capacity allows, and otherwise copies it
// into a new mapping and unmaps the old one.
func (a Mmap) Resize(block []uint64, words int) ([]uint64, error) {
	if words < 0 {
		return nil, fmt.Errorf("Resize(%d): %w", words, errNegativeSize)
	}
	if block != nil && words <= cap(block) {
		return block[:words], nil
	}
	grown, err := a.Alloc(words)
	if err != nil {
		return nil, err
	}
	copy(grown, block)
	if err := a.Free(block); err != nil {
		_ = a.Free(grown)
		return nil, err
	}
	return grown, nil
}

// Free unmaps a block returned by Alloc or Resize.
func (Mmap) Free(block []uint64) error {
	if cap(block) == 0 {
		return nil
	}
	// Munmap finds the mapping by its last byte, so rebuild the full-capacity view
	m := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(block))), cap(block)*8)
	if err := unix.Munmap(m); err != nil {
		return fmt.Errorf("unix.Munmap: %w", err)
	}
	return nil
}
