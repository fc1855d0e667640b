// Copyright 2024 The bithash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

//go:build !(linux || darwin)

package memory

// Mmap is only available on linux and darwin; elsewhere every call fails
// with ErrUnsupported.
type Mmap struct{}

var _ Allocator = Mmap{}

func (Mmap) Alloc(int) ([]uint64, error) {
	return nil, ErrUnsupported
}

func (Mmap) Resize([]uint64, int) ([]uint64, error) {
	return nil, ErrUnsupported
}

func (Mmap) Free(block []uint64) error {
	if cap(block) == 0 {
		return nil
	}
	return ErrUnsupported
}
