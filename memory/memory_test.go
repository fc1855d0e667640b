// Copyright 2024 The bithash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package memory

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func testAllocator(t *testing.T, a Allocator) {
	_, err := a.Alloc(-1)
	require.Error(t, err)
	_, err = a.Resize(nil, -1)
	require.Error(t, err)

	block, err := a.Alloc(16)
	require.NoError(t, err)
	require.Len(t, block, 16)
	for i := range block {
		block[i] = uint64(i) * 3
	}

	// growing preserves the prefix
	block, err = a.Resize(block, 1024)
	require.NoError(t, err)
	require.Len(t, block, 1024)
	for i := 0; i < 16; i++ {
		require.Equal(t, uint64(i)*3, block[i])
	}

	// shrinking keeps the leading words
	block, err = a.Resize(block, 4)
	require.NoError(t, err)
	require.Equal(t, []uint64{0, 3, 6, 9}, block)

	require.NoError(t, a.Free(block))
	require.NoError(t, a.Free(nil))

	fresh, err := a.Resize(nil, 8)
	require.NoError(t, err)
	require.Len(t, fresh, 8)
	require.NoError(t, a.Free(fresh))

	empty, err := a.Alloc(0)
	require.NoError(t, err)
	require.Len(t, empty, 0)
	require.NoError(t, a.Free(empty))
}

func TestHeap(t *testing.T) {
	testAllocator(t, Heap{})

	block, err := Heap{}.Alloc(32)
	require.NoError(t, err)
	require.Equal(t, make([]uint64, 32), block)
}

func TestMmap(t *testing.T) {
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" {
		_, err := Mmap{}.Alloc(1)
		require.ErrorIs(t, err, ErrUnsupported)
		return
	}
	testAllocator(t, Mmap{})

	// anonymous mappings come back zeroed
	block, err := Mmap{}.Alloc(4096)
	require.NoError(t, err)
	for _, w := range block {
		require.Zero(t, w)
	}
	require.NoError(t, Mmap{}.Free(block))
}
