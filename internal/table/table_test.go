// Copyright 2024 The bithash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package table

import (
	"bytes"
	"log/slog"
	"math/rand/v2"
	"runtime"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpowers/bithash/bitset"
	"github.com/bpowers/bithash/memory"
)

// constant sends every key to the same home slot.
func constant[K comparable](h uint32) func(K) uint32 {
	return func(K) uint32 { return h }
}

// identity hashes small integer keys to themselves, so tests can pick home
// slots directly.
func identity(k int) uint32 {
	return uint32(k)
}

// checkInvariants verifies the bitmap bookkeeping against the stored entries.
func checkInvariants[K comparable, V any](t *testing.T, tbl *Table[K, V]) {
	t.Helper()
	if tbl.capacity == 0 {
		require.Zero(t, tbl.count)
		return
	}
	require.True(t, isPow2(tbl.capacity))
	require.Len(t, tbl.keys, tbl.capacity)
	require.Len(t, tbl.values, tbl.capacity)
	require.Len(t, tbl.buckets, (tbl.capacity+63)/64)

	live := 0
	for b := range tbl.buckets {
		require.Equal(t, tbl.buckets[b].Active != 0, tbl.index.Get(b), "index bit for bucket %d", b)
		live += tbl.buckets[b].Active.Count()
	}
	require.Equal(t, tbl.count, live)

	for slot := tbl.First(); slot < tbl.capacity; slot = tbl.Next(slot) {
		require.Equal(t, slot, tbl.Find(tbl.keys[slot]), "entry in slot %d not findable", slot)
	}
}

func TestTable_RoundTrip(t *testing.T) {
	tbl := New[string, int](Config[string]{})
	require.Equal(t, -1, tbl.Find("missing"))
	require.Zero(t, tbl.Cap())

	for i := 0; i < 1000; i++ {
		slot, err := tbl.Add("key" + strconv.Itoa(i))
		require.NoError(t, err)
		*tbl.Value(slot) = i
	}
	require.Equal(t, 1000, tbl.Len())
	checkInvariants(t, tbl)

	for i := 0; i < 1000; i++ {
		slot := tbl.Find("key" + strconv.Itoa(i))
		require.True(t, slot >= 0)
		require.Equal(t, i, *tbl.Value(slot))
	}
	require.Equal(t, -1, tbl.Find("key1000"))
}

func TestTable_ZeroValue(t *testing.T) {
	var tbl Table[int, string]
	require.Equal(t, -1, tbl.Find(3))
	require.False(t, tbl.Delete(3))
	require.Equal(t, 0, tbl.First())

	slot, err := tbl.Add(3)
	require.NoError(t, err)
	require.Equal(t, DefaultCapacity, tbl.Cap())
	require.Equal(t, slot, tbl.Find(3))
}

func TestTable_Duplicate(t *testing.T) {
	tbl := New[string, struct{}](Config[string]{Hash: constant[string](5)})
	_, err := tbl.Add("a")
	require.NoError(t, err)
	_, err = tbl.Add("b")
	require.NoError(t, err)

	before := append([]Bucket(nil), tbl.buckets...)
	_, err = tbl.Add("b")
	require.ErrorIs(t, err, ErrDuplicateKey)
	require.Equal(t, 2, tbl.Len())
	// a rejected insert leaves no trace
	require.Equal(t, before, tbl.buckets)

	// a duplicate past a deleted, collided slot is still caught
	_, err = tbl.Add("c")
	require.NoError(t, err)
	require.True(t, tbl.Delete("b"))
	_, err = tbl.Add("c")
	require.ErrorIs(t, err, ErrDuplicateKey)
	checkInvariants(t, tbl)
}

func TestTable_Collisions(t *testing.T) {
	tbl := New[string, int](Config[string]{Hash: constant[string](7)})
	for i, k := range []string{"a", "b", "c", "d"} {
		slot, err := tbl.Add(k)
		require.NoError(t, err)
		require.Equal(t, 7+i, slot)
		*tbl.Value(slot) = i
	}
	// slots 7, 8 and 9 were stepped past; 10 was not
	for slot, collided := range map[int]bool{6: false, 7: true, 8: true, 9: true, 10: false} {
		require.Equal(t, collided, tbl.buckets[0].Collided.Get(slot), "slot %d", slot)
	}
	for i, k := range []string{"a", "b", "c", "d"} {
		require.Equal(t, i, *tbl.Value(tbl.Find(k)))
	}
	require.Equal(t, -1, tbl.Find("e"))
}

func TestTable_DeleteRemovesExactlyOne(t *testing.T) {
	tbl := New[string, int](Config[string]{Hash: constant[string](0)})
	s1, err := tbl.Add("k1")
	require.NoError(t, err)
	*tbl.Value(s1) = 1
	s2, err := tbl.Add("k2")
	require.NoError(t, err)
	*tbl.Value(s2) = 2

	require.True(t, tbl.Delete("k1"))
	require.False(t, tbl.Delete("k1"))
	require.Equal(t, -1, tbl.Find("k1"))
	require.Equal(t, s2, tbl.Find("k2"))
	require.Equal(t, 2, *tbl.Value(s2))

	// the vacated slot keeps its Collided bit and is zeroed
	require.True(t, tbl.buckets[0].Collided.Get(s1))
	require.False(t, tbl.Active(s1))
	require.Equal(t, "", tbl.Key(s1))
	require.Equal(t, 0, *tbl.Value(s1))
	require.Equal(t, 1, tbl.Len())
	checkInvariants(t, tbl)
}

func TestTable_IndexBitTracksBucket(t *testing.T) {
	tbl := New[int, struct{}](Config[int]{Hash: identity})
	require.NoError(t, tbl.Expand(256))
	for _, k := range []int{3, 70, 71} {
		_, err := tbl.Add(k)
		require.NoError(t, err)
	}
	require.True(t, tbl.index.Get(0))
	require.True(t, tbl.index.Get(1))
	require.False(t, tbl.index.Get(2))

	require.True(t, tbl.Delete(70))
	require.True(t, tbl.index.Get(1))
	require.True(t, tbl.Delete(71))
	require.False(t, tbl.index.Get(1))
	checkInvariants(t, tbl)
}

func TestTable_Wraparound(t *testing.T) {
	tbl := New[int, struct{}](Config[int]{Hash: constant[int](62), Capacity: 64, Reciprocal: 64})
	for k := 0; k < 4; k++ {
		_, err := tbl.Add(k)
		require.NoError(t, err)
	}
	require.Equal(t, 64, tbl.Cap())
	require.Equal(t, 62, tbl.Find(0))
	require.Equal(t, 63, tbl.Find(1))
	require.Equal(t, 0, tbl.Find(2))
	require.Equal(t, 1, tbl.Find(3))
	require.Equal(t, bitset.BitSet(1<<62|1<<63|1), tbl.buckets[0].Collided)
	checkInvariants(t, tbl)

	// iteration is in slot order, not insertion order
	var order []int
	for slot := tbl.First(); slot < tbl.Cap(); slot = tbl.Next(slot) {
		order = append(order, tbl.Key(slot))
	}
	require.Equal(t, []int{2, 3, 0, 1}, order)
}

func TestTable_SmallCapacity(t *testing.T) {
	tbl := New[int, int](Config[int]{Hash: constant[int](3), Capacity: 4})
	for k := 0; k < 20; k++ {
		slot, err := tbl.Add(k)
		require.NoError(t, err)
		*tbl.Value(slot) = k * k
		checkInvariants(t, tbl)
	}
	for k := 0; k < 20; k++ {
		require.Equal(t, k*k, *tbl.Value(tbl.Find(k)))
	}
	require.True(t, tbl.Cap() >= 32)
}

func TestTable_ExpandValidation(t *testing.T) {
	tbl := New[int, int](Config[int]{})
	require.ErrorIs(t, tbl.Expand(-1), ErrNegativeDelta)
	require.ErrorIs(t, tbl.Expand(0), ErrCapacityNotPow2)
	require.ErrorIs(t, tbl.Expand(48), ErrCapacityNotPow2)
	require.Zero(t, tbl.Cap())

	require.NoError(t, tbl.Expand(64))
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 500; i++ {
		delta := rng.IntN(1 << 12)
		err := tbl.Reserve(delta)
		if isPow2(64 + delta) {
			require.NoError(t, err, "delta %d", delta)
			require.Equal(t, 64+delta, tbl.Cap())
			tbl.Release()
			require.NoError(t, tbl.Expand(64))
		} else {
			require.ErrorIs(t, err, ErrCapacityNotPow2, "delta %d", delta)
			require.Equal(t, 64, tbl.Cap())
		}
	}
}

func TestTable_RehashPreservesEntries(t *testing.T) {
	tbl := New[string, string](Config[string]{Reciprocal: 1000})
	require.NoError(t, tbl.Expand(64))
	for i := 0; i < 60; i++ {
		k := strconv.Itoa(i)
		slot, err := tbl.Add(k)
		require.NoError(t, err)
		*tbl.Value(slot) = "v" + k
	}
	require.Equal(t, 64, tbl.Cap())

	require.NoError(t, tbl.Expand(64))
	require.Equal(t, 128, tbl.Cap())
	require.Equal(t, 60, tbl.Len())
	for i := 0; i < 60; i++ {
		k := strconv.Itoa(i)
		slot := tbl.Find(k)
		require.True(t, slot >= 0)
		require.Equal(t, "v"+k, *tbl.Value(slot))
	}
	checkInvariants(t, tbl)
}

func TestTable_GrowsWhenLoaded(t *testing.T) {
	tbl := New[int, struct{}](Config[int]{})
	for k := 0; k < 49; k++ {
		_, err := tbl.Add(k)
		require.NoError(t, err)
	}
	// 64 / (64-48) > 3, so the 49th insert doubled the table
	require.Equal(t, 128, tbl.Cap())
	checkInvariants(t, tbl)
}

func TestTable_RandomizedAgainstMap(t *testing.T) {
	for _, cfg := range []Config[int]{
		{},
		{Hash: func(k int) uint32 { return uint32(k % 7) }},
		{Allocator: memory.Heap{}, Capacity: 8, Reciprocal: 2},
	} {
		tbl := New[int, int](cfg)
		oracle := make(map[int]int)
		rng := rand.New(rand.NewPCG(42, 1024))
		added, deleted := 0, 0
		for i := 0; i < 20000; i++ {
			k := rng.IntN(2000)
			if rng.IntN(3) == 0 {
				ok := tbl.Delete(k)
				_, expected := oracle[k]
				require.Equal(t, expected, ok)
				if ok {
					deleted++
					delete(oracle, k)
				}
			} else {
				slot, err := tbl.Add(k)
				if _, exists := oracle[k]; exists {
					require.ErrorIs(t, err, ErrDuplicateKey)
					continue
				}
				require.NoError(t, err)
				*tbl.Value(slot) = i
				oracle[k] = i
				added++
			}
			require.Equal(t, added-deleted, tbl.Len())
		}
		checkInvariants(t, tbl)
		for k, v := range oracle {
			slot := tbl.Find(k)
			require.True(t, slot >= 0)
			require.Equal(t, v, *tbl.Value(slot))
		}
		seen := 0
		for slot := tbl.First(); slot < tbl.Cap(); slot = tbl.Next(slot) {
			_, ok := oracle[tbl.Key(slot)]
			require.True(t, ok)
			seen++
		}
		require.Equal(t, len(oracle), seen)
	}
}

func TestTable_Iteration(t *testing.T) {
	tbl := New[string, int](Config[string]{})
	require.Equal(t, tbl.Cap(), tbl.First())

	for i, k := range []string{"a", "b", "c"} {
		slot, err := tbl.Add(k)
		require.NoError(t, err)
		*tbl.Value(slot) = i + 1
	}
	seen := make(map[string]int)
	last := -1
	for slot := tbl.First(); slot < tbl.Cap(); slot = tbl.Next(slot) {
		require.True(t, slot > last, "slots must ascend")
		last = slot
		seen[tbl.Key(slot)] = *tbl.Value(slot)
	}
	require.Equal(t, map[string]int{"a": 1, "b": 2, "c": 3}, seen)
	require.Equal(t, tbl.Cap(), tbl.Next(tbl.Cap()))
	require.Equal(t, tbl.First(), tbl.Next(-1))

	tbl.Clear()
	require.Equal(t, tbl.Cap(), tbl.First())
	require.Equal(t, 64, tbl.Cap())
}

func TestTable_Move(t *testing.T) {
	tbl := New[string, int](Config[string]{})
	s, err := tbl.Add("old")
	require.NoError(t, err)
	*tbl.Value(s) = 99
	_, err = tbl.Add("taken")
	require.NoError(t, err)

	slot, err := tbl.Move("missing", "other")
	require.NoError(t, err)
	require.Equal(t, -1, slot)
	require.Equal(t, 2, tbl.Len())

	_, err = tbl.Move("old", "taken")
	require.ErrorIs(t, err, ErrDuplicateKey)
	require.Equal(t, 99, *tbl.Value(tbl.Find("old")))

	slot, err = tbl.Move("old", "new")
	require.NoError(t, err)
	require.Equal(t, slot, tbl.Find("new"))
	require.Equal(t, 99, *tbl.Value(slot))
	require.Equal(t, -1, tbl.Find("old"))
	require.Equal(t, 2, tbl.Len())

	// moving onto itself rehashes from the home slot
	slot, err = tbl.Move("new", "new")
	require.NoError(t, err)
	require.Equal(t, 99, *tbl.Value(slot))
	checkInvariants(t, tbl)
}

func TestTable_Release(t *testing.T) {
	tbl := New[int, int](Config[int]{})
	for k := 0; k < 100; k++ {
		_, err := tbl.Add(k)
		require.NoError(t, err)
	}
	tbl.Release()
	require.Zero(t, tbl.Len())
	require.Zero(t, tbl.Cap())
	require.Equal(t, -1, tbl.Find(1))

	_, err := tbl.Add(1)
	require.NoError(t, err)
	require.Equal(t, DefaultCapacity, tbl.Cap())
}

func TestTable_Mmap(t *testing.T) {
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" {
		t.Skip("mmap allocator not supported")
	}
	tbl := New[int, int](Config[int]{Allocator: memory.Mmap{}})
	defer tbl.Release()
	for k := 0; k < 5000; k++ {
		slot, err := tbl.Add(k)
		require.NoError(t, err)
		*tbl.Value(slot) = -k
	}
	for k := 0; k < 5000; k += 2 {
		require.True(t, tbl.Delete(k))
	}
	checkInvariants(t, tbl)
	for k := 1; k < 5000; k += 2 {
		require.Equal(t, -k, *tbl.Value(tbl.Find(k)))
	}
}

func TestTable_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	tbl := New[int, int](Config[int]{Logger: logger})
	_, err := tbl.Add(1)
	require.NoError(t, err)
	tbl.Heal()
	tbl.Release()

	out := buf.String()
	assert.Contains(t, out, "rehashed table")
	assert.Contains(t, out, "new_capacity=64")
	assert.Contains(t, out, "healed table")
	assert.Contains(t, out, "released table")
}

func TestTable_RangeHelpers(t *testing.T) {
	tbl := New[int, struct{}](Config[int]{Hash: identity})
	require.NoError(t, tbl.Expand(128))
	for _, k := range []int{60, 61, 62, 63, 64, 66, 127} {
		_, err := tbl.Add(k)
		require.NoError(t, err)
	}
	require.Equal(t, 65, tbl.firstInactive(60, 10))
	require.Equal(t, -1, tbl.firstInactive(60, 5))
	require.Equal(t, 59, tbl.firstInactive(59, 1))
	// wraps from the last slot back to the first
	require.Equal(t, 0, tbl.firstInactive(127, 2))

	tbl.collide(126, 4)
	require.True(t, tbl.buckets[1].Collided.Get(62))
	require.True(t, tbl.buckets[1].Collided.Get(63))
	require.True(t, tbl.buckets[0].Collided.Get(0))
	require.True(t, tbl.buckets[0].Collided.Get(1))
	require.False(t, tbl.buckets[0].Collided.Get(2))

	tbl.collide(0, 64)
	require.Equal(t, bitset.Full, tbl.buckets[0].Collided)
}
