// Copyright 2024 The bithash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package table implements the open-addressing engine shared by bithash's
// Map and Set.
//
// Slots are grouped into 64-slot buckets, each described by two bitmaps:
// Active (the slot holds a live entry) and Collided (an insertion probed
// past the slot).  Lookups continue past a slot only while it is Active or
// Collided, so no key value ever has to stand in for "empty" and deletion
// needs no tombstones.  A third bitmap, the index, has one bit per bucket
// and lets iteration skip empty buckets a word at a time.
package table

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"unsafe"

	"github.com/bpowers/bithash/bitset"
	"github.com/bpowers/bithash/fingerprint"
	"github.com/bpowers/bithash/memory"
)

const (
	bucketShift = 6
	bucketMask  = 1<<bucketShift - 1

	// DefaultCapacity is the capacity a table allocates on first insert.
	DefaultCapacity = 64
	// DefaultReciprocal grows a table once capacity/free, in integer
	// division, exceeds 3: a table is never more than three quarters full.
	DefaultReciprocal = 3
)

var (
	ErrNegativeDelta   = errors.New("capacity can't grow by a negative amount")
	ErrCapacityNotPow2 = errors.New("capacity must be a power of two")
	ErrDuplicateKey    = errors.New("a key with that value already exists")
)

// Bucket describes 64 consecutive slots.
type Bucket struct {
	Active   bitset.BitSet
	Collided bitset.BitSet
}

// Config holds the collaborators a Table uses.  Zero fields get defaults.
type Config[K comparable] struct {
	Hash       fingerprint.Hasher[K]
	Allocator  memory.Allocator
	Logger     *slog.Logger
	Reciprocal int
	// Capacity is the power-of-two capacity allocated on first insert.
	Capacity int
}

// Table is an open-addressing hash table from K to V.  Sets use
// V = struct{}, which makes the value array free.
//
// The zero Table is empty and ready to use.  A Table is not safe for
// concurrent use, and mutating it invalidates slot numbers, value pointers
// and cursors obtained earlier.
type Table[K comparable, V any] struct {
	keys    []K
	values  []V
	words   []uint64 // allocator block backing buckets
	buckets []Bucket
	index   bitset.Slice
	count   int
	// capacity is 0 or a power of two
	capacity int

	hash       fingerprint.Hasher[K]
	alloc      memory.Allocator
	logger     *slog.Logger
	reciprocal int
	initial    int
}

// New returns an empty, unallocated Table.
func New[K comparable, V any](cfg Config[K]) *Table[K, V] {
	t := &Table[K, V]{
		hash:       cfg.Hash,
		alloc:      cfg.Allocator,
		logger:     cfg.Logger,
		reciprocal: cfg.Reciprocal,
		initial:    cfg.Capacity,
	}
	t.init()
	return t
}

func (t *Table[K, V]) init() {
	if t.hash == nil {
		t.hash = fingerprint.For[K](nil)
	}
	if t.alloc == nil {
		t.alloc = memory.Heap{}
	}
	if t.logger == nil {
		t.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if t.reciprocal < 1 {
		t.reciprocal = DefaultReciprocal
	}
	if t.initial <= 0 {
		t.initial = DefaultCapacity
	}
}

// Len returns the number of live entries.
func (t *Table[K, V]) Len() int {
	return t.count
}

// Cap returns the number of slots.
func (t *Table[K, V]) Cap() int {
	return t.capacity
}

func isPow2(n int) bool {
	return n > 0 && n&(n-1) == 0
}

func asBuckets(words []uint64) []Bucket {
	if len(words) == 0 {
		return nil
	}
	return unsafe.Slice((*Bucket)(unsafe.Pointer(unsafe.SliceData(words))), len(words)/2)
}

// Reserve is a synonym for Expand.
func (t *Table[K, V]) Reserve(delta int) error {
	return t.Expand(delta)
}

// Expand grows the table by delta slots and rehashes every live entry into
// the new storage.  The resulting capacity must be a power of two.  Growing
// by 0 rehashes in place, which discards all accumulated Collided bits.  On
// error the table is unchanged.
func (t *Table[K, V]) Expand(delta int) error {
	t.init()
	if delta < 0 {
		return fmt.Errorf("Expand(%d): %w", delta, ErrNegativeDelta)
	}
	capacity := t.capacity + delta
	if !isPow2(capacity) {
		return fmt.Errorf("Expand(%d) to %d slots: %w", delta, capacity, ErrCapacityNotPow2)
	}

	nBuckets := (capacity + bucketMask) >> bucketShift
	words, err := t.alloc.Alloc(2 * nBuckets)
	if err != nil {
		return fmt.Errorf("Alloc(%d): %w", 2*nBuckets, err)
	}
	clear(words)

	old := *t
	t.keys = make([]K, capacity)
	t.values = make([]V, capacity)
	t.words = words
	t.buckets = asBuckets(words)
	t.index = bitset.NewSlice(nBuckets)
	t.count = 0
	t.capacity = capacity

	for slot := old.First(); slot < old.capacity; slot = old.Next(slot) {
		s := t.insert(old.keys[slot])
		t.values[s] = old.values[slot]
	}

	if old.words != nil {
		if err := t.alloc.Free(old.words); err != nil {
			t.logger.Warn("bithash: failed to free old buckets, continuing anyway", "error", err)
		}
	}

	t.logger.Debug("bithash: rehashed table",
		"old_capacity", old.capacity,
		"new_capacity", capacity,
		"count", t.count,
	)
	return nil
}

// Release frees the table's storage and returns it to the empty,
// unallocated state.  Values are dropped, not finalized.
func (t *Table[K, V]) Release() {
	if t.words != nil {
		if err := t.alloc.Free(t.words); err != nil {
			t.logger.Warn("bithash: failed to free buckets", "error", err)
		}
	}
	if t.capacity > 0 {
		t.logger.Debug("bithash: released table", "capacity", t.capacity, "count", t.count)
	}
	t.keys = nil
	t.values = nil
	t.words = nil
	t.buckets = nil
	t.index = bitset.Slice{}
	t.count = 0
	t.capacity = 0
}

// Clear drops every entry and every Collided bit but keeps the capacity.
func (t *Table[K, V]) Clear() {
	clear(t.keys)
	clear(t.values)
	clear(t.words)
	t.index.Clear()
	t.count = 0
}

// Home returns the slot key occupies absent collisions.  The table must be
// allocated.
func (t *Table[K, V]) Home(key K) int {
	return int(uint(t.hash(key)) & uint(t.capacity-1))
}

func (t *Table[K, V]) overloaded() bool {
	free := t.capacity - t.count
	return free <= 0 || t.capacity/free > t.reciprocal
}

// Add inserts key, growing the table first if it is unallocated or too
// full, and returns the key's slot.  Adding a key that is already present
// fails with ErrDuplicateKey and leaves the table unchanged.
func (t *Table[K, V]) Add(key K) (int, error) {
	if t.capacity == 0 {
		t.init()
		if err := t.Expand(t.initial); err != nil {
			return -1, err
		}
	}
	if t.Find(key) >= 0 {
		return -1, fmt.Errorf("Add(%v): %w", key, ErrDuplicateKey)
	}
	if t.overloaded() {
		if err := t.Expand(t.capacity); err != nil {
			return -1, err
		}
	}
	return t.insert(key), nil
}

// insert places a key known to be absent at the first inactive slot of its
// probe sequence, marking every slot it steps past as Collided.  There must
// be at least one inactive slot.
func (t *Table[K, V]) insert(key K) int {
	home := t.Home(key)
	slot := home
	if t.index.Get(home >> bucketShift) {
		slot = t.firstInactive(home, t.capacity)
		t.collide(home, (slot-home)&(t.capacity-1))
	}

	bucket := slot >> bucketShift
	t.index.Set(bucket)
	t.buckets[bucket].Active.Set(slot & bucketMask)
	t.keys[slot] = key
	t.count++
	return slot
}

// Find returns the slot holding key, or -1.
func (t *Table[K, V]) Find(key K) int {
	if t.capacity == 0 {
		return -1
	}
	mask := t.capacity - 1
	slot := t.Home(key)
	for i := 0; i < t.capacity; i++ {
		b := &t.buckets[slot>>bucketShift]
		off := slot & bucketMask
		if b.Active.Get(off) && t.keys[slot] == key {
			return slot
		}
		// nothing ever probed past this slot, so key can't be further along
		if !b.Collided.Get(off) {
			return -1
		}
		slot = (slot + 1) & mask
	}
	return -1
}

// Delete removes key, returning false if it wasn't present.  The slot's
// Collided bit is kept: other keys' probe sequences may pass through it.
func (t *Table[K, V]) Delete(key K) bool {
	slot := t.Find(key)
	if slot < 0 {
		return false
	}
	t.vacate(slot)
	t.count--
	return true
}

func (t *Table[K, V]) vacate(slot int) {
	bucket := slot >> bucketShift
	b := &t.buckets[bucket]
	b.Active.Reset(slot & bucketMask)
	if b.Active == 0 {
		t.index.Reset(bucket)
	}
	var zeroK K
	var zeroV V
	t.keys[slot] = zeroK
	t.values[slot] = zeroV
}

// Move rekeys the entry stored under oldKey to newKey, carrying its value,
// and returns the new slot.  newKey is probed from its own home slot.  If
// oldKey is absent Move returns -1 and does nothing.  If newKey is already
// present (and differs from oldKey) Move fails with ErrDuplicateKey and
// does nothing.
func (t *Table[K, V]) Move(oldKey, newKey K) (int, error) {
	slot := t.Find(oldKey)
	if slot < 0 {
		return -1, nil
	}
	if oldKey != newKey && t.Find(newKey) >= 0 {
		return -1, fmt.Errorf("Move(%v, %v): %w", oldKey, newKey, ErrDuplicateKey)
	}
	value := t.values[slot]
	t.vacate(slot)
	t.count--

	s, err := t.Add(newKey)
	if err != nil {
		// growth failed; the slot we just vacated is still free
		s = t.insert(oldKey)
		t.values[s] = value
		return -1, err
	}
	t.values[s] = value
	return s, nil
}

// Active reports whether slot holds a live entry.
func (t *Table[K, V]) Active(slot int) bool {
	if slot < 0 || slot >= t.capacity {
		return false
	}
	return t.buckets[slot>>bucketShift].Active.Get(slot & bucketMask)
}

// Key returns the key stored in slot.
func (t *Table[K, V]) Key(slot int) K {
	return t.keys[slot]
}

// Value returns a pointer to the value stored in slot.  The pointer is
// valid until the next mutating call.
func (t *Table[K, V]) Value(slot int) *V {
	return &t.values[slot]
}

// First returns the lowest live slot, or Cap() if the table is empty.
func (t *Table[K, V]) First() int {
	if t.count == 0 {
		return t.capacity
	}
	bucket := t.index.Peek()
	return bucket<<bucketShift + t.buckets[bucket].Active.Peek()
}

// Next returns the lowest live slot above slot, or Cap() if there is none.
func (t *Table[K, V]) Next(slot int) int {
	if slot < 0 {
		return t.First()
	}
	if slot >= t.capacity {
		return t.capacity
	}
	bucket := slot >> bucketShift
	if i := t.buckets[bucket].Active.PeekFrom(slot&bucketMask + 1); i >= 0 {
		return bucket<<bucketShift + i
	}
	bucket = t.index.PeekFrom(bucket + 1)
	if bucket < 0 {
		return t.capacity
	}
	return bucket<<bucketShift + t.buckets[bucket].Active.Peek()
}

// segment bounds the run of slots starting at slot that stays within one
// bucket and doesn't wrap past the end of the table.
func (t *Table[K, V]) segment(slot, n int) int {
	return min(n, bucketMask+1-(slot&bucketMask), t.capacity-slot)
}

// firstInactive returns the first slot that isn't Active among the n slots
// starting at from (wrapping around the end of the table), or -1.
func (t *Table[K, V]) firstInactive(from, n int) int {
	mask := t.capacity - 1
	slot := from
	for n > 0 {
		span := t.segment(slot, n)
		off := slot & bucketMask
		if i := t.buckets[slot>>bucketShift].Active.QueryFrom(off); i >= 0 && i < off+span {
			return slot - off + i
		}
		slot = (slot + span) & mask
		n -= span
	}
	return -1
}

// collide marks the n slots starting at from (wrapping) as Collided.
func (t *Table[K, V]) collide(from, n int) {
	mask := t.capacity - 1
	slot := from
	for n > 0 {
		span := t.segment(slot, n)
		off := slot & bucketMask
		bits := (uint64(1)<<uint(span) - 1) << uint(off)
		t.buckets[slot>>bucketShift].Collided |= bitset.BitSet(bits)
		slot = (slot + span) & mask
		n -= span
	}
}
