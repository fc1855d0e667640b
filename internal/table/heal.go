// Copyright 2024 The bithash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package table

// Stats summarizes a table's occupancy and probe lengths.
type Stats struct {
	Count       int
	Capacity    int
	Buckets     int
	LiveBuckets int
	// Collided is the number of slots with their Collided bit set.
	Collided int
	// MaxProbe and MeanProbe count the slots a successful lookup visits;
	// an entry in its home slot has a probe length of 1.
	MaxProbe  int
	MeanProbe float64
	Health    float64
}

// distance returns how many slots past its home slot the entry in slot sits.
func (t *Table[K, V]) distance(slot int) int {
	return (slot - t.Home(t.keys[slot])) & (t.capacity - 1)
}

// Health returns the fraction of live entries stored in their home slot.
// An empty table is perfectly healthy.
func (t *Table[K, V]) Health() float64 {
	if t.count == 0 {
		return 1
	}
	home := 0
	for slot := t.First(); slot < t.capacity; slot = t.Next(slot) {
		if t.distance(slot) == 0 {
			home++
		}
	}
	return float64(home) / float64(t.count)
}

// Stats walks the table and reports its occupancy and probe lengths.
func (t *Table[K, V]) Stats() Stats {
	s := Stats{
		Count:       t.count,
		Capacity:    t.capacity,
		Buckets:     len(t.buckets),
		LiveBuckets: t.index.Count(),
		Health:      1,
	}
	for i := range t.buckets {
		s.Collided += t.buckets[i].Collided.Count()
	}
	if t.count == 0 {
		return s
	}
	home, total := 0, 0
	for slot := t.First(); slot < t.capacity; slot = t.Next(slot) {
		probe := t.distance(slot) + 1
		if probe == 1 {
			home++
		}
		total += probe
		s.MaxProbe = max(s.MaxProbe, probe)
	}
	s.MeanProbe = float64(total) / float64(t.count)
	s.Health = float64(home) / float64(t.count)
	return s
}

// Heal undoes damage left behind by deletions and returns the number of
// entries it relocated.  Each displaced entry moves to the first inactive
// slot between its home slot and its current slot, repeating until no entry
// can move, and then every Collided bit is rebuilt from the live entries
// alone.  No entry's probe length grows, and healing a table twice without
// deleting in between changes nothing the second time.
func (t *Table[K, V]) Heal() int {
	if t.capacity == 0 {
		return 0
	}
	before := t.Health()

	moved := 0
	for {
		n := 0
		for slot := t.First(); slot < t.capacity; slot = t.Next(slot) {
			d := t.distance(slot)
			if d == 0 {
				continue
			}
			home := (slot - d) & (t.capacity - 1)
			free := t.firstInactive(home, d)
			if free < 0 {
				continue
			}
			t.relocate(slot, free)
			n++
		}
		if n == 0 {
			break
		}
		moved += n
	}
	t.rebuildCollided()

	t.logger.Debug("bithash: healed table",
		"moved", moved,
		"health_before", before,
		"health_after", t.Health(),
	)
	return moved
}

func (t *Table[K, V]) relocate(from, to int) {
	bucket := to >> bucketShift
	t.index.Set(bucket)
	t.buckets[bucket].Active.Set(to & bucketMask)
	t.keys[to] = t.keys[from]
	t.values[to] = t.values[from]
	t.vacate(from)
}

// rebuildCollided clears every Collided bit, then marks the slots between
// each live entry's home slot and its current slot.
func (t *Table[K, V]) rebuildCollided() {
	for i := range t.buckets {
		t.buckets[i].Collided.Clear()
	}
	for slot := t.First(); slot < t.capacity; slot = t.Next(slot) {
		if d := t.distance(slot); d > 0 {
			t.collide((slot-d)&(t.capacity-1), d)
		}
	}
}
