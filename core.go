// Copyright 2024 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package indexmap

import (
	"fmt"
	"slices"
)

// bucket is a single stored entry. The hash is computed once at insertion
// and reused whenever the index table grows or is rebuilt.
type bucket[K comparable, V any] struct {
	hash  uint64
	key   K
	value V
}

// core owns the backing sequence of entries and the index table mapping
// hashes to positions in that sequence. It maintains the invariant that
// every position in [0, len(entries)) is stored in exactly one full slot
// of the table, placed using the hash of the entry at that position.
//
// Operations that move a small number of entries patch the affected slots
// in place. Operations that move an arbitrary subset (retain, sort, split)
// rebuild the table from the cached hashes instead.
type core[K comparable, V any] struct {
	indices indexTable
	entries []bucket[K, V]
}

func (c *core[K, V]) init(allocator Allocator, capacity int) {
	c.indices.init(allocator)
	c.entries = nil
	if capacity > 0 {
		c.indices.reserve(capacity, c.hashAt)
		c.entries = make([]bucket[K, V], 0, capacity)
	}
}

func (c *core[K, V]) hashAt(i int) uint64 {
	return c.entries[i].hash
}

func (c *core[K, V]) len() int {
	return len(c.entries)
}

// capacity returns the number of entries that can be held without
// reallocating either structure.
func (c *core[K, V]) capacity() int {
	return min(c.indices.growthCapacity(), cap(c.entries))
}

func (c *core[K, V]) checkInvariants() {
	if invariants {
		c.indices.checkInvariants(len(c.entries), c.hashAt)
	}
}

func (c *core[K, V]) eq(key K) func(i int) bool {
	return func(i int) bool {
		return c.entries[i].key == key
	}
}

// eqFunc adapts a predicate over keys to one over positions.
func (c *core[K, V]) eqFunc(eq func(key K) bool) func(i int) bool {
	return func(i int) bool {
		return eq(c.entries[i].key)
	}
}

// indexOf returns the position of key.
func (c *core[K, V]) indexOf(hash uint64, key K) (int, bool) {
	return c.indexOfFunc(hash, c.eq(key))
}

// indexOfFunc returns the first position stored under hash for which eq
// returns true.
func (c *core[K, V]) indexOfFunc(hash uint64, eq func(i int) bool) (int, bool) {
	slot, ok := c.indices.find(hash, eq)
	if !ok {
		return 0, false
	}
	return c.indices.at(slot), true
}

// reserveEntries grows the backing sequence to match the growth capacity
// of the index table, so the two structures grow in step.
func (c *core[K, V]) reserveEntries() {
	if additional := c.indices.growthCapacity() - len(c.entries); additional > 0 {
		c.entries = slices.Grow(c.entries, additional)
	}
}

// push appends a new entry known not to be present and returns its position.
func (c *core[K, V]) push(hash uint64, key K, value V) int {
	i := len(c.entries)
	c.indices.insert(hash, i, c.hashAt)
	if i == cap(c.entries) {
		c.reserveEntries()
	}
	c.entries = append(c.entries, bucket[K, V]{hash: hash, key: key, value: value})
	return i
}

// insertFull inserts or updates key. An existing key keeps both its stored
// key and its position; only the value is replaced.
func (c *core[K, V]) insertFull(hash uint64, key K, value V) (i int, old V, replaced bool) {
	if i, ok := c.indexOf(hash, key); ok {
		b := &c.entries[i]
		old, b.value = b.value, value
		return i, old, true
	}
	i = c.push(hash, key, value)
	c.checkInvariants()
	return i, old, false
}

func (c *core[K, V]) reserve(additional int) {
	c.indices.reserve(additional, c.hashAt)
	c.reserveEntries()
}

func (c *core[K, V]) shrinkToFit() {
	c.indices.shrinkTo(len(c.entries), c.hashAt)
	c.entries = slices.Clip(c.entries)
}

// clear removes all entries, keeping both allocations.
func (c *core[K, V]) clear() {
	c.indices.clear()
	clear(c.entries)
	c.entries = c.entries[:0]
}

func (c *core[K, V]) clone() core[K, V] {
	return core[K, V]{
		indices: c.indices.clone(),
		entries: slices.Clone(c.entries),
	}
}

// swapRemoveFull removes key by moving the last entry into its position.
func (c *core[K, V]) swapRemoveFull(hash uint64, key K) (i int, k K, v V, ok bool) {
	return c.swapRemoveFunc(hash, c.eq(key))
}

// shiftRemoveFull removes key by shifting every later entry down by one.
func (c *core[K, V]) shiftRemoveFull(hash uint64, key K) (i int, k K, v V, ok bool) {
	return c.shiftRemoveFunc(hash, c.eq(key))
}

func (c *core[K, V]) swapRemoveFunc(hash uint64, eq func(i int) bool) (i int, k K, v V, ok bool) {
	slot, ok := c.indices.find(hash, eq)
	if !ok {
		return i, k, v, false
	}
	i = c.indices.at(slot)
	c.indices.erase(slot)
	k, v = c.swapRemoveFinish(i)
	return i, k, v, true
}

func (c *core[K, V]) shiftRemoveFunc(hash uint64, eq func(i int) bool) (i int, k K, v V, ok bool) {
	slot, ok := c.indices.find(hash, eq)
	if !ok {
		return i, k, v, false
	}
	i = c.indices.at(slot)
	c.indices.erase(slot)
	k, v = c.shiftRemoveFinish(i)
	return i, k, v, true
}

func (c *core[K, V]) swapRemoveIndex(i int) (k K, v V, ok bool) {
	if i < 0 || i >= len(c.entries) {
		return k, v, false
	}
	c.indices.erase(c.indices.findIndex(c.entries[i].hash, i))
	k, v = c.swapRemoveFinish(i)
	return k, v, true
}

func (c *core[K, V]) shiftRemoveIndex(i int) (k K, v V, ok bool) {
	if i < 0 || i >= len(c.entries) {
		return k, v, false
	}
	c.indices.erase(c.indices.findIndex(c.entries[i].hash, i))
	k, v = c.shiftRemoveFinish(i)
	return k, v, true
}

// swapRemoveFinish removes the entry at i, whose association has already
// been erased, and repoints the association of the entry moved into i.
func (c *core[K, V]) swapRemoveFinish(i int) (K, V) {
	last := len(c.entries) - 1
	b := c.entries[i]
	if i < last {
		moved := c.entries[last]
		c.indices.set(c.indices.findIndex(moved.hash, last), i)
		c.entries[i] = moved
	}
	c.entries[last] = bucket[K, V]{}
	c.entries = c.entries[:last]
	c.checkInvariants()
	return b.key, b.value
}

// shiftRemoveFinish removes the entry at i, whose association has already
// been erased, and decrements the position of every later entry.
func (c *core[K, V]) shiftRemoveFinish(i int) (K, V) {
	b := c.entries[i]
	c.shiftIndices(i+1, len(c.entries), 1)
	c.entries = slices.Delete(c.entries, i, i+1)
	c.checkInvariants()
	return b.key, b.value
}

// shiftIndices lowers the stored position of every entry in [start, end)
// by delta. The positions [start-delta, start) must no longer be stored.
func (c *core[K, V]) shiftIndices(start, end, delta int) {
	if start >= end {
		return
	}
	if end-start > int(c.indices.capacity)/2 {
		// Most of the table moves: sweep every slot.
		c.indices.forEach(func(_ uintptr, i *int) {
			if start <= *i && *i < end {
				*i -= delta
			}
		})
		return
	}
	// Ascending order keeps each lookup unambiguous: the position being
	// written was vacated either by the removal or by the previous step.
	for i := start; i < end; i++ {
		c.indices.set(c.indices.findIndex(c.entries[i].hash, i), i-delta)
	}
}

// eraseIndices erases the associations of the entries in [start, end) and
// shifts the positions of the entries after end down to close the gap. The
// backing sequence is left untouched.
func (c *core[K, V]) eraseIndices(start, end int) {
	n := len(c.entries)
	erased, shifted := end-start, n-end
	switch {
	case erased == 0:
		return
	case erased == n:
		c.indices.clear()
	case erased+shifted > int(c.indices.capacity)/2:
		c.indices.forEach(func(slot uintptr, i *int) {
			switch {
			case *i >= end:
				*i -= erased
			case *i >= start:
				c.indices.erase(slot)
			}
		})
	default:
		for i := start; i < end; i++ {
			c.indices.erase(c.indices.findIndex(c.entries[i].hash, i))
		}
		c.shiftIndices(end, n, erased)
	}
}

func (c *core[K, V]) pop() (k K, v V, ok bool) {
	last := len(c.entries) - 1
	if last < 0 {
		return k, v, false
	}
	b := c.entries[last]
	c.indices.erase(c.indices.findIndex(b.hash, last))
	c.entries[last] = bucket[K, V]{}
	c.entries = c.entries[:last]
	c.checkInvariants()
	return b.key, b.value, true
}

// truncate keeps the first n entries. It is a no-op if n >= len.
func (c *core[K, V]) truncate(n int) {
	if n < 0 {
		panicInvalidRange(n, len(c.entries), len(c.entries))
	}
	if n >= len(c.entries) {
		return
	}
	c.eraseIndices(n, len(c.entries))
	clear(c.entries[n:])
	c.entries = c.entries[:n]
	c.checkInvariants()
}

// drain removes the entries in [start, end), returning them in order.
func (c *core[K, V]) drain(start, end int) []bucket[K, V] {
	checkRange(start, end, len(c.entries))
	removed := slices.Clone(c.entries[start:end])
	c.eraseIndices(start, end)
	c.entries = slices.Delete(c.entries, start, end)
	c.checkInvariants()
	return removed
}

// splitOff moves the entries in [at, len) into a new core.
func (c *core[K, V]) splitOff(at int) core[K, V] {
	checkRange(at, len(c.entries), len(c.entries))
	var other core[K, V]
	other.indices.init(c.indices.allocator)
	other.entries = slices.Clone(c.entries[at:])
	c.truncate(at)
	other.indices.rebuild(len(other.entries), other.hashAt)
	other.checkInvariants()
	return other
}

// retainInOrder keeps the entries for which keep returns true, preserving
// their relative order.
func (c *core[K, V]) retainInOrder(keep func(key K, value *V) bool) {
	n := 0
	for i := range c.entries {
		if keep(c.entries[i].key, &c.entries[i].value) {
			if n != i {
				c.entries[n] = c.entries[i]
			}
			n++
		}
	}
	if n < len(c.entries) {
		clear(c.entries[n:])
		c.entries = c.entries[:n]
		c.rebuildHashTable()
	}
}

func (c *core[K, V]) rebuildHashTable() {
	c.indices.rebuild(len(c.entries), c.hashAt)
	c.checkInvariants()
}

// sortBy stably sorts the entries and rebuilds the index table.
func (c *core[K, V]) sortBy(cmp func(a, b *bucket[K, V]) int) {
	slices.SortStableFunc(c.entries, func(a, b bucket[K, V]) int {
		return cmp(&a, &b)
	})
	c.rebuildHashTable()
}

// reverse reverses the order of the entries; position i becomes len-1-i.
func (c *core[K, V]) reverse() {
	slices.Reverse(c.entries)
	n := len(c.entries)
	c.indices.forEach(func(_ uintptr, i *int) {
		*i = n - 1 - *i
	})
	c.checkInvariants()
}

func (c *core[K, V]) swapIndices(a, b int) {
	n := len(c.entries)
	if a < 0 || a >= n {
		panicIndexOutOfBounds(a, n)
	}
	if b < 0 || b >= n {
		panicIndexOutOfBounds(b, n)
	}
	if a == b {
		return
	}
	slotA := c.indices.findIndex(c.entries[a].hash, a)
	slotB := c.indices.findIndex(c.entries[b].hash, b)
	c.indices.set(slotA, b)
	c.indices.set(slotB, a)
	c.entries[a], c.entries[b] = c.entries[b], c.entries[a]
	c.checkInvariants()
}

func (c *core[K, V]) debugString() string {
	return fmt.Sprintf("len=%d cap=%d\n%s", len(c.entries), cap(c.entries), c.indices.debugString())
}
