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

// Package indexmap implements a hash map that preserves insertion order
// and supports access by position.
//
// # Design
//
// A Map keeps its entries in a dense slice (the backing sequence) in
// iteration order, and keeps a separate Swiss table (see
// https://abseil.io/about/design/swisstables) whose slots hold positions
// into that slice rather than keys and values. Looking up a key hashes it,
// probes the table for candidate positions whose control byte matches, and
// compares the key stored at each candidate position. Iteration and access
// by position read the slice directly.
//
// Every position is stored in exactly one slot of the table. Operations
// that move entries must move the corresponding positions too:
//
//   - SwapRemove moves the last entry into the hole left by the removed
//     one. It is O(1) but perturbs the order of the remaining entries.
//   - ShiftRemove shifts every later entry down by one and decrements
//     their stored positions. It preserves order but is O(n).
//   - Retain, SortBy, SplitOff and similar bulk operations rebuild the
//     table from hashes cached next to each entry.
//
// Remove and RemoveEntry are aliases for SwapRemove and SwapRemoveEntry.
// Callers that need the remaining entries to keep their order must call
// ShiftRemove explicitly.
//
// Out of range positions, invalid ranges and MustGet on a missing key
// panic. Missing keys and positions are otherwise reported with ok=false.
//
// A Map is NOT goroutine-safe.
package indexmap

import (
	"cmp"
	"fmt"
	"hash/maphash"
	"iter"
	"strings"

	"golang.org/x/exp/constraints"
)

// Map is a hash map that iterates in insertion order and supports
// indexed access to its entries. By default, a Map[K,V] hashes keys with
// maphash.Comparable and a random per-map seed, though a different hash
// function can be specified using the WithHash option.
type Map[K comparable, V any] struct {
	hash      HashFunc[K]
	seed      maphash.Seed
	allocator Allocator
	core      core[K, V]
}

// New constructs a new Map with room for at least initialCapacity entries.
// If initialCapacity is 0 the map will start out with zero capacity and
// will grow on the first insert. The zero value for a Map is not usable.
func New[K comparable, V any](initialCapacity int, options ...option[K, V]) *Map[K, V] {
	m := &Map[K, V]{}
	m.Init(initialCapacity, options...)
	return m
}

// Init initializes a Map with the specified initial capacity, discarding
// any previous contents. Init can be used to reuse a Map value.
func (m *Map[K, V]) Init(initialCapacity int, options ...option[K, V]) {
	if m.allocator != nil {
		// Return the previous table to the allocator it came from.
		m.core.indices.release()
	}
	*m = Map[K, V]{
		hash:      maphash.Comparable[K],
		seed:      maphash.MakeSeed(),
		allocator: defaultAllocator{},
	}
	for _, op := range options {
		op.apply(m)
	}
	m.core.init(m.allocator, initialCapacity)
}

// Collect builds a Map from seq. Later values win for keys that appear more
// than once; each key keeps the position where it first appeared. hint is
// the expected number of pairs and may be 0 if unknown.
func Collect[K comparable, V any](hint int, seq iter.Seq2[K, V], options ...option[K, V]) *Map[K, V] {
	m := New[K, V](0, options...)
	m.Extend(hint, seq)
	return m
}

// Close releases the index table memory back to the configured allocator.
// It is unnecessary to close a map using the default allocator. It is
// invalid to use a Map after it has been closed, though Close itself is
// idempotent.
func (m *Map[K, V]) Close() {
	m.core.indices.release()
	m.core.entries = nil
}

// Hash returns the hash the map computes for key. It is the value an
// Equivalent lookup key must return for keys it is equivalent to.
func (m *Map[K, V]) Hash(key K) uint64 {
	return m.hash(m.seed, key)
}

// Len returns the number of entries in the map.
func (m *Map[K, V]) Len() int {
	return m.core.len()
}

// IsEmpty returns true if the map has no entries.
func (m *Map[K, V]) IsEmpty() bool {
	return m.core.len() == 0
}

// Capacity returns the number of entries the map can hold without
// reallocating.
func (m *Map[K, V]) Capacity() int {
	return m.core.capacity()
}

// Reserve makes room for at least additional more entries.
func (m *Map[K, V]) Reserve(additional int) {
	m.core.reserve(additional)
}

// ShrinkToFit lowers the capacity of the map as much as possible.
func (m *Map[K, V]) ShrinkToFit() {
	m.core.shrinkToFit()
}

// Clear removes all entries while retaining the allocated memory.
func (m *Map[K, V]) Clear() {
	m.core.clear()
}

// Insert sets the value for key. If key is already present its value is
// replaced and the old value is returned with replaced=true; the entry
// keeps its position. Otherwise the entry is appended.
func (m *Map[K, V]) Insert(key K, value V) (old V, replaced bool) {
	_, old, replaced = m.core.insertFull(m.Hash(key), key, value)
	return old, replaced
}

// InsertFull is like Insert but also returns the position of the entry.
func (m *Map[K, V]) InsertFull(key K, value V) (index int, old V, replaced bool) {
	return m.core.insertFull(m.Hash(key), key, value)
}

// Extend inserts every pair of seq in order. hint is the expected number
// of pairs and may be 0 if unknown. The map reserves the full hint when it
// is empty and half of it otherwise, as some of the keys are likely to be
// present already.
func (m *Map[K, V]) Extend(hint int, seq iter.Seq2[K, V]) {
	reserve := hint
	if !m.IsEmpty() {
		reserve = (hint + 1) / 2
	}
	if reserve > 0 {
		m.Reserve(reserve)
	}
	for k, v := range seq {
		m.Insert(k, v)
	}
}

// Get retrieves the value for key, returning ok=false if the key is not
// present.
func (m *Map[K, V]) Get(key K) (value V, ok bool) {
	if i, ok := m.core.indexOf(m.Hash(key), key); ok {
		return m.core.entries[i].value, true
	}
	return value, false
}

// GetPtr returns a pointer to the value for key. The pointer is valid until
// the next operation that adds or removes entries.
func (m *Map[K, V]) GetPtr(key K) (*V, bool) {
	if i, ok := m.core.indexOf(m.Hash(key), key); ok {
		return &m.core.entries[i].value, true
	}
	return nil, false
}

// GetKeyValue returns the stored key and the value for key.
func (m *Map[K, V]) GetKeyValue(key K) (k K, v V, ok bool) {
	if i, ok := m.core.indexOf(m.Hash(key), key); ok {
		b := &m.core.entries[i]
		return b.key, b.value, true
	}
	return k, v, false
}

// GetFull returns the position, stored key and value for key.
func (m *Map[K, V]) GetFull(key K) (index int, k K, v V, ok bool) {
	if i, ok := m.core.indexOf(m.Hash(key), key); ok {
		b := &m.core.entries[i]
		return i, b.key, b.value, true
	}
	return 0, k, v, false
}

// GetFullPtr is like GetFull but returns a pointer to the value.
func (m *Map[K, V]) GetFullPtr(key K) (index int, k K, v *V, ok bool) {
	if i, ok := m.core.indexOf(m.Hash(key), key); ok {
		b := &m.core.entries[i]
		return i, b.key, &b.value, true
	}
	return 0, k, nil, false
}

// IndexOf returns the position of key.
func (m *Map[K, V]) IndexOf(key K) (int, bool) {
	return m.core.indexOf(m.Hash(key), key)
}

// ContainsKey returns true if key is present.
func (m *Map[K, V]) ContainsKey(key K) bool {
	_, ok := m.core.indexOf(m.Hash(key), key)
	return ok
}

// MustGet returns the value for key and panics if the key is not present.
func (m *Map[K, V]) MustGet(key K) V {
	i, ok := m.core.indexOf(m.Hash(key), key)
	if !ok {
		panicKeyNotFound(key)
	}
	return m.core.entries[i].value
}

// Remove is an alias for SwapRemove. It perturbs the position of the last
// entry; use ShiftRemove to preserve order.
func (m *Map[K, V]) Remove(key K) (V, bool) {
	return m.SwapRemove(key)
}

// RemoveEntry is an alias for SwapRemoveEntry. It perturbs the position of
// the last entry; use ShiftRemoveEntry to preserve order.
func (m *Map[K, V]) RemoveEntry(key K) (K, V, bool) {
	return m.SwapRemoveEntry(key)
}

// SwapRemove removes key and returns its value. The last entry takes the
// place of the removed one. O(1) on average.
func (m *Map[K, V]) SwapRemove(key K) (v V, ok bool) {
	_, _, v, ok = m.core.swapRemoveFull(m.Hash(key), key)
	return v, ok
}

// SwapRemoveEntry is like SwapRemove but also returns the stored key.
func (m *Map[K, V]) SwapRemoveEntry(key K) (k K, v V, ok bool) {
	_, k, v, ok = m.core.swapRemoveFull(m.Hash(key), key)
	return k, v, ok
}

// SwapRemoveFull is like SwapRemoveEntry but also returns the position the
// entry occupied, which now holds what was the last entry.
func (m *Map[K, V]) SwapRemoveFull(key K) (index int, k K, v V, ok bool) {
	return m.core.swapRemoveFull(m.Hash(key), key)
}

// ShiftRemove removes key and returns its value. Every later entry shifts
// down by one position, preserving order. O(n) on average.
func (m *Map[K, V]) ShiftRemove(key K) (v V, ok bool) {
	_, _, v, ok = m.core.shiftRemoveFull(m.Hash(key), key)
	return v, ok
}

// ShiftRemoveEntry is like ShiftRemove but also returns the stored key.
func (m *Map[K, V]) ShiftRemoveEntry(key K) (k K, v V, ok bool) {
	_, k, v, ok = m.core.shiftRemoveFull(m.Hash(key), key)
	return k, v, ok
}

// ShiftRemoveFull is like ShiftRemoveEntry but also returns the position
// the entry occupied.
func (m *Map[K, V]) ShiftRemoveFull(key K) (index int, k K, v V, ok bool) {
	return m.core.shiftRemoveFull(m.Hash(key), key)
}

// Pop removes and returns the last entry. O(1).
func (m *Map[K, V]) Pop() (K, V, bool) {
	return m.core.pop()
}

// Retain keeps only the entries for which keep returns true, visiting them
// in order. keep may modify the value. O(n).
func (m *Map[K, V]) Retain(keep func(key K, value *V) bool) {
	m.core.retainInOrder(keep)
}

// SortBy stably sorts the entries using cmp, which returns a negative
// number when the first entry sorts before the second, a positive number
// when it sorts after, and zero when their order should be kept.
func (m *Map[K, V]) SortBy(cmp func(k1 K, v1 V, k2 K, v2 V) int) {
	m.core.sortBy(func(a, b *bucket[K, V]) int {
		return cmp(a.key, a.value, b.key, b.value)
	})
}

// SortedBy sorts the entries like SortBy and returns an iterator that owns
// them. The map is left empty.
func (m *Map[K, V]) SortedBy(cmp func(k1 K, v1 V, k2 K, v2 V) int) *Iter[K, V] {
	m.SortBy(cmp)
	return m.IntoIter()
}

// SortKeys stably sorts the entries of m by key. NaN keys sort first.
func SortKeys[K constraints.Ordered, V any](m *Map[K, V]) {
	m.SortBy(func(k1 K, _ V, k2 K, _ V) int {
		return cmp.Compare(k1, k2)
	})
}

// Reverse reverses the order of the entries in place. O(n).
func (m *Map[K, V]) Reverse() {
	m.core.reverse()
}

// GetIndex returns the entry at position i, or ok=false if i is out of
// range.
func (m *Map[K, V]) GetIndex(i int) (k K, v V, ok bool) {
	if i < 0 || i >= m.core.len() {
		return k, v, false
	}
	b := &m.core.entries[i]
	return b.key, b.value, true
}

// GetIndexPtr is like GetIndex but returns a pointer to the value.
func (m *Map[K, V]) GetIndexPtr(i int) (k K, v *V, ok bool) {
	if i < 0 || i >= m.core.len() {
		return k, nil, false
	}
	b := &m.core.entries[i]
	return b.key, &b.value, true
}

// At returns the entry at position i and panics if i is out of range.
func (m *Map[K, V]) At(i int) (K, V) {
	if i < 0 || i >= m.core.len() {
		panicIndexOutOfBounds(i, m.core.len())
	}
	b := &m.core.entries[i]
	return b.key, b.value
}

// AtPtr is like At but returns a pointer to the value.
func (m *Map[K, V]) AtPtr(i int) (K, *V) {
	if i < 0 || i >= m.core.len() {
		panicIndexOutOfBounds(i, m.core.len())
	}
	b := &m.core.entries[i]
	return b.key, &b.value
}

// First returns the first entry.
func (m *Map[K, V]) First() (K, V, bool) {
	return m.GetIndex(0)
}

// FirstPtr returns the first entry with a pointer to its value.
func (m *Map[K, V]) FirstPtr() (K, *V, bool) {
	return m.GetIndexPtr(0)
}

// Last returns the last entry.
func (m *Map[K, V]) Last() (K, V, bool) {
	return m.GetIndex(m.core.len() - 1)
}

// LastPtr returns the last entry with a pointer to its value.
func (m *Map[K, V]) LastPtr() (K, *V, bool) {
	return m.GetIndexPtr(m.core.len() - 1)
}

// SwapRemoveIndex removes the entry at position i, moving the last entry
// into its place. It returns ok=false if i is out of range. O(1).
func (m *Map[K, V]) SwapRemoveIndex(i int) (K, V, bool) {
	return m.core.swapRemoveIndex(i)
}

// ShiftRemoveIndex removes the entry at position i, shifting every later
// entry down by one. It returns ok=false if i is out of range. O(n).
func (m *Map[K, V]) ShiftRemoveIndex(i int) (K, V, bool) {
	return m.core.shiftRemoveIndex(i)
}

// SwapIndices swaps the positions of two entries. It panics if either
// position is out of range.
func (m *Map[K, V]) SwapIndices(a, b int) {
	m.core.swapIndices(a, b)
}

// Truncate keeps the first n entries and removes the rest. It has no
// effect if n >= Len.
func (m *Map[K, V]) Truncate(n int) {
	m.core.truncate(n)
}

// Drain removes the entries in positions [start, end) and returns an
// iterator over them in their original order. Later entries shift down to
// close the gap. It panics if start > end or end > Len.
func (m *Map[K, V]) Drain(start, end int) *Iter[K, V] {
	return &Iter[K, V]{entries: m.core.drain(start, end)}
}

// SplitOff moves the entries in positions [at, Len) into a new map with
// the same hash function and allocator. It panics if at > Len.
func (m *Map[K, V]) SplitOff(at int) *Map[K, V] {
	return &Map[K, V]{
		hash:      m.hash,
		seed:      m.seed,
		allocator: m.allocator,
		core:      m.core.splitOff(at),
	}
}

// Clone returns a copy of the map with the same hash function, seed and
// allocator.
func (m *Map[K, V]) Clone() *Map[K, V] {
	return &Map[K, V]{
		hash:      m.hash,
		seed:      m.seed,
		allocator: m.allocator,
		core:      m.core.clone(),
	}
}

// Equal reports whether a and b contain the same keys mapped to equal
// values. Order is not considered.
func Equal[K, V comparable](a, b *Map[K, V]) bool {
	return EqualFunc(a, b, func(v1, v2 V) bool { return v1 == v2 })
}

// EqualFunc is like Equal but compares values using eq.
func EqualFunc[K comparable, V1, V2 any](a *Map[K, V1], b *Map[K, V2], eq func(V1, V2) bool) bool {
	if a.Len() != b.Len() {
		return false
	}
	for k, v1 := range a.All() {
		if v2, ok := b.Get(k); !ok || !eq(v1, v2) {
			return false
		}
	}
	return true
}

// String returns the entries formatted like a builtin map, in order.
func (m *Map[K, V]) String() string {
	var buf strings.Builder
	buf.WriteString("map[")
	for i := range m.core.entries {
		if i > 0 {
			buf.WriteByte(' ')
		}
		b := &m.core.entries[i]
		fmt.Fprintf(&buf, "%v:%v", b.key, b.value)
	}
	buf.WriteByte(']')
	return buf.String()
}
