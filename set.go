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
	"iter"
	"strings"

	"golang.org/x/exp/constraints"
)

// Set is a hash set that iterates in insertion order and supports indexed
// access to its values. It is a Map with empty values and shares its
// removal semantics: Remove is an alias for SwapRemove.
//
// A Set is NOT goroutine-safe.
type Set[T comparable] struct {
	m Map[T, struct{}]
}

// NewSet constructs a new Set with room for at least initialCapacity
// values.
func NewSet[T comparable](initialCapacity int, options ...option[T, struct{}]) *Set[T] {
	s := &Set[T]{}
	s.m.Init(initialCapacity, options...)
	return s
}

// CollectSet builds a Set from seq, keeping the first position of each
// value.
func CollectSet[T comparable](hint int, seq iter.Seq[T], options ...option[T, struct{}]) *Set[T] {
	s := NewSet[T](0, options...)
	s.Extend(hint, seq)
	return s
}

// Len returns the number of values in the set.
func (s *Set[T]) Len() int {
	return s.m.Len()
}

// IsEmpty returns true if the set has no values.
func (s *Set[T]) IsEmpty() bool {
	return s.m.IsEmpty()
}

// Capacity returns the number of values the set can hold without
// reallocating.
func (s *Set[T]) Capacity() int {
	return s.m.Capacity()
}

// Reserve makes room for at least additional more values.
func (s *Set[T]) Reserve(additional int) {
	s.m.Reserve(additional)
}

// ShrinkToFit lowers the capacity of the set as much as possible.
func (s *Set[T]) ShrinkToFit() {
	s.m.ShrinkToFit()
}

// Clear removes all values while retaining the allocated memory.
func (s *Set[T]) Clear() {
	s.m.Clear()
}

// Insert adds value if absent and reports whether it was added. A present
// value keeps its position.
func (s *Set[T]) Insert(value T) bool {
	_, replaced := s.m.Insert(value, struct{}{})
	return !replaced
}

// InsertFull is like Insert but also returns the position of the value.
func (s *Set[T]) InsertFull(value T) (index int, inserted bool) {
	i, _, replaced := s.m.InsertFull(value, struct{}{})
	return i, !replaced
}

// Extend inserts every value of seq in order. See Map.Extend for hint.
func (s *Set[T]) Extend(hint int, seq iter.Seq[T]) {
	s.m.Extend(hint, func(yield func(T, struct{}) bool) {
		for v := range seq {
			if !yield(v, struct{}{}) {
				return
			}
		}
	})
}

// Contains returns true if value is present.
func (s *Set[T]) Contains(value T) bool {
	return s.m.ContainsKey(value)
}

// IndexOf returns the position of value.
func (s *Set[T]) IndexOf(value T) (int, bool) {
	return s.m.IndexOf(value)
}

// GetIndex returns the value at position i.
func (s *Set[T]) GetIndex(i int) (T, bool) {
	v, _, ok := s.m.GetIndex(i)
	return v, ok
}

// At returns the value at position i and panics if i is out of range.
func (s *Set[T]) At(i int) T {
	v, _ := s.m.At(i)
	return v
}

// First returns the first value.
func (s *Set[T]) First() (T, bool) {
	v, _, ok := s.m.First()
	return v, ok
}

// Last returns the last value.
func (s *Set[T]) Last() (T, bool) {
	v, _, ok := s.m.Last()
	return v, ok
}

// Get returns the stored value equal to value.
func (s *Set[T]) Get(value T) (T, bool) {
	k, _, ok := s.m.GetKeyValue(value)
	return k, ok
}

// GetFull returns the position and the stored value equal to value.
func (s *Set[T]) GetFull(value T) (int, T, bool) {
	i, k, _, ok := s.m.GetFull(value)
	return i, k, ok
}

// Replace inserts value, replacing an equal stored value in place. It
// returns the replaced value, if any. A new value is appended.
func (s *Set[T]) Replace(value T) (old T, replaced bool) {
	c := &s.m.core
	hash := s.m.Hash(value)
	if i, ok := c.indexOf(hash, value); ok {
		b := &c.entries[i]
		old, b.key = b.key, value
		return old, true
	}
	c.push(hash, value, struct{}{})
	c.checkInvariants()
	return old, false
}

// Remove is an alias for SwapRemove.
func (s *Set[T]) Remove(value T) bool {
	return s.SwapRemove(value)
}

// SwapRemove removes value, moving the last value into its place, and
// reports whether it was present.
func (s *Set[T]) SwapRemove(value T) bool {
	_, ok := s.m.SwapRemove(value)
	return ok
}

// ShiftRemove removes value, shifting every later value down by one, and
// reports whether it was present.
func (s *Set[T]) ShiftRemove(value T) bool {
	_, ok := s.m.ShiftRemove(value)
	return ok
}

// Take is an alias for SwapTake.
func (s *Set[T]) Take(value T) (T, bool) {
	return s.SwapTake(value)
}

// SwapTake removes value like SwapRemove and returns the stored value.
func (s *Set[T]) SwapTake(value T) (T, bool) {
	k, _, ok := s.m.SwapRemoveEntry(value)
	return k, ok
}

// ShiftTake removes value like ShiftRemove and returns the stored value.
func (s *Set[T]) ShiftTake(value T) (T, bool) {
	k, _, ok := s.m.ShiftRemoveEntry(value)
	return k, ok
}

// SwapRemoveFull is like SwapRemove but returns the removed position and
// stored value.
func (s *Set[T]) SwapRemoveFull(value T) (int, T, bool) {
	i, v, _, ok := s.m.SwapRemoveFull(value)
	return i, v, ok
}

// ShiftRemoveFull is like ShiftRemove but returns the removed position and
// stored value.
func (s *Set[T]) ShiftRemoveFull(value T) (int, T, bool) {
	i, v, _, ok := s.m.ShiftRemoveFull(value)
	return i, v, ok
}

// SwapRemoveIndex removes the value at position i like SwapRemove.
func (s *Set[T]) SwapRemoveIndex(i int) (T, bool) {
	v, _, ok := s.m.SwapRemoveIndex(i)
	return v, ok
}

// ShiftRemoveIndex removes the value at position i like ShiftRemove.
func (s *Set[T]) ShiftRemoveIndex(i int) (T, bool) {
	v, _, ok := s.m.ShiftRemoveIndex(i)
	return v, ok
}

// Pop removes and returns the last value.
func (s *Set[T]) Pop() (T, bool) {
	v, _, ok := s.m.Pop()
	return v, ok
}

// Retain keeps only the values for which keep returns true, in order.
func (s *Set[T]) Retain(keep func(value T) bool) {
	s.m.Retain(func(v T, _ *struct{}) bool {
		return keep(v)
	})
}

// SortBy stably sorts the values using cmp.
func (s *Set[T]) SortBy(cmp func(a, b T) int) {
	s.m.SortBy(func(a T, _ struct{}, b T, _ struct{}) int {
		return cmp(a, b)
	})
}

// SortedBy sorts the values like SortBy and returns an iterator that
// consumes them. The set is left empty.
func (s *Set[T]) SortedBy(cmp func(a, b T) int) iter.Seq[T] {
	s.SortBy(cmp)
	return s.m.IntoIter().Keys()
}

// SortSet stably sorts the values of s in ascending order.
func SortSet[T constraints.Ordered](s *Set[T]) {
	SortKeys(&s.m)
}

// Reverse reverses the order of the values in place.
func (s *Set[T]) Reverse() {
	s.m.Reverse()
}

// SwapIndices swaps the positions of two values. It panics if either
// position is out of range.
func (s *Set[T]) SwapIndices(a, b int) {
	s.m.SwapIndices(a, b)
}

// Truncate keeps the first n values.
func (s *Set[T]) Truncate(n int) {
	s.m.Truncate(n)
}

// Drain removes the values in positions [start, end) and returns them in
// order.
func (s *Set[T]) Drain(start, end int) []T {
	it := s.m.Drain(start, end)
	out := make([]T, 0, it.Len())
	for v := range it.Keys() {
		out = append(out, v)
	}
	return out
}

// SplitOff moves the values in positions [at, Len) into a new set.
func (s *Set[T]) SplitOff(at int) *Set[T] {
	return &Set[T]{m: *s.m.SplitOff(at)}
}

// Clone returns a copy of the set.
func (s *Set[T]) Clone() *Set[T] {
	return &Set[T]{m: *s.m.Clone()}
}

// All returns an iterator over the values in order.
func (s *Set[T]) All() iter.Seq[T] {
	return s.m.Keys()
}

// Backward returns an iterator over the values in reverse order.
func (s *Set[T]) Backward() iter.Seq[T] {
	return func(yield func(T) bool) {
		for v := range s.m.Backward() {
			if !yield(v) {
				return
			}
		}
	}
}

// Difference returns an iterator over the values of s that are not in
// other, in the order of s.
func (s *Set[T]) Difference(other *Set[T]) iter.Seq[T] {
	return func(yield func(T) bool) {
		for v := range s.All() {
			if !other.Contains(v) && !yield(v) {
				return
			}
		}
	}
}

// SymmetricDifference returns an iterator over the values in exactly one
// of s and other: first those of s in its order, then those of other in
// its order.
func (s *Set[T]) SymmetricDifference(other *Set[T]) iter.Seq[T] {
	return func(yield func(T) bool) {
		for v := range s.Difference(other) {
			if !yield(v) {
				return
			}
		}
		for v := range other.Difference(s) {
			if !yield(v) {
				return
			}
		}
	}
}

// Intersection returns an iterator over the values of s that are also in
// other, in the order of s.
func (s *Set[T]) Intersection(other *Set[T]) iter.Seq[T] {
	return func(yield func(T) bool) {
		for v := range s.All() {
			if other.Contains(v) && !yield(v) {
				return
			}
		}
	}
}

// Union returns an iterator over the values of s in order followed by the
// values of other that are not in s.
func (s *Set[T]) Union(other *Set[T]) iter.Seq[T] {
	return func(yield func(T) bool) {
		for v := range s.All() {
			if !yield(v) {
				return
			}
		}
		for v := range other.Difference(s) {
			if !yield(v) {
				return
			}
		}
	}
}

// IsDisjoint returns true if s and other have no values in common.
func (s *Set[T]) IsDisjoint(other *Set[T]) bool {
	small, large := s, other
	if small.Len() > large.Len() {
		small, large = large, small
	}
	for v := range small.All() {
		if large.Contains(v) {
			return false
		}
	}
	return true
}

// IsSubset returns true if every value of s is in other.
func (s *Set[T]) IsSubset(other *Set[T]) bool {
	if s.Len() > other.Len() {
		return false
	}
	for v := range s.All() {
		if !other.Contains(v) {
			return false
		}
	}
	return true
}

// IsSuperset returns true if every value of other is in s.
func (s *Set[T]) IsSuperset(other *Set[T]) bool {
	return other.IsSubset(s)
}

// SetEqual returns true if s and other contain the same values in any
// order.
func SetEqual[T comparable](a, b *Set[T]) bool {
	return a.Len() == b.Len() && a.IsSubset(b)
}

func (s *Set[T]) String() string {
	var buf strings.Builder
	buf.WriteByte('{')
	for i, v := range s.m.core.entries {
		if i > 0 {
			buf.WriteString(", ")
		}
		fmt.Fprintf(&buf, "%v", v.key)
	}
	buf.WriteByte('}')
	return buf.String()
}
