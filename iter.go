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

import "iter"

// All returns an iterator over the entries in order. Entries added or
// removed during iteration may or may not be visited.
//
//	for k, v := range m.All() {
//	  fmt.Printf("%v: %v\n", k, v)
//	}
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		entries := m.core.entries
		for i := range entries {
			if !yield(entries[i].key, entries[i].value) {
				return
			}
		}
	}
}

// Backward returns an iterator over the entries in reverse order.
func (m *Map[K, V]) Backward() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		entries := m.core.entries
		for i := len(entries) - 1; i >= 0; i-- {
			if !yield(entries[i].key, entries[i].value) {
				return
			}
		}
	}
}

// Keys returns an iterator over the keys in order.
func (m *Map[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		entries := m.core.entries
		for i := range entries {
			if !yield(entries[i].key) {
				return
			}
		}
	}
}

// Values returns an iterator over the values in order.
func (m *Map[K, V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		entries := m.core.entries
		for i := range entries {
			if !yield(entries[i].value) {
				return
			}
		}
	}
}

// ValuesPtr returns an iterator over pointers to the values in order,
// allowing them to be modified in place.
func (m *Map[K, V]) ValuesPtr() iter.Seq[*V] {
	return func(yield func(*V) bool) {
		entries := m.core.entries
		for i := range entries {
			if !yield(&entries[i].value) {
				return
			}
		}
	}
}

// Iter returns a double-ended iterator over the entries. It shares storage
// with the map and is invalidated by any operation that adds or removes
// entries.
func (m *Map[K, V]) Iter() *Iter[K, V] {
	return &Iter[K, V]{entries: m.core.entries[:len(m.core.entries):len(m.core.entries)]}
}

// IntoIter moves the entries out of the map into an iterator. The map is
// left empty but keeps its index table allocation.
func (m *Map[K, V]) IntoIter() *Iter[K, V] {
	entries := m.core.entries
	m.core.entries = nil
	m.core.indices.clear()
	return &Iter[K, V]{entries: entries}
}

// Iter is a double-ended iterator over a sequence of entries that knows
// exactly how many entries remain.
type Iter[K comparable, V any] struct {
	entries []bucket[K, V]
}

// Len returns the number of entries remaining.
func (it *Iter[K, V]) Len() int {
	return len(it.entries)
}

// Next returns the entry at the front and advances past it.
func (it *Iter[K, V]) Next() (k K, v V, ok bool) {
	if len(it.entries) == 0 {
		return k, v, false
	}
	b := &it.entries[0]
	it.entries = it.entries[1:]
	return b.key, b.value, true
}

// NextBack returns the entry at the back and retreats past it.
func (it *Iter[K, V]) NextBack() (k K, v V, ok bool) {
	n := len(it.entries)
	if n == 0 {
		return k, v, false
	}
	b := &it.entries[n-1]
	it.entries = it.entries[:n-1]
	return b.key, b.value, true
}

// All returns an iterator that consumes the remaining entries from the
// front.
func (it *Iter[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for {
			k, v, ok := it.Next()
			if !ok || !yield(k, v) {
				return
			}
		}
	}
}

// Keys returns an iterator that consumes the remaining entries from the
// front, yielding their keys.
func (it *Iter[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		for {
			k, _, ok := it.Next()
			if !ok || !yield(k) {
				return
			}
		}
	}
}
