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

// Entry is the result of a single lookup of a key: either an occupied entry
// at a known position or a vacant slot where the key would be appended.
// Acting on an Entry does not hash or probe again.
//
// An Entry must not be used after the map is modified through any other
// path. WithEntry scopes an Entry to a callback.
type Entry[K comparable, V any] struct {
	m        *Map[K, V]
	hash     uint64
	key      K
	index    int
	occupied bool
}

// Entry looks up key and returns its entry for in-place manipulation.
func (m *Map[K, V]) Entry(key K) Entry[K, V] {
	hash := m.Hash(key)
	i, ok := m.core.indexOf(hash, key)
	if !ok {
		i = m.core.len()
	}
	return Entry[K, V]{m: m, hash: hash, key: key, index: i, occupied: ok}
}

// WithEntry looks up key and passes its entry to fn.
func (m *Map[K, V]) WithEntry(key K, fn func(e Entry[K, V])) {
	fn(m.Entry(key))
}

// Key returns the entry's key.
func (e Entry[K, V]) Key() K {
	if e.occupied {
		return e.m.core.entries[e.index].key
	}
	return e.key
}

// Index returns the position of the entry, or for a vacant entry the
// position it would be inserted at.
func (e Entry[K, V]) Index() int {
	return e.index
}

// Occupied returns the entry as an OccupiedEntry if the key is present.
func (e Entry[K, V]) Occupied() (OccupiedEntry[K, V], bool) {
	return OccupiedEntry[K, V]{m: e.m, index: e.index}, e.occupied
}

// Vacant returns the entry as a VacantEntry if the key is absent.
func (e Entry[K, V]) Vacant() (VacantEntry[K, V], bool) {
	return VacantEntry[K, V]{m: e.m, hash: e.hash, key: e.key}, !e.occupied
}

// OrInsert inserts value if the key is absent and returns a pointer to the
// entry's value.
func (e Entry[K, V]) OrInsert(value V) *V {
	if e.occupied {
		return &e.m.core.entries[e.index].value
	}
	return e.insert(value)
}

// OrInsertWith inserts the result of fn if the key is absent and returns a
// pointer to the entry's value. fn is not called for an occupied entry.
func (e Entry[K, V]) OrInsertWith(fn func() V) *V {
	if e.occupied {
		return &e.m.core.entries[e.index].value
	}
	return e.insert(fn())
}

// OrInsertWithKey is like OrInsertWith but passes the key to fn.
func (e Entry[K, V]) OrInsertWithKey(fn func(key K) V) *V {
	if e.occupied {
		return &e.m.core.entries[e.index].value
	}
	return e.insert(fn(e.key))
}

// OrDefault inserts the zero value if the key is absent and returns a
// pointer to the entry's value.
func (e Entry[K, V]) OrDefault() *V {
	var zero V
	return e.OrInsert(zero)
}

// AndModify calls fn on the value of an occupied entry and returns the
// entry unchanged in shape.
func (e Entry[K, V]) AndModify(fn func(value *V)) Entry[K, V] {
	if e.occupied {
		fn(&e.m.core.entries[e.index].value)
	}
	return e
}

func (e Entry[K, V]) insert(value V) *V {
	return VacantEntry[K, V]{m: e.m, hash: e.hash, key: e.key}.Insert(value)
}

// OccupiedEntry is an Entry whose key is present in the map.
type OccupiedEntry[K comparable, V any] struct {
	m     *Map[K, V]
	index int
}

// Key returns the stored key.
func (e OccupiedEntry[K, V]) Key() K {
	return e.m.core.entries[e.index].key
}

// Index returns the position of the entry.
func (e OccupiedEntry[K, V]) Index() int {
	return e.index
}

// Get returns the entry's value.
func (e OccupiedEntry[K, V]) Get() V {
	return e.m.core.entries[e.index].value
}

// GetPtr returns a pointer to the entry's value.
func (e OccupiedEntry[K, V]) GetPtr() *V {
	return &e.m.core.entries[e.index].value
}

// Insert replaces the entry's value and returns the old one.
func (e OccupiedEntry[K, V]) Insert(value V) V {
	b := &e.m.core.entries[e.index]
	old := b.value
	b.value = value
	return old
}

// Remove is an alias for SwapRemove.
func (e OccupiedEntry[K, V]) Remove() V {
	return e.SwapRemove()
}

// RemoveEntry is an alias for SwapRemoveEntry.
func (e OccupiedEntry[K, V]) RemoveEntry() (K, V) {
	return e.SwapRemoveEntry()
}

// SwapRemove removes the entry by moving the last entry into its place
// and returns its value. Like Map.SwapRemove, this perturbs the position
// of the last entry.
func (e OccupiedEntry[K, V]) SwapRemove() V {
	_, v := e.SwapRemoveEntry()
	return v
}

// SwapRemoveEntry is like SwapRemove but also returns the stored key.
func (e OccupiedEntry[K, V]) SwapRemoveEntry() (K, V) {
	k, v, _ := e.m.core.swapRemoveIndex(e.index)
	return k, v
}

// ShiftRemove removes the entry by shifting every later entry down by one
// and returns its value.
func (e OccupiedEntry[K, V]) ShiftRemove() V {
	_, v := e.ShiftRemoveEntry()
	return v
}

// ShiftRemoveEntry is like ShiftRemove but also returns the stored key.
func (e OccupiedEntry[K, V]) ShiftRemoveEntry() (K, V) {
	k, v, _ := e.m.core.shiftRemoveIndex(e.index)
	return k, v
}

// VacantEntry is an Entry whose key is absent from the map.
type VacantEntry[K comparable, V any] struct {
	m    *Map[K, V]
	hash uint64
	key  K
}

// Key returns the key that would be inserted.
func (e VacantEntry[K, V]) Key() K {
	return e.key
}

// Index returns the position the entry would be inserted at.
func (e VacantEntry[K, V]) Index() int {
	return e.m.core.len()
}

// Insert appends the key with value and returns a pointer to the value.
func (e VacantEntry[K, V]) Insert(value V) *V {
	i := e.m.core.push(e.hash, e.key, value)
	e.m.core.checkInvariants()
	return &e.m.core.entries[i].value
}
