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

import "hash/maphash"

// Equivalent is implemented by lookup keys that can find a stored key of
// type K without constructing one. Hash must return the same value as the
// map's HashFunc for every key the lookup key is equivalent to.
type Equivalent[K any] interface {
	Hash(seed maphash.Seed) uint64
	Equivalent(key K) bool
}

// GetEquivalent returns the value for the key equivalent to q.
func GetEquivalent[K comparable, V any, Q Equivalent[K]](m *Map[K, V], q Q) (v V, ok bool) {
	if i, ok := IndexOfEquivalent(m, q); ok {
		return m.core.entries[i].value, true
	}
	return v, false
}

// IndexOfEquivalent returns the position of the key equivalent to q.
func IndexOfEquivalent[K comparable, V any, Q Equivalent[K]](m *Map[K, V], q Q) (int, bool) {
	return m.core.indexOfFunc(q.Hash(m.seed), m.core.eqFunc(q.Equivalent))
}

// SwapRemoveEquivalent removes the key equivalent to q like Map.SwapRemoveFull.
func SwapRemoveEquivalent[K comparable, V any, Q Equivalent[K]](
	m *Map[K, V], q Q,
) (index int, k K, v V, ok bool) {
	return m.core.swapRemoveFunc(q.Hash(m.seed), m.core.eqFunc(q.Equivalent))
}

// ShiftRemoveEquivalent removes the key equivalent to q like
// Map.ShiftRemoveFull.
func ShiftRemoveEquivalent[K comparable, V any, Q Equivalent[K]](
	m *Map[K, V], q Q,
) (index int, k K, v V, ok bool) {
	return m.core.shiftRemoveFunc(q.Hash(m.seed), m.core.eqFunc(q.Equivalent))
}
