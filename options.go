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
	"hash/maphash"

	"github.com/cespare/xxhash/v2"
)

// option provide an interface to do work on Map while it is being created.
type option[K comparable, V any] interface {
	apply(m *Map[K, V])
}

// HashFunc hashes a key. Equal keys must produce equal hashes. The seed is
// chosen per map at construction and may be ignored by functions that want
// a deterministic hash.
type HashFunc[K comparable] func(seed maphash.Seed, key K) uint64

type hashOption[K comparable, V any] struct {
	hash HashFunc[K]
}

func (op hashOption[K, V]) apply(m *Map[K, V]) {
	m.hash = op.hash
}

// WithHash is an option to specify the hash function to use for a Map[K,V].
// The default is maphash.Comparable, keyed by a random per-map seed.
func WithHash[K comparable, V any](hash HashFunc[K]) option[K, V] {
	return hashOption[K, V]{hash}
}

// WithXXHash is an option to hash string keys with xxHash64. The hash does
// not depend on the map's seed, so iteration-independent behavior such as
// table layout is reproducible across processes.
func WithXXHash[K ~string, V any]() option[K, V] {
	return hashOption[K, V]{func(_ maphash.Seed, key K) uint64 {
		return xxhash.Sum64String(string(key))
	}}
}

// Allocator specifies an interface for allocating and releasing the memory
// used by a Map's index table. The backing sequence of entries is an
// ordinary Go slice and is not managed by the Allocator. The default
// allocator utilizes Go's builtin make() and allows the GC to reclaim
// memory.
//
// If the allocator is manually managing memory and requires that indices
// and controls be freed then Map.Close must be called in order to ensure
// FreeIndices and FreeControls are called.
type Allocator interface {
	// AllocIndices should return a slice equivalent to make([]int, n).
	AllocIndices(n int) []int

	// AllocControls should return a slice equivalent to make([]uint8, n).
	AllocControls(n int) []uint8

	// FreeIndices can optional release the memory associated with the
	// supplied slice that is guaranteed to have been allocated by
	// AllocIndices.
	FreeIndices(v []int)

	// FreeControls can optional release the memory associated with the
	// supplied slice that is guaranteed to have been allocated by
	// AllocControls.
	FreeControls(v []uint8)
}

type defaultAllocator struct{}

func (defaultAllocator) AllocIndices(n int) []int {
	return make([]int, n)
}

func (defaultAllocator) AllocControls(n int) []uint8 {
	return make([]uint8, n)
}

func (defaultAllocator) FreeIndices(v []int) {
}

func (defaultAllocator) FreeControls(v []uint8) {
}

type allocatorOption[K comparable, V any] struct {
	allocator Allocator
}

func (op allocatorOption[K, V]) apply(m *Map[K, V]) {
	m.allocator = op.allocator
}

// WithAllocator is an option for specify the Allocator to use for a Map[K,V].
func WithAllocator[K comparable, V any](allocator Allocator) option[K, V] {
	return allocatorOption[K, V]{allocator}
}
