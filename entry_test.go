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
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEntryOrInsert(t *testing.T) {
	m := New[string, int](0)
	e := m.Entry("a")
	require.Equal(t, "a", e.Key())
	require.Equal(t, 0, e.Index())
	_, ok := e.Occupied()
	require.False(t, ok)
	*e.OrInsert(1) += 10
	require.Equal(t, 11, m.MustGet("a"))

	e = m.Entry("a")
	require.Equal(t, 0, e.Index())
	require.Equal(t, 11, *e.OrInsert(5))

	e = m.Entry("b")
	require.Equal(t, 1, e.Index())
	require.Equal(t, 0, *e.OrDefault())
	require.Equal(t, []string{"a", "b"}, slices.Collect(m.Keys()))
	m.checkConsistent(t)
}

func TestEntryOrInsertWith(t *testing.T) {
	m := New[string, int](0)
	calls := 0
	fn := func() int {
		calls++
		return 7
	}
	require.Equal(t, 7, *m.Entry("x").OrInsertWith(fn))
	require.Equal(t, 7, *m.Entry("x").OrInsertWith(fn))
	require.Equal(t, 1, calls)

	v := m.Entry("hello").OrInsertWithKey(func(k string) int { return len(k) })
	require.Equal(t, 5, *v)
	m.checkConsistent(t)
}

func TestEntryAndModify(t *testing.T) {
	m := New[string, int](0)
	words := []string{"b", "a", "b", "c", "b", "a"}
	for _, w := range words {
		m.Entry(w).AndModify(func(v *int) { *v++ }).OrInsert(1)
	}
	require.Equal(t, []pair[string, int]{{"b", 3}, {"a", 2}, {"c", 1}}, m.toPairs())
}

func TestOccupiedEntry(t *testing.T) {
	m := New[int, string](0)
	for i := 0; i < 5; i++ {
		m.Insert(i, string(rune('a'+i)))
	}

	o, ok := m.Entry(2).Occupied()
	require.True(t, ok)
	require.Equal(t, 2, o.Key())
	require.Equal(t, 2, o.Index())
	require.Equal(t, "c", o.Get())
	*o.GetPtr() = "C"
	require.Equal(t, "C", o.Insert("cc"))
	require.Equal(t, "cc", m.MustGet(2))

	_, ok = m.Entry(2).Vacant()
	require.False(t, ok)

	require.Equal(t, "cc", o.ShiftRemove())
	require.Equal(t, []int{0, 1, 3, 4}, slices.Collect(m.Keys()))
	m.checkConsistent(t)

	o, _ = m.Entry(0).Occupied()
	k, v := o.SwapRemoveEntry()
	require.Equal(t, 0, k)
	require.Equal(t, "a", v)
	require.Equal(t, []int{4, 1, 3}, slices.Collect(m.Keys()))
	m.checkConsistent(t)

	o, _ = m.Entry(1).Occupied()
	require.Equal(t, "b", o.Remove())
	require.Equal(t, []int{4, 3}, slices.Collect(m.Keys()))

	o, _ = m.Entry(4).Occupied()
	k, v = o.ShiftRemoveEntry()
	require.Equal(t, 4, k)
	require.Equal(t, "e", v)
	require.Equal(t, []int{3}, slices.Collect(m.Keys()))
	m.checkConsistent(t)
}

func TestVacantEntry(t *testing.T) {
	m := New[int, int](0)
	m.Insert(1, 1)
	vac, ok := m.Entry(2).Vacant()
	require.True(t, ok)
	require.Equal(t, 2, vac.Key())
	require.Equal(t, 1, vac.Index())
	p := vac.Insert(20)
	*p++
	require.Equal(t, 21, m.MustGet(2))
	idx, _ := m.IndexOf(2)
	require.Equal(t, 1, idx)
	m.checkConsistent(t)
}

func TestWithEntry(t *testing.T) {
	m := New[int, int](0)
	for i := 0; i < 3; i++ {
		m.WithEntry(i%2, func(e Entry[int, int]) {
			if o, ok := e.Occupied(); ok {
				o.Insert(o.Get() + 1)
				return
			}
			e.OrInsert(100)
		})
	}
	require.Equal(t, []pair[int, int]{{0, 101}, {1, 100}}, m.toPairs())
}

func TestEntryDegenerate(t *testing.T) {
	m := New[int, int](0, WithHash[int, int](constantHash[int](42)))
	for i := 0; i < 50; i++ {
		*m.Entry(i % 10).OrDefault() += i
	}
	require.Equal(t, 10, m.Len())
	for i := 0; i < 10; i++ {
		require.Equal(t, 5*i+100, m.MustGet(i))
	}
	m.checkConsistent(t)
}
