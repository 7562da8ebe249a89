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

func makeSet(vals ...int) *Set[int] {
	return CollectSet(len(vals), slices.Values(vals))
}

func TestSetBasic(t *testing.T) {
	s := NewSet[int](0)
	require.True(t, s.IsEmpty())
	require.True(t, s.Insert(3))
	require.True(t, s.Insert(1))
	require.False(t, s.Insert(3))
	idx, inserted := s.InsertFull(2)
	require.True(t, inserted)
	require.Equal(t, 2, idx)
	idx, inserted = s.InsertFull(1)
	require.False(t, inserted)
	require.Equal(t, 1, idx)

	require.Equal(t, 3, s.Len())
	require.True(t, s.Contains(1))
	require.False(t, s.Contains(4))
	require.Equal(t, []int{3, 1, 2}, slices.Collect(s.All()))
	require.Equal(t, []int{2, 1, 3}, slices.Collect(s.Backward()))
	require.Equal(t, "{3, 1, 2}", s.String())

	v, ok := s.GetIndex(1)
	require.True(t, ok)
	require.Equal(t, 1, v)
	require.Equal(t, 2, s.At(2))
	first, _ := s.First()
	last, _ := s.Last()
	require.Equal(t, 3, first)
	require.Equal(t, 2, last)

	i, ok := s.IndexOf(2)
	require.True(t, ok)
	require.Equal(t, 2, i)

	s.Clear()
	require.True(t, s.IsEmpty())
	require.False(t, s.Contains(1))
	s.m.checkConsistent(t)
}

func TestSetRemove(t *testing.T) {
	s := makeSet(0, 1, 2, 3, 4, 5)
	require.True(t, s.Remove(1))
	require.False(t, s.Remove(1))
	require.Equal(t, []int{0, 5, 2, 3, 4}, slices.Collect(s.All()))

	require.True(t, s.ShiftRemove(0))
	require.Equal(t, []int{5, 2, 3, 4}, slices.Collect(s.All()))

	i, v, ok := s.SwapRemoveFull(5)
	require.True(t, ok)
	require.Equal(t, 0, i)
	require.Equal(t, 5, v)
	require.Equal(t, []int{4, 2, 3}, slices.Collect(s.All()))

	i, v, ok = s.ShiftRemoveFull(2)
	require.True(t, ok)
	require.Equal(t, 1, i)
	require.Equal(t, 2, v)
	require.Equal(t, []int{4, 3}, slices.Collect(s.All()))

	v, ok = s.Pop()
	require.True(t, ok)
	require.Equal(t, 3, v)
	s.m.checkConsistent(t)

	s = makeSet(0, 1, 2, 3)
	v, ok = s.SwapRemoveIndex(0)
	require.True(t, ok)
	require.Equal(t, 0, v)
	v, ok = s.ShiftRemoveIndex(0)
	require.True(t, ok)
	require.Equal(t, 3, v)
	require.Equal(t, []int{1, 2}, slices.Collect(s.All()))
	_, ok = s.ShiftRemoveIndex(2)
	require.False(t, ok)
	s.m.checkConsistent(t)
}

func TestSetReorder(t *testing.T) {
	s := makeSet(5, 3, 9, 1, 7)
	SortSet(s)
	require.Equal(t, []int{1, 3, 5, 7, 9}, slices.Collect(s.All()))
	s.Reverse()
	require.Equal(t, []int{9, 7, 5, 3, 1}, slices.Collect(s.All()))
	s.SwapIndices(0, 4)
	require.Equal(t, []int{1, 7, 5, 3, 9}, slices.Collect(s.All()))
	s.SortBy(func(a, b int) int { return b - a })
	require.Equal(t, []int{9, 7, 5, 3, 1}, slices.Collect(s.All()))
	s.Retain(func(v int) bool { return v > 4 })
	require.Equal(t, []int{9, 7, 5}, slices.Collect(s.All()))
	s.Truncate(2)
	require.Equal(t, []int{9, 7}, slices.Collect(s.All()))
	s.m.checkConsistent(t)
}

func TestSetDrainSplit(t *testing.T) {
	s := makeSet(0, 1, 2, 3, 4, 5, 6)
	require.Equal(t, []int{2, 3}, s.Drain(2, 4))
	require.Equal(t, []int{0, 1, 4, 5, 6}, slices.Collect(s.All()))

	other := s.SplitOff(3)
	require.Equal(t, []int{0, 1, 4}, slices.Collect(s.All()))
	require.Equal(t, []int{5, 6}, slices.Collect(other.All()))
	s.m.checkConsistent(t)
	other.m.checkConsistent(t)

	c := s.Clone()
	c.Insert(10)
	require.False(t, s.Contains(10))
	require.True(t, c.Contains(10))

	s.Extend(4, slices.Values([]int{4, 8, 0, 9}))
	require.Equal(t, []int{0, 1, 4, 8, 9}, slices.Collect(s.All()))
	s.Reserve(100)
	require.GreaterOrEqual(t, s.Capacity(), 100)
}

func TestSetAlgebra(t *testing.T) {
	a := makeSet(1, 2, 3, 4)
	b := makeSet(6, 4, 5, 3)

	require.Equal(t, []int{1, 2}, slices.Collect(a.Difference(b)))
	require.Equal(t, []int{6, 5}, slices.Collect(b.Difference(a)))
	require.Equal(t, []int{1, 2, 6, 5}, slices.Collect(a.SymmetricDifference(b)))
	require.Equal(t, []int{3, 4}, slices.Collect(a.Intersection(b)))
	require.Equal(t, []int{4, 3}, slices.Collect(b.Intersection(a)))
	require.Equal(t, []int{1, 2, 3, 4, 6, 5}, slices.Collect(a.Union(b)))

	require.False(t, a.IsDisjoint(b))
	require.True(t, a.IsDisjoint(makeSet(7, 8)))
	require.True(t, makeSet().IsDisjoint(a))

	require.True(t, makeSet(2, 1).IsSubset(a))
	require.False(t, makeSet(2, 5).IsSubset(a))
	require.False(t, a.IsSubset(makeSet(1)))
	require.True(t, a.IsSuperset(makeSet(4, 1)))
	require.True(t, a.IsSuperset(makeSet()))

	require.True(t, SetEqual(a, makeSet(4, 3, 2, 1)))
	require.False(t, SetEqual(a, b))
	require.False(t, SetEqual(a, makeSet(1, 2, 3)))

	// Early termination.
	for range a.Union(b) {
		break
	}
}

func TestSetGetReplaceTake(t *testing.T) {
	type item struct {
		id   int
		name string
	}
	s := NewSet[item](0)
	s.Insert(item{1, "a"})
	s.Insert(item{2, "b"})

	v, ok := s.Get(item{2, "b"})
	require.True(t, ok)
	require.Equal(t, item{2, "b"}, v)
	_, ok = s.Get(item{3, "c"})
	require.False(t, ok)

	i, v, ok := s.GetFull(item{1, "a"})
	require.True(t, ok)
	require.Equal(t, 0, i)
	require.Equal(t, item{1, "a"}, v)

	old, replaced := s.Replace(item{1, "a"})
	require.True(t, replaced)
	require.Equal(t, item{1, "a"}, old)
	_, replaced = s.Replace(item{3, "c"})
	require.False(t, replaced)
	require.Equal(t, []item{{1, "a"}, {2, "b"}, {3, "c"}}, slices.Collect(s.All()))
	s.m.checkConsistent(t)

	v, ok = s.Take(item{1, "a"})
	require.True(t, ok)
	require.Equal(t, item{1, "a"}, v)
	require.Equal(t, []item{{3, "c"}, {2, "b"}}, slices.Collect(s.All()))

	s.Insert(item{4, "d"})
	v, ok = s.ShiftTake(item{3, "c"})
	require.True(t, ok)
	require.Equal(t, item{3, "c"}, v)
	require.Equal(t, []item{{2, "b"}, {4, "d"}}, slices.Collect(s.All()))

	_, ok = s.SwapTake(item{3, "c"})
	require.False(t, ok)
	s.m.checkConsistent(t)
}

func TestSetSortedByShrink(t *testing.T) {
	s := makeSet(4, 2, 3, 1)
	require.Equal(t, []int{4, 3, 2, 1}, slices.Collect(s.SortedBy(func(a, b int) int { return b - a })))
	require.True(t, s.IsEmpty())

	s = NewSet[int](100)
	for i := 0; i < 10; i++ {
		s.Insert(i)
	}
	s.ShrinkToFit()
	require.GreaterOrEqual(t, s.Capacity(), 10)
	require.Less(t, s.Capacity(), 100)
	s.m.checkConsistent(t)
}
