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
	"math/rand"
	"slices"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestLittleEndian(t *testing.T) {
	// The implementation of group h2 matching and group empty and deleted
	// masking assumes a little endian CPU architecture. Assert that we are
	// running on one.
	b := []uint8{0x1, 0x2, 0x3, 0x4}
	v := *(*uint32)(unsafe.Pointer(&b[0]))
	require.EqualValues(t, 0x04030201, v)
}

func TestProbeSeq(t *testing.T) {
	genSeq := func(n int, hash, mask uintptr) []uintptr {
		seq := makeProbeSeq(hash, mask)
		vals := make([]uintptr, n)
		for i := 0; i < n; i++ {
			vals[i] = seq.offset
			seq = seq.next()
		}
		return vals
	}

	// With a single-slot stride every group start in a 128 slot table is
	// visited exactly once.
	expected := []uintptr{0, 8, 24, 48, 80, 120, 40, 96, 32, 104, 56, 16, 112, 88, 72, 64}
	require.Equal(t, expected, genSeq(16, 0, 127))
	require.Equal(t, expected, genSeq(16, 128, 127))

	// Verify that we touch all of the groups no matter what our start offset
	// within the group is.
	for i := uintptr(0); i < 8; i++ {
		vals := genSeq(16, i, 127)
		for j := range vals {
			vals[j] = ((vals[j] - i) & 127) / groupSize
		}
		slices.Sort(vals)
		for j := range vals {
			require.EqualValues(t, j, vals[j])
		}
	}
}

func TestMatchH2(t *testing.T) {
	ctrls := []ctrl{0x1, 0x2, 0x3, 0x4, 0x5, 0x6, 0x7, 0x8}
	for i := uintptr(1); i <= 8; i++ {
		match := unsafeCtrlGroup(ctrls).matchH2(i)
		bit := match.first()
		require.EqualValues(t, i-1, bit)
	}
}

func TestMatchEmpty(t *testing.T) {
	testCases := []struct {
		ctrls    []ctrl
		expected []uintptr
	}{
		{[]ctrl{0x1, 0x2, 0x3, 0x4, 0x5, 0x6, 0x7, 0x8}, nil},
		{[]ctrl{0x1, 0x2, 0x3, ctrlEmpty, 0x5, ctrlDeleted, 0x7, ctrlSentinel}, []uintptr{3}},
		{[]ctrl{0x1, 0x2, 0x3, ctrlEmpty, 0x5, 0x6, ctrlEmpty, 0x8}, []uintptr{3, 6}},
	}
	for _, c := range testCases {
		t.Run("", func(t *testing.T) {
			match := unsafeCtrlGroup(c.ctrls).matchEmpty()
			var results []uintptr
			for match != 0 {
				idx := match.first()
				results = append(results, idx)
				match = match.remove(idx)
			}
			require.Equal(t, c.expected, results)
		})
	}
}

func TestMatchEmptyOrDeleted(t *testing.T) {
	testCases := []struct {
		ctrls    []ctrl
		expected []uintptr
	}{
		{[]ctrl{0x1, 0x2, 0x3, 0x4, 0x5, 0x6, 0x7, 0x8}, nil},
		{[]ctrl{0x1, 0x2, ctrlEmpty, ctrlDeleted, 0x5, 0x6, 0x7, ctrlSentinel}, []uintptr{2, 3}},
	}
	for _, c := range testCases {
		t.Run("", func(t *testing.T) {
			match := unsafeCtrlGroup(c.ctrls).matchEmptyOrDeleted()
			var results []uintptr
			for match != 0 {
				idx := match.first()
				results = append(results, idx)
				match = match.remove(idx)
			}
			require.Equal(t, c.expected, results)
		})
	}
}

func TestConvertNonFullToEmptyAndFullToDeleted(t *testing.T) {
	ctrls := make([]ctrl, groupSize)
	expected := make([]ctrl, groupSize)
	for i := 0; i < 100; i++ {
		for j := 0; j < groupSize; j++ {
			switch rand.Intn(4) {
			case 0: // 25% empty
				ctrls[j] = ctrlEmpty
				expected[j] = ctrlEmpty
			case 1: // 25% deleted
				ctrls[j] = ctrlDeleted
				expected[j] = ctrlEmpty
			case 2: // 25% sentinel
				ctrls[j] = ctrlSentinel
				expected[j] = ctrlEmpty
			default: // 25% full
				ctrls[j] = ctrl(rand.Intn(127))
				expected[j] = ctrlDeleted
			}
		}

		unsafeCtrlGroup(ctrls).convertNonFullToEmptyAndFullToDeleted()
		require.EqualValues(t, expected, ctrls)
	}
}

func TestBitsetString(t *testing.T) {
	var b bitset
	b |= 0x80 << (1 * 8)
	b |= 0x80 << (6 * 8)
	require.Equal(t, "01000010", b.String())
	require.EqualValues(t, 1, b.first())
	require.Equal(t, "00000010", b.remove(1).String())
}

func TestCapacityFor(t *testing.T) {
	testCases := []struct {
		n        int
		expected uintptr
	}{
		{0, 0},
		{1, 7},
		{6, 7},
		{7, 15},
		{13, 15},
		{14, 31},
		{895, 1023},
		{896, 2047},
	}
	for _, c := range testCases {
		require.EqualValues(t, c.expected, capacityFor(c.n), "n=%d", c.n)
		require.GreaterOrEqual(t, maxGrowth(capacityFor(c.n)), c.n)
	}
}

// testTable pairs an indexTable with a slice of hashes standing in for the
// backing sequence.
type testTable struct {
	t      indexTable
	hashes []uint64
}

func (tt *testTable) hashAt(i int) uint64 {
	return tt.hashes[i]
}

func (tt *testTable) push(hash uint64) {
	tt.t.insert(hash, len(tt.hashes), tt.hashAt)
	tt.hashes = append(tt.hashes, hash)
}

func (tt *testTable) check(t *testing.T) {
	t.Helper()
	for i, h := range tt.hashes {
		slot := tt.t.findIndex(h, i)
		require.Equal(t, i, tt.t.at(slot))
	}
	require.Equal(t, len(tt.hashes), tt.t.used)
}

func TestIndexTableInsertErase(t *testing.T) {
	for _, degenerate := range []bool{false, true} {
		tt := &testTable{}
		tt.t.init(defaultAllocator{})
		for i := 0; i < 500; i++ {
			h := rand.Uint64()
			if degenerate {
				h = 0x1234
			}
			tt.push(h)
		}
		tt.check(t)

		// Erase from the end so positions stay dense.
		for len(tt.hashes) > 250 {
			last := len(tt.hashes) - 1
			tt.t.erase(tt.t.findIndex(tt.hashes[last], last))
			tt.hashes = tt.hashes[:last]
		}
		tt.check(t)

		tt.t.rebuild(len(tt.hashes), tt.hashAt)
		tt.check(t)

		tt.t.shrinkTo(len(tt.hashes), tt.hashAt)
		require.EqualValues(t, capacityFor(len(tt.hashes)), tt.t.capacity)
		tt.check(t)
	}
}

func TestIndexTableRehashInPlace(t *testing.T) {
	tt := &testTable{}
	tt.t.init(defaultAllocator{})
	for i := 0; i < 100; i++ {
		tt.push(rand.Uint64())
	}

	// Churn the tail of the sequence to accumulate tombstones.
	for i := 0; i < 1000; i++ {
		last := len(tt.hashes) - 1
		tt.t.erase(tt.t.findIndex(tt.hashes[last], last))
		tt.hashes = tt.hashes[:last]
		tt.push(rand.Uint64())
	}
	tt.check(t)

	tt.t.rehashInPlace(tt.hashAt)
	tt.check(t)
	require.Equal(t, maxGrowth(tt.t.capacity)-tt.t.used, tt.t.growthLeft)
}
