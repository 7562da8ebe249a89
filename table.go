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
	"math/bits"
	"strings"
)

const debug = false

// indexTable is a Swiss table whose slots hold positions into the backing
// sequence of a core rather than keys and values. Keys are never stored
// here: probing resolves an H2 match by asking the caller whether the entry
// at the stored position is the one being looked for, and growth recomputes
// slot placement from the hashes cached alongside each entry.
//
// The layout follows Abseil's flat_hash_map: capacity is always 2^N-1,
// there are capacity+groupSize control bytes, ctrls[capacity] is a
// sentinel and the trailing groupSize-1 control bytes mirror the first
// groupSize-1 so that a group load near the end of the table never needs a
// wrap-around check.
type indexTable struct {
	// ctrls is capacity+groupSize in length. When the table is empty, ctrls
	// points to emptyCtrls which is never modified.
	ctrls unsafeSlice[ctrl]
	// slots is capacity in length. Each full slot holds a position in the
	// backing sequence.
	slots unsafeSlice[int]
	// The total number of slots (always 2^N-1 or 0). The capacity is used
	// as a mask to quickly compute i%N using a bitwise & operation.
	capacity uintptr
	// The number of full slots.
	used int
	// The number of slots we can still fill without needing to rehash.
	// Tombstones are not counted so that a table filled with tombstones
	// still triggers a rehash.
	growthLeft int
	allocator  Allocator
}

var emptyCtrls = func() []ctrl {
	v := make([]ctrl, groupSize)
	for i := range v {
		v[i] = ctrlEmpty
	}
	return v
}()

// hashAtFn returns the cached hash of the entry at position i of the
// backing sequence.
type hashAtFn func(i int) uint64

func (t *indexTable) init(allocator Allocator) {
	*t = indexTable{
		ctrls:     makeUnsafeSlice(emptyCtrls),
		allocator: allocator,
	}
}

// growthCapacity returns the number of positions the table can hold
// without growing.
func (t *indexTable) growthCapacity() int {
	return t.used + t.growthLeft
}

// find returns the slot holding the position for which eq returns true.
func (t *indexTable) find(hash uint64, eq func(i int) bool) (uintptr, bool) {
	seq := makeProbeSeq(h1(hash), t.capacity)
	if debug {
		fmt.Printf("find(%016x): %s\n", hash, seq)
	}

	for ; ; seq = seq.next() {
		g := ctrlGroup{p: t.ctrls.At(seq.offset)}
		match := g.matchH2(h2(hash))

		for match != 0 {
			bit := match.first()
			slot := seq.offsetAt(bit)
			if debug {
				fmt.Printf("find(checking): slot=%d  index=%d\n", slot, *t.slots.At(slot))
			}
			if eq(*t.slots.At(slot)) {
				return slot, true
			}
			match = match.remove(bit)
		}

		if g.matchEmpty() != 0 {
			if debug {
				fmt.Printf("find(not-found): offset=%d\n", seq.offset)
			}
			return 0, false
		}
	}
}

// findIndex returns the slot holding position i. The association must
// exist: a missing one means the table and the backing sequence have
// diverged.
func (t *indexTable) findIndex(hash uint64, i int) uintptr {
	slot, ok := t.find(hash, func(j int) bool { return j == i })
	if !ok {
		panic(fmt.Sprintf("index %d not found in table [h1=%x h2=%02x]\n%s",
			i, h1(hash), h2(hash), t.debugString()))
	}
	return slot
}

// at returns the position stored in a full slot.
func (t *indexTable) at(slot uintptr) int {
	return *t.slots.At(slot)
}

// set rewrites the position stored in a full slot. The hash of the entry
// at the new position must be the hash the slot was placed with.
func (t *indexTable) set(slot uintptr, i int) {
	*t.slots.At(slot) = i
}

// insert adds an association for position i, which must not already be
// present. The table grows or rehashes in place if it is out of room.
func (t *indexTable) insert(hash uint64, i int, hashAt hashAtFn) uintptr {
	if t.growthLeft == 0 {
		t.rehash(hashAt)
	}
	slot := t.uncheckedPut(hash, i)
	t.used++
	return slot
}

// erase removes the association in slot.
func (t *indexTable) erase(slot uintptr) {
	t.used--
	*t.slots.At(slot) = 0

	// Given a slot to delete we mark its ctrl as deleted. If we can prove
	// that the slot would not appear in a probe sequence we can mark the
	// slot as empty instead, which also gives the slot back to growthLeft.
	if t.wasNeverFull(slot) {
		t.setCtrl(slot, ctrlEmpty)
		t.growthLeft++
	} else {
		t.setCtrl(slot, ctrlDeleted)
	}
	if debug {
		fmt.Printf("erase: slot=%d used=%d growth-left=%d\n", slot, t.used, t.growthLeft)
	}
}

// forEach calls fn for every full slot with a pointer to the position it
// stores. fn may rewrite the position or erase the slot.
func (t *indexTable) forEach(fn func(slot uintptr, i *int)) {
	for slot := uintptr(0); slot < t.capacity; slot++ {
		if *t.ctrls.At(slot)&ctrlEmpty == 0 {
			fn(slot, t.slots.At(slot))
		}
	}
}

// clear removes every association while keeping the allocation.
func (t *indexTable) clear() {
	if t.capacity == 0 {
		return
	}
	ctrls := t.ctrls.Slice(0, t.capacity+groupSize)
	for i := range ctrls {
		ctrls[i] = ctrlEmpty
	}
	*t.ctrls.At(t.capacity) = ctrlSentinel
	t.used = 0
	t.growthLeft = maxGrowth(t.capacity)
}

// rebuild discards every association and inserts positions [0, n).
func (t *indexTable) rebuild(n int, hashAt hashAtFn) {
	t.clear()
	t.reserve(n, hashAt)
	for i := 0; i < n; i++ {
		t.uncheckedPut(hashAt(i), i)
	}
	t.used = n
}

// reserve makes room for at least additional more associations. On return
// growthLeft >= additional.
func (t *indexTable) reserve(additional int, hashAt hashAtFn) {
	if additional <= t.growthLeft {
		return
	}
	if c := capacityFor(t.used + additional); c > t.capacity {
		t.resize(c, hashAt)
		return
	}
	// The capacity suffices but tombstones are holding the growth back.
	t.rehashInPlace(hashAt)
}

// shrinkTo lowers the capacity as much as possible while leaving room for
// at least n associations.
func (t *indexTable) shrinkTo(n int, hashAt hashAtFn) {
	if n < t.used {
		n = t.used
	}
	if n == 0 {
		t.release()
		return
	}
	if c := capacityFor(n); c < t.capacity {
		t.resize(c, hashAt)
	}
}

// release returns the table memory to the allocator and leaves the table
// empty with zero capacity.
func (t *indexTable) release() {
	if t.capacity > 0 {
		t.allocator.FreeIndices(t.slots.Slice(0, t.capacity))
		t.allocator.FreeControls(unsafeConvertSlice[uint8](t.ctrls.Slice(0, t.capacity+groupSize)))
	}
	t.init(t.allocator)
}

// clone returns an identical table with its own allocation.
func (t *indexTable) clone() indexTable {
	c := *t
	if t.capacity == 0 {
		return c
	}
	slots := t.allocator.AllocIndices(int(t.capacity))
	copy(slots, t.slots.Slice(0, t.capacity))
	ctrls := t.allocator.AllocControls(int(t.capacity + groupSize))
	copy(ctrls, unsafeConvertSlice[uint8](t.ctrls.Slice(0, t.capacity+groupSize)))
	c.slots = makeUnsafeSlice(slots)
	c.ctrls = makeUnsafeSlice(unsafeConvertSlice[ctrl](ctrls))
	return c
}

// maxGrowth returns the number of slots a table of the given capacity can
// fill before it must be rehashed.
func maxGrowth(capacity uintptr) int {
	if capacity < groupSize {
		// If the table fits in a single group then we're able to fill all of
		// the slots except 1 (an empty slot is needed to terminate find
		// operations).
		if capacity == 0 {
			return 0
		}
		return int(capacity - 1)
	}
	return int((capacity * maxAvgGroupLoad) / groupSize)
}

// capacityFor returns the smallest capacity of the form 2^k-1 that can
// hold n associations without growing.
func capacityFor(n int) uintptr {
	if n <= 0 {
		return 0
	}
	c := (uintptr(1) << bits.Len(uint(n))) - 1
	if c < groupSize-1 {
		c = groupSize - 1
	}
	for maxGrowth(c) < n {
		c = 2*c + 1
	}
	return c
}

// setCtrl sets the control byte at index i, taking care to mirror the byte to
// the end of the control bytes slice if i<groupSize.
func (t *indexTable) setCtrl(i uintptr, v ctrl) {
	*t.ctrls.At(i) = v
	// Mirror the first groupSize control state to the end of the ctrls slice.
	// We do this unconditionally which is faster than performing a comparison
	// to do it only for the first groupSize slots. Note that the index will
	// be the identity for slots in the range [groupSize,capacity).
	*t.ctrls.At(((i - (groupSize - 1)) & t.capacity) + (groupSize - 1)) = v
}

// wasNeverFull returns true if index i was never part a full group. This
// check allows an optimization during deletion whereby a deleted slot can be
// converted to empty rather than a tombstone.
func (t *indexTable) wasNeverFull(i uintptr) bool {
	if t.capacity < groupSize {
		// The table fits entirely in a single group so we will never probe
		// beyond this group.
		return true
	}

	indexBefore := (i - groupSize) & t.capacity
	emptyAfter := ctrlGroup{p: t.ctrls.At(i)}.matchEmpty()
	emptyBefore := ctrlGroup{p: t.ctrls.At(indexBefore)}.matchEmpty()

	// We count how many consecutive non empties we have to the right and to
	// the left of i. If the sum is >= groupSize then there is at least one
	// probe window that might have seen a full group.
	if emptyBefore != 0 && emptyAfter != 0 &&
		((bits.TrailingZeros64(uint64(emptyAfter))>>3)+
			(bits.LeadingZeros64(uint64(emptyBefore))>>3)) < groupSize {
		return true
	}
	return false
}

// uncheckedPut stores position i in the first empty or deleted slot of
// the probe sequence for hash. The position must not already be present.
func (t *indexTable) uncheckedPut(hash uint64, i int) uintptr {
	seq := makeProbeSeq(h1(hash), t.capacity)
	for ; ; seq = seq.next() {
		g := ctrlGroup{p: t.ctrls.At(seq.offset)}
		match := g.matchEmptyOrDeleted()
		if match != 0 {
			slot := seq.offsetAt(match.first())
			*t.slots.At(slot) = i
			if *t.ctrls.At(slot) == ctrlEmpty {
				t.growthLeft--
			}
			t.setCtrl(slot, ctrl(h2(hash)))
			if debug {
				fmt.Printf("put(inserting): slot=%d index=%d growth-left=%d\n", slot, i, t.growthLeft)
			}
			return slot
		}
	}
}

func (t *indexTable) rehash(hashAt hashAtFn) {
	// Rehash in place if we can recover >= 1/3 of the capacity. The
	// number of tombstones is capacity*7/8 - used - growthLeft and
	// growthLeft is zero here.
	recoverable := (t.capacity*maxAvgGroupLoad)/groupSize - uintptr(t.used)
	if t.capacity > groupSize && recoverable >= t.capacity/3 {
		t.rehashInPlace(hashAt)
	} else {
		t.resize(2*t.capacity+1, hashAt)
	}
}

// resize allocates a table of newCapacity slots and re-places every
// position using its cached hash. Positions are unchanged by a resize.
func (t *indexTable) resize(newCapacity uintptr, hashAt hashAtFn) {
	if (1 + newCapacity) < groupSize {
		newCapacity = groupSize - 1
	}

	oldCtrls, oldSlots, oldCapacity := t.ctrls, t.slots, t.capacity
	t.slots = makeUnsafeSlice(t.allocator.AllocIndices(int(newCapacity)))
	t.ctrls = makeUnsafeSlice(unsafeConvertSlice[ctrl](
		t.allocator.AllocControls(int(newCapacity + groupSize))))
	t.capacity = newCapacity
	t.clear()

	if debug {
		fmt.Printf("resize: capacity=%d->%d  growth-left=%d\n",
			oldCapacity, newCapacity, t.growthLeft)
	}

	for i := uintptr(0); i < oldCapacity; i++ {
		if *oldCtrls.At(i)&ctrlEmpty != 0 {
			continue
		}
		idx := *oldSlots.At(i)
		t.uncheckedPut(hashAt(idx), idx)
		t.used++
	}

	if oldCapacity > 0 {
		t.allocator.FreeIndices(oldSlots.Slice(0, oldCapacity))
		t.allocator.FreeControls(unsafeConvertSlice[uint8](oldCtrls.Slice(0, oldCapacity+groupSize)))
	}
}

func (t *indexTable) rehashInPlace(hashAt hashAtFn) {
	if debug {
		fmt.Printf("rehash: %d/%d\n", t.used, t.capacity)
	}

	// We want to drop all of the deletes in place. We first walk over the
	// control bytes and mark every DELETED slot as EMPTY and every FULL slot
	// as DELETED. Marking the DELETED slots as EMPTY has effectively dropped
	// the tombstones, but we fouled up the probe invariant. Marking the FULL
	// slots as DELETED gives us a marker to locate the previously FULL slots.
	for i := uintptr(0); i < t.capacity; i += groupSize {
		ctrlGroup{p: t.ctrls.At(i)}.convertNonFullToEmptyAndFullToDeleted()
	}

	// Fixup the cloned control bytes and the sentinel.
	for i, n := uintptr(0), uintptr(groupSize-1); i < n; i++ {
		*t.ctrls.At(((i - (groupSize - 1)) & t.capacity) + (groupSize - 1)) = *t.ctrls.At(i)
	}
	*t.ctrls.At(t.capacity) = ctrlSentinel

	// Now we walk over all of the DELETED slots (a.k.a. the previously FULL
	// slots). For each slot we find the first probe group we can place the
	// position in which reestablishes the probe invariant. As this loop
	// proceeds there are no DELETED slots in the range [0, i).
	for i := uintptr(0); i < t.capacity; i++ {
		if *t.ctrls.At(i) != ctrlDeleted {
			continue
		}

		s := t.slots.At(i)
		h := hashAt(*s)
		seq := makeProbeSeq(h1(h), t.capacity)
		desired := seq

		probeIndex := func(pos uintptr) uintptr {
			return ((pos - desired.offset) & t.capacity) / groupSize
		}

		var target uintptr
		for ; ; seq = seq.next() {
			g := ctrlGroup{p: t.ctrls.At(seq.offset)}
			if match := g.matchEmptyOrDeleted(); match != 0 {
				target = seq.offsetAt(match.first())
				break
			}
		}

		if i == target || probeIndex(i) == probeIndex(target) {
			// The target falls within the first probe group so the position
			// already sits in its best probe location.
			t.setCtrl(i, ctrl(h2(h)))
			continue
		}

		switch *t.ctrls.At(target) {
		case ctrlEmpty:
			// Transfer the position to the empty slot and mark the slot at
			// index i as empty.
			t.setCtrl(target, ctrl(h2(h)))
			*t.slots.At(target) = *s
			*s = 0
			t.setCtrl(i, ctrlEmpty)
		case ctrlDeleted:
			// The slot at target holds a position that still needs placing.
			// Swap the two and reprocess index i.
			t.setCtrl(target, ctrl(h2(h)))
			p := t.slots.At(target)
			*s, *p = *p, *s
			i--
		default:
			panic(fmt.Sprintf("ctrl at position %d (%02x) should be empty or deleted",
				target, *t.ctrls.At(target)))
		}
	}

	t.growthLeft = maxGrowth(t.capacity) - t.used
}

// checkInvariants verifies the table against a backing sequence of n
// entries. It is a no-op unless built with the invariants tag.
func (t *indexTable) checkInvariants(n int, hashAt hashAtFn) {
	if !invariants {
		return
	}
	if t.capacity > 0 {
		// Verify the cloned control bytes are good.
		for i, m := uintptr(0), uintptr(groupSize-1); i < m; i++ {
			j := ((i - (groupSize - 1)) & t.capacity) + (groupSize - 1)
			if ci, cj := *t.ctrls.At(i), *t.ctrls.At(j); ci != cj {
				panic(fmt.Sprintf("invariant failed: ctrl(%d)=%02x != ctrl(%d)=%02x\n%s",
					i, ci, j, cj, t.debugString()))
			}
		}
		// Verify the sentinel is good.
		if c := *t.ctrls.At(t.capacity); c != ctrlSentinel {
			panic(fmt.Sprintf("invariant failed: ctrl(%d): expected sentinel, but found %02x\n%s",
				t.capacity, c, t.debugString()))
		}
	}

	var used, deleted int
	seen := make([]bool, n)
	for slot := uintptr(0); slot < t.capacity; slot++ {
		switch c := *t.ctrls.At(slot); c {
		case ctrlDeleted:
			deleted++
		case ctrlEmpty:
		case ctrlSentinel:
			panic(fmt.Sprintf("invariant failed: ctrl(%d): unexpected sentinel", slot))
		default:
			i := *t.slots.At(slot)
			if i < 0 || i >= n {
				panic(fmt.Sprintf("invariant failed: slot(%d): index %d out of range [0,%d)\n%s",
					slot, i, n, t.debugString()))
			}
			if seen[i] {
				panic(fmt.Sprintf("invariant failed: slot(%d): index %d referenced twice\n%s",
					slot, i, t.debugString()))
			}
			seen[i] = true
			h := hashAt(i)
			if uintptr(c) != h2(h) {
				panic(fmt.Sprintf("invariant failed: slot(%d): ctrl=%02x but h2=%02x", slot, c, h2(h)))
			}
			if found := t.findIndex(h, i); found != slot {
				panic(fmt.Sprintf("invariant failed: index %d found at slot %d, stored at %d", i, found, slot))
			}
			used++
		}
	}

	if used != t.used || used != n {
		panic(fmt.Sprintf("invariant failed: found %d used slots, but used count is %d and len is %d\n%s",
			used, t.used, n, t.debugString()))
	}
	if t.capacity > 0 {
		growthLeft := maxGrowth(t.capacity) - t.used - deleted
		if growthLeft != t.growthLeft {
			panic(fmt.Sprintf("invariant failed: found %d growthLeft, but expected %d\n%s",
				t.growthLeft, growthLeft, t.debugString()))
		}
	}
}

func (t *indexTable) debugString() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "capacity=%d  used=%d  growth-left=%d\n", t.capacity, t.used, t.growthLeft)
	if t.capacity == 0 {
		return buf.String()
	}
	for i := uintptr(0); i < t.capacity+groupSize; i++ {
		switch c := *t.ctrls.At(i); c {
		case ctrlEmpty:
			fmt.Fprintf(&buf, "  %4d: empty\n", i)
		case ctrlDeleted:
			fmt.Fprintf(&buf, "  %4d: deleted\n", i)
		case ctrlSentinel:
			fmt.Fprintf(&buf, "  %4d: sentinel\n", i)
		default:
			if i < t.capacity {
				fmt.Fprintf(&buf, "  %4d: index=%d [ctrl=%02x]\n", i, *t.slots.At(i), c)
			} else {
				fmt.Fprintf(&buf, "  %4d: [ctrl=%02x]\n", i, c)
			}
		}
	}
	return buf.String()
}
