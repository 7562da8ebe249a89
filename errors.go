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

import "github.com/cockroachdb/errors"

// Contract violations panic with an error marked with one of the sentinels
// below, so a caller that recovers can tell them apart with errors.Is.
// Absence of a key or position is never an error: lookups return ok=false.
var (
	// ErrIndexOutOfBounds marks panics caused by a position outside [0, Len).
	ErrIndexOutOfBounds = errors.New("index out of bounds")
	// ErrKeyNotFound marks panics from MustGet on a missing key.
	ErrKeyNotFound = errors.New("key not found")
	// ErrInvalidRange marks panics from Drain, SplitOff and Truncate-like
	// operations given an invalid range.
	ErrInvalidRange = errors.New("invalid range")
)

func panicIndexOutOfBounds(i, n int) {
	panic(errors.Mark(
		errors.AssertionFailedf("index out of bounds: the len is %d but the index is %d", n, i),
		ErrIndexOutOfBounds))
}

func panicKeyNotFound(key any) {
	panic(errors.Mark(errors.AssertionFailedf("key not found: %v", key), ErrKeyNotFound))
}

func panicInvalidRange(start, end, n int) {
	panic(errors.Mark(
		errors.AssertionFailedf("invalid range [%d, %d) for len %d", start, end, n),
		ErrInvalidRange))
}

func checkRange(start, end, n int) {
	if start < 0 || start > end || end > n {
		panicInvalidRange(start, end, n)
	}
}
