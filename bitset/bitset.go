/*
 * Copyright 2018 The CovenantSQL Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package bitset implements a small fixed-width bit vector sized to
// NUM_SHARDS, used for ToNopMask and for DoneRequestLedger's per-request
// shard-acknowledgement tracking. There is no third-party bitset in the
// retrieved corpus sized for this use (NUM_SHARDS is small, fixed at
// startup, and the operations are pure local arithmetic under a mutex
// already held by the caller), so this wraps math/bits directly rather than
// pulling in a general-purpose big-integer bitset library.
package bitset

import "math/bits"

const wordBits = 64

// Set is a bit vector of a fixed width.
type Set struct {
	width int
	words []uint64
}

// New returns a zeroed Set able to hold width bits.
func New(width int) *Set {
	return &Set{
		width: width,
		words: make([]uint64, (width+wordBits-1)/wordBits),
	}
}

// Full returns a Set of the given width with every bit set.
func Full(width int) *Set {
	s := New(width)
	for i := 0; i < width; i++ {
		s.Set(i)
	}
	return s
}

// Width returns the number of addressable bits.
func (s *Set) Width() int {
	return s.width
}

// Set sets bit i.
func (s *Set) Set(i int) {
	s.words[i/wordBits] |= 1 << uint(i%wordBits)
}

// Clear clears bit i.
func (s *Set) Clear(i int) {
	s.words[i/wordBits] &^= 1 << uint(i%wordBits)
}

// Test reports whether bit i is set.
func (s *Set) Test(i int) bool {
	return s.words[i/wordBits]&(1<<uint(i%wordBits)) != 0
}

// Any reports whether any bit is set.
func (s *Set) Any() bool {
	for _, w := range s.words {
		if w != 0 {
			return true
		}
	}
	return false
}

// All reports whether every addressable bit is set.
func (s *Set) All() bool {
	return s.Count() == s.width
}

// Count returns the number of set bits.
func (s *Set) Count() int {
	n := 0
	for _, w := range s.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// Reset clears every bit.
func (s *Set) Reset() {
	for i := range s.words {
		s.words[i] = 0
	}
}

// Clone returns an independent copy.
func (s *Set) Clone() *Set {
	out := &Set{width: s.width, words: make([]uint64, len(s.words))}
	copy(out.words, s.words)
	return out
}

// ForEachSet calls fn once per set bit, in increasing order.
func (s *Set) ForEachSet(fn func(i int)) {
	for i := 0; i < s.width; i++ {
		if s.Test(i) {
			fn(i)
		}
	}
}
