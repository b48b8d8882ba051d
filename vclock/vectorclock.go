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

// Package vclock implements the fixed-length vector clock and per-shard
// queue timestamp counters shared by every vector timestamper (VT) replica.
package vclock

import (
	"bytes"
	"fmt"

	"github.com/pkg/errors"
)

// VectorClock is a length-NUM_VTS counter vector. Entry i holds the number of
// events VT i has admitted. Only the owner may advance its own entry; a peer's
// entry may only be raised, never lowered.
type VectorClock struct {
	owner int
	count []uint64
}

// New returns a zeroed VectorClock of the given length, owned by vt (its
// local entry).
func New(length, vt int) (*VectorClock, error) {
	if length <= 0 {
		return nil, errors.New("vclock: length must be positive")
	}
	if vt < 0 || vt >= length {
		return nil, errors.Errorf("vclock: owner %d out of range [0,%d)", vt, length)
	}
	return &VectorClock{owner: vt, count: make([]uint64, length)}, nil
}

// Len returns the number of entries (NUM_VTS).
func (c *VectorClock) Len() int {
	if c == nil {
		return 0
	}
	return len(c.count)
}

// Owner returns the vt_id whose entry this clock advances locally.
func (c *VectorClock) Owner() int {
	return c.owner
}

// At returns the counter for vt i.
func (c *VectorClock) At(i int) uint64 {
	return c.count[i]
}

// Clone returns a deep copy, preserving owner.
func (c *VectorClock) Clone() *VectorClock {
	out := &VectorClock{owner: c.owner, count: make([]uint64, len(c.count))}
	copy(out.count, c.count)
	return out
}

// TickLocal increments the owner's entry and returns the new value. It is
// the only producer of the owner's entry; callers must serialize calls (the
// VT's clk_mutex in timestamper.ClockState does this).
func (c *VectorClock) TickLocal() uint64 {
	c.count[c.owner]++
	return c.count[c.owner]
}

// RaiseRemote sets entry peer to max(current, value). It never lowers an
// entry, matching the invariant that remote entries are monotonically raised.
func (c *VectorClock) RaiseRemote(peer int, value uint64) error {
	if peer == c.owner {
		return errors.Errorf("vclock: cannot raise own entry %d remotely", peer)
	}
	if peer < 0 || peer >= len(c.count) {
		return errors.Errorf("vclock: peer %d out of range [0,%d)", peer, len(c.count))
	}
	if value > c.count[peer] {
		c.count[peer] = value
	}
	return nil
}

// Equal reports whether two clocks of equal length carry the same counters.
// Owner is ignored, matching the source's convention that equality is a
// property of the value, not of who is asking.
func (c *VectorClock) Equal(other *VectorClock) bool {
	if c.Len() != other.Len() {
		return false
	}
	for i := range c.count {
		if c.count[i] != other.count[i] {
			return false
		}
	}
	return true
}

// Dominates reports whether c causally dominates other: every entry in c is
// >= the corresponding entry in other, and at least one is strictly greater.
// Two clocks with neither dominating the other are concurrent.
func (c *VectorClock) Dominates(other *VectorClock) bool {
	if c.Len() != other.Len() {
		return false
	}
	strictlyGreater := false
	for i := range c.count {
		if c.count[i] < other.count[i] {
			return false
		}
		if c.count[i] > other.count[i] {
			strictlyGreater = true
		}
	}
	return strictlyGreater
}

// Concurrent reports whether neither clock dominates the other and they are
// not equal.
func (c *VectorClock) Concurrent(other *VectorClock) bool {
	return !c.Equal(other) && !c.Dominates(other) && !other.Dominates(c)
}

// String renders the clock as "[v0, v1, ...]".
func (c *VectorClock) String() string {
	if c == nil {
		return "<nil>"
	}
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, v := range c.count {
		if i > 0 {
			buf.WriteString(", ")
		}
		fmt.Fprintf(&buf, "%d", v)
	}
	buf.WriteByte(']')
	return buf.String()
}

// Snapshot copies the counters out as a plain slice, suitable for embedding
// in a wire message without exposing the mutable clock itself.
func (c *VectorClock) Snapshot() []uint64 {
	out := make([]uint64, len(c.count))
	copy(out, c.count)
	return out
}

// FromSnapshot rebuilds a VectorClock from wire counters for a given owner.
// Used on the receiving side of VT_CLOCK_UPDATE-adjacent plumbing and in
// tests; it performs no causal validation of its own.
func FromSnapshot(owner int, counters []uint64) *VectorClock {
	out := &VectorClock{owner: owner, count: make([]uint64, len(counters))}
	copy(out.count, counters)
	return out
}
