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

// Package timestamper implements the ordering and progress subsystem of a
// vector timestamper: the dual clock scheme, outstanding-request
// bookkeeping, frontier tracking, the periodic NOP timer, and inter-VT clock
// gossip.
package timestamper

import (
	"sync"

	"github.com/CovenantSQL/vectortime/bitset"
	"github.com/CovenantSQL/vectortime/proto"
	"github.com/CovenantSQL/vectortime/vclock"
)

// ClockState owns this VT's vector clock and per-shard queue timestamps and
// serialises their advancement under clkMutex. clkMutex is held only across
// arithmetic, never across a send.
type ClockState struct {
	clkMutex sync.Mutex
	vclk     *vclock.VectorClock
	qts      *vclock.QTS
}

// NewClockState returns a ClockState for a VT with the given membership and
// shard counts, owning entry self in the vector clock.
func NewClockState(numVTs, numShards, self int) (*ClockState, error) {
	vclk, err := vclock.New(numVTs, self)
	if err != nil {
		return nil, err
	}
	qts, err := vclock.NewQTS(numShards)
	if err != nil {
		return nil, err
	}
	return &ClockState{vclk: vclk, qts: qts}, nil
}

// AdvanceForTx assigns a QTS value to each write (grouped by shard) and a
// fresh vclk[vt_id] to the transaction, atomically. The per-write qts slice
// is parallel to writes.
func (c *ClockState) AdvanceForTx(writes []proto.Write) (timestamp []uint64, qts []uint64, perWrite []uint64) {
	c.clkMutex.Lock()
	defer c.clkMutex.Unlock()

	perWrite = make([]uint64, len(writes))
	for i, w := range writes {
		v, err := c.qts.Advance(int(w.Shard))
		if err != nil {
			protocolViolation("qts advance for tx on unknown shard", nil)
		}
		perWrite[i] = v
	}
	c.vclk.TickLocal()
	return c.vclk.Snapshot(), c.qts.Snapshot(), perWrite
}

// AdvanceForNop advances qts[s] for every shard set in toNop, then vclk[vt_id],
// atomically, returning snapshots of both.
func (c *ClockState) AdvanceForNop(toNop *bitset.Set) (timestamp []uint64, qts []uint64) {
	c.clkMutex.Lock()
	defer c.clkMutex.Unlock()

	toNop.ForEachSet(func(s int) {
		if _, err := c.qts.Advance(s); err != nil {
			protocolViolation("qts advance for nop on unknown shard", nil)
		}
	})
	c.vclk.TickLocal()
	return c.vclk.Snapshot(), c.qts.Snapshot()
}

// AdvanceForProg advances vclk[vt_id] only, returning a snapshot for use as
// a node program's admission timestamp.
func (c *ClockState) AdvanceForProg() []uint64 {
	c.clkMutex.Lock()
	defer c.clkMutex.Unlock()

	c.vclk.TickLocal()
	return c.vclk.Snapshot()
}

// RaiseRemote raises vclk[peer] to max(current, value); it never lowers it.
func (c *ClockState) RaiseRemote(peer int, value uint64) error {
	c.clkMutex.Lock()
	defer c.clkMutex.Unlock()

	return c.vclk.RaiseRemote(peer, value)
}

// Snapshot returns the current vector clock without advancing it, used by
// the Timer's gossip step when the NOP path did not already take one this
// tick.
func (c *ClockState) Snapshot() []uint64 {
	c.clkMutex.Lock()
	defer c.clkMutex.Unlock()

	return c.vclk.Snapshot()
}

// LocalEntry returns this VT's own clock entry, the value gossiped in a
// VT_CLOCK_UPDATE.
func (c *ClockState) LocalEntry() uint64 {
	c.clkMutex.Lock()
	defer c.clkMutex.Unlock()

	return c.vclk.At(c.vclk.Owner())
}

// QTSSnapshot returns the current per-shard queue timestamps, for
// read-only inspection by the metrics collector.
func (c *ClockState) QTSSnapshot() []uint64 {
	c.clkMutex.Lock()
	defer c.clkMutex.Unlock()

	return c.qts.Snapshot()
}
