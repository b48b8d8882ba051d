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

package timestamper

import (
	"sync"

	"github.com/CovenantSQL/vectortime/bitset"
)

// PeriodicState is the periodic_update_mutex-guarded state shared by Timer,
// PeerSync, and the Dispatcher handlers that observe shard/peer liveness:
// ToNopMask, clock_update_acks, and ShardNodeCount.
type PeriodicState struct {
	mu sync.Mutex

	toNopMask       *bitset.Set
	clockUpdateAcks int
	shardNodeCount  []uint64

	numVTs int
}

// NewPeriodicState returns a PeriodicState with ToNopMask initially all set,
// so every shard is owed a NOP before the first tick runs.
func NewPeriodicState(numVTs, numShards int) *PeriodicState {
	return &PeriodicState{
		toNopMask:      bitset.Full(numShards),
		shardNodeCount: make([]uint64, numShards),
		numVTs:         numVTs,
	}
}

// snapshotAndClearNopMask returns a clone of ToNopMask if any bit is set
// (nil otherwise), then clears it. Called by the Timer at the start of the
// NOP path.
func (p *PeriodicState) snapshotAndClearNopMask() *bitset.Set {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.toNopMask.Any() {
		return nil
	}
	snap := p.toNopMask.Clone()
	p.toNopMask.Reset()
	return snap
}

// onNopAck rearms ToNopMask for shard and records its latest node count.
func (p *PeriodicState) onNopAck(shard int, nodeCount uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.toNopMask.Set(shard)
	p.shardNodeCount[shard] = nodeCount
}

// shardNodeCounts returns a copy of the last-known per-shard node counts.
func (p *PeriodicState) shardNodeCounts() []uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]uint64, len(p.shardNodeCount))
	copy(out, p.shardNodeCount)
	return out
}

// onClockUpdateAck increments clock_update_acks. Reaching numVTs (more acks
// than peers can possibly send) is a protocol violation.
func (p *PeriodicState) onClockUpdateAck() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.clockUpdateAcks++
	if p.clockUpdateAcks >= p.numVTs {
		protocolViolation("clock_update_acks reached NUM_VTS", nil)
	}
}

// readyForGossipAndReset reports whether the peer-gossip quorum has been
// reached, resetting the counter if so.
func (p *PeriodicState) readyForGossipAndReset() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.numVTs > 1 && p.clockUpdateAcks == p.numVTs-1 {
		p.clockUpdateAcks = 0
		return true
	}
	return false
}
