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
	"context"
	"time"

	"github.com/CovenantSQL/vectortime/proto"
	"github.com/CovenantSQL/vectortime/utils/log"
	"github.com/CovenantSQL/vectortime/utils/timer"
)

// Timer is the dedicated periodic task: every VTTimeout it assembles and
// sends NOP messages for any shard owed one, then runs the peer-clock
// gossip step if the ack quorum allows it. NOP issuance and peer-clock gossip
// are one combined tick, not two independently timed loops. Each half takes
// periodic_update_mutex (owned by PeriodicState) only inside the
// PeriodicState calls it makes; the mutex is not held across the ClockState
// and Registry calls or the sends, so a tick is not one critical section.
type Timer struct {
	self      proto.VTID
	numVTs    int
	numShards int
	period    time.Duration

	clock    *ClockState
	registry *Registry
	periodic *PeriodicState
	ids      *RequestIDAllocator

	shards   ShardSender
	peerSync *PeerSync
	bus      Bus
}

// NewTimer returns a Timer ticking every period. bus may be nil; when set,
// each tick that actually emits a NOP publishes the number of shards NOP'd to
// TopicNopTick, and each tick that fires the gossip step publishes this VT's
// own clock entry to TopicGossipTick, for the metrics collector. The
// gossip half of each tick runs entirely through peerSync.
func NewTimer(self proto.VTID, numVTs, numShards int, period time.Duration, clock *ClockState,
	registry *Registry, periodic *PeriodicState, ids *RequestIDAllocator, shards ShardSender,
	peerSync *PeerSync, bus Bus) *Timer {
	return &Timer{
		self:      self,
		numVTs:    numVTs,
		numShards: numShards,
		period:    period,
		clock:     clock,
		registry:  registry,
		periodic:  periodic,
		ids:       ids,
		shards:    shards,
		peerSync:  peerSync,
		bus:       bus,
	}
}

// Run blocks ticking every t.period until ctx is cancelled.
func (t *Timer) Run(ctx context.Context) {
	ticker := time.NewTicker(t.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sw := timer.NewTimer()
			t.tick()
			sw.Add("tick")
			log.WithFields(sw.ToLogFields()).Debug("timestamper: timer tick")
		}
	}
}

// tick runs one combined NOP + peer-gossip cycle.
func (t *Timer) tick() {
	vclkSnapshotted := t.nopPath()
	t.gossipPath(vclkSnapshotted)
}

// nopPath sends one NOP per shard owed one since the last tick. It returns
// a vector-clock snapshot if it took one, or nil if there was nothing to NOP
// this tick. The gossip step reuses the snapshot only for its bus publish;
// the value PeerSync.Gossip sends is read from ClockState afresh.
func (t *Timer) nopPath() []uint64 {
	toNop := t.periodic.snapshotAndClearNopMask()
	if toNop == nil {
		return nil
	}

	id := t.ids.Next()
	vclk, qts := t.clock.AdvanceForNop(toNop)
	maxDoneID, maxDoneClk, numOutstandingProgs := t.registry.Frontier()
	doneLists := t.registry.AssembleDoneLists(toNop)
	nodeCounts := t.periodic.shardNodeCounts()

	toNop.ForEachSet(func(s int) {
		shard := proto.ShardID(s)
		err := t.shards.SendNop(shard, proto.Nop{
			VT:                  t.self,
			RequestID:           id,
			VectorClock:         vclk,
			QTS:                 qts,
			DoneReqs:            doneLists[shard],
			MaxDoneID:           maxDoneID,
			MaxDoneClock:        maxDoneClk,
			NumOutstandingProgs: uint64(numOutstandingProgs),
			ShardNodeCounts:     nodeCounts,
		})
		if err != nil {
			log.WithFields(log.Fields{"shard": shard}).WithError(err).Warn("timestamper: nop send failed")
		}
	})
	if t.bus != nil {
		t.bus.Publish(TopicNopTick, toNop.Count())
	}

	return vclk
}

// gossipPath reads this VT's own clock entry and broadcasts it to every
// peer through PeerSync, if the ack quorum from the last round allows
// another round. vclkSnapshotted is reused for the bus publish if the NOP
// path already took a snapshot this tick.
func (t *Timer) gossipPath(vclkSnapshotted []uint64) {
	if !t.peerSync.ReadyForGossip() {
		return
	}

	if t.bus != nil {
		vclk := vclkSnapshotted
		if vclk == nil {
			vclk = t.clock.Snapshot()
		}
		t.bus.Publish(TopicGossipTick, vclk[int(t.self)])
	}

	t.peerSync.Gossip()
}
