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
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/CovenantSQL/vectortime/proto"
)

func newTestTimer(numVTs, numShards int, transport *fakeTransport) (*Timer, *ClockState, *Registry, *PeriodicState) {
	clock, _ := NewClockState(numVTs, numShards, 0)
	registry := NewRegistry(numShards)
	periodic := NewPeriodicState(numVTs, numShards)
	ids := &RequestIDAllocator{}
	peerSync := NewPeerSync(0, numVTs, clock, periodic, transport)
	timer := NewTimer(0, numVTs, numShards, time.Hour, clock, registry, periodic, ids, transport, peerSync, nil)
	return timer, clock, registry, periodic
}

func TestTimerNopPath(t *testing.T) {
	Convey("boundary: ToNopMask == 0 emits no NOP", t, func() {
		transport := &fakeTransport{}
		timer, _, _, periodic := newTestTimer(1, 2, transport)
		periodic.snapshotAndClearNopMask() // drain the initial all-set mask

		timer.tick()
		So(len(transport.nops), ShouldEqual, 0)
	})

	Convey("a tick with ToNopMask set emits one NOP per set shard", t, func() {
		transport := &fakeTransport{}
		timer, _, _, _ := newTestTimer(1, 2, transport)

		timer.tick()
		So(len(transport.nops), ShouldEqual, 2)
		for _, n := range transport.nops {
			So(n.Msg.VT, ShouldEqual, proto.VTID(0))
			So(n.Msg.QTS[n.Shard], ShouldEqual, uint64(1))
		}
	})

	Convey("a NOP tick carries the retired-program done-list for its shard", t, func() {
		transport := &fakeTransport{}
		timer, _, registry, _ := newTestTimer(1, 1, transport)

		registry.RegisterProg(7, "c", []uint64{1})
		registry.InsertLedger(proto.ProgTypeReachability, 7)
		registry.MarkDone(7)

		timer.tick()
		So(len(transport.nops), ShouldEqual, 1)
		So(transport.nops[0].Msg.DoneReqs, ShouldResemble, []proto.DoneReq{{RequestID: 7, Type: proto.ProgTypeReachability}})
		So(transport.nops[0].Msg.MaxDoneID, ShouldEqual, proto.RequestID(7))
	})
}

func TestTimerGossipPath(t *testing.T) {
	Convey("boundary: NUM_VTS==1 never gossips", t, func() {
		transport := &fakeTransport{}
		timer, _, _, _ := newTestTimer(1, 1, transport)
		// With no acks the count (0) already equals NUM_VTS-1, so only the
		// NUM_VTS > 1 guard keeps this tick from gossiping. An ack here would
		// itself be a protocol violation, since acks may never reach NUM_VTS.

		timer.tick()
		So(len(transport.clockUpdates), ShouldEqual, 0)
	})

	Convey("gossip fires once the ack quorum is reached, to every other VT", t, func() {
		transport := &fakeTransport{}
		timer, clock, _, periodic := newTestTimer(3, 1, transport)
		clock.AdvanceForProg() // give vclk[0] a distinctive value
		periodic.onClockUpdateAck()
		periodic.onClockUpdateAck()

		timer.gossipPath(nil)
		So(len(transport.clockUpdates), ShouldEqual, 2)
		for _, cu := range transport.clockUpdates {
			So(cu.Msg.VT, ShouldEqual, proto.VTID(0))
			So(cu.Msg.Value, ShouldEqual, uint64(1))
			So(cu.Peer, ShouldNotEqual, proto.VTID(0))
		}
	})

	Convey("gossip after a NOP tick sends the clock entry the NOP carried", t, func() {
		transport := &fakeTransport{}
		timer, _, _, periodic := newTestTimer(2, 1, transport)
		periodic.onClockUpdateAck()

		vclk := timer.nopPath()
		So(vclk, ShouldNotBeNil)
		timer.gossipPath(vclk)
		So(len(transport.clockUpdates), ShouldEqual, 1)
		So(transport.clockUpdates[0].Msg.Value, ShouldEqual, vclk[0])
	})
}
