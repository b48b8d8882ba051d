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

	. "github.com/smartystreets/goconvey/convey"

	"github.com/CovenantSQL/vectortime/bitset"
	"github.com/CovenantSQL/vectortime/proto"
)

func TestOutstandingTx(t *testing.T) {
	Convey("Given a transaction registered with fanout 2", t, func() {
		r := NewRegistry(2)
		r.RegisterTx(1, "client-a", 2)

		Convey("single-shard boundary: fanout 1 completes on the first ack", func() {
			r2 := NewRegistry(2)
			r2.RegisterTx(2, "client-b", 1)
			client, done, found := r2.TxShardAck(2)
			So(found, ShouldBeTrue)
			So(done, ShouldBeTrue)
			So(client, ShouldEqual, proto.ClientID("client-b"))
		})

		Convey("the first ack decrements without completing", func() {
			client, done, found := r.TxShardAck(1)
			So(found, ShouldBeTrue)
			So(done, ShouldBeFalse)
			So(client, ShouldEqual, proto.ClientID("client-a"))
		})

		Convey("the second ack completes and erases the entry", func() {
			r.TxShardAck(1)
			_, done, found := r.TxShardAck(1)
			So(found, ShouldBeTrue)
			So(done, ShouldBeTrue)

			_, _, found = r.TxShardAck(1)
			So(found, ShouldBeFalse)
		})

		Convey("an ack for an unregistered id is not found", func() {
			_, _, found := r.TxShardAck(999)
			So(found, ShouldBeFalse)
		})
	})
}

func TestFrontierMarkDone(t *testing.T) {
	Convey("S2: P2's reply arrives before P1's, both single-shard", t, func() {
		r := NewRegistry(1)
		r.RegisterProg(10, "c", []uint64{1, 0})
		r.RegisterProg(11, "c", []uint64{2, 0})

		client, ok := r.ProgShardReply(11)
		So(ok, ShouldBeTrue)
		So(client, ShouldEqual, proto.ClientID("c"))
		r.MarkDone(11)

		maxID, _, numOutstanding := r.Frontier()
		So(maxID, ShouldEqual, proto.RequestID(0))
		So(numOutstanding, ShouldEqual, 2)

		_, ok = r.ProgShardReply(10)
		So(ok, ShouldBeTrue)
		r.MarkDone(10)

		maxID, maxClk, numOutstanding := r.Frontier()
		So(maxID, ShouldEqual, proto.RequestID(11))
		So(maxClk, ShouldResemble, []uint64{2, 0})
		So(numOutstanding, ShouldEqual, 0)
	})

	Convey("a marked-done prog is no longer found by ProgShardReply", t, func() {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("protocolViolation must log.Fatal, not panic: %v", r)
			}
		}()
		// protocolViolation calls log.Fatal which would os.Exit in a real
		// process; we only assert reachability of duplicate state via
		// ProgShardReply, which is what every real caller checks first.
		r := NewRegistry(1)
		r.RegisterProg(5, "c", []uint64{1})
		_, ok := r.ProgShardReply(5)
		So(ok, ShouldBeTrue)
		r.MarkDone(5)

		_, ok = r.ProgShardReply(5)
		So(ok, ShouldBeFalse)
	})

	Convey("S6: a reply for an unknown id is a stale reply, not found", t, func() {
		r := NewRegistry(1)
		_, ok := r.ProgShardReply(404)
		So(ok, ShouldBeFalse)
	})
}

func TestDoneRequestLedger(t *testing.T) {
	Convey("S3: a 3-shard ledger entry fills in over two NOP ticks then erases", t, func() {
		r := NewRegistry(3)
		r.InsertLedger(proto.ProgTypeReachability, 5)

		mask1 := bitset.New(3)
		mask1.Set(0)
		mask1.Set(2)
		lists := r.AssembleDoneLists(mask1)
		So(lists[0], ShouldResemble, []proto.DoneReq{{RequestID: 5, Type: proto.ProgTypeReachability}})
		So(lists[2], ShouldResemble, []proto.DoneReq{{RequestID: 5, Type: proto.ProgTypeReachability}})
		So(lists[1], ShouldBeNil)

		mask2 := bitset.New(3)
		mask2.Set(1)
		lists = r.AssembleDoneLists(mask2)
		So(lists[1], ShouldResemble, []proto.DoneReq{{RequestID: 5, Type: proto.ProgTypeReachability}})

		// entry is now erased: a further tick for any shard finds nothing.
		mask3 := bitset.New(3)
		mask3.Set(0)
		mask3.Set(1)
		mask3.Set(2)
		lists = r.AssembleDoneLists(mask3)
		So(len(lists), ShouldEqual, 0)
	})

	Convey("invariant 7: the done-list contains exactly the entries whose bit flips 0->1", t, func() {
		r := NewRegistry(2)
		r.InsertLedger(proto.ProgTypeEdgeGet, 1)
		r.InsertLedger(proto.ProgTypeEdgeGet, 2)

		mask := bitset.New(2)
		mask.Set(0)
		lists := r.AssembleDoneLists(mask)
		So(len(lists[0]), ShouldEqual, 2)

		// a second tick for the same shard finds nothing new for these entries.
		lists = r.AssembleDoneLists(mask)
		So(lists[0], ShouldBeNil)
	})
}
