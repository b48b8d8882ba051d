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

func TestVTLifecycle(t *testing.T) {
	Convey("Given a VT wired over a fake transport", t, func() {
		transport := &fakeTransport{}
		vt, err := New(0, 2, 2, 15*time.Millisecond, Deps{
			Shards: transport, Clients: transport, Peers: transport, Names: &fakeNames{},
		})
		So(err, ShouldBeNil)

		Convey("admission and the Timer's background loop share one request id space", func() {
			vt.Start()
			vt.Dispatcher.ClientTxInit(proto.ClientTxInit{ClientID: "c1", Writes: []proto.Write{{Shard: 0}}})
			time.Sleep(40 * time.Millisecond)
			vt.Stop()

			So(len(transport.txInits), ShouldEqual, 1)
			So(len(transport.nops) > 0, ShouldBeTrue)
			for _, n := range transport.nops {
				So(n.Msg.RequestID, ShouldNotEqual, transport.txInits[0].Msg.RequestID)
			}
		})

		Convey("Stop drains the Timer goroutine without a deadlock", func() {
			vt.Start()
			vt.Stop()
		})

		Convey("the Timer's gossip step and Dispatcher's ack handling run through the same PeerSync", func() {
			So(vt.Timer.peerSync, ShouldEqual, vt.PeerSync)
			So(vt.Dispatcher.peerSync, ShouldEqual, vt.PeerSync)

			vt.Dispatcher.VTClockUpdateAck(proto.ClockUpdateAck{VT: 1})
			So(vt.PeerSync.ReadyForGossip(), ShouldBeTrue)
		})
	})

	Convey("New rejects a self id outside [0, NUM_VTS)", t, func() {
		_, err := New(5, 2, 2, time.Second, Deps{})
		So(err, ShouldNotBeNil)
	})
}
