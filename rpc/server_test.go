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

package rpc

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/CovenantSQL/vectortime/proto"
)

type echoDispatcher struct {
	txInits chan proto.ClientTxInit
}

func (e *echoDispatcher) ClientTxInit(req proto.ClientTxInit)           { e.txInits <- req }
func (e *echoDispatcher) TxDone(req proto.TxDone)                       {}
func (e *echoDispatcher) ClientNodeProgReq(req proto.ClientNodeProgReq) {}
func (e *echoDispatcher) NodeProgReturn(req proto.NodeProgReturn)       {}
func (e *echoDispatcher) VTClockUpdate(msg proto.ClockUpdate)           {}
func (e *echoDispatcher) VTClockUpdateAck(msg proto.ClockUpdateAck)     {}
func (e *echoDispatcher) VTNopAck(msg proto.NopAck)                     {}
func (e *echoDispatcher) LoadedGraph(msg proto.LoadedGraph)             {}
func (e *echoDispatcher) MsgCounts(msg proto.MsgCounts)                 {}
func (e *echoDispatcher) MigrationToken(msg proto.MigrationToken, forward func(proto.MigrationToken) error) {
}

func TestServerCallerRoundTrip(t *testing.T) {
	Convey("Given a Server exposing a DispatcherService over one loopback listener", t, func() {
		server := NewServer()
		So(server.Listen("127.0.0.1:0"), ShouldBeNil)
		addr := server.listener.Addr().String()
		go server.Serve()
		defer server.Stop()

		disp := &echoDispatcher{txInits: make(chan proto.ClientTxInit, 1)}
		_, err := NewDispatcherService("Dispatcher", server, disp, nil)
		So(err, ShouldBeNil)

		Convey("a Caller's Call reaches the registered method", func() {
			caller := NewCaller(addr)
			defer caller.Close()

			err := caller.Call(proto.ClientTxInitRoute, proto.ClientTxInit{
				ClientID: "c1",
				Writes:   []proto.Write{{Shard: 0}},
			}, &Ack{})
			So(err, ShouldBeNil)

			select {
			case req := <-disp.txInits:
				So(req.ClientID, ShouldEqual, proto.ClientID("c1"))
			case <-time.After(time.Second):
				t.Fatal("dispatcher never received the forwarded call")
			}
		})

		Convey("a CallerPool reuses one Caller per address", func() {
			pool := NewCallerPool()
			defer pool.Close()

			a := pool.Get(addr)
			b := pool.Get(addr)
			So(a, ShouldEqual, b)
		})
	})
}
