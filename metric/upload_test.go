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

package metric

import (
	"bytes"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/CovenantSQL/vectortime/proto"
)

type fakeCaller struct {
	calls int
	last  UploadMetricsReq
}

func (f *fakeCaller) Call(method string, args, reply interface{}) error {
	f.calls++
	f.last = args.(UploadMetricsReq)
	return nil
}

func TestCollectClient(t *testing.T) {
	Convey("Given a CollectClient pushing into a fake caller and a real CollectServer", t, func() {
		clock := fakeClock{qts: []uint64{1, 2}}
		reg := fakeRegistry{tx: 0, prog: 0}
		collector := NewCollector(clock, reg, 2, nil)
		registry := NewRegistry(collector)

		caller := &fakeCaller{}
		client := NewCollectClient(proto.VTID(3), registry, caller)

		Convey("a single push sends a non-empty text snapshot tagged with the VT id", func() {
			client.push()
			So(caller.calls, ShouldEqual, 1)
			So(caller.last.VT, ShouldEqual, proto.VTID(3))
			So(len(caller.last.MetricText), ShouldBeGreaterThan, 0)
			So(bytes.Contains(caller.last.MetricText, []byte("vectortime_shard_qts")), ShouldBeTrue)
		})

		Convey("Run pushes on every tick until Stop", func() {
			go client.Run(5 * time.Millisecond)
			time.Sleep(25 * time.Millisecond)
			client.Stop()
			So(caller.calls, ShouldBeGreaterThan, 1)
		})
	})

	Convey("Given a CollectServer receiving uploads from two VTs", t, func() {
		cs := NewCollectServer()
		var ack Ack

		err := cs.UploadMetrics(UploadMetricsReq{VT: 0, MetricText: []byte("a")}, &ack)
		So(err, ShouldBeNil)
		err = cs.UploadMetrics(UploadMetricsReq{VT: 1, MetricText: []byte("b")}, &ack)
		So(err, ShouldBeNil)

		snap := cs.Snapshot()
		So(snap[proto.VTID(0)], ShouldResemble, []byte("a"))
		So(snap[proto.VTID(1)], ShouldResemble, []byte("b"))

		Convey("a later upload for the same VT overwrites its entry", func() {
			err := cs.UploadMetrics(UploadMetricsReq{VT: 0, MetricText: []byte("c")}, &ack)
			So(err, ShouldBeNil)
			So(cs.Snapshot()[proto.VTID(0)], ShouldResemble, []byte("c"))
		})
	})
}
