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
	"testing"

	dto "github.com/prometheus/client_model/go"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/CovenantSQL/vectortime/chainbus"
	"github.com/CovenantSQL/vectortime/proto"
)

type fakeClock struct{ qts []uint64 }

func (f fakeClock) QTSSnapshot() []uint64 { return f.qts }

type fakeRegistry struct{ tx, prog int }

func (f fakeRegistry) OutstandingCounts() (int, int) { return f.tx, f.prog }

// metricValue finds the sample for name, optionally matching a "shard"
// label value, and returns its gauge-or-counter value.
func metricValue(mfs []*dto.MetricFamily, name, shardLabel string) (float64, bool) {
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if shardLabel != "" {
				matched := false
				for _, lp := range m.GetLabel() {
					if lp.GetName() == "shard" && lp.GetValue() == shardLabel {
						matched = true
					}
				}
				if !matched {
					continue
				}
			}
			if g := m.GetGauge(); g != nil {
				return g.GetValue(), true
			}
			if cnt := m.GetCounter(); cnt != nil {
				return cnt.GetValue(), true
			}
		}
	}
	return 0, false
}

func TestCollector(t *testing.T) {
	Convey("Given a Collector fed by a real chainbus and a snapshot of core state", t, func() {
		bus := chainbus.New()
		clock := fakeClock{qts: []uint64{3, 5}}
		reg := fakeRegistry{tx: 2, prog: 1}
		c := NewCollector(clock, reg, 2, bus)
		registry := NewRegistry(c)

		Convey("a scrape reports the outstanding gauges and per-shard QTS pulled live", func() {
			mfs, err := registry.Gather()
			So(err, ShouldBeNil)

			v, ok := metricValue(mfs, "vectortime_outstanding_tx", "")
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 2.0)

			v, ok = metricValue(mfs, "vectortime_outstanding_prog", "")
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 1.0)

			v, ok = metricValue(mfs, "vectortime_shard_qts", "0")
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 3.0)

			v, ok = metricValue(mfs, "vectortime_shard_qts", "1")
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 5.0)
		})

		Convey("a NOP tick published on the bus accumulates into the counter", func() {
			bus.Publish("nop_tick", 2)
			mfs, _ := registry.Gather()
			v, ok := metricValue(mfs, "vectortime_nop_ticks_total", "")
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 2.0)
		})

		Convey("a msg_count event splits into the msg and node counters", func() {
			bus.Publish("msg_count", proto.MsgCounts{ClientMsgCount: 4, MsgCount: 1, ClientNodeCount: 7})
			mfs, _ := registry.Gather()

			v, ok := metricValue(mfs, "vectortime_msg_count_total", "")
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 5.0)

			v, ok = metricValue(mfs, "vectortime_node_count_total", "")
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 7.0)
		})
	})
}
