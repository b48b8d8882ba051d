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

// Package metric exposes a vector timestamper's internal counters as a
// prometheus.Collector: outstanding tx/prog gauges and per-shard QTS gauges
// are pulled straight from ClockState and Registry at scrape time, while the
// NOP-tick, gossip-tick and message-count families are pushed in over a
// chainbus.Bus so the Dispatcher and Timer never call into this package
// directly.
package metric

import (
	"strconv"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/CovenantSQL/vectortime/proto"
)

// clockState and registry are the subset of timestamper.ClockState and
// timestamper.Registry the collector reads at scrape time. Declared locally
// so this package needs no direct dependency edge back onto timestamper's
// internal wiring beyond these two read-only views.
type clockState interface {
	QTSSnapshot() []uint64
}

type registry interface {
	OutstandingCounts() (tx int, prog int)
}

// Bus is the subset of chainbus.Bus the collector subscribes on.
type Bus interface {
	Subscribe(topic string, handler interface{}) error
}

const namespace = "vectortime"

// Collector is a prometheus.Collector for one VT instance.
type Collector struct {
	clock     clockState
	registry  registry
	numShards int

	nopTicks    uint64
	gossipTicks uint64
	msgCount    uint64
	nodeCount   uint64
	graphLoads  uint64

	outstTx  *prometheus.Desc
	outstPg  *prometheus.Desc
	qtsDesc  *prometheus.Desc
	nopDesc  *prometheus.Desc
	gosDesc  *prometheus.Desc
	msgDesc  *prometheus.Desc
	nodeDesc *prometheus.Desc
	loadDesc *prometheus.Desc
}

// NewCollector builds a Collector reading clock and registry at scrape time
// and, if bus is non-nil, subscribing to the Dispatcher's and Timer's
// ops/admin topics to accumulate the push-model counters.
func NewCollector(clock clockState, reg registry, numShards int, bus Bus) *Collector {
	c := &Collector{
		clock:     clock,
		registry:  reg,
		numShards: numShards,
		outstTx:   prometheus.NewDesc(namespace+"_outstanding_tx", "admitted, not yet fully acked transactions", nil, nil),
		outstPg:   prometheus.NewDesc(namespace+"_outstanding_prog", "admitted, not yet retired node programs", nil, nil),
		qtsDesc:   prometheus.NewDesc(namespace+"_shard_qts", "per-shard queue timestamp", []string{"shard"}, nil),
		nopDesc:   prometheus.NewDesc(namespace+"_nop_ticks_total", "NOP ticks emitted", nil, nil),
		gosDesc:   prometheus.NewDesc(namespace+"_gossip_ticks_total", "peer clock gossip rounds fired", nil, nil),
		msgDesc:   prometheus.NewDesc(namespace+"_msg_count_total", "MSG_COUNT family events observed", nil, nil),
		nodeDesc:  prometheus.NewDesc(namespace+"_node_count_total", "CLIENT_NODE_COUNT events observed", nil, nil),
		loadDesc:  prometheus.NewDesc(namespace+"_graph_loads_total", "LOADED_GRAPH events observed", nil, nil),
	}

	if bus != nil {
		_ = bus.Subscribe("nop_tick", func(nopped int) { atomic.AddUint64(&c.nopTicks, uint64(nopped)) })
		_ = bus.Subscribe("gossip_tick", func(uint64) { atomic.AddUint64(&c.gossipTicks, 1) })
		_ = bus.Subscribe("msg_count", func(m proto.MsgCounts) {
			atomic.AddUint64(&c.msgCount, m.ClientMsgCount+m.MsgCount)
			atomic.AddUint64(&c.nodeCount, m.ClientNodeCount)
		})
		_ = bus.Subscribe("graph_loaded", func(proto.LoadedGraph) { atomic.AddUint64(&c.graphLoads, 1) })
	}
	return c
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.outstTx
	ch <- c.outstPg
	ch <- c.qtsDesc
	ch <- c.nopDesc
	ch <- c.gosDesc
	ch <- c.msgDesc
	ch <- c.nodeDesc
	ch <- c.loadDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	tx, prog := c.registry.OutstandingCounts()
	ch <- prometheus.MustNewConstMetric(c.outstTx, prometheus.GaugeValue, float64(tx))
	ch <- prometheus.MustNewConstMetric(c.outstPg, prometheus.GaugeValue, float64(prog))

	for shard, v := range c.clock.QTSSnapshot() {
		ch <- prometheus.MustNewConstMetric(c.qtsDesc, prometheus.GaugeValue, float64(v), shardLabel(shard))
	}

	ch <- prometheus.MustNewConstMetric(c.nopDesc, prometheus.CounterValue, float64(atomic.LoadUint64(&c.nopTicks)))
	ch <- prometheus.MustNewConstMetric(c.gosDesc, prometheus.CounterValue, float64(atomic.LoadUint64(&c.gossipTicks)))
	ch <- prometheus.MustNewConstMetric(c.msgDesc, prometheus.CounterValue, float64(atomic.LoadUint64(&c.msgCount)))
	ch <- prometheus.MustNewConstMetric(c.nodeDesc, prometheus.CounterValue, float64(atomic.LoadUint64(&c.nodeCount)))
	ch <- prometheus.MustNewConstMetric(c.loadDesc, prometheus.CounterValue, float64(atomic.LoadUint64(&c.graphLoads)))
}

func shardLabel(shard int) string {
	return strconv.Itoa(shard)
}
