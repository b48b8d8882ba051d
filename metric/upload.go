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
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/CovenantSQL/vectortime/proto"
	"github.com/CovenantSQL/vectortime/utils/log"
)

// Ack is the empty net/rpc reply body for the Metric service's methods.
type Ack struct{}

// UploadMetricsReq carries one VT replica's text-encoded metric snapshot, for
// a collector with no HTTP route to that replica's own /metrics endpoint.
type UploadMetricsReq struct {
	VT         proto.VTID
	MetricText []byte
}

// GatherText renders registry's current metric families as the Prometheus
// text exposition format.
func GatherText(registry *prometheus.Registry) ([]byte, error) {
	mfs, err := registry.Gather()
	if err != nil {
		return nil, err
	}
	buf := new(bytes.Buffer)
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(buf, mf); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// caller is the subset of rpc.Caller a CollectClient pushes over.
type caller interface {
	Call(method string, args, reply interface{}) error
}

// CollectClient periodically gathers registry and ships the rendered text to
// a CollectServer over RPC, for a replica an operator cannot scrape
// directly.
type CollectClient struct {
	self     proto.VTID
	registry *prometheus.Registry
	caller   caller
	stopCh   chan struct{}
}

// NewCollectClient builds a CollectClient pushing self's metrics through c.
func NewCollectClient(self proto.VTID, registry *prometheus.Registry, c caller) *CollectClient {
	return &CollectClient{self: self, registry: registry, caller: c, stopCh: make(chan struct{})}
}

// Run pushes a snapshot every period until Stop is called. Meant to run in
// its own goroutine.
func (cc *CollectClient) Run(period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			cc.push()
		case <-cc.stopCh:
			return
		}
	}
}

// Stop ends a Run loop.
func (cc *CollectClient) Stop() {
	close(cc.stopCh)
}

func (cc *CollectClient) push() {
	text, err := GatherText(cc.registry)
	if err != nil {
		log.WithError(err).Warn("metric: gather failed")
		return
	}
	var ack Ack
	req := UploadMetricsReq{VT: cc.self, MetricText: text}
	if err := cc.caller.Call(proto.MetricUploadRoute, req, &ack); err != nil {
		log.WithError(err).Warn("metric: upload failed")
	}
}
