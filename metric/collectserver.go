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
	"sync"

	"github.com/CovenantSQL/vectortime/proto"
)

// CollectServer holds the latest metric snapshot pushed by each VT replica
// in a cluster. Any replica can register one; an operator without HTTP
// access to every replica queries whichever one they can reach.
type CollectServer struct {
	mu   sync.Mutex
	byVT map[proto.VTID][]byte
}

// NewCollectServer builds an empty CollectServer.
func NewCollectServer() *CollectServer {
	return &CollectServer{byVT: make(map[proto.VTID][]byte)}
}

// UploadMetrics is the RPC entry point CollectClient.push calls into.
func (cs *CollectServer) UploadMetrics(req UploadMetricsReq, _ *Ack) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.byVT[req.VT] = req.MetricText
	return nil
}

// Snapshot returns a copy of the most recently uploaded text per VT.
func (cs *CollectServer) Snapshot() map[proto.VTID][]byte {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	out := make(map[proto.VTID][]byte, len(cs.byVT))
	for k, v := range cs.byVT {
		out[k] = v
	}
	return out
}
