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
	"github.com/CovenantSQL/vectortime/bitset"
	"github.com/CovenantSQL/vectortime/proto"
)

// AssembleDoneLists is the Timer's per-tick pass over the DoneRequestLedger:
// for every shard about to receive a NOP, every ledger entry whose bit for
// that shard is still 0 gets that bit set and is appended to the shard's
// done-list; an entry whose bitset becomes all-ones is erased.
func (r *Registry) AssembleDoneLists(toNop *bitset.Set) map[proto.ShardID][]proto.DoneReq {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[proto.ShardID][]proto.DoneReq)
	for t, byID := range r.ledger {
		for id, bits := range byID {
			toNop.ForEachSet(func(s int) {
				if bits.Test(s) {
					return
				}
				bits.Set(s)
				out[proto.ShardID(s)] = append(out[proto.ShardID(s)], proto.DoneReq{RequestID: id, Type: t})
			})
			if bits.All() {
				delete(byID, id)
			}
		}
		if len(byID) == 0 {
			delete(r.ledger, t)
		}
	}
	return out
}
