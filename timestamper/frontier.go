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

import "github.com/CovenantSQL/vectortime/proto"

// MarkDone retires a program reply into the frontier. id must be fresh in
// SeenDoneIds; a duplicate is a protocol violation, not a StaleReply --
// ProgShardReply already filtered that case out for callers that go through
// it, so reaching here with a duplicate means an internal caller skipped it.
func (r *Registry) MarkDone(id proto.RequestID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, seen := r.seenDone[id]; seen {
		protocolViolation("duplicate mark_done", logFields(id))
		return
	}
	r.seenDone[id] = struct{}{}

	if r.pending.Len() == 0 || r.pending.top() != id {
		r.done.push(id)
		return
	}

	r.retire(id)
	for r.pending.Len() > 0 && r.done.Len() > 0 && r.pending.top() == r.done.top() {
		next := r.pending.top()
		r.done.pop()
		r.retire(next)
	}
}

// retire pops the head of PendingProgQueue (which must equal id), advances
// max_done_id/max_done_clk from its recorded timestamp, and erases its
// OutstandingProg entry.
func (r *Registry) retire(id proto.RequestID) {
	if r.pending.Len() == 0 || r.pending.top() != id {
		protocolViolation("frontier retirement head mismatch", logFields(id))
		return
	}
	r.pending.pop()

	prog, ok := r.outstandingProgs[id]
	if !ok {
		protocolViolation("retiring program with no outstanding entry", logFields(id))
		return
	}
	r.maxDoneID = id
	r.maxDoneClock = prog.Timestamp
	delete(r.outstandingProgs, id)
}

// Frontier returns the current (max_done_id, max_done_clk) and the number
// of still-outstanding programs, for NOP assembly.
func (r *Registry) Frontier() (maxDoneID proto.RequestID, maxDoneClock []uint64, numOutstandingProgs int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.maxDoneID, r.maxDoneClock, r.pending.Len()
}
