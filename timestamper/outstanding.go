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
	"sync"

	"github.com/CovenantSQL/vectortime/bitset"
	"github.com/CovenantSQL/vectortime/proto"
	"github.com/CovenantSQL/vectortime/utils/log"
)

// OutstandingTx tracks one admitted, not-yet-fully-acked transaction.
type OutstandingTx struct {
	ClientID        proto.ClientID
	RemainingShards uint32
}

// OutstandingProg tracks one admitted, not-yet-retired node program.
type OutstandingProg struct {
	ClientID  proto.ClientID
	Timestamp []uint64
}

// Registry is the tx_prog_mutex-guarded aggregate: OutstandingRegistry,
// FrontierTracker, and DoneRequestLedger all live here under one mutex.
// Splitting them into clockstate.go-style standalone types would just mean
// re-deriving that shared lock at every call site.
type Registry struct {
	mu sync.Mutex

	outstandingTx    map[proto.RequestID]*OutstandingTx
	outstandingProgs map[proto.RequestID]*OutstandingProg

	pending  *progQueue // PendingProgQueue
	done     *progQueue // DoneProgQueue
	seenDone map[proto.RequestID]struct{}

	maxDoneID    proto.RequestID
	maxDoneClock []uint64

	ledger    map[proto.ProgType]map[proto.RequestID]*bitset.Set
	numShards int
}

// NewRegistry returns an empty Registry sized for numShards.
func NewRegistry(numShards int) *Registry {
	return &Registry{
		outstandingTx:    make(map[proto.RequestID]*OutstandingTx),
		outstandingProgs: make(map[proto.RequestID]*OutstandingProg),
		pending:          newProgQueue(),
		done:             newProgQueue(),
		seenDone:         make(map[proto.RequestID]struct{}),
		ledger:           make(map[proto.ProgType]map[proto.RequestID]*bitset.Set),
		numShards:        numShards,
	}
}

// RegisterTx inserts a newly admitted transaction's fan-out bookkeeping.
func (r *Registry) RegisterTx(id proto.RequestID, client proto.ClientID, fanout uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.outstandingTx[id] = &OutstandingTx{ClientID: client, RemainingShards: fanout}
}

// TxShardAck decrements the transaction's remaining shard count. On the
// last ack it erases the entry and returns the client to notify.
func (r *Registry) TxShardAck(id proto.RequestID) (client proto.ClientID, done bool, found bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, ok := r.outstandingTx[id]
	if !ok {
		return "", false, false
	}
	tx.RemainingShards--
	if tx.RemainingShards == 0 {
		delete(r.outstandingTx, id)
		return tx.ClientID, true, true
	}
	return tx.ClientID, false, true
}

// RegisterProg inserts a newly admitted node program and pushes it onto
// PendingProgQueue.
func (r *Registry) RegisterProg(id proto.RequestID, client proto.ClientID, timestamp []uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.outstandingProgs[id] = &OutstandingProg{ClientID: client, Timestamp: timestamp}
	r.pending.push(id)
}

// ProgShardReply reports whether id is a still-outstanding program whose
// reply has not yet been counted. The caller forwards the reply to the
// returned client, inserts a ledger entry, and calls MarkDone -- in that
// order, so the client-visible reply always precedes mark_done.
func (r *Registry) ProgShardReply(id proto.RequestID) (client proto.ClientID, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, seen := r.seenDone[id]; seen {
		return "", false
	}
	prog, ok := r.outstandingProgs[id]
	if !ok {
		return "", false
	}
	return prog.ClientID, true
}

// InsertLedger creates a zero-bitset DoneRequestLedger entry for a request
// of type t whose reply was just forwarded, ahead of MarkDone as
// NODE_PROG_RETURN handling requires.
func (r *Registry) InsertLedger(t proto.ProgType, id proto.RequestID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byID, ok := r.ledger[t]
	if !ok {
		byID = make(map[proto.RequestID]*bitset.Set)
		r.ledger[t] = byID
	}
	byID[id] = bitset.New(r.numShards)
}

// OutstandingCounts returns the number of not-yet-fully-acked transactions
// and not-yet-retired programs, for read-only inspection by the metrics
// collector.
func (r *Registry) OutstandingCounts() (tx int, prog int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.outstandingTx), len(r.outstandingProgs)
}

// logFields is a convenience used across the fatal paths below.
func logFields(id proto.RequestID) log.Fields {
	return log.Fields{"request_id": uint64(id)}
}
