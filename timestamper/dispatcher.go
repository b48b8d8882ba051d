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
	"github.com/CovenantSQL/vectortime/proto"
	"github.com/CovenantSQL/vectortime/utils/log"
)

// Bus is the subset of chainbus.Bus the Dispatcher needs to publish
// ops/admin aggregation events without touching core invariants.
type Bus interface {
	Publish(topic string, args ...interface{})
}

// Ops/admin topic names published on Bus.
const (
	TopicMsgCount    = "msg_count"
	TopicGraphLoaded = "graph_loaded"
	TopicMigration   = "migration_token"
	TopicNopTick     = "nop_tick"
	TopicGossipTick  = "gossip_tick"
)

// Dispatcher demultiplexes inbound messages onto ClockState, Registry, and
// PeriodicState, and fans outbound messages out over ShardSender,
// ClientSender, and PeerSender. Multiple worker goroutines call into the
// same Dispatcher concurrently; it holds no state of its own beyond the
// request id counter, which is why that counter is atomic rather than
// guarded by one of the three component mutexes.
type Dispatcher struct {
	self      proto.VTID
	numVTs    int
	numShards int

	clock    *ClockState
	registry *Registry
	periodic *PeriodicState
	peerSync *PeerSync

	names   NameMapper
	shards  ShardSender
	clients ClientSender
	peers   PeerSender
	bus     Bus

	ids *RequestIDAllocator
}

// NewDispatcher wires a Dispatcher over an already-constructed ClockState,
// Registry, PeriodicState, and PeerSync, sharing ids (the request_id
// allocator) with the Timer.
func NewDispatcher(self proto.VTID, numVTs, numShards int, clock *ClockState, registry *Registry,
	periodic *PeriodicState, ids *RequestIDAllocator, names NameMapper, shards ShardSender,
	clients ClientSender, peers PeerSender, peerSync *PeerSync, bus Bus) *Dispatcher {
	return &Dispatcher{
		self:      self,
		numVTs:    numVTs,
		numShards: numShards,
		clock:     clock,
		registry:  registry,
		periodic:  periodic,
		peerSync:  peerSync,
		ids:       ids,
		names:     names,
		shards:    shards,
		clients:   clients,
		peers:     peers,
		bus:       bus,
	}
}

func (d *Dispatcher) allocateRequestID() proto.RequestID {
	return d.ids.Next()
}

// Clock exposes the ClockState backing this Dispatcher, for the metrics
// collector's read-only QTS snapshot.
func (d *Dispatcher) Clock() *ClockState {
	return d.clock
}

// Registry exposes the Registry backing this Dispatcher, for the metrics
// collector's read-only outstanding-count snapshot.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// ClientTxInit admits a new transaction: assign QTS and a vector-clock
// timestamp, register the fan-out, and send one TX_INIT per participating
// shard. Each write already names its shard; no name-mapper lookup is made
// here, and the only rejection (CLIENT_TX_FAIL) is for an empty write list.
func (d *Dispatcher) ClientTxInit(req proto.ClientTxInit) {
	if len(req.Writes) == 0 {
		log.WithFields(log.Fields{"client": req.ClientID}).WithError(ErrValidation).Debug("timestamper: rejected ClientTxInit")
		d.clients.SendTxFail(req.ClientID, proto.ClientTxFail{Reason: ErrValidation.Error()})
		return
	}

	writes := req.Writes
	timestamp, _, perWrite := d.clock.AdvanceForTx(writes)
	for i := range writes {
		writes[i].QTS = perWrite[i]
	}

	byShard := make(map[proto.ShardID][]proto.Write)
	for _, w := range writes {
		byShard[w.Shard] = append(byShard[w.Shard], w)
	}

	id := d.allocateRequestID()
	d.registry.RegisterTx(id, req.ClientID, uint32(len(byShard)))

	for shard, writes := range byShard {
		err := d.shards.SendTxInit(shard, proto.TxInit{
			VT:        d.self,
			RequestID: id,
			Timestamp: timestamp,
			Writes:    writes,
		})
		if err != nil {
			log.WithFields(log.Fields{"shard": shard, "request_id": uint64(id)}).
				WithError(err).Warn("timestamper: tx_init send failed")
		}
	}
}

// TxDone handles one shard's acknowledgement of a transaction; on the last
// ack it notifies the client.
func (d *Dispatcher) TxDone(req proto.TxDone) {
	client, done, found := d.registry.TxShardAck(req.RequestID)
	if !found {
		log.WithFields(logFields(req.RequestID)).WithError(ErrStaleReply).Debug("timestamper: dropped TX_DONE")
		return
	}
	if done {
		d.clients.SendTxDone(client, proto.ClientTxDone{RequestID: req.RequestID})
	}
}

// ClientNodeProgReq admits a new node program: resolve its initial handles
// to shards (replicating to every shard if the request carries the global
// sentinel handle), advance the program clock, register it, and send one
// NODE_PROG per participating shard.
func (d *Dispatcher) ClientNodeProgReq(req proto.ClientNodeProgReq) {
	var targets []proto.ShardID
	global := req.Handle == proto.GlobalHandle
	if global {
		targets = make([]proto.ShardID, d.numShards)
		for s := 0; s < d.numShards; s++ {
			targets[s] = proto.ShardID(s)
		}
	} else {
		shard, err := d.names.Resolve(req.Handle)
		if err != nil {
			log.WithFields(log.Fields{"client": req.ClientID, "handle": req.Handle}).
				WithError(ErrValidation).Debug("timestamper: rejected ClientNodeProgReq")
			d.clients.SendTxFail(req.ClientID, proto.ClientTxFail{Reason: ErrValidation.Error()})
			return
		}
		targets = []proto.ShardID{shard}
	}

	timestamp := d.clock.AdvanceForProg()
	id := d.allocateRequestID()
	d.registry.RegisterProg(id, req.ClientID, timestamp)

	for _, shard := range targets {
		err := d.shards.SendNodeProg(shard, proto.NodeProg{
			VT:        d.self,
			RequestID: id,
			Type:      req.Type,
			Global:    global,
			Timestamp: timestamp,
			Args:      req.Args,
		})
		if err != nil {
			log.WithFields(log.Fields{"shard": shard, "request_id": uint64(id)}).
				WithError(err).Warn("timestamper: node_prog send failed")
		}
	}
}

// NodeProgReturn forwards a shard's node-program reply to the original
// client, inserts a DoneRequestLedger entry, and retires the program.
// A reply for an id this VT no longer recognizes is a StaleReply: logged
// and dropped, not fatal.
func (d *Dispatcher) NodeProgReturn(req proto.NodeProgReturn) {
	client, ok := d.registry.ProgShardReply(req.RequestID)
	if !ok {
		log.WithFields(logFields(req.RequestID)).WithError(ErrStaleReply).Debug("timestamper: dropped NODE_PROG_RETURN")
		return
	}
	d.clients.SendProgReturn(client, req)
	d.registry.InsertLedger(req.Type, req.RequestID)
	d.registry.MarkDone(req.RequestID)
}

// VTClockUpdate raises this VT's view of a peer's clock entry and replies
// with an ack.
func (d *Dispatcher) VTClockUpdate(msg proto.ClockUpdate) {
	if err := d.clock.RaiseRemote(int(msg.VT), msg.Value); err != nil {
		log.WithFields(log.Fields{"peer": msg.VT}).WithError(ErrUnknownPeer).Warn("timestamper: rejected VT_CLOCK_UPDATE")
		return
	}
	d.peers.SendClockUpdateAck(msg.VT, proto.ClockUpdateAck{VT: d.self})
}

// VTClockUpdateAck counts one ack toward the peer-gossip quorum.
func (d *Dispatcher) VTClockUpdateAck(msg proto.ClockUpdateAck) {
	d.peerSync.OnAck()
}

// VTNopAck rearms a shard's NOP eligibility and refreshes its node count.
func (d *Dispatcher) VTNopAck(msg proto.NopAck) {
	if int(msg.Shard) >= d.numShards {
		log.WithFields(log.Fields{"shard": msg.Shard}).WithError(ErrUnknownShard).Warn("timestamper: VT_NOP_ACK from unknown shard")
		return
	}
	d.periodic.onNopAck(int(msg.Shard), msg.NodeCount)
}

// LoadedGraph, MsgCounts and MigrationToken are passthrough aggregators;
// they publish to Bus and never touch ClockState, Registry, or
// PeriodicState.
func (d *Dispatcher) LoadedGraph(msg proto.LoadedGraph) {
	if d.bus != nil {
		d.bus.Publish(TopicGraphLoaded, msg)
	}
}

// MsgCounts aggregates the CLIENT_MSG_COUNT/MSG_COUNT/CLIENT_NODE_COUNT
// counter family.
func (d *Dispatcher) MsgCounts(msg proto.MsgCounts) {
	if d.bus != nil {
		d.bus.Publish(TopicMsgCount, msg)
	}
}

// MigrationToken relays a shard-rebalancing hand-off verbatim to the next
// hop without interpreting it.
func (d *Dispatcher) MigrationToken(msg proto.MigrationToken, forward func(proto.MigrationToken) error) {
	if d.bus != nil {
		d.bus.Publish(TopicMigration, msg)
	}
	if forward == nil {
		return
	}
	if err := forward(msg); err != nil {
		log.WithError(err).Warn("timestamper: migration token relay failed")
	}
}
