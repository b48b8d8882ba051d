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

package proto

// Write is one update within a transaction, addressed to a single shard and
// carrying the QTS value ClockState assigned it at admission.
type Write struct {
	Shard   ShardID
	QTS     uint64
	Payload []byte
}

// ClientTxInit is the inbound request admitting a new transaction.
type ClientTxInit struct {
	ClientID ClientID
	Writes   []Write
}

// ClientTxFail is the outbound reply when admission fails validation.
type ClientTxFail struct {
	Reason string
}

// ClientTxDone is the outbound reply once every participating shard has
// ack'd a transaction.
type ClientTxDone struct {
	RequestID RequestID
}

// TxInit is what a shard actually receives: this VT's timestamp and the
// slice of writes addressed to that shard.
type TxInit struct {
	VT        VTID
	RequestID RequestID
	Timestamp []uint64 // VectorClock snapshot at admission
	Writes    []Write
}

// TxDone is a shard's acknowledgement that it applied its share of a
// transaction.
type TxDone struct {
	RequestID RequestID
}

// ClientNodeProgReq is the inbound request admitting a new node program.
// A Handle equal to GlobalHandle flags the request as global.
type ClientNodeProgReq struct {
	ClientID ClientID
	Type     ProgType
	Handle   uint64
	Args     []byte
}

// NodeProg is what a shard receives to start executing its share of a node
// program.
type NodeProg struct {
	VT        VTID
	RequestID RequestID
	Type      ProgType
	Global    bool
	Timestamp []uint64
	Args      []byte
}

// NodeProgReturn carries a shard's reply to a node program back through the
// VT to the original client, unchanged.
type NodeProgReturn struct {
	Type      ProgType
	RequestID RequestID
	Payload   []byte
}

// DoneReq names one retired request within a NOP's per-shard done-list.
type DoneReq struct {
	RequestID RequestID
	Type      ProgType
}

// Nop is the periodic heartbeat a VT sends a shard: its own clocks, the
// request id assigned to this tick, the shard's done-list, and the current
// global frontier.
type Nop struct {
	VT                  VTID
	RequestID           RequestID
	VectorClock         []uint64
	QTS                 []uint64
	DoneReqs            []DoneReq
	MaxDoneID           RequestID
	MaxDoneClock        []uint64
	NumOutstandingProgs uint64
	ShardNodeCounts     []uint64
}

// NopAck is a shard's reply to a Nop: it rearms ToNopMask for that shard and
// refreshes ShardNodeCount.
type NopAck struct {
	Shard     ShardID
	NodeCount uint64
}

// ClockUpdate gossips one VT's own vector-clock entry to a peer.
type ClockUpdate struct {
	VT    VTID
	Value uint64
}

// ClockUpdateAck acknowledges a ClockUpdate; it carries no payload beyond
// the envelope identifying the sender.
type ClockUpdateAck struct {
	VT VTID
}

// LoadedGraph reports a shard finishing an initial graph load; ops
// aggregation only, never touches core invariants.
type LoadedGraph struct {
	Shard    ShardID
	LoadTime uint64 // nanoseconds
}

// MsgCounts carries the CLIENT_MSG_COUNT / MSG_COUNT / CLIENT_NODE_COUNT
// family of passthrough counters.
type MsgCounts struct {
	ClientMsgCount  uint64
	MsgCount        uint64
	ClientNodeCount uint64
}

// MigrationToken is relayed verbatim between shards during rebalancing; the
// VT core forwards it without interpreting Hop or Epoch.
type MigrationToken struct {
	Hop      ShardID
	SourceVT VTID
	Epoch    uint64
	Payload  []byte
}
