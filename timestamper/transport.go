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

// ShardSender is the outbound path to storage shards. Implemented by the
// rpc package; the core only depends on this interface so it never holds a
// lock across a send.
type ShardSender interface {
	SendTxInit(shard proto.ShardID, msg proto.TxInit) error
	SendNodeProg(shard proto.ShardID, msg proto.NodeProg) error
	SendNop(shard proto.ShardID, msg proto.Nop) error
}

// ClientSender is the outbound path to client endpoints.
type ClientSender interface {
	SendTxDone(client proto.ClientID, msg proto.ClientTxDone) error
	SendTxFail(client proto.ClientID, msg proto.ClientTxFail) error
	SendProgReturn(client proto.ClientID, msg proto.NodeProgReturn) error
}

// PeerSender is the outbound path to peer VTs.
type PeerSender interface {
	SendClockUpdate(peer proto.VTID, msg proto.ClockUpdate) error
	SendClockUpdateAck(peer proto.VTID, msg proto.ClockUpdateAck) error
}

// NameMapper resolves a client-supplied logical handle to the shard that
// owns it. Its implementation lives outside this package; the core only
// consumes it.
type NameMapper interface {
	Resolve(handle uint64) (proto.ShardID, error)
}
