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

package rpc

import (
	"github.com/pkg/errors"

	"github.com/CovenantSQL/vectortime/conf"
	"github.com/CovenantSQL/vectortime/proto"
)

// Transport implements timestamper.ShardSender, timestamper.ClientSender
// and timestamper.PeerSender over one CallerPool. A client's proto.ClientID
// IS its callback address: CLIENT_TX_INIT and CLIENT_NODE_PROG_REQ arrive
// from that same address, and the reply is a fresh outbound call back to
// it, so no separate client directory is needed.
type Transport struct {
	pool   *CallerPool
	config *conf.Config
}

// NewTransport builds a Transport addressing shards and peer VTs via cfg.
func NewTransport(cfg *conf.Config) *Transport {
	return &Transport{pool: NewCallerPool(), config: cfg}
}

func (t *Transport) shardAddr(shard proto.ShardID) (string, error) {
	if int(shard) >= len(t.config.Shards) {
		return "", errors.Errorf("rpc: unknown shard %d", shard)
	}
	return t.config.Shards[shard].Addr, nil
}

func (t *Transport) peerAddr(vt proto.VTID) (string, error) {
	if int(vt) >= len(t.config.VTs) {
		return "", errors.Errorf("rpc: unknown peer vt %d", vt)
	}
	return t.config.VTs[vt].Addr, nil
}

// SendTxInit delivers TX_INIT to shard.
func (t *Transport) SendTxInit(shard proto.ShardID, msg proto.TxInit) error {
	addr, err := t.shardAddr(shard)
	if err != nil {
		return err
	}
	return t.pool.Get(addr).Call(proto.ShardTxInitRoute, msg, &Ack{})
}

// SendNodeProg delivers NODE_PROG to shard.
func (t *Transport) SendNodeProg(shard proto.ShardID, msg proto.NodeProg) error {
	addr, err := t.shardAddr(shard)
	if err != nil {
		return err
	}
	return t.pool.Get(addr).Call(proto.ShardNodeProgRoute, msg, &Ack{})
}

// SendNop delivers a NOP tick to shard.
func (t *Transport) SendNop(shard proto.ShardID, msg proto.Nop) error {
	addr, err := t.shardAddr(shard)
	if err != nil {
		return err
	}
	return t.pool.Get(addr).Call(proto.ShardNopRoute, msg, &Ack{})
}

// SendTxDone notifies client of a fully-acknowledged transaction.
func (t *Transport) SendTxDone(client proto.ClientID, msg proto.ClientTxDone) error {
	return t.pool.Get(string(client)).Call(proto.ClientTxDoneRoute, msg, &Ack{})
}

// SendTxFail notifies client of a validation failure.
func (t *Transport) SendTxFail(client proto.ClientID, msg proto.ClientTxFail) error {
	return t.pool.Get(string(client)).Call(proto.ClientTxFailRoute, msg, &Ack{})
}

// SendProgReturn forwards a node-program reply to client.
func (t *Transport) SendProgReturn(client proto.ClientID, msg proto.NodeProgReturn) error {
	return t.pool.Get(string(client)).Call(proto.ClientProgReturnRoute, msg, &Ack{})
}

// SendClockUpdate gossips this VT's clock entry to peer.
func (t *Transport) SendClockUpdate(peer proto.VTID, msg proto.ClockUpdate) error {
	addr, err := t.peerAddr(peer)
	if err != nil {
		return err
	}
	return t.pool.Get(addr).Call(proto.VTClockUpdateRoute, msg, &Ack{})
}

// SendClockUpdateAck acks a peer's clock gossip.
func (t *Transport) SendClockUpdateAck(peer proto.VTID, msg proto.ClockUpdateAck) error {
	addr, err := t.peerAddr(peer)
	if err != nil {
		return err
	}
	return t.pool.Get(addr).Call(proto.VTClockUpdateAckRoute, msg, &Ack{})
}

// ForwardMigrationToken relays msg to the shard named by msg.Hop, unchanged.
// Bound into DispatcherService's forward callback by cmd/vtd so the RPC
// layer -- the only place that knows shard addresses -- decides where a
// migration hand-off goes next, without the core interpreting Hop itself.
func (t *Transport) ForwardMigrationToken(msg proto.MigrationToken) error {
	addr, err := t.shardAddr(msg.Hop)
	if err != nil {
		return err
	}
	return t.pool.Get(addr).Call(proto.ShardMigrationTokenRoute, msg, &Ack{})
}

// Close releases every pooled connection.
func (t *Transport) Close() {
	t.pool.Close()
}
