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
	"github.com/CovenantSQL/vectortime/proto"
)

// dispatcher is the subset of *timestamper.Dispatcher the RPC-facing
// DispatcherService needs. Declared locally so this package never imports
// timestamper, which keeps the dependency direction one-way (timestamper
// depends on the ShardSender/ClientSender/PeerSender interfaces it declares,
// rpc depends on nothing from timestamper).
type dispatcher interface {
	ClientTxInit(req proto.ClientTxInit)
	TxDone(req proto.TxDone)
	ClientNodeProgReq(req proto.ClientNodeProgReq)
	NodeProgReturn(req proto.NodeProgReturn)
	VTClockUpdate(msg proto.ClockUpdate)
	VTClockUpdateAck(msg proto.ClockUpdateAck)
	VTNopAck(msg proto.NopAck)
	LoadedGraph(msg proto.LoadedGraph)
	MsgCounts(msg proto.MsgCounts)
	MigrationToken(msg proto.MigrationToken, forward func(proto.MigrationToken) error)
}

// DispatcherService is the net/rpc-shaped wrapper around a Dispatcher. Every
// exported method matches net/rpc's (args, *reply) error signature; since
// every inbound VT message is fire-and-forget, reply is always *Ack and
// never carries data of its own.
type DispatcherService struct {
	d       dispatcher
	forward func(proto.MigrationToken) error
}

// Ack is the empty reply body every DispatcherService method returns.
type Ack struct{}

// NewDispatcherService registers a DispatcherService wrapping d under
// serviceName (conventionally "Dispatcher", matching proto/route.go).
// forward relays a migration token to its next hop; it may be nil, in
// which case MigrationToken only publishes and never relays.
func NewDispatcherService(serviceName string, server *Server, d dispatcher, forward func(proto.MigrationToken) error) (*DispatcherService, error) {
	svc := &DispatcherService{d: d, forward: forward}
	if err := server.RegisterName(serviceName, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

// ClientTxInit handles an inbound CLIENT_TX_INIT.
func (s *DispatcherService) ClientTxInit(req proto.ClientTxInit, _ *Ack) error {
	s.d.ClientTxInit(req)
	return nil
}

// TxDone handles an inbound TX_DONE shard acknowledgement.
func (s *DispatcherService) TxDone(req proto.TxDone, _ *Ack) error {
	s.d.TxDone(req)
	return nil
}

// ClientNodeProgReq handles an inbound CLIENT_NODE_PROG_REQ.
func (s *DispatcherService) ClientNodeProgReq(req proto.ClientNodeProgReq, _ *Ack) error {
	s.d.ClientNodeProgReq(req)
	return nil
}

// NodeProgReturn handles a shard's NODE_PROG_RETURN.
func (s *DispatcherService) NodeProgReturn(req proto.NodeProgReturn, _ *Ack) error {
	s.d.NodeProgReturn(req)
	return nil
}

// VTClockUpdate handles a peer's VT_CLOCK_UPDATE.
func (s *DispatcherService) VTClockUpdate(msg proto.ClockUpdate, _ *Ack) error {
	s.d.VTClockUpdate(msg)
	return nil
}

// VTClockUpdateAck handles a peer's VT_CLOCK_UPDATE_ACK.
func (s *DispatcherService) VTClockUpdateAck(msg proto.ClockUpdateAck, _ *Ack) error {
	s.d.VTClockUpdateAck(msg)
	return nil
}

// VTNopAck handles a shard's NOP_ACK.
func (s *DispatcherService) VTNopAck(msg proto.NopAck, _ *Ack) error {
	s.d.VTNopAck(msg)
	return nil
}

// LoadedGraph handles a shard's LOADED_GRAPH counter event.
func (s *DispatcherService) LoadedGraph(msg proto.LoadedGraph, _ *Ack) error {
	s.d.LoadedGraph(msg)
	return nil
}

// MsgCounts handles a CLIENT_MSG_COUNT/MSG_COUNT/CLIENT_NODE_COUNT batch.
func (s *DispatcherService) MsgCounts(msg proto.MsgCounts, _ *Ack) error {
	s.d.MsgCounts(msg)
	return nil
}

// MigrationToken handles a shard-rebalancing hand-off. The RPC layer itself
// decides the forwarding address (the next hop's shard route), not the
// core, which is why forward is bound at construction rather than
// interpreted by the Dispatcher.
func (s *DispatcherService) MigrationToken(msg proto.MigrationToken, _ *Ack) error {
	s.d.MigrationToken(msg, s.forward)
	return nil
}
