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

	"github.com/pkg/errors"

	"github.com/CovenantSQL/vectortime/proto"
)

// fakeTransport is an in-memory stand-in for the rpc package's ShardSender,
// ClientSender, and PeerSender, recording every send for assertions.
type fakeTransport struct {
	mu sync.Mutex

	txInits      []struct{ Shard proto.ShardID; Msg proto.TxInit }
	nodeProgs    []struct{ Shard proto.ShardID; Msg proto.NodeProg }
	nops         []struct{ Shard proto.ShardID; Msg proto.Nop }
	txDones      []struct{ Client proto.ClientID; Msg proto.ClientTxDone }
	txFails      []struct{ Client proto.ClientID; Msg proto.ClientTxFail }
	progReturns  []struct{ Client proto.ClientID; Msg proto.NodeProgReturn }
	clockUpdates []struct{ Peer proto.VTID; Msg proto.ClockUpdate }
	clockAcks    []struct{ Peer proto.VTID; Msg proto.ClockUpdateAck }
}

func (f *fakeTransport) SendTxInit(shard proto.ShardID, msg proto.TxInit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.txInits = append(f.txInits, struct {
		Shard proto.ShardID
		Msg   proto.TxInit
	}{shard, msg})
	return nil
}

func (f *fakeTransport) SendNodeProg(shard proto.ShardID, msg proto.NodeProg) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nodeProgs = append(f.nodeProgs, struct {
		Shard proto.ShardID
		Msg   proto.NodeProg
	}{shard, msg})
	return nil
}

func (f *fakeTransport) SendNop(shard proto.ShardID, msg proto.Nop) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nops = append(f.nops, struct {
		Shard proto.ShardID
		Msg   proto.Nop
	}{shard, msg})
	return nil
}

func (f *fakeTransport) SendTxDone(client proto.ClientID, msg proto.ClientTxDone) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.txDones = append(f.txDones, struct {
		Client proto.ClientID
		Msg    proto.ClientTxDone
	}{client, msg})
	return nil
}

func (f *fakeTransport) SendTxFail(client proto.ClientID, msg proto.ClientTxFail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.txFails = append(f.txFails, struct {
		Client proto.ClientID
		Msg    proto.ClientTxFail
	}{client, msg})
	return nil
}

func (f *fakeTransport) SendProgReturn(client proto.ClientID, msg proto.NodeProgReturn) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progReturns = append(f.progReturns, struct {
		Client proto.ClientID
		Msg    proto.NodeProgReturn
	}{client, msg})
	return nil
}

func (f *fakeTransport) SendClockUpdate(peer proto.VTID, msg proto.ClockUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clockUpdates = append(f.clockUpdates, struct {
		Peer proto.VTID
		Msg  proto.ClockUpdate
	}{peer, msg})
	return nil
}

func (f *fakeTransport) SendClockUpdateAck(peer proto.VTID, msg proto.ClockUpdateAck) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clockAcks = append(f.clockAcks, struct {
		Peer proto.VTID
		Msg  proto.ClockUpdateAck
	}{peer, msg})
	return nil
}

// fakeNames is a NameMapper stub resolving a fixed set of handles.
type fakeNames struct {
	table map[uint64]proto.ShardID
}

func (f *fakeNames) Resolve(handle uint64) (proto.ShardID, error) {
	shard, ok := f.table[handle]
	if !ok {
		return 0, errors.New("fakeNames: handle not found")
	}
	return shard, nil
}

// fakeBus records published ops/admin events without doing anything with
// them, standing in for chainbus.Bus in Dispatcher tests.
type fakeBus struct {
	mu      sync.Mutex
	topics  []string
	payload []interface{}
}

func (f *fakeBus) Publish(topic string, args ...interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topics = append(f.topics, topic)
	if len(args) > 0 {
		f.payload = append(f.payload, args[0])
	}
}
