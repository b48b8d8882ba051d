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

// PeerSync is the named inter-VT clock exchange and ack-counting component.
// Its mechanics live in ClockState (the value being gossiped) and
// PeriodicState (the ack quorum); PeerSync gives them an explicit op set:
// Gossip, OnAck, ReadyForGossip. Timer.gossipPath and
// Dispatcher.VTClockUpdateAck are its only callers.
type PeerSync struct {
	self   proto.VTID
	numVTs int

	clock    *ClockState
	periodic *PeriodicState
	peers    PeerSender
}

// NewPeerSync wires a PeerSync over an already-constructed ClockState and
// PeriodicState.
func NewPeerSync(self proto.VTID, numVTs int, clock *ClockState, periodic *PeriodicState, peers PeerSender) *PeerSync {
	return &PeerSync{self: self, numVTs: numVTs, clock: clock, periodic: periodic, peers: peers}
}

// Gossip sends this VT's own clock entry to every peer VT.
func (p *PeerSync) Gossip() {
	value := p.clock.LocalEntry()
	for vt := 0; vt < p.numVTs; vt++ {
		if vt == int(p.self) {
			continue
		}
		err := p.peers.SendClockUpdate(proto.VTID(vt), proto.ClockUpdate{VT: p.self, Value: value})
		if err != nil {
			log.WithFields(log.Fields{"peer": vt}).WithError(err).Warn("timestamper: gossip send failed")
		}
	}
}

// OnAck counts one VT_CLOCK_UPDATE_ACK toward the gossip quorum.
func (p *PeerSync) OnAck() {
	p.periodic.onClockUpdateAck()
}

// ReadyForGossip reports whether every peer has ack'd the previous gossip
// round, resetting the quorum counter if so.
func (p *PeerSync) ReadyForGossip() bool {
	return p.periodic.readyForGossipAndReset()
}
