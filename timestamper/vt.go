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
	"context"
	"sync"
	"time"

	"github.com/CovenantSQL/vectortime/proto"
)

// VT is the root aggregate: one explicitly constructed instance per process,
// owning the ClockState, Registry, PeriodicState, Dispatcher, Timer, and
// PeerSync for the VT's entire uptime. There is no process-wide singleton;
// every component is reached through this value: one cancellable context
// plus one WaitGroup governs every background goroutine this VT starts.
type VT struct {
	Dispatcher *Dispatcher
	Timer      *Timer
	PeerSync   *PeerSync

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// Deps bundles the external collaborators a VT consumes: shard/client/peer
// transport, the name mapper, and (optionally) an ops/admin event bus.
type Deps struct {
	Shards  ShardSender
	Clients ClientSender
	Peers   PeerSender
	Names   NameMapper
	Bus     Bus
}

// New constructs a VT for replica self within a numVTs/numShards cluster,
// ticking its Timer every period.
func New(self proto.VTID, numVTs, numShards int, period time.Duration, deps Deps) (*VT, error) {
	clock, err := NewClockState(numVTs, numShards, int(self))
	if err != nil {
		return nil, err
	}
	registry := NewRegistry(numShards)
	periodic := NewPeriodicState(numVTs, numShards)
	ids := &RequestIDAllocator{}
	peerSync := NewPeerSync(self, numVTs, clock, periodic, deps.Peers)

	ctx, cancel := context.WithCancel(context.Background())
	vt := &VT{
		Dispatcher: NewDispatcher(self, numVTs, numShards, clock, registry, periodic, ids,
			deps.Names, deps.Shards, deps.Clients, deps.Peers, peerSync, deps.Bus),
		Timer: NewTimer(self, numVTs, numShards, period, clock, registry, periodic, ids, deps.Shards,
			peerSync, deps.Bus),
		PeerSync: peerSync,
		ctx:      ctx,
		cancel:   cancel,
	}
	return vt, nil
}

// goFunc starts f in a goroutine tracked by the VT's WaitGroup, passing it
// the VT's lifetime context.
func (vt *VT) goFunc(f func(ctx context.Context)) {
	vt.wg.Add(1)
	go func() {
		defer vt.wg.Done()
		f(vt.ctx)
	}()
}

// Start launches the Timer's periodic loop. Dispatcher worker goroutines are
// the caller's responsibility (they live in the transport layer, which owns
// the accept loop); Start only covers the background task the core itself
// must run unconditionally.
func (vt *VT) Start() {
	vt.goFunc(vt.Timer.Run)
}

// Stop cancels the VT's context and waits for every tracked goroutine to
// return. Outstanding in-memory state is dropped; nothing here persists
// across a restart.
func (vt *VT) Stop() {
	vt.cancel()
	vt.wg.Wait()
}
