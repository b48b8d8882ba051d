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

import "sync"

// CallerPool hands out one persistent Caller per address, so repeated sends
// to the same shard or peer reuse a session instead of paying a fresh
// dial+handshake every time.
type CallerPool struct {
	mu      sync.Mutex
	callers map[string]*Caller
}

// NewCallerPool returns an empty pool.
func NewCallerPool() *CallerPool {
	return &CallerPool{callers: make(map[string]*Caller)}
}

// Get returns the pool's Caller for addr, creating one on first use.
func (p *CallerPool) Get(addr string) *Caller {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.callers[addr]; ok {
		return c
	}
	c := NewCaller(addr)
	p.callers[addr] = c
	return c
}

// Close tears down every pooled Caller.
func (p *CallerPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.callers {
		c.Close()
	}
	p.callers = make(map[string]*Caller)
}
