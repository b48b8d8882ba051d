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

import "github.com/CovenantSQL/vectortime/proto"

// NameMapperResolveArgs is the argument body of NameMapperResolveRoute.
type NameMapperResolveArgs struct {
	Handle uint64
}

// NameMapperResolveReply is the reply body of NameMapperResolveRoute.
type NameMapperResolveReply struct {
	Shard proto.ShardID
}

// NameMapperClient implements timestamper.NameMapper by calling out to the
// external name-mapper service over RPC. The name mapper itself is out of
// scope; this is just the one fixed call shape the core expects of it.
type NameMapperClient struct {
	caller *Caller
}

// NewNameMapperClient returns a NameMapperClient dialing addr lazily.
func NewNameMapperClient(addr string) *NameMapperClient {
	return &NameMapperClient{caller: NewCaller(addr)}
}

// Resolve asks the name mapper which shard owns handle.
func (c *NameMapperClient) Resolve(handle uint64) (proto.ShardID, error) {
	reply := &NameMapperResolveReply{}
	if err := c.caller.Call(proto.NameMapperResolveRoute, NameMapperResolveArgs{Handle: handle}, reply); err != nil {
		return 0, err
	}
	return reply.Shard, nil
}

// Close releases the underlying connection.
func (c *NameMapperClient) Close() {
	c.caller.Close()
}
