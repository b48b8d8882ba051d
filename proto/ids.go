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

// Package proto holds the wire identifiers and message payload shapes
// exchanged between a vector timestamper, its shards, its clients and its
// peer VTs. Nothing in this package interprets program payloads; they are
// carried as opaque bytes.
package proto

// VTID identifies one vector-timestamper replica, in [0, NUM_VTS).
type VTID uint32

// ShardID identifies one storage shard, in [0, NUM_SHARDS).
type ShardID uint32

// RequestID is a 64-bit value unique within the issuing VT, monotonically
// increasing across admissions.
type RequestID uint64

// ClientID is an opaque endpoint identifier supplied by the transport.
type ClientID string

// ProgType tags a node program's kind, carried only so the core can key
// DoneRequestLedger and label metrics and log fields; payloads remain
// opaque. Grounded on the per-program request/response shapes retrieved
// from the original node_prog sources (reachability, edge-property-get,
// and cause-and-effect causality trace).
type ProgType uint8

// Registered program types.
const (
	ProgTypeUnknown ProgType = iota
	ProgTypeReachability
	ProgTypeEdgeGet
	ProgTypeCauseAndEffect
)

// String renders a ProgType by name, for logging.
func (t ProgType) String() string {
	switch t {
	case ProgTypeReachability:
		return "reachability"
	case ProgTypeEdgeGet:
		return "edge_get"
	case ProgTypeCauseAndEffect:
		return "cause_and_effect"
	default:
		return "unknown"
	}
}

// GlobalHandle is the sentinel node handle meaning "every shard", used to
// flag a node program request as global rather than targeted.
const GlobalHandle uint64 = ^uint64(0)
