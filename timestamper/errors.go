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
	"github.com/pkg/errors"

	"github.com/CovenantSQL/vectortime/utils/log"
)

// ErrValidation reports a bad transaction or a name-mapper miss. The caller
// replies CLIENT_TX_FAIL; no core state changes.
var ErrValidation = errors.New("timestamper: validation failed")

// ErrStaleReply reports a reply for a request_id this VT no longer knows
// about. Logged and dropped; never fatal.
var ErrStaleReply = errors.New("timestamper: stale reply for unknown request")

// ErrUnknownShard reports a message or ack naming a shard outside
// [0, NUM_SHARDS).
var ErrUnknownShard = errors.New("timestamper: unknown shard")

// ErrUnknownPeer reports a clock update from a vt_id outside [0, NUM_VTS).
var ErrUnknownPeer = errors.New("timestamper: unknown peer vt")

// protocolViolation aborts the process: a duplicate mark_done, an
// inconsistent clock/QTS size, or a heap/ledger inconsistency underpins
// correctness and cannot be locally recovered from.
func protocolViolation(msg string, fields log.Fields) {
	log.WithFields(fields).Fatal("timestamper: protocol violation: " + msg)
}
