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

package vclock

import "github.com/pkg/errors"

// QTS is a length-NUM_SHARDS counter vector: qts[s] is the number of events
// this VT has scheduled at shard s (one per transaction write, plus nops).
// Shards execute events from a given VT strictly in QTS order, so each
// counter must be strictly increasing.
type QTS struct {
	count []uint64
}

// NewQTS returns a zeroed QTS of the given length (NUM_SHARDS).
func NewQTS(length int) (*QTS, error) {
	if length <= 0 {
		return nil, errors.New("vclock: qts length must be positive")
	}
	return &QTS{count: make([]uint64, length)}, nil
}

// Len returns NUM_SHARDS.
func (q *QTS) Len() int {
	if q == nil {
		return 0
	}
	return len(q.count)
}

// At returns the counter for shard s.
func (q *QTS) At(s int) uint64 {
	return q.count[s]
}

// Advance increments shard s's counter and returns the new value -- the
// value assigned to whatever event (write or nop) is about to be sent to s.
func (q *QTS) Advance(s int) (uint64, error) {
	if s < 0 || s >= len(q.count) {
		return 0, errors.Errorf("vclock: shard %d out of range [0,%d)", s, len(q.count))
	}
	q.count[s]++
	return q.count[s], nil
}

// Clone returns a deep copy.
func (q *QTS) Clone() *QTS {
	out := &QTS{count: make([]uint64, len(q.count))}
	copy(out.count, q.count)
	return out
}

// Snapshot copies the counters out as a plain slice for embedding in a wire
// message.
func (q *QTS) Snapshot() []uint64 {
	out := make([]uint64, len(q.count))
	copy(out, q.count)
	return out
}
