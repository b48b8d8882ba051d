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
	"sync/atomic"

	"github.com/CovenantSQL/vectortime/proto"
)

// RequestIDAllocator hands out the 64-bit monotonically increasing
// request_id space shared by transactions, node programs, and NOPs alike --
// a single id space per VT, so Dispatcher and Timer share one allocator
// rather than each keeping their own counter.
type RequestIDAllocator struct {
	counter uint64
}

// Next returns the next unused request_id.
func (a *RequestIDAllocator) Next() proto.RequestID {
	return proto.RequestID(atomic.AddUint64(&a.counter, 1))
}
