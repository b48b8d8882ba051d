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
	"container/heap"

	"github.com/CovenantSQL/vectortime/proto"
)

// requestIDHeap is a min-heap of request ids. Both PendingProgQueue and
// DoneProgQueue are one of these; there is no priority-queue library in the
// retrieved corpus sized for a plain uint64 heap, so this wraps
// container/heap directly.
type requestIDHeap []proto.RequestID

func (h requestIDHeap) Len() int            { return len(h) }
func (h requestIDHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h requestIDHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *requestIDHeap) Push(x interface{}) { *h = append(*h, x.(proto.RequestID)) }
func (h *requestIDHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// progQueue is a thin wrapper giving PendingProgQueue/DoneProgQueue their
// spec-level names (top/push/pop) over the stdlib heap.
type progQueue struct {
	h requestIDHeap
}

func newProgQueue() *progQueue {
	return &progQueue{h: requestIDHeap{}}
}

func (q *progQueue) Len() int {
	return q.h.Len()
}

// top returns the smallest id without removing it. Callers must check Len()
// first; top of an empty queue panics, matching the precondition every call
// site already enforces.
func (q *progQueue) top() proto.RequestID {
	return q.h[0]
}

func (q *progQueue) push(id proto.RequestID) {
	heap.Push(&q.h, id)
}

func (q *progQueue) pop() proto.RequestID {
	return heap.Pop(&q.h).(proto.RequestID)
}
