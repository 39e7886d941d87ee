/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package egress

import (
	"container/heap"
	"time"
)

// waitEntry is one slot parked in the WAIT_CONN TTL heap: a
// connection that is not yet writable is parked with a deadline rather than
// polled in a busy loop.
type waitEntry struct {
	id       uint64
	deadline time.Time
	index    int
}

type waitHeap []*waitEntry

func (h waitHeap) Len() int { return len(h) }
func (h waitHeap) Less(i, j int) bool {
	return h[i].deadline.Before(h[j].deadline)
}
func (h waitHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *waitHeap) Push(x any) {
	e := x.(*waitEntry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *waitHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// connTTLHeap tracks WAIT_CONN slots keyed by id so a slot's deadline can be
// found and removed in O(log n) when it becomes writable before expiring.
type connTTLHeap struct {
	h     waitHeap
	index map[uint64]*waitEntry
}

func newConnTTLHeap() *connTTLHeap {
	return &connTTLHeap{index: make(map[uint64]*waitEntry)}
}

func (c *connTTLHeap) push(id uint64, ttl time.Duration) {
	if e, ok := c.index[id]; ok {
		e.deadline = time.Now().Add(ttl)
		heap.Fix(&c.h, e.index)
		return
	}
	e := &waitEntry{id: id, deadline: time.Now().Add(ttl)}
	heap.Push(&c.h, e)
	c.index[id] = e
}

func (c *connTTLHeap) remove(id uint64) {
	e, ok := c.index[id]
	if !ok {
		return
	}
	heap.Remove(&c.h, e.index)
	delete(c.index, id)
}

// expired pops and returns every entry whose deadline has passed.
func (c *connTTLHeap) expired(now time.Time) []uint64 {
	var out []uint64
	for len(c.h) > 0 && !c.h[0].deadline.After(now) {
		e := heap.Pop(&c.h).(*waitEntry)
		delete(c.index, e.id)
		out = append(out, e.id)
	}
	return out
}
