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

import "sync"

// msgKind is the egress loop's wakeup-message taxonomy: CREATE
// registers a new slot, READY signals new bytes staged by the producer,
// END marks the producer done (drain then finish), KILL forces an
// immediate RAISING transition regardless of backlog.
type msgKind uint8

const (
	msgCreate msgKind = iota
	msgReady
	msgEnd
	msgKill
)

type message struct {
	kind msgKind
	id   uint64
}

// msgQueue is the loop's bounded inbox. READY messages are deduplicated
// with a per-slot posted bit: a producer that calls Notify repeatedly while
// the loop hasn't yet drained the previous READY only costs one queue slot:
// repeated readiness signals for the same slot collapse to one pending
// wakeup.
type msgQueue struct {
	mu     sync.Mutex
	ch     chan message
	posted map[uint64]bool

	// onCoalesce, when set, is invoked for each READY posting absorbed by
	// an already-pending readiness bit.
	onCoalesce func()
}

func newMsgQueue(capacity int) *msgQueue {
	if capacity <= 0 {
		capacity = 256
	}
	return &msgQueue{
		ch:     make(chan message, capacity),
		posted: make(map[uint64]bool),
	}
}

func (q *msgQueue) postCreate(id uint64) error {
	return q.enqueue(message{kind: msgCreate, id: id})
}

func (q *msgQueue) postEnd(id uint64) error {
	return q.enqueue(message{kind: msgEnd, id: id})
}

func (q *msgQueue) postKill(id uint64) error {
	return q.enqueue(message{kind: msgKill, id: id})
}

// postReady enqueues a readiness signal unless one is already pending for
// this slot.
func (q *msgQueue) postReady(id uint64) error {
	q.mu.Lock()
	if q.posted[id] {
		q.mu.Unlock()
		if q.onCoalesce != nil {
			q.onCoalesce()
		}
		return nil
	}
	q.posted[id] = true
	q.mu.Unlock()

	if err := q.enqueue(message{kind: msgReady, id: id}); err != nil {
		q.mu.Lock()
		delete(q.posted, id)
		q.mu.Unlock()
		return err
	}
	return nil
}

func (q *msgQueue) enqueue(m message) error {
	select {
	case q.ch <- m:
		return nil
	default:
		return ErrorQueueFull.Error()
	}
}

// drain returns every message currently buffered without blocking,
// clearing the posted bit for each READY taken so a subsequent postReady
// for the same slot is not silently swallowed while this batch is still
// being processed.
func (q *msgQueue) drain() []message {
	var out []message
	for {
		select {
		case m := <-q.ch:
			if m.kind == msgReady {
				q.mu.Lock()
				delete(q.posted, m.id)
				q.mu.Unlock()
			}
			out = append(out, m)
		default:
			return out
		}
	}
}
