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
	"sync"

	libpip "github.com/nabbar/flowd/pipe"
)

// Slot pairs one async-flagged output pipe handle with the backlog buffer
// the loop drains into it. A slot is only ever mutated by its owning loop's
// run goroutine except for stage/markEnd, which are called from
// producer goroutines and take the slot's own lock: the slot's state
// word is owned by the loop; the backlog chain is the one piece producers
// touch directly, under its own lock.
type Slot struct {
	mu sync.Mutex

	id     uint64
	handle *libpip.Handle
	chain  *bufferChain

	state State
	ended bool
	err   error
}

func newSlot(id uint64, h *libpip.Handle, pool *pagePool, maxPages int) *Slot {
	return &Slot{
		id:     id,
		handle: h,
		chain:  newBufferChain(pool, maxPages),
		state:  StateCreated,
	}
}

// stage is the slot's half of the sync-write-then-spill policy:
// "the layer may try one synchronous non-blocking write directly; only the
// remainder spills into the async slot". Whenever the backlog is empty at
// the moment a producer stages bytes, stage first attempts a WriteThrough
// straight through the handle and only queues what that write did not
// place; once the chain already holds bytes, a later call must queue
// behind them instead, since jumping a later write ahead of an earlier one
// still waiting to drain would reorder the stream. Returns ErrorOverflow if
// the slot's page ceiling is exceeded.
func (s *Slot) stage(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.terminal() {
		return ErrorSlotFailed.Error()
	}

	if s.chain.empty() {
		n, werr := s.handle.WriteThrough(data)
		if werr != nil {
			s.state = StateRaising
			s.err = werr
			return werr
		}
		data = data[n:]
		if len(data) == 0 {
			return nil
		}
	}

	if err := s.chain.append(data); err != nil {
		s.state = StateRaising
		s.err = err
		return err
	}
	return nil
}

func (s *Slot) markEnd() {
	s.mu.Lock()
	s.ended = true
	s.mu.Unlock()
}

// drainOnce attempts a single non-blocking write of the slot's pending
// backlog to the underlying module through the pipe handle. It
// never blocks: the handle's Write contract guarantees (0, nil) on
// would-block.
func (s *Slot) drainOnce() (wrote bool, blocked bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	front := s.chain.front()
	if len(front) == 0 {
		return false, false, nil
	}

	n, werr := s.handle.WriteThrough(front)
	if werr != nil {
		s.state = StateRaising
		s.err = werr
		return false, false, werr
	}
	if n == 0 {
		return false, true, nil
	}

	s.chain.consume(n)
	return true, false, nil
}

func (s *Slot) isEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chain.empty()
}

func (s *Slot) isEnded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

func (s *Slot) getState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Slot) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Slot) lastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// finish releases the slot's pages and deallocates its pipe handle.
func (s *Slot) finish(errored bool) error {
	s.mu.Lock()
	s.chain.reset()
	s.mu.Unlock()

	return s.handle.Deallocate()
}
