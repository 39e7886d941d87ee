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
	"context"
	"sync"
	"time"

	libatm "github.com/nabbar/flowd/atomic"
	libdur "github.com/nabbar/flowd/duration"
	liblog "github.com/nabbar/flowd/logger"
	loglvl "github.com/nabbar/flowd/logger/level"
	libpip "github.com/nabbar/flowd/pipe"
	librun "github.com/nabbar/flowd/runner/startStop"
)

// DefaultConnTTL bounds how long a slot may sit in WAIT_CONN before it is
// failed.
const DefaultConnTTL = libdur.Duration(5 * time.Second)

// pollInterval drives WAIT_CONN retries and TTL eviction between message
// wakeups.
const pollInterval = 20 * time.Millisecond

// Config holds the tunables for a Loop.
type Config struct {
	PageSize      int
	MaxPages      int // per-slot backlog ceiling; 0 means unbounded
	QueueCapacity int
	ConnTTL       libdur.Duration
}

// Loop is the async egress scheduler: it owns a set of slots, each
// draining one async-flagged output pipe handle, and runs one background
// goroutine that walks the CREATE/READY/END/KILL message queue plus a
// WAIT_CONN TTL heap.
type Loop struct {
	cfg  Config
	pool *pagePool
	q    *msgQueue

	mu    sync.Mutex
	slots map[uint64]*Slot
	heap  *connTTLHeap

	metrics *metrics
	log     libatm.Value[liblog.FuncLog]
	rs      librun.StartStop
}

// NewLoop constructs an idle Loop; call Start to begin scheduling.
func NewLoop(cfg Config) *Loop {
	if cfg.PageSize <= 0 {
		cfg.PageSize = int(DefaultPageSize)
	}
	if cfg.ConnTTL <= 0 {
		cfg.ConnTTL = DefaultConnTTL
	}

	l := &Loop{
		cfg:     cfg,
		pool:    newPagePool(cfg.PageSize),
		q:       newMsgQueue(cfg.QueueCapacity),
		slots:   make(map[uint64]*Slot),
		heap:    newConnTTLHeap(),
		metrics: newMetrics(),
		log:     libatm.NewValue[liblog.FuncLog](),
	}
	l.q.onCoalesce = l.metrics.readyCoalesced.Inc
	l.rs = librun.New(l.run, l.close)
	return l
}

func (l *Loop) Start(ctx context.Context) error   { return l.rs.Start(ctx) }
func (l *Loop) Stop(ctx context.Context) error    { return l.rs.Stop(ctx) }
func (l *Loop) Restart(ctx context.Context) error { return l.rs.Restart(ctx) }
func (l *Loop) IsRunning() bool                   { return l.rs.IsRunning() }
func (l *Loop) Uptime() time.Duration             { return l.rs.Uptime() }

// Register admits a new output handle to the loop. h must be an async,
// output-direction handle.
func (l *Loop) Register(id uint64, h *libpip.Handle) error {
	if h == nil {
		return ErrorInvalidArgument.Error()
	}
	if h.Direction() != libpip.DirectionOutput {
		return ErrorInvalidArgument.Error()
	}

	l.mu.Lock()
	if _, exists := l.slots[id]; exists {
		l.mu.Unlock()
		return ErrorSlotAlreadyExists.Error()
	}
	s := newSlot(id, h, l.pool, l.cfg.MaxPages)
	l.slots[id] = s
	l.mu.Unlock()

	l.metrics.slotsCreated.Inc()
	l.logSlot(loglvl.DebugLevel, "egress slot registered", id, nil)
	return l.q.postCreate(id)
}

// Attach is Register plus binding the loop itself as h's async sink (via
// libpip.Handle.SetAsyncSink), so that every subsequent h.Write is
// transparently redirected into the slot's backlog instead of driving the
// module synchronously. Callers that want the loop to own an async-flagged
// handle end to end should use Attach instead of Register.
func (l *Loop) Attach(id uint64, h *libpip.Handle) error {
	if err := l.Register(id, h); err != nil {
		return err
	}
	h.SetAsyncSink(&sinkAdapter{loop: l, id: id})
	return nil
}

// sinkAdapter satisfies libpip.AsyncSink over one registered slot.
type sinkAdapter struct {
	loop *Loop
	id   uint64
}

func (a *sinkAdapter) Stage(data []byte) error { return a.loop.Stage(a.id, data) }

// Stage hands unsent bytes to a registered slot and wakes the loop.
func (l *Loop) Stage(id uint64, data []byte) error {
	s, ok := l.lookup(id)
	if !ok {
		return ErrorSlotNotFound.Error()
	}
	if err := s.stage(data); err != nil {
		return err
	}
	return l.q.postReady(id)
}

// End marks a slot's producer as finished: the loop drains the remaining
// backlog and then transitions to FINISHED.
func (l *Loop) End(id uint64) error {
	s, ok := l.lookup(id)
	if !ok {
		return ErrorSlotNotFound.Error()
	}
	s.markEnd()
	return l.q.postEnd(id)
}

// Kill forces a slot straight to the error/finished transition, discarding
// any unsent backlog.
func (l *Loop) Kill(id uint64) error {
	if _, ok := l.lookup(id); !ok {
		return ErrorSlotNotFound.Error()
	}
	return l.q.postKill(id)
}

// SlotState reports a registered slot's current position in the state
// machine.
func (l *Loop) SlotState(id uint64) (State, bool) {
	s, ok := l.lookup(id)
	if !ok {
		return StateCreated, false
	}
	return s.getState(), true
}

func (l *Loop) lookup(id uint64) (*Slot, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[id]
	return s, ok
}

func (l *Loop) forget(id uint64) {
	l.mu.Lock()
	delete(l.slots, id)
	l.mu.Unlock()
	l.heap.remove(id)
}

// run is the loop's body, one iteration per wakeup:
//  1. drain pending CREATE/READY/END/KILL messages
//  2. for each touched slot, attempt to drain its backlog
//  3. slots that would block move to WAIT_CONN with a TTL
//  4. expired WAIT_CONN slots raise an error
//  5. slots whose backlog is empty and whose producer ended finish
//  6. sleep until the next message or the next TTL deadline
func (l *Loop) run(ctx context.Context) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		drained := l.q.drain()
		l.metrics.queueDepth.Set(float64(len(drained)))
		for _, m := range drained {
			l.handleMessage(m)
		}

		l.retryWaitConn()
		l.expireWaitConn()

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (l *Loop) close(ctx context.Context) error {
	l.mu.Lock()
	ids := make([]uint64, 0, len(l.slots))
	for id := range l.slots {
		ids = append(ids, id)
	}
	l.mu.Unlock()

	for _, id := range ids {
		if s, ok := l.lookup(id); ok {
			_ = s.finish(true)
		}
		l.forget(id)
	}
	return nil
}

func (l *Loop) handleMessage(m message) {
	s, ok := l.lookup(m.id)
	if !ok {
		return
	}

	switch m.kind {
	case msgCreate:
		s.setState(StateWaitData)

	case msgReady:
		if s.getState() == StateWaitConn {
			return
		}
		s.setState(StateReady)
		l.drainSlot(s)

	case msgEnd:
		l.drainSlot(s)
		if s.isEmpty() {
			l.finishSlot(s, false)
		}

	case msgKill:
		l.finishSlot(s, s.lastError() != nil)
	}
}

// drainSlot attempts to push a slot's whole backlog through the handle,
// stopping at the first would-block or error. The TTL deadline is armed
// only on the transition into WAIT_CONN; a retry that blocks again keeps
// the original deadline, so a peer that never drains cannot slide its own
// eviction forward.
func (l *Loop) drainSlot(s *Slot) {
	for {
		wrote, blocked, err := s.drainOnce()
		if err != nil {
			l.metrics.slotErrors.Inc()
			l.logSlot(loglvl.ErrorLevel, "egress slot failed while draining", s.id, err)
			l.finishSlot(s, true)
			return
		}
		if blocked {
			if s.getState() != StateWaitConn {
				s.setState(StateWaitConn)
				l.heap.push(s.id, l.cfg.ConnTTL.Time())
			}
			return
		}
		if !wrote {
			break
		}
	}

	l.heap.remove(s.id)
	if s.isEmpty() {
		if s.isEnded() {
			l.finishSlot(s, false)
			return
		}
		s.setState(StateWaitData)
		return
	}
	s.setState(StateReady)
}

func (l *Loop) retryWaitConn() {
	l.mu.Lock()
	ids := make([]uint64, 0, len(l.slots))
	for id, s := range l.slots {
		if s.getState() == StateWaitConn {
			ids = append(ids, id)
		}
	}
	l.mu.Unlock()

	for _, id := range ids {
		if s, ok := l.lookup(id); ok {
			l.drainSlot(s)
		}
	}
}

func (l *Loop) expireWaitConn() {
	for _, id := range l.heap.expired(time.Now()) {
		if s, ok := l.lookup(id); ok {
			l.metrics.slotTimeouts.Inc()
			l.logSlot(loglvl.WarnLevel, "egress slot evicted after wait_conn ttl", id, nil)
			l.finishSlot(s, true)
		}
	}
}

func (l *Loop) finishSlot(s *Slot, errored bool) {
	state := StateFinished
	if errored {
		state = StateError
	}
	s.setState(StateRaising)
	_ = s.finish(errored)
	s.setState(state)
	l.metrics.slotsFinished.Inc()
	l.forget(s.id)
}
