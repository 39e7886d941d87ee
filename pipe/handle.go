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

package pipe

import (
	"sync"
)

// Handle is one end of a pipe. Companion handles - typically one
// input and one output, plus any shadow forks - share a *resource and
// therefore its flag word, but each Handle keeps its own direction, header
// bookkeeping and module payload reference.
type Handle struct {
	mu sync.Mutex

	res *resource
	dir Direction

	// payload is this handle's module-private state. For an allocate/accept
	// pair the two payloads are distinct values the module correlated
	// itself; for a fork the shadow gets whatever ModuleForker.Fork returns.
	payload any

	headerSize int
	headerPos  int

	// headerBuf collects the typed-header bytes an input handle silently
	// drains off the module before any body byte is returned; the caller
	// retrieves them with Cntl(CntlHeaderRead).
	headerBuf []byte

	state *pushedState

	// popped keeps frames returned by PopState alive until Deallocate: a
	// popped value may still be in use by a running task, so its dispose
	// only runs in the deallocation path.
	popped []*pushedState

	deallocated bool
	errored     bool

	// holdRelease is set on a freshly forked shadow (FlagShadowHold) and
	// cleared by the first Cntl(CntlFlagClear, FlagShadowHold) or by a
	// Deallocate that finds the shadow was never claimed.
	holdRelease bool

	// sink, when set on an async-flagged output handle, receives every
	// Write instead of the module (egress for this pipe is deferred
	// to the async loop). WriteThrough bypasses it; the loop uses
	// WriteThrough to perform the real, deferred write.
	sink AsyncSink
}

// AsyncSink is the hand-off point a would-be synchronous Write redirects to
// once a handle carries FlagAsync and has had a sink bound with
// SetAsyncSink. The egress loop is the only implementation; it is defined
// here, not there, so this package never imports the loop and the loop can
// still depend on *Handle.
type AsyncSink interface {
	Stage(data []byte) error
}

// SetAsyncSink binds the handle's deferred-egress destination. It is a
// no-op concern unless FlagAsync is also set on the resource; call it once,
// at the same point the caller decided to flag the pipe async.
func (h *Handle) SetAsyncSink(s AsyncSink) {
	h.mu.Lock()
	h.sink = s
	h.mu.Unlock()
}

func newHandle(res *resource, dir Direction, payload any, headerSize int) *Handle {
	return &Handle{res: res, dir: dir, payload: payload, headerSize: headerSize}
}

// Direction reports whether this handle reads or writes.
func (h *Handle) Direction() Direction { return h.dir }

// Flags reads the pipe's shared flag word.
func (h *Handle) Flags() Flags { return h.res.flags.Load() }

func (h *Handle) checkAlive() error {
	h.mu.Lock()
	dead := h.deallocated
	hold := h.holdRelease
	h.mu.Unlock()
	if dead {
		return ErrorHandleClosed.Error()
	}
	if hold {
		return ErrorShadowHold.Error()
	}
	return nil
}

// Read pulls bytes from the module. While the handle's typed header is
// still unsatisfied, Read silently drains header bytes off the module
// first (retrievable via Cntl(CntlHeaderRead)) and only then returns body
// bytes. A (0, nil) return means would-block, never end-of-stream; callers
// distinguish end-of-stream via HasUnreadData or an explicit EOM contract
// at the servlet layer.
func (h *Handle) Read(buf []byte) (int, error) {
	if err := h.checkAlive(); err != nil {
		return 0, err
	}
	if h.dir != DirectionInput {
		return 0, ErrorDirectionMismatch.Error()
	}
	r, ok := h.res.mod.(ModuleReader)
	if !ok {
		return 0, ErrorUnsupportedOp.Error()
	}

	h.mu.Lock()
	need := h.headerSize - h.headerPos
	h.mu.Unlock()

	if need > 0 {
		tmp := make([]byte, need)
		n, err := r.Read(h.payload, tmp)
		if err != nil {
			h.markErrored()
			return 0, ErrorTransportFailure.Error(err)
		}
		if n > 0 {
			h.mu.Lock()
			h.headerBuf = append(h.headerBuf, tmp[:n]...)
			h.mu.Unlock()
			h.advanceHeader(n)
		}
		if n < need {
			return 0, nil
		}
	}

	n, err := r.Read(h.payload, buf)
	if err != nil {
		h.markErrored()
		return n, ErrorTransportFailure.Error(err)
	}
	return n, nil
}

// Write pushes bytes through the module, accounting header bytes as they go
// by so the remainder can be zero-padded at Deallocate if the caller never
// finishes writing a full typed header.
//
// If the pipe carries FlagAsync and a sink has been bound with
// SetAsyncSink, Write hands data to the sink instead of the module: the
// caller sees it accepted in full immediately, and the async loop performs
// the real, deferred write via WriteThrough.
func (h *Handle) Write(data []byte) (int, error) {
	if err := h.checkAlive(); err != nil {
		return 0, err
	}
	if h.dir != DirectionOutput {
		return 0, ErrorDirectionMismatch.Error()
	}

	h.mu.Lock()
	sink := h.sink
	h.mu.Unlock()
	if sink != nil && h.Flags()&FlagAsync != 0 {
		if err := sink.Stage(data); err != nil {
			return 0, err
		}
		h.res.propagate(FlagTouched)
		return len(data), nil
	}

	return h.WriteThrough(data)
}

// WriteThrough performs the write against the module directly, bypassing
// any bound async sink. The egress loop uses this to drain a slot's
// backlog; nothing else should need it.
//
// If the handle still has an unsatisfied typed header,
// the remaining header bytes are zero-padded to the module first, and only
// then is data written - so the wire order is always header-then-body,
// never the reverse.
func (h *Handle) WriteThrough(data []byte) (int, error) {
	w, ok := h.res.mod.(ModuleWriter)
	if !ok {
		return 0, ErrorUnsupportedOp.Error()
	}

	h.mu.Lock()
	remaining := h.headerSize - h.headerPos
	h.mu.Unlock()

	if remaining > 0 {
		n, err := w.Write(h.payload, make([]byte, remaining))
		if err != nil {
			h.markErrored()
			return 0, ErrorTransportFailure.Error(err)
		}
		if n > 0 {
			h.res.propagate(FlagTouched)
			h.advanceHeader(n)
		}
		if n < remaining {
			// would-block mid-header: report nothing written so the caller
			// retries and the header finishes before any body byte.
			return 0, nil
		}
	}

	n, err := w.Write(h.payload, data)
	if n > 0 {
		h.res.propagate(FlagTouched)
	}
	if err != nil {
		h.markErrored()
		return n, ErrorTransportFailure.Error(err)
	}
	return n, nil
}

func (h *Handle) advanceHeader(n int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.headerPos < h.headerSize {
		h.headerPos += n
		if h.headerPos > h.headerSize {
			h.headerPos = h.headerSize
		}
	}
}

// WriteDataSource pushes a caller-owned byte source into the egress path.
// A module implementing callback-write gets src handed over wholesale;
// otherwise the layer drains src synchronously through Write and closes it.
// Either way ownership of src transfers on success; on failure the caller
// must inspect ErrorOwnershipTransfer to know whether it, or the callee,
// now owns src and must Close it.
func (h *Handle) WriteDataSource(src DataSource) error {
	if err := h.checkAlive(); err != nil {
		return err
	}
	if h.dir != DirectionOutput {
		return ErrorDirectionMismatch.Error()
	}

	if wc, ok := h.res.mod.(ModuleWriteCallbacker); ok {
		if err := wc.WriteCallback(h.payload, src); err != nil {
			h.markErrored()
			return ErrorOwnershipTransfer.Error(err)
		}
		h.res.propagate(FlagTouched)
		return nil
	}

	if _, ok := h.res.mod.(ModuleWriter); !ok {
		return ErrorUnsupportedOp.Error()
	}

	buf := make([]byte, 4096)
	for {
		n, eos, err := src.Read(buf)
		if err != nil {
			_ = src.Close()
			h.markErrored()
			return ErrorOwnershipTransfer.Error(err)
		}
		for off := 0; off < n; {
			w, werr := h.Write(buf[off:n])
			if werr != nil {
				_ = src.Close()
				return ErrorOwnershipTransfer.Error(werr)
			}
			off += w
		}
		if eos {
			return src.Close()
		}
	}
}

// GetInternalBuf exposes the module's internal buffer for zero-copy reads.
// It is only honored once the declared typed header has been fully
// consumed, and only for a zero minimum: event boundaries inside a
// persistent stream make any larger minimum meaningless. The caller must
// call ReleaseInternalBuf exactly once, with the number of bytes it
// actually consumed, before issuing any other operation on this handle.
func (h *Handle) GetInternalBuf(min, max int) ([]byte, error) {
	if err := h.checkAlive(); err != nil {
		return nil, err
	}
	if min != 0 {
		return nil, ErrorInvalidArgument.Error()
	}

	h.mu.Lock()
	pending := h.headerPos < h.headerSize
	h.mu.Unlock()
	if pending {
		return nil, nil
	}

	ib, ok := h.res.mod.(ModuleInternalBufferer)
	if !ok {
		return nil, ErrorUnsupportedOp.Error()
	}
	buf, err := ib.GetInternalBuf(h.payload, min, max)
	if err != nil {
		h.markErrored()
		return nil, ErrorTransportFailure.Error(err)
	}
	return buf, nil
}

// ReleaseInternalBuf closes out a GetInternalBuf scope.
func (h *Handle) ReleaseInternalBuf(actual int) {
	if ib, ok := h.res.mod.(ModuleInternalBufferer); ok {
		ib.ReleaseInternalBuf(h.payload, actual)
	}
}

// HasUnreadData answers definitively whether more input remains; it is
// only meaningful on an input handle whose module implements the probe.
func (h *Handle) HasUnreadData() bool {
	if up, ok := h.res.mod.(ModuleUnreadProber); ok {
		return up.HasUnreadData(h.payload)
	}
	return false
}

// EOM reports unconsumed bytes past a message boundary back to the module,
// e.g. so it can push them back into a shared ring buffer for the next
// message. unconsumed is owned by the caller; EOM copies what it needs.
func (h *Handle) EOM(unconsumed []byte) error {
	if err := h.checkAlive(); err != nil {
		return err
	}
	e, ok := h.res.mod.(ModuleEOMer)
	if !ok {
		return ErrorUnsupportedOp.Error()
	}
	if err := e.EOM(h.payload, unconsumed); err != nil {
		h.markErrored()
		return ErrorTransportFailure.Error(err)
	}
	return nil
}

// PushState installs a new pushed-state frame, keeping the previous one on a
// stack so PopState can restore it. dispose, if non-nil, runs exactly once
// when the frame's last holder (this handle, or a fork sharing it) pops it.
func (h *Handle) PushState(value any, dispose func(any)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ns := newPushedState(value, dispose, 1)
	ns.prev = h.state
	h.state = ns
}

// PopState returns the current frame's value and restores the previous
// frame. The popped value stays valid - its dispose runs only once this
// handle is deallocated, since an in-flight task may still hold it.
func (h *Handle) PopState() any {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == nil {
		return nil
	}
	cur := h.state
	h.state = cur.prev
	h.popped = append(h.popped, cur)
	return cur.value
}

// CurrentState peeks the active pushed-state value without popping it.
func (h *Handle) CurrentState() any {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == nil {
		return nil
	}
	return h.state.value
}

// Fork creates a shadow reader sharing this handle's bytes. The
// shadow is born with FlagShadowHold set and only accepts Cntl until the
// caller explicitly clears the hold, which is how a servlet claims a forked
// reader it intends to keep versus one created speculatively and abandoned.
func (h *Handle) Fork() (*Handle, error) {
	if err := h.checkAlive(); err != nil {
		return nil, err
	}
	if h.dir != DirectionInput {
		return nil, ErrorDirectionMismatch.Error()
	}
	fk, ok := h.res.mod.(ModuleForker)
	if !ok {
		return nil, ErrorUnsupportedOp.Error()
	}
	shadowPayload, err := fk.Fork(h.payload)
	if err != nil {
		return nil, ErrorTransportFailure.Error(err)
	}

	shadow := newHandle(h.res, DirectionInput, shadowPayload, h.headerSize)
	h.mu.Lock()
	shadow.headerPos = h.headerPos
	shadow.headerBuf = append([]byte(nil), h.headerBuf...)
	h.mu.Unlock()
	shadow.holdRelease = true
	h.res.propagate(FlagShadow)
	h.res.addCompanion(shadow)

	if h.state != nil {
		h.state.retain()
		shadow.state = h.state
	}
	return shadow, nil
}

// Cntl dispatches a control opcode. Core opcodes (tag CntlTagCore) are
// handled here; any other tag is forwarded to the module's ModuleCntller,
// if it implements one. Cntl is the one operation permitted on a
// shadow-held handle.
func (h *Handle) Cntl(op uint32, args ...any) (any, error) {
	h.mu.Lock()
	dead := h.deallocated
	h.mu.Unlock()
	if dead {
		return nil, ErrorHandleClosed.Error()
	}

	if cntlTag(op) == CntlTagCore {
		return h.cntlCore(cntlNum(op), args...)
	}
	mc, ok := h.res.mod.(ModuleCntller)
	if !ok {
		return nil, ErrorUnsupportedOp.Error()
	}
	return mc.Cntl(h.payload, op, args...)
}

func (h *Handle) cntlCore(num uint32, args ...any) (any, error) {
	switch num {
	case CntlFlagGet:
		return h.res.flags.Load(), nil
	case CntlFlagSet:
		if len(args) != 1 {
			return nil, ErrorInvalidArgument.Error()
		}
		bits, ok := args[0].(Flags)
		if !ok {
			return nil, ErrorInvalidArgument.Error()
		}
		if bits&FlagShadowHold != 0 {
			h.mu.Lock()
			h.holdRelease = true
			h.mu.Unlock()
		}
		h.res.flags.Set(bits)
		return nil, nil
	case CntlFlagClear:
		if len(args) != 1 {
			return nil, ErrorInvalidArgument.Error()
		}
		bits, ok := args[0].(Flags)
		if !ok {
			return nil, ErrorInvalidArgument.Error()
		}
		if bits&FlagShadowHold != 0 {
			h.mu.Lock()
			h.holdRelease = false
			h.mu.Unlock()
		}
		h.res.flags.Clear(bits)
		return nil, nil
	case CntlHeaderRead:
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.dir == DirectionInput {
			return append([]byte(nil), h.headerBuf...), nil
		}
		return h.headerPos, nil
	case CntlHeaderWrite:
		if len(args) != 1 {
			return nil, ErrorInvalidArgument.Error()
		}
		n, ok := args[0].(int)
		if !ok {
			return nil, ErrorInvalidArgument.Error()
		}
		h.advanceHeader(n)
		return nil, nil
	case CntlPathGet:
		if pf, ok := h.res.mod.(ModulePathFlagger); ok {
			return pf.Path(), nil
		}
		return "", nil
	case CntlNoop:
		return nil, nil
	}
	return nil, ErrorUnsupportedOp.Error()
}

func (h *Handle) markErrored() {
	h.mu.Lock()
	h.errored = true
	h.mu.Unlock()
	h.res.propagate(FlagError)
}

// Deallocate releases the handle and, when it is the last surviving
// companion on its resource, purges the underlying module state. This
// implements the seven-step teardown sequence:
//
//  1. finish the typed header by zero-padding any bytes never written;
//  2. if this is a shadow still on hold, clear the hold without touching
//     sibling state - a speculative fork that was never claimed costs
//     nothing;
//  3. detach from the resource's companion list and learn whether this was
//     the last survivor;
//  4. an allocated (not accepted) output handle that was never touched, or
//     that is in error, marks the pipe input_cancelled for its surviving
//     companions so a downstream consumer blocked on Read learns the
//     producer gave up;
//  5. propagate the shared flag bits so every remaining companion observes
//     them;
//  6. call the module's mandatory Deallocate, with purge set only on the
//     last survivor;
//  7. drop the pushed-state stack and mark the handle dead so further
//     operations return ErrorHandleClosed.
func (h *Handle) Deallocate() error {
	h.mu.Lock()
	if h.deallocated {
		h.mu.Unlock()
		return nil
	}
	h.deallocated = true
	wasHold := h.holdRelease
	wasErrored := h.errored
	unfinishedHeader := h.headerSize - h.headerPos
	dir := h.dir
	h.mu.Unlock()

	// Step 1: zero-pad an unfinished typed header on an output handle so
	// the downstream consumer always sees a full header.
	if dir == DirectionOutput && unfinishedHeader > 0 {
		if w, ok := h.res.mod.(ModuleWriter); ok {
			pad := make([]byte, unfinishedHeader)
			if n, err := w.Write(h.payload, pad); err == nil {
				h.advanceHeader(n)
			}
		}
	}

	// Step 2: a shadow abandoned before its hold was ever cleared detaches
	// quietly; it never shared write-side obligations with its siblings. A
	// disabled shadow additionally marks the pipe input_cancelled so the
	// owning task is skipped at its next dispatch.
	if wasHold {
		if h.res.flags.Load()&FlagDisabled != 0 {
			h.res.propagate(FlagInputCancelled)
		}
		last := h.res.removeCompanion(h)
		return h.res.mod.Deallocate(h.payload, last, wasErrored)
	}

	// Step 3: detach and learn whether we were the last survivor.
	last := h.res.removeCompanion(h)

	// Step 4: a never-touched or errored output on an allocated pipe, with
	// companions still alive, signals input_cancelled so a reader blocked
	// on the companion input handle can stop waiting. The last sibling has
	// nobody left to notify, and an accepted output's silence belongs to
	// the remote peer rather than to a producer that gave up.
	if dir == DirectionOutput && !last && !h.res.accepted {
		touched := h.res.flags.Load()&FlagTouched != 0
		if wasErrored || !touched {
			h.res.propagate(FlagInputCancelled)
		}
	}

	// Step 5: make sure the error bit, if any, is visible to siblings
	// before the module purges shared state.
	if wasErrored {
		h.res.propagate(FlagError)
	}

	// Step 6: purge module state only once all companions are gone.
	err := h.res.mod.Deallocate(h.payload, last, wasErrored || h.res.flags.Load()&FlagError != 0)

	// Step 7: drop this handle's own pushed-state stack, including frames
	// handed out by PopState whose disposal was deferred to this point.
	h.mu.Lock()
	for s := h.state; s != nil; {
		next := s.prev
		s.release()
		s = next
	}
	h.state = nil
	for _, s := range h.popped {
		s.release()
	}
	h.popped = nil
	h.mu.Unlock()

	if err != nil {
		return ErrorTransportFailure.Error(err)
	}
	return nil
}
