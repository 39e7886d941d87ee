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

// Module is the mandatory part of the transport-module vtable: instance
// lifecycle plus the one mandatory per-handle operation, deallocate. Every
// other vtable entry is optional and is modelled as a capability
// sub-interface (ModuleAllocator, ModuleAcceptor, ...) that a concrete module
// implements only if it supports that operation - the core probes for it with
// a type assertion, the same pattern the standard library uses for
// http.Flusher/http.Hijacker. This is the "tagged polymorphism instead of
// function-pointer vtables" design: no nil function pointers, no per-call
// branch on a capability bitmask.
type Module interface {
	// Init constructs per-instance state from the module's init argv. Called
	// once by the registry at instance_init time.
	Init(argv []string) error

	// Cleanup releases per-instance state at shutdown.
	Cleanup() error

	// Deallocate releases a handle's module-private payload. purge is true
	// only when this call is freeing the last surviving companion on the
	// pipe resource; error reflects whether the handle's owning
	// resource is in error, which overrides any persist policy.
	Deallocate(payload any, purge bool, errored bool) error
}

// ModuleAllocator creates a pipelined pair sharing one resource (allocate): both handles reference the same module-private payload.
type ModuleAllocator interface {
	Allocate(hint string, params Params) (inPayload, outPayload any, err error)
}

// ModuleAcceptor blocks the calling event thread until a request event is
// available, then returns a request pair (accept). Implementing this
// makes a module instance event-capable.
type ModuleAcceptor interface {
	Accept(ctx ModuleContext, params Params) (inPayload, outPayload any, err error)
}

// ModuleReader performs a non-blocking-compatible read: it must
// return (0, nil) on would-block, never an error.
type ModuleReader interface {
	Read(payload any, buf []byte) (n int, err error)
}

// ModuleWriter performs a non-blocking-compatible write.
type ModuleWriter interface {
	Write(payload any, data []byte) (n int, err error)
}

// ModuleWriteCallbacker accepts a DataSource wholesale; ownership of the
// source transfers to the module on success.
type ModuleWriteCallbacker interface {
	WriteCallback(payload any, src DataSource) error
}

// ModuleInternalBufferer is the zero-copy read pair (get/release internal
// buf). Release is always called exactly once per successful Get.
type ModuleInternalBufferer interface {
	GetInternalBuf(payload any, min, max int) (buf []byte, err error)
	ReleaseInternalBuf(payload any, actual int)
}

// ModuleUnreadProber answers "is there more data" definitively - read's 0
// return is ambiguous between would-block and end-of-stream.
type ModuleUnreadProber interface {
	HasUnreadData(payload any) bool
}

// ModuleEOMer reports unread bytes past a message boundary to the module
// (e.g. to push back into a shared ring buffer).
type ModuleEOMer interface {
	EOM(payload any, unconsumed []byte) error
}

// ModuleForker duplicates an input handle's payload so a shadow can read the
// same bytes independently (fork).
type ModuleForker interface {
	Fork(payload any) (shadowPayload any, err error)
}

// ModuleCntller handles module-specific cntl opcodes (high byte != 0xFF).
type ModuleCntller interface {
	Cntl(payload any, op uint32, args ...any) (any, error)
}

// ModuleProperties exposes named, typed instance configuration.
type ModuleProperties interface {
	GetProperty(name string) (any, error)
	SetProperty(name string, value any) error
}

// ModulePathFlagger exposes the instance's dotted path and capability bits.
type ModulePathFlagger interface {
	Path() string
	ModuleFlags() Flags
}

// ModuleEventKillable is notified when its hosting event-dispatcher goroutine
// is being torn down, so listener state can be released.
type ModuleEventKillable interface {
	EventThreadKilled()
}

// ModuleContext is the minimal context an Accept implementation needs: a
// cancellation signal for shutdown, decoupled from any particular context
// package so transport modules do not need to import the scheduler.
type ModuleContext interface {
	Done() <-chan struct{}
}

// DataSource is a caller-owned byte source handed to write_data_source /
// WriteCallback. Ownership transfers to the callee on success; Close must be
// idempotent because callers may invoke it after a failed, partial-ownership
// transfer (ErrorOwnershipTransfer).
type DataSource interface {
	// Read returns the next chunk. eos is true once the source is
	// exhausted; a zero-length, eos=false read means "no data yet",
	// mirroring would-block on a pipe Read.
	Read(p []byte) (n int, eos bool, err error)
	Close() error
}

// Params carries the per-direction flag words and typed-header sizes passed
// to Allocate/Accept/Fork.
type Params struct {
	InputFlags       Flags
	OutputFlags      Flags
	InputHeaderSize  int
	OutputHeaderSize int
}
