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

import "sync/atomic"

// Direction is immutable for the lifetime of a Handle.
type Direction uint8

const (
	DirectionInput Direction = iota
	DirectionOutput
)

func (d Direction) String() string {
	if d == DirectionOutput {
		return "output"
	}
	return "input"
}

// Flags is the pipe flag word. Bits 0-15 are core-defined and
// propagate to every companion on deallocate (see Resource.propagate); bits
// 16-31 are reserved for module-specific state and are never touched by the
// core.
type Flags uint32

const (
	// FlagPersistent: the module may keep the underlying resource alive
	// across handle death (e.g. return a TCP socket to a wait pool).
	FlagPersistent Flags = 1 << iota
	// FlagAsync: egress for this pipe may be deferred to the async loop.
	FlagAsync
	// FlagShadow: this handle is a forked reader (fork).
	FlagShadow
	// FlagDisabled: the owning task was cancelled before reaching this port.
	FlagDisabled
	// FlagInputCancelled: "producer gave up" / cancellation, propagated by
	// companion walk.
	FlagInputCancelled
	// FlagTouched: o_touched - at least one successful Write has occurred on
	// this output handle.
	FlagTouched
	// FlagError: the handle's module reported a transport failure.
	FlagError
	// FlagShadowHold: a forked shadow handle that has not yet been released
	// by its first Deallocate call; only Cntl is permitted while held.
	FlagShadowHold

	// ModuleFlagBase is the first bit available to module-specific state;
	// modules must not set bits below this one.
	ModuleFlagBase Flags = 1 << 16
)

// sharedMask is the set of bits propagated from one companion to the others
// on deallocation.
const sharedMask = FlagPersistent | FlagAsync | FlagShadow | FlagDisabled | FlagInputCancelled | FlagError

// flagWord is an atomically-updated Flags value, safe to read/write from
// concurrent companion handles of different directions.
type flagWord struct {
	v atomic.Uint32
}

func (f *flagWord) Load() Flags {
	return Flags(f.v.Load())
}

func (f *flagWord) Set(bits Flags) {
	for {
		old := f.v.Load()
		nv := old | uint32(bits)
		if f.v.CompareAndSwap(old, nv) {
			return
		}
	}
}

func (f *flagWord) Clear(bits Flags) {
	for {
		old := f.v.Load()
		nv := old &^ uint32(bits)
		if f.v.CompareAndSwap(old, nv) {
			return
		}
	}
}
