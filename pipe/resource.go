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

import "sync"

// resource is the state shared by every companion handle of one pipe. Instead of a
// doubly-linked companion ring with back-pointers, companions are entries in
// one owned slice guarded by a mutex: membership, last-sibling detection and
// shared-bit propagation are all slice operations on the owner, which avoids
// the cyclic-pointer bookkeeping a ring implies and makes "am I the last
// survivor" a length check instead of a walk that can race with concurrent
// unlinks.
type resource struct {
	mu    sync.Mutex
	mod   Module
	flags flagWord

	// accepted records whether the pair came from Accept rather than
	// Allocate; an abandoned accepted output never signals input_cancelled,
	// since the request side's lifetime belongs to the remote peer, not to
	// a local producer that gave up.
	accepted bool

	// companions holds every live Handle sharing this resource, in creation
	// order; index 0 is always the original allocate/accept pair member that
	// was created first.
	companions []*Handle

	// inHeaderSize/outHeaderSize are the typed-header sizes negotiated at
	// allocate/accept time.
	inHeaderSize  int
	outHeaderSize int
}

func newResource(mod Module, p Params) *resource {
	r := &resource{
		mod:           mod,
		inHeaderSize:  p.InputHeaderSize,
		outHeaderSize: p.OutputHeaderSize,
	}
	r.flags.Set(p.InputFlags & sharedMask)
	r.flags.Set(p.OutputFlags & sharedMask)
	return r
}

func (r *resource) addCompanion(h *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.companions = append(r.companions, h)
}

// removeCompanion drops h from the companion list and reports whether h was
// the last survivor, i.e. purge must run.
func (r *resource) removeCompanion(h *Handle) (last bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, c := range r.companions {
		if c == h {
			r.companions = append(r.companions[:i], r.companions[i+1:]...)
			break
		}
	}
	return len(r.companions) == 0
}

// propagate ORs bits into the shared flag word. The word is shared by
// reference, so every companion observes the update immediately; this is
// the single choke point future per-handle mirroring would hook into.
func (r *resource) propagate(bits Flags) {
	r.flags.Set(bits)
}
