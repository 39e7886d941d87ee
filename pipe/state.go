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

// pushedState is a single pushed-state frame (PushState/PopState). A
// state value can be shared by more than one companion handle at once (e.g.
// a TLS session descriptor visible to both the shadow and the primary
// reader), so disposal is reference-counted: the Dispose callback runs only
// when the last holder pops it, never on the first pop.
type pushedState struct {
	value   any
	dispose func(any)
	refs    atomic.Int32
	prev    *pushedState
}

func newPushedState(value any, dispose func(any), holders int32) *pushedState {
	s := &pushedState{value: value, dispose: dispose}
	if holders < 1 {
		holders = 1
	}
	s.refs.Store(holders)
	return s
}

// release decrements the refcount and disposes the value exactly once, on
// the transition to zero.
func (s *pushedState) release() {
	if s == nil {
		return
	}
	if s.refs.Add(-1) == 0 && s.dispose != nil {
		s.dispose(s.value)
	}
}

// retain is used when a state frame is shared with a newly forked shadow.
func (s *pushedState) retain() {
	if s != nil {
		s.refs.Add(1)
	}
}
