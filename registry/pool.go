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

package registry

import "sync"

// layerPrefix is the bookkeeping overhead the core layer carries alongside
// a module's declared payload size (companion slot, header scratch space)
// in every slab handed out by a handlePool.
const layerPrefix = 64

// handlePool is a per-instance slab allocator: every Get returns a byte
// slice sized to the module's declared handle size plus the core's layer
// prefix, reused via sync.Pool instead of allocated fresh on every
// allocate/accept, the same trade ioutils/bufferReadCloser makes for read
// buffers.
type handlePool struct {
	slab int
	pl   sync.Pool
}

func newHandlePool(declaredSize int) *handlePool {
	slab := declaredSize + layerPrefix
	return &handlePool{
		slab: slab,
		pl: sync.Pool{
			New: func() any {
				b := make([]byte, slab)
				return &b
			},
		},
	}
}

// Get returns a zeroed slab-sized buffer.
func (p *handlePool) Get() []byte {
	b := p.pl.Get().(*[]byte)
	for i := range *b {
		(*b)[i] = 0
	}
	return *b
}

// Put returns a buffer to the pool. Buffers of the wrong size are dropped
// instead of pooled, since a declared size never changes after Init but a
// caller could in principle mix pools by mistake.
func (p *handlePool) Put(b []byte) {
	if len(b) != p.slab {
		return
	}
	p.pl.Put(&b)
}

// SlabSize reports the full slab size handed out by Get.
func (p *handlePool) SlabSize() int { return p.slab }
