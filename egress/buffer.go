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

	libsiz "github.com/nabbar/flowd/size"
)

// DefaultPageSize is the unit of buffering for a slot's backlog chain:
// buffering is page-bounded, and pages are recycled through a dedicated
// pool rather than grown and shrunk per write.
const DefaultPageSize = libsiz.SizeKilo * 4

type page struct {
	buf  []byte
	off  int // consumed offset
	next *page
}

func (p *page) unread() int { return len(p.buf) - p.off }

type pagePool struct {
	size int
	pl   sync.Pool
}

func newPagePool(pageSize int) *pagePool {
	if pageSize <= 0 {
		pageSize = int(DefaultPageSize)
	}
	pp := &pagePool{size: pageSize}
	pp.pl.New = func() any {
		return &page{buf: make([]byte, 0, pageSize)}
	}
	return pp
}

func (pp *pagePool) get() *page {
	p := pp.pl.Get().(*page)
	p.buf = p.buf[:0]
	p.off = 0
	p.next = nil
	return p
}

func (pp *pagePool) put(p *page) {
	if p == nil || cap(p.buf) != pp.size {
		return
	}
	p.next = nil
	pp.pl.Put(p)
}

// bufferChain is a singly linked list of pages holding a slot's unsent
// backlog. maxPages bounds total memory per slot; exceeding it is a fatal
// error for the slot, not silent truncation.
type bufferChain struct {
	pool     *pagePool
	head     *page
	tail     *page
	npages   int
	maxPages int
}

func newBufferChain(pool *pagePool, maxPages int) *bufferChain {
	return &bufferChain{pool: pool, maxPages: maxPages}
}

// append stages data at the tail of the chain, splitting across pages as
// needed. Returns ErrorOverflow once appending would exceed maxPages.
func (c *bufferChain) append(data []byte) error {
	for len(data) > 0 {
		if c.tail == nil || len(c.tail.buf) == cap(c.tail.buf) {
			if c.maxPages > 0 && c.npages >= c.maxPages {
				return ErrorOverflow.Error()
			}
			p := c.pool.get()
			if c.tail == nil {
				c.head = p
			} else {
				c.tail.next = p
			}
			c.tail = p
			c.npages++
		}

		room := cap(c.tail.buf) - len(c.tail.buf)
		n := len(data)
		if n > room {
			n = room
		}
		c.tail.buf = append(c.tail.buf, data[:n]...)
		data = data[n:]
	}
	return nil
}

// front returns the unread bytes of the head page, or nil if the chain is
// empty.
func (c *bufferChain) front() []byte {
	for c.head != nil && c.head.unread() == 0 {
		c.advancePage()
	}
	if c.head == nil {
		return nil
	}
	return c.head.buf[c.head.off:]
}

// consume marks n bytes of the head page as sent, releasing the page back
// to the pool once it is fully drained.
func (c *bufferChain) consume(n int) {
	if c.head == nil {
		return
	}
	c.head.off += n
	if c.head.unread() == 0 {
		c.advancePage()
	}
}

func (c *bufferChain) advancePage() {
	old := c.head
	c.head = old.next
	if c.head == nil {
		c.tail = nil
	}
	c.npages--
	c.pool.put(old)
}

func (c *bufferChain) empty() bool {
	return c.front() == nil
}

// reset releases every page back to the pool.
func (c *bufferChain) reset() {
	for c.head != nil {
		old := c.head
		c.head = old.next
		c.pool.put(old)
	}
	c.tail = nil
	c.npages = 0
}
