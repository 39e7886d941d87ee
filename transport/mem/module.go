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

package mem

import (
	"bytes"
	"io"
	"sync"

	iotbrc "github.com/nabbar/flowd/ioutils/bufferReadCloser"
	libpip "github.com/nabbar/flowd/pipe"
)

// payload is the resource a pipelined pair shares: one buffer guarded by its
// own mutex, since an input handle's Read and an output handle's Write are
// allowed to run concurrently: concurrent calls on different handles of the
// same pair are permitted when those handles have different directions. The
// buffer is wrapped in an ioutils/bufferReadCloser.Buffer so purge-time
// release is a Close, the same lifecycle every other byte stream in the
// tree follows.
type payload struct {
	mu     sync.Mutex
	raw    *bytes.Buffer
	buf    iotbrc.Buffer
	forked []*payload
}

func newPayload() *payload {
	raw := &bytes.Buffer{}
	return &payload{raw: raw, buf: iotbrc.NewBuffer(raw, nil)}
}

// Module is the in-memory transport. A single instance may back any number
// of concurrently live pipes; it carries no connection-level state of its
// own, only its dotted path.
type Module struct {
	path string
}

// New constructs an uninitialized in-memory module instance for the given
// registry path.
func New(path string) *Module {
	return &Module{path: path}
}

func (m *Module) Init(_ []string) error { return nil }
func (m *Module) Cleanup() error        { return nil }

// Allocate creates a pipelined pair: both handles reference the same
// payload, so bytes written on the output side are immediately visible to
// the input side.
func (m *Module) Allocate(_ string, _ libpip.Params) (inPayload, outPayload any, err error) {
	p := newPayload()
	return p, p, nil
}

// Read drains the shared buffer. An empty buffer returns (0, nil):
// this is would-block, not end-of-stream; HasUnreadData is the only
// definitive probe, and for mem it is simply "anything buffered".
func (m *Module) Read(pl any, buf []byte) (int, error) {
	p := pl.(*payload)
	p.mu.Lock()
	defer p.mu.Unlock()
	n, err := p.buf.Read(buf)
	if err == io.EOF {
		return n, nil
	}
	return n, err
}

// Write appends to the shared buffer; it never blocks and never fails, so
// it always returns len(data).
func (m *Module) Write(pl any, data []byte) (int, error) {
	p := pl.(*payload)
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.Write(data)
}

// HasUnreadData answers the would-block-vs-eof ambiguity definitively.
func (m *Module) HasUnreadData(pl any) bool {
	p := pl.(*payload)
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.raw.Len() > 0
}

// Fork duplicates the payload's remaining bytes into a new buffer so the
// shadow reads independently of further consumption by the original.
// Already-read bytes are not replayed, matching "delivers the same
// bytes as src would have delivered" from this point forward.
func (m *Module) Fork(pl any) (any, error) {
	p := pl.(*payload)
	p.mu.Lock()
	defer p.mu.Unlock()

	shadow := newPayload()
	_, _ = shadow.buf.Write(p.raw.Bytes())
	p.forked = append(p.forked, shadow)
	return shadow, nil
}

// EOM pushes bytes consumed past a message boundary back to the front of
// the shared buffer so the next Read sees them again.
func (m *Module) EOM(pl any, unconsumed []byte) error {
	if len(unconsumed) == 0 {
		return nil
	}
	p := pl.(*payload)
	p.mu.Lock()
	defer p.mu.Unlock()

	rest := append([]byte(nil), p.raw.Bytes()...)
	p.raw.Reset()
	_, _ = p.buf.Write(unconsumed)
	_, _ = p.buf.Write(rest)
	return nil
}

// Deallocate releases the shared buffer only once the last companion (the
// original pair, and any forked shadows) has let go (purge arrives only on the
// last surviving sibling).
func (m *Module) Deallocate(pl any, purge bool, _ bool) error {
	if !purge {
		return nil
	}
	p := pl.(*payload)
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.Close()
}

// Path returns the instance's dotted registry path.
func (m *Module) Path() string { return m.path }

// ModuleFlags reports capability bits; mem is never event-capable.
func (m *Module) ModuleFlags() libpip.Flags { return 0 }
