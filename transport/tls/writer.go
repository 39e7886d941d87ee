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

package tls

import (
	"bytes"
	"crypto/tls"
	"net"
	"sync"
)

// maxPending bounds how many plaintext bytes may sit staged in front of the
// writer goroutine before Stage reports would-block, keeping per-connection
// memory on the same order as the egress loop's own page bound.
const maxPending = 16 * 1024

// recordWriter serializes every write to one tls.Conn on a dedicated
// goroutine. crypto/tls permanently poisons the output half-connection when
// a Write is interrupted by a deadline mid-record, so backpressure is
// expressed through a bounded staging window in front of a blocking writer
// instead: Stage never blocks, and the goroutine never interrupts a record.
type recordWriter struct {
	mu   sync.Mutex
	cond *sync.Cond

	tc *tls.Conn

	buf      bytes.Buffer
	inflight bool
	closing  bool
	stopped  bool
	err      error
}

func newRecordWriter(tc *tls.Conn) *recordWriter {
	w := &recordWriter{tc: tc}
	w.cond = sync.NewCond(&w.mu)
	go w.run()
	return w
}

// Stage queues p for transmission, accepting at most the staging window's
// remaining room. It returns (0, nil) when the window is full (would-block)
// and the writer's terminal error once the connection has failed.
func (w *recordWriter) Stage(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.err != nil {
		return 0, w.err
	}
	if w.closing || w.stopped {
		return 0, net.ErrClosed
	}

	room := maxPending - w.buf.Len()
	if room <= 0 {
		return 0, nil
	}
	if len(p) > room {
		p = p[:room]
	}
	w.buf.Write(p)
	w.cond.Broadcast()
	return len(p), nil
}

// Idle reports whether every staged byte has been handed to the connection.
func (w *recordWriter) Idle() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Len() == 0 && !w.inflight
}

// Close stops the writer goroutine once the staged backlog has drained and
// returns the terminal write error, if any. It does not close the
// underlying connection; for an errored teardown close the connection
// first, so a writer blocked on a stalled peer is unblocked instead of
// deadlocking this call.
func (w *recordWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.closing = true
	w.cond.Broadcast()
	for !w.stopped {
		w.cond.Wait()
	}
	return w.err
}

func (w *recordWriter) run() {
	w.mu.Lock()
	for {
		for w.buf.Len() == 0 && !w.closing && w.err == nil {
			w.cond.Wait()
		}
		if w.err != nil || w.buf.Len() == 0 {
			break
		}

		data := append([]byte(nil), w.buf.Bytes()...)
		w.buf.Reset()
		w.inflight = true
		w.cond.Broadcast()
		w.mu.Unlock()

		_, err := w.tc.Write(data)

		w.mu.Lock()
		w.inflight = false
		if err != nil {
			w.err = err
			w.buf.Reset()
		}
		w.cond.Broadcast()
	}
	w.stopped = true
	w.cond.Broadcast()
	w.mu.Unlock()
}
