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

// Package egress runs the async egress loop: one background goroutine per
// loop instance drains a set of registered output slots, each wrapping an
// async-flagged pipe output handle plus the transport connection it feeds.
//
// A slot walks a small state machine (created, wait_data, ready, wait_conn,
// raising, error, finished) driven by queued messages (create/ready/end/kill)
// and by the loop's own I/O iteration. Slot buffering is page-bounded: data
// accumulates in a chain of fixed-size pages recycled through a sync.Pool,
// so a stalled connection cannot grow the loop's memory without bound -
// once a slot's chain hits its overflow ceiling it is pushed into error.
//
// Connections that are not yet writable sit in a TTL-ordered min-heap;
// entries that age out are failed rather than held forever.
package egress
