/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
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

// Package semaphore implements the bounded-concurrency worker-checkout
// primitive used by the aggregator and by the event dispatcher's worker
// pool: a buffered channel sized to the worker ceiling, with a blocking and
// a non-blocking acquire.
package semaphore

import "context"

// Semaphore bounds the number of concurrently running workers.
type Semaphore interface {
	// NewWorker blocks until a slot is available or ctx is done.
	NewWorker() error

	// NewWorkerTry acquires a slot without blocking; returns false if none
	// are free.
	NewWorkerTry() bool

	// DeferWorker releases a slot acquired by NewWorker/NewWorkerTry. Meant
	// to be called via defer from the worker goroutine.
	DeferWorker()

	// WaitAll blocks until every outstanding worker has released its slot.
	WaitAll()

	// DeferMain releases the semaphore's own resources once the owner is
	// done handing out slots. Meant to be called via defer next to New.
	DeferMain()
}

type sem struct {
	ctx context.Context
	c   chan struct{}
	n   int
}

// New creates a Semaphore bound to ctx with room for max concurrent
// workers. When fair is true, acquisitions are served in request order
// (the implementation already is, being channel-based); the flag is kept
// for call-site parity with buffered-vs-unbuffered configurations.
func New(ctx context.Context, max int, fair bool) Semaphore {
	if ctx == nil {
		ctx = context.Background()
	}
	if max <= 0 {
		max = 1
	}

	return &sem{
		ctx: ctx,
		c:   make(chan struct{}, max),
		n:   max,
	}
}

func (s *sem) NewWorker() error {
	select {
	case s.c <- struct{}{}:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	}
}

func (s *sem) NewWorkerTry() bool {
	select {
	case s.c <- struct{}{}:
		return true
	default:
		return false
	}
}

func (s *sem) DeferWorker() {
	select {
	case <-s.c:
	default:
	}
}

func (s *sem) WaitAll() {
	for i := 0; i < s.n; i++ {
		select {
		case s.c <- struct{}{}:
		case <-s.ctx.Done():
			return
		}
	}

	for i := 0; i < s.n; i++ {
		select {
		case <-s.c:
		default:
		}
	}
}

func (s *sem) DeferMain() {
	s.WaitAll()
}

// NewSemaphoreWithContext @Deprecated use New instead
func NewSemaphoreWithContext(ctx context.Context, max int) Semaphore {
	return New(ctx, max, true)
}
