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

// Package startStop generalizes the run/close-function pair used by every
// background worker in the tree (aggregators, egress loops, dispatcher
// accept loops) behind one Start/Stop/Restart/IsRunning contract.
package startStop

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// StartStop is the lifecycle contract implemented by any long-running
// goroutine pair (a blocking run function plus a close function).
type StartStop interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Restart(ctx context.Context) error
	IsRunning() bool
	Uptime() time.Duration
}

type runFunc func(ctx context.Context) error
type closeFunc func(ctx context.Context) error

type startStop struct {
	m sync.Mutex

	run   runFunc
	close closeFunc

	running atomic.Bool
	started time.Time

	cnl context.CancelFunc
}

// New pairs a blocking run function with a close function into one
// Start/Stop/Restart/IsRunning lifecycle. run is expected to block until its
// context is cancelled or it returns an error; close is invoked once to tear
// down whatever run was using.
func New(run runFunc, close closeFunc) StartStop {
	return &startStop{run: run, close: close}
}

func (s *startStop) Start(ctx context.Context) error {
	s.m.Lock()
	defer s.m.Unlock()

	if s.running.Load() {
		return nil
	}

	if ctx == nil {
		ctx = context.Background()
	}

	x, cnl := context.WithCancel(ctx)
	s.cnl = cnl
	s.started = time.Now()
	s.running.Store(true)

	go func() {
		_ = s.run(x)
		s.running.Store(false)
	}()

	return nil
}

func (s *startStop) Stop(ctx context.Context) error {
	s.m.Lock()
	defer s.m.Unlock()

	if !s.running.Load() {
		return nil
	}

	if s.cnl != nil {
		s.cnl()
	}

	var err error
	if s.close != nil {
		err = s.close(ctx)
	}

	s.running.Store(false)
	return err
}

func (s *startStop) Restart(ctx context.Context) error {
	if err := s.Stop(ctx); err != nil {
		return err
	}
	return s.Start(ctx)
}

func (s *startStop) IsRunning() bool {
	return s.running.Load()
}

func (s *startStop) Uptime() time.Duration {
	if !s.running.Load() || s.started.IsZero() {
		return 0
	}
	return time.Since(s.started)
}
