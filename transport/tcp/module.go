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

package tcp

import (
	"bufio"
	"io"
	"net"
	"sync"
	"time"

	libdur "github.com/nabbar/flowd/duration"
	libpip "github.com/nabbar/flowd/pipe"
)

// pollTimeout bounds every individual socket syscall so Read/Write never
// block the calling goroutine past a tick, turning net.Conn's blocking API
// into the non-blocking-compatible contract the pipe layer requires of a module.
const pollTimeout = time.Millisecond

// DefaultBacklog is used when Config.Backlog is unset.
const DefaultBacklog = 128

// Config holds the instance-level tunables, parsed from the registry argv
// at Init time.
type Config struct {
	Listen  string
	Backlog int
	IdleTTL libdur.Duration
}

// conn is the module-private resource shared by an accepted pair's input
// and output handles: one net.Conn, a buffered reader for Peek-based
// HasUnreadData, and the persist decision carried from Accept's params.
//
// resumed pairs a parked persistent connection with the moment it stops
// being eligible for resumption.
type conn struct {
	mu      sync.Mutex
	nc      net.Conn
	br      *bufio.Reader
	eof     bool
	persist bool
}

// Module is the TCP transport: event-capable (implements
// ModuleAcceptor), non-blocking read/write via a short per-call deadline,
// and a resume queue standing in for the "wait pool" a persistent
// connection returns to between requests.
type resumed struct {
	nc  net.Conn
	exp time.Time
}

type Module struct {
	path string
	cfg  Config

	mu     sync.Mutex
	ln     net.Listener
	accept chan net.Conn
	resume chan resumed
	done   chan struct{}
	closed bool
}

// New constructs an uninitialized TCP module instance for the given
// registry path; call Init to start listening.
func New(path string) *Module {
	return &Module{path: path}
}

// Init parses argv (the listen address, and optionally an idle TTL bounding
// how long a persistent connection may sit parked between requests) and
// opens the listener, then starts the background accepter goroutine that
// feeds Accept.
func (m *Module) Init(argv []string) error {
	if len(argv) == 0 || argv[0] == "" {
		return ErrorInvalidArgument.Error()
	}

	m.mu.Lock()
	cfg := m.cfg
	m.mu.Unlock()

	cfg.Listen = argv[0]
	if cfg.Backlog < 1 {
		cfg.Backlog = DefaultBacklog
	}
	if len(argv) > 1 {
		if d, err := libdur.Parse(argv[1]); err == nil {
			cfg.IdleTTL = d
		}
	}

	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return ErrorListenFailed.Error(err)
	}

	m.mu.Lock()
	m.cfg = cfg
	m.ln = ln
	m.accept = make(chan net.Conn, cfg.Backlog)
	m.resume = make(chan resumed, cfg.Backlog)
	m.done = make(chan struct{})
	m.closed = false
	m.mu.Unlock()

	go m.acceptLoop(ln, m.done)
	return nil
}

func (m *Module) acceptLoop(ln net.Listener, done chan struct{}) {
	for {
		nc, err := ln.Accept()
		if err != nil {
			select {
			case <-done:
				return
			default:
				continue
			}
		}
		select {
		case m.accept <- nc:
		case <-done:
			_ = nc.Close()
			return
		}
	}
}

// Cleanup stops the accepter and closes the listener and any connections
// still waiting to be resumed.
func (m *Module) Cleanup() error {
	m.mu.Lock()
	ln := m.ln
	if !m.closed {
		m.closed = true
		close(m.done)
	}
	m.mu.Unlock()

	if ln != nil {
		_ = ln.Close()
	}

	for {
		select {
		case r := <-m.resume:
			_ = r.nc.Close()
		default:
			return nil
		}
	}
}

// Accept blocks until a connection is available - either a fresh one off
// the listener or a persistent one resumed from a prior request - or ctx is
// done.
func (m *Module) Accept(ctx libpip.ModuleContext, params libpip.Params) (inPayload, outPayload any, err error) {
	var (
		nc  net.Conn
		ctl <-chan struct{}
	)
	if ctx != nil {
		ctl = ctx.Done()
	}

	for nc == nil {
		select {
		case r := <-m.resume:
			if !r.exp.IsZero() && time.Now().After(r.exp) {
				_ = r.nc.Close()
				continue
			}
			nc = r.nc
		default:
		}
		if nc != nil {
			break
		}
		select {
		case r := <-m.resume:
			if !r.exp.IsZero() && time.Now().After(r.exp) {
				_ = r.nc.Close()
				continue
			}
			nc = r.nc
		case nc = <-m.accept:
		case <-ctl:
			return nil, nil, ErrorCancelled.Error()
		case <-m.done:
			return nil, nil, ErrorClosed.Error()
		}
	}

	c := &conn{
		nc:      nc,
		br:      bufio.NewReader(nc),
		persist: (params.InputFlags|params.OutputFlags)&libpip.FlagPersistent != 0,
	}
	return c, c, nil
}

// Read performs one non-blocking-compatible read: a short deadline
// turns "nothing available yet" into the required (0, nil) would-block
// return instead of blocking the caller.
func (m *Module) Read(pl any, buf []byte) (int, error) {
	c := pl.(*conn)
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.nc.SetReadDeadline(time.Now().Add(pollTimeout))
	n, err := c.br.Read(buf)
	if err != nil {
		if isTimeout(err) {
			return n, nil
		}
		if err == io.EOF {
			c.eof = true
			return n, nil
		}
		return n, err
	}
	return n, nil
}

// Write performs one non-blocking-compatible write. A deadline firing is
// would-block whether or not bytes were placed first: a partial write into
// a filling send buffer reports the accepted count with a nil error so the
// caller retries the remainder instead of treating it as a failure.
func (m *Module) Write(pl any, data []byte) (int, error) {
	c := pl.(*conn)
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.nc.SetWriteDeadline(time.Now().Add(pollTimeout))
	n, err := c.nc.Write(data)
	if isTimeout(err) {
		return n, nil
	}
	return n, err
}

// HasUnreadData is the definitive end-of-stream probe: Peek(1) under a
// short deadline distinguishes "the peer is still sending" from "the peer
// half-closed", which Read's ambiguous 0 return cannot.
func (m *Module) HasUnreadData(pl any) bool {
	c := pl.(*conn)
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.eof {
		return false
	}
	if c.br.Buffered() > 0 {
		return true
	}
	_ = c.nc.SetReadDeadline(time.Now().Add(pollTimeout))
	_, err := c.br.Peek(1)
	if err == io.EOF {
		c.eof = true
		return false
	}
	return true
}

// Deallocate closes the connection, unless it deallocated cleanly with the
// persistent flag set, in which case it is pushed back onto the resume
// queue for a future Accept to hand out again.
func (m *Module) Deallocate(pl any, purge bool, errored bool) error {
	if !purge {
		return nil
	}
	c := pl.(*conn)

	c.mu.Lock()
	persist := c.persist && !errored && !c.eof
	nc := c.nc
	c.mu.Unlock()

	if persist {
		m.mu.Lock()
		ttl := m.cfg.IdleTTL.Time()
		m.mu.Unlock()

		var exp time.Time
		if ttl > 0 {
			exp = time.Now().Add(ttl)
		}
		select {
		case m.resume <- resumed{nc: nc, exp: exp}:
			return nil
		default:
		}
	}
	return nc.Close()
}

// GetProperty exposes the instance's named configuration items: "listen"
// (string, fixed after Init), "backlog" (int, applied at the next Init) and
// "idle-ttl" (duration string, applied to the next persistent deallocation).
func (m *Module) GetProperty(name string) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch name {
	case "listen":
		return m.cfg.Listen, nil
	case "backlog":
		return m.cfg.Backlog, nil
	case "idle-ttl":
		return m.cfg.IdleTTL.String(), nil
	}
	return nil, ErrorUnknownProperty.Error()
}

// SetProperty updates a named configuration item; see GetProperty for the
// accepted names and when each value takes effect.
func (m *Module) SetProperty(name string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch name {
	case "backlog":
		v, ok := value.(int)
		if !ok || v < 1 {
			return ErrorInvalidArgument.Error()
		}
		m.cfg.Backlog = v
		return nil

	case "idle-ttl":
		switch v := value.(type) {
		case string:
			d, err := libdur.Parse(v)
			if err != nil {
				return ErrorInvalidArgument.Error()
			}
			m.cfg.IdleTTL = d
		case time.Duration:
			m.cfg.IdleTTL = libdur.ParseDuration(v)
		case libdur.Duration:
			m.cfg.IdleTTL = v
		default:
			return ErrorInvalidArgument.Error()
		}
		return nil
	}
	return ErrorUnknownProperty.Error()
}

// Path returns the instance's dotted registry path.
func (m *Module) Path() string { return m.path }

// ModuleFlags reports capability bits; tcp carries no module-specific ones.
func (m *Module) ModuleFlags() libpip.Flags { return 0 }

// EventThreadKilled releases the listener once the dispatcher goroutine
// hosting this instance is torn down, so no further accepts can queue.
func (m *Module) EventThreadKilled() {
	m.mu.Lock()
	ln := m.ln
	if !m.closed {
		m.closed = true
		close(m.done)
	}
	m.mu.Unlock()

	if ln != nil {
		_ = ln.Close()
	}
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}
