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
	"bufio"
	"crypto/tls"
	"io"
	"net"
	"sync"
	"time"

	libcrt "github.com/nabbar/flowd/certificates"
	libdur "github.com/nabbar/flowd/duration"
	libpip "github.com/nabbar/flowd/pipe"
)

// pollTimeout mirrors transport/tcp's for the read side: every read syscall
// is bounded so Read never blocks the calling goroutine past a tick.
// crypto/tls reads recover cleanly from a fired deadline; writes do not,
// which is why the write side goes through recordWriter instead.
const pollTimeout = time.Millisecond

// DefaultBacklog is used when Config.Backlog is unset.
const DefaultBacklog = 128

// DefaultHandshakeTimeout bounds the blocking tls.Conn.Handshake call
// issued once per accepted connection, before it is handed to the
// dispatcher.
const DefaultHandshakeTimeout = libdur.Duration(5 * time.Second)

// Config holds the instance-level tunables. ServerName selects which
// certificate/SNI identity the embedded certificates.TLSConfig resolves;
// Listen and IdleTTL parse out of argv exactly like transport/tcp.
type Config struct {
	Listen           string
	ServerName       string
	Backlog          int
	IdleTTL          libdur.Duration
	HandshakeTimeout libdur.Duration
}

// conn is the module-private resource shared by an accepted pair's input and
// output handles: the handshaked tls.Conn, a buffered reader for Peek-based
// HasUnreadData, the connection's record writer, and the persist decision
// carried from Accept's params.
type conn struct {
	mu      sync.Mutex
	tc      *tls.Conn
	br      *bufio.Reader
	wr      *recordWriter
	eof     bool
	persist bool
}

// parked pairs a persistent, already-handshaked connection with the moment
// it stops being eligible for resumption.
type parked struct {
	tc  *tls.Conn
	exp time.Time
}

// Module is the TLS transport:
// event-capable (ModuleAcceptor), wrapping every accepted net.Conn in a
// crypto/tls.Conn built from a certificates.TLSConfig before Accept returns
// it, so Read/Write downstream only ever see plaintext application bytes.
//
// The certificates.TLSConfig is supplied at construction time rather than
// parsed from argv: building one from raw argv strings would mean
// re-deriving the certificates package's own file/PEM loading logic, which
// already lives in that package and is exercised by its own tests. cmd/flowd
// builds the TLSConfig from the process configuration and passes it to New.
type Module struct {
	path string
	cfg  Config
	tlsc libcrt.TLSConfig

	mu     sync.Mutex
	ln     net.Listener
	accept chan net.Conn
	resume chan parked
	done   chan struct{}
	closed bool
}

// New constructs an uninitialized TLS module instance for the given registry
// path, wrapping accepted connections with tlsc. Call Init to start
// listening.
func New(path string, tlsc libcrt.TLSConfig) *Module {
	return &Module{path: path, tlsc: tlsc}
}

// Init parses argv (the listen address, an optional SNI server name, and an
// optional idle TTL) and opens the listener, then starts the background
// accepter goroutine that feeds Accept.
func (m *Module) Init(argv []string) error {
	if len(argv) == 0 || argv[0] == "" {
		return ErrorInvalidArgument.Error()
	}
	if m.tlsc == nil {
		return ErrorInvalidArgument.Error()
	}

	m.mu.Lock()
	cfg := m.cfg
	m.mu.Unlock()

	cfg.Listen = argv[0]
	if cfg.Backlog < 1 {
		cfg.Backlog = DefaultBacklog
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if len(argv) > 1 {
		cfg.ServerName = argv[1]
	}
	if len(argv) > 2 {
		if d, err := libdur.Parse(argv[2]); err == nil {
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
	m.resume = make(chan parked, cfg.Backlog)
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
			_ = r.tc.Close()
		default:
			return nil
		}
	}
}

// Accept blocks until a connection is available - either a fresh one off the
// listener, handshaked here, or a persistent one resumed already-handshaked
// from a prior request - or ctx is done.
func (m *Module) Accept(ctx libpip.ModuleContext, params libpip.Params) (inPayload, outPayload any, err error) {
	var (
		nc  net.Conn
		tc  *tls.Conn
		ctl <-chan struct{}
	)
	if ctx != nil {
		ctl = ctx.Done()
	}

	for tc == nil && nc == nil {
		select {
		case r := <-m.resume:
			if !r.exp.IsZero() && time.Now().After(r.exp) {
				_ = r.tc.Close()
				continue
			}
			tc = r.tc
		default:
		}
		if tc != nil {
			break
		}
		select {
		case r := <-m.resume:
			if !r.exp.IsZero() && time.Now().After(r.exp) {
				_ = r.tc.Close()
				continue
			}
			tc = r.tc
		case nc = <-m.accept:
		case <-ctl:
			return nil, nil, ErrorCancelled.Error()
		case <-m.done:
			return nil, nil, ErrorClosed.Error()
		}
	}

	if tc == nil {
		m.mu.Lock()
		sni := m.cfg.ServerName
		m.mu.Unlock()

		tc = tls.Server(nc, m.tlsc.TlsConfig(sni))
		if err = m.handshake(tc); err != nil {
			_ = nc.Close()
			return nil, nil, ErrorHandshakeFailed.Error(err)
		}
	}

	c := &conn{
		tc:      tc,
		br:      bufio.NewReader(tc),
		wr:      newRecordWriter(tc),
		persist: (params.InputFlags|params.OutputFlags)&libpip.FlagPersistent != 0,
	}
	return c, c, nil
}

func (m *Module) handshake(tc *tls.Conn) error {
	m.mu.Lock()
	ttl := m.cfg.HandshakeTimeout.Time()
	m.mu.Unlock()

	_ = tc.SetDeadline(time.Now().Add(ttl))
	defer func() { _ = tc.SetDeadline(time.Time{}) }()
	return tc.Handshake()
}

// Read performs one non-blocking-compatible read: a short deadline
// turns "nothing available yet" into the required (0, nil) would-block
// return instead of blocking the caller.
func (m *Module) Read(pl any, buf []byte) (int, error) {
	c := pl.(*conn)
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.tc.SetReadDeadline(time.Now().Add(pollTimeout))
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

// Write performs one non-blocking-compatible write by staging bytes for
// the connection's record writer. A full staging window is would-block,
// reported as (0, nil); a deadline is never used here, since interrupting
// a tls.Conn.Write mid-record would leave the output half-connection in a
// permanent error state and a backpressured connection could never resume.
func (m *Module) Write(pl any, data []byte) (int, error) {
	c := pl.(*conn)
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.wr.Stage(data)
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
	_ = c.tc.SetReadDeadline(time.Now().Add(pollTimeout))
	_, err := c.br.Peek(1)
	if err == io.EOF {
		c.eof = true
		return false
	}
	return true
}

// Deallocate closes the connection, unless it deallocated cleanly with the
// persistent flag set and its record writer has drained, in which case the
// still-handshaked tls.Conn is detached from the writer and pushed back
// onto the resume queue for a future Accept to hand out again (wrapped in
// a fresh writer there).
func (m *Module) Deallocate(pl any, purge bool, errored bool) error {
	if !purge {
		return nil
	}
	c := pl.(*conn)

	c.mu.Lock()
	persist := c.persist && !errored && !c.eof
	tc := c.tc
	wr := c.wr
	c.mu.Unlock()

	if persist && wr.Idle() && wr.Close() == nil {
		m.mu.Lock()
		ttl := m.cfg.IdleTTL.Time()
		m.mu.Unlock()

		var exp time.Time
		if ttl > 0 {
			exp = time.Now().Add(ttl)
		}
		select {
		case m.resume <- parked{tc: tc, exp: exp}:
			return nil
		default:
		}
		return tc.Close()
	}

	// Close the connection first: a writer blocked on a stalled peer is
	// unblocked by the close, so waiting for it to stop cannot deadlock.
	err := tc.Close()
	_ = wr.Close()
	return err
}

// GetProperty exposes the instance's named configuration items: "listen"
// (string, fixed after Init), "server-name" (string, applied to the next
// handshake), "backlog" (int, applied at the next Init), "idle-ttl" and
// "handshake-timeout" (duration strings).
func (m *Module) GetProperty(name string) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch name {
	case "listen":
		return m.cfg.Listen, nil
	case "server-name":
		return m.cfg.ServerName, nil
	case "backlog":
		return m.cfg.Backlog, nil
	case "idle-ttl":
		return m.cfg.IdleTTL.String(), nil
	case "handshake-timeout":
		return m.cfg.HandshakeTimeout.String(), nil
	}
	return nil, ErrorUnknownProperty.Error()
}

// SetProperty updates a named configuration item; see GetProperty for the
// accepted names and when each value takes effect.
func (m *Module) SetProperty(name string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch name {
	case "server-name":
		v, ok := value.(string)
		if !ok {
			return ErrorInvalidArgument.Error()
		}
		m.cfg.ServerName = v
		return nil

	case "backlog":
		v, ok := value.(int)
		if !ok || v < 1 {
			return ErrorInvalidArgument.Error()
		}
		m.cfg.Backlog = v
		return nil

	case "idle-ttl":
		d, err := parseDurationValue(value)
		if err != nil {
			return err
		}
		m.cfg.IdleTTL = d
		return nil

	case "handshake-timeout":
		d, err := parseDurationValue(value)
		if err != nil {
			return err
		}
		m.cfg.HandshakeTimeout = d
		return nil
	}
	return ErrorUnknownProperty.Error()
}

func parseDurationValue(value any) (libdur.Duration, error) {
	switch v := value.(type) {
	case string:
		d, err := libdur.Parse(v)
		if err != nil {
			return 0, ErrorInvalidArgument.Error()
		}
		return d, nil
	case time.Duration:
		return libdur.ParseDuration(v), nil
	case libdur.Duration:
		return v, nil
	}
	return 0, ErrorInvalidArgument.Error()
}

// Path returns the instance's dotted registry path.
func (m *Module) Path() string { return m.path }

// ModuleFlags reports capability bits; tls carries no module-specific ones.
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
