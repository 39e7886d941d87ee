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

package dispatch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	libatm "github.com/nabbar/flowd/atomic"
	libegr "github.com/nabbar/flowd/egress"
	libgrf "github.com/nabbar/flowd/graph"
	liblog "github.com/nabbar/flowd/logger"
	loglvl "github.com/nabbar/flowd/logger/level"
	libpip "github.com/nabbar/flowd/pipe"
	libreg "github.com/nabbar/flowd/registry"
	librun "github.com/nabbar/flowd/runner/startStop"
	libsem "github.com/nabbar/flowd/semaphore"
	libsvl "github.com/nabbar/flowd/servlet"
)

// Config holds the dispatcher's tunables.
type Config struct {
	// Workers bounds how many requests may run concurrently across every
	// event-capable instance.
	Workers int

	// Egress, when set, routes every accepted connection's exit-port output
	// handle through the async egress loop instead of deallocating
	// it synchronously at the end of handleRequest: the handle is flagged
	// async at Accept time and attached to the loop, which drains and
	// deallocates it in the background.
	Egress *libegr.Loop
}

// DefaultWorkers is used when Config.Workers is unset.
const DefaultWorkers = 64

// internalPipeType is the fixed path under which the dispatcher registers
// its own private in-memory transport instance, used to wire the edges
// between graph nodes - never exposed to configuration, never looked up by
// path from outside this package.
const internalPipeType = "flowd.dispatch.internal"

// Dispatcher is the Event Dispatcher: it owns one goroutine per
// event-capable registry instance, each driving Accept in a loop, and a
// bounded worker pool that runs the frozen service graph for every
// connection those goroutines hand it.
type Dispatcher struct {
	reg      *libreg.Table
	svc      *libgrf.Service
	servlets map[int]libsvl.Servlet
	pipes    *libreg.Instance

	sem libsem.Semaphore
	cfg Config
	egr *libegr.Loop
	seq atomic.Uint64
	log libatm.Value[liblog.FuncLog]

	// entryHeaderSize/exitHeaderSize are the graph's resolved typed-header
	// lengths (computed by type propagation) for the entry and exit ports, read
	// once at construction so every accepted connection's handles carry
	// the header size the graph computed at Freeze instead of a bare zero.
	entryHeaderSize int
	exitHeaderSize  int

	mu   sync.Mutex
	wg   sync.WaitGroup
	rs   librun.StartStop
	ctx  context.Context
	stop context.CancelFunc
}

// New constructs a Dispatcher over reg (the transport-module registry) and
// svc (a frozen service graph), with servlets mapping every node id in svc
// to the concrete Servlet implementation backing it.
//
// New registers its own internal mem-backed transport instance on reg
// under internalPipeType, so call it only once per registry.
func New(reg *libreg.Table, svc *libgrf.Service, servlets map[int]libsvl.Servlet, cfg Config) (*Dispatcher, error) {
	if reg == nil || svc == nil || servlets == nil {
		return nil, ErrorInvalidArgument.Error()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	for _, n := range svc.Order() {
		if _, ok := servlets[n]; !ok {
			return nil, ErrorServletMissing.Error()
		}
	}

	inst, err := internalPipeInstance(reg)
	if err != nil {
		return nil, err
	}

	inNode, inPort := svc.InputNode()
	outNode, outPort := svc.OutputNode()
	entryHeaderSize, _ := svc.TypedHeaderSize(inNode, inPort)
	exitHeaderSize, _ := svc.TypedHeaderSize(outNode, outPort)

	d := &Dispatcher{
		reg:             reg,
		svc:             svc,
		servlets:        servlets,
		pipes:           inst,
		cfg:             cfg,
		egr:             cfg.Egress,
		entryHeaderSize: entryHeaderSize,
		exitHeaderSize:  exitHeaderSize,
		log:             libatm.NewValue[liblog.FuncLog](),
	}
	d.rs = librun.New(d.run, d.close)
	return d, nil
}

func (d *Dispatcher) Start(ctx context.Context) error   { return d.rs.Start(ctx) }
func (d *Dispatcher) Stop(ctx context.Context) error    { return d.rs.Stop(ctx) }
func (d *Dispatcher) Restart(ctx context.Context) error { return d.rs.Restart(ctx) }
func (d *Dispatcher) IsRunning() bool                   { return d.rs.IsRunning() }
func (d *Dispatcher) Uptime() time.Duration             { return d.rs.Uptime() }

func (d *Dispatcher) run(ctx context.Context) error {
	insts := d.reg.EventCapableModules()
	if len(insts) == 0 {
		return ErrorNoEventCapableModule.Error()
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.mu.Lock()
	d.ctx = runCtx
	d.stop = cancel
	d.mu.Unlock()

	d.sem = libsem.New(runCtx, d.cfg.Workers, true)

	for _, inst := range insts {
		d.logEvent(loglvl.InfoLevel, "dispatcher accept loop started", inst.Path(), nil)
		d.wg.Add(1)
		go d.acceptLoop(runCtx, inst)
	}

	<-ctx.Done()
	return nil
}

func (d *Dispatcher) close(_ context.Context) error {
	d.mu.Lock()
	cancel := d.stop
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	d.wg.Wait()
	return nil
}

// acceptLoop is one event-capable instance's dedicated goroutine: Accept,
// check out a worker, run the graph, repeat.
func (d *Dispatcher) acceptLoop(ctx context.Context, inst *libreg.Instance) {
	defer d.wg.Done()
	defer inst.EventThreadKilled()

	for {
		if err := d.sem.NewWorker(); err != nil {
			return
		}

		p := libpip.Params{
			InputHeaderSize:  d.entryHeaderSize,
			OutputHeaderSize: d.exitHeaderSize,
		}
		if d.egr != nil {
			p.OutputFlags |= libpip.FlagAsync
		}

		in, out, err := inst.Accept(ctx, p)
		if err != nil {
			d.sem.DeferWorker()
			select {
			case <-ctx.Done():
				return
			default:
				d.logEvent(loglvl.DebugLevel, "accept failed, retrying", inst.Path(), err)
				continue
			}
		}

		go func() {
			defer d.sem.DeferWorker()
			d.handleRequest(ctx, in, out)
		}()
	}
}

// handleRequest binds the accepted pair to the graph's entry/exit ports,
// wires an internal mem pipe across every other edge, and runs every node's
// servlet in topological order.
func (d *Dispatcher) handleRequest(ctx context.Context, entryIn, entryOut *libpip.Handle) {
	inNode, inPort := d.svc.InputNode()
	outNode, outPort := d.svc.OutputNode()

	ports := make(map[int]*libsvl.Ports, d.svc.NodeCount())
	portsFor := func(node int) *libsvl.Ports {
		p, ok := ports[node]
		if !ok {
			p = &libsvl.Ports{In: map[string]*libpip.Handle{}, Out: map[string]*libpip.Handle{}}
			ports[node] = p
		}
		return p
	}
	portsFor(inNode).In[inPort] = entryIn
	portsFor(outNode).Out[outPort] = entryOut

	var egrID uint64
	async := d.egr != nil && entryOut.Flags()&libpip.FlagAsync != 0
	if async {
		egrID = d.seq.Add(1)
		if err := d.egr.Attach(egrID, entryOut); err != nil {
			async = false
		}
	}

	var allocated []*libpip.Handle
	defer func() {
		for _, h := range allocated {
			_ = h.Deallocate()
		}
		_ = entryIn.Deallocate()
		if async {
			_ = d.egr.End(egrID)
		} else {
			_ = entryOut.Deallocate()
		}
	}()

	for _, n := range d.svc.Order() {
		for _, e := range d.svc.Outgoing(n) {
			if portsFor(e.SrcNode).Out[e.SrcPort] != nil {
				continue // already wired (entry/exit port, or a prior pass)
			}

			srcSize, _ := d.svc.TypedHeaderSize(e.SrcNode, e.SrcPort)
			dstSize, _ := d.svc.TypedHeaderSize(e.DstNode, e.DstPort)
			in, out, err := d.pipes.Allocate(fmt.Sprintf("%d.%s->%d.%s", e.SrcNode, e.SrcPort, e.DstNode, e.DstPort), libpip.Params{
				InputHeaderSize:  dstSize,
				OutputHeaderSize: srcSize,
			})
			if err != nil {
				return
			}
			allocated = append(allocated, in, out)
			portsFor(e.SrcNode).Out[e.SrcPort] = out
			portsFor(e.DstNode).In[e.DstPort] = in
		}
	}

	// cancelled tracks nodes whose dispatch must be skipped because an
	// upstream producer gave up: if an input-side companion receives
	// input_cancelled, all downstream tasks of that request are cancelled
	// before dispatch. A node is cancelled either because one of its own
	// bound input handles already carries FlagInputCancelled, or because an
	// earlier node in topological order was itself cancelled and marked it
	// so below.
	cancelled := make(map[int]bool, d.svc.NodeCount())

	for _, n := range d.svc.Order() {
		p := portsFor(n)

		if cancelled[n] || nodePortsCancelled(p) {
			cancelled[n] = true
			for _, out := range p.Out {
				_, _ = out.Cntl(libpip.CntlOp(libpip.CntlTagCore, libpip.CntlFlagSet), libpip.FlagInputCancelled)
			}
			for _, e := range d.svc.Outgoing(n) {
				cancelled[e.DstNode] = true
			}
			continue
		}

		sv, ok := d.servlets[n]
		if !ok {
			return
		}
		d.svc.StartTimer(n)
		err := sv.Run(ctx, *p)
		d.svc.StopTimer(n)
		if err != nil {
			return
		}
	}
}

// nodePortsCancelled reports whether any of a node's bound input handles has
// already observed a producer giving up, or was disabled outright before the
// node ever ran.
func nodePortsCancelled(p *libsvl.Ports) bool {
	for _, in := range p.In {
		if in.Flags()&(libpip.FlagInputCancelled|libpip.FlagDisabled) != 0 {
			return true
		}
	}
	return false
}

func internalPipeInstance(reg *libreg.Table) (*libreg.Instance, error) {
	if inst, ok := reg.LookupPath(internalPipeType); ok {
		return inst, nil
	}
	return registerMem(reg)
}
