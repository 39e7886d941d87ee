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

import (
	"sync"
	"sync/atomic"

	libpip "github.com/nabbar/flowd/pipe"

	"github.com/google/uuid"
)

// TypeCode identifies a registered module kind; it is the high-level
// counterpart of the dotted path, used by compiled graphs that only carry
// the numeric form.
type TypeCode uint32

// Instance is one registered, initialized module: its vtable, its declared
// handle payload size and the pool handles of that size are drawn from.
type Instance struct {
	mu sync.Mutex

	id   uuid.UUID
	code TypeCode
	path string
	size int

	mod libpip.Module
	pl  *handlePool

	started atomic.Bool
}

func newInstance(code TypeCode, path string, mod libpip.Module, declaredSize int) *Instance {
	return &Instance{
		id:   uuid.New(),
		code: code,
		path: path,
		size: declaredSize,
		mod:  mod,
		pl:   newHandlePool(declaredSize),
	}
}

// ID returns this instance's process-lifetime unique identity. Unlike
// TypeCode or Path, which are caller-chosen and may be reused across an
// Unregister/Register cycle, ID distinguishes one registration from the
// next for logging and tracing even when the code and path are identical.
func (i *Instance) ID() uuid.UUID { return i.id }

// Code returns the instance's numeric type code.
func (i *Instance) Code() TypeCode { return i.code }

// Path returns the instance's dotted configuration path.
func (i *Instance) Path() string { return i.path }

// Module returns the underlying vtable, for direct use by pipe allocate/
// accept/fork call sites.
func (i *Instance) Module() libpip.Module { return i.mod }

// Pool returns the instance's page-backed handle-payload pool.
func (i *Instance) Pool() *handlePool { return i.pl }

// IsStarted reports whether Init has completed successfully.
func (i *Instance) IsStarted() bool { return i.started.Load() }

// EventCapable reports whether the instance implements accept, i.e. whether
// the dispatcher should own a goroutine for it.
func (i *Instance) EventCapable() bool {
	_, ok := i.mod.(libpip.ModuleAcceptor)
	return ok
}

// Init runs the module's one-time setup. Calling Init twice is a no-op.
func (i *Instance) Init(argv []string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.started.Load() {
		return nil
	}
	if err := i.mod.Init(argv); err != nil {
		return ErrorInitFailed.Error(err)
	}
	i.started.Store(true)
	return nil
}

// Cleanup tears down the module. Calling Cleanup before Init, or twice, is
// a no-op.
func (i *Instance) Cleanup() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.started.Load() {
		return nil
	}
	i.started.Store(false)
	if err := i.mod.Cleanup(); err != nil {
		return ErrorInitFailed.Error(err)
	}
	return nil
}

// GetProperty reads a named instance property, when the module exposes one.
func (i *Instance) GetProperty(name string) (any, error) {
	p, ok := i.mod.(libpip.ModuleProperties)
	if !ok {
		return nil, ErrorPropertyUnsupported.Error()
	}
	return p.GetProperty(name)
}

// SetProperty writes a named instance property, when the module exposes
// one.
func (i *Instance) SetProperty(name string, value any) error {
	p, ok := i.mod.(libpip.ModuleProperties)
	if !ok {
		return ErrorPropertyUnsupported.Error()
	}
	return p.SetProperty(name, value)
}

// EventThreadKilled notifies the module, if it cares, that its dispatcher
// goroutine is gone.
func (i *Instance) EventThreadKilled() {
	if k, ok := i.mod.(libpip.ModuleEventKillable); ok {
		k.EventThreadKilled()
	}
}
