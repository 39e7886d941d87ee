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

	libatm "github.com/nabbar/flowd/atomic"
	liblog "github.com/nabbar/flowd/logger"
	loglvl "github.com/nabbar/flowd/logger/level"
	libpip "github.com/nabbar/flowd/pipe"
)

// Table is the transport-module registry: a CAS-cached, dual-indexed
// table of Instance values, looked up by numeric TypeCode (the form a
// compiled graph carries) or by dotted path (the form a config file uses).
// Both indices are libatm.MapTyped, so concurrent first lookups converge
// on a single entry without a lock on the read path.
type Table struct {
	mu     sync.Mutex
	byCode libatm.MapTyped[TypeCode, *Instance]
	byPath libatm.MapTyped[string, *Instance]
	log    libatm.Value[liblog.FuncLog]
}

// NewTable returns an empty registry table.
func NewTable() *Table {
	return &Table{
		byCode: libatm.NewMapTyped[TypeCode, *Instance](),
		byPath: libatm.NewMapTyped[string, *Instance](),
		log:    libatm.NewValue[liblog.FuncLog](),
	}
}

// Register adds a new module instance under the given type code and path,
// and runs its Init. Registering a code or path that already exists is an
// error; the caller must Unregister first.
func (t *Table) Register(code TypeCode, path string, mod libpip.Module, declaredSize int, argv []string) (*Instance, error) {
	if mod == nil || path == "" {
		return nil, ErrorInvalidArgument.Error()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.byCode.Load(code); ok {
		return nil, ErrorDuplicateCode.Error()
	}
	if _, ok := t.byPath.Load(path); ok {
		return nil, ErrorDuplicatePath.Error()
	}

	inst := newInstance(code, path, mod, declaredSize)
	if err := inst.Init(argv); err != nil {
		return nil, err
	}

	t.byCode.Store(code, inst)
	t.byPath.Store(path, inst)
	t.logInstance(loglvl.InfoLevel, "transport module registered", inst, nil)
	return inst, nil
}

// Unregister removes and cleans up the instance registered under code, if
// any.
func (t *Table) Unregister(code TypeCode) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	inst, ok := t.byCode.Load(code)
	if !ok {
		return ErrorNotFound.Error()
	}

	t.byCode.Delete(code)
	t.byPath.Delete(inst.Path())
	t.logInstance(loglvl.InfoLevel, "transport module unregistered", inst, nil)
	return inst.Cleanup()
}

// Lookup finds an instance by type code.
func (t *Table) Lookup(code TypeCode) (*Instance, bool) {
	return t.byCode.Load(code)
}

// LookupPath finds an instance by dotted path.
func (t *Table) LookupPath(path string) (*Instance, bool) {
	return t.byPath.Load(path)
}

// EventCapableModules returns every registered instance whose module
// implements accept, i.e. every instance the dispatcher must own a
// goroutine for.
func (t *Table) EventCapableModules() []*Instance {
	var out []*Instance
	t.byCode.Range(func(_ TypeCode, inst *Instance) bool {
		if inst.EventCapable() {
			out = append(out, inst)
		}
		return true
	})
	return out
}

// Walk calls fn for every registered instance, in unspecified order; fn
// returning false stops the walk early.
func (t *Table) Walk(fn func(inst *Instance) bool) {
	t.byCode.Range(func(_ TypeCode, inst *Instance) bool {
		return fn(inst)
	})
}

// Shutdown cleans up every registered instance, dispatcher-teardown style:
// best-effort, collecting the first error but attempting every instance.
func (t *Table) Shutdown() error {
	var first error
	t.Walk(func(inst *Instance) bool {
		inst.EventThreadKilled()
		if err := inst.Cleanup(); err != nil && first == nil {
			first = err
		}
		return true
	})
	return first
}
