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

package servlet

import (
	libgrf "github.com/nabbar/flowd/graph"
	libpip "github.com/nabbar/flowd/pipe"
)

// Ports binds a node's resolved handles by port name, split by direction so
// a Run implementation never has to guess which map a name lives in.
type Ports struct {
	In  map[string]*libpip.Handle
	Out map[string]*libpip.Handle
}

// Input looks up a required input handle, returning ErrorMissingPort if
// absent.
func (p Ports) Input(name string) (*libpip.Handle, error) {
	h, ok := p.In[name]
	if !ok || h == nil {
		return nil, ErrorMissingPort.Error()
	}
	return h, nil
}

// Output looks up a required output handle, returning ErrorMissingPort if
// absent.
func (p Ports) Output(name string) (*libpip.Handle, error) {
	h, ok := p.Out[name]
	if !ok || h == nil {
		return nil, ErrorMissingPort.Error()
	}
	return h, nil
}

// Servlet is the computational-unit ABI a frozen graph node runs: it
// declares its ports (satisfying graph.ServletRef so a graph.ServiceBuffer
// can wire it without importing this package), and Run drives one
// request/flow through its bound handles until EOM or ctx is done.
//
// Run must not block past ctx being done, and must treat a would-block
// (0, nil) Handle.Read/Write return as "try again", exactly as the pipe
// layer's own non-blocking contract requires of a module.
type Servlet interface {
	libgrf.ServletRef
	Run(ctx libpip.ModuleContext, ports Ports) error
}
