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

// Null is Sink's output-side mirror: it declares a single output port and
// immediately half-closes it, writing nothing. Pairing a Sink entry node
// with a Null exit node gives a drain-only connection handler (read
// everything, answer nothing, close) a structurally valid graph, since a
// Service always needs both an input and an output node/port even
// when the service itself never writes back to the client.
type Null struct {
	path string
}

// NewNull returns a Null servlet registered under the given servlet path.
func NewNull(path string) *Null {
	return &Null{path: path}
}

func (n *Null) Path() string { return n.path }

func (n *Null) Ports() []libgrf.PortSpec {
	return []libgrf.PortSpec{
		{Name: "out", Dir: libpip.DirectionOutput, Type: "bytes"},
	}
}

func (n *Null) Run(_ libpip.ModuleContext, ports Ports) error {
	out, err := ports.Output("out")
	if err != nil {
		return err
	}
	return out.EOM(nil)
}
