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

// Echo copies every byte it reads off "in" straight onto "out", stopping at
// EOM or when ctx is done. It is the simplest possible servlet and a useful
// smoke test for a graph wiring: a single edge between two Echo instances
// should move a request through unchanged.
type Echo struct {
	path string
}

// NewEcho returns an Echo servlet registered under the given servlet path.
func NewEcho(path string) *Echo {
	return &Echo{path: path}
}

func (e *Echo) Path() string { return e.path }

func (e *Echo) Ports() []libgrf.PortSpec {
	return []libgrf.PortSpec{
		{Name: "in", Dir: libpip.DirectionInput, Type: "bytes"},
		{Name: "out", Dir: libpip.DirectionOutput, Type: "bytes"},
	}
}

func (e *Echo) Run(ctx libpip.ModuleContext, ports Ports) error {
	in, err := ports.Input("in")
	if err != nil {
		return err
	}
	out, err := ports.Output("out")
	if err != nil {
		return err
	}

	buf := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, err := in.Read(buf)
		if err != nil {
			return ErrorRunFailure.Error(err)
		}
		if n == 0 && !in.HasUnreadData() {
			return out.EOM(nil)
		}
		if n == 0 {
			continue
		}

		for off := 0; off < n; {
			w, err := out.Write(buf[off:n])
			if err != nil {
				return ErrorRunFailure.Error(err)
			}
			off += w
		}
	}
}
