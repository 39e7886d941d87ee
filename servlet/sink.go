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

// Sink drains its single input port and discards every byte, terminating a
// branch of the graph that has no further consumer (e.g. the "500" signal
// pipe httprender declares).
type Sink struct {
	path string
}

// NewSink returns a Sink servlet registered under the given servlet path.
func NewSink(path string) *Sink {
	return &Sink{path: path}
}

func (s *Sink) Path() string { return s.path }

func (s *Sink) Ports() []libgrf.PortSpec {
	return []libgrf.PortSpec{
		{Name: "in", Dir: libpip.DirectionInput, Type: "bytes"},
	}
}

func (s *Sink) Run(ctx libpip.ModuleContext, ports Ports) error {
	in, err := ports.Input("in")
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
			return nil
		}
	}
}
