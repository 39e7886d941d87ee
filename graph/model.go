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

package graph

import libpip "github.com/nabbar/flowd/pipe"

// Size ceilings on node and edge count. Implementation-defined;
// generous enough for any real service graph while still catching a
// pathological or corrupt input.
const (
	MaxNodes = 1 << 16
	MaxEdges = 1 << 18
)

// PortSpec describes one named port a servlet declares, with the type name
// and typed-header size type propagation resolves against.
type PortSpec struct {
	Name       string
	Dir        libpip.Direction
	Type       string
	HeaderSize int
}

// ServletRef is the minimal shape a graph node needs from a servlet: a
// binary path used for persistence and servlet-table lookup, and its port
// declarations. The `servlet` package's Servlet type satisfies this without
// graph importing servlet, keeping the dependency one-directional.
type ServletRef interface {
	Path() string
	Ports() []PortSpec
}

// Edge is one pipe between two port slots.
type Edge struct {
	SrcNode int
	SrcPort string
	DstNode int
	DstPort string
}

// portKey identifies one port slot for the "used at most once" check.
type portKey struct {
	node int
	port string
}
