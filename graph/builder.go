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

type nodeBuf struct {
	ref  ServletRef
	argv []string
}

// ServiceBuffer accumulates nodes and edges under validation.
// By default each servlet instance may only back one node; set AllowReuse
// for test harnesses that deliberately wire the same servlet into several
// nodes.
type ServiceBuffer struct {
	AllowReuse bool

	nodes []nodeBuf
	edges []Edge
	used  map[portKey]bool
	seen  map[ServletRef]bool

	inputNode int
	inputPort string
	hasInput  bool

	outputNode int
	outputPort string
	hasOutput  bool
}

// NewServiceBuffer returns an empty builder.
func NewServiceBuffer() *ServiceBuffer {
	return &ServiceBuffer{
		used: make(map[portKey]bool),
		seen: make(map[ServletRef]bool),
	}
}

// AddNode registers a servlet instance as a new node and returns its id.
func (b *ServiceBuffer) AddNode(ref ServletRef, argv []string) (int, error) {
	if ref == nil {
		return -1, ErrorInvalidArgument.Error()
	}
	if !b.AllowReuse && b.seen[ref] {
		return -1, ErrorServletReused.Error()
	}
	if len(b.nodes) >= MaxNodes {
		return -1, ErrorSizeCeilingExceeded.Error()
	}

	b.seen[ref] = true
	b.nodes = append(b.nodes, nodeBuf{ref: ref, argv: argv})
	return len(b.nodes) - 1, nil
}

func (b *ServiceBuffer) findPort(nodeID int, port string, want libpip.Direction) (PortSpec, error) {
	if nodeID < 0 || nodeID >= len(b.nodes) {
		return PortSpec{}, ErrorNodeNotFound.Error()
	}
	for _, p := range b.nodes[nodeID].ref.Ports() {
		if p.Name == port {
			if p.Dir != want {
				return PortSpec{}, ErrorPortDirectionMismatch.Error()
			}
			return p, nil
		}
	}
	return PortSpec{}, ErrorPortNotFound.Error()
}

// AddPipe connects srcNode's output port to dstNode's input port.
func (b *ServiceBuffer) AddPipe(srcNode int, srcPort string, dstNode int, dstPort string) error {
	if len(b.edges) >= MaxEdges {
		return ErrorSizeCeilingExceeded.Error()
	}
	if _, err := b.findPort(srcNode, srcPort, libpip.DirectionOutput); err != nil {
		return err
	}
	if _, err := b.findPort(dstNode, dstPort, libpip.DirectionInput); err != nil {
		return err
	}

	sk := portKey{srcNode, srcPort}
	dk := portKey{dstNode, dstPort}
	if b.used[sk] {
		return ErrorPortSlotReused.Error()
	}
	if b.used[dk] {
		return ErrorPortSlotReused.Error()
	}

	b.used[sk] = true
	b.used[dk] = true
	b.edges = append(b.edges, Edge{SrcNode: srcNode, SrcPort: srcPort, DstNode: dstNode, DstPort: dstPort})
	return nil
}

// SetInput designates the graph's single entry port.
func (b *ServiceBuffer) SetInput(nodeID int, port string) error {
	if _, err := b.findPort(nodeID, port, libpip.DirectionInput); err != nil {
		return err
	}
	b.inputNode, b.inputPort, b.hasInput = nodeID, port, true
	return nil
}

// SetOutput designates the graph's single exit port.
func (b *ServiceBuffer) SetOutput(nodeID int, port string) error {
	if _, err := b.findPort(nodeID, port, libpip.DirectionOutput); err != nil {
		return err
	}
	b.outputNode, b.outputPort, b.hasOutput = nodeID, port, true
	return nil
}
