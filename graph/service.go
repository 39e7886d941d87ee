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

// resolvedPort is a port's type-propagation result.
type resolvedPort struct {
	Type       string
	HeaderSize int
}

type nodeInfo struct {
	ref      ServletRef
	argv     []string
	incoming []Edge
	outgoing []Edge // sorted by source port declaration index
	ports    map[string]resolvedPort
}

// Service is the frozen, immutable graph the scheduler consumes. Every
// field is populated once by Freeze and never mutated afterwards, so a
// *Service is safe to share across goroutines without further
// synchronization.
type Service struct {
	nodes []nodeInfo
	edges []Edge
	order []int // topological node order

	inputNode  int
	inputPort  string
	outputNode int
	outputPort string

	critical map[int]bool
	warnings []string

	prof *profiler
}

// NodeCount returns the number of nodes in the frozen graph.
func (s *Service) NodeCount() int { return len(s.nodes) }

// EdgeCount returns the number of edges in the frozen graph.
func (s *Service) EdgeCount() int { return len(s.edges) }

// Order returns the topological node visitation order.
func (s *Service) Order() []int { return append([]int(nil), s.order...) }

// NodeRef returns the servlet reference backing a node.
func (s *Service) NodeRef(node int) (ServletRef, bool) {
	if node < 0 || node >= len(s.nodes) {
		return nil, false
	}
	return s.nodes[node].ref, true
}

// NodeArgv returns the init-argv recorded for a node.
func (s *Service) NodeArgv(node int) ([]string, bool) {
	if node < 0 || node >= len(s.nodes) {
		return nil, false
	}
	return s.nodes[node].argv, true
}

// Incoming returns a node's incoming edges.
func (s *Service) Incoming(node int) []Edge {
	if node < 0 || node >= len(s.nodes) {
		return nil
	}
	return s.nodes[node].incoming
}

// Outgoing returns a node's outgoing edges, sorted by source-port
// declaration index, so originals precede the shadow companions declared
// after them.
func (s *Service) Outgoing(node int) []Edge {
	if node < 0 || node >= len(s.nodes) {
		return nil
	}
	return s.nodes[node].outgoing
}

// PipeType returns the resolved concrete type name of a node's port.
func (s *Service) PipeType(node int, port string) (string, bool) {
	if node < 0 || node >= len(s.nodes) {
		return "", false
	}
	p, ok := s.nodes[node].ports[port]
	return p.Type, ok
}

// TypedHeaderSize returns the resolved typed-header byte length of a
// node's port.
func (s *Service) TypedHeaderSize(node int, port string) (int, bool) {
	if node < 0 || node >= len(s.nodes) {
		return 0, false
	}
	p, ok := s.nodes[node].ports[port]
	return p.HeaderSize, ok
}

// InputNode returns the graph's designated entry node and port.
func (s *Service) InputNode() (int, string) { return s.inputNode, s.inputPort }

// OutputNode returns the graph's designated exit node and port.
func (s *Service) OutputNode() (int, string) { return s.outputNode, s.outputPort }

// CriticalInfo reports, for every node, whether every execution path from
// the entry to the exit node must traverse it.
func (s *Service) CriticalInfo() map[int]bool {
	out := make(map[int]bool, len(s.critical))
	for k, v := range s.critical {
		out[k] = v
	}
	return out
}

// IsCritical reports whether a single node is critical.
func (s *Service) IsCritical(node int) bool { return s.critical[node] }

// Warnings returns non-fatal build-time diagnostics, e.g. interior nodes
// with no incoming edges.
func (s *Service) Warnings() []string { return append([]string(nil), s.warnings...) }
