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

import (
	"fmt"
	"sort"

	libpip "github.com/nabbar/flowd/pipe"
)

// Freeze validates a ServiceBuffer and compiles it into an immutable
// Service.
func Freeze(b *ServiceBuffer) (*Service, error) {
	if b == nil {
		return nil, ErrorInvalidArgument.Error()
	}
	if !b.hasInput {
		return nil, ErrorInvalidArgument.Error()
	}
	if !b.hasOutput {
		return nil, ErrorInvalidArgument.Error()
	}
	if len(b.nodes) > MaxNodes || len(b.edges) > MaxEdges {
		return nil, ErrorSizeCeilingExceeded.Error()
	}

	svc := &Service{
		nodes:      make([]nodeInfo, len(b.nodes)),
		edges:      append([]Edge(nil), b.edges...),
		inputNode:  b.inputNode,
		inputPort:  b.inputPort,
		outputNode: b.outputNode,
		outputPort: b.outputPort,
		prof:       newProfiler(len(b.nodes)),
	}

	for i, n := range b.nodes {
		svc.nodes[i] = nodeInfo{ref: n.ref, argv: n.argv, ports: map[string]resolvedPort{}}
	}

	// Count incoming/outgoing edges per node.
	for _, e := range b.edges {
		svc.nodes[e.SrcNode].outgoing = append(svc.nodes[e.SrcNode].outgoing, e)
		svc.nodes[e.DstNode].incoming = append(svc.nodes[e.DstNode].incoming, e)
	}

	for i := range svc.nodes {
		if i != svc.inputNode && len(svc.nodes[i].incoming) == 0 && len(svc.nodes[i].outgoing) > 0 {
			svc.warnings = append(svc.warnings, fmt.Sprintf("node %d has no incoming edges", i))
		}
	}

	if len(svc.nodes[svc.inputNode].incoming) > 0 {
		return nil, ErrorEntryHasIncoming.Error()
	}
	if len(svc.nodes[svc.outputNode].outgoing) > 0 {
		return nil, ErrorExitHasOutgoing.Error()
	}

	order, err := topoSort(svc.nodes)
	if err != nil {
		return nil, err
	}
	svc.order = order

	sortOutgoingByPortIndex(svc.nodes)

	if err := propagateTypes(svc); err != nil {
		return nil, err
	}

	svc.critical = criticalNodes(svc.nodes, order, svc.inputNode, svc.outputNode)

	return svc, nil
}

// topoSort runs Kahn's algorithm over the node/edge set; a non-empty
// residual after processing every reducible node means a cycle, which is
// fatal.
func topoSort(nodes []nodeInfo) ([]int, error) {
	inDegree := make([]int, len(nodes))
	for i, n := range nodes {
		inDegree[i] = len(n.incoming)
	}

	queue := make([]int, 0, len(nodes))
	for i, d := range inDegree {
		if d == 0 {
			queue = append(queue, i)
		}
	}
	sort.Ints(queue)

	order := make([]int, 0, len(nodes))
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		order = append(order, n)

		next := make([]int, 0, len(nodes[n].outgoing))
		for _, e := range nodes[n].outgoing {
			inDegree[e.DstNode]--
			if inDegree[e.DstNode] == 0 {
				next = append(next, e.DstNode)
			}
		}
		sort.Ints(next)
		queue = append(queue, next...)
	}

	if len(order) != len(nodes) {
		return nil, ErrorCycleDetected.Error()
	}
	return order, nil
}

// sortOutgoingByPortIndex orders each node's outgoing edges by the source
// port's declaration index, so scheduling visits an original output port
// before any shadow companion declared after it.
func sortOutgoingByPortIndex(nodes []nodeInfo) {
	for i := range nodes {
		portIndex := make(map[string]int)
		idx := 0
		for _, p := range nodes[i].ref.Ports() {
			if p.Dir == libpip.DirectionOutput {
				portIndex[p.Name] = idx
				idx++
			}
		}
		edges := nodes[i].outgoing
		sort.SliceStable(edges, func(a, c int) bool {
			return portIndex[edges[a].SrcPort] < portIndex[edges[c].SrcPort]
		})
	}
}

func propagateTypes(svc *Service) error {
	for i := range svc.nodes {
		for _, p := range svc.nodes[i].ref.Ports() {
			svc.nodes[i].ports[p.Name] = resolvedPort{Type: p.Type, HeaderSize: p.HeaderSize}
		}
	}

	for _, e := range svc.edges {
		src := svc.nodes[e.SrcNode].ports[e.SrcPort]
		dst := svc.nodes[e.DstNode].ports[e.DstPort]
		if !typesCompatible(src.Type, dst.Type) {
			return ErrorTypeMismatch.Error()
		}
	}
	return nil
}

func typesCompatible(src, dst string) bool {
	return src == dst || src == "any" || dst == "any"
}

// criticalNodes computes, for every node, whether it dominates the exit
// node over the DAG - equivalently, whether every path from entry to exit
// passes through it. Immediate dominators are computed with the standard
// iterative algorithm (Cooper, Harvey, Kennedy), using the topological
// order both as the node visitation order and as the "reverse postorder
// number" the algorithm's intersect step relies on - valid because a
// topological order of a DAG is always a reverse postorder of a DFS from
// the entry node.
func criticalNodes(nodes []nodeInfo, order []int, entry, exit int) map[int]bool {
	rpo := make(map[int]int, len(order))
	for idx, n := range order {
		rpo[n] = idx
	}

	idom := make(map[int]int)
	idom[entry] = entry

	changed := true
	for changed {
		changed = false
		for _, n := range order {
			if n == entry {
				continue
			}
			var newIdom = -1
			for _, e := range nodes[n].incoming {
				p := e.SrcNode
				if _, ok := idom[p]; !ok {
					continue
				}
				if newIdom == -1 {
					newIdom = p
					continue
				}
				newIdom = intersect(newIdom, p, idom, rpo)
			}
			if newIdom == -1 {
				continue
			}
			if cur, ok := idom[n]; !ok || cur != newIdom {
				idom[n] = newIdom
				changed = true
			}
		}
	}

	critical := make(map[int]bool, len(nodes))
	for n := range nodes {
		critical[n] = false
	}
	critical[entry] = true

	for n := exit; ; {
		critical[n] = true
		if n == entry {
			break
		}
		p, ok := idom[n]
		if !ok || p == n {
			break
		}
		n = p
	}
	return critical
}

func intersect(a, b int, idom map[int]int, rpo map[int]int) int {
	for a != b {
		for rpo[a] > rpo[b] {
			a = idom[a]
		}
		for rpo[b] > rpo[a] {
			b = idom[b]
		}
	}
	return a
}
