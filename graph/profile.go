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
	"sync"
	"time"
)

// profiler holds optional per-node time-in-node statistics. The
// scheduler drives start/stop; the graph only owns storage, never the
// collection policy.
type profiler struct {
	mu      sync.Mutex
	started map[int]time.Time
	total   map[int]time.Duration
	count   map[int]uint64
}

func newProfiler(nodeCount int) *profiler {
	return &profiler{
		started: make(map[int]time.Time, nodeCount),
		total:   make(map[int]time.Duration, nodeCount),
		count:   make(map[int]uint64, nodeCount),
	}
}

// StartTimer marks the beginning of a node's execution for this request.
func (s *Service) StartTimer(node int) {
	s.prof.mu.Lock()
	defer s.prof.mu.Unlock()
	s.prof.started[node] = time.Now()
}

// StopTimer accumulates the elapsed time since the matching StartTimer. A
// StopTimer with no matching StartTimer is a no-op.
func (s *Service) StopTimer(node int) {
	s.prof.mu.Lock()
	defer s.prof.mu.Unlock()

	t0, ok := s.prof.started[node]
	if !ok {
		return
	}
	delete(s.prof.started, node)
	s.prof.total[node] += time.Since(t0)
	s.prof.count[node]++
}

// NodeStat is a snapshot of one node's accumulated time-in-node.
type NodeStat struct {
	Node  int
	Total time.Duration
	Calls uint64
}

// Flush returns and clears the accumulated per-node statistics.
func (s *Service) Flush() []NodeStat {
	s.prof.mu.Lock()
	defer s.prof.mu.Unlock()

	out := make([]NodeStat, 0, len(s.prof.total))
	for n, d := range s.prof.total {
		out = append(out, NodeStat{Node: n, Total: d, Calls: s.prof.count[n]})
	}
	s.prof.total = make(map[int]time.Duration)
	s.prof.count = make(map[int]uint64)
	return out
}
