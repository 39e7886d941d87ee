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

package egress

import "github.com/prometheus/client_golang/prometheus"

// metrics holds the loop's own Prometheus collectors. Each Loop owns a
// private prometheus.Registry instead of registering against the global
// default one, since a process may run more than one Loop (and tests
// construct many in a single run) and duplicate registration of the same
// metric name against the default registerer panics.
type metrics struct {
	reg *prometheus.Registry

	slotsCreated   prometheus.Counter
	slotsFinished  prometheus.Counter
	slotErrors     prometheus.Counter
	slotTimeouts   prometheus.Counter
	readyCoalesced prometheus.Counter
	queueDepth     prometheus.Gauge
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()

	m := &metrics{
		reg: reg,
		slotsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flowd_egress_slots_created_total",
			Help: "Connections admitted to the async egress loop via Register.",
		}),
		slotsFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flowd_egress_slots_finished_total",
			Help: "Slots that reached StateFinished.",
		}),
		slotErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flowd_egress_slot_errors_total",
			Help: "Slots that reached StateRaising because of a write or handle error.",
		}),
		slotTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flowd_egress_slot_timeouts_total",
			Help: "Slots evicted by the connection TTL heap while waiting in StateWaitConn.",
		}),
		readyCoalesced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flowd_egress_ready_coalesced_total",
			Help: "READY postings absorbed by a slot's already-pending readiness bit.",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "flowd_egress_queue_depth",
			Help: "Pending messages in the loop's internal message queue.",
		}),
	}

	reg.MustRegister(m.slotsCreated, m.slotsFinished, m.slotErrors, m.slotTimeouts, m.readyCoalesced, m.queueDepth)
	return m
}

// Registry exposes the loop's private collector registry so a caller can
// fold it into a larger /metrics endpoint via prometheus.Gatherers.
func (l *Loop) Registry() *prometheus.Registry { return l.metrics.reg }
