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

	liberr "github.com/nabbar/flowd/errors"
)

const (
	ErrorInvalidArgument liberr.CodeError = iota + liberr.MinPkgGraph
	ErrorNodeNotFound
	ErrorPortNotFound
	ErrorPortDirectionMismatch
	ErrorPortSlotReused
	ErrorServletReused
	ErrorCycleDetected
	ErrorTypeMismatch
	ErrorSizeCeilingExceeded
	ErrorEntryHasIncoming
	ErrorExitHasOutgoing
	ErrorMalformedStream
	ErrorUnknownServlet
)

func init() {
	if liberr.ExistInMapMessage(ErrorInvalidArgument) {
		panic(fmt.Errorf("error code collision with package flowd/graph"))
	}
	liberr.RegisterIdFctMessage(ErrorInvalidArgument, getMessage)
}

func getMessage(code liberr.CodeError) (message string) {
	switch code {
	case ErrorInvalidArgument:
		return "invalid argument given to graph operation"
	case ErrorNodeNotFound:
		return "no such node id"
	case ErrorPortNotFound:
		return "servlet does not declare this port"
	case ErrorPortDirectionMismatch:
		return "port direction does not match its use as edge endpoint"
	case ErrorPortSlotReused:
		return "port slot is already the endpoint of another edge"
	case ErrorServletReused:
		return "servlet instance already used as a node, and reuse is disabled"
	case ErrorCycleDetected:
		return "edge set is not acyclic"
	case ErrorTypeMismatch:
		return "destination port type is not assignment-compatible with source port type"
	case ErrorSizeCeilingExceeded:
		return "node or edge count exceeds the configured ceiling"
	case ErrorEntryHasIncoming:
		return "entry node has incoming edges"
	case ErrorExitHasOutgoing:
		return "exit node has outgoing edges"
	case ErrorMalformedStream:
		return "graph stream is truncated or malformed"
	case ErrorUnknownServlet:
		return "no servlet registered under this binary path"
	}

	return liberr.NullMessage
}
