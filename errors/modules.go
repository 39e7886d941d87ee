/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
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

package errors

const (
	MinPkgCertificate = 300
	MinPkgIOUtils     = 1400
	MinPkgLogger      = 1600
	MinPkgSemaphore   = 2900
	MinPkgVersion     = 3300
	MinPkgViper       = 3400

	// MinPkgPipe is the starting error code for the pipe handle layer.
	MinPkgPipe = 4000

	// MinPkgRegistry is the starting error code for the transport-module registry.
	MinPkgRegistry = 4100

	// MinPkgGraph is the starting error code for the service-graph model.
	MinPkgGraph = 4200

	// MinPkgEgress is the starting error code for the async egress loop.
	MinPkgEgress = 4300

	// MinPkgDispatch is the starting error code for the event dispatcher.
	MinPkgDispatch = 4400

	// MinPkgTransport is the starting error code for reference transport modules.
	MinPkgTransport = 4500

	// MinPkgServlet is the starting error code for the built-in servlet set.
	MinPkgServlet = 4600

	// MinPkgRuntime is the starting error code for the cmd/flowd binary.
	MinPkgRuntime = 4700

	MinAvailable = 4800

	// MIN_AVAILABLE @Deprecated use MinAvailable constant
	MIN_AVAILABLE = MinAvailable
)
