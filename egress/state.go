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

// State is a slot's position in the egress state machine:
//
//	created -> WAIT_DATA <-> READY -> WAIT_CONN -> RAISING -> ERROR/FINISHED
//
// WAIT_DATA means the slot's buffer chain is empty and it is waiting on a
// producer; READY means there are bytes staged and the connection is
// believed writable; WAIT_CONN means a write would block and the slot is
// parked in the TTL heap; RAISING is the one-shot transition state that
// decides between ERROR and FINISHED.
type State uint8

const (
	StateCreated State = iota
	StateWaitData
	StateReady
	StateWaitConn
	StateRaising
	StateError
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateWaitData:
		return "wait_data"
	case StateReady:
		return "ready"
	case StateWaitConn:
		return "wait_conn"
	case StateRaising:
		return "raising"
	case StateError:
		return "error"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// terminal reports whether a slot in this state is done being scheduled.
func (s State) terminal() bool {
	return s == StateError || s == StateFinished
}
