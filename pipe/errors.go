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

package pipe

import (
	"fmt"

	liberr "github.com/nabbar/flowd/errors"
)

// Error codes for the pipe package: invalid-argument, unsupported-op, resource-
// exhausted, transport-failure, ownership-transfer-error and
// protocol-violation. "would-block" is never an error: it is modelled as a
// (0, nil) return
const (
	ErrorInvalidArgument liberr.CodeError = iota + liberr.MinPkgPipe
	ErrorUnsupportedOp
	ErrorResourceExhausted
	ErrorTransportFailure
	ErrorOwnershipTransfer
	ErrorDirectionMismatch
	ErrorHandleClosed
	ErrorShadowHold
)

func init() {
	if liberr.ExistInMapMessage(ErrorInvalidArgument) {
		panic(fmt.Errorf("error code collision with package flowd/pipe"))
	}
	liberr.RegisterIdFctMessage(ErrorInvalidArgument, getMessage)
}

func getMessage(code liberr.CodeError) (message string) {
	switch code {
	case ErrorInvalidArgument:
		return "invalid argument given to pipe operation"
	case ErrorUnsupportedOp:
		return "module does not support this operation"
	case ErrorResourceExhausted:
		return "handle pool or pipe resource exhausted"
	case ErrorTransportFailure:
		return "transport module reported an i/o error"
	case ErrorOwnershipTransfer:
		return "ownership of byte-source was transferred before the failure"
	case ErrorDirectionMismatch:
		return "operation is not valid for this handle direction"
	case ErrorHandleClosed:
		return "handle has already been deallocated"
	case ErrorShadowHold:
		return "shadow handle is still on hold and accepts only control operations"
	}

	return liberr.NullMessage
}
