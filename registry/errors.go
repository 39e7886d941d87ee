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

package registry

import (
	"fmt"

	liberr "github.com/nabbar/flowd/errors"
)

const (
	ErrorInvalidArgument liberr.CodeError = iota + liberr.MinPkgRegistry
	ErrorDuplicateCode
	ErrorDuplicatePath
	ErrorNotFound
	ErrorNotInitialized
	ErrorInitFailed
	ErrorPropertyUnsupported
)

func init() {
	if liberr.ExistInMapMessage(ErrorInvalidArgument) {
		panic(fmt.Errorf("error code collision with package flowd/registry"))
	}
	liberr.RegisterIdFctMessage(ErrorInvalidArgument, getMessage)
}

func getMessage(code liberr.CodeError) (message string) {
	switch code {
	case ErrorInvalidArgument:
		return "invalid argument given to registry operation"
	case ErrorDuplicateCode:
		return "a module is already registered under this type code"
	case ErrorDuplicatePath:
		return "a module is already registered under this path"
	case ErrorNotFound:
		return "no module instance registered for this code or path"
	case ErrorNotInitialized:
		return "module instance has not been initialized"
	case ErrorInitFailed:
		return "module instance initialization failed"
	case ErrorPropertyUnsupported:
		return "module does not expose named properties"
	}

	return liberr.NullMessage
}
