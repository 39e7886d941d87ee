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

package dispatch

import (
	libreg "github.com/nabbar/flowd/registry"
	libmem "github.com/nabbar/flowd/transport/mem"
)

// internalPipeCode is the reserved type code the dispatcher registers its
// own private mem instance under. Application graphs address their
// transport modules by their own codes; this one is never looked up by a
// caller outside this package.
const internalPipeCode libreg.TypeCode = ^libreg.TypeCode(0)

// internalPipeHeaderSize bounds the declared handle-payload pool size for
// the internal pipe instance; the mem module's own payloads do not draw
// from it, but Instance still expects a size for its pool bookkeeping.
const internalPipeHeaderSize = 4096

func registerMem(reg *libreg.Table) (*libreg.Instance, error) {
	mod := libmem.New(internalPipeType)
	return reg.Register(internalPipeCode, internalPipeType, mod, internalPipeHeaderSize, nil)
}
