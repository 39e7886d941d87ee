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

// Allocate creates a pipelined pair sharing one module-private resource
// (`allocate`): both handles are born attached to the same *resource,
// so a flag propagated through one is visible to the other and either one
// being the last companion to Deallocate purges the shared state.
func Allocate(mod Module, hint string, params Params) (in *Handle, out *Handle, err error) {
	if mod == nil {
		return nil, nil, ErrorInvalidArgument.Error()
	}
	a, ok := mod.(ModuleAllocator)
	if !ok {
		return nil, nil, ErrorUnsupportedOp.Error()
	}

	inPayload, outPayload, err := a.Allocate(hint, params)
	if err != nil {
		return nil, nil, ErrorTransportFailure.Error(err)
	}

	res := newResource(mod, params)
	in = newHandle(res, DirectionInput, inPayload, params.InputHeaderSize)
	out = newHandle(res, DirectionOutput, outPayload, params.OutputHeaderSize)
	res.addCompanion(in)
	res.addCompanion(out)
	return in, out, nil
}

// Accept blocks the calling event thread until the module produces a
// request pair (`accept`). Only modules flagged event-capable (those
// implementing ModuleAcceptor) support this; it is the operation the Event
// Dispatcher drives, one goroutine per event-capable instance.
func Accept(ctx ModuleContext, mod Module, params Params) (in *Handle, out *Handle, err error) {
	if mod == nil {
		return nil, nil, ErrorInvalidArgument.Error()
	}
	a, ok := mod.(ModuleAcceptor)
	if !ok {
		return nil, nil, ErrorUnsupportedOp.Error()
	}

	inPayload, outPayload, err := a.Accept(ctx, params)
	if err != nil {
		return nil, nil, ErrorTransportFailure.Error(err)
	}

	res := newResource(mod, params)
	res.accepted = true
	in = newHandle(res, DirectionInput, inPayload, params.InputHeaderSize)
	out = newHandle(res, DirectionOutput, outPayload, params.OutputHeaderSize)
	res.addCompanion(in)
	res.addCompanion(out)
	return in, out, nil
}
