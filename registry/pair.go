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
	libpip "github.com/nabbar/flowd/pipe"
)

// Allocate hands the instance's module to pipe.Allocate, the concrete form
// of `allocate(type, hint, params)`: callers address the module by
// registry Instance rather than by raw pipe.Module so lookup and pair
// creation share one entry point.
func (i *Instance) Allocate(hint string, params libpip.Params) (in *libpip.Handle, out *libpip.Handle, err error) {
	return libpip.Allocate(i.mod, hint, params)
}

// Accept hands the instance's module to pipe.Accept, the concrete form of
// `accept(type, params)`. Only meaningful when EventCapable is true.
func (i *Instance) Accept(ctx libpip.ModuleContext, params libpip.Params) (in *libpip.Handle, out *libpip.Handle, err error) {
	return libpip.Accept(ctx, i.mod, params)
}
