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
	liblog "github.com/nabbar/flowd/logger"
	loglvl "github.com/nabbar/flowd/logger/level"
)

// SetLogger attaches a logger source to the dispatcher. A nil function
// detaches it; dispatch stays silent either way when no logger is bound.
func (d *Dispatcher) SetLogger(fct liblog.FuncLog) {
	d.log.Store(fct)
}

func (d *Dispatcher) logger() liblog.Logger {
	if f := d.log.Load(); f != nil {
		return f()
	}
	return nil
}

func (d *Dispatcher) logEvent(lvl loglvl.Level, msg string, path string, err error) {
	log := d.logger()
	if log == nil {
		return
	}
	e := log.Entry(lvl, msg).FieldAdd("module", path)
	if err != nil {
		e = e.ErrorAdd(true, err)
	}
	e.Log()
}
