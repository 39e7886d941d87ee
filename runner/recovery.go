/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
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

// Package runner provides the panic-recovery helper shared by every
// background goroutine in the tree, plus the startStop sub-package's
// lifecycle contract.
package runner

import (
	"fmt"
	"os"
	"runtime/debug"
)

// RecoveryCaller logs a recovered panic with its origin and stack trace
// instead of letting it crash the process. Pass the recover() result
// directly; a nil value is a no-op.
func RecoveryCaller(origin string, recovered interface{}, extra ...string) {
	if recovered == nil {
		return
	}

	msg := fmt.Sprintf("panic recovered in %s: %v", origin, recovered)
	for _, e := range extra {
		msg += " | " + e
	}

	_, _ = fmt.Fprintln(os.Stderr, msg)
	_, _ = fmt.Fprintln(os.Stderr, string(debug.Stack()))
}
