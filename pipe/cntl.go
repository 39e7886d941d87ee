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

// Cntl opcodes are 32 bits: the high 8 bits select a tag, the low 24 bits
// select an operation within that tag. CntlTagCore is reserved for the
// operations every handle supports regardless of the backing module; any
// other tag value is handed to the module's Cntl implementation verbatim,
// op and args included.
const (
	CntlTagCore uint8  = 0xFF
	cntlTagMask uint32 = 0xFF000000
	cntlOpMask  uint32 = 0x00FFFFFF
)

// CntlOp builds an opcode from a tag and an operation number.
func CntlOp(tag uint8, op uint32) uint32 {
	return uint32(tag)<<24 | (op & cntlOpMask)
}

func cntlTag(op uint32) uint8 {
	return uint8((op & cntlTagMask) >> 24)
}

func cntlNum(op uint32) uint32 {
	return op & cntlOpMask
}

// Core cntl operations, tag CntlTagCore.
const (
	CntlFlagGet uint32 = iota
	CntlFlagSet
	CntlFlagClear
	CntlHeaderRead
	CntlHeaderWrite
	CntlPathGet
	CntlNoop
)
