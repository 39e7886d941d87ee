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

package graph

import (
	"encoding/binary"
	"errors"
	"io"
	"syscall"
)

// ServletTable resolves a node's persisted binary path back to a live
// ServletRef when loading a graph.
type ServletTable interface {
	Lookup(path string) (ServletRef, bool)
}

// Dump serializes a frozen Service: fixed header, length-prefixed
// port names, per-node (path, argc, argv), per-edge (src id, dst id,
// src port, dst port). All integers are little-endian fixed-width.
func Dump(svc *Service, w io.Writer) error {
	if svc == nil {
		return ErrorInvalidArgument.Error()
	}

	if err := writeU32(w, uint32(len(svc.nodes))); err != nil {
		return err
	}
	if err := writeU32(w, uint32(len(svc.edges))); err != nil {
		return err
	}
	if err := writeU32(w, uint32(svc.inputNode)); err != nil {
		return err
	}
	if err := writeU32(w, uint32(svc.outputNode)); err != nil {
		return err
	}
	if err := writeString(w, svc.inputPort); err != nil {
		return err
	}
	if err := writeString(w, svc.outputPort); err != nil {
		return err
	}

	for _, n := range svc.nodes {
		if err := writeString(w, n.ref.Path()); err != nil {
			return err
		}
		if err := writeU32(w, uint32(len(n.argv))); err != nil {
			return err
		}
		for _, a := range n.argv {
			if err := writeString(w, a); err != nil {
				return err
			}
		}
	}

	for _, e := range svc.edges {
		if err := writeU32(w, uint32(e.SrcNode)); err != nil {
			return err
		}
		if err := writeU32(w, uint32(e.DstNode)); err != nil {
			return err
		}
		if err := writeString(w, e.SrcPort); err != nil {
			return err
		}
		if err := writeString(w, e.DstPort); err != nil {
			return err
		}
	}

	return nil
}

// Load deserializes a graph stream, reconstructs a ServiceBuffer via the
// given servlet table, and freezes it.
func Load(r io.Reader, table ServletTable) (*Service, error) {
	nodeCount, err := readU32(r)
	if err != nil {
		return nil, err
	}
	edgeCount, err := readU32(r)
	if err != nil {
		return nil, err
	}
	inputNode, err := readU32(r)
	if err != nil {
		return nil, err
	}
	outputNode, err := readU32(r)
	if err != nil {
		return nil, err
	}
	inputPort, err := readString(r)
	if err != nil {
		return nil, err
	}
	outputPort, err := readString(r)
	if err != nil {
		return nil, err
	}

	if nodeCount > MaxNodes || edgeCount > MaxEdges {
		return nil, ErrorSizeCeilingExceeded.Error()
	}

	buf := NewServiceBuffer()
	buf.AllowReuse = true

	for i := uint32(0); i < nodeCount; i++ {
		path, err := readString(r)
		if err != nil {
			return nil, err
		}
		argc, err := readU32(r)
		if err != nil {
			return nil, err
		}
		argv := make([]string, 0, argc)
		for a := uint32(0); a < argc; a++ {
			v, err := readString(r)
			if err != nil {
				return nil, err
			}
			argv = append(argv, v)
		}

		ref, ok := table.Lookup(path)
		if !ok {
			return nil, ErrorUnknownServlet.Error()
		}
		if _, err := buf.AddNode(ref, argv); err != nil {
			return nil, err
		}
	}

	for i := uint32(0); i < edgeCount; i++ {
		srcNode, err := readU32(r)
		if err != nil {
			return nil, err
		}
		dstNode, err := readU32(r)
		if err != nil {
			return nil, err
		}
		srcPort, err := readString(r)
		if err != nil {
			return nil, err
		}
		dstPort, err := readString(r)
		if err != nil {
			return nil, err
		}
		if err := buf.AddPipe(int(srcNode), srcPort, int(dstNode), dstPort); err != nil {
			return nil, err
		}
	}

	if err := buf.SetInput(int(inputNode), inputPort); err != nil {
		return nil, err
	}
	if err := buf.SetOutput(int(outputNode), outputPort); err != nil {
		return nil, err
	}

	return Freeze(buf)
}

func writeU32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func writeString(w io.Writer, s string) error {
	if err := writeU32(w, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readU32(r io.Reader) (uint32, error) {
	var b [4]byte
	if err := readExact(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func readString(r io.Reader) (string, error) {
	n, err := readU32(r)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	b := make([]byte, n)
	if err := readExact(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

// readExact fills buf completely, restarting on EINTR and treating a
// zero-byte, no-error read as malformed input.
func readExact(r io.Reader, buf []byte) error {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n

		if err != nil {
			if errors.Is(err, syscall.EINTR) {
				continue
			}
			return ErrorMalformedStream.Error()
		}
		if n == 0 {
			return ErrorMalformedStream.Error()
		}
	}
	return nil
}
