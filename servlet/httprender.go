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

package servlet

import (
	"bytes"
	"fmt"

	libgrf "github.com/nabbar/flowd/graph"
	libpip "github.com/nabbar/flowd/pipe"
)

// statusPhrase covers the handful of codes a minimal renderer needs;
// anything else falls back to "Unknown Status".
var statusPhrase = map[int]string{
	200: "OK",
	201: "Created",
	204: "No Content",
	301: "Moved Permanently",
	302: "Found",
	304: "Not Modified",
	400: "Bad Request",
	401: "Unauthorized",
	403: "Forbidden",
	404: "Not Found",
	500: "Internal Server Error",
	502: "Bad Gateway",
	503: "Service Unavailable",
}

// HTTPRender formats a complete HTTP/1.1 response from a buffered response
// body read off "response" and writes the status line, a Content-Length
// header, and the body onto "output".
//
// The port layout is "response" input, "output" async output, and a "500"
// signal sink. Chunked transfer, compression negotiation and range requests
// are out of scope here; what remains is the status-line/header/body framing
// that actually defines an HTTP/1.1 response.
type HTTPRender struct {
	path       string
	statusCode int
	mimeType   string
}

// NewHTTPRender returns an HTTPRender servlet that renders every response
// with the given status code and MIME type.
func NewHTTPRender(path string, statusCode int, mimeType string) *HTTPRender {
	if statusCode == 0 {
		statusCode = 200
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return &HTTPRender{path: path, statusCode: statusCode, mimeType: mimeType}
}

func (h *HTTPRender) Path() string { return h.path }

func (h *HTTPRender) Ports() []libgrf.PortSpec {
	return []libgrf.PortSpec{
		{Name: "response", Dir: libpip.DirectionInput, Type: "Response"},
		{Name: "500", Dir: libpip.DirectionInput, Type: "bytes"},
		{Name: "output", Dir: libpip.DirectionOutput, Type: "bytes"},
	}
}

func (h *HTTPRender) Run(ctx libpip.ModuleContext, ports Ports) error {
	resp, err := ports.Input("response")
	if err != nil {
		return err
	}
	out, err := ports.Output("output")
	if err != nil {
		return err
	}

	var body bytes.Buffer
	buf := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, err := resp.Read(buf)
		if err != nil {
			return ErrorRunFailure.Error(err)
		}
		if n > 0 {
			body.Write(buf[:n])
			continue
		}
		if !resp.HasUnreadData() {
			break
		}
	}

	if err := h.writeResponse(out, body.Bytes()); err != nil {
		return err
	}
	return out.EOM(nil)
}

func (h *HTTPRender) writeResponse(out *libpip.Handle, body []byte) error {
	phrase, ok := statusPhrase[h.statusCode]
	if !ok {
		phrase = "Unknown Status"
	}

	var head bytes.Buffer
	fmt.Fprintf(&head, "HTTP/1.1 %d %s\r\n", h.statusCode, phrase)
	fmt.Fprintf(&head, "Content-Type: %s\r\n", h.mimeType)
	fmt.Fprintf(&head, "Content-Length: %d\r\n", len(body))
	head.WriteString("Connection: close\r\n\r\n")
	head.Write(body)

	data := head.Bytes()
	for off := 0; off < len(data); {
		n, err := out.Write(data[off:])
		if err != nil {
			return ErrorRunFailure.Error(err)
		}
		off += n
	}
	return nil
}
