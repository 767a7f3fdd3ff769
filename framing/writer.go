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

package framing

import "io"

// Writer accumulates one or more messages into a scratch buffer chunked
// per the wire format, then flushes them to the underlying connection in
// a single write so pipelined requests leave in one syscall.
type Writer struct {
	w   io.Writer
	buf []byte
}

// NewWriter wraps w with a chunking message writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// QueueMessage chunks msg into the scratch buffer, terminated by the
// zero-length chunk, without touching the underlying writer.
func (fw *Writer) QueueMessage(msg []byte) error {
	for len(msg) > 0 {
		n := len(msg)
		if n > MaxChunkSize {
			n = MaxChunkSize
		}

		fw.buf = append(fw.buf, byte(n>>8), byte(n))
		fw.buf = append(fw.buf, msg[:n]...)
		msg = msg[n:]
	}

	fw.buf = append(fw.buf, 0x00, 0x00)
	return nil
}

// Flush writes every queued message's chunks to the underlying writer in
// one call and clears the scratch buffer.
func (fw *Writer) Flush() error {
	if len(fw.buf) == 0 {
		return nil
	}

	if _, err := fw.w.Write(fw.buf); err != nil {
		return ErrorWrite.Error(err)
	}

	fw.buf = fw.buf[:0]
	return nil
}

// Pending reports whether any message has been queued but not flushed.
func (fw *Writer) Pending() bool {
	return len(fw.buf) > 0
}
