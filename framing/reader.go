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

import (
	"bufio"
	"io"
)

// Reader is a streaming chunk decoder: it never buffers more than one
// in-flight message at the framing level.
type Reader struct {
	r       *bufio.Reader
	maxSize int
}

// NewReader wraps r with a chunk-decoding message reader. maxSize, if
// positive, bounds the total size of a reassembled message.
func NewReader(r io.Reader, maxSize int) *Reader {
	return &Reader{r: bufio.NewReader(r), maxSize: maxSize}
}

// ReadMessage reads chunks until the terminating zero-length chunk and
// returns the reassembled message. A zero-length chunk read before any
// payload chunk is a NOOP keepalive and is skipped transparently.
func (fr *Reader) ReadMessage() ([]byte, error) {
	var msg []byte

	for {
		n, err := fr.readChunkHeader()
		if err != nil {
			return nil, err
		}

		if n == 0 {
			if len(msg) == 0 {
				continue
			}
			return msg, nil
		}

		chunk := make([]byte, n)
		if _, err := io.ReadFull(fr.r, chunk); err != nil {
			return nil, ErrorRead.Error(err)
		}

		msg = append(msg, chunk...)
		if fr.maxSize > 0 && len(msg) > fr.maxSize {
			return nil, ErrorMessageTooLarge.Error()
		}
	}
}

func (fr *Reader) readChunkHeader() (int, error) {
	var hdr [2]byte
	if _, err := io.ReadFull(fr.r, hdr[:]); err != nil {
		return 0, ErrorRead.Error(err)
	}
	return int(hdr[0])<<8 | int(hdr[1]), nil
}
