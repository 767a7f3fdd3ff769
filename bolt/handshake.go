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

package bolt

import (
	"bytes"
	"fmt"
	"io"
)

// ProtocolVersion is a proposed or negotiated (major, minor) Bolt
// version pair.
type ProtocolVersion struct {
	Major byte
	Minor byte
}

// DefaultProposals is the set of versions this driver offers, most
// preferred first (at most four).
var DefaultProposals = [4]ProtocolVersion{
	{Major: 5, Minor: 4},
	{Major: 5, Minor: 0},
	{Major: 4, Minor: 4},
	{Major: 3, Minor: 0},
}

// handshake sends the magic preamble and version proposals, then
// interprets the server's 4-byte reply.
func handshake(rw io.ReadWriter, proposals [4]ProtocolVersion) (ProtocolVersion, error) {
	var out bytes.Buffer
	out.Write(magicPreamble[:])

	for _, p := range proposals {
		out.Write([]byte{0, 0, p.Minor, p.Major})
	}

	if _, err := rw.Write(out.Bytes()); err != nil {
		return ProtocolVersion{}, ErrorDial.Error(err)
	}

	var reply [4]byte
	if _, err := io.ReadFull(rw, reply[:]); err != nil {
		return ProtocolVersion{}, ErrorDial.Error(err)
	}

	if reply == [4]byte{0, 0, 0, 0} {
		return ProtocolVersion{}, ErrorHandshakeRefused.Error(fmt.Errorf("request=% x response=% x", out.Bytes(), reply[:]))
	}

	if reply == httpResponse {
		return ProtocolVersion{}, ErrorHandshakeHTTP.Error()
	}

	return ProtocolVersion{Major: reply[3], Minor: reply[2]}, nil
}
