/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
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

package errors

const (
	MinPkgCertificate = 300
	MinPkgConfig      = 500

	// MinPkgPackStream covers the PackStream codec (component A): domain
	// errors, unsupported byte-string versions, oversized integers.
	MinPkgPackStream = 4100

	// MinPkgFraming covers the chunked framing layer (component B).
	MinPkgFraming = 4200

	// MinPkgAddress covers address parsing and resolution (component C).
	MinPkgAddress = 4300

	// MinPkgBolt covers the connection and its state machine (component D):
	// handshake, protocol, connection and security errors.
	MinPkgBolt = 4400

	// MinPkgPool covers the connection pool (component E).
	MinPkgPool = 4500

	// MinPkgRouting covers the routing table and rediscovery (components F, G).
	MinPkgRouting = 4600

	// MinPkgSession covers sessions, transactions and results (components H, I).
	MinPkgSession = 4700

	// MinPkgRetry covers the retry executor (component J).
	MinPkgRetry = 4800

	MinAvailable = 5000

	// MIN_AVAILABLE @Deprecated use MinAvailable constant
	MIN_AVAILABLE = MinAvailable
)
