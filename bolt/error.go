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

import "github.com/nabbar/bolt-driver/errors"

const (
	ErrorHandshakeRefused errors.CodeError = iota + errors.MinPkgBolt
	ErrorHandshakeHTTP
	ErrorDial
	ErrorTLSHandshake
	ErrorNoCertificate
	ErrorUnexpectedResponse
	ErrorServerFailure
	ErrorIncompleteCommit
	ErrorConnectionClosed
	ErrorConnectionDefunct
	ErrorInvalidState
	ErrorUnsupportedVersion
	ErrorInvalidAuthToken
)

func init() {
	errors.RegisterIdFctMessage(ErrorHandshakeRefused, getMessage)
}

func getMessage(code errors.CodeError) (message string) {
	switch code {
	case ErrorHandshakeRefused:
		return "bolt: server rejected all proposed protocol versions"
	case ErrorHandshakeHTTP:
		return "bolt: server appears to speak HTTP, not Bolt"
	case ErrorDial:
		return "bolt: failed to open a TCP connection"
	case ErrorTLSHandshake:
		return "bolt: TLS handshake failed"
	case ErrorNoCertificate:
		return "bolt: server presented no certificate on a secure channel"
	case ErrorUnexpectedResponse:
		return "bolt: unexpected server response"
	case ErrorServerFailure:
		return "bolt: server reported a FAILURE"
	case ErrorIncompleteCommit:
		return "bolt: connection lost while a COMMIT response was pending"
	case ErrorConnectionClosed:
		return "bolt: connection is closed"
	case ErrorConnectionDefunct:
		return "bolt: connection is defunct"
	case ErrorInvalidState:
		return "bolt: operation not valid in the connection's current state"
	case ErrorUnsupportedVersion:
		return "bolt: negotiated protocol version is not supported by this driver"
	case ErrorInvalidAuthToken:
		return "bolt: invalid auth token"
	}

	return ""
}
