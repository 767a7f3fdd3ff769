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

// Package bolt implements a single Bolt connection: handshake,
// pipelined request/response exchange, and the per-connection server
// state machine.
package bolt

// Message signatures, request side.
const (
	SigHello    byte = 0x01
	SigLogon    byte = 0x6A
	SigLogoff   byte = 0x6B
	SigGoodbye  byte = 0x02
	SigBegin    byte = 0x11
	SigCommit   byte = 0x12
	SigRollback byte = 0x13
	SigRun      byte = 0x10
	SigDiscard  byte = 0x2F
	SigPull     byte = 0x3F
	SigReset    byte = 0x0F
	SigRoute    byte = 0x66
)

// Message signatures, response side.
const (
	SigSuccess byte = 0x70
	SigRecord  byte = 0x71
	SigIgnored byte = 0x7E
	SigFailure byte = 0x7F
)

// magicPreamble is sent as the first 4 bytes of every connection.
var magicPreamble = [4]byte{0x60, 0x60, 0xB0, 0x17}

// httpResponse is what a server speaking HTTP instead of Bolt would echo.
var httpResponse = [4]byte{'H', 'T', 'T', 'P'}

// ServerInfo captures the identity exchanged during HELLO/LOGON.
type ServerInfo struct {
	Agent            string
	ProtocolMajor    byte
	ProtocolMinor    byte
	ConnectionID     string
	Hints            map[string]any
	PatchBolt        []string
}

// ConnState is the per-connection server state machine.
type ConnState uint8

const (
	StateConnected ConnState = iota
	StateAuthenticating
	StateReady
	StateStreaming
	StateTxReady
	StateTxStreaming
	StateFailed
	StateDefunct
)

func (s ConnState) String() string {
	switch s {
	case StateConnected:
		return "CONNECTED"
	case StateAuthenticating:
		return "AUTHENTICATING"
	case StateReady:
		return "READY"
	case StateStreaming:
		return "STREAMING"
	case StateTxReady:
		return "TX_READY"
	case StateTxStreaming:
		return "TX_STREAMING"
	case StateFailed:
		return "FAILED"
	case StateDefunct:
		return "DEFUNCT"
	}
	return "UNKNOWN"
}
