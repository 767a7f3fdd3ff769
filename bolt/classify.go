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

import "strings"

// Classification is the Bolt server error taxonomy (protocol, connection,
// security, auth, client, transient, incomplete-commit, session state).
type Classification uint8

const (
	ClassProtocol Classification = iota
	ClassConnection
	ClassSecurity
	ClassAuth
	ClassClient
	ClassTransient
	ClassIncompleteCommit
	ClassSessionState
)

// ServerError is a classified FAILURE reported by the server.
type ServerError struct {
	Code          string
	Message       string
	Classification Classification
	// Retryable is true for transient errors, except Transaction.Terminated
	// and Transaction.LockClientStopped; auth-expired is retryable for a
	// single re-auth attempt.
	Retryable bool
	// InvalidatesWriter is true for Neo.ClientError.Cluster.NotALeader and
	// Neo.ClientError.General.ForbiddenOnReadOnlyDatabase, signalling the
	// routing table's writer entry is stale.
	InvalidatesWriter bool
}

func (e *ServerError) Error() string {
	return e.Code + ": " + e.Message
}

// ClassifyServerError turns a FAILURE message's ("code", "message") pair
// into a classified ServerError
func ClassifyServerError(code, message string) *ServerError {
	se := &ServerError{Code: code, Message: message}

	switch {
	case code == "Neo.TransientError.Transaction.Terminated",
		code == "Neo.TransientError.Transaction.LockClientStopped":
		se.Classification = ClassTransient
		se.Retryable = false
	case strings.Contains(code, ".TransientError."):
		se.Classification = ClassTransient
		se.Retryable = true
	case code == "Neo.ClientError.Security.AuthorizationExpired":
		se.Classification = ClassAuth
		se.Retryable = true
	case strings.Contains(code, ".ClientError.Security."):
		se.Classification = ClassAuth
		se.Retryable = false
	case code == "Neo.ClientError.Cluster.NotALeader",
		code == "Neo.ClientError.General.ForbiddenOnReadOnlyDatabase":
		se.Classification = ClassClient
		se.Retryable = false
		se.InvalidatesWriter = true
	case strings.Contains(code, ".ClientError."):
		se.Classification = ClassClient
		se.Retryable = false
	default:
		se.Classification = ClassClient
		se.Retryable = false
	}

	return se
}

// IsRetryable reports whether err, as classified by this package, qualifies
// for the retry executor: service-unavailable, session-expired,
// authorization-expired, or a non-terminal transient error.
func IsRetryable(err error) bool {
	se, ok := AsServerError(err)
	if ok {
		return se.Retryable
	}
	return false
}

// AsServerError extracts a *ServerError from err, if any.
func AsServerError(err error) (*ServerError, bool) {
	se, ok := err.(*ServerError)
	return se, ok
}
