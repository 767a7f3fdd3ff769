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

package transaction

import "github.com/nabbar/bolt-driver/errors"

// Error codes for this package live 100 above errors.MinPkgSession, leaving
// that range's first block for the session package (component H) so the
// two packages sharing one component-pair bucket never collide.
const (
	ErrorClosed errors.CodeError = iota + errors.MinPkgSession + 100
	ErrorAlreadyCommitted
	ErrorAlreadyRolledBack
	ErrorRunOnClosed
	ErrorSiblingFailed
	ErrorSingleCardinality
	ErrorBeginFailed
)

func init() {
	errors.RegisterIdFctMessage(ErrorClosed, getMessage)
}

func getMessage(code errors.CodeError) (message string) {
	switch code {
	case ErrorClosed:
		return "transaction: already closed"
	case ErrorAlreadyCommitted:
		return "transaction: already committed"
	case ErrorAlreadyRolledBack:
		return "transaction: already rolled back"
	case ErrorRunOnClosed:
		return "transaction: cannot run a query on a closed transaction"
	case ErrorSiblingFailed:
		return "transaction: a prior result in this transaction failed"
	case ErrorSingleCardinality:
		return "result: expected exactly one record"
	case ErrorBeginFailed:
		return "transaction: BEGIN failed"
	}

	return ""
}
