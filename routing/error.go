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

package routing

import "github.com/nabbar/bolt-driver/errors"

const (
	ErrorNoRecord errors.CodeError = iota + errors.MinPkgRouting
	ErrorMultipleRecords
	ErrorNoRouters
	ErrorNoReaders
	ErrorNoWriters
	ErrorServiceUnavailable
	ErrorListExhausted
	ErrorDecodeTable
)

func init() {
	errors.RegisterIdFctMessage(ErrorNoRecord, getMessage)
}

func getMessage(code errors.CodeError) (message string) {
	switch code {
	case ErrorNoRecord:
		return "routing: ROUTE response carried zero records"
	case ErrorMultipleRecords:
		return "routing: ROUTE response carried more than one record"
	case ErrorNoRouters:
		return "routing: routing table has zero routers"
	case ErrorNoReaders:
		return "routing: routing table has zero readers"
	case ErrorNoWriters:
		return "routing: routing table has zero writers and only one router"
	case ErrorServiceUnavailable:
		return "routing: no router produced a usable routing table"
	case ErrorListExhausted:
		return "routing: every candidate address was exhausted for this access mode"
	case ErrorDecodeTable:
		return "routing: failed to decode the ROUTE response into a routing table"
	}
	return ""
}
