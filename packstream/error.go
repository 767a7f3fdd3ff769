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

package packstream

import "github.com/nabbar/bolt-driver/errors"

const (
	ErrorUnsupportedType errors.CodeError = iota + errors.MinPkgPackStream
	ErrorIntegerOverflow
	ErrorByteStringUnsupported
	ErrorUnexpectedMarker
	ErrorTruncatedInput
	ErrorUnknownStructureTag
	ErrorDehydrationFailed
	ErrorHydrationFailed
)

func init() {
	errors.RegisterIdFctMessage(ErrorUnsupportedType, getMessage)
}

func getMessage(code errors.CodeError) (message string) {
	switch code {
	case ErrorUnsupportedType:
		return "packstream: value type has no encoding and no dehydration hook"
	case ErrorIntegerOverflow:
		return "packstream: integer outside the signed 64-bit range"
	case ErrorByteStringUnsupported:
		return "packstream: byte strings are not supported by the negotiated protocol version"
	case ErrorUnexpectedMarker:
		return "packstream: unexpected marker byte"
	case ErrorTruncatedInput:
		return "packstream: truncated input"
	case ErrorUnknownStructureTag:
		return "packstream: unknown structure tag and no hydration hook"
	case ErrorDehydrationFailed:
		return "packstream: dehydration hook failed"
	case ErrorHydrationFailed:
		return "packstream: hydration hook failed"
	}

	return ""
}
