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

import "github.com/fxamacker/cbor/v2"

// CloneExtra deep-copies an opaque "extra" map (HELLO routing context,
// BEGIN transaction metadata, ...) by round-tripping it through CBOR.
// The wire format of these maps is still PackStream; CBOR is only used
// here as a generic recursive copier so callers never alias a caller's
// map with the one a pooled connection keeps.
func CloneExtra(v map[string]any) (map[string]any, error) {
	if v == nil {
		return nil, nil
	}

	raw, err := cbor.Marshal(v)
	if err != nil {
		return nil, ErrorDehydrationFailed.Error(err)
	}

	out := make(map[string]any, len(v))
	if err := cbor.Unmarshal(raw, &out); err != nil {
		return nil, ErrorHydrationFailed.Error(err)
	}

	return out, nil
}
