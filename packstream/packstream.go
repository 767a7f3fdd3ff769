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

// Package packstream implements Bolt's self-describing binary value
// encoding: null, boolean, signed 64-bit integer, IEEE-754 double,
// UTF-8 string, byte string, list, dictionary and structure.
//
// Size-class selection (tiny/8/16/32-bit) mirrors the major-type/size-class
// dispatch idiom familiar from fxamacker/cbor/v2, even though PackStream's
// marker bytes are Bolt-specific rather than CBOR's.
package packstream

// Structure is a tagged Bolt value: a 1-byte signature plus an ordered
// field list. Spatial/temporal extension types and protocol messages are
// both represented as Structure before/after dehydration.
type Structure struct {
	Tag    byte
	Fields []any
}

// DehydrateFunc converts a Go value unknown to the core codec (a point,
// a date, ...) into a Structure for encoding.
type DehydrateFunc func(v any) (Structure, error)

// HydrateFunc converts a decoded Structure's fields back into a Go value,
// keyed by the structure's tag byte.
type HydrateFunc func(fields []any) (any, error)

// Hooks parameterises the codec without modifying its core: a dehydration
// table keyed by the dynamic type name of the value being packed, and a
// hydration table keyed by structure tag.
type Hooks struct {
	Dehydrate map[string]DehydrateFunc
	Hydrate   map[byte]HydrateFunc
}

// NewHooks returns an empty, ready to populate Hooks table.
func NewHooks() *Hooks {
	return &Hooks{
		Dehydrate: make(map[string]DehydrateFunc),
		Hydrate:   make(map[byte]HydrateFunc),
	}
}

// ByteStringsSupported reports whether the negotiated protocol version
// allows the byte-string marker. Bolt versions below 2.0 never do.
func ByteStringsSupported(major, minor byte) bool {
	return major >= 2
}
