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

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Encoder serialises values into PackStream's binary form.
type Encoder struct {
	buf    []byte
	hooks  *Hooks
	major  byte
	minor  byte
}

// NewEncoder returns an Encoder targeting the given negotiated protocol
// version; byte strings are rejected unless the version supports them.
func NewEncoder(major, minor byte, hooks *Hooks) *Encoder {
	if hooks == nil {
		hooks = NewHooks()
	}
	return &Encoder{hooks: hooks, major: major, minor: minor}
}

// Bytes returns the accumulated encoded output and resets the encoder.
func (e *Encoder) Bytes() []byte {
	b := e.buf
	e.buf = nil
	return b
}

// Pack appends the PackStream encoding of v to the encoder's buffer.
func (e *Encoder) Pack(v any) error {
	switch t := v.(type) {
	case nil:
		e.writeByte(0xC0)
	case bool:
		if t {
			e.writeByte(0xC3)
		} else {
			e.writeByte(0xC2)
		}
	case int:
		return e.packInt(int64(t))
	case int8:
		return e.packInt(int64(t))
	case int16:
		return e.packInt(int64(t))
	case int32:
		return e.packInt(int64(t))
	case int64:
		return e.packInt(t)
	case uint64:
		if t > math.MaxInt64 {
			return ErrorIntegerOverflow.Error()
		}
		return e.packInt(int64(t))
	case float64:
		e.writeByte(0xC1)
		e.writeUint64(math.Float64bits(t))
	case string:
		e.packString(t)
	case []byte:
		return e.packBytes(t)
	case []any:
		return e.packList(t)
	case map[string]any:
		return e.packDict(t)
	case Structure:
		return e.packStructure(t)
	default:
		return e.packHooked(v)
	}
	return nil
}

func (e *Encoder) packHooked(v any) error {
	name := fmt.Sprintf("%T", v)
	if fn, ok := e.hooks.Dehydrate[name]; ok {
		s, err := fn(v)
		if err != nil {
			return ErrorDehydrationFailed.Error(err)
		}
		return e.packStructure(s)
	}
	return ErrorUnsupportedType.Error(fmt.Errorf("type %s", name))
}

func (e *Encoder) packInt(i int64) error {
	switch {
	case i >= -16 && i <= 127:
		e.writeByte(byte(i))
	case i >= -128 && i <= -17:
		e.writeByte(0xC8)
		e.writeByte(byte(i))
	case i >= -32768 && i <= 32767:
		e.writeByte(0xC9)
		e.writeUint16(uint16(i))
	case i >= -2147483648 && i <= 2147483647:
		e.writeByte(0xCA)
		e.writeUint32(uint32(i))
	default:
		e.writeByte(0xCB)
		e.writeUint64(uint64(i))
	}
	return nil
}

func (e *Encoder) packString(s string) {
	n := len(s)
	switch {
	case n <= 15:
		e.writeByte(0x80 | byte(n))
	case n <= 255:
		e.writeByte(0xD0)
		e.writeByte(byte(n))
	case n <= 65535:
		e.writeByte(0xD1)
		e.writeUint16(uint16(n))
	default:
		e.writeByte(0xD2)
		e.writeUint32(uint32(n))
	}
	e.buf = append(e.buf, s...)
}

func (e *Encoder) packBytes(b []byte) error {
	if !ByteStringsSupported(e.major, e.minor) {
		return ErrorByteStringUnsupported.Error()
	}
	n := len(b)
	switch {
	case n <= 255:
		e.writeByte(0xCC)
		e.writeByte(byte(n))
	case n <= 65535:
		e.writeByte(0xCD)
		e.writeUint16(uint16(n))
	default:
		e.writeByte(0xCE)
		e.writeUint32(uint32(n))
	}
	e.buf = append(e.buf, b...)
	return nil
}

func (e *Encoder) packList(l []any) error {
	n := len(l)
	switch {
	case n <= 15:
		e.writeByte(0x90 | byte(n))
	case n <= 255:
		e.writeByte(0xD4)
		e.writeByte(byte(n))
	case n <= 65535:
		e.writeByte(0xD5)
		e.writeUint16(uint16(n))
	default:
		e.writeByte(0xD6)
		e.writeUint32(uint32(n))
	}
	for _, item := range l {
		if err := e.Pack(item); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) packDict(m map[string]any) error {
	n := len(m)
	switch {
	case n <= 15:
		e.writeByte(0xA0 | byte(n))
	case n <= 255:
		e.writeByte(0xD8)
		e.writeByte(byte(n))
	case n <= 65535:
		e.writeByte(0xD9)
		e.writeUint16(uint16(n))
	default:
		e.writeByte(0xDA)
		e.writeUint32(uint32(n))
	}
	for k, v := range m {
		e.packString(k)
		if err := e.Pack(v); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) packStructure(s Structure) error {
	n := len(s.Fields)
	if n <= 15 {
		e.writeByte(0xB0 | byte(n))
	} else {
		return ErrorUnsupportedType.Error(fmt.Errorf("structure with %d fields", n))
	}
	e.writeByte(s.Tag)
	for _, f := range s.Fields {
		if err := e.Pack(f); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) writeByte(b byte) {
	e.buf = append(e.buf, b)
}

func (e *Encoder) writeUint16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	e.buf = append(e.buf, b[:]...)
}

func (e *Encoder) writeUint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	e.buf = append(e.buf, b[:]...)
}

func (e *Encoder) writeUint64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	e.buf = append(e.buf, b[:]...)
}
