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
	"math"
)

// Decoder deserialises PackStream-encoded bytes into Go values.
type Decoder struct {
	buf   []byte
	pos   int
	hooks *Hooks
}

// NewDecoder returns a Decoder reading from buf.
func NewDecoder(buf []byte, hooks *Hooks) *Decoder {
	if hooks == nil {
		hooks = NewHooks()
	}
	return &Decoder{buf: buf, hooks: hooks}
}

// Remaining reports how many bytes have not yet been consumed.
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.pos
}

// Unpack decodes the next PackStream value from the buffer.
func (d *Decoder) Unpack() (any, error) {
	marker, err := d.readByte()
	if err != nil {
		return nil, err
	}
	return d.unpackMarker(marker)
}

func (d *Decoder) unpackMarker(marker byte) (any, error) {
	switch {
	case marker == 0xC0:
		return nil, nil
	case marker == 0xC2:
		return false, nil
	case marker == 0xC3:
		return true, nil
	case marker == 0xC1:
		bits, err := d.readUint64()
		if err != nil {
			return nil, err
		}
		return math.Float64frombits(bits), nil
	case marker <= 0x7F || marker >= 0xF0:
		return int64(int8(marker)), nil
	case marker == 0xC8:
		b, err := d.readByte()
		if err != nil {
			return nil, err
		}
		return int64(int8(b)), nil
	case marker == 0xC9:
		v, err := d.readUint16()
		if err != nil {
			return nil, err
		}
		return int64(int16(v)), nil
	case marker == 0xCA:
		v, err := d.readUint32()
		if err != nil {
			return nil, err
		}
		return int64(int32(v)), nil
	case marker == 0xCB:
		v, err := d.readUint64()
		if err != nil {
			return nil, err
		}
		return int64(v), nil
	case marker&0xF0 == 0x80:
		return d.readString(int(marker & 0x0F))
	case marker == 0xD0:
		n, err := d.readByte()
		if err != nil {
			return nil, err
		}
		return d.readString(int(n))
	case marker == 0xD1:
		n, err := d.readUint16()
		if err != nil {
			return nil, err
		}
		return d.readString(int(n))
	case marker == 0xD2:
		n, err := d.readUint32()
		if err != nil {
			return nil, err
		}
		return d.readString(int(n))
	case marker == 0xCC:
		n, err := d.readByte()
		if err != nil {
			return nil, err
		}
		return d.readBytes(int(n))
	case marker == 0xCD:
		n, err := d.readUint16()
		if err != nil {
			return nil, err
		}
		return d.readBytes(int(n))
	case marker == 0xCE:
		n, err := d.readUint32()
		if err != nil {
			return nil, err
		}
		return d.readBytes(int(n))
	case marker&0xF0 == 0x90:
		return d.readList(int(marker & 0x0F))
	case marker == 0xD4:
		n, err := d.readByte()
		if err != nil {
			return nil, err
		}
		return d.readList(int(n))
	case marker == 0xD5:
		n, err := d.readUint16()
		if err != nil {
			return nil, err
		}
		return d.readList(int(n))
	case marker == 0xD6:
		n, err := d.readUint32()
		if err != nil {
			return nil, err
		}
		return d.readList(int(n))
	case marker&0xF0 == 0xA0:
		return d.readDict(int(marker & 0x0F))
	case marker == 0xD8:
		n, err := d.readByte()
		if err != nil {
			return nil, err
		}
		return d.readDict(int(n))
	case marker == 0xD9:
		n, err := d.readUint16()
		if err != nil {
			return nil, err
		}
		return d.readDict(int(n))
	case marker == 0xDA:
		n, err := d.readUint32()
		if err != nil {
			return nil, err
		}
		return d.readDict(int(n))
	case marker&0xF0 == 0xB0:
		return d.readStructure(int(marker & 0x0F))
	default:
		return nil, ErrorUnexpectedMarker.Error()
	}
}

func (d *Decoder) readStructure(n int) (any, error) {
	tag, err := d.readByte()
	if err != nil {
		return nil, err
	}
	fields := make([]any, n)
	for i := 0; i < n; i++ {
		v, err := d.Unpack()
		if err != nil {
			return nil, err
		}
		fields[i] = v
	}
	if fn, ok := d.hooks.Hydrate[tag]; ok {
		v, err := fn(fields)
		if err != nil {
			return nil, ErrorHydrationFailed.Error(err)
		}
		return v, nil
	}
	if len(d.hooks.Hydrate) == 0 {
		return Structure{Tag: tag, Fields: fields}, nil
	}
	return nil, ErrorUnknownStructureTag.Error()
}

func (d *Decoder) readList(n int) ([]any, error) {
	out := make([]any, n)
	for i := 0; i < n; i++ {
		v, err := d.Unpack()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (d *Decoder) readDict(n int) (map[string]any, error) {
	out := make(map[string]any, n)
	for i := 0; i < n; i++ {
		k, err := d.Unpack()
		if err != nil {
			return nil, err
		}
		ks, ok := k.(string)
		if !ok {
			return nil, ErrorUnexpectedMarker.Error()
		}
		v, err := d.Unpack()
		if err != nil {
			return nil, err
		}
		out[ks] = v
	}
	return out, nil
}

func (d *Decoder) readString(n int) (string, error) {
	b, err := d.readBytes(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (d *Decoder) readBytes(n int) ([]byte, error) {
	if d.Remaining() < n {
		return nil, ErrorTruncatedInput.Error()
	}
	out := d.buf[d.pos : d.pos+n]
	d.pos += n
	return out, nil
}

func (d *Decoder) readByte() (byte, error) {
	if d.Remaining() < 1 {
		return 0, ErrorTruncatedInput.Error()
	}
	b := d.buf[d.pos]
	d.pos++
	return b, nil
}

func (d *Decoder) readUint16() (uint16, error) {
	b, err := d.readBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (d *Decoder) readUint32() (uint32, error) {
	b, err := d.readBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (d *Decoder) readUint64() (uint64, error) {
	b, err := d.readBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}
