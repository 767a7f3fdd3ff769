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

package packstream_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	liberr "github.com/nabbar/bolt-driver/errors"
	"github.com/nabbar/bolt-driver/packstream"
)

func roundTrip(major, minor byte, v any) (any, error) {
	e := packstream.NewEncoder(major, minor, nil)
	if err := e.Pack(v); err != nil {
		return nil, err
	}

	d := packstream.NewDecoder(e.Bytes(), nil)
	return d.Unpack()
}

var _ = Describe("PackStream round-trip", func() {

	DescribeTable("scalar values survive pack/unpack",
		func(v any) {
			got, err := roundTrip(5, 4, v)
			Expect(err).ToNot(HaveOccurred())
			Expect(got).To(Equal(v))
		},
		Entry("nil", nil),
		Entry("true", true),
		Entry("false", false),
		Entry("tiny int", int64(42)),
		Entry("negative tiny int", int64(-5)),
		Entry("int8 range", int64(-100)),
		Entry("int16 range", int64(30000)),
		Entry("int32 range", int64(2000000000)),
		Entry("int64 range", int64(9000000000000000000)),
		Entry("float", 3.14159),
		Entry("empty string", ""),
		Entry("short string", "hello"),
		Entry("long string", string(make([]byte, 5000))),
	)

	It("round-trips lists", func() {
		v := []any{int64(1), "two", 3.0, nil, true}
		got, err := roundTrip(5, 4, v)
		Expect(err).ToNot(HaveOccurred())
		Expect(got).To(Equal(v))
	})

	It("round-trips dictionaries", func() {
		v := map[string]any{"a": int64(1), "b": "two"}
		got, err := roundTrip(5, 4, v)
		Expect(err).ToNot(HaveOccurred())
		Expect(got).To(Equal(v))
	})

	It("round-trips byte strings on a version that supports them", func() {
		v := []byte{0x01, 0x02, 0x03}
		got, err := roundTrip(5, 4, v)
		Expect(err).ToNot(HaveOccurred())
		Expect(got).To(Equal(v))
	})

	It("rejects byte strings on a version that predates them", func() {
		_, err := roundTrip(1, 0, []byte{0x01})
		Expect(err).To(HaveOccurred())
		Expect(liberr.Has(err, packstream.ErrorByteStringUnsupported)).To(BeTrue())
	})

	It("round-trips a structure through a hydrate/dehydrate hook pair", func() {
		type point struct{ X, Y float64 }

		hooks := packstream.NewHooks()
		hooks.Dehydrate["packstream_test.point"] = func(v any) (packstream.Structure, error) {
			p := v.(point)
			return packstream.Structure{Tag: 0x58, Fields: []any{p.X, p.Y}}, nil
		}
		hooks.Hydrate[0x58] = func(fields []any) (any, error) {
			return point{X: fields[0].(float64), Y: fields[1].(float64)}, nil
		}

		e := packstream.NewEncoder(5, 4, hooks)
		Expect(e.Pack(point{X: 1.5, Y: -2.5})).To(Succeed())

		d := packstream.NewDecoder(e.Bytes(), hooks)
		got, err := d.Unpack()
		Expect(err).ToNot(HaveOccurred())
		Expect(got).To(Equal(point{X: 1.5, Y: -2.5}))
	})

	It("fails to pack a value with no encoding and no hook", func() {
		e := packstream.NewEncoder(5, 4, nil)
		err := e.Pack(make(chan int))
		Expect(err).To(HaveOccurred())
		Expect(liberr.Has(err, packstream.ErrorUnsupportedType)).To(BeTrue())
	})

	It("fails to decode truncated input", func() {
		d := packstream.NewDecoder([]byte{0xC9, 0x01}, nil)
		_, err := d.Unpack()
		Expect(err).To(HaveOccurred())
		Expect(liberr.Has(err, packstream.ErrorTruncatedInput)).To(BeTrue())
	})

	It("clones an extra map without aliasing the original", func() {
		original := map[string]any{"routing": map[string]any{"region": "eu"}}

		clone, err := packstream.CloneExtra(original)
		Expect(err).ToNot(HaveOccurred())
		Expect(clone).To(Equal(original))

		inner := original["routing"].(map[string]any)
		inner["region"] = "us"
		Expect(clone["routing"].(map[string]any)["region"]).To(Equal("eu"))
	})
})
