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

package routing_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/bolt-driver/address"
	"github.com/nabbar/bolt-driver/routing"
)

var _ = Describe("Table", func() {

	router := address.Address{Host: "r1", Port: 7687}
	reader := address.Address{Host: "n1", Port: 7687}
	writer := address.Address{Host: "n2", Port: 7687}

	freshTable := func() *routing.Table {
		return &routing.Table{
			Routers:     []address.Address{router},
			Readers:     []address.Address{reader},
			Writers:     []address.Address{writer},
			TTL:         time.Minute,
			LastUpdated: time.Now(),
		}
	}

	It("is fresh for both modes right after being fetched", func() {
		t := freshTable()
		Expect(t.IsFresh(routing.Read)).To(BeTrue())
		Expect(t.IsFresh(routing.Write)).To(BeTrue())
	})

	It("is stale once its TTL has elapsed", func() {
		t := freshTable()
		t.LastUpdated = time.Now().Add(-2 * time.Minute)
		Expect(t.IsFresh(routing.Read)).To(BeFalse())
		Expect(t.IsFresh(routing.Write)).To(BeFalse())
	})

	It("is fresh for reads but not writes while missing a writer", func() {
		t := freshTable()
		t.Writers = nil
		Expect(t.IsFresh(routing.Read)).To(BeTrue())
		Expect(t.IsFresh(routing.Write)).To(BeFalse())
		Expect(t.MissingWriter()).To(BeTrue())
	})

	It("is never fresh without a router", func() {
		t := freshTable()
		t.Routers = nil
		Expect(t.IsFresh(routing.Read)).To(BeFalse())
		Expect(t.MissingWriter()).To(BeFalse())
	})

	It("is never fresh for a nil table", func() {
		var t *routing.Table
		Expect(t.IsFresh(routing.Read)).To(BeFalse())
	})

	It("returns the role-appropriate address list", func() {
		t := freshTable()
		Expect(t.Addresses(routing.Read)).To(Equal([]address.Address{reader}))
		Expect(t.Addresses(routing.Write)).To(Equal([]address.Address{writer}))
	})

	It("clones into an independent copy", func() {
		t := freshTable()
		c := t.Clone()
		c.Readers[0] = address.Address{Host: "mutated", Port: 1}
		Expect(t.Readers[0]).To(Equal(reader))
	})

	It("renders access modes as their Bolt wire names", func() {
		Expect(routing.Read.String()).To(Equal("READ"))
		Expect(routing.Write.String()).To(Equal("WRITE"))
	})
})
