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

package main

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/bolt-driver/bolt"
	"github.com/nabbar/bolt-driver/config"
	"github.com/nabbar/bolt-driver/logging"
)

var _ = Describe("splitURL", func() {
	It("separates scheme from host:port on a plain bolt:// URL", func() {
		scheme, hostport, err := splitURL("bolt://127.0.0.1:7687")
		Expect(err).ToNot(HaveOccurred())
		Expect(scheme).To(Equal("bolt"))
		Expect(hostport).To(Equal("127.0.0.1:7687"))
	})

	It("keeps the +s/+ssc suffix as part of the scheme", func() {
		scheme, hostport, err := splitURL("neo4j+s://example.com:7687")
		Expect(err).ToNot(HaveOccurred())
		Expect(scheme).To(Equal("neo4j+s"))
		Expect(hostport).To(Equal("example.com:7687"))
	})

	It("strips a trailing path and query string", func() {
		_, hostport, err := splitURL("bolt://127.0.0.1:7687/db?routing=region-a")
		Expect(err).ToNot(HaveOccurred())
		Expect(hostport).To(Equal("127.0.0.1:7687"))
	})

	It("fails on a URL with no scheme", func() {
		_, _, err := splitURL("127.0.0.1:7687")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("dialOptionsFor", func() {
	It("leaves TLS unset for a bare bolt:// scheme", func() {
		cfg := config.New("boltctl-test")
		opt := dialOptionsFor("bolt", cfg, bolt.AuthToken{}, logging.Discard())
		Expect(opt.TLS).To(BeNil())
		Expect(opt.TrustAny).To(BeFalse())
	})

	It("trusts any certificate for +ssc", func() {
		cfg := config.New("boltctl-test")
		opt := dialOptionsFor("bolt+ssc", cfg, bolt.AuthToken{}, logging.Discard())
		Expect(opt.TLS).ToNot(BeNil())
		Expect(opt.TrustAny).To(BeTrue())
	})

	It("builds a TLS config for +s without trusting any certificate", func() {
		cfg := config.New("boltctl-test")
		opt := dialOptionsFor("neo4j+s", cfg, bolt.AuthToken{}, logging.Discard())
		Expect(opt.TLS).ToNot(BeNil())
		Expect(opt.TrustAny).To(BeFalse())
		Expect(opt.TLS.TLS("example.com").ServerName).To(Equal("example.com"))
	})

	It("enables TCP keepalive when configured", func() {
		cfg := config.New("boltctl-test")
		cfg.KeepAlive = true
		opt := dialOptionsFor("bolt", cfg, bolt.AuthToken{}, logging.Discard())
		Expect(opt.KeepAlive).To(BeNumerically(">", 0))
	})
})
