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

package logging_test

import (
	"bytes"
	"os"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/bolt-driver/logging"
)

var _ = Describe("Logger", func() {

	AfterEach(func() {
		logging.SetOutput(os.Stderr)
		_ = logging.SetLevel("info")
	})

	It("attaches connection fields to every subsequent log line", func() {
		buf := &bytes.Buffer{}
		logging.SetOutput(buf)
		Expect(logging.SetLevel("info")).To(Succeed())

		l := logging.WithConnection(logging.New(), "conn-1", "127.0.0.1:7687", "5.4")
		l.Info("ready")

		out := buf.String()
		Expect(out).To(ContainSubstring("connection_id=conn-1"))
		Expect(out).To(ContainSubstring(`address="127.0.0.1:7687"`))
		Expect(out).To(ContainSubstring("bolt_version=5.4"))
		Expect(out).To(ContainSubstring("ready"))
	})

	It("WithFields on a child logger does not lose the parent's fields", func() {
		buf := &bytes.Buffer{}
		logging.SetOutput(buf)

		l := logging.New().WithFields(logging.Fields{"pool": "default"})
		l = l.WithFields(logging.Fields{"address": "127.0.0.1:7687"})
		l.Warn("acquiring")

		out := buf.String()
		Expect(out).To(ContainSubstring(`pool=default`))
		Expect(out).To(ContainSubstring(`address="127.0.0.1:7687"`))
	})

	It("SetLevel rejects an unknown level name", func() {
		Expect(logging.SetLevel("not-a-level")).To(HaveOccurred())
	})

	It("SetLevel filters out lower-severity lines", func() {
		buf := &bytes.Buffer{}
		logging.SetOutput(buf)
		Expect(logging.SetLevel("warn")).To(Succeed())

		logging.New().Info("should not appear")
		logging.New().Warn("should appear")

		out := buf.String()
		Expect(out).ToNot(ContainSubstring("should not appear"))
		Expect(out).To(ContainSubstring("should appear"))
	})

	It("Discard returns a Logger usable without a configured output", func() {
		l := logging.Discard().WithFields(logging.Fields{"k": "v"})
		Expect(func() { l.Error("swallowed") }).ToNot(Panic())
	})
})
