/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
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

// Package certificates builds the tls.Config used on the +s/+ssc dial
// path (spec.md §4.D step 3, §6). It only covers the surface bolt.Dial
// exercises: a root CA pool assembled from PEM files or inline PEM text,
// and the resulting per-connection tls.Config carrying the unresolved
// hostname as ServerName.
package certificates

import "crypto/tls"

// TLSConfig accumulates trusted root certificates and produces a
// tls.Config for a given server name. Implementations are not safe for
// concurrent mutation; Clone lets a caller fork a base TLSConfig before
// handing per-connection copies to concurrent dialers.
type TLSConfig interface {
	// AddRootCAFile reads pemFile and appends it to the trusted root
	// pool, seeded from the system pool on first use.
	AddRootCAFile(pemFile string) error

	// AddRootCAString appends the PEM text in rootCA to the trusted
	// root pool, seeded from the system pool on first use. It reports
	// whether at least one certificate was parsed.
	AddRootCAString(rootCA string) bool

	// SetClientAuth sets the mutual-TLS policy carried into TLS's
	// returned tls.Config.
	SetClientAuth(auth tls.ClientAuthType)

	// Clone returns an independent copy sharing no mutable state with c.
	Clone() TLSConfig

	// TLS returns a tls.Config for dialing serverName, with the
	// accumulated root CA pool as RootCAs.
	TLS(serverName string) *tls.Config
}

// New returns a TLSConfig with no roots beyond the system pool.
func New() TLSConfig {
	return &config{}
}
