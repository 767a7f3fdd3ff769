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

package certificates

import (
	"bytes"
	"crypto/tls"
	"crypto/x509"
	"os"
	"runtime"
)

type config struct {
	caRoot     *x509.CertPool
	clientAuth tls.ClientAuthType
}

func systemRootCA() *x509.CertPool {
	if runtime.GOOS == "windows" {
		return x509.NewCertPool()
	} else if p, e := x509.SystemCertPool(); e == nil {
		return p
	} else {
		return x509.NewCertPool()
	}
}

func (c *config) checkFile(pemFile string) error {
	if pemFile == "" {
		return ErrorParamsEmpty.Error()
	}

	if _, e := os.Stat(pemFile); e != nil {
		return ErrorFileStat.Error(e)
	}

	/* #nosec */
	b, e := os.ReadFile(pemFile)
	if e != nil {
		return ErrorFileRead.Error(e)
	}

	b = bytes.TrimSpace(b)
	if len(b) < 1 {
		return ErrorFileEmpty.Error()
	}

	return nil
}

func (c *config) AddRootCAString(rootCA string) bool {
	if c.caRoot == nil {
		c.caRoot = systemRootCA()
	}

	if rootCA == "" {
		return false
	}

	return c.caRoot.AppendCertsFromPEM([]byte(rootCA))
}

func (c *config) AddRootCAFile(pemFile string) error {
	if e := c.checkFile(pemFile); e != nil {
		return e
	}

	if c.caRoot == nil {
		c.caRoot = systemRootCA()
	}

	/* #nosec */
	b, _ := os.ReadFile(pemFile)
	if c.caRoot.AppendCertsFromPEM(b) {
		return nil
	}

	return ErrorCertAppend.Error()
}

func (c *config) SetClientAuth(auth tls.ClientAuthType) {
	c.clientAuth = auth
}

// TLS assembles a tls.Config for serverName. RootCAs carries the
// accumulated pool so a self-signed or private CA loaded through
// AddRootCAFile/AddRootCAString validates; bolt.Dial overrides
// InsecureSkipVerify itself when the caller asked for +ssc.
func (c *config) TLS(serverName string) *tls.Config {
	/* #nosec */
	cnf := &tls.Config{
		InsecureSkipVerify: false,
		MinVersion:         tls.VersionTLS12,
	}

	if serverName != "" {
		cnf.ServerName = serverName
	}

	if c.caRoot != nil {
		cnf.RootCAs = c.caRoot
	}

	if c.clientAuth != tls.NoClientCert {
		cnf.ClientAuth = c.clientAuth
	}

	return cnf
}

func (c *config) cloneRootCA() *x509.CertPool {
	if c.caRoot == nil {
		return nil
	}

	return c.caRoot.Clone()
}

func (c *config) Clone() TLSConfig {
	return &config{
		caRoot:     c.cloneRootCA(),
		clientAuth: c.clientAuth,
	}
}
