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

// Package config holds the driver's tunable options: pool sizing,
// timeouts, TLS mode, and the notification/bookmark knobs a caller can
// set when opening a driver against a bolt:// or neo4j:// URL.
package config

import (
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml"
	toml2 "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	libdur "github.com/nabbar/bolt-driver/duration"
)

// EncryptionMode selects the TLS behaviour negotiated by a bolt:// or
// neo4j:// URL's "+s"/"+ssc" suffix.
type EncryptionMode uint8

const (
	// EncryptionOff means no TLS; the default for a bare bolt:// URL.
	EncryptionOff EncryptionMode = iota
	// EncryptionTrustSystemCA is "+s": TLS with CA-validated certificates.
	EncryptionTrustSystemCA
	// EncryptionTrustAny is "+ssc": TLS trusting any certificate presented.
	EncryptionTrustAny
)

// Config holds every driver-wide option, using the Neo4j driver's own
// option names verbatim; defaults are applied by New.
type Config struct {
	UserAgent string `validate:"required"`

	MaxConnectionLifetime        libdur.Duration `validate:"-"`
	MaxConnectionPoolSize        int             `validate:"-"`
	ConnectionTimeout            libdur.Duration `validate:"-"`
	ConnectionAcquisitionTimeout libdur.Duration `validate:"-"`
	MaxTransactionRetryTime      libdur.Duration `validate:"-"`
	KeepAlive                    bool            `validate:"-"`

	Encryption          EncryptionMode `validate:"-"`
	TrustedCertificates []string       `validate:"-"`

	Database         string `validate:"-"`
	ImpersonatedUser string `validate:"-"`
	FetchSize        int64  `validate:"-"`

	NotificationsMinSeverity        string   `validate:"-"`
	NotificationsDisabledCategories []string `validate:"-"`

	RoutingContext map[string]string `validate:"-"`
}

// New returns a Config populated with the driver's documented defaults.
func New(userAgent string) *Config {
	return &Config{
		UserAgent:                    userAgent,
		MaxConnectionLifetime:        libdur.Seconds(3600),
		MaxConnectionPoolSize:        100,
		ConnectionTimeout:            libdur.Seconds(5),
		ConnectionAcquisitionTimeout: libdur.Seconds(60),
		MaxTransactionRetryTime:      libdur.Seconds(30),
		KeepAlive:                    true,
		FetchSize:                    1000,
	}
}

// Validate checks the Config's required fields and invariants using the
// teacher's validator stack.
func (c *Config) Validate() error {
	v := validator.New()

	if err := v.Struct(c); err != nil {
		return ErrorValidation.Error(err)
	}

	if c.MaxConnectionPoolSize == 0 {
		return ErrorPoolSizeZero.Error()
	}

	return nil
}

// PullAll reports whether FetchSize requests draining the full result in
// a single PULL (fetch_size == -1), per SUPPLEMENTED FEATURES #7.
func (c *Config) PullAll() bool {
	return c.FetchSize < 0
}

// LoadFile loads a Config from a TOML or YAML file, selected by
// extension, mirroring common multi-format config loading conventions.
func LoadFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, ErrorFileRead.Error(err)
	}

	c := New("bolt-driver")

	switch {
	case strings.HasSuffix(path, ".yaml"), strings.HasSuffix(path, ".yml"):
		err = yaml.Unmarshal(raw, c)
	case strings.HasSuffix(path, ".toml"):
		err = decodeToml(raw, c)
	default:
		err = toml2.Unmarshal(raw, c)
	}

	if err != nil {
		return nil, ErrorFileParse.Error(err)
	}

	return c, nil
}

func decodeToml(raw []byte, c *Config) error {
	return toml.Unmarshal(raw, c)
}
