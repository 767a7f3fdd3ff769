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

// Package logging provides the driver's structured logging surface.
//
// It wraps logrus.FieldLogger rather than reimplementing leveled logging,
// exposing only the field-attaching idiom the rest of the driver needs:
// a connection, a pool and a routing refresh each get their own
// sub-logger carrying stable fields (connection_id, address, bolt_version)
// so a single physical socket's activity can be correlated across log
// lines.
package logging

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Logger is the logging contract used throughout the driver. It is
// satisfied by *logrus.Logger and by any Entry returned from WithFields.
type Logger interface {
	logrus.FieldLogger

	// WithFields returns a child Logger carrying the given fields in
	// addition to any fields already attached.
	WithFields(fields Fields) Logger
}

// Fields is an alias of logrus.Fields so callers do not need to import
// logrus directly to attach structured fields.
type Fields = logrus.Fields

type entry struct {
	*logrus.Entry
}

func (e *entry) WithFields(fields Fields) Logger {
	return &entry{Entry: e.Entry.WithFields(fields)}
}

var (
	once sync.Once
	base *logrus.Logger
)

func defaultLogger() *logrus.Logger {
	once.Do(func() {
		base = logrus.New()
		base.SetOutput(os.Stderr)
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		base.SetLevel(logrus.InfoLevel)
	})
	return base
}

// New returns the driver's root Logger. Repeated calls return child
// loggers of the same underlying *logrus.Logger instance.
func New() Logger {
	return &entry{Entry: logrus.NewEntry(defaultLogger())}
}

// SetLevel sets the minimum level the root logger emits. It accepts the
// same strings as logrus.ParseLevel ("debug", "info", "warn", "error").
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	defaultLogger().SetLevel(lvl)
	return nil
}

// SetOutput redirects the root logger's destination. Used by cmd/boltctl
// to point logs at a file instead of stderr.
func SetOutput(w io.Writer) {
	defaultLogger().SetOutput(w)
}

// Discard returns a Logger that drops every entry; used by components in
// tests that do not want to assert on log output.
func Discard() Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &entry{Entry: logrus.NewEntry(l)}
}

// WithConnection returns a child Logger pre-populated with the fields
// that should accompany every log line for one physical connection.
func WithConnection(l Logger, connectionID, address, boltVersion string) Logger {
	return l.WithFields(Fields{
		"connection_id": connectionID,
		"address":       address,
		"bolt_version":  boltVersion,
	})
}
