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

// Package routing implements components F and G: the cached, TTL-bounded
// routing table, the rediscovery algorithm that refreshes it from a
// rotating set of router addresses, and the round-robin / least-connected
// reader and writer selection strategies built on top of a connection pool.
package routing

import (
	"time"

	"github.com/go-viper/mapstructure/v2"

	"github.com/nabbar/bolt-driver/address"
	"github.com/nabbar/bolt-driver/bolt"
	"github.com/nabbar/bolt-driver/logging"
)

// AccessMode selects whether a query may be routed to a follower (Read)
// or must reach the leader (Write).
type AccessMode uint8

const (
	Read AccessMode = iota
	Write
)

func (m AccessMode) String() string {
	if m == Write {
		return "WRITE"
	}
	return "READ"
}

// Table is the cached cluster view for one database: routers, readers and
// writers plus the TTL window it was fetched with.
type Table struct {
	Routers     []address.Address
	Readers     []address.Address
	Writers     []address.Address
	TTL         time.Duration
	LastUpdated time.Time
}

// IsFresh implements spec.md §3's freshness predicate for access mode m.
func (t *Table) IsFresh(mode AccessMode) bool {
	if t == nil {
		return false
	}
	if time.Now().After(t.LastUpdated.Add(t.TTL)) {
		return false
	}
	if len(t.Routers) == 0 {
		return false
	}
	if mode == Read && len(t.Readers) == 0 {
		return false
	}
	if mode == Write && len(t.Writers) == 0 {
		return false
	}
	return true
}

// MissingWriter reports the tracked sub-state: the table is readable but
// has no known writer, typically because the leader is mid-election.
func (t *Table) MissingWriter() bool {
	return t != nil && len(t.Writers) == 0 && len(t.Routers) > 0
}

// Addresses returns the address list for the given role.
func (t *Table) Addresses(mode AccessMode) []address.Address {
	if mode == Write {
		return t.Writers
	}
	return t.Readers
}

// rawRouteResponse mirrors the ROUTE response SUCCESS metadata's "rt" key:
// {ttl, servers: [{addresses, role}]}.
type rawRouteResponse struct {
	Rt struct {
		TTL     int64 `mapstructure:"ttl"`
		Servers []struct {
			Addresses []string `mapstructure:"addresses"`
			Role      string   `mapstructure:"role"`
		} `mapstructure:"servers"`
	} `mapstructure:"rt"`
}

// decodeTable turns the decoded ROUTE SUCCESS metadata into a Table,
// applying spec.md §4.F's validation rules: exactly one implicit record
// (the "rt" map itself is that record), unknown roles ignored-but-logged,
// zero routers/readers is a protocol error, zero writers is only
// acceptable with more than one router.
func decodeTable(meta map[string]any, log logging.Logger) (*Table, error) {
	var raw rawRouteResponse
	if err := mapstructure.Decode(meta, &raw); err != nil {
		return nil, ErrorDecodeTable.Error(err)
	}

	t := &Table{TTL: time.Duration(raw.Rt.TTL) * time.Second, LastUpdated: time.Now()}

	for _, s := range raw.Rt.Servers {
		addrs := make([]address.Address, 0, len(s.Addresses))
		for _, a := range s.Addresses {
			parsed, err := address.Parse(a, "", 0)
			if err != nil {
				continue
			}
			addrs = append(addrs, parsed)
		}

		switch s.Role {
		case "ROUTE":
			t.Routers = append(t.Routers, addrs...)
		case "READ":
			t.Readers = append(t.Readers, addrs...)
		case "WRITE":
			t.Writers = append(t.Writers, addrs...)
		default:
			if log != nil {
				log.WithFields(logging.Fields{"role": s.Role}).Warn("routing: ignoring unknown role in ROUTE response")
			}
		}
	}

	if len(t.Routers) == 0 {
		return nil, ErrorNoRouters.Error()
	}
	if len(t.Readers) == 0 {
		return nil, ErrorNoReaders.Error()
	}
	if len(t.Writers) == 0 && len(t.Routers) == 1 {
		return nil, ErrorNoWriters.Error()
	}

	return t, nil
}

// fetchTable issues ROUTE on conn and decodes the single resulting record
// into a Table.
func fetchTable(conn *bolt.Connection, database string, routingContext map[string]string, bookmarks []string, log logging.Logger) (*Table, error) {
	rc := make(map[string]any, len(routingContext))
	for k, v := range routingContext {
		rc[k] = v
	}

	bm := make([]any, 0, len(bookmarks))
	for _, b := range bookmarks {
		bm = append(bm, b)
	}

	extra := map[string]any{}
	if database != "" {
		extra["db"] = database
	}

	if err := conn.Send(bolt.SigRoute, rc, bm, extra); err != nil {
		return nil, err
	}
	if err := conn.Flush(); err != nil {
		return nil, err
	}

	var (
		table   *Table
		records int
		opErr   error
	)

	conn.Enqueue(bolt.ResponseHandler{
		OnSuccess: func(metadata map[string]any) error {
			records++
			t, err := decodeTable(metadata, log)
			if err != nil {
				opErr = err
				return nil
			}
			table = t
			return nil
		},
		OnFailure: func(se *bolt.ServerError) error {
			opErr = se
			return nil
		},
	})

	if err := conn.ReceiveAll(); err != nil {
		return nil, err
	}
	if opErr != nil {
		return nil, opErr
	}
	if records == 0 {
		return nil, ErrorNoRecord.Error()
	}

	return table, nil
}

// Clone returns a deep-enough copy of t for copy-on-refresh semantics:
// the three address slices are never mutated in place by this package,
// so a shallow struct copy with fresh slice headers is sufficient.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	c := *t
	c.Routers = append([]address.Address(nil), t.Routers...)
	c.Readers = append([]address.Address(nil), t.Readers...)
	c.Writers = append([]address.Address(nil), t.Writers...)
	return &c
}
