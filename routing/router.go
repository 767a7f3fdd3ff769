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

package routing

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/nabbar/bolt-driver/address"
	"github.com/nabbar/bolt-driver/bolt"
	"github.com/nabbar/bolt-driver/cache"
	"github.com/nabbar/bolt-driver/errors"
	"github.com/nabbar/bolt-driver/logging"
	"github.com/nabbar/bolt-driver/pool"
)

// isProtocolFailure reports whether err is one of the malformed-response
// classifications that must abort rediscovery outright rather than try
// the next router (spec.md §4.F step 4).
func isProtocolFailure(err error) bool {
	for _, code := range []errors.CodeError{
		ErrorNoRouters, ErrorNoReaders, ErrorNoWriters,
		ErrorNoRecord, ErrorMultipleRecords, ErrorDecodeTable,
	} {
		if errors.IsCode(err, code) {
			return true
		}
	}
	return false
}

// defaultTableTTL seeds the per-database cache entry's own expiration;
// freshness is actually decided by Table.IsFresh, not by the cache's
// auto-eviction, so this only bounds how long a never-refreshed entry
// lingers before Walk/Clean would drop it.
const defaultTableTTL = 10 * time.Minute

// Router implements components F and G: it keeps one Table per database,
// refreshes it against a rotating set of router addresses, and selects
// a reader or writer connection from the shared Pool via a Strategy.
type Router struct {
	initial        []address.Address
	pool           *pool.Pool
	auth           bolt.AuthToken
	routingContext map[string]string
	strategy       Strategy
	log            logging.Logger

	tables cache.Cache[string, *Table]
	group  singleflight.Group

	mu            sync.Mutex
	missingWriter map[string]bool
}

// NewRouter builds a Router seeded with the initial router addresses
// (typically the addresses parsed out of a neo4j:// URL).
func NewRouter(ctx context.Context, initial []address.Address, p *pool.Pool, auth bolt.AuthToken, routingContext map[string]string, strategy Strategy, log logging.Logger) *Router {
	if log == nil {
		log = logging.Discard()
	}
	if strategy == nil {
		strategy = NewRoundRobin()
	}
	return &Router{
		initial:        initial,
		pool:           p,
		auth:           auth,
		routingContext: routingContext,
		strategy:       strategy,
		log:            log,
		tables:         cache.New[string, *Table](ctx, defaultTableTTL),
		missingWriter:  make(map[string]bool),
	}
}

func (r *Router) tableFor(database string) *Table {
	t, _, ok := r.tables.Load(database)
	if !ok {
		return nil
	}
	return t
}

// EnsureFresh implements the rediscovery algorithm of spec.md §4.F: a
// double-checked refresh, serialised per database through a singleflight
// group so concurrent callers collapse onto one in-flight rediscovery.
func (r *Router) EnsureFresh(ctx context.Context, database string, mode AccessMode) error {
	if r.tableFor(database).IsFresh(mode) {
		return nil
	}

	key := database + "\x00" + r.contextFingerprint()
	_, err, _ := r.group.Do(key, func() (interface{}, error) {
		if r.tableFor(database).IsFresh(mode) {
			return nil, nil
		}
		return nil, r.refresh(ctx, database)
	})
	return err
}

func (r *Router) contextFingerprint() string {
	s := ""
	for k, v := range r.routingContext {
		s += k + "=" + v + "&"
	}
	return s
}

// tryList builds the router candidate order: existing routers, then the
// initial seed address if absent, with the seed moved first while the
// table is in missing-writer state.
func (r *Router) tryList(database string) []address.Address {
	current := r.tableFor(database)

	var list []address.Address
	seen := make(map[string]bool)
	if current != nil {
		for _, a := range current.Routers {
			list = append(list, a)
			seen[a.String()] = true
		}
	}
	for _, a := range r.initial {
		if !seen[a.String()] {
			list = append(list, a)
			seen[a.String()] = true
		}
	}

	r.mu.Lock()
	missing := r.missingWriter[database]
	r.mu.Unlock()

	if missing && len(r.initial) > 0 {
		front := r.initial[0]
		reordered := []address.Address{front}
		for _, a := range list {
			if a.String() != front.String() {
				reordered = append(reordered, a)
			}
		}
		list = reordered
	}

	return list
}

func (r *Router) refresh(ctx context.Context, database string) error {
	candidates := r.tryList(database)

	var lastErr error
	for _, addr := range candidates {
		conn, err := r.pool.Acquire(ctx, addr, time.Time{}, r.auth)
		if err != nil {
			lastErr = err
			continue
		}

		table, ferr := fetchTable(conn, database, r.routingContext, nil, r.log)
		if ferr != nil {
			r.pool.Release(addr, conn)

			if _, ok := bolt.AsServerError(ferr); ok {
				// a classified server FAILURE during ROUTE is a protocol
				// error per spec.md §4.F step 4: abort rediscovery.
				return ferr
			}
			if isProtocolFailure(ferr) {
				return ferr
			}

			// network/service failure: deactivate this router and continue.
			r.pool.Deactivate(addr)
			lastErr = ferr
			continue
		}

		r.pool.Release(addr, conn)
		r.tables.Store(database, table)

		r.mu.Lock()
		r.missingWriter[database] = table.MissingWriter()
		r.mu.Unlock()

		r.pruneStalePoolAddresses(database, table)
		return nil
	}

	if lastErr != nil {
		return ErrorServiceUnavailable.Error(lastErr)
	}
	return ErrorServiceUnavailable.Error()
}

// pruneStalePoolAddresses removes pooled connections to addresses that no
// longer appear in any role of the freshly-fetched table.
func (r *Router) pruneStalePoolAddresses(database string, fresh *Table) {
	kept := make(map[string]bool)
	for _, a := range fresh.Routers {
		kept[a.String()] = true
	}
	for _, a := range fresh.Readers {
		kept[a.String()] = true
	}
	for _, a := range fresh.Writers {
		kept[a.String()] = true
	}

	r.pool.Prune(kept)
}

// Acquire implements selection: ensure a fresh table, then walk the
// relevant role list via the configured Strategy until the pool returns
// a usable connection, deactivating any address that does not.
func (r *Router) Acquire(ctx context.Context, database string, mode AccessMode, deadline time.Time) (*bolt.Connection, address.Address, error) {
	if err := r.EnsureFresh(ctx, database, mode); err != nil {
		return nil, address.Address{}, err
	}

	table := r.tableFor(database)
	addrs := table.Addresses(mode)
	if len(addrs) == 0 {
		return nil, address.Address{}, ErrorListExhausted.Error()
	}

	ordered := r.strategy.Pick(addrs, mode, r.pool.InUseCount)

	var lastErr error
	for _, addr := range ordered {
		conn, err := r.pool.Acquire(ctx, addr, deadline, r.auth)
		if err != nil {
			r.pool.Deactivate(addr)
			lastErr = err
			continue
		}
		return conn, addr, nil
	}

	if lastErr != nil {
		return nil, address.Address{}, ErrorListExhausted.Error(lastErr)
	}
	return nil, address.Address{}, ErrorListExhausted.Error()
}

// Release forwards to the underlying Pool.
func (r *Router) Release(addr address.Address, conn *bolt.Connection) {
	r.pool.Release(addr, conn)
}

// InvalidateWriter drops the writer entry for database, forcing the next
// write Acquire to rediscover; used when a connection observes
// Neo.ClientError.Cluster.NotALeader or ForbiddenOnReadOnlyDatabase.
func (r *Router) InvalidateWriter(database string) {
	t := r.tableFor(database)
	if t == nil {
		return
	}
	c := t.Clone()
	c.Writers = nil
	r.tables.Store(database, c)

	r.mu.Lock()
	r.missingWriter[database] = true
	r.mu.Unlock()
}
