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

// Package pool maintains a per-address deque of Bolt connections, handing
// out idle ones that are not closed, defunct, stale or already in use, and
// dialing fresh ones up to a configurable ceiling.
package pool

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/nabbar/bolt-driver/address"
	"github.com/nabbar/bolt-driver/bolt"
)

// Dialer opens a new authenticated Connection to addr. It is the pool's
// only collaborator for connection creation, so tests can substitute a
// fake-server dialer in place of a real TCP dial.
type Dialer func(ctx context.Context, addr address.Address, auth bolt.AuthToken) (*bolt.Connection, error)

func authFingerprint(auth bolt.AuthToken) string {
	h := sha256.New()
	h.Write([]byte(auth.Scheme))
	h.Write([]byte{0})
	h.Write([]byte(auth.Principal))
	h.Write([]byte{0})
	h.Write([]byte(auth.Credentials))
	h.Write([]byte{0})
	h.Write([]byte(auth.Realm))
	return hex.EncodeToString(h.Sum(nil))
}

type entry struct {
	conn   *bolt.Connection
	inUse  bool
	stale  bool
	authFP string
}

// addressPool is the per-address deque guarded by its own mutex/condition
// variable, so waiting on one address never blocks acquisitions for another.
type addressPool struct {
	mu      sync.Mutex
	cond    *sync.Cond
	entries []*entry
	removed bool
}

func newAddressPool() *addressPool {
	ap := &addressPool{}
	ap.cond = sync.NewCond(&ap.mu)
	return ap
}

// Pool is the connection pool described for component E: acquire, release,
// deactivate, remove, and pool-wide auth invalidation.
type Pool struct {
	mu          sync.RWMutex
	dial        Dialer
	maxSize     int
	maxLifetime time.Duration

	addrs  map[string]*addressPool
	closed bool
}

// New builds a Pool that uses dial to create connections, caps each
// address's deque at maxSize (0 or negative means unlimited), and treats
// an idle connection as stale once maxLifetime has elapsed since it was
// created (negative means infinite, matching Connection.IsLifetimeExceeded
// and config.Config.MaxConnectionLifetime).
func New(dial Dialer, maxSize int, maxLifetime time.Duration) *Pool {
	return &Pool{
		dial:        dial,
		maxSize:     maxSize,
		maxLifetime: maxLifetime,
		addrs:       make(map[string]*addressPool),
	}
}

func (p *Pool) addressPoolFor(addr address.Address) (*addressPool, error) {
	key := addr.String()

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return nil, ErrorPoolClosed.Error()
	}
	ap, ok := p.addrs[key]
	p.mu.RUnlock()
	if ok {
		return ap, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrorPoolClosed.Error()
	}
	if ap, ok = p.addrs[key]; ok {
		return ap, nil
	}
	ap = newAddressPool()
	p.addrs[key] = ap
	return ap, nil
}

// Acquire implements the acquisition algorithm: scan for a reusable idle
// connection, dial a fresh one under the size cap, or wait on the
// condition variable until one frees up or the deadline elapses.
func (p *Pool) Acquire(ctx context.Context, addr address.Address, deadline time.Time, auth bolt.AuthToken) (*bolt.Connection, error) {
	ap, err := p.addressPoolFor(addr)
	if err != nil {
		return nil, err
	}

	fp := authFingerprint(auth)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	ap.mu.Lock()
	for {
		if ap.removed {
			ap.mu.Unlock()
			return nil, ErrorAddressRemoved.Error()
		}

		// drop idle entries that are stale, defunct, or have exceeded
		// max_connection_lifetime before scanning for a reusable one
		// (spec.md §4.D "Lifetime checks", §8 boundary: a connection past
		// its lifetime while idle is never returned by acquire).
		kept := ap.entries[:0]
		for _, e := range ap.entries {
			if !e.inUse && (e.stale || e.conn.IsDefunct() || e.conn.IsLifetimeExceeded(p.maxLifetime)) {
				go func(c *bolt.Connection) { _ = c.Close() }(e.conn)
				continue
			}
			kept = append(kept, e)
		}
		ap.entries = kept

		for _, e := range ap.entries {
			if e.inUse || e.stale || e.conn.IsDefunct() {
				continue
			}
			if e.authFP != fp {
				continue
			}
			e.inUse = true
			ap.mu.Unlock()
			return e.conn, nil
		}

		if p.maxSize <= 0 || len(ap.entries) < p.maxSize {
			ap.mu.Unlock()

			dialCtx := ctx
			if !deadline.IsZero() {
				var cancel context.CancelFunc
				dialCtx, cancel = context.WithDeadline(ctx, deadline)
				defer cancel()
			}

			conn, derr := p.dial(dialCtx, addr, auth)
			if derr != nil {
				p.Remove(addr)
				return nil, ErrorAcquireCreateFailed.Error(derr)
			}

			ap.mu.Lock()
			if ap.removed {
				ap.mu.Unlock()
				_ = conn.Close()
				return nil, ErrorAddressRemoved.Error()
			}
			ap.entries = append(ap.entries, &entry{conn: conn, inUse: true, authFP: fp})
			ap.mu.Unlock()
			return conn, nil
		}

		remaining := time.Until(deadline)
		if !deadline.IsZero() && remaining <= 0 {
			ap.mu.Unlock()
			return nil, ErrorAcquireTimeout.Error()
		}

		if timer != nil {
			timer.Stop()
		}
		if !deadline.IsZero() {
			timer = time.AfterFunc(remaining, ap.cond.Broadcast)
		}

		ap.cond.Wait()

		select {
		case <-ctx.Done():
			ap.mu.Unlock()
			return nil, ctx.Err()
		default:
		}
	}
}

// Release marks conn available for reuse and wakes one waiter. A defunct,
// stale, or lifetime-exceeded connection is closed and dropped instead of
// being recycled.
func (p *Pool) Release(addr address.Address, conn *bolt.Connection) {
	p.mu.RLock()
	ap, ok := p.addrs[addr.String()]
	p.mu.RUnlock()
	if !ok {
		_ = conn.Close()
		return
	}

	ap.mu.Lock()
	defer ap.mu.Unlock()

	for i, e := range ap.entries {
		if e.conn != conn {
			continue
		}
		e.inUse = false
		if e.stale || conn.IsDefunct() || conn.IsLifetimeExceeded(p.maxLifetime) {
			ap.entries = append(ap.entries[:i], ap.entries[i+1:]...)
			ap.cond.Signal()
			go func() { _ = conn.Close() }()
			return
		}
		ap.cond.Signal()
		return
	}

	// Unknown connection for this address: close it defensively.
	_ = conn.Close()
}

// Deactivate closes every idle connection for addr and flags in-use ones
// to be dropped on their next Release, without removing the address's
// deque itself.
func (p *Pool) Deactivate(addr address.Address) {
	p.mu.RLock()
	ap, ok := p.addrs[addr.String()]
	p.mu.RUnlock()
	if !ok {
		return
	}

	ap.mu.Lock()
	kept := ap.entries[:0]
	for _, e := range ap.entries {
		if e.inUse {
			e.stale = true
			kept = append(kept, e)
			continue
		}
		go func(c *bolt.Connection) { _ = c.Close() }(e.conn)
	}
	ap.entries = kept
	ap.cond.Broadcast()
	ap.mu.Unlock()
}

// Remove closes every connection for addr, idle and in-use alike, and
// drops the address's deque entirely; Acquire calls already waiting on that
// deque fail with ErrorAddressRemoved, and a later Acquire for the address
// starts a fresh, empty deque.
func (p *Pool) Remove(addr address.Address) {
	p.mu.Lock()
	ap, ok := p.addrs[addr.String()]
	if ok {
		delete(p.addrs, addr.String())
	}
	p.mu.Unlock()
	if !ok {
		return
	}

	ap.mu.Lock()
	ap.removed = true
	entries := ap.entries
	ap.entries = nil
	ap.cond.Broadcast()
	ap.mu.Unlock()

	for _, e := range entries {
		go func(c *bolt.Connection) { _ = c.Close() }(e.conn)
	}
}

// Prune removes every address's deque whose key is not present in kept.
// The routing layer calls this after a successful rediscovery to drop
// pooled connections to servers no longer present in any role.
func (p *Pool) Prune(kept map[string]bool) {
	p.mu.Lock()
	var stale []*addressPool
	for key, ap := range p.addrs {
		if kept[key] {
			continue
		}
		stale = append(stale, ap)
		delete(p.addrs, key)
	}
	p.mu.Unlock()

	for _, ap := range stale {
		ap.mu.Lock()
		ap.removed = true
		entries := ap.entries
		ap.entries = nil
		ap.cond.Broadcast()
		ap.mu.Unlock()

		for _, e := range entries {
			go func(c *bolt.Connection) { _ = c.Close() }(e.conn)
		}
	}
}

// InvalidateAuth marks every currently idle connection across all
// addresses stale, so they are recreated on next acquisition rather than
// reused with credentials the server no longer honours.
func (p *Pool) InvalidateAuth() {
	p.mu.RLock()
	pools := make([]*addressPool, 0, len(p.addrs))
	for _, ap := range p.addrs {
		pools = append(pools, ap)
	}
	p.mu.RUnlock()

	for _, ap := range pools {
		ap.mu.Lock()
		for _, e := range ap.entries {
			if !e.inUse {
				e.stale = true
			}
		}
		ap.mu.Unlock()
	}
}

// InUseCount reports how many connections are currently checked out for
// addr; the least-connected routing strategy uses this to pick a target.
func (p *Pool) InUseCount(addr address.Address) int {
	p.mu.RLock()
	ap, ok := p.addrs[addr.String()]
	p.mu.RUnlock()
	if !ok {
		return 0
	}

	ap.mu.Lock()
	defer ap.mu.Unlock()
	n := 0
	for _, e := range ap.entries {
		if e.inUse {
			n++
		}
	}
	return n
}

// Close marks the pool closed and releases every connection across every
// address. Safe to call once; a second call is a no-op.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	pools := p.addrs
	p.addrs = make(map[string]*addressPool)
	p.mu.Unlock()

	var firstErr error
	for _, ap := range pools {
		ap.mu.Lock()
		entries := ap.entries
		ap.entries = nil
		ap.removed = true
		ap.cond.Broadcast()
		ap.mu.Unlock()

		for _, e := range entries {
			if err := e.conn.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	if firstErr != nil {
		return firstErr
	}
	return nil
}
