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

// Package session implements component H: the caller-scoped, not
// thread-safe context that borrows a Connection from a pool or router,
// issues auto-commit queries and explicit transactions on it, and tracks
// bookmarks for causal consistency across both.
package session

import (
	"context"
	"time"

	"github.com/nabbar/bolt-driver/address"
	"github.com/nabbar/bolt-driver/bolt"
	"github.com/nabbar/bolt-driver/bookmark"
	"github.com/nabbar/bolt-driver/pool"
	"github.com/nabbar/bolt-driver/routing"
	"github.com/nabbar/bolt-driver/transaction"
)

// ConnectionSource is a Session's only collaborator for obtaining a
// Connection: either a Router (routing mode, role-appropriate address
// selection) or a directSource wrapping a plain Pool (direct-connection
// mode, a single fixed address). *routing.Router already satisfies this
// with its native method set.
type ConnectionSource interface {
	Acquire(ctx context.Context, database string, mode routing.AccessMode, deadline time.Time) (*bolt.Connection, address.Address, error)
	Release(addr address.Address, conn *bolt.Connection)
}

// directSource adapts a Pool with no routing concept to ConnectionSource
// by always resolving to the same configured address.
type directSource struct {
	pool *pool.Pool
	addr address.Address
	auth bolt.AuthToken
}

// NewDirectSource builds a ConnectionSource for bolt:// (non-routing) use:
// every Acquire call resolves to addr regardless of the requested mode.
func NewDirectSource(p *pool.Pool, addr address.Address, auth bolt.AuthToken) ConnectionSource {
	return &directSource{pool: p, addr: addr, auth: auth}
}

func (d *directSource) Acquire(ctx context.Context, _ string, _ routing.AccessMode, deadline time.Time) (*bolt.Connection, address.Address, error) {
	conn, err := d.pool.Acquire(ctx, d.addr, deadline, d.auth)
	if err != nil {
		return nil, address.Address{}, err
	}
	return conn, d.addr, nil
}

func (d *directSource) Release(addr address.Address, conn *bolt.Connection) {
	d.pool.Release(addr, conn)
}

func txMode(m routing.AccessMode) transaction.Mode {
	if m == routing.Write {
		return transaction.Write
	}
	return transaction.Read
}

// Options configures a Session for its entire lifetime; none of these
// are mutable after New.
type Options struct {
	Database                        string
	ImpersonatedUser                string
	Bookmarks                       bookmark.Set
	BookmarkManager                 bookmark.Manager
	FetchSize                       int64
	TxTimeoutMs                     int64
	TxMetadata                      map[string]any
	NotificationsMinSeverity        string
	NotificationsDisabledCategories []string

	// AcquireTimeout bounds connection acquisition; zero means wait
	// indefinitely (subject to ctx).
	AcquireTimeout time.Duration
}

// Session is the per-caller context of spec.md §4.H. Not safe for
// concurrent use: exactly one goroutine may call its methods at a time.
type Session struct {
	source ConnectionSource
	opts   Options

	bookmarks bookmark.Set

	conn     *bolt.Connection
	connAddr address.Address
	connMode routing.AccessMode
	haveConn bool

	tx       *transaction.Transaction
	attached *transaction.Result

	closed bool
}

// New builds a Session bound to source, ready for Run or BeginTransaction.
func New(source ConnectionSource, opts Options) *Session {
	bm := opts.Bookmarks
	if bm == nil {
		bm = bookmark.NewSet()
	}
	return &Session{source: source, opts: opts, bookmarks: bm}
}

// Bookmarks reports the session's current bookmark set, reflecting the
// most recent commit (or the initial set, if nothing has committed yet).
func (s *Session) Bookmarks() bookmark.Set {
	return s.bookmarks.Union(nil)
}

// LastBookmark returns the numerically-largest bookmark currently held,
// or "" if the session carries none.
func (s *Session) LastBookmark() string {
	return bookmark.Largest(s.bookmarks)
}

func (s *Session) effectiveBookmarks() bookmark.Set {
	bm := s.bookmarks
	if s.opts.BookmarkManager != nil {
		bm = bm.Union(s.opts.BookmarkManager.GetBookmarks())
	}
	return bm
}

func (s *Session) beginOptions(mode routing.AccessMode) transaction.BeginOptions {
	return transaction.BeginOptions{
		Mode:                            txMode(mode),
		Bookmarks:                       s.effectiveBookmarks().Values(),
		TimeoutMs:                       s.opts.TxTimeoutMs,
		Metadata:                        s.opts.TxMetadata,
		Database:                        s.opts.Database,
		ImpersonatedUser:                s.opts.ImpersonatedUser,
		NotificationsMinSeverity:        s.opts.NotificationsMinSeverity,
		NotificationsDisabledCategories: s.opts.NotificationsDisabledCategories,
		FetchSize:                       s.opts.FetchSize,
	}
}

func (s *Session) acquireDeadline() time.Time {
	if s.opts.AcquireTimeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(s.opts.AcquireTimeout)
}

// detachAttached drains any result still attached from a prior
// auto-commit Run so the connection is free to be reused or released.
func (s *Session) detachAttached() error {
	if s.attached == nil {
		return nil
	}
	r := s.attached
	s.attached = nil
	return r.Detach()
}

func (s *Session) releaseConnection() error {
	if !s.haveConn {
		return nil
	}
	err := s.detachAttached()
	s.source.Release(s.connAddr, s.conn)
	s.conn = nil
	s.haveConn = false
	return err
}

// ensureConnection acquires a connection for mode, releasing and
// replacing one already borrowed for a different mode (spec.md §4.H).
func (s *Session) ensureConnection(ctx context.Context, mode routing.AccessMode) error {
	if s.haveConn && s.connMode == mode {
		return nil
	}
	if err := s.releaseConnection(); err != nil {
		return err
	}

	conn, addr, err := s.source.Acquire(ctx, s.opts.Database, mode, s.acquireDeadline())
	if err != nil {
		return err
	}
	s.conn, s.connAddr, s.connMode, s.haveConn = conn, addr, mode, true
	return nil
}

// Run issues an auto-commit RUN+PULL and returns the resulting lazy
// Result, attached to the session until the next Run, Close, or an
// explicit Detach. Fails if the session is closed or an explicit
// transaction is currently open.
func (s *Session) Run(ctx context.Context, mode routing.AccessMode, query string, params map[string]any) (*transaction.Result, error) {
	if s.closed {
		return nil, ErrorClosed.Error()
	}
	if s.tx != nil {
		return nil, ErrorTransactionOpen.Error()
	}
	if err := s.detachAttached(); err != nil {
		return nil, err
	}
	if err := s.ensureConnection(ctx, mode); err != nil {
		return nil, err
	}

	opts := s.beginOptions(mode)
	res, err := transaction.RunAutoCommit(s.conn, opts.FetchSize, query, params, opts.Extra(), nil)
	if err != nil {
		return nil, err
	}

	s.attached = res
	return res, nil
}

// BeginTransaction acquires a connection for mode and sends BEGIN,
// returning an OPEN Transaction. Fails if the session is closed or a
// transaction is already open; the caller commits or rolls back the
// returned Transaction directly, which in turn updates this session's
// bookmark set and clears the open-transaction reference.
func (s *Session) BeginTransaction(ctx context.Context, mode routing.AccessMode) (*transaction.Transaction, error) {
	if s.closed {
		return nil, ErrorClosed.Error()
	}
	if s.tx != nil {
		return nil, ErrorTransactionOpen.Error()
	}
	if err := s.detachAttached(); err != nil {
		return nil, err
	}
	if err := s.ensureConnection(ctx, mode); err != nil {
		return nil, err
	}

	previous := s.effectiveBookmarks()
	tx, err := transaction.Begin(s.conn, s.beginOptions(mode), func(_ *transaction.Transaction, bm string, committed bool) {
		s.tx = nil
		if committed {
			if bm != "" {
				s.bookmarks = bookmark.NewSet(bm)
			}
			if s.opts.BookmarkManager != nil {
				s.opts.BookmarkManager.UpdateBookmarks(previous, s.bookmarks)
			}
		} else {
			s.bookmarks = bookmark.NewSet()
		}
	})
	if err != nil {
		return nil, err
	}

	s.tx = tx
	return tx, nil
}

// Close rolls back any still-open transaction (best-effort), detaches
// the last attached result, and releases the borrowed connection. Safe
// to call more than once.
func (s *Session) Close(context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true

	var firstErr error
	if s.tx != nil {
		if err := s.tx.Rollback(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.tx = nil
	}
	if err := s.releaseConnection(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
