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

package transaction

import (
	"github.com/nabbar/bolt-driver/bolt"
)

// Mode mirrors the routing package's access mode without importing it:
// BEGIN only needs the two-letter wire value, never the routing decision.
type Mode string

const (
	Read  Mode = "r"
	Write Mode = "w"
)

// State is a Transaction's lifecycle stage.
type State uint8

const (
	Open State = iota
	Committed
	RolledBack
	Failed
)

func (s State) String() string {
	switch s {
	case Open:
		return "OPEN"
	case Committed:
		return "COMMITTED"
	case RolledBack:
		return "ROLLED_BACK"
	case Failed:
		return "FAILED"
	}
	return "UNKNOWN"
}

// BeginOptions parameterises BEGIN's metadata map.
type BeginOptions struct {
	Mode                            Mode
	Bookmarks                       []string
	TimeoutMs                       int64
	Metadata                        map[string]any
	Database                        string
	ImpersonatedUser                string
	NotificationsMinSeverity        string
	NotificationsDisabledCategories []string
	FetchSize                       int64
}

// Extra renders these options into the metadata map BEGIN and an
// auto-commit RUN both expect: mode, bookmarks, tx_timeout, tx_metadata,
// db, imp_user and notification filters.
func (o BeginOptions) Extra() map[string]any {
	e := map[string]any{"mode": string(o.Mode)}

	if len(o.Bookmarks) > 0 {
		bm := make([]any, len(o.Bookmarks))
		for i, b := range o.Bookmarks {
			bm[i] = b
		}
		e["bookmarks"] = bm
	}
	if o.TimeoutMs > 0 {
		e["tx_timeout"] = o.TimeoutMs
	}
	if len(o.Metadata) > 0 {
		e["tx_metadata"] = o.Metadata
	}
	if o.Database != "" {
		e["db"] = o.Database
	}
	if o.ImpersonatedUser != "" {
		e["imp_user"] = o.ImpersonatedUser
	}
	if o.NotificationsMinSeverity != "" {
		e["notifications_minimum_severity"] = o.NotificationsMinSeverity
	}
	if len(o.NotificationsDisabledCategories) > 0 {
		cats := make([]any, len(o.NotificationsDisabledCategories))
		for i, c := range o.NotificationsDisabledCategories {
			cats[i] = c
		}
		e["notifications_disabled_categories"] = cats
	}
	return e
}

// Transaction is an explicit Bolt transaction: BEGIN has already been
// acknowledged by the server when this value is returned to the caller.
type Transaction struct {
	conn         *bolt.Connection
	opts         BeginOptions
	state        State
	results      []*Result
	lastBookmark string
	success      successFlag

	onClose func(tx *Transaction, bookmark string, committed bool)
}

// Begin sends BEGIN on conn and blocks for its SUCCESS/FAILURE, returning
// an OPEN Transaction on success. onClose, if non-nil, is invoked exactly
// once from Close/Commit/Rollback so the owning session can clear its
// active-transaction reference and release the connection.
func Begin(conn *bolt.Connection, opts BeginOptions, onClose func(tx *Transaction, bookmark string, committed bool)) (*Transaction, error) {
	if err := conn.Send(bolt.SigBegin, opts.Extra()); err != nil {
		return nil, err
	}
	if err := conn.Flush(); err != nil {
		return nil, err
	}

	var beginErr error
	conn.Enqueue(bolt.ResponseHandler{
		OnSuccess: func(map[string]any) error { return nil },
		OnFailure: func(se *bolt.ServerError) error {
			beginErr = se
			return nil
		},
	})
	if err := conn.ReceiveAll(); err != nil {
		return nil, err
	}
	if beginErr != nil {
		return nil, ErrorBeginFailed.Error(beginErr)
	}

	conn.SetState(bolt.StateTxReady)

	return &Transaction{
		conn:    conn,
		opts:    opts,
		state:   Open,
		onClose: onClose,
	}, nil
}

// State reports the transaction's current lifecycle stage.
func (t *Transaction) State() State {
	return t.state
}

// Run issues RUN+PULL inside this transaction and returns a lazily
// streamed Result. Fails if the transaction is not OPEN or if a prior
// result in it already failed.
func (t *Transaction) Run(query string, params map[string]any) (*Result, error) {
	if t.state != Open {
		return nil, ErrorRunOnClosed.Error()
	}
	for _, r := range t.results {
		if r.Err() != nil {
			t.state = Failed
			return nil, ErrorSiblingFailed.Error(r.Err())
		}
	}

	res, err := runAndAwaitHeader(t.conn, t.opts.FetchSize, bolt.StateTxReady, bolt.StateTxStreaming, query, params, t.opts.Extra())
	if err != nil {
		t.state = Failed
		return nil, err
	}
	res.onFailed = func(err error) {
		if t.state == Open {
			t.state = Failed
		}
	}

	t.results = append(t.results, res)
	return res, nil
}

// Commit sends COMMIT, blocks for its response, and records the returned
// bookmark. Non-idempotent: a second call fails.
func (t *Transaction) Commit() (string, error) {
	if t.state == Committed {
		return "", ErrorAlreadyCommitted.Error()
	}
	if t.state != Open && t.state != Failed {
		return "", ErrorClosed.Error()
	}

	var (
		bookmark  string
		commitErr error
	)
	t.conn.EnqueueCommit(func(metadata map[string]any) error {
		if bm, ok := metadata["bookmark"].(string); ok {
			bookmark = bm
		}
		return nil
	}, func(se *bolt.ServerError) error {
		commitErr = se
		return nil
	})
	if err := t.conn.Send(bolt.SigCommit); err != nil {
		return "", err
	}
	if err := t.conn.Flush(); err != nil {
		return "", err
	}
	if err := t.conn.ReceiveAll(); err != nil {
		return "", err
	}
	if commitErr != nil {
		t.state = Failed
		return "", commitErr
	}

	t.state = Committed
	t.lastBookmark = bookmark
	t.conn.SetState(bolt.StateReady)
	if t.onClose != nil {
		t.onClose(t, bookmark, true)
	}
	return bookmark, nil
}

// Rollback sends ROLLBACK and blocks for its response. Bookmarks are not
// updated. Non-idempotent: a second call fails.
func (t *Transaction) Rollback() error {
	if t.state == RolledBack {
		return ErrorAlreadyRolledBack.Error()
	}
	if t.state != Open && t.state != Failed {
		return ErrorClosed.Error()
	}

	var rollbackErr error
	t.conn.Enqueue(bolt.ResponseHandler{
		OnSuccess: func(map[string]any) error { return nil },
		OnFailure: func(se *bolt.ServerError) error {
			rollbackErr = se
			return nil
		},
	})
	if err := t.conn.Send(bolt.SigRollback); err != nil {
		return err
	}
	if err := t.conn.Flush(); err != nil {
		return err
	}
	if err := t.conn.ReceiveAll(); err != nil {
		return err
	}

	t.state = RolledBack
	t.conn.SetState(bolt.StateReady)
	if t.onClose != nil {
		t.onClose(t, "", false)
	}
	return rollbackErr
}

// success tracks the flag set via MarkSuccess for the close() idiom.
type successFlag struct {
	set   bool
	value bool
}

// MarkSuccess records the transaction's intended outcome for a subsequent
// Close call, mirroring the success-flag idiom of context-managed
// sessions: true commits, false rolls back.
func (t *Transaction) MarkSuccess(success bool) {
	t.success = successFlag{set: true, value: success}
}

// Close commits or rolls back per the latest MarkSuccess assignment,
// defaulting to rollback when none was made. Safe to call once; a second
// call on an already-closed transaction returns an error.
func (t *Transaction) Close() (string, error) {
	if t.success.set && t.success.value {
		return t.Commit()
	}
	return "", t.Rollback()
}
