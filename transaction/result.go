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

// Package transaction implements component I: explicit-transaction state
// and the lazy, detach-on-demand result stream produced by RUN/PULL.
package transaction

import (
	"time"

	"github.com/go-viper/mapstructure/v2"

	"github.com/nabbar/bolt-driver/bolt"
)

// Record is one row of a Result: the field values in the order reported
// by Keys().
type Record []any

// Counters is the fixed set of named integer counters a server reports
// after a write.
type Counters struct {
	NodesCreated          int64 `mapstructure:"nodes-created"`
	NodesDeleted          int64 `mapstructure:"nodes-deleted"`
	RelationshipsCreated  int64 `mapstructure:"relationships-created"`
	RelationshipsDeleted  int64 `mapstructure:"relationships-deleted"`
	PropertiesSet         int64 `mapstructure:"properties-set"`
	LabelsAdded           int64 `mapstructure:"labels-added"`
	LabelsRemoved         int64 `mapstructure:"labels-removed"`
	IndexesAdded          int64 `mapstructure:"indexes-added"`
	IndexesRemoved        int64 `mapstructure:"indexes-removed"`
	ConstraintsAdded      int64 `mapstructure:"constraints-added"`
	ConstraintsRemoved    int64 `mapstructure:"constraints-removed"`
	SystemUpdates         int64 `mapstructure:"system-updates"`
	ContainsUpdates       bool
	ContainsSystemUpdates bool
}

func (c Counters) anyUpdates() bool {
	return c.NodesCreated != 0 || c.NodesDeleted != 0 ||
		c.RelationshipsCreated != 0 || c.RelationshipsDeleted != 0 ||
		c.PropertiesSet != 0 || c.LabelsAdded != 0 || c.LabelsRemoved != 0 ||
		c.IndexesAdded != 0 || c.IndexesRemoved != 0 ||
		c.ConstraintsAdded != 0 || c.ConstraintsRemoved != 0
}

// NotificationPosition locates a notification within the query text.
type NotificationPosition struct {
	Offset int `mapstructure:"offset"`
	Line   int `mapstructure:"line"`
	Column int `mapstructure:"column"`
}

// Notification is a server-reported diagnostic attached to a query,
// distinct from a failure: deprecation warnings, index suggestions, etc.
type Notification struct {
	Code        string                `mapstructure:"code"`
	Title       string                `mapstructure:"title"`
	Description string                `mapstructure:"description"`
	Severity    string                `mapstructure:"severity"`
	Category    string                `mapstructure:"category"`
	Position    NotificationPosition  `mapstructure:"position"`
}

// Summary is assembled from the RUN header and the final PULL footer.
type Summary struct {
	Query                  string
	Parameters             map[string]any
	Database               string
	Bookmark               string
	ResultAvailableAfter   time.Duration
	ResultConsumedAfter    time.Duration
	Counters               Counters
	Plan                   map[string]any
	Profile                map[string]any
	Notifications          []Notification
	ContainsUpdates        bool
	ContainsSystemUpdates  bool
}

type pullFooter struct {
	Bookmark             string         `mapstructure:"bookmark"`
	Db                   string         `mapstructure:"db"`
	TLast                int64          `mapstructure:"t_last"`
	HasMore              bool           `mapstructure:"has_more"`
	Stats                map[string]any `mapstructure:"stats"`
	Plan                 map[string]any `mapstructure:"plan"`
	Profile              map[string]any `mapstructure:"profile"`
	Notifications        []Notification `mapstructure:"notifications"`
}

// puller is implemented by *bolt.Connection; abstracted so Result can be
// unit-tested against a stub without a real wire connection.
type puller interface {
	Send(sig byte, fields ...any) error
	Flush() error
	Enqueue(h bolt.ResponseHandler)
	ReceiveAll() error
	SetState(s bolt.ConnState)
}

// Result iterates a RUN+PULL stream lazily: Next pops from an in-memory
// buffer, requesting another PULL batch from the connection only when the
// buffer runs dry and the stream is not yet complete.
type Result struct {
	conn      puller
	fetchSize int64
	qid       int64

	keys []string

	buffer   []Record
	complete bool
	failed   error

	summary *Summary
	tRun    time.Time
	tFirst  time.Duration

	// idleState is restored on the connection once the stream completes
	// without error: StateReady for auto-commit, StateTxReady inside an
	// explicit transaction.
	idleState bolt.ConnState

	onFailed func(error)
}

// runAndAwaitHeader sends RUN with extra metadata, switches the
// connection into its streaming state, and blocks for the RUN response
// header (field names, t_first). It is shared by Transaction.Run and
// RunAutoCommit, which differ only in which idle/streaming ConnState
// pair applies and in whether a transaction wraps the query.
func runAndAwaitHeader(conn puller, fetchSize int64, idleState, streamingState bolt.ConnState, query string, params, extra map[string]any) (*Result, error) {
	if params == nil {
		params = map[string]any{}
	}
	if extra == nil {
		extra = map[string]any{}
	}

	tRun := time.Now()
	if err := conn.Send(bolt.SigRun, query, params, extra); err != nil {
		return nil, err
	}

	res := &Result{conn: conn, fetchSize: fetchSize, qid: -1, tRun: tRun, idleState: idleState}

	var runErr error
	conn.Enqueue(bolt.ResponseHandler{
		OnSuccess: func(metadata map[string]any) error {
			res.tFirst = time.Since(tRun)
			if fields, ok := metadata["fields"].([]any); ok {
				keys := make([]string, 0, len(fields))
				for _, f := range fields {
					if s, ok := f.(string); ok {
						keys = append(keys, s)
					}
				}
				res.keys = keys
			}
			return nil
		},
		OnFailure: func(se *bolt.ServerError) error {
			runErr = se
			return nil
		},
	})
	conn.SetState(streamingState)
	if err := conn.Flush(); err != nil {
		return nil, err
	}
	if err := conn.ReceiveAll(); err != nil {
		return nil, err
	}
	if runErr != nil {
		return nil, runErr
	}

	return res, nil
}

// RunAutoCommit issues a BEGIN-less RUN+PULL directly on conn, for the
// session's auto-commit query path. extra carries the same metadata keys
// as BeginOptions.Extra() (mode, bookmarks, db, ...). onFailed, if
// non-nil, is invoked when the stream later fails, so the owning session
// can react without polling Err() itself.
func RunAutoCommit(conn *bolt.Connection, fetchSize int64, query string, params, extra map[string]any, onFailed func(error)) (*Result, error) {
	res, err := runAndAwaitHeader(conn, fetchSize, bolt.StateReady, bolt.StateStreaming, query, params, extra)
	if err != nil {
		return nil, err
	}
	res.onFailed = onFailed
	return res, nil
}

func (r *Result) markFailed(err error) {
	r.failed = err
	r.complete = true
	if r.onFailed != nil {
		r.onFailed(err)
	}
}

// Keys returns the field names reported by the RUN response header.
func (r *Result) Keys() []string {
	return r.keys
}

// Err returns the error that failed this result, if any.
func (r *Result) Err() error {
	return r.failed
}

func (r *Result) fetchMore() error {
	if r.complete {
		return r.failed
	}

	n := r.fetchSize
	if n == 0 {
		n = 1000
	}

	extra := map[string]any{"n": n}
	if r.qid >= 0 {
		extra["qid"] = r.qid
	}

	if err := r.conn.Send(bolt.SigPull, extra); err != nil {
		r.markFailed(err)
		return err
	}
	if err := r.conn.Flush(); err != nil {
		r.markFailed(err)
		return err
	}

	var footerErr error
	r.conn.Enqueue(bolt.ResponseHandler{
		OnRecord: func(fields []any) error {
			r.buffer = append(r.buffer, Record(fields))
			return nil
		},
		OnSuccess: func(metadata map[string]any) error {
			var f pullFooter
			_ = mapstructure.Decode(metadata, &f)

			if !f.HasMore {
				r.complete = true
				r.summary = r.assembleSummary(f)
				r.conn.SetState(r.idleState)
			}
			return nil
		},
		OnFailure: func(se *bolt.ServerError) error {
			footerErr = se
			return nil
		},
	})

	if err := r.conn.ReceiveAll(); err != nil {
		r.markFailed(err)
		return err
	}
	if footerErr != nil {
		r.markFailed(footerErr)
		return footerErr
	}
	return nil
}

func (r *Result) assembleSummary(f pullFooter) *Summary {
	var counters Counters
	_ = mapstructure.Decode(f.Stats, &counters)
	counters.ContainsUpdates = counters.anyUpdates()
	counters.ContainsSystemUpdates = counters.SystemUpdates != 0

	s := &Summary{
		Database:              f.Db,
		Bookmark:              f.Bookmark,
		ResultConsumedAfter:   time.Duration(f.TLast) * time.Millisecond,
		ResultAvailableAfter:  r.tFirst,
		Counters:              counters,
		Plan:                  f.Plan,
		Profile:               f.Profile,
		Notifications:         f.Notifications,
		ContainsUpdates:       counters.ContainsUpdates,
		ContainsSystemUpdates: counters.ContainsSystemUpdates,
	}
	return s
}

// Next pops the next record, fetching another PULL batch if the buffer is
// empty and the stream is not yet complete.
func (r *Result) Next() (Record, bool, error) {
	for len(r.buffer) == 0 && !r.complete {
		if err := r.fetchMore(); err != nil {
			return nil, false, err
		}
	}
	if r.failed != nil {
		return nil, false, r.failed
	}
	if len(r.buffer) == 0 {
		return nil, false, nil
	}

	rec := r.buffer[0]
	r.buffer = r.buffer[1:]
	return rec, true, nil
}

// Peek returns the next record without advancing the cursor.
func (r *Result) Peek() (Record, bool, error) {
	for len(r.buffer) == 0 && !r.complete {
		if err := r.fetchMore(); err != nil {
			return nil, false, err
		}
	}
	if r.failed != nil {
		return nil, false, r.failed
	}
	if len(r.buffer) == 0 {
		return nil, false, nil
	}
	return r.buffer[0], true, nil
}

// Single succeeds only if exactly one record remains in the stream.
func (r *Result) Single() (Record, error) {
	rec, ok, err := r.Next()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrorSingleCardinality.Error()
	}

	_, more, err := r.Peek()
	if err != nil {
		return nil, err
	}
	if more {
		return nil, ErrorSingleCardinality.Error()
	}
	return rec, nil
}

// Consume discards any remaining records and returns the summary,
// blocking until the stream completes.
func (r *Result) Consume() (*Summary, error) {
	for !r.complete {
		if err := r.fetchMore(); err != nil {
			return nil, err
		}
		r.buffer = nil
	}
	if r.failed != nil {
		return nil, r.failed
	}
	return r.summary, nil
}

// Detach drains every remaining record into the buffer so the result
// stays readable after its owning Session or Transaction closes, without
// discarding the records the way Consume does.
func (r *Result) Detach() error {
	for !r.complete {
		if err := r.fetchMore(); err != nil {
			return err
		}
	}
	return r.failed
}
