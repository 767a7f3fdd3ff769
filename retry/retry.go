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

// Package retry implements component J: the transactional-function retry
// loop that wraps Session.BeginTransaction in exponential backoff with
// jitter, classifying every failure as retryable or not before deciding
// whether to sleep and try again or give up and propagate.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/nabbar/bolt-driver/bolt"
	"github.com/nabbar/bolt-driver/config"
	"github.com/nabbar/bolt-driver/errors"
	"github.com/nabbar/bolt-driver/routing"
	"github.com/nabbar/bolt-driver/transaction"
)

// TransactionBeginner is the executor's only collaborator: anything that
// can open an explicit transaction for an access mode. *session.Session
// satisfies this without either package importing the other.
type TransactionBeginner interface {
	BeginTransaction(ctx context.Context, mode routing.AccessMode) (*transaction.Transaction, error)
}

// Work is a caller-supplied transactional function. It receives an OPEN
// Transaction and returns whatever value the caller wants propagated out
// of Execute*; the executor commits on a nil error and rolls back
// (without committing) otherwise.
type Work func(tx *transaction.Transaction) (any, error)

// Executor runs Work inside a retry loop per spec.md §4.J: exponential
// backoff starting at InitialInterval, doubling via Multiplier, jittered
// by RandomizationFactor, bounded by MaxRetryTime measured from the first
// attempt.
type Executor struct {
	InitialInterval     time.Duration
	Multiplier          float64
	RandomizationFactor float64
	MaxRetryTime        time.Duration
}

// NewDefault returns the executor configured with spec.md's literal
// constants: delay0 = 1s, multiplier 2.0, jitter factor 0.2, and the
// configuration default max_transaction_retry_time of 30s.
func NewDefault() Executor {
	return Executor{
		InitialInterval:     time.Second,
		Multiplier:          2.0,
		RandomizationFactor: 0.2,
		MaxRetryTime:        30 * time.Second,
	}
}

// FromConfig returns the executor configured from cfg, using spec.md's
// fixed delay0/multiplier/jitter constants and cfg's
// max_transaction_retry_time as MaxRetryTime.
func FromConfig(cfg *config.Config) Executor {
	e := NewDefault()
	e.MaxRetryTime = cfg.MaxTransactionRetryTime.Time()
	return e
}

// ExecuteRead runs work inside a READ transaction, retrying on transient
// failure until it succeeds, fails non-retryably, or MaxRetryTime elapses.
func (e Executor) ExecuteRead(ctx context.Context, tb TransactionBeginner, work Work) (any, error) {
	return e.execute(ctx, tb, routing.Read, work)
}

// ExecuteWrite runs work inside a WRITE transaction under the same retry
// policy as ExecuteRead.
func (e Executor) ExecuteWrite(ctx context.Context, tb TransactionBeginner, work Work) (any, error) {
	return e.execute(ctx, tb, routing.Write, work)
}

func (e Executor) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.InitialInterval
	b.Multiplier = e.Multiplier
	b.RandomizationFactor = e.RandomizationFactor
	b.MaxElapsedTime = 0 // this executor, not the library, enforces MaxRetryTime
	b.Reset()
	return b
}

func (e Executor) execute(ctx context.Context, tb TransactionBeginner, mode routing.AccessMode, work Work) (any, error) {
	t0 := time.Now()
	bo := e.newBackOff()

	for {
		result, err := e.attempt(ctx, tb, mode, work)
		if err == nil {
			return result, nil
		}
		if !IsRetryable(err) {
			return nil, err
		}
		if time.Since(t0) > e.MaxRetryTime {
			return nil, ErrorMaxRetryTimeExceeded.Error(err)
		}
		if sleepErr := e.sleep(ctx, bo.NextBackOff()); sleepErr != nil {
			return nil, sleepErr
		}
	}
}

// attempt runs exactly one begin/work/commit-or-rollback cycle.
func (e Executor) attempt(ctx context.Context, tb TransactionBeginner, mode routing.AccessMode, work Work) (any, error) {
	tx, err := tb.BeginTransaction(ctx, mode)
	if err != nil {
		return nil, err
	}

	result, werr := work(tx)
	if werr != nil {
		_ = tx.Rollback()
		return nil, werr
	}

	if _, cerr := tx.Commit(); cerr != nil {
		return nil, cerr
	}
	return result, nil
}

func (e Executor) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ErrorContextDone.Error(ctx.Err())
	}
}

// IsRetryable reports whether err belongs to the retryable set of
// spec.md §4.J: service-unavailable, session-expired (routing list
// exhaustion), authorization-expired, or a non-terminal transient Neo4j
// error. Incomplete-commit and every other classification are not
// retryable.
func IsRetryable(err error) bool {
	if bolt.IsRetryable(err) {
		return true
	}
	if errors.IsCode(err, routing.ErrorServiceUnavailable) {
		return true
	}
	if errors.IsCode(err, routing.ErrorListExhausted) {
		return true
	}
	return false
}
