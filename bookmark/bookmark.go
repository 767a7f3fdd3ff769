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

// Package bookmark holds the opaque causal-consistency tokens a session
// carries between transactions, plus the pluggable manager that can
// share them across sessions.
package bookmark

import (
	"strconv"
	"strings"
	"sync"
)

// Set is an unordered collection of opaque bookmark strings. The zero
// value is an empty, usable set.
type Set map[string]struct{}

// NewSet builds a Set from zero or more bookmark strings.
func NewSet(values ...string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		s[v] = struct{}{}
	}
	return s
}

// Values renders the set as a slice, order unspecified, for passing into
// a BEGIN/RUN request's "bookmarks" field.
func (s Set) Values() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	return out
}

// Union returns a new Set containing every bookmark from s and other.
func (s Set) Union(other Set) Set {
	out := make(Set, len(s)+len(other))
	for v := range s {
		out[v] = struct{}{}
	}
	for v := range other {
		out[v] = struct{}{}
	}
	return out
}

// Empty reports whether the set carries no bookmarks.
func (s Set) Empty() bool {
	return len(s) == 0
}

// Largest extracts the numerically-largest bookmark in the set, comparing
// the numeric suffix after each bookmark's last ":" (SUPPLEMENTED FEATURES
// #4). Bookmarks without a parseable numeric suffix sort below any that
// have one; ties keep the first one encountered. Returns "" for an empty
// set.
func Largest(s Set) string {
	var best, fallback string
	var bestNum int64
	haveBest := false

	for v := range s {
		if fallback == "" {
			fallback = v
		}
		n, ok := suffixNumber(v)
		if !ok {
			continue
		}
		if !haveBest || n > bestNum {
			best, bestNum, haveBest = v, n, true
		}
	}
	if haveBest {
		return best
	}
	return fallback
}

func suffixNumber(v string) (int64, bool) {
	idx := strings.LastIndex(v, ":")
	if idx < 0 || idx == len(v)-1 {
		return 0, false
	}
	n, err := strconv.ParseInt(v[idx+1:], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Manager is the external collaborator spec.md §9 describes: a small
// interface whose only contract with the core is thread/Task safety.
// GetBookmarks supplies the bookmarks to thread into the next BEGIN;
// UpdateBookmarks is called after every COMMIT with the bookmarks that
// were used for the transaction and the ones returned by the server.
type Manager interface {
	GetBookmarks() Set
	UpdateBookmarks(previous, new Set)
}

// memoryManager is the core's only default Manager implementation: an
// in-memory set guarded by a mutex, shared across every session that
// points at the same Manager instance.
type memoryManager struct {
	mu  sync.Mutex
	set Set
}

// NewMemoryManager returns a Manager seeded with initial, safe to share
// across concurrently-used Sessions.
func NewMemoryManager(initial Set) Manager {
	return &memoryManager{set: initial.Union(nil)}
}

func (m *memoryManager) GetBookmarks() Set {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.set.Union(nil)
}

func (m *memoryManager) UpdateBookmarks(previous, new Set) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for v := range previous {
		delete(m.set, v)
	}
	for v := range new {
		m.set[v] = struct{}{}
	}
}
