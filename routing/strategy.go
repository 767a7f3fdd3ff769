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
	"sync"
	"sync/atomic"

	"github.com/nabbar/bolt-driver/address"
)

// Strategy picks the next candidate address to try for mode out of addrs,
// given a way to query each candidate's current in-use connection count.
type Strategy interface {
	Pick(addrs []address.Address, mode AccessMode, inUse func(address.Address) int) []address.Address
}

// roundRobin keeps one cursor per (database, mode) pair and returns the
// full candidate list starting from the cursor, so callers can walk it
// in order and fail over to the next entry without re-picking.
type roundRobin struct {
	mu      sync.Mutex
	cursors map[AccessMode]uint64
}

// NewRoundRobin returns the round-robin Strategy: `addresses[cursor % len]`
// on each call, cursor advancing every time.
func NewRoundRobin() Strategy {
	return &roundRobin{cursors: make(map[AccessMode]uint64)}
}

func (r *roundRobin) Pick(addrs []address.Address, mode AccessMode, _ func(address.Address) int) []address.Address {
	if len(addrs) == 0 {
		return nil
	}

	r.mu.Lock()
	start := r.cursors[mode] % uint64(len(addrs))
	r.cursors[mode]++
	r.mu.Unlock()

	out := make([]address.Address, len(addrs))
	for i := range addrs {
		out[i] = addrs[(int(start)+i)%len(addrs)]
	}
	return out
}

// leastConnected starts from a rotating offset each call and orders the
// candidate list by ascending in-use count, ties broken by scan order
// from that offset.
type leastConnected struct {
	offset uint64
}

// NewLeastConnected returns the least-connected Strategy.
func NewLeastConnected() Strategy {
	return &leastConnected{}
}

func (l *leastConnected) Pick(addrs []address.Address, _ AccessMode, inUse func(address.Address) int) []address.Address {
	n := len(addrs)
	if n == 0 {
		return nil
	}

	start := int(atomic.AddUint64(&l.offset, 1)-1) % n

	rotated := make([]address.Address, n)
	for i := 0; i < n; i++ {
		rotated[i] = addrs[(start+i)%n]
	}

	counts := make([]int, n)
	for i, a := range rotated {
		if inUse != nil {
			counts[i] = inUse(a)
		}
	}

	// stable selection sort by count, preserving scan order on ties.
	for i := 0; i < n; i++ {
		best := i
		for j := i + 1; j < n; j++ {
			if counts[j] < counts[best] {
				best = j
			}
		}
		rotated[i], rotated[best] = rotated[best], rotated[i]
		counts[i], counts[best] = counts[best], counts[i]
	}

	return rotated
}
