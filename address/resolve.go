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

package address

import (
	"context"
	"net"
)

// Resolver turns one unresolved Address into zero or more candidate
// Addresses, synchronously or asynchronously. A caller plugs in custom
// DNS/service-discovery behaviour by implementing this.
type Resolver func(ctx context.Context, a Address) ([]Address, error)

// Resolved pairs a DNS-resolved, connectable Address with the original
// hostname it came from.
type Resolved struct {
	Address    Address
	Unresolved Address
}

// Resolve runs the optional custom resolver first (identity if nil),
// then DNS-resolves every address it produces, flattening the results
// into a single ordered list that preserves resolution order as the
// connect-attempt order.
func Resolve(ctx context.Context, initial Address, custom Resolver) ([]Resolved, error) {
	candidates := []Address{initial}
	if custom != nil {
		resolved, err := custom(ctx, initial)
		if err != nil {
			return nil, ErrorResolve.Error(err)
		}
		candidates = resolved
	}

	var out []Resolved
	for _, c := range candidates {
		ips, err := net.DefaultResolver.LookupHost(ctx, c.Host)
		if err != nil {
			return nil, ErrorResolve.Error(err)
		}
		for _, ip := range ips {
			out = append(out, Resolved{
				Address:    Address{Host: ip, Port: c.Port},
				Unresolved: c,
			})
		}
	}

	if len(out) == 0 {
		return nil, ErrorNoEndpoints.Error()
	}

	return out, nil
}
