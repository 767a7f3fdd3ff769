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

package routing_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/bolt-driver/address"
	"github.com/nabbar/bolt-driver/bolt"
	"github.com/nabbar/bolt-driver/pool"
	"github.com/nabbar/bolt-driver/routing"
)

func routeDialerFor(srv *routeServer) pool.Dialer {
	return func(ctx context.Context, addr address.Address, auth bolt.AuthToken) (*bolt.Connection, error) {
		return bolt.Dial(ctx, srv.host, srv.port, bolt.Options{
			ConnectTimeout: time.Second,
			Auth:           auth,
		})
	}
}

var _ = Describe("Router", func() {

	var (
		srv  *routeServer
		seed address.Address
		auth bolt.AuthToken
		p    *pool.Pool
	)

	BeforeEach(func() {
		var err error
		srv, err = startRouteServer()
		Expect(err).ToNot(HaveOccurred())

		seed = address.Address{Host: srv.host, Port: srv.port}
		auth = bolt.BasicAuth("neo4j", "password", "")

		srv.routers = []string{seed.String()}
		srv.readers = []string{seed.String()}
		srv.writers = []string{seed.String()}

		p = pool.New(routeDialerFor(srv), 4, -1)
	})

	AfterEach(func() {
		p.Close()
		srv.Close()
	})

	It("fetches and caches a routing table on first use", func() {
		r := routing.NewRouter(context.Background(), []address.Address{seed}, p, auth, nil, routing.NewRoundRobin(), nil)

		Expect(r.EnsureFresh(context.Background(), "neo4j", routing.Read)).To(Succeed())
		Expect(srv.RouteCalls()).To(Equal(1))

		Expect(r.EnsureFresh(context.Background(), "neo4j", routing.Read)).To(Succeed())
		Expect(srv.RouteCalls()).To(Equal(1), "a fresh table must not trigger a second ROUTE call")
	})

	It("acquires a connection to the role-appropriate address", func() {
		r := routing.NewRouter(context.Background(), []address.Address{seed}, p, auth, nil, routing.NewRoundRobin(), nil)

		conn, addr, err := r.Acquire(context.Background(), "neo4j", routing.Write, time.Now().Add(time.Second))
		Expect(err).ToNot(HaveOccurred())
		Expect(addr).To(Equal(seed))

		r.Release(addr, conn)
	})

	It("fails rediscovery when the only router returns a protocol error", func() {
		srv.fail = true
		r := routing.NewRouter(context.Background(), []address.Address{seed}, p, auth, nil, routing.NewRoundRobin(), nil)

		err := r.EnsureFresh(context.Background(), "neo4j", routing.Read)
		Expect(err).To(HaveOccurred())
	})

	It("fails over to the next router when the first is unreachable", func() {
		// seed is already a working ROUTE-capable server; put an
		// unreachable address first in the try list so refresh must skip
		// it and fall through to seed.
		unreachable := address.Address{Host: "127.0.0.1", Port: 1}

		dialer := func(ctx context.Context, addr address.Address, auth bolt.AuthToken) (*bolt.Connection, error) {
			if addr == unreachable {
				return nil, context.DeadlineExceeded
			}
			return bolt.Dial(ctx, addr.Host, addr.Port, bolt.Options{
				ConnectTimeout: time.Second,
				Auth:           auth,
			})
		}

		mp := pool.New(dialer, 4, -1)
		defer mp.Close()

		r := routing.NewRouter(context.Background(), []address.Address{unreachable, seed}, mp, auth, nil, routing.NewRoundRobin(), nil)

		Expect(r.EnsureFresh(context.Background(), "neo4j", routing.Read)).To(Succeed())
		Expect(srv.RouteCalls()).To(Equal(1))
	})

	It("tracks the missing-writer sub-state when no writer is reported", func() {
		srv.writers = nil
		srv.routers = []string{seed.String(), "127.0.0.1:7688"}
		r := routing.NewRouter(context.Background(), []address.Address{seed}, p, auth, nil, routing.NewRoundRobin(), nil)

		err := r.EnsureFresh(context.Background(), "neo4j", routing.Read)
		Expect(err).ToNot(HaveOccurred())

		_, _, werr := r.Acquire(context.Background(), "neo4j", routing.Write, time.Now().Add(time.Second))
		Expect(werr).To(HaveOccurred())
	})
})
