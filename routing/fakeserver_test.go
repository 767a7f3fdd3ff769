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
	"io"
	"net"
	"strconv"
	"sync/atomic"

	"github.com/nabbar/bolt-driver/framing"
	"github.com/nabbar/bolt-driver/packstream"
)

// routeServer is the ROUTE-aware counterpart to pool's fakeServer: it
// completes the handshake and HELLO exchange, then answers every ROUTE
// request it receives with either a fixed routing table or a FAILURE,
// and counts how many ROUTE requests it has served.
type routeServer struct {
	ln   net.Listener
	host string
	port int

	routeCalls int32

	fail    bool
	routers []string
	readers []string
	writers []string
	ttlSecs int64
}

func startRouteServer() (*routeServer, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	host, portStr, _ := net.SplitHostPort(ln.Addr().String())
	port, _ := strconv.Atoi(portStr)

	s := &routeServer{ln: ln, host: host, port: port, ttlSecs: 300}

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go s.serve(conn)
		}
	}()

	return s, nil
}

func (s *routeServer) serve(conn net.Conn) {
	defer conn.Close()

	var buf [20]byte
	if _, err := io.ReadFull(conn, buf[:]); err != nil {
		return
	}
	if _, err := conn.Write([]byte{0, 0, 4, 5}); err != nil {
		return
	}

	fr := framing.NewReader(conn, 0)
	fw := framing.NewWriter(conn)

	// HELLO
	if _, err := fr.ReadMessage(); err != nil {
		return
	}
	if err := sendSuccess(fw, map[string]any{"server": "Neo4j/5.20.0", "connection_id": "bolt-route-1"}); err != nil {
		return
	}

	for {
		msg, err := fr.ReadMessage()
		if err != nil {
			return
		}

		dec := packstream.NewDecoder(msg, nil)
		v, err := dec.Unpack()
		if err != nil {
			return
		}
		st, ok := v.(packstream.Structure)
		if !ok {
			return
		}

		switch st.Tag {
		case 0x66: // ROUTE
			atomic.AddInt32(&s.routeCalls, 1)
			if s.fail {
				if sendFailure(fw, "Neo.ClientError.Database.DatabaseNotFound", "no such database") != nil {
					return
				}
				continue
			}

			servers := []any{}
			if len(s.routers) > 0 {
				servers = append(servers, map[string]any{"addresses": toAny(s.routers), "role": "ROUTE"})
			}
			if len(s.readers) > 0 {
				servers = append(servers, map[string]any{"addresses": toAny(s.readers), "role": "READ"})
			}
			if len(s.writers) > 0 {
				servers = append(servers, map[string]any{"addresses": toAny(s.writers), "role": "WRITE"})
			}

			meta := map[string]any{
				"rt": map[string]any{
					"ttl":     s.ttlSecs,
					"servers": servers,
				},
			}
			if err := sendSuccess(fw, meta); err != nil {
				return
			}

		case 0x02: // GOODBYE
			return

		default:
			if sendSuccess(fw, map[string]any{}) != nil {
				return
			}
		}
	}
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func sendSuccess(fw *framing.Writer, meta map[string]any) error {
	enc := packstream.NewEncoder(5, 4, nil)
	if err := enc.Pack(packstream.Structure{Tag: 0x70, Fields: []any{meta}}); err != nil {
		return err
	}
	if err := fw.QueueMessage(enc.Bytes()); err != nil {
		return err
	}
	return fw.Flush()
}

func sendFailure(fw *framing.Writer, code, message string) error {
	enc := packstream.NewEncoder(5, 4, nil)
	if err := enc.Pack(packstream.Structure{Tag: 0x7F, Fields: []any{map[string]any{"code": code, "message": message}}}); err != nil {
		return err
	}
	if err := fw.QueueMessage(enc.Bytes()); err != nil {
		return err
	}
	return fw.Flush()
}

func (s *routeServer) RouteCalls() int {
	return int(atomic.LoadInt32(&s.routeCalls))
}

func (s *routeServer) Close() {
	_ = s.ln.Close()
}
