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

// Package address parses and resolves the endpoints a Bolt connection
// dials: host:port / [ipv6]:port strings, an optional caller-supplied
// resolver stage, then DNS.
package address

import (
	"strconv"
	"strings"
)

// Address is an unresolved or resolved host/port pair. Host keeps the
// original hostname even after DNS resolution so TLS SNI can still use it.
type Address struct {
	Host string
	Port int
}

// String renders the address in the same "host:port" / "[host]:port"
// form it would have been parsed from.
func (a Address) String() string {
	if strings.Contains(a.Host, ":") {
		return "[" + a.Host + "]:" + strconv.Itoa(a.Port)
	}
	return a.Host + ":" + strconv.Itoa(a.Port)
}

// Parse reads a host:port or [ipv6]:port string, applying defaultHost
// and defaultPort when the respective part is absent or empty.
func Parse(s, defaultHost string, defaultPort int) (Address, error) {
	if s == "" {
		return Address{Host: defaultHost, Port: defaultPort}, nil
	}

	if strings.HasPrefix(s, "[") {
		end := strings.LastIndex(s, "]")
		if end < 0 {
			return Address{}, ErrorParse.Error()
		}

		host := s[1:end]
		port := defaultPort
		if rest := strings.TrimPrefix(s[end+1:], ":"); rest != "" {
			p, err := strconv.Atoi(rest)
			if err != nil {
				return Address{}, ErrorParse.Error(err)
			}
			port = p
		}
		if host == "" {
			host = defaultHost
		}
		return Address{Host: host, Port: port}, nil
	}

	host, portStr, found := strings.Cut(s, ":")
	port := defaultPort
	if found && portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			return Address{}, ErrorParse.Error(err)
		}
		port = p
	}
	if host == "" {
		host = defaultHost
	}
	return Address{Host: host, Port: port}, nil
}

// ParseList parses a whitespace-separated list of host:port strings.
func ParseList(s, defaultHost string, defaultPort int) ([]Address, error) {
	var out []Address
	for _, part := range strings.Fields(s) {
		a, err := Parse(part, defaultHost, defaultPort)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
