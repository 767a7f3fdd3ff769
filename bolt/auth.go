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

package bolt

import "github.com/go-playground/validator/v10"

// AuthToken carries the credentials sent in HELLO (Bolt < 5.1) or LOGON
// (Bolt ≥ 5.1, split out into its own message).
type AuthToken struct {
	Scheme      string `validate:"required"`
	Principal   string `validate:"required_unless=Scheme none"`
	Credentials string
	Realm       string
	Parameters  map[string]any
}

// BasicAuth builds the common username/password token.
func BasicAuth(username, password, realm string) AuthToken {
	return AuthToken{Scheme: "basic", Principal: username, Credentials: password, Realm: realm}
}

// Validate checks that scheme is set, and that principal is set unless
// scheme is "none" (the anonymous/no-auth token used against servers with
// auth disabled).
func (a AuthToken) Validate() error {
	if err := validator.New().Struct(a); err != nil {
		return ErrorInvalidAuthToken.Error(err)
	}
	return nil
}

func (a AuthToken) toMap() map[string]any {
	m := map[string]any{"scheme": a.Scheme}
	if a.Principal != "" {
		m["principal"] = a.Principal
	}
	if a.Credentials != "" {
		m["credentials"] = a.Credentials
	}
	if a.Realm != "" {
		m["realm"] = a.Realm
	}
	for k, v := range a.Parameters {
		m[k] = v
	}
	return m
}

// SupportsLogon reports whether v splits auth into a separate LOGON
// message (Bolt ≥ 5.1).
func SupportsLogon(v ProtocolVersion) bool {
	return v.Major > 5 || (v.Major == 5 && v.Minor >= 1)
}
