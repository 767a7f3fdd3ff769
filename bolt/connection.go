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

import (
	"context"
	"crypto/tls"
	"net"
	"strconv"
	"time"

	"github.com/google/uuid"

	libatm "github.com/nabbar/bolt-driver/atomic"
	"github.com/nabbar/bolt-driver/certificates"
	"github.com/nabbar/bolt-driver/framing"
	"github.com/nabbar/bolt-driver/logging"
	"github.com/nabbar/bolt-driver/packstream"
)

// ResponseHandler is the per-request callback bundle popped/peeked from
// Connection.responses in issue order. Callers outside this package
// (session, transaction) build one of these per RUN/PULL/BEGIN/COMMIT/
// ROLLBACK request and hand it to Enqueue.
type ResponseHandler struct {
	OnSuccess func(metadata map[string]any) error
	OnRecord  func(fields []any) error
	OnFailure func(se *ServerError) error
	OnIgnored func() error
	// IsCommit marks a request as a COMMIT so a read failure while it is
	// outstanding is reported as an incomplete commit rather than a
	// generic connection error.
	IsCommit bool
}

type responseHandler = ResponseHandler

// Options configures Dial.
type Options struct {
	ConnectTimeout time.Duration
	KeepAlive      time.Duration
	TLS            certificates.TLSConfig
	TrustAny       bool
	Auth           AuthToken
	UserAgent      string
	RoutingContext map[string]string
	Hooks          *packstream.Hooks
	Logger         logging.Logger
}

// Connection is a single, non-pipelined-beyond-its-own-queue Bolt wire
// connection.
type Connection struct {
	id      string
	conn    net.Conn
	host    string
	created time.Time

	version ProtocolVersion
	hooks   *packstream.Hooks

	reader *framing.Reader
	writer *framing.Writer

	state   libatm.Value[ConnState]
	defunct libatm.Value[bool]
	stale   libatm.Value[bool]

	info    ServerInfo
	log     logging.Logger

	responses []responseHandler
}

// Dial opens a TCP (optionally TLS) connection to host:port, performs
// the handshake and HELLO/LOGON exchange, and returns a ready Connection
// in StateReady.
func Dial(ctx context.Context, host string, port int, opt Options) (*Connection, error) {
	if opt.Logger == nil {
		opt.Logger = logging.Discard()
	}
	if err := opt.Auth.Validate(); err != nil {
		return nil, err
	}

	d := net.Dialer{Timeout: opt.ConnectTimeout, KeepAlive: opt.KeepAlive}
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	raw, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, ErrorDial.Error(err)
	}

	rw := net.Conn(raw)

	if opt.TLS != nil {
		tc := opt.TLS.TLS(host)
		if opt.TrustAny {
			tc.InsecureSkipVerify = true
		}

		tconn := tls.Client(raw, tc)
		if err := tconn.HandshakeContext(ctx); err != nil {
			_ = raw.Close()
			return nil, ErrorTLSHandshake.Error(err)
		}

		if len(tconn.ConnectionState().PeerCertificates) == 0 {
			_ = tconn.Close()
			return nil, ErrorNoCertificate.Error()
		}

		rw = tconn
	}

	version, err := handshake(rw, DefaultProposals)
	if err != nil {
		_ = rw.Close()
		return nil, err
	}

	hooks := opt.Hooks
	if hooks == nil {
		hooks = packstream.NewHooks()
	}

	verStr := strconv.Itoa(int(version.Major)) + "." + strconv.Itoa(int(version.Minor))

	c := &Connection{
		id:      uuid.NewString(),
		conn:    rw,
		host:    host,
		created: time.Now(),
		version: version,
		hooks:   hooks,
		reader:  framing.NewReader(rw, 0),
		writer:  framing.NewWriter(rw),
	}
	c.state.Store(StateConnected)
	c.log = logging.WithConnection(opt.Logger, c.id, host, verStr)

	if err := c.helloAndLogon(opt); err != nil {
		_ = rw.Close()
		return nil, err
	}

	return c, nil
}

func (c *Connection) helloAndLogon(opt Options) error {
	extra := map[string]any{"user_agent": opt.UserAgent}
	if len(opt.RoutingContext) > 0 {
		rc := make(map[string]any, len(opt.RoutingContext))
		for k, v := range opt.RoutingContext {
			rc[k] = v
		}
		extra["routing"] = rc
	}

	splitLogon := SupportsLogon(c.version)
	if !splitLogon {
		for k, v := range opt.Auth.toMap() {
			extra[k] = v
		}
	}

	if err := c.Send(SigHello, extra); err != nil {
		return err
	}
	c.state.Store(StateAuthenticating)

	var helloErr error
	if err := c.sendAndFlush(func(metadata map[string]any) error {
		c.applyServerInfo(metadata)
		return nil
	}, func(se *ServerError) error {
		helloErr = se
		return nil
	}); err != nil {
		return err
	}
	if helloErr != nil {
		return helloErr
	}

	if splitLogon {
		if err := c.Send(SigLogon, opt.Auth.toMap()); err != nil {
			return err
		}

		var logonErr error
		if err := c.sendAndFlush(func(map[string]any) error {
			return nil
		}, func(se *ServerError) error {
			logonErr = se
			return nil
		}); err != nil {
			return err
		}
		if logonErr != nil {
			return logonErr
		}
	}

	c.state.Store(StateReady)
	return nil
}

func (c *Connection) applyServerInfo(metadata map[string]any) {
	c.info.ProtocolMajor = c.version.Major
	c.info.ProtocolMinor = c.version.Minor
	if v, ok := metadata["server"].(string); ok {
		c.info.Agent = v
	}
	if v, ok := metadata["connection_id"].(string); ok {
		c.info.ConnectionID = v
	}
	c.info.Hints = metadata
}

// sendAndFlush is a convenience for the single-request HELLO/LOGON
// exchange: queue nothing further, flush, and read exactly one reply.
func (c *Connection) sendAndFlush(onSuccess func(map[string]any) error, onFailure func(*ServerError) error) error {
	c.responses = append(c.responses, responseHandler{OnSuccess: onSuccess, OnFailure: onFailure})
	if err := c.writer.Flush(); err != nil {
		c.markDefunct()
		return err
	}
	return c.receiveOne()
}

// Send encodes sig+fields as a Structure and queues it for the next
// Flush; it does not itself read a response (pipelining).
func (c *Connection) Send(sig byte, fields ...any) error {
	enc := packstream.NewEncoder(c.version.Major, c.version.Minor, c.hooks)
	if err := enc.Pack(packstream.Structure{Tag: sig, Fields: fields}); err != nil {
		return err
	}
	if err := c.writer.QueueMessage(enc.Bytes()); err != nil {
		return err
	}
	return nil
}

// Flush pushes every queued message onto the wire in one write.
func (c *Connection) Flush() error {
	if err := c.writer.Flush(); err != nil {
		c.markDefunct()
		return err
	}
	return nil
}

// Enqueue registers the response handler for the next not-yet-answered
// request, in issue order.
func (c *Connection) Enqueue(h ResponseHandler) {
	c.responses = append(c.responses, h)
}

// EnqueueCommit registers onSuccess/onFailure as the handler for a
// COMMIT request specifically, so a connection loss while it is
// outstanding is classified as an incomplete commit.
func (c *Connection) EnqueueCommit(onSuccess func(map[string]any) error, onFailure func(*ServerError) error) {
	c.responses = append(c.responses, responseHandler{OnSuccess: onSuccess, OnFailure: onFailure, IsCommit: true})
}

// ReceiveAll drains responses until the handler queue is empty.
func (c *Connection) ReceiveAll() error {
	for len(c.responses) > 0 {
		if err := c.receiveOne(); err != nil {
			return err
		}
	}
	return nil
}

// receiveOne reads exactly one wire message and dispatches it to the
// head response handler.
func (c *Connection) receiveOne() error {
	raw, err := c.reader.ReadMessage()
	if err != nil {
		c.markDefunct()
		if len(c.responses) > 0 && c.responses[0].IsCommit {
			return ErrorIncompleteCommit.Error(err)
		}
		return err
	}

	dec := packstream.NewDecoder(raw, packstream.NewHooks())
	v, err := dec.Unpack()
	if err != nil {
		c.markDefunct()
		return err
	}

	s, ok := v.(packstream.Structure)
	if !ok {
		c.markDefunct()
		return ErrorUnexpectedResponse.Error()
	}

	if len(c.responses) == 0 {
		return ErrorInvalidState.Error()
	}
	head := c.responses[0]

	switch s.Tag {
	case SigRecord:
		var fields []any
		if len(s.Fields) > 0 {
			if l, ok := s.Fields[0].([]any); ok {
				fields = l
			}
		}
		if head.OnRecord != nil {
			return head.OnRecord(fields)
		}
		return nil
	case SigSuccess:
		c.responses = c.responses[1:]
		meta, _ := firstMap(s.Fields)
		if head.OnSuccess != nil {
			return head.OnSuccess(meta)
		}
		return nil
	case SigIgnored:
		c.responses = c.responses[1:]
		if head.OnIgnored != nil {
			return head.OnIgnored()
		}
		return nil
	case SigFailure:
		c.responses = c.responses[1:]
		meta, _ := firstMap(s.Fields)
		se := ClassifyServerError(stringField(meta, "code"), stringField(meta, "message"))
		c.state.Store(StateFailed)
		var result error
		if head.OnFailure != nil {
			result = head.OnFailure(se)
		}
		// auto-enqueue RESET unless a handler already moved the state on.
		if c.state.Load() == StateFailed {
			_ = c.Send(SigReset)
			_ = c.Flush()
			c.Enqueue(responseHandler{OnSuccess: func(map[string]any) error {
				c.state.Store(StateReady)
				return nil
			}})
		}
		if result != nil {
			return result
		}
		return se
	default:
		c.markDefunct()
		return ErrorUnexpectedResponse.Error()
	}
}

// State returns the connection's current state machine value.
func (c *Connection) State() ConnState {
	return c.state.Load()
}

// SetState forces the connection's state machine value. Session and
// Transaction drive the RUN/PULL/BEGIN/COMMIT/ROLLBACK transitions
// described in spec section 4.D from the outside, since they are the
// callers that know whether a RUN was issued inside an explicit
// transaction (TX_READY/TX_STREAMING) or auto-commit (READY/STREAMING).
func (c *Connection) SetState(s ConnState) {
	c.state.Store(s)
}

// ServerInfo returns the identity learned during HELLO/LOGON.
func (c *Connection) ServerInfo() ServerInfo {
	return c.info
}

// Version returns the negotiated protocol version.
func (c *Connection) Version() ProtocolVersion {
	return c.version
}

// ID returns the connection's correlation identifier.
func (c *Connection) ID() string {
	return c.id
}

// CreatedAt returns when the connection was dialed.
func (c *Connection) CreatedAt() time.Time {
	return c.created
}

// IsDefunct reports whether the socket is unusable and must never be
// returned to the pool.
func (c *Connection) IsDefunct() bool {
	return c.defunct.Load() || c.state.Load() == StateDefunct
}

// IsStale reports whether the pool marked this connection for
// replacement, independent of lifetime.
func (c *Connection) IsStale() bool {
	return c.stale.Load()
}

// MarkStale flags the connection so the pool replaces it on next
// release/acquire.
func (c *Connection) MarkStale() {
	c.stale.Store(true)
}

// IsLifetimeExceeded reports whether max_connection_lifetime has
// elapsed since the connection was dialed; a negative maxLifetime
// means infinite.
func (c *Connection) IsLifetimeExceeded(maxLifetime time.Duration) bool {
	if maxLifetime < 0 {
		return false
	}
	return time.Since(c.created) > maxLifetime
}

func (c *Connection) markDefunct() {
	c.defunct.Store(true)
	c.state.Store(StateDefunct)
}

// Close sends GOODBYE best-effort then shuts the socket down; idempotent.
func (c *Connection) Close() error {
	if c.IsDefunct() {
		return c.Kill()
	}
	_ = c.Send(SigGoodbye)
	_ = c.Flush()
	return c.Kill()
}

// Kill discards the socket without GOODBYE; idempotent.
func (c *Connection) Kill() error {
	c.markDefunct()
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func firstMap(fields []any) (map[string]any, bool) {
	if len(fields) == 0 {
		return nil, false
	}
	m, ok := fields[0].(map[string]any)
	return m, ok
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	v, _ := m[key].(string)
	return v
}
