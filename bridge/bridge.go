// SPDX-License-Identifier: MIT
//
// Copyright © 2026 The Advanced-GPRS-Shield Authors.

// Package bridge provides a connection to a shield exposed over a websocket
// serial bridge, such as a networked serial server.
package bridge

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

// ErrClosed indicates the connection has failed or been closed.
var ErrClosed = errors.New("websocket connection closed")

// Conn is an io.ReadWriteCloser over a websocket.
//
// Each write is sent as a binary message. Reads return the payload of
// binary messages, with other message types discarded.
type Conn struct {
	conn   *websocket.Conn
	buf    []byte
	closed bool
}

// Options for Dial.
type options struct {
	user             string
	password         string
	insecure         bool
	handshakeTimeout time.Duration
}

// Option modifies the behaviour of Dial.
type Option func(*options)

// WithBasicAuth sets the credentials presented to the bridge.
func WithBasicAuth(user, password string) Option {
	return func(o *options) {
		o.user = user
		o.password = password
	}
}

// WithInsecure disables verification of the bridge TLS certificate.
func WithInsecure() Option {
	return func(o *options) {
		o.insecure = true
	}
}

// WithHandshakeTimeout sets the time allowed for the websocket handshake.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(o *options) {
		o.handshakeTimeout = d
	}
}

// Dial connects to the bridge at the ws:// or wss:// URL.
func Dial(ctx context.Context, rawurl string, opts ...Option) (*Conn, error) {
	o := options{handshakeTimeout: 10 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}
	u, err := url.Parse(rawurl)
	if err != nil {
		return nil, errors.Wrap(err, "invalid URL")
	}
	dialer := websocket.Dialer{HandshakeTimeout: o.handshakeTimeout}
	switch u.Scheme {
	case "ws":
	case "wss":
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: o.insecure}
	default:
		return nil, errors.Errorf("unsupported URL scheme: %s", u.Scheme)
	}
	headers := http.Header{}
	if o.user != "" && o.password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(o.user + ":" + o.password))
		headers.Set("Authorization", "Basic "+credentials)
	}
	conn, resp, err := dialer.DialContext(ctx, rawurl, headers)
	if err != nil {
		if resp != nil {
			return nil, errors.Wrapf(err, "websocket handshake failed (HTTP %d)", resp.StatusCode)
		}
		return nil, errors.Wrap(err, "websocket dial failed")
	}
	return &Conn{conn: conn}, nil
}

func (c *Conn) Read(p []byte) (int, error) {
	if len(c.buf) > 0 {
		n := copy(p, c.buf)
		c.buf = c.buf[n:]
		return n, nil
	}
	if c.closed {
		return 0, ErrClosed
	}
	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			c.closed = true
			return 0, errors.Wrap(ErrClosed, err.Error())
		}
		if mt != websocket.BinaryMessage {
			continue
		}
		n := copy(p, data)
		c.buf = data[n:]
		return n, nil
	}
}

func (c *Conn) Write(p []byte) (int, error) {
	if err := c.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close closes the websocket.
func (c *Conn) Close() error {
	return c.conn.Close()
}
