// SPDX-License-Identifier: MIT
//
// Copyright © 2026 The Advanced-GPRS-Shield Authors.

// Package gprs provides GPRS context and transparent socket support for
// SIM900 class modems.
//
// While a socket is open the line is held in data mode and all bytes
// written to the modem are forwarded to the remote host.
package gprs

import (
	"bytes"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sigalabs/Advanced-GPRS-Shield/at"
	"go.uber.org/zap"
)

var (
	// ErrNoSocket indicates the line is not in data mode.
	ErrNoSocket = errors.New("no socket open")

	// ErrRemoteClosed indicates the remote host closed the socket.
	ErrRemoteClosed = errors.New("socket closed by remote")

	// ErrNotClosed indicates the socket could not be closed.
	ErrNotClosed = errors.New("socket not closed")
)

// carrierLost is reported by the modem when the socket is closed from the
// remote side.
const carrierLost = "\r\nNO CARRIER\r\n"

// Protocol is the transport protocol of a socket.
type Protocol int

const (
	TCP Protocol = iota
	UDP
)

func (p Protocol) String() string {
	switch p {
	case TCP:
		return "TCP"
	case UDP:
		return "UDP"
	}
	return "unknown"
}

// EnableMode determines how Enable treats an existing context.
type EnableMode int

const (
	// CheckAndOpen leaves an already active context untouched.
	CheckAndOpen EnableMode = iota

	// CloseAndReopen shuts any existing context before activating a new one.
	//
	// This can be required to recover after the modem has been reset.
	CloseAndReopen
)

// GPRS provides the GPRS functionality of the modem.
type GPRS struct {
	a   *at.AT
	ip  string
	log *zap.SugaredLogger
}

// New creates a GPRS on the AT modem.
func New(a *at.AT) *GPRS {
	return &GPRS{a: a, log: a.Logger().Sugar()}
}

// IP returns the local address reported when the context was last
// activated.
func (g *GPRS) IP() string {
	return g.ip
}

// Init configures the modem for a single transparent connection through the
// access point.
func (g *GPRS) Init(apn, user, password string) error {
	lease, err := g.a.Line().Acquire(at.LineCommand)
	if err != nil {
		return err
	}
	defer lease.Release()
	cmds := []struct {
		cmd       string
		start     uint32
		interchar uint32
		expected  string
		attempts  int
	}{
		{"+CIPSHUT", 2000, at.LongTimeout, "SHUT OK", 3},
		{"+CIPMUX=0", at.LongTimeout, at.LongTimeout, "OK", 3},
		{"+CIPMODE=1", at.LongTimeout, 2000, "OK", 3},
		{`+CSTT="` + apn + `","` + user + `","` + password + `"`, at.LongTimeout, 2000, "OK", 5},
	}
	for _, c := range cmds {
		r := g.a.SendCmdWaitResp(c.cmd, c.start, c.interchar, c.expected, c.attempts)
		if err := r.Err(); err != nil {
			return err
		}
	}
	return nil
}

// Enable activates the GPRS context.
func (g *GPRS) Enable(mode EnableMode) error {
	lease, err := g.a.Line().Acquire(at.LineCommand)
	if err != nil {
		return err
	}
	defer lease.Release()
	switch mode {
	case CheckAndOpen:
		r := g.a.SendCmdWaitResp("+CIPSTATUS", at.LongTimeout, at.LongTimeout, "STATE: IP GPRSACT", 2)
		if r.Matched() {
			return nil
		}
	case CloseAndReopen:
		if err := g.shut(3); err != nil {
			return err
		}
	default:
		return errors.Errorf("unknown enable mode %d", mode)
	}
	if err := g.a.SendCmdWaitResp("+CSTT", at.LongTimeout, at.LongTimeout, "OK", 1).Err(); err != nil {
		return err
	}
	if err := g.a.SendCmdWaitResp("+CIICR", 10000, at.LongTimeout, "OK", 1).Err(); err != nil {
		return err
	}
	r := g.a.SendCmdWaitResp("+CIFSR", 2000, at.LongTimeout, "", 1)
	g.ip = ""
	if r.Matched() {
		g.ip = string(bytes.TrimSpace(at.Text(r.Data)))
	}
	g.log.Infow("context activated", "ip", g.ip)
	return nil
}

// Disable shuts the GPRS context.
func (g *GPRS) Disable() error {
	lease, err := g.a.Line().Acquire(at.LineCommand)
	if err != nil {
		return err
	}
	defer lease.Release()
	return g.shut(2)
}

func (g *GPRS) shut(attempts int) error {
	return g.a.SendCmdWaitResp("+CIPSHUT", 2000, at.LongTimeout, "SHUT OK", attempts).Err()
}

// OpenSocket connects to the remote host.
//
// The addr may be an IP address or a host name. On success the line is left
// in data mode until the socket is closed.
func (g *GPRS) OpenSocket(p Protocol, port uint16, addr string) error {
	if p != TCP && p != UDP {
		return errors.Errorf("unknown protocol %d", p)
	}
	lease, err := g.a.Line().Acquire(at.LineCommand)
	if err != nil {
		return err
	}
	defer lease.Release()
	cmd := `+CIPSTART="` + p.String() + `","` + addr + `","` + strconv.Itoa(int(port)) + `"`
	r := g.a.SendCmdWaitResp(cmd, 20000, 3000, "CONNECT\r\n", 3)
	if err := r.Err(); err != nil {
		return err
	}
	lease.Hold(at.LineData)
	g.log.Infow("socket opened", "protocol", p, "addr", addr, "port", port)
	return nil
}

// Send writes data to the open socket.
func (g *GPRS) Send(data []byte) error {
	if g.a.Line().Status() != at.LineData {
		return ErrNoSocket
	}
	return g.a.Write(data)
}

// Receive returns the data received from the socket, up to the size of the
// receive buffer.
//
// Returns ErrRemoteClosed, along with any data received, if the remote host
// closed the socket, in which case the line is freed.
func (g *GPRS) Receive(start, interchar uint32) ([]byte, error) {
	if g.a.Line().Status() != at.LineData {
		return nil, ErrNoSocket
	}
	g.a.ReadData(start, interchar)
	data := append([]byte(nil), g.a.Rx().Bytes()...)
	if i := at.IndexBin(data, carrierLost); i != -1 {
		g.a.Line().Switch(at.LineData, at.LineFree)
		g.log.Info("socket closed by remote")
		return data[:i], ErrRemoteClosed
	}
	return data, nil
}

// CloseSocket escapes from data mode and closes the socket.
//
// Closing a socket that is already closed is not an error.
func (g *GPRS) CloseSocket() error {
	line := g.a.Line()
	switch line.Status() {
	case at.LineFree:
		return nil
	case at.LineCommand:
		return at.ErrLineBusy
	}
	err := ErrNotClosed
	for i := 0; i < 3; i++ {
		// the escape must be preceded by a quiet period
		g.a.ReadData(1500, at.MidInterCharTimeout)
		if err := g.a.Write([]byte("+++")); err != nil {
			return err
		}
		if g.a.WaitRespFor(5000, at.LongTimeout, "OK") == at.ResponseMatched {
			line.Switch(at.LineData, at.LineCommand)
			r := g.a.SendCmdWaitResp("+CIPCLOSE", 5000, at.LongTimeout, "CLOSE OK", 2)
			line.Release()
			if err := r.Err(); err != nil {
				return err
			}
			g.log.Info("socket closed")
			return nil
		}
		// the socket may have already been closed
		r := g.a.SendCmdWaitResp("", at.LongTimeout, at.LongTimeout, "OK", 2)
		if r.Matched() {
			line.Switch(at.LineData, at.LineFree)
			return nil
		}
		err = errors.Wrap(ErrNotClosed, r.Err().Error())
	}
	return err
}
