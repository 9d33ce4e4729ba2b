// SPDX-License-Identifier: MIT
//
// Copyright © 2018 Kent Gibson <warthog618@gmail.com>.
// Copyright © 2026 The Advanced-GPRS-Shield Authors.

// Package at provides a low level driver for AT modems such as the SIM900.
//
// Replies are collected by a poll driven Framer which detects the end of a
// reply by inter-character silence rather than by parsing status lines.
package at

import (
	"bytes"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Reference timeouts, in milliseconds.
const (
	TinyTimeout   uint32 = 20
	ShortTimeout  uint32 = 500
	LongTimeout   uint32 = 1000
	XLongTimeout  uint32 = 5000
	XXLongTimeout uint32 = 7000

	InterCharTimeout     uint32 = 20
	MidInterCharTimeout  uint32 = 100
	LongInterCharTimeout uint32 = 1500
)

// DefaultAttemptDelay is the pause between successive attempts of a command.
const DefaultAttemptDelay = 500 * time.Millisecond

const (
	sub = 0x1a
	esc = 0x1b
)

// AT represents a modem that can be managed using AT commands.
//
// Commands are issued using SendCmdWaitResp, or Exec which also arbitrates
// the Line. Only one exchange may be in progress at a time.
type AT struct {
	src   ByteSource
	clock Clock
	rx    *Framer
	line  Line
	log   *zap.Logger

	// the pause before each retry of a command
	attemptDelay time.Duration

	// the real time yielded between polls while waiting for a reply
	pollInterval time.Duration
}

// Option is a construction option for an AT.
type Option func(*AT)

// New creates a new AT modem on the ByteSource.
func New(src ByteSource, options ...Option) *AT {
	a := &AT{
		src:          src,
		attemptDelay: DefaultAttemptDelay,
		pollInterval: time.Millisecond,
	}
	for _, option := range options {
		option(a)
	}
	if a.clock == nil {
		a.clock = SystemClock()
	}
	if a.log == nil {
		a.log = zap.NewNop()
	}
	a.rx = NewFramer(src, a.clock)
	return a
}

// WithClock sets the time base used for timeouts and delays.
func WithClock(c Clock) Option {
	return func(a *AT) {
		a.clock = c
	}
}

// WithLogger sets the logger used to report command exchanges.
//
// By default nothing is logged.
func WithLogger(l *zap.Logger) Option {
	return func(a *AT) {
		a.log = l
	}
}

// WithAttemptDelay sets the delay between attempts of a command.
//
// The default delay is 500msec.
func WithAttemptDelay(d time.Duration) Option {
	return func(a *AT) {
		a.attemptDelay = d
	}
}

// WithPollInterval sets the time yielded between polls while waiting for a
// reply. Zero yields nothing.
//
// The default interval is 1msec.
func WithPollInterval(d time.Duration) Option {
	return func(a *AT) {
		a.pollInterval = d
	}
}

// Line returns the arbiter for the link to the modem.
func (a *AT) Line() *Line {
	return &a.line
}

// Rx returns the receive framer holding the most recent reply.
func (a *AT) Rx() *Framer {
	return a.rx
}

// Clock returns the time base of the modem.
func (a *AT) Clock() Clock {
	return a.clock
}

// Logger returns the logger of the modem.
func (a *AT) Logger() *zap.Logger {
	return a.log
}

// Outcome is the result of a command exchange.
type Outcome int

const (
	// NoResponse indicates the modem did not reply in time.
	NoResponse Outcome = -1
	// ResponseMismatch indicates the reply did not contain the expected text.
	ResponseMismatch Outcome = 0
	// ResponseMatched indicates the reply contained the expected text.
	ResponseMatched Outcome = 1
)

func (o Outcome) String() string {
	switch o {
	case NoResponse:
		return "no response"
	case ResponseMismatch:
		return "mismatch"
	case ResponseMatched:
		return "matched"
	}
	return "unknown"
}

// Reply is the result of SendCmdWaitResp.
type Reply struct {
	// Cmd is the command, without the AT prefix.
	Cmd string

	Outcome Outcome

	// Data is the reply from the final attempt.
	//
	// It aliases the receive buffer so is only valid until the next exchange.
	Data []byte

	err error
}

// Matched returns true if the reply contained the expected text.
func (r Reply) Matched() bool {
	return r.Outcome == ResponseMatched
}

// Text returns the reply as a string, up to any NUL.
func (r Reply) Text() string {
	return string(Text(r.Data))
}

// Err returns the error corresponding to the outcome, or nil if matched.
func (r Reply) Err() error {
	switch r.Outcome {
	case ResponseMatched:
		return nil
	case NoResponse:
		if r.err != nil {
			return errors.Wrapf(r.err, "AT%s", r.Cmd)
		}
		return errors.Wrapf(ErrNoResponse, "AT%s", r.Cmd)
	}
	if err := newError(r.Data); err != nil {
		return errors.Wrapf(err, "AT%s", r.Cmd)
	}
	return errors.Wrapf(ErrMismatch, "AT%s", r.Cmd)
}

// SendCmdWaitResp issues the command to the modem and waits for a reply
// containing the expected text.
//
// The command should NOT include the AT prefix, nor <CR><LF> suffix which is
// automatically added.
//
// Up to attempts exchanges are performed, stopping at the first match.
// Successive attempts are separated by the attempt delay. The outcome of the
// last attempt is returned.
//
// The caller is responsible for holding the Line.
func (a *AT) SendCmdWaitResp(cmd string, start, interchar uint32, expected string, attempts int) Reply {
	if attempts < 1 {
		attempts = 1
	}
	var r Reply
	for i := 1; i <= attempts; i++ {
		if i > 1 {
			a.clock.Sleep(a.attemptDelay)
		}
		r = a.attempt(cmd, start, interchar, expected)
		a.log.Debug("command",
			zap.String("cmd", cmd),
			zap.Int("attempt", i),
			zap.Stringer("outcome", r.Outcome),
			zap.ByteString("reply", r.Data))
		if r.Outcome == ResponseMatched {
			break
		}
	}
	return r
}

func (a *AT) attempt(cmd string, start, interchar uint32, expected string) Reply {
	r := Reply{Cmd: cmd, Outcome: NoResponse}
	cfg := RxConfig{
		StartTimeout:     start,
		InterCharTimeout: interchar,
		FlushBeforeRead:  true,
		StopWhenFull:     true,
	}
	if err := a.rx.Init(cfg); err != nil {
		r.err = errors.Wrap(err, "flush")
		return r
	}
	if err := a.writeCommand(cmd); err != nil {
		r.err = err
		return r
	}
	status := a.wait("")
	r.Data = a.rx.Bytes()
	if status != RxFinished {
		return r
	}
	if IndexBin(r.Data, expected) != -1 {
		r.Outcome = ResponseMatched
	} else {
		r.Outcome = ResponseMismatch
	}
	return r
}

// Exec acquires the Line, issues the command, and releases the Line.
//
// Returns ErrLineBusy, without touching the modem, if the Line is in use.
// Otherwise the Reply is returned along with its Err.
func (a *AT) Exec(cmd string, start, interchar uint32, expected string, attempts int) (Reply, error) {
	lease, err := a.line.Acquire(LineCommand)
	if err != nil {
		return Reply{Cmd: cmd, Outcome: NoResponse, err: err}, err
	}
	defer lease.Release()
	r := a.SendCmdWaitResp(cmd, start, interchar, expected, attempts)
	return r, r.Err()
}

// StartRx starts a receive session without issuing a command.
func (a *AT) StartRx(cfg RxConfig) error {
	return a.rx.Init(cfg)
}

// PollRx advances the current receive session.
func (a *AT) PollRx() RxStatus {
	return a.rx.Poll()
}

// WaitResp collects a reply, without flushing or issuing a command.
//
// Bytes arriving after the buffer fills are discarded until the modem goes
// quiet.
func (a *AT) WaitResp(start, interchar uint32) RxStatus {
	return a.WaitRespUntil(start, interchar, "")
}

// WaitRespUntil collects a reply as per WaitResp, but also finishes as soon
// as the terminator has been received.
func (a *AT) WaitRespUntil(start, interchar uint32, terminator string) RxStatus {
	a.rx.Init(RxConfig{StartTimeout: start, InterCharTimeout: interchar})
	return a.wait(terminator)
}

// WaitRespFor collects a reply as per WaitResp and reports whether it
// contains the expected text.
func (a *AT) WaitRespFor(start, interchar uint32, expected string) Outcome {
	if a.WaitResp(start, interchar) != RxFinished {
		return NoResponse
	}
	if a.rx.Contains(expected) {
		return ResponseMatched
	}
	return ResponseMismatch
}

// ReadData collects bytes arriving in data mode.
//
// The receiver is not flushed, and the session finishes once the buffer is
// full, leaving any further bytes for the next call.
func (a *AT) ReadData(start, interchar uint32) RxStatus {
	a.rx.Init(RxConfig{StartTimeout: start, InterCharTimeout: interchar, StopWhenFull: true})
	return a.wait("")
}

// wait polls the current session until it completes.
func (a *AT) wait(terminator string) RxStatus {
	for {
		status := a.rx.Poll()
		if status != RxNotFinished {
			return status
		}
		if terminator != "" && a.rx.Contains(terminator) {
			return RxFinished
		}
		if a.pollInterval > 0 {
			time.Sleep(a.pollInterval)
		}
	}
}

// Flush discards any unread bytes received from the modem.
func (a *AT) Flush() error {
	return a.src.Flush()
}

// Send flushes the receiver and writes a one line command to the modem.
//
// The reply is collected separately using WaitResp.
func (a *AT) Send(cmd string) error {
	if err := a.src.Flush(); err != nil {
		return errors.Wrap(err, "flush")
	}
	return a.writeCommand(cmd)
}

// SendSMSCommand flushes the receiver and writes the first line of a two line
// command, such as +CMGS, which the modem answers with a ">" prompt.
func (a *AT) SendSMSCommand(cmd string) error {
	if err := a.src.Flush(); err != nil {
		return errors.Wrap(err, "flush")
	}
	return a.write([]byte("AT" + cmd + "\r"))
}

// WriteSMS writes the second line of a two line command.
//
// The body is terminated with Ctrl-Z to submit it, or with ESC to abandon it
// if cancel is set.
func (a *AT) WriteSMS(body string, cancel bool) error {
	term := byte(sub)
	if cancel {
		term = esc
	}
	return a.write(append([]byte(body), term))
}

// Write writes raw bytes to the modem.
func (a *AT) Write(p []byte) error {
	return a.write(p)
}

// writeCommand writes a one line command to the modem.
func (a *AT) writeCommand(cmd string) error {
	return a.write([]byte("AT" + cmd + "\r\n"))
}

func (a *AT) write(p []byte) error {
	n, err := a.src.Write(p)
	if err != nil {
		return errors.Wrap(err, "write")
	}
	if n != len(p) {
		return errors.Wrapf(ErrShortWrite, "wrote %d of %d", n, len(p))
	}
	return nil
}

// CMEError indicates a CME Error was returned by the modem.
//
// The value is the error value, in string form, which may be the numeric or
// textual, depending on the modem configuration.
type CMEError string

// CMSError indicates a CMS Error was returned by the modem.
//
// The value is the error value, in string form, which may be the numeric or
// textual, depending on the modem configuration.
type CMSError string

// ConnectError indicates an attempt to connect failed.
//
// The value of the error is the failure indication returned by the modem.
type ConnectError string

func (e CMEError) Error() string {
	return string("CME Error: " + e)
}

func (e CMSError) Error() string {
	return string("CMS Error: " + e)
}

func (e ConnectError) Error() string {
	return string("Connect: " + e)
}

var (
	// ErrLineBusy indicates the line is in use by another command or by a
	// data session.
	ErrLineBusy = errors.New("line busy")

	// ErrNoResponse indicates the modem did not reply within the start
	// timeout.
	ErrNoResponse = errors.New("no response")

	// ErrMismatch indicates the modem replied but without the expected text.
	ErrMismatch = errors.New("unexpected response")

	// ErrError indicates the modem returned a generic AT ERROR in response to
	// an operation.
	ErrError = errors.New("ERROR")

	// ErrShortWrite indicates the modem did not accept all of a write.
	ErrShortWrite = errors.New("short write")
)

// newError parses a reply and creates an error corresponding to any error
// status it contains.
func newError(data []byte) error {
	data = Text(data)
	if i := IndexBin(data, "+CMS ERROR:"); i != -1 {
		return CMSError(errorValue(data[i+11:]))
	}
	if i := IndexBin(data, "+CME ERROR:"); i != -1 {
		return CMEError(errorValue(data[i+11:]))
	}
	if IndexBin(data, "ERROR") != -1 {
		return ErrError
	}
	return nil
}

func errorValue(data []byte) string {
	if i := bytes.IndexAny(data, "\r\n"); i != -1 {
		data = data[:i]
	}
	return string(bytes.TrimSpace(data))
}
