// SPDX-License-Identifier: MIT
//
// Copyright © 2018 Kent Gibson <warthog618@gmail.com>.
// Copyright © 2026 The Advanced-GPRS-Shield Authors.

//  Test suite for AT module.
//
//  Note that these tests use a scripted modem which does not attempt to
//  emulate a serial modem, but which provides responses required to exercise
//  at.go. So, while the commands may follow the structure of the AT protocol
//  the replies are just patterns that elicit the behaviour required for the
//  test.

package at_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sigalabs/Advanced-GPRS-Shield/at"
	"github.com/sigalabs/Advanced-GPRS-Shield/internal/modemtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	patterns := []struct {
		name    string
		options []at.Option
	}{
		{
			"default",
			nil,
		},
		{
			"attemptDelay",
			[]at.Option{at.WithAttemptDelay(100 * time.Millisecond)},
		},
		{
			"logger",
			[]at.Option{at.WithLogger(zap.NewNop())},
		},
		{
			"clock",
			[]at.Option{at.WithClock(modemtest.NewClock(0))},
		},
	}
	for _, p := range patterns {
		f := func(t *testing.T) {
			clock := modemtest.NewClock(0)
			m := modemtest.NewModem(clock, nil)
			a := at.New(m, p.options...)
			require.NotNil(t, a)
			assert.NotNil(t, a.Clock())
			assert.NotNil(t, a.Logger())
			assert.NotNil(t, a.Rx())
			assert.Equal(t, at.LineFree, a.Line().Status())
		}
		t.Run(p.name, f)
	}
}

func TestSendCmdWaitResp(t *testing.T) {
	cmdSet := map[string][]string{
		"AT+CSQ\r\n":   {"\r\n+CSQ: 20,0\r\n", "\r\nOK\r\n"},
		"AT\r\n":       {},
		"AT+CMGD=\r\n": {"\r\n+CMS ERROR: 321\r\n"},
		"AT+CPBR=\r\n": {"\r\n+CME ERROR: 21\r\n"},
	}
	patterns := []struct {
		name     string
		queue    map[string][]string
		cmd      string
		expected string
		attempts int
		outcome  at.Outcome
		writes   int
		sleeps   []time.Duration
		err      error
	}{
		{
			"matched",
			nil,
			"+CSQ",
			"+CSQ",
			3,
			at.ResponseMatched,
			1,
			nil,
			nil,
		},
		{
			"single silent",
			nil,
			"",
			"OK",
			1,
			at.NoResponse,
			1,
			nil,
			at.ErrNoResponse,
		},
		{
			"zero attempts",
			nil,
			"",
			"OK",
			0,
			at.NoResponse,
			1,
			nil,
			at.ErrNoResponse,
		},
		{
			"three silent",
			nil,
			"",
			"OK",
			3,
			at.NoResponse,
			3,
			[]time.Duration{500 * time.Millisecond, 500 * time.Millisecond},
			at.ErrNoResponse,
		},
		{
			"mismatch",
			nil,
			"+CSQ",
			"+CREG",
			2,
			at.ResponseMismatch,
			2,
			[]time.Duration{500 * time.Millisecond},
			at.ErrMismatch,
		},
		{
			"error",
			nil,
			"E0",
			"OK",
			1,
			at.ResponseMismatch,
			1,
			nil,
			at.ErrError,
		},
		{
			"cme error",
			nil,
			"+CPBR=",
			"+CPBR",
			1,
			at.ResponseMismatch,
			1,
			nil,
			at.CMEError("21"),
		},
		{
			"cms error",
			nil,
			"+CMGD=",
			"OK",
			1,
			at.ResponseMismatch,
			1,
			nil,
			at.CMSError("321"),
		},
		{
			"retry until matched",
			map[string][]string{"AT+CSQ\r\n": {"\r\nERROR\r\n"}},
			"+CSQ",
			"+CSQ",
			5,
			at.ResponseMatched,
			2,
			[]time.Duration{500 * time.Millisecond},
			nil,
		},
		{
			"last outcome no response",
			map[string][]string{"AT+CSQ\r\n": {"\r\nERROR\r\n"}, "AT\r\n": {"\r\nERROR\r\n"}},
			"",
			"OK",
			2,
			at.NoResponse,
			2,
			[]time.Duration{500 * time.Millisecond},
			at.ErrNoResponse,
		},
	}
	for _, p := range patterns {
		f := func(t *testing.T) {
			clock := modemtest.NewClock(0)
			m := modemtest.NewModem(clock, cmdSet)
			for k, v := range p.queue {
				m.Queue(k, v...)
			}
			a := at.New(m, at.WithClock(clock), at.WithPollInterval(0))
			r := a.SendCmdWaitResp(p.cmd, at.LongTimeout, at.InterCharTimeout, p.expected, p.attempts)
			assert.Equal(t, p.outcome, r.Outcome)
			assert.Equal(t, p.cmd, r.Cmd)
			assert.Equal(t, p.outcome == at.ResponseMatched, r.Matched())
			assert.Equal(t, p.writes, len(m.Writes()))
			for _, w := range m.Writes() {
				assert.Equal(t, "AT"+p.cmd+"\r\n", w)
			}
			assert.Equal(t, p.sleeps, clock.Sleeps())
			err := r.Err()
			if p.err == nil {
				assert.Nil(t, err)
			} else {
				require.NotNil(t, err)
				assert.True(t, errors.Is(err, p.err), err.Error())
			}
		}
		t.Run(p.name, f)
	}
}

func TestSendCmdWaitRespLastOutcomeMismatch(t *testing.T) {
	clock := modemtest.NewClock(0)
	m := modemtest.NewModem(clock, map[string][]string{"AT\r\n": {"\r\nERROR\r\n"}})
	m.Queue("AT\r\n")
	a := at.New(m, at.WithClock(clock), at.WithPollInterval(0))
	r := a.SendCmdWaitResp("", at.ShortTimeout, at.InterCharTimeout, "OK", 2)
	assert.Equal(t, at.ResponseMismatch, r.Outcome)
	assert.Equal(t, "\r\nERROR\r\n", r.Text())
}

func TestSendCmdWaitRespRetryAfterErrors(t *testing.T) {
	clock := modemtest.NewClock(0)
	m := modemtest.NewModem(clock, map[string][]string{"AT+CREG?\r\n": {"\r\n+CREG: 0,1\r\n\r\nOK\r\n"}})
	m.Queue("AT+CREG?\r\n", "\r\nERROR\r\n")
	m.Queue("AT+CREG?\r\n", "\r\nERROR\r\n")
	a := at.New(m, at.WithClock(clock), at.WithPollInterval(0))
	r := a.SendCmdWaitResp("+CREG?", at.XLongTimeout, at.InterCharTimeout, "+CREG", 3)
	assert.Equal(t, at.ResponseMatched, r.Outcome)
	assert.Nil(t, r.Err())
	assert.Equal(t, 3, len(m.Writes()))
	assert.Equal(t, []time.Duration{500 * time.Millisecond, 500 * time.Millisecond}, clock.Sleeps())
}

func TestSendCmdWaitRespStale(t *testing.T) {
	// a late reply to a previous command is flushed before the next
	clock := modemtest.NewClock(0)
	m := modemtest.NewModem(clock, map[string][]string{"AT+CSQ\r\n": {"\r\n+CSQ: 20,0\r\n\r\nOK\r\n"}})
	m.Inject(0, "\r\nRING\r\n")
	clock.Advance(10)
	a := at.New(m, at.WithClock(clock), at.WithPollInterval(0))
	r := a.SendCmdWaitResp("+CSQ", at.LongTimeout, at.InterCharTimeout, "+CSQ", 1)
	assert.True(t, r.Matched())
	assert.Equal(t, "\r\n+CSQ: 20,0\r\n\r\nOK\r\n", r.Text())
}

func TestWithAttemptDelay(t *testing.T) {
	clock := modemtest.NewClock(0)
	m := modemtest.NewModem(clock, map[string][]string{"AT\r\n": {}})
	a := at.New(m,
		at.WithClock(clock),
		at.WithPollInterval(0),
		at.WithAttemptDelay(100*time.Millisecond))
	r := a.SendCmdWaitResp("", at.TinyTimeout, at.InterCharTimeout, "OK", 3)
	assert.Equal(t, at.NoResponse, r.Outcome)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 100 * time.Millisecond}, clock.Sleeps())
}

func TestWithLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	clock := modemtest.NewClock(0)
	m := modemtest.NewModem(clock, map[string][]string{"AT\r\n": {"\r\nOK\r\n"}})
	a := at.New(m, at.WithClock(clock), at.WithPollInterval(0), at.WithLogger(zap.New(core)))
	r := a.SendCmdWaitResp("", at.ShortTimeout, at.InterCharTimeout, "OK", 1)
	assert.True(t, r.Matched())
	entries := logs.FilterMessage("command").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "", fields["cmd"])
	assert.Equal(t, int64(1), fields["attempt"])
	assert.Equal(t, "matched", fields["outcome"])
}

func TestExec(t *testing.T) {
	clock := modemtest.NewClock(0)
	m := modemtest.NewModem(clock, map[string][]string{"AT+CREG?\r\n": {"\r\n+CREG: 0,1\r\n\r\nOK\r\n"}})
	a := at.New(m, at.WithClock(clock), at.WithPollInterval(0))
	r, err := a.Exec("+CREG?", at.XLongTimeout, at.InterCharTimeout, "OK", 1)
	assert.Nil(t, err)
	assert.True(t, r.Matched())
	assert.Equal(t, at.LineFree, a.Line().Status())

	r, err = a.Exec("+CREG?", at.XLongTimeout, at.InterCharTimeout, "+CREG: 0,5", 1)
	assert.True(t, errors.Is(err, at.ErrMismatch))
	assert.Equal(t, at.ResponseMismatch, r.Outcome)
	assert.Equal(t, at.LineFree, a.Line().Status())
}

func TestExecLineBusy(t *testing.T) {
	patterns := []at.LineStatus{at.LineCommand, at.LineData}
	for _, p := range patterns {
		f := func(t *testing.T) {
			ctrl := gomock.NewController(t)
			// no expectations - the modem must not be touched
			src := at.NewMockByteSource(ctrl)
			clock := modemtest.NewClock(0)
			a := at.New(src, at.WithClock(clock))
			require.True(t, a.Line().TryAcquire(p))
			r, err := a.Exec("+CSQ", at.LongTimeout, at.InterCharTimeout, "+CSQ", 3)
			assert.True(t, errors.Is(err, at.ErrLineBusy))
			assert.Equal(t, at.NoResponse, r.Outcome)
			assert.Equal(t, p, a.Line().Status())
			assert.Empty(t, clock.Sleeps())
		}
		t.Run(p.String(), f)
	}
}

func TestSendCmdWaitRespWriteError(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := at.NewMockByteSource(ctrl)
	werr := errors.New("broken pipe")
	src.EXPECT().Flush().Return(nil).Times(2)
	src.EXPECT().Write([]byte("AT+CSQ\r\n")).Return(0, werr).Times(2)
	clock := modemtest.NewClock(0)
	a := at.New(src, at.WithClock(clock), at.WithPollInterval(0))
	r := a.SendCmdWaitResp("+CSQ", at.LongTimeout, at.InterCharTimeout, "+CSQ", 2)
	assert.Equal(t, at.NoResponse, r.Outcome)
	assert.Empty(t, r.Data)
	err := r.Err()
	require.NotNil(t, err)
	assert.True(t, errors.Is(err, werr))
	assert.Equal(t, []time.Duration{500 * time.Millisecond}, clock.Sleeps())
}

func TestSendCmdWaitRespFlushError(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := at.NewMockByteSource(ctrl)
	ferr := errors.New("flush failed")
	src.EXPECT().Flush().Return(ferr)
	clock := modemtest.NewClock(0)
	a := at.New(src, at.WithClock(clock), at.WithPollInterval(0))
	r := a.SendCmdWaitResp("+CSQ", at.LongTimeout, at.InterCharTimeout, "+CSQ", 1)
	assert.Equal(t, at.NoResponse, r.Outcome)
	assert.True(t, errors.Is(r.Err(), ferr))
}

func TestShortWrite(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := at.NewMockByteSource(ctrl)
	src.EXPECT().Write([]byte("+++")).Return(2, nil)
	a := at.New(src, at.WithClock(modemtest.NewClock(0)))
	err := a.Write([]byte("+++"))
	assert.True(t, errors.Is(err, at.ErrShortWrite))
}

func TestWaitResp(t *testing.T) {
	clock := modemtest.NewClock(0)
	m := modemtest.NewModem(clock, nil)
	a := at.New(m, at.WithClock(clock), at.WithPollInterval(0))

	assert.Equal(t, at.RxTimeout, a.WaitResp(at.TinyTimeout, at.InterCharTimeout))

	m.Inject(0, "\r\nOK\r\n")
	assert.Equal(t, at.RxFinished, a.WaitResp(at.TinyTimeout, at.InterCharTimeout))
	assert.Equal(t, "\r\nOK\r\n", a.Rx().Text())

	m.Inject(0, "\r\n>")
	assert.Equal(t, at.ResponseMatched, a.WaitRespFor(at.LongTimeout, at.InterCharTimeout, ">"))
	m.Inject(0, "\r\nERROR\r\n")
	assert.Equal(t, at.ResponseMismatch, a.WaitRespFor(at.LongTimeout, at.InterCharTimeout, ">"))
	assert.Equal(t, at.NoResponse, a.WaitRespFor(at.LongTimeout, at.InterCharTimeout, ">"))
}

func TestReadData(t *testing.T) {
	clock := modemtest.NewClock(0)
	m := modemtest.NewModem(clock, nil)
	a := at.New(m, at.WithClock(clock), at.WithPollInterval(0))
	m.Inject(0, strings.Repeat("x", at.BufferSize+50))
	assert.Equal(t, at.RxFinished, a.ReadData(at.LongTimeout, at.MidInterCharTimeout))
	assert.Equal(t, at.BufferSize, a.Rx().Len())
	assert.Equal(t, 50, m.Pending())
	assert.Equal(t, at.RxFinished, a.ReadData(at.LongTimeout, at.MidInterCharTimeout))
	assert.Equal(t, 50, a.Rx().Len())
	assert.Equal(t, at.RxTimeout, a.ReadData(at.TinyTimeout, at.MidInterCharTimeout))
	assert.Equal(t, 0, a.Rx().Len())
}

func TestWaitRespUntil(t *testing.T) {
	clock := modemtest.NewClock(0)
	m := modemtest.NewModem(clock, nil)
	a := at.New(m, at.WithClock(clock), at.WithPollInterval(0))
	m.Inject(0, "\r\n+CLCC: 1,1,4,0,0,\"+123\",145\r\n")
	m.Inject(10, "\r\nOK\r\n")
	m.Inject(500, "\r\nRING\r\n")
	s := a.WaitRespUntil(at.XLongTimeout, at.LongInterCharTimeout, "OK\r\n")
	assert.Equal(t, at.RxFinished, s)
	assert.Equal(t, "\r\n+CLCC: 1,1,4,0,0,\"+123\",145\r\n\r\nOK\r\n", a.Rx().Text())
	assert.True(t, clock.Now() < 500)
}

func TestSend(t *testing.T) {
	clock := modemtest.NewClock(0)
	m := modemtest.NewModem(clock, map[string][]string{})
	a := at.New(m, at.WithClock(clock), at.WithPollInterval(0))
	require.Nil(t, a.Send("+CMGL=\"ALL\""))
	require.Nil(t, a.SendSMSCommand("+CMGS=\"+1234\""))
	require.Nil(t, a.WriteSMS("hello", false))
	require.Nil(t, a.WriteSMS("hello", true))
	require.Nil(t, a.Write([]byte("+++")))
	assert.Equal(t, []string{
		"AT+CMGL=\"ALL\"\r\n",
		"AT+CMGS=\"+1234\"\r",
		"hello\x1a",
		"hello\x1b",
		"+++",
	}, m.Writes())
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "no response", at.NoResponse.String())
	assert.Equal(t, "mismatch", at.ResponseMismatch.String())
	assert.Equal(t, "matched", at.ResponseMatched.String())
	assert.Equal(t, "unknown", at.Outcome(2).String())
}

func TestCMEError(t *testing.T) {
	err := at.CMEError("1")
	assert.Equal(t, "CME Error: 1", err.Error())
	err = at.CMEError("204")
	assert.Equal(t, "CME Error: 204", err.Error())
}

func TestCMSError(t *testing.T) {
	err := at.CMSError("1")
	assert.Equal(t, "CMS Error: 1", err.Error())
	err = at.CMSError("204")
	assert.Equal(t, "CMS Error: 204", err.Error())
}

func TestConnectError(t *testing.T) {
	err := at.ConnectError("1")
	assert.Equal(t, "Connect: 1", err.Error())
	err = at.ConnectError("204")
	assert.Equal(t, "Connect: 204", err.Error())
}
