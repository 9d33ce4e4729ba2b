// SPDX-License-Identifier: MIT
//
// Copyright © 2018 Kent Gibson <warthog618@gmail.com>.
// Copyright © 2026 The Advanced-GPRS-Shield Authors.

// Package trace provides a decorator for a modem byte source that logs all
// reads and writes.
package trace

import (
	"github.com/sigalabs/Advanced-GPRS-Shield/at"
	"go.uber.org/zap"
)

// Trace is a trace log on an at.ByteSource.
//
// Writes are logged as they occur. Reads are collected and logged a line at
// a time, with any partial line logged when the source is flushed.
type Trace struct {
	src  at.ByteSource
	l    Logger
	wfmt string
	rfmt string
	line []byte
}

// Logger defines the interface used to log trace messages.
//
// It is satisfied by *zap.SugaredLogger.
type Logger interface {
	Infof(format string, args ...interface{})
}

// Option modifies a Trace object created by New.
type Option func(*Trace)

// New creates a new trace on the byte source.
func New(src at.ByteSource, options ...Option) *Trace {
	t := &Trace{
		src:  src,
		wfmt: "w: %q",
		rfmt: "r: %q",
	}
	for _, option := range options {
		option(t)
	}
	if t.l == nil {
		t.l = zap.S()
	}
	return t
}

// WithReadFormat sets the format used for read logs.
func WithReadFormat(format string) Option {
	return func(t *Trace) {
		t.rfmt = format
	}
}

// WithWriteFormat sets the format used for write logs.
func WithWriteFormat(format string) Option {
	return func(t *Trace) {
		t.wfmt = format
	}
}

// WithLogger specifies the logger to be used to log trace messages.
//
// By default traces are logged to the global zap logger.
func WithLogger(l Logger) Option {
	return func(t *Trace) {
		t.l = l
	}
}

// Available returns the number of bytes available from the source.
func (t *Trace) Available() int {
	return t.src.Available()
}

// ReadByte reads a byte from the source, logging each completed line.
func (t *Trace) ReadByte() (byte, error) {
	b, err := t.src.ReadByte()
	if err != nil {
		return b, err
	}
	t.line = append(t.line, b)
	if b == '\n' {
		t.logRead()
	}
	return b, nil
}

func (t *Trace) Write(p []byte) (n int, err error) {
	n, err = t.src.Write(p)
	if n > 0 {
		t.l.Infof(t.wfmt, p[:n])
	}
	return n, err
}

// Flush logs any partial line then flushes the source.
func (t *Trace) Flush() error {
	t.logRead()
	return t.src.Flush()
}

func (t *Trace) logRead() {
	if len(t.line) == 0 {
		return
	}
	t.l.Infof(t.rfmt, t.line)
	t.line = t.line[:0]
}
