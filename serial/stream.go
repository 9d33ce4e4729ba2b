// SPDX-License-Identifier: MIT
//
// Copyright © 2026 The Advanced-GPRS-Shield Authors.

package serial

import (
	"io"
	"sync"

	"github.com/pkg/errors"
)

// ErrEmpty indicates a read was attempted with no data available.
var ErrEmpty = errors.New("no data available")

// Stream adapts a blocking io.ReadWriter, such as a serial port, to the
// polled byte source used by the AT layer.
//
// Received bytes are collected by a background reader and held until read
// or flushed.
type Stream struct {
	rw   io.ReadWriter
	mu   sync.Mutex
	buf  []byte
	err  error
	done chan struct{}
}

// NewStream starts reading from rw.
//
// The reader exits when rw returns an error, e.g. when it is closed.
func NewStream(rw io.ReadWriter) *Stream {
	s := &Stream{
		rw:   rw,
		done: make(chan struct{}),
	}
	go s.readLoop()
	return s
}

func (s *Stream) readLoop() {
	defer close(s.done)
	b := make([]byte, 256)
	for {
		n, err := s.rw.Read(b)
		s.mu.Lock()
		s.buf = append(s.buf, b[:n]...)
		if err != nil {
			s.err = err
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()
	}
}

// Available returns the number of bytes received and not yet read.
func (s *Stream) Available() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buf)
}

// ReadByte returns the next received byte.
//
// Once the buffer is drained the reader error, if any, is returned.
func (s *Stream) ReadByte() (byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.buf) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		return 0, ErrEmpty
	}
	b := s.buf[0]
	s.buf = s.buf[1:]
	return b, nil
}

// Write writes to the underlying ReadWriter.
func (s *Stream) Write(p []byte) (int, error) {
	return s.rw.Write(p)
}

// Flush discards any received bytes.
func (s *Stream) Flush() error {
	s.mu.Lock()
	s.buf = nil
	s.mu.Unlock()
	return nil
}

// Done is closed when the reader exits.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Err returns the error that terminated the reader, if any.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
