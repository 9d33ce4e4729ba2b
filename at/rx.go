// SPDX-License-Identifier: MIT
//
// Copyright © 2026 The Advanced-GPRS-Shield Authors.

package at

// BufferSize is the capacity of the receive buffer, excluding the terminator.
const BufferSize = 200

// RxStatus is the result of polling a receive session.
type RxStatus int

const (
	// RxNotFinished indicates the session is still in progress.
	RxNotFinished RxStatus = iota
	// RxFinished indicates the reply is complete.
	RxFinished
	// RxTimeout indicates no reply started within the start timeout.
	RxTimeout
)

func (s RxStatus) String() string {
	switch s {
	case RxNotFinished:
		return "not finished"
	case RxFinished:
		return "finished"
	case RxTimeout:
		return "timeout"
	}
	return "unknown"
}

// RxConfig defines the parameters of a receive session.
//
// Timeouts are in milliseconds.
type RxConfig struct {
	// StartTimeout bounds the wait for the first byte of the reply.
	StartTimeout uint32

	// InterCharTimeout is the silence that marks the end of the reply.
	InterCharTimeout uint32

	// FlushBeforeRead discards any stale bytes when the session starts.
	FlushBeforeRead bool

	// StopWhenFull ends the session as soon as the buffer fills.
	// Otherwise bytes arriving after the buffer fills are read and discarded
	// until the line goes quiet.
	StopWhenFull bool
}

// Framer collects a reply from the modem into a fixed size buffer, detecting
// the end of the reply by inter-character silence.
//
// A Framer is poll driven. Each call to Poll performs a bounded amount of
// work and never blocks.
type Framer struct {
	src   ByteSource
	clock Clock
	cfg   RxConfig

	// buf[n] is kept zero so the contents can be treated as text.
	buf [BufferSize + 1]byte
	n   int

	started      bool
	start        uint32
	lastActivity uint32
}

// NewFramer creates a Framer reading from src and timed by clock.
func NewFramer(src ByteSource, clock Clock) *Framer {
	return &Framer{src: src, clock: clock}
}

// Init starts a new receive session, discarding the previous reply.
//
// The start timeout is measured from the call to Init.
func (f *Framer) Init(cfg RxConfig) error {
	f.cfg = cfg
	f.n = 0
	f.buf[0] = 0
	f.started = false
	f.start = f.clock.Millis()
	f.lastActivity = f.start
	if cfg.FlushBeforeRead {
		return f.src.Flush()
	}
	return nil
}

// Poll advances the session.
func (f *Framer) Poll() RxStatus {
	now := f.clock.Millis()
	if !f.started {
		if f.src.Available() == 0 {
			if now-f.start >= f.cfg.StartTimeout {
				return RxTimeout
			}
			return RxNotFinished
		}
		f.started = true
		f.lastActivity = now
	}
	if f.src.Available() > 0 {
		f.lastActivity = now
		if f.drain() {
			return RxFinished
		}
	}
	if now-f.lastActivity >= f.cfg.InterCharTimeout {
		return RxFinished
	}
	return RxNotFinished
}

// drain reads all available bytes, returning true if the session should end
// because the buffer is full.
func (f *Framer) drain() bool {
	for f.src.Available() > 0 {
		if f.n >= BufferSize {
			if f.cfg.StopWhenFull {
				return true
			}
			if _, err := f.src.ReadByte(); err != nil {
				return false
			}
			continue
		}
		b, err := f.src.ReadByte()
		if err != nil {
			return false
		}
		f.buf[f.n] = b
		f.n++
		f.buf[f.n] = 0
	}
	return f.cfg.StopWhenFull && f.n >= BufferSize
}

// Bytes returns the bytes received in the current session.
//
// The slice aliases the receive buffer and is only valid until the next Init.
func (f *Framer) Bytes() []byte {
	return f.buf[:f.n]
}

// Text returns the received bytes up to the first NUL.
func (f *Framer) Text() string {
	return string(Text(f.buf[:f.n]))
}

// Len returns the number of bytes received in the current session.
func (f *Framer) Len() int {
	return f.n
}

// Contains returns true if the received text contains s.
func (f *Framer) Contains(s string) bool {
	return Contains(f.buf[:f.n], s)
}
