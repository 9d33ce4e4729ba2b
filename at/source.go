// SPDX-License-Identifier: MIT
//
// Copyright © 2026 The Advanced-GPRS-Shield Authors.

package at

import "time"

//go:generate mockgen -destination=mock_source_test.go -package=at . ByteSource

// ByteSource is the character oriented link to the modem.
//
// Available and ReadByte must never block. Flush discards any received bytes
// that have not yet been read.
type ByteSource interface {
	Available() int
	ReadByte() (byte, error)
	Write(p []byte) (int, error)
	Flush() error
}

// Clock provides the millisecond time base used for receive timeouts.
//
// Millis is expected to wrap at 2^32.
type Clock interface {
	Millis() uint32
	Sleep(d time.Duration)
}

type systemClock struct {
	epoch time.Time
}

// SystemClock returns a Clock based on the monotonic system time.
func SystemClock() Clock {
	return systemClock{epoch: time.Now()}
}

func (c systemClock) Millis() uint32 {
	return uint32(time.Since(c.epoch) / time.Millisecond)
}

func (c systemClock) Sleep(d time.Duration) {
	time.Sleep(d)
}
