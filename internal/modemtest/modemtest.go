// SPDX-License-Identifier: MIT
//
// Copyright © 2026 The Advanced-GPRS-Shield Authors.

// Package modemtest provides a scripted modem and a manual clock for testing
// code built on the at package.
//
// The Modem does not attempt to emulate a real modem. It replies to each
// write with the lines registered for that exact write, delivered after a
// configurable latency on the manual Clock.
package modemtest

import (
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Clock is a manual millisecond clock.
//
// Each call to Millis advances the clock by a millisecond so polling loops make
// progress without real delays.
type Clock struct {
	mu     sync.Mutex
	now    uint32
	step   uint32
	sleeps []time.Duration
}

// NewClock creates a Clock starting at start and advancing 1ms per read.
func NewClock(start uint32) *Clock {
	return &Clock{now: start, step: 1}
}

// Millis returns the current time then advances the clock by one step.
func (c *Clock) Millis() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now += c.step
	return t
}

// Now returns the current time without advancing the clock.
func (c *Clock) Now() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by ms.
func (c *Clock) Advance(ms uint32) {
	c.mu.Lock()
	c.now += ms
	c.mu.Unlock()
}

// Sleep records the sleep and advances the clock by d.
func (c *Clock) Sleep(d time.Duration) {
	c.mu.Lock()
	c.sleeps = append(c.sleeps, d)
	c.now += uint32(d / time.Millisecond)
	c.mu.Unlock()
}

// Sleeps returns the durations passed to Sleep.
func (c *Clock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

type chunk struct {
	at   uint32
	data []byte
}

// Modem is a scripted at.ByteSource.
type Modem struct {
	mu    sync.Mutex
	clock *Clock

	// replies to writes, keyed by the exact bytes written.
	// A key mapped to no lines is silently ignored.
	// Writes with no key are answered with ERROR.
	cmdSet map[string][]string

	// one shot replies, consumed before cmdSet.
	queued map[string][][]string

	// Latency is the delay between a write and the first reply line.
	Latency uint32

	// Gap is the delay between successive reply lines.
	Gap uint32

	// WriteErr, if set, is returned by all writes.
	WriteErr error

	pending []chunk
	writes  []string
}

// NewModem creates a Modem timed by clock and replying using cmdSet.
func NewModem(clock *Clock, cmdSet map[string][]string) *Modem {
	if cmdSet == nil {
		cmdSet = map[string][]string{}
	}
	return &Modem{
		clock:   clock,
		cmdSet:  cmdSet,
		queued:  map[string][][]string{},
		Latency: 5,
	}
}

// Queue adds a one shot reply to the write w.
//
// Queued replies are used in order before falling back to the cmdSet.
// Queueing no lines makes the modem ignore that write once.
func (m *Modem) Queue(w string, lines ...string) {
	m.mu.Lock()
	m.queued[w] = append(m.queued[w], lines)
	m.mu.Unlock()
}

// Inject schedules unsolicited data delay ms from now.
func (m *Modem) Inject(delay uint32, data string) {
	m.mu.Lock()
	m.schedule(m.clock.Now()+delay, []byte(data))
	m.mu.Unlock()
}

// Writes returns all the writes made to the modem.
func (m *Modem) Writes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.writes...)
}

// Pending returns the number of bytes scheduled but not yet read, whether
// or not they are due.
func (m *Modem) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.pending {
		n += len(c.data)
	}
	return n
}

// Available returns the number of bytes due by the current time.
func (m *Modem) Available() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clock.Now()
	n := 0
	for _, c := range m.pending {
		if int32(now-c.at) < 0 {
			break
		}
		n += len(c.data)
	}
	return n
}

// ReadByte returns the next due byte.
func (m *Modem) ReadByte() (byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.pending) == 0 || int32(m.clock.Now()-m.pending[0].at) < 0 {
		return 0, ErrEmpty
	}
	c := &m.pending[0]
	b := c.data[0]
	c.data = c.data[1:]
	if len(c.data) == 0 {
		m.pending = m.pending[1:]
	}
	return b, nil
}

// Write records the write and schedules the corresponding reply.
func (m *Modem) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w := string(p)
	m.writes = append(m.writes, w)
	if m.WriteErr != nil {
		return 0, m.WriteErr
	}
	lines, ok := m.cmdSet[w]
	if q := m.queued[w]; len(q) > 0 {
		lines, ok = q[0], true
		m.queued[w] = q[1:]
	}
	if !ok {
		lines = []string{"\r\nERROR\r\n"}
	}
	t := m.clock.Now() + m.Latency
	for _, l := range lines {
		m.schedule(t, []byte(l))
		t += m.Gap
	}
	return len(p), nil
}

// Flush discards all due bytes.
func (m *Modem) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clock.Now()
	i := 0
	for ; i < len(m.pending); i++ {
		if int32(now-m.pending[i].at) < 0 {
			break
		}
	}
	m.pending = m.pending[i:]
	return nil
}

// schedule inserts the data, keeping pending ordered by time.
func (m *Modem) schedule(at uint32, data []byte) {
	if len(data) == 0 {
		return
	}
	i := len(m.pending)
	for i > 0 && int32(m.pending[i-1].at-at) > 0 {
		i--
	}
	m.pending = append(m.pending, chunk{})
	copy(m.pending[i+1:], m.pending[i:])
	m.pending[i] = chunk{at: at, data: append([]byte(nil), data...)}
}

// ErrEmpty indicates a read when no data was available.
var ErrEmpty = errors.New("no data available")
