// SPDX-License-Identifier: MIT
//
// Copyright © 2026 The Advanced-GPRS-Shield Authors.

package at

import "sync"

// LineStatus identifies the current user of the link to the modem.
type LineStatus int

const (
	// LineFree indicates the line is available.
	LineFree LineStatus = iota
	// LineCommand indicates an AT command exchange is in progress.
	LineCommand
	// LineData indicates the line is carrying transparent socket data.
	LineData
)

func (s LineStatus) String() string {
	switch s {
	case LineFree:
		return "free"
	case LineCommand:
		return "command"
	case LineData:
		return "data"
	}
	return "unknown"
}

// Line arbitrates access to the link to the modem.
type Line struct {
	mu     sync.Mutex
	status LineStatus
}

// Status returns the current line status.
func (l *Line) Status() LineStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

// TryAcquire moves the line to mode if it is currently free.
//
// Returns false, leaving the status unchanged, if the line is in use.
func (l *Line) TryAcquire(mode LineStatus) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.status != LineFree {
		return false
	}
	l.status = mode
	return true
}

// Switch moves the line from one mode to another.
//
// Returns false, leaving the status unchanged, if the line is not in from.
func (l *Line) Switch(from, to LineStatus) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.status != from {
		return false
	}
	l.status = to
	return true
}

// Release frees the line, whatever its current status.
func (l *Line) Release() {
	l.set(LineFree)
}

func (l *Line) set(mode LineStatus) {
	l.mu.Lock()
	l.status = mode
	l.mu.Unlock()
}

// Acquire moves the line to mode and returns a lease that must be released
// when the caller is done with the line.
//
// Returns ErrLineBusy if the line is not free.
func (l *Line) Acquire(mode LineStatus) (*Lease, error) {
	if !l.TryAcquire(mode) {
		return nil, ErrLineBusy
	}
	return &Lease{l: l}, nil
}

// Lease is a scoped hold on the Line.
type Lease struct {
	l        *Line
	released bool
	handoff  bool
	next     LineStatus
}

// Hold requests that the line be left in mode, rather than freed, when the
// lease is released.
//
// This is used to hand the line over to a data session.
func (ls *Lease) Hold(mode LineStatus) {
	ls.handoff = true
	ls.next = mode
}

// Release ends the lease.
//
// Release may be called multiple times.
func (ls *Lease) Release() {
	if ls == nil || ls.released {
		return
	}
	ls.released = true
	if ls.handoff {
		ls.l.set(ls.next)
		return
	}
	ls.l.Release()
}
