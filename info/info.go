// SPDX-License-Identifier: MIT
//
// Copyright © 2018 Kent Gibson <warthog618@gmail.com>.
// Copyright © 2026 The Advanced-GPRS-Shield Authors.

// Package info provides utility functions for extracting fields from the
// replies returned by the modem in response to AT commands.
//
// The parsers return spans into the reply rather than copies, and never
// modify the reply, so several fields may be extracted from the one buffer.
package info

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sigalabs/Advanced-GPRS-Shield/at"
)

// ErrNotFound indicates an expected field is absent from the reply.
var ErrNotFound = errors.New("field not found")

// HasPrefix returns true if the line begins with the info prefix for the command.
func HasPrefix(line, cmd string) bool {
	return strings.HasPrefix(line, cmd+":")
}

// TrimPrefix removes the command prefix, if any, and any intervening space
// from the info line.
func TrimPrefix(line, cmd string) string {
	return strings.TrimLeft(strings.TrimPrefix(line, cmd+":"), " ")
}

// Span is the half open range [Start, End) of a field within a reply.
type Span struct {
	Start int
	End   int
}

// Len returns the length of the field.
func (s Span) Len() int {
	return s.End - s.Start
}

// In returns the field from the reply it was extracted from.
func (s Span) In(data []byte) []byte {
	return data[s.Start:s.End]
}

// String returns the field from the reply as a string.
func (s Span) String(data []byte) string {
	return string(s.In(data))
}

// Quoted returns the span of the first double quoted field at or after from.
//
// The span excludes the quotes.
func Quoted(data []byte, from int) (Span, error) {
	data = at.Text(data)
	if from < 0 || from > len(data) {
		return Span{}, ErrNotFound
	}
	open := bytes.IndexByte(data[from:], '"')
	if open == -1 {
		return Span{}, ErrNotFound
	}
	start := from + open + 1
	end := bytes.IndexByte(data[start:], '"')
	if end == -1 {
		return Span{}, ErrNotFound
	}
	return Span{start, start + end}, nil
}

// CopyCString copies src into dst, followed by a NUL terminator.
//
// If src does not fit, only len(dst)-1 bytes are copied. The truncation is
// silent. Returns the number of bytes copied, excluding the terminator.
func CopyCString(dst, src []byte) int {
	if len(dst) == 0 {
		return 0
	}
	n := copy(dst[:len(dst)-1], src)
	dst[n] = 0
	return n
}

// Ints returns the comma separated integer fields following the header.
//
// Parsing stops at the end of the line or at the first non-integer field.
func Ints(data []byte, header string) ([]int, error) {
	data = at.Text(data)
	i := at.IndexBin(data, header)
	if i == -1 {
		return nil, ErrNotFound
	}
	line := data[i+len(header):]
	if e := bytes.IndexAny(line, "\r\n"); e != -1 {
		line = line[:e]
	}
	var vv []int
	for _, f := range bytes.Split(line, []byte(",")) {
		v, err := strconv.Atoi(string(bytes.TrimSpace(f)))
		if err != nil {
			break
		}
		vv = append(vv, v)
	}
	if len(vv) == 0 {
		return nil, ErrNotFound
	}
	return vv, nil
}

// Int returns the first integer field following the header.
func Int(data []byte, header string) (int, error) {
	vv, err := Ints(data, header)
	if err != nil {
		return 0, err
	}
	return vv[0], nil
}

// PhoneNumber returns the span of the number in a +CPBR reply.
//
// A reply without a +CPBR line, such as a bare OK, indicates there is no
// entry at the requested position and returns ErrNotFound.
func PhoneNumber(data []byte) (Span, error) {
	i := at.IndexBin(at.Text(data), "+CPBR")
	if i == -1 {
		return Span{}, ErrNotFound
	}
	return Quoted(data, i)
}

// Registered returns true if a +CREG reply reports registration on the home
// network or roaming.
func Registered(data []byte) bool {
	vv, err := Ints(data, "+CREG:")
	if err != nil || len(vv) < 2 {
		return false
	}
	return vv[1] == 1 || vv[1] == 5
}

// SignalBand maps a +CSQ rssi value to a band from 0 (unknown) to 5.
func SignalBand(rssi int) int {
	switch {
	case rssi >= 1 && rssi <= 5:
		return 1
	case rssi >= 6 && rssi <= 12:
		return 2
	case rssi >= 13 && rssi <= 17:
		return 3
	case rssi >= 18 && rssi <= 22:
		return 4
	case rssi >= 23 && rssi <= 32:
		return 5
	}
	// includes 0 and 99
	return 0
}
