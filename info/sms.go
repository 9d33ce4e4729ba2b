// SPDX-License-Identifier: MIT
//
// Copyright © 2026 The Advanced-GPRS-Shield Authors.

package info

import (
	"bytes"
	"strconv"

	"github.com/sigalabs/Advanced-GPRS-Shield/at"
)

// SMSStatus is the storage status of a message read by +CMGR.
type SMSStatus int

const (
	// SMSNone indicates there is no message at the position.
	SMSNone SMSStatus = iota
	// SMSUnread is a received message that has not been read.
	SMSUnread
	// SMSRead is a received message that has been read.
	SMSRead
	// SMSOther is a stored message that was not received, such as a draft.
	SMSOther
)

func (s SMSStatus) String() string {
	switch s {
	case SMSNone:
		return "none"
	case SMSUnread:
		return "unread"
	case SMSRead:
		return "read"
	case SMSOther:
		return "other"
	}
	return "unknown"
}

// SMS identifies the fields of a text mode +CMGR reply.
type SMS struct {
	Status SMSStatus
	Number Span
	Body   Span
}

// ParseSMS parses a text mode +CMGR reply, such as:
//
//	+CMGR: "REC READ","+61412345678",,"18/11/02,10:15:20+44"
//	hello
//
//	OK
//
// A reply with no +CMGR line returns SMSNone. If the number is missing the
// status is still returned, along with ErrNotFound.
func ParseSMS(data []byte) (SMS, error) {
	text := at.Text(data)
	i := at.IndexBin(text, "+CMGR")
	if i == -1 {
		return SMS{Status: SMSNone}, nil
	}
	s := SMS{Status: SMSOther}
	switch {
	case at.IndexBin(text, `"REC UNREAD"`) != -1:
		s.Status = SMSUnread
	case at.IndexBin(text, `"REC READ"`) != -1:
		s.Status = SMSRead
	}
	c := bytes.IndexByte(text[i:], ',')
	if c == -1 {
		return s, ErrNotFound
	}
	num, err := Quoted(text, i+c+1)
	if err != nil {
		return s, err
	}
	s.Number = num
	// skip the closing quote of the number
	lf := bytes.IndexByte(text[num.End+1:], '\n')
	if lf == -1 {
		return s, nil
	}
	start := num.End + 1 + lf + 1
	end := len(text)
	if cr := bytes.IndexByte(text[start:], '\r'); cr != -1 {
		end = start + cr
	}
	s.Body = Span{start, end}
	return s, nil
}

// ListIndex returns the position of the first message in a +CMGL reply.
func ListIndex(data []byte) (int, error) {
	text := at.Text(data)
	i := at.IndexBin(text, "+CMGL:")
	if i == -1 {
		return 0, ErrNotFound
	}
	f := bytes.TrimLeft(text[i+6:], " ")
	n := 0
	for n < len(f) && f[n] >= '0' && f[n] <= '9' {
		n++
	}
	if n == 0 {
		return 0, ErrNotFound
	}
	return strconv.Atoi(string(f[:n]))
}
