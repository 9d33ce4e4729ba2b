// SPDX-License-Identifier: MIT
//
// Copyright © 2026 The Advanced-GPRS-Shield Authors.

package info

import "github.com/sigalabs/Advanced-GPRS-Shield/at"

// CallState is the state of the current call as reported by +CLCC.
type CallState int

const (
	CallNone CallState = iota
	CallIncomingVoice
	CallIncomingData
	CallActiveVoice
	CallActiveData
	CallOther
)

func (s CallState) String() string {
	switch s {
	case CallNone:
		return "none"
	case CallIncomingVoice:
		return "incoming voice"
	case CallIncomingData:
		return "incoming data"
	case CallActiveVoice:
		return "active voice"
	case CallActiveData:
		return "active data"
	case CallOther:
		return "other"
	}
	return "unknown"
}

// Only these combinations of the leading +CLCC fields are recognised.
// Anything else, such as a second party, is reported as CallOther.
var callPatterns = []struct {
	prefix string
	state  CallState
}{
	{"+CLCC: 1,1,4,0,0", CallIncomingVoice},
	{"+CLCC: 1,1,4,1,0", CallIncomingData},
	{"+CLCC: 1,0,0,0,0", CallActiveVoice},
	{"+CLCC: 1,1,0,0,0", CallActiveVoice},
	{"+CLCC: 1,1,0,1,0", CallActiveData},
}

// ParseCall parses a +CLCC reply, returning the call state and the span of
// the caller number.
//
// The number is extracted for each recognised call and is ErrNotFound if it
// is withheld. A reply without a +CLCC line is CallNone.
func ParseCall(data []byte) (CallState, Span, error) {
	text := at.Text(data)
	for _, p := range callPatterns {
		i := at.IndexBin(text, p.prefix)
		if i == -1 {
			continue
		}
		num, err := Quoted(text, i+len(p.prefix))
		if err != nil || num.Len() == 0 {
			return p.state, Span{}, ErrNotFound
		}
		return p.state, num, nil
	}
	if at.IndexBin(text, "+CLCC:") != -1 {
		return CallOther, Span{}, nil
	}
	return CallNone, Span{}, nil
}
