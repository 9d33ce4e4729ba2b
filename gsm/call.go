// SPDX-License-Identifier: MIT
//
// Copyright © 2026 The Advanced-GPRS-Shield Authors.

package gsm

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/sigalabs/Advanced-GPRS-Shield/at"
	"github.com/sigalabs/Advanced-GPRS-Shield/info"
)

// CallStatus returns the call state reported by the modem activity status.
//
// Only idle, ringing and call in progress are distinguished.
func (g *GSM) CallStatus() (info.CallState, error) {
	r, err := g.Exec("+CPAS", at.XLongTimeout, at.InterCharTimeout, "+CPAS", 1)
	if err != nil {
		return info.CallNone, err
	}
	activity, err := info.Int(r.Data, "+CPAS:")
	if err != nil {
		return info.CallNone, err
	}
	switch activity {
	case 0:
		return info.CallNone, nil
	case 3:
		return info.CallIncomingVoice, nil
	case 4:
		return info.CallActiveVoice, nil
	}
	return info.CallOther, nil
}

// Call describes the current call.
type Call struct {
	State info.CallState

	// Number is the remote party number, if not withheld.
	Number string

	// Authorized is only set for incoming calls.
	Authorized bool
}

// CallStatusWithAuth returns the current call, checking incoming callers
// against the SIM phonebook positions first to last inclusive.
//
// If both first and last are 0 then all callers are authorized.
func (g *GSM) CallStatusWithAuth(first, last int) (Call, error) {
	lease, err := g.Line().Acquire(at.LineCommand)
	if err != nil {
		return Call{}, err
	}
	defer lease.Release()
	if err := g.Send("+CLCC"); err != nil {
		return Call{}, err
	}
	if g.WaitRespUntil(at.XLongTimeout, at.LongInterCharTimeout, "OK\r\n") != at.RxFinished {
		return Call{}, errors.Wrap(at.ErrNoResponse, "AT+CLCC")
	}
	data := g.Rx().Bytes()
	state, num, err := info.ParseCall(data)
	c := Call{State: state}
	if err == nil {
		c.Number = num.String(data)
	}
	if state != info.CallIncomingVoice && state != info.CallIncomingData {
		return c, nil
	}
	// the phonebook lookups need the line
	lease.Release()
	if c.Number == "" {
		c.Authorized = first == 0 && last == 0
		return c, nil
	}
	c.Authorized, err = g.authorized(c.Number, first, last)
	return c, err
}

// PickUp answers an incoming call.
func (g *GSM) PickUp() error {
	_, err := g.Exec("A", at.LongTimeout, at.InterCharTimeout, "OK", 1)
	return err
}

// HangUp ends the current call.
func (g *GSM) HangUp() error {
	_, err := g.Exec("H0", at.LongTimeout, at.InterCharTimeout, "OK", 1)
	return err
}

// Dial calls the number.
func (g *GSM) Dial(number string) error {
	return g.dial(number)
}

// DialPosition calls the number stored at the SIM phonebook position.
func (g *GSM) DialPosition(pos int) error {
	if pos == 0 {
		return ErrInvalidPosition
	}
	return g.dial(`>"SM" ` + strconv.Itoa(pos))
}

func (g *GSM) dial(dest string) error {
	r, err := g.Exec("D"+dest+";", 10000, at.InterCharTimeout, "OK", 1)
	if err != nil && r.Outcome == at.ResponseMismatch {
		for _, ce := range []string{"BUSY", "NO ANSWER", "NO CARRIER", "NO DIALTONE"} {
			if at.Contains(r.Data, ce) {
				return at.ConnectError(ce)
			}
		}
	}
	return err
}

// SetSpeakerVolume sets the speaker volume, from 0 to 100.
//
// Values above 100 are clamped. The volume set is returned.
func (g *GSM) SetSpeakerVolume(v int) (int, error) {
	if v > 100 {
		v = 100
	}
	if v < 0 {
		v = 0
	}
	if _, err := g.Exec("+CLVL="+strconv.Itoa(v), 10000, at.InterCharTimeout, "OK", 1); err != nil {
		return g.state.Volume, err
	}
	g.state.Volume = v
	return v, nil
}

// IncSpeakerVolume increases the speaker volume by one step.
func (g *GSM) IncSpeakerVolume() (int, error) {
	if g.state.Volume >= 100 {
		return 100, nil
	}
	return g.SetSpeakerVolume(g.state.Volume + 1)
}

// DecSpeakerVolume decreases the speaker volume by one step.
func (g *GSM) DecSpeakerVolume() (int, error) {
	if g.state.Volume <= 0 {
		return 0, nil
	}
	return g.SetSpeakerVolume(g.state.Volume - 1)
}

// SendDTMF sends a DTMF tone, 0 to 15, during a call.
func (g *GSM) SendDTMF(tone int) error {
	if tone < 0 || tone > 15 {
		return errors.Errorf("invalid DTMF tone %d", tone)
	}
	_, err := g.Exec("+VTS="+strconv.Itoa(tone), at.LongTimeout, at.InterCharTimeout, "OK", 1)
	return err
}
