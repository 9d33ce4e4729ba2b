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

// GetPhoneNumber returns the number stored at the SIM phonebook position.
//
// Returns ErrNotFound if the position is empty.
func (g *GSM) GetPhoneNumber(pos int) (string, error) {
	if pos == 0 {
		return "", ErrInvalidPosition
	}
	r, err := g.Exec("+CPBR="+strconv.Itoa(pos), at.XLongTimeout, at.InterCharTimeout, "+CPBR", 1)
	if err != nil {
		if errors.Is(err, at.ErrMismatch) && at.Contains(r.Data, "OK") {
			return "", ErrNotFound
		}
		return "", err
	}
	s, err := info.PhoneNumber(r.Data)
	if err != nil {
		return "", err
	}
	return s.String(r.Data), nil
}

// WritePhoneNumber stores the number at the SIM phonebook position.
func (g *GSM) WritePhoneNumber(pos int, number string) error {
	if pos == 0 {
		return ErrInvalidPosition
	}
	cmd := "+CPBW=" + strconv.Itoa(pos) + `,"` + number + `"`
	_, err := g.Exec(cmd, at.XLongTimeout, at.InterCharTimeout, "OK", 1)
	return err
}

// DelPhoneNumber deletes the entry at the SIM phonebook position.
func (g *GSM) DelPhoneNumber(pos int) error {
	if pos == 0 {
		return ErrInvalidPosition
	}
	_, err := g.Exec("+CPBW="+strconv.Itoa(pos), at.XLongTimeout, at.InterCharTimeout, "OK", 1)
	return err
}

// ComparePhoneNumber returns true if the number matches the entry at the SIM
// phonebook position.
//
// An empty position matches nothing.
func (g *GSM) ComparePhoneNumber(pos int, number string) (bool, error) {
	stored, err := g.GetPhoneNumber(pos)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return number != "" && stored == number, nil
}

// authorized returns true if the number is stored at one of the positions
// first to last inclusive, or if both first and last are 0.
func (g *GSM) authorized(number string, first, last int) (bool, error) {
	if first == 0 && last == 0 {
		return true, nil
	}
	if first == 0 {
		return false, ErrInvalidPosition
	}
	for pos := first; pos <= last; pos++ {
		match, err := g.ComparePhoneNumber(pos, number)
		if err != nil {
			return false, err
		}
		if match {
			return true, nil
		}
	}
	return false, nil
}
