// SPDX-License-Identifier: MIT
//
// Copyright © 2026 The Advanced-GPRS-Shield Authors.

package gsm

import (
	"github.com/sigalabs/Advanced-GPRS-Shield/at"
	"github.com/sigalabs/Advanced-GPRS-Shield/info"
)

// Battery is the battery status reported by +CBC.
type Battery struct {
	// Charge is 0 when not charging, 1 while charging and 2 when charged.
	Charge int

	// Level is the capacity, in percent.
	Level int

	// Voltage is in millivolts.
	Voltage int
}

// Charging returns true while the battery is charging.
func (b Battery) Charging() bool {
	return b.Charge == 1
}

// Charged returns true once charging has finished.
func (b Battery) Charged() bool {
	return b.Charge == 2
}

// CheckBattery reads the battery status.
func (g *GSM) CheckBattery() (Battery, error) {
	r, err := g.Exec("+CBC", at.LongTimeout, at.InterCharTimeout, "+CBC", 1)
	if err != nil {
		return Battery{}, err
	}
	vv, err := info.Ints(r.Data, "+CBC:")
	if err != nil {
		return Battery{}, err
	}
	if len(vv) < 3 {
		return Battery{}, ErrMalformedResponse
	}
	b := Battery{Charge: vv[0], Level: vv[1], Voltage: vv[2]}
	g.state.Battery = b
	return b, nil
}

// UpdateSignalLevel reads the signal quality and returns it as a band from 0
// (unknown) to 5.
func (g *GSM) UpdateSignalLevel() (int, error) {
	r, err := g.Exec("+CSQ", at.LongTimeout, at.InterCharTimeout, "+CSQ", 1)
	if err != nil {
		return 0, err
	}
	rssi, err := info.Int(r.Data, "+CSQ:")
	if err != nil {
		return 0, err
	}
	g.state.RSSI = rssi
	g.state.Signal = info.SignalBand(rssi)
	return g.state.Signal, nil
}
