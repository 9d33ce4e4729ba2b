// SPDX-License-Identifier: MIT
//
// Copyright © 2018 Kent Gibson <warthog618@gmail.com>.
// Copyright © 2026 The Advanced-GPRS-Shield Authors.

// Package gsm provides a driver for SIM900 class GSM modems.
package gsm

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sigalabs/Advanced-GPRS-Shield/at"
	"github.com/sigalabs/Advanced-GPRS-Shield/info"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"
)

// GSM modem decorates the AT modem with GSM specific functionality.
type GSM struct {
	*at.AT
	state    State
	powerKey PowerKey
	// number of power key pulses attempted by TurnOn, 0 for unlimited.
	powerPulses int
	// SMS are escaped rather than sent.
	dryRun bool
	log    *zap.SugaredLogger
}

// State is the modem state tracked by the driver.
type State struct {
	// Initialized indicates parameter set 1 has been applied after the first
	// successful registration.
	Initialized bool

	// Registered indicates the modem was registered at the last check.
	Registered bool

	// Volume is the last speaker volume successfully set.
	Volume int

	// Battery is the result of the last battery check.
	Battery Battery

	// RSSI and Signal are the results of the last signal level update.
	RSSI   int
	Signal int
}

// PowerKey drives the modem power key.
//
// It is satisfied by gpio.PinIO.
type PowerKey interface {
	Out(l gpio.Level) error
}

// Option is a construction option for a GSM.
type Option func(*GSM)

// New creates a new GSM modem.
func New(a *at.AT, options ...Option) *GSM {
	g := &GSM{AT: a}
	for _, option := range options {
		option(g)
	}
	g.log = a.Logger().Sugar()
	return g
}

// WithPowerKey sets the pin used to pulse the modem power key.
func WithPowerKey(p PowerKey) Option {
	return func(g *GSM) {
		g.powerKey = p
	}
}

// WithPowerPulses limits the number of times TurnOn pulses the power key.
//
// By default TurnOn keeps trying until the context is done.
func WithPowerPulses(n int) Option {
	return func(g *GSM) {
		g.powerPulses = n
	}
}

// WithDryRun causes SendSMS to abandon messages at the final step, rather
// than sending them.
func WithDryRun() Option {
	return func(g *GSM) {
		g.dryRun = true
	}
}

// State returns a copy of the driver state.
func (g *GSM) State() State {
	return g.state
}

// Power key timing.
const (
	powerPulse  = 1200 * time.Millisecond
	powerSettle = 1200 * time.Millisecond
	powerRetry  = 1500 * time.Millisecond
)

// TurnOn ensures the modem is powered, pulsing the power key until the modem
// responds, then applies parameter set 0.
func (g *GSM) TurnOn(ctx context.Context) error {
	lease, err := g.Line().Acquire(at.LineCommand)
	if err != nil {
		return err
	}
	defer lease.Release()
	for pulses := 0; ; pulses++ {
		r := g.SendCmdWaitResp("", at.ShortTimeout, at.InterCharTimeout, "OK", 5)
		if r.Outcome != at.NoResponse {
			break
		}
		if g.powerKey == nil {
			return errors.Wrap(ErrNoPowerKey, "modem not responding")
		}
		if g.powerPulses > 0 && pulses >= g.powerPulses {
			return r.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		g.log.Infow("modem is off, pulsing power key", "pulse", pulses+1)
		if err := g.pulsePowerKey(); err != nil {
			return err
		}
	}
	lease.Release()
	return g.InitParam(ParamSet0)
}

func (g *GSM) pulsePowerKey() error {
	c := g.Clock()
	if err := g.powerKey.Out(gpio.High); err != nil {
		return errors.Wrap(err, "power key")
	}
	c.Sleep(powerPulse)
	if err := g.powerKey.Out(gpio.Low); err != nil {
		return errors.Wrap(err, "power key")
	}
	c.Sleep(powerSettle)
	c.Sleep(powerRetry)
	return nil
}

// ParamSet identifies a group of initialisation parameters.
type ParamSet int

const (
	// ParamSet0 parameters do not require network registration.
	ParamSet0 ParamSet = iota
	// ParamSet1 parameters require network registration.
	ParamSet1
)

// InitParam sends a group of initialisation parameters to the modem.
func (g *GSM) InitParam(set ParamSet) error {
	lease, err := g.Line().Acquire(at.LineCommand)
	if err != nil {
		return err
	}
	defer lease.Release()
	switch set {
	case ParamSet0:
		cmds := []string{
			"&F0",    // factory defaults
			"E0",     // echo off
			"+IPR=0", // autobaud
		}
		for _, cmd := range cmds {
			if err := g.SendCmdWaitResp(cmd, at.LongTimeout, at.InterCharTimeout, "OK", 5).Err(); err != nil {
				return err
			}
		}
	case ParamSet1:
		// text mode SMS
		if err := g.SendCmdWaitResp("+CMGF=1", at.LongTimeout, at.InterCharTimeout, "OK", 5).Err(); err != nil {
			return err
		}
		if err := g.initSMSMemory(); err != nil {
			return err
		}
		// SIM phonebook
		if err := g.SendCmdWaitResp(`+CPBS="SM"`, at.LongTimeout, at.InterCharTimeout, "OK", 5).Err(); err != nil {
			return err
		}
	default:
		return errors.Errorf("unknown parameter set %d", set)
	}
	return nil
}

// CheckRegistration checks whether the modem is registered to the network.
//
// The first time the modem is found to be registered, parameter set 1 is
// applied.
func (g *GSM) CheckRegistration() (bool, error) {
	r, err := g.Exec("+CREG?", at.XLongTimeout, at.InterCharTimeout, "+CREG", 1)
	if err != nil {
		return false, err
	}
	registered := info.Registered(r.Data)
	if registered != g.state.Registered {
		g.log.Infow("registration changed", "registered", registered)
	}
	g.state.Registered = registered
	if registered && !g.state.Initialized {
		if err := g.InitParam(ParamSet1); err != nil {
			return true, err
		}
		g.state.Initialized = true
	}
	return registered, nil
}

// IsRegistered returns the registration status from the last check.
func (g *GSM) IsRegistered() bool {
	return g.state.Registered
}

// IsInitialized returns true once parameter set 1 has been applied.
func (g *GSM) IsInitialized() bool {
	return g.state.Initialized
}

var (
	// ErrInvalidPosition indicates a SIM position of 0, positions start at 1.
	ErrInvalidPosition = errors.New("invalid SIM position")

	// ErrNoPowerKey indicates the modem is off and there is no power key to
	// turn it on.
	ErrNoPowerKey = errors.New("no power key")

	// ErrNotFound indicates a field was missing from the modem reply.
	ErrNotFound = info.ErrNotFound

	// ErrMalformedResponse indicates the modem returned a reply that could
	// not be parsed.
	ErrMalformedResponse = errors.New("modem returned malformed response")
)
