// SPDX-License-Identifier: MIT
//
// Copyright © 2018 Kent Gibson <warthog618@gmail.com>.
// Copyright © 2026 The Advanced-GPRS-Shield Authors.

// Package serial provides the serial port connection to the shield.
package serial

import (
	"time"

	"github.com/pkg/errors"
	"github.com/tarm/serial"
	"go.bug.st/serial/enumerator"
)

// Config describes the serial port.
type Config struct {
	Port        string
	Baud        int
	ReadTimeout time.Duration
}

// Option modifies the Config used by New.
type Option func(*Config)

// WithPort sets the port device, e.g. /dev/ttyUSB0 or COM1.
func WithPort(port string) Option {
	return func(c *Config) {
		c.Port = port
	}
}

// WithBaud sets the baud rate.
//
// The shield autobauds, so this is only constrained by the host.
func WithBaud(baud int) Option {
	return func(c *Config) {
		c.Baud = baud
	}
}

// WithReadTimeout sets the read timeout of the port.
//
// A zero timeout blocks reads until data arrives.
func WithReadTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.ReadTimeout = d
	}
}

// New opens the serial port.
//
// The port defaults to the platform's usual USB serial device at 115200.
func New(options ...Option) (*serial.Port, error) {
	cfg := defaultConfig
	for _, option := range options {
		option(&cfg)
	}
	p, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Port,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", cfg.Port)
	}
	return p, nil
}

// PortInfo describes a serial port found on the host.
type PortInfo struct {
	Name    string
	USB     bool
	VID     string
	PID     string
	Serial  string
	Product string
}

// Ports lists the serial ports available on the host.
func Ports() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, errors.Wrap(err, "list ports")
	}
	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		ports = append(ports, PortInfo{
			Name:    d.Name,
			USB:     d.IsUSB,
			VID:     d.VID,
			PID:     d.PID,
			Serial:  d.SerialNumber,
			Product: d.Product,
		})
	}
	return ports, nil
}
