// SPDX-License-Identifier: MIT
//
// Copyright © 2026 The Advanced-GPRS-Shield Authors.

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sigalabs/Advanced-GPRS-Shield/at"
	"github.com/sigalabs/Advanced-GPRS-Shield/bridge"
	"github.com/sigalabs/Advanced-GPRS-Shield/gsm"
	"github.com/sigalabs/Advanced-GPRS-Shield/serial"
	"github.com/sigalabs/Advanced-GPRS-Shield/trace"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// session is an open connection to a powered and initialised modem.
type session struct {
	cfg  config
	conn io.Closer
	at   *at.AT
	gsm  *gsm.GSM
	log  *zap.Logger
}

func newLogger(verbose bool) (*zap.Logger, error) {
	zc := zap.NewDevelopmentConfig()
	if !verbose {
		zc.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	return zc.Build()
}

// openSession connects to the modem described by the command's config,
// powering it up if necessary.
func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log, err := newLogger(cfg.Verbose)
	if err != nil {
		return nil, err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	conn, err := dial(ctx, cfg)
	if err != nil {
		return nil, err
	}
	var src at.ByteSource = serial.NewStream(conn)
	if cfg.Verbose {
		src = trace.New(src, trace.WithLogger(log.Sugar()))
	}
	a := at.New(src, at.WithLogger(log))
	options := []gsm.Option{gsm.WithPowerPulses(cfg.PowerPulses)}
	if cfg.PowerPin != "" {
		pin, err := powerKey(cfg.PowerPin)
		if err != nil {
			conn.Close()
			return nil, err
		}
		options = append(options, gsm.WithPowerKey(pin))
	}
	if cfg.DryRun {
		options = append(options, gsm.WithDryRun())
	}
	g := gsm.New(a, options...)
	if err := g.TurnOn(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return &session{cfg: cfg, conn: conn, at: a, gsm: g, log: log}, nil
}

func (s *session) Close() {
	s.conn.Close()
	s.log.Sync()
}

// dial opens the link to the modem, via the bridge if a URL is configured.
func dial(ctx context.Context, cfg config) (io.ReadWriteCloser, error) {
	if cfg.URL == "" {
		options := []serial.Option{serial.WithBaud(cfg.Baud)}
		if cfg.Port != "" {
			options = append(options, serial.WithPort(cfg.Port))
		}
		return serial.New(options...)
	}
	options := []bridge.Option{}
	if cfg.Username != "" {
		password, err := bridgePassword()
		if err != nil {
			return nil, err
		}
		options = append(options, bridge.WithBasicAuth(cfg.Username, password))
	}
	if cfg.Insecure {
		options = append(options, bridge.WithInsecure())
	}
	return bridge.Dial(ctx, cfg.URL, options...)
}

// bridgePassword returns the bridge password from the environment or,
// failing that, prompts for it.
func bridgePassword() (string, error) {
	if pw := os.Getenv("SIM900_PASSWORD"); pw != "" {
		return pw, nil
	}
	fmt.Fprint(os.Stderr, "Password: ")
	defer fmt.Fprintln(os.Stderr)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		pw, err := term.ReadPassword(fd)
		if err != nil {
			return "", errors.Wrap(err, "read password")
		}
		return string(pw), nil
	}
	pw, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", errors.Wrap(err, "read password")
	}
	return strings.TrimSpace(pw), nil
}

// powerKey returns the GPIO pin driving the shield power key.
func powerKey(name string) (gsm.PowerKey, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "init host")
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, errors.Errorf("unknown pin %s", name)
	}
	return p, nil
}
