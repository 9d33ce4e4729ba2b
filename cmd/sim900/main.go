// SPDX-License-Identifier: MIT
//
// Copyright © 2026 The Advanced-GPRS-Shield Authors.

// sim900 drives a SIM900 GSM/GPRS shield connected to a local serial port or
// exposed through a websocket serial bridge.
//
// Settings are taken from an optional ini file, then SIM900_* environment
// variables, then command line flags, with later sources taking precedence.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "undefined"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sim900",
		Short: "SIM900 GSM/GPRS shield tool",
		Long: `sim900 - a tool to drive a SIM900 GSM/GPRS shield.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 115200]
  WebSocket: --url ws://host/path [--username user]

For WebSocket authentication the password is read from the SIM900_PASSWORD
environment variable, or prompted for if not set.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringP("config", "c", "", "ini file containing settings")
	pf.StringP("port", "p", "", "serial port device")
	pf.IntP("baud", "b", 115200, "baud rate (serial only)")
	pf.StringP("url", "u", "", "websocket bridge URL (ws:// or wss://)")
	pf.String("username", "", "username for websocket HTTP Basic auth")
	pf.Bool("no-ssl-verify", false, "skip TLS certificate verification (wss:// only)")
	pf.String("power-pin", "", "GPIO pin driving the shield power key")
	pf.Int("power-pulses", 3, "power key pulses before giving up")
	pf.String("apn", "", "GPRS access point name")
	pf.String("apn-user", "", "GPRS access point user")
	pf.BoolP("verbose", "v", false, "log modem interactions")
	pf.Bool("dry-run", false, "escape SMS rather than send them")

	root.AddCommand(
		newInfoCmd(),
		newPortsCmd(),
		newSMSCmd(),
		newPhonebookCmd(),
		newCallCmd(),
		newGPRSCmd(),
		newExecCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
