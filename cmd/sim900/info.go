// SPDX-License-Identifier: MIT
//
// Copyright © 2026 The Advanced-GPRS-Shield Authors.

package main

import (
	"fmt"
	"strings"

	"github.com/sigalabs/Advanced-GPRS-Shield/at"
	"github.com/sigalabs/Advanced-GPRS-Shield/info"
	"github.com/sigalabs/Advanced-GPRS-Shield/serial"
	"github.com/spf13/cobra"
)

// identity commands reported by info.
var identity = []string{
	"I",
	"+GCAP",
	"+CGMI",
	"+CGMM",
	"+CGMR",
	"+CGSN",
	"+CIMI",
	"+CCID",
	"+CNUM",
	"+CPIN?",
	"+CSCA?",
	"+CPMS?",
	"+CNMI?",
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Display modem identity, registration and telemetry",
		Args:  cobra.NoArgs,
		RunE:  runInfo,
	}
}

func runInfo(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()
	for _, c := range identity {
		r, err := s.at.Exec(c, at.LongTimeout, at.InterCharTimeout, "OK", 1)
		fmt.Println("AT" + c)
		if err != nil {
			fmt.Printf(" %s\n", err)
			continue
		}
		for _, l := range replyLines(r.Text()) {
			if l == "OK" {
				continue
			}
			fmt.Printf(" %s\n", info.TrimPrefix(l, strings.TrimSuffix(c, "?")))
		}
	}
	g := s.gsm
	registered, err := g.CheckRegistration()
	if err != nil {
		return err
	}
	fmt.Printf("registered: %v\n", registered)
	if _, err := g.UpdateSignalLevel(); err == nil {
		st := g.State()
		fmt.Printf("signal: %d/4 (rssi %d)\n", st.Signal, st.RSSI)
	}
	if b, err := g.CheckBattery(); err == nil {
		fmt.Printf("battery: %d%% %dmV charging %v charged %v\n",
			b.Level, b.Voltage, b.Charging(), b.Charged())
	}
	return nil
}

// replyLines splits a reply into its non-empty lines.
func replyLines(text string) []string {
	var lines []string
	for _, l := range strings.Split(text, "\r\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func newPortsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List the serial ports available on the host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ports, err := serial.Ports()
			if err != nil {
				return err
			}
			for _, p := range ports {
				if p.USB {
					fmt.Printf("%s\tUSB %s:%s %s %s\n", p.Name, p.VID, p.PID, p.Serial, p.Product)
					continue
				}
				fmt.Println(p.Name)
			}
			return nil
		},
	}
}

func newExecCmd() *cobra.Command {
	var expect string
	var timeout, interchar uint32
	var attempts int
	c := &cobra.Command{
		Use:   "exec <command>",
		Short: "Issue a raw AT command, omitting the AT prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()
			r, err := s.at.Exec(args[0], timeout, interchar, expect, attempts)
			for _, l := range replyLines(r.Text()) {
				fmt.Println(l)
			}
			return err
		},
	}
	c.Flags().StringVarP(&expect, "expect", "e", "OK", "text expected in the reply")
	c.Flags().Uint32VarP(&timeout, "timeout", "t", at.XLongTimeout, "reply start timeout in ms")
	c.Flags().Uint32Var(&interchar, "interchar", at.InterCharTimeout, "reply inter-character timeout in ms")
	c.Flags().IntVarP(&attempts, "attempts", "a", 1, "number of attempts")
	return c
}
