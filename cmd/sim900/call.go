// SPDX-License-Identifier: MIT
//
// Copyright © 2026 The Advanced-GPRS-Shield Authors.

package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newCallCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "call",
		Short: "Voice call control",
	}
	var first, last int
	status := &cobra.Command{
		Use:   "status",
		Short: "Display the current call",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()
			call, err := s.gsm.CallStatusWithAuth(first, last)
			if err != nil {
				return err
			}
			fmt.Printf("%s %s", call.State, call.Number)
			if call.Authorized {
				fmt.Print(" (authorized)")
			}
			fmt.Println()
			return nil
		},
	}
	status.Flags().IntVar(&first, "first", 0, "first phonebook position of authorized callers")
	status.Flags().IntVar(&last, "last", 0, "last phonebook position of authorized callers")
	var pos int
	dial := &cobra.Command{
		Use:   "dial [number]",
		Short: "Dial a number, or the number at a SIM phonebook position",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 0) == (pos == 0) {
				return errors.New("specify either a number or a position")
			}
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()
			if pos != 0 {
				return s.gsm.DialPosition(pos)
			}
			return s.gsm.Dial(args[0])
		},
	}
	dial.Flags().IntVar(&pos, "position", 0, "SIM phonebook position to dial")
	simple := func(use, short string, fn func(*session) error) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := openSession(cmd)
				if err != nil {
					return err
				}
				defer s.Close()
				return fn(s)
			},
		}
	}
	c.AddCommand(
		status,
		dial,
		simple("answer", "Answer an incoming call", func(s *session) error { return s.gsm.PickUp() }),
		simple("hangup", "End the current call", func(s *session) error { return s.gsm.HangUp() }),
	)
	return c
}
