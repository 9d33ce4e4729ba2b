// SPDX-License-Identifier: MIT
//
// Copyright © 2026 The Advanced-GPRS-Shield Authors.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPhonebookCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "phonebook",
		Short: "Manage the SIM phonebook",
	}
	c.AddCommand(
		&cobra.Command{
			Use:   "read <position>",
			Short: "Display the number at a SIM phonebook position",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				pos, err := position(args[0])
				if err != nil {
					return err
				}
				s, err := openSession(cmd)
				if err != nil {
					return err
				}
				defer s.Close()
				number, err := s.gsm.GetPhoneNumber(pos)
				if err != nil {
					return err
				}
				fmt.Printf("%d: %s\n", pos, number)
				return nil
			},
		},
		&cobra.Command{
			Use:   "write <position> <number>",
			Short: "Store a number at a SIM phonebook position",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				pos, err := position(args[0])
				if err != nil {
					return err
				}
				s, err := openSession(cmd)
				if err != nil {
					return err
				}
				defer s.Close()
				return s.gsm.WritePhoneNumber(pos, args[1])
			},
		},
		&cobra.Command{
			Use:   "delete <position>",
			Short: "Clear a SIM phonebook position",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				pos, err := position(args[0])
				if err != nil {
					return err
				}
				s, err := openSession(cmd)
				if err != nil {
					return err
				}
				defer s.Close()
				return s.gsm.DelPhoneNumber(pos)
			},
		},
	)
	return c
}
