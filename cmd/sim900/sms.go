// SPDX-License-Identifier: MIT
//
// Copyright © 2026 The Advanced-GPRS-Shield Authors.

package main

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sigalabs/Advanced-GPRS-Shield/gsm"
	"github.com/spf13/cobra"
)

var smsFilters = map[string]gsm.SMSFilter{
	"unread": gsm.SMSFilterUnread,
	"read":   gsm.SMSFilterRead,
	"all":    gsm.SMSFilterAll,
}

func newSMSCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "sms",
		Short: "Send and manage SMS messages",
	}
	c.AddCommand(newSMSSendCmd(), newSMSReadCmd(), newSMSListCmd(), newSMSDeleteCmd())
	return c
}

func newSMSSendCmd() *cobra.Command {
	var pdu bool
	c := &cobra.Command{
		Use:   "send <number> <message>",
		Short: "Send an SMS",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()
			if pdu {
				mrs, err := s.gsm.SendPDU(args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Printf("sent %d part(s), mr %v\n", len(mrs), mrs)
				return nil
			}
			if err := s.gsm.InitParam(gsm.ParamSet1); err != nil {
				return err
			}
			mr, err := s.gsm.SendSMS(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("sent, mr %d\n", mr)
			return nil
		},
	}
	c.Flags().BoolVar(&pdu, "pdu", false, "send in PDU mode, splitting long messages")
	return c
}

func newSMSReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <position>",
		Short: "Display the SMS at a SIM position",
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
			m, err := s.gsm.ReadSMS(pos)
			if err != nil {
				return err
			}
			fmt.Printf("%d: %s %s\n%s\n", pos, m.Status, m.Number, m.Body)
			return nil
		},
	}
}

func newSMSListCmd() *cobra.Command {
	var filter string
	c := &cobra.Command{
		Use:   "list",
		Short: "Display the first SMS matching the filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, ok := smsFilters[filter]
			if !ok {
				return errors.Errorf("unknown filter %q", filter)
			}
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()
			pos, err := s.gsm.IsSMSPresent(f)
			if err != nil {
				return err
			}
			if pos == 0 {
				fmt.Println("no messages")
				return nil
			}
			m, err := s.gsm.ReadSMS(pos)
			if err != nil {
				return err
			}
			fmt.Printf("%d: %s %s\n%s\n", pos, m.Status, m.Number, m.Body)
			return nil
		},
	}
	c.Flags().StringVarP(&filter, "filter", "f", "unread", "unread, read or all")
	return c
}

func newSMSDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <position>",
		Short: "Delete the SMS at a SIM position",
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
			return s.gsm.DeleteSMS(pos)
		},
	}
}

// position parses a SIM storage position, which is 1 based.
func position(arg string) (int, error) {
	pos, err := strconv.Atoi(arg)
	if err != nil || pos < 1 {
		return 0, errors.Errorf("invalid position %q", arg)
	}
	return pos, nil
}
