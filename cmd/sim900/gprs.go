// SPDX-License-Identifier: MIT
//
// Copyright © 2026 The Advanced-GPRS-Shield Authors.

package main

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sigalabs/Advanced-GPRS-Shield/at"
	"github.com/sigalabs/Advanced-GPRS-Shield/gprs"
	"github.com/spf13/cobra"
)

func newGPRSCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "gprs",
		Short: "GPRS data connections",
	}
	var port uint16
	var reopen bool
	get := &cobra.Command{
		Use:   "get <host> [path]",
		Short: "Fetch a resource over HTTP and write it to stdout",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/"
			if len(args) > 1 {
				path = args[1]
			}
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()
			if s.cfg.APN == "" {
				return errors.New("no APN configured")
			}
			g := gprs.New(s.at)
			mode := gprs.CheckAndOpen
			if reopen {
				mode = gprs.CloseAndReopen
			}
			if err := g.Init(s.cfg.APN, s.cfg.APNUser, s.cfg.APNPassword); err != nil {
				return err
			}
			if err := g.Enable(mode); err != nil {
				return err
			}
			return httpGet(g, os.Stdout, args[0], port, path)
		},
	}
	get.Flags().Uint16Var(&port, "http-port", 80, "remote port")
	get.Flags().BoolVar(&reopen, "reopen", false, "close and reopen the GPRS context")
	c.AddCommand(get)
	return c
}

// socket is the subset of GPRS used by httpGet.
type socket interface {
	OpenSocket(p gprs.Protocol, port uint16, addr string) error
	Send(data []byte) error
	Receive(start, interchar uint32) ([]byte, error)
	CloseSocket() error
}

// httpGet performs an HTTP/1.0 GET, copying the raw response to w.
//
// The response is complete when the server closes the socket, or when no
// data arrives within the receive timeout.
func httpGet(s socket, w io.Writer, host string, port uint16, path string) error {
	if err := s.OpenSocket(gprs.TCP, port, host); err != nil {
		return err
	}
	defer s.CloseSocket()
	if err := s.Send(httpRequest(host, path)); err != nil {
		return err
	}
	for {
		data, err := s.Receive(at.XXLongTimeout, at.LongInterCharTimeout)
		if _, werr := w.Write(data); werr != nil {
			return werr
		}
		if errors.Is(err, gprs.ErrRemoteClosed) {
			return nil
		}
		if err != nil {
			return err
		}
		if len(data) == 0 {
			return nil
		}
	}
}

func httpRequest(host, path string) []byte {
	var b bytes.Buffer
	b.WriteString("GET " + path + " HTTP/1.0\r\n")
	b.WriteString("Host: " + host + "\r\n")
	b.WriteString("Connection: close\r\n\r\n")
	return b.Bytes()
}
