// SPDX-License-Identifier: MIT
//
// Copyright © 2026 The Advanced-GPRS-Shield Authors.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/sigalabs/Advanced-GPRS-Shield/gprs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const iniFile = `
[modem]
port = /dev/ttyS1
baud = 9600
power_pin = GPIO17

[gprs]
apn = internet
user = web
password = secret
`

func lookup(env map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
}

func TestResolveConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim900.ini")
	require.Nil(t, os.WriteFile(path, []byte(iniFile), 0o644))

	patterns := []struct {
		name string
		args []string
		env  map[string]string
		cfg  config
		err  bool
	}{
		{
			"defaults",
			nil,
			nil,
			config{Baud: 115200, PowerPulses: 3},
			false,
		},
		{
			"file",
			[]string{"-c", path},
			nil,
			config{
				Port:        "/dev/ttyS1",
				Baud:        9600,
				PowerPin:    "GPIO17",
				PowerPulses: 3,
				APN:         "internet",
				APNUser:     "web",
				APNPassword: "secret",
			},
			false,
		},
		{
			"env overrides file",
			[]string{"-c", path},
			map[string]string{"SIM900_PORT": "/dev/ttyACM0", "SIM900_BAUD": "19200"},
			config{
				Port:        "/dev/ttyACM0",
				Baud:        19200,
				PowerPin:    "GPIO17",
				PowerPulses: 3,
				APN:         "internet",
				APNUser:     "web",
				APNPassword: "secret",
			},
			false,
		},
		{
			"flags override env",
			[]string{"-c", path, "-p", "/dev/ttyUSB1", "--apn", "m2m", "-v", "--power-pulses", "0"},
			map[string]string{"SIM900_PORT": "/dev/ttyACM0"},
			config{
				Port:        "/dev/ttyUSB1",
				Baud:        9600,
				PowerPin:    "GPIO17",
				APN:         "m2m",
				APNUser:     "web",
				APNPassword: "secret",
				Verbose:     true,
			},
			false,
		},
		{
			"bridge",
			[]string{"-u", "wss://bridge/modem", "--username", "admin", "--no-ssl-verify"},
			nil,
			config{
				Baud:        115200,
				URL:      "wss://bridge/modem",
				Username: "admin",
				Insecure:    true,
				PowerPulses: 3,
			},
			false,
		},
		{
			"bad baud",
			nil,
			map[string]string{"SIM900_BAUD": "fast"},
			config{},
			true,
		},
		{
			"missing file",
			[]string{"-c", filepath.Join(t.TempDir(), "missing.ini")},
			nil,
			config{},
			true,
		},
	}
	for _, p := range patterns {
		f := func(t *testing.T) {
			root := newRootCmd()
			require.Nil(t, root.ParseFlags(p.args))
			cfg, err := resolveConfig(root, lookup(p.env))
			if p.err {
				assert.NotNil(t, err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, p.cfg, cfg)
		}
		t.Run(p.name, f)
	}
}

func TestPosition(t *testing.T) {
	pos, err := position("12")
	assert.Nil(t, err)
	assert.Equal(t, 12, pos)
	for _, arg := range []string{"0", "-1", "x", ""} {
		_, err := position(arg)
		assert.NotNil(t, err, arg)
	}
}

func TestReplyLines(t *testing.T) {
	assert.Equal(t, []string{"+CSQ: 20,0", "OK"}, replyLines("\r\n+CSQ: 20,0\r\n\r\nOK\r\n"))
	assert.Nil(t, replyLines("\r\n\r\n"))
}

type fakeSocket struct {
	open    bool
	sent    []byte
	replies [][]byte
	errs    []error
	closed  bool
}

func (f *fakeSocket) OpenSocket(p gprs.Protocol, port uint16, addr string) error {
	f.open = true
	return nil
}

func (f *fakeSocket) Send(data []byte) error {
	f.sent = append(f.sent, data...)
	return nil
}

func (f *fakeSocket) Receive(start, interchar uint32) ([]byte, error) {
	if len(f.replies) == 0 {
		return nil, nil
	}
	data, err := f.replies[0], f.errs[0]
	f.replies, f.errs = f.replies[1:], f.errs[1:]
	return data, err
}

func (f *fakeSocket) CloseSocket() error {
	f.closed = true
	return nil
}

func TestHTTPGet(t *testing.T) {
	patterns := []struct {
		name    string
		replies [][]byte
		errs    []error
		out     string
		err     error
	}{
		{
			"remote closed",
			[][]byte{[]byte("HTTP/1.0 200 OK\r\n"), []byte("\r\nhello")},
			[]error{nil, gprs.ErrRemoteClosed},
			"HTTP/1.0 200 OK\r\n\r\nhello",
			nil,
		},
		{
			"timeout",
			[][]byte{[]byte("HTTP/1.0 200 OK\r\n\r\n")},
			[]error{nil},
			"HTTP/1.0 200 OK\r\n\r\n",
			nil,
		},
		{
			"lost",
			[][]byte{nil},
			[]error{gprs.ErrNoSocket},
			"",
			gprs.ErrNoSocket,
		},
	}
	for _, p := range patterns {
		f := func(t *testing.T) {
			s := &fakeSocket{replies: p.replies, errs: p.errs}
			var out bytes.Buffer
			err := httpGet(s, &out, "example.com", 80, "/index.html")
			assert.True(t, errors.Is(err, p.err) || err == p.err, err)
			assert.Equal(t, p.out, out.String())
			assert.True(t, s.open)
			assert.True(t, s.closed)
			assert.Equal(t,
				"GET /index.html HTTP/1.0\r\nHost: example.com\r\nConnection: close\r\n\r\n",
				string(s.sent))
		}
		t.Run(p.name, f)
	}
}
