// SPDX-License-Identifier: MIT
//
// Copyright © 2020 Kent Gibson <warthog618@gmail.com>.
// Copyright © 2026 The Advanced-GPRS-Shield Authors.

//go:build darwin

package serial

var defaultConfig = Config{
	Port: "/dev/tty.usbserial",
	Baud: 115200,
}
