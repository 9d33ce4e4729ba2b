// SPDX-License-Identifier: MIT
//
// Copyright © 2020 Kent Gibson <warthog618@gmail.com>.
// Copyright © 2026 The Advanced-GPRS-Shield Authors.

//go:build windows

package serial

var defaultConfig = Config{
	Port: "COM1",
	Baud: 115200,
}
