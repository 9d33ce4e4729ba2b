// SPDX-License-Identifier: MIT
//
// Copyright © 2026 The Advanced-GPRS-Shield Authors.

//go:build !linux && !darwin && !windows

package serial

var defaultConfig = Config{
	Port: "/dev/ttyS0",
	Baud: 115200,
}
