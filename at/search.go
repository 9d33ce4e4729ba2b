// SPDX-License-Identifier: MIT
//
// Copyright © 2026 The Advanced-GPRS-Shield Authors.

package at

// IndexBin returns the offset of the first occurrence of needle in data, or
// -1 if needle is not present.
//
// All len(data) bytes are searched, so embedded NULs are treated as ordinary
// data. An empty needle matches at offset 0 of any non-empty data.
func IndexBin(data []byte, needle string) int {
	if len(data) == 0 {
		return -1
	}
	if len(needle) == 0 {
		return 0
	}
	start := 0
	i := 0
	j := 0
	for i < len(data) {
		if data[i] == needle[j] {
			i++
			j++
			if j == len(needle) {
				return start
			}
			continue
		}
		// restart after the last untried start position
		start++
		i = start
		j = 0
	}
	return -1
}

// Text returns the portion of data preceding the first NUL.
func Text(data []byte) []byte {
	for i, b := range data {
		if b == 0 {
			return data[:i]
		}
	}
	return data
}

// Contains returns true if the text in data, which ends at the first NUL,
// contains s.
func Contains(data []byte, s string) bool {
	return IndexBin(Text(data), s) != -1
}
