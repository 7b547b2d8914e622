package main

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import "fmt"

func itoa(n int) string {
	return fmt.Sprintf("%d", n)
}

func u64toa(n uint64) string {
	return fmt.Sprintf("%d", n)
}

// byteSize renders a byte count the way the table output abbreviates
// large sizes: whole binary units only, falling back to raw bytes.
func byteSize(n uint64) string {
	const (
		kib = 1024
		mib = 1024 * kib
		gib = 1024 * mib
	)
	switch {
	case n != 0 && n%gib == 0:
		return fmt.Sprintf("%dG", n/gib)
	case n != 0 && n%mib == 0:
		return fmt.Sprintf("%dM", n/mib)
	case n != 0 && n%kib == 0:
		return fmt.Sprintf("%dK", n/kib)
	default:
		return fmt.Sprintf("%d", n)
	}
}
