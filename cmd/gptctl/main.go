package main

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"os"
)

func main() {
	commandInit()

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
