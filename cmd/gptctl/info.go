package main

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cloudboss/zgpt/pkg/gpterr"
	"github.com/cloudboss/zgpt/pkg/gpttable"
	"github.com/cloudboss/zgpt/pkg/resize"
)

var infoCmd = &cobra.Command{
	Use:   "info <dev> <n>",
	Short: "print a detailed record for one partition slot",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		const op = "info"

		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fail(op, gpterr.New(gpterr.PartitionNotFound, op, "slot index %q is not a decimal integer", args[1]))
		}

		t, err := gpttable.Open(args[0])
		if err != nil {
			return fail(op, err)
		}
		defer t.Close()

		if err := t.Load(); err != nil {
			return fail(op, err)
		}

		info, ok := resize.GetPartitionInfo(t, n)
		if !ok {
			log.Printf("slot %d: not found", n)
			return nil
		}

		log.Printf("slot:       %d", info.Index)
		log.Printf("name:       %s", info.Name)
		log.Printf("type guid:  %s", info.TypeGUID)
		log.Printf("start lba:  %d", info.StartLBA)
		log.Printf("end lba:    %d", info.EndLBA)
		log.Printf("size:       %s (%d sectors)", byteSize(info.SizeBytes), info.SizeSectors)

		return nil
	},
}
