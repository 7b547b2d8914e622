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

var resizeCmd = &cobra.Command{
	Use:   "resize <dev> <n> <mb>",
	Short: "resize a partition to an exact size in MiB",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		const op = "resize"

		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fail(op, gpterr.New(gpterr.PartitionNotFound, op, "slot index %q is not a decimal integer", args[1]))
		}
		mb, err := strconv.ParseUint(args[2], 10, 64)
		if err != nil {
			return fail(op, gpterr.New(gpterr.InvalidSize, op, "size %q is not a decimal integer", args[2]))
		}

		t, err := gpttable.Open(args[0])
		if err != nil {
			return fail(op, err)
		}
		defer t.Close()

		if err := t.Load(); err != nil {
			return fail(op, err)
		}

		if err := resize.Resize(t, resize.ByMegabytes(n, mb), resize.DefaultConstraints()); err != nil {
			return fail(op, err)
		}

		info, _ := resize.GetPartitionInfo(t, n)
		log.Printf("slot %d resized to %s (%d sectors)", n, byteSize(info.SizeBytes), info.SizeSectors)

		return nil
	},
}

var resizeMaxCmd = &cobra.Command{
	Use:   "resize-max <dev> <n>",
	Short: "resize a partition to its maximum contiguous size",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		const op = "resize-max"

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

		if err := resize.ResizeToMax(t, n); err != nil {
			return fail(op, err)
		}

		info, _ := resize.GetPartitionInfo(t, n)
		log.Printf("slot %d resized to %s (%d sectors)", n, byteSize(info.SizeBytes), info.SizeSectors)

		return nil
	},
}
