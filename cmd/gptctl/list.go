package main

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"os"

	"github.com/sisatech/tablewriter"
	"github.com/spf13/cobra"

	"github.com/cloudboss/zgpt/pkg/gpttable"
	"github.com/cloudboss/zgpt/pkg/resize"
)

var listCmd = &cobra.Command{
	Use:   "list <dev>",
	Short: "print every non-empty partition entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		const op = "list"

		t, err := gpttable.Open(args[0])
		if err != nil {
			return fail(op, err)
		}
		defer t.Close()

		if err := t.Load(); err != nil {
			return fail(op, err)
		}

		partitions, err := resize.ListPartitions(t)
		if err != nil {
			return fail(op, err)
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"#", "start lba", "end lba", "size", "name"})
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		table.SetBorder(false)
		table.SetColumnSeparator("")

		for _, p := range partitions {
			table.Append([]string{
				itoa(p.Index),
				u64toa(p.StartLBA),
				u64toa(p.EndLBA),
				byteSize(p.SizeBytes),
				p.Name,
			})
		}
		table.Render()

		return nil
	},
}
