package main

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cloudboss/zgpt/pkg/elog"
	"github.com/cloudboss/zgpt/pkg/gpterr"
)

var log elog.Logger

var (
	flagVerbose bool
	flagDebug   bool
)

var rootCmd = &cobra.Command{
	Use:   "gptctl",
	Short: "gptctl reads and resizes GUID Partition Tables on block devices and disk images",
}

func commandInit() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "d", false, "enable debug output")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Arguments have been validated by now; later failures are
		// reported by fail, so usage text is only shown for bad arguments.
		cmd.SilenceUsage = true

		logger := &elog.CLI{}
		logrus.SetFormatter(logger)
		logrus.SetLevel(logrus.TraceLevel)

		if flagDebug {
			logger.IsDebug = true
			logger.IsVerbose = true
		} else if flagVerbose {
			logger.IsVerbose = true
		}

		log = logger
		return nil
	}

	rootCmd.SilenceErrors = true

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(resizeCmd)
	rootCmd.AddCommand(resizeMaxCmd)
}

// diagnostic renders err as the one-line, human-readable message the CLI
// prints to stderr before exiting 1 (§7: every kind maps to exactly one
// message; unrecognized kinds fall through to a generic message naming
// the kind).
func diagnostic(op string, err error) string {
	kind := gpterr.KindOf(err)

	var reason string
	switch kind {
	case gpterr.InvalidSignature:
		reason = "not a GPT disk: bad signature"
	case gpterr.InvalidCrc32:
		reason = "corrupted table: checksum mismatch"
	case gpterr.InvalidHeaderSize:
		reason = "corrupted table: invalid header size"
	case gpterr.InvalidLbaRange:
		reason = "corrupted table: inconsistent LBA range"
	case gpterr.InvalidUuid:
		reason = "malformed GUID"
	case gpterr.InvalidBufferSize:
		reason = "internal I/O buffer size mismatch"
	case gpterr.InvalidState:
		reason = "table not loaded"
	case gpterr.PartitionNotFound:
		reason = "partition not found"
	case gpterr.PartitionTableFull:
		reason = "partition table is full"
	case gpterr.InvalidSize:
		reason = "invalid size"
	case gpterr.WouldShrink:
		reason = "resize would shrink the partition"
	case gpterr.NotEnoughSpace:
		reason = "not enough space"
	case gpterr.OverlapDetected:
		reason = "new size overlaps another partition"
	case gpterr.AlignmentError:
		reason = "new size is not aligned"
	case gpterr.IoError:
		reason = "I/O error"
	case gpterr.PermissionDenied:
		reason = "permission denied"
	case gpterr.NoDevice:
		reason = "no such device"
	case gpterr.DeviceBusy:
		reason = "device busy"
	case gpterr.NoSpaceLeft:
		reason = "no space left on device"
	case gpterr.Unseekable:
		reason = "device does not support seeking"
	default:
		return fmt.Sprintf("%s: failed (%s): %v", op, kind, err)
	}

	return fmt.Sprintf("%s: %s: %v", op, reason, err)
}

func fail(op string, err error) error {
	log.Errorf("%s", diagnostic(op, err))
	return err
}
