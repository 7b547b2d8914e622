package resize

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"github.com/cloudboss/zgpt/pkg/gpt"
	"github.com/cloudboss/zgpt/pkg/gpterr"
	"github.com/cloudboss/zgpt/pkg/gpttable"
)

// Resize validates and applies op against t's currently loaded table,
// subject to constraints, and commits the result through t.Save. Any
// validation failure (steps 1-8) returns before touching disk, leaving
// the context and device untouched; an I/O failure during Save may leave
// the disk partially updated (§5).
func Resize(t *gpttable.Table, op Operation, constraints Constraints) error {
	const opName = "resize"

	if constraints.MinSizeSectors == 0 {
		constraints.MinSizeSectors = 1
	}
	if constraints.AlignmentSectors == 0 {
		constraints.AlignmentSectors = 1
	}

	header := t.PrimaryHeader()
	if header == nil {
		return gpterr.New(gpterr.InvalidState, opName, "primary header not loaded")
	}
	entries, err := t.Entries()
	if err != nil {
		return err
	}

	entry := t.GetPartition(op.Partition)
	if entry == nil {
		return gpterr.New(gpterr.PartitionNotFound, opName, "partition %d is empty or out of range", op.Partition)
	}

	start := entry.LBAStart
	curSize := entry.SizeSectors()

	newEnd := op.newEnd(start)
	if newEnd < start {
		return gpterr.New(gpterr.InvalidSize, opName, "resulting end lba %d precedes start lba %d", newEnd, start)
	}
	newSize := newEnd - start + 1

	if newSize < constraints.MinSizeSectors {
		return gpterr.New(gpterr.InvalidSize, opName, "new size %d sectors is below minimum %d", newSize, constraints.MinSizeSectors)
	}

	if !constraints.AllowShrinking && newSize < curSize {
		return gpterr.New(gpterr.WouldShrink, opName, "new size %d sectors is less than current size %d", newSize, curSize)
	}

	if (newEnd+1)%constraints.AlignmentSectors != 0 {
		return gpterr.New(gpterr.AlignmentError, opName, "new_end+1 (%d) is not a multiple of alignment %d", newEnd+1, constraints.AlignmentSectors)
	}

	if newEnd > header.LastUsableLBA {
		return gpterr.New(gpterr.NotEnoughSpace, opName, "new end lba %d exceeds last usable lba %d", newEnd, header.LastUsableLBA)
	}

	for i := range entries {
		if i == op.Partition || entries[i].IsEmpty() {
			continue
		}
		if intervalsOverlap(start, newEnd, entries[i].LBAStart, entries[i].LBAEnd) {
			return gpterr.New(gpterr.OverlapDetected, opName, "new range [%d,%d] overlaps partition %d's range [%d,%d]",
				start, newEnd, i, entries[i].LBAStart, entries[i].LBAEnd)
		}
	}

	entry.LBAEnd = newEnd

	return t.Save()
}

// intervalsOverlap reports whether the closed intervals [aStart,aEnd] and
// [bStart,bEnd] intersect (§4.4 step 8: they intersect unless one ends
// strictly before the other starts).
func intervalsOverlap(aStart, aEnd, bStart, bEnd uint64) bool {
	return !(aEnd < bStart || aStart > bEnd)
}

// MaxSize returns the largest size in sectors partition could grow to:
// the gap between its current start LBA and the smallest start LBA among
// other non-empty entries that begins after its current end LBA, or the
// space up to last_usable_lba if no such entry exists. A return of 0
// means the partition cannot grow at all.
func MaxSize(t *gpttable.Table, partition int) (uint64, error) {
	const op = "max_size"

	header := t.PrimaryHeader()
	if header == nil {
		return 0, gpterr.New(gpterr.InvalidState, op, "primary header not loaded")
	}
	entries, err := t.Entries()
	if err != nil {
		return 0, err
	}

	entry := t.GetPartition(partition)
	if entry == nil {
		return 0, gpterr.New(gpterr.PartitionNotFound, op, "partition %d is empty or out of range", partition)
	}

	nextStart := header.LastUsableLBA + 1
	for i := range entries {
		if i == partition || entries[i].IsEmpty() {
			continue
		}
		if entries[i].LBAStart > entry.LBAEnd && entries[i].LBAStart < nextStart {
			nextStart = entries[i].LBAStart
		}
	}

	if nextStart <= entry.LBAStart {
		return 0, nil
	}
	return nextStart - entry.LBAStart, nil
}

// ResizeToMax grows partition to the largest size MaxSize reports,
// applying default constraints (so a table configured to refuse shrinking
// still refuses a degenerate result, though MaxSize never recommends one
// smaller than the current size since the search starts past the current
// end LBA).
func ResizeToMax(t *gpttable.Table, partition int) error {
	const op = "resize_to_max"

	max, err := MaxSize(t, partition)
	if err != nil {
		return err
	}
	if max == 0 {
		return gpterr.New(gpterr.NotEnoughSpace, op, "partition %d has no room to grow", partition)
	}

	return Resize(t, BySectors(partition, max), DefaultConstraints())
}

// PartitionInfo is a read-only snapshot of one non-empty partition-entry
// slot, returned by ListPartitions and GetPartitionInfo.
type PartitionInfo struct {
	Index       int
	StartLBA    uint64
	EndLBA      uint64
	SizeSectors uint64
	SizeBytes   uint64
	TypeGUID    gpt.GUID
	Name        string
}

func infoFor(index int, e *gpt.Entry) PartitionInfo {
	size := e.SizeSectors()
	return PartitionInfo{
		Index:       index,
		StartLBA:    e.LBAStart,
		EndLBA:      e.LBAEnd,
		SizeSectors: size,
		SizeBytes:   size * gpt.SectorSize,
		TypeGUID:    e.TypeGUID,
		Name:        e.Name(),
	}
}

// ListPartitions returns one PartitionInfo per non-empty slot, indexed by
// raw slot position (consistent with GetPartitionInfo and with
// gpttable.Table.GetPartition: §9's documented slot-indexing choice).
func ListPartitions(t *gpttable.Table) ([]PartitionInfo, error) {
	const op = "list_partitions"

	entries, err := t.Entries()
	if err != nil {
		return nil, err
	}

	var out []PartitionInfo
	for i := range entries {
		if entries[i].IsEmpty() {
			continue
		}
		out = append(out, infoFor(i, &entries[i]))
	}
	return out, nil
}

// GetPartitionInfo returns the PartitionInfo for slot n, or ok=false if
// the slot is empty or out of range.
func GetPartitionInfo(t *gpttable.Table, n int) (info PartitionInfo, ok bool) {
	entry := t.GetPartition(n)
	if entry == nil {
		return PartitionInfo{}, false
	}
	return infoFor(n, entry), true
}
