// Package resize implements validated growth or shrink of a single
// partition entry: alignment, overlap, usable-range, and shrink-policy
// constraints, followed by a full re-seal of the table through
// gpttable.Table.Save.
package resize

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import "github.com/cloudboss/zgpt/pkg/gpt"

const bytesPerMB = 1024 * 1024
const bytesPerGB = 1024 * 1024 * 1024

// sizeMode is a tagged variant over "resize by sector count" and "resize
// to an explicit end LBA" (§4.4, §9: modeled as a capability set, not an
// optional-fields record with implicit precedence).
type sizeMode int

const (
	bySectorsMode sizeMode = iota
	toEndLBAMode
)

// Operation specifies a target partition plus exactly one way to express
// its new size.
type Operation struct {
	Partition int
	mode      sizeMode
	value     uint64
}

// BySectors resizes partition to an exact sector count.
func BySectors(partition int, sectors uint64) Operation {
	return Operation{Partition: partition, mode: bySectorsMode, value: sectors}
}

// ToEndLBA resizes partition so its lba_end becomes exactly lba.
func ToEndLBA(partition int, lba uint64) Operation {
	return Operation{Partition: partition, mode: toEndLBAMode, value: lba}
}

// ByMegabytes resizes partition to a size expressed in MB, converted to
// sectors at gpt.SectorSize bytes/sector.
func ByMegabytes(partition int, mb uint64) Operation {
	return BySectors(partition, mb*bytesPerMB/gpt.SectorSize)
}

// ByGigabytes resizes partition to a size expressed in GB, converted to
// sectors at gpt.SectorSize bytes/sector.
func ByGigabytes(partition int, gb uint64) Operation {
	return BySectors(partition, gb*bytesPerGB/gpt.SectorSize)
}

// newEnd resolves the operation's target end LBA given the partition's
// current start LBA.
func (op Operation) newEnd(start uint64) uint64 {
	switch op.mode {
	case toEndLBAMode:
		return op.value
	default:
		return start + op.value - 1
	}
}

// Constraints bundles the options a resize is validated against (§4.4).
type Constraints struct {
	// AllowShrinking, if false (the default), fails any resize whose new
	// size is strictly less than the current size.
	AllowShrinking bool

	// AllowMoving is reserved for future use; this core never moves
	// lba_start regardless of its value.
	AllowMoving bool

	// MinSizeSectors is the smallest size in sectors a resize may
	// produce. Defaults to 1.
	MinSizeSectors uint64

	// AlignmentSectors requires (new_end+1) to be a multiple of this
	// value. Defaults to 1 (no alignment constraint).
	AlignmentSectors uint64
}

// DefaultConstraints returns the constraints used when none are
// specified: no shrinking, minimum size 1 sector, no alignment
// requirement.
func DefaultConstraints() Constraints {
	return Constraints{
		MinSizeSectors:   1,
		AlignmentSectors: 1,
	}
}
