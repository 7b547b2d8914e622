package gpt

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"encoding/binary"

	"github.com/cloudboss/zgpt/pkg/gpterr"
)

// Sizing constants fixed by the UEFI specification and assumed throughout
// this core (§6: only 512-byte sectors, only 128-byte entries are
// supported).
const (
	SectorSize = 512

	// Signature is "EFI PART" read as a little-endian uint64.
	Signature = 0x5452415020494645

	// HeaderSize is the minimum (and, for headers this core writes,
	// exact) significant length of a GPT header.
	HeaderSize = 92

	// EntrySize is the only partition-entry size this core understands.
	EntrySize = 128

	// DefaultNumEntries is the array length written for new headers.
	DefaultNumEntries = 128

	// PrimaryHeaderLBA is the fixed LBA of the primary header.
	PrimaryHeaderLBA = 1

	revisionCurrent = 0x00010000
)

// header field byte offsets, in on-disk order.
const (
	offSignature                = 0
	offRevision                 = 8
	offHeaderSize               = 12
	offHeaderCRC32              = 16
	offReserved1                = 20
	offMyLBA                    = 24
	offAlternateLBA             = 32
	offFirstUsableLBA           = 40
	offLastUsableLBA            = 48
	offDiskGUID                 = 56
	offPartitionEntryLBA        = 72
	offNumPartitionEntries      = 80
	offSizeofPartitionEntry     = 84
	offPartitionEntryArrayCRC32 = 88
)

// Header is the in-memory representation of a GPT header (primary or
// backup). Field names mirror the UEFI specification directly.
type Header struct {
	Signature                uint64
	Revision                 uint32
	HeaderSize               uint32
	HeaderCRC32              uint32
	MyLBA                    uint64
	AlternateLBA             uint64
	FirstUsableLBA           uint64
	LastUsableLBA            uint64
	DiskGUID                 GUID
	PartitionEntryLBA        uint64
	NumPartitionEntries      uint32
	SizeofPartitionEntry     uint32
	PartitionEntryArrayCRC32 uint32
}

// NewHeader returns a header populated with the revision and signature
// values this core writes for freshly-built tables. Callers still need to
// fill in the geometry-dependent fields (MyLBA, AlternateLBA, usable
// range, entry location, disk GUID, entry-array CRC) before encoding it.
func NewHeader() Header {
	return Header{
		Signature:            Signature,
		Revision:             revisionCurrent,
		HeaderSize:           HeaderSize,
		NumPartitionEntries:  DefaultNumEntries,
		SizeofPartitionEntry: EntrySize,
	}
}

// DecodeHeader parses a 512-byte sector into a Header, validating its
// signature, header_size, sizeof_partition_entry, and CRC-32 before
// returning. It never validates cross-header relationships (my_lba,
// alternate_lba); that is the context layer's job, since it alone knows
// which header (primary/backup) and which device geometry are in play.
func DecodeHeader(sector []byte) (Header, error) {
	const op = "decode_header"

	var h Header
	if len(sector) != SectorSize {
		return h, gpterr.New(gpterr.InvalidBufferSize, op, "sector must be %d bytes, got %d", SectorSize, len(sector))
	}

	h.Signature = binary.LittleEndian.Uint64(sector[offSignature:])
	if h.Signature != Signature {
		return h, gpterr.New(gpterr.InvalidSignature, op, "signature %#x != %#x", h.Signature, uint64(Signature))
	}

	h.HeaderSize = binary.LittleEndian.Uint32(sector[offHeaderSize:])
	if h.HeaderSize < HeaderSize || int(h.HeaderSize) > len(sector) {
		return h, gpterr.New(gpterr.InvalidHeaderSize, op, "header_size %d out of range", h.HeaderSize)
	}

	h.Revision = binary.LittleEndian.Uint32(sector[offRevision:])
	h.HeaderCRC32 = binary.LittleEndian.Uint32(sector[offHeaderCRC32:])
	h.MyLBA = binary.LittleEndian.Uint64(sector[offMyLBA:])
	h.AlternateLBA = binary.LittleEndian.Uint64(sector[offAlternateLBA:])
	h.FirstUsableLBA = binary.LittleEndian.Uint64(sector[offFirstUsableLBA:])
	h.LastUsableLBA = binary.LittleEndian.Uint64(sector[offLastUsableLBA:])
	copy(h.DiskGUID[:], sector[offDiskGUID:offDiskGUID+16])
	h.PartitionEntryLBA = binary.LittleEndian.Uint64(sector[offPartitionEntryLBA:])
	h.NumPartitionEntries = binary.LittleEndian.Uint32(sector[offNumPartitionEntries:])
	h.SizeofPartitionEntry = binary.LittleEndian.Uint32(sector[offSizeofPartitionEntry:])
	h.PartitionEntryArrayCRC32 = binary.LittleEndian.Uint32(sector[offPartitionEntryArrayCRC32:])

	if h.SizeofPartitionEntry != EntrySize {
		return h, gpterr.New(gpterr.InvalidHeaderSize, op, "sizeof_partition_entry %d != %d", h.SizeofPartitionEntry, EntrySize)
	}

	want := headerCRC(sector, h.HeaderSize)
	if want != h.HeaderCRC32 {
		return h, gpterr.New(gpterr.InvalidCrc32, op, "header_crc32 %#x != computed %#x", h.HeaderCRC32, want)
	}

	return h, nil
}

// headerCRC computes the CRC-32 over the first size bytes of sector with
// the header_crc32 field (bytes 16..20) temporarily treated as zero, per
// §4.1.
func headerCRC(sector []byte, size uint32) uint32 {
	buf := make([]byte, size)
	copy(buf, sector[:size])
	binary.LittleEndian.PutUint32(buf[offHeaderCRC32:], 0)
	return crc32Of(buf)
}

// Encode serializes h into a zero-padded 512-byte sector, recomputing
// HeaderCRC32 over h.HeaderSize bytes as it goes. The computed header_crc32
// (and the effective header size) is also written back into h so callers
// can inspect it without a second decode.
func (h *Header) Encode() [SectorSize]byte {
	var sector [SectorSize]byte

	size := h.HeaderSize
	if size == 0 {
		size = HeaderSize
	}

	binary.LittleEndian.PutUint64(sector[offSignature:], h.Signature)
	binary.LittleEndian.PutUint32(sector[offRevision:], h.Revision)
	binary.LittleEndian.PutUint32(sector[offHeaderSize:], size)
	// offHeaderCRC32 left zero for the CRC pass below.
	binary.LittleEndian.PutUint64(sector[offMyLBA:], h.MyLBA)
	binary.LittleEndian.PutUint64(sector[offAlternateLBA:], h.AlternateLBA)
	binary.LittleEndian.PutUint64(sector[offFirstUsableLBA:], h.FirstUsableLBA)
	binary.LittleEndian.PutUint64(sector[offLastUsableLBA:], h.LastUsableLBA)
	copy(sector[offDiskGUID:offDiskGUID+16], h.DiskGUID[:])
	binary.LittleEndian.PutUint64(sector[offPartitionEntryLBA:], h.PartitionEntryLBA)
	binary.LittleEndian.PutUint32(sector[offNumPartitionEntries:], h.NumPartitionEntries)
	binary.LittleEndian.PutUint32(sector[offSizeofPartitionEntry:], h.SizeofPartitionEntry)
	binary.LittleEndian.PutUint32(sector[offPartitionEntryArrayCRC32:], h.PartitionEntryArrayCRC32)

	crc := crc32Of(sector[:size])
	binary.LittleEndian.PutUint32(sector[offHeaderCRC32:], crc)

	h.HeaderSize = size
	h.HeaderCRC32 = crc

	return sector
}
