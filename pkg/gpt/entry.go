package gpt

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"encoding/binary"
	"unicode/utf16"

	"github.com/cloudboss/zgpt/pkg/gpterr"
)

// nameUnits is the number of UTF-16LE code units reserved for a
// partition's name field (72 bytes / 2 bytes per unit).
const nameUnits = 36

// entry field byte offsets, in on-disk order.
const (
	offTypeGUID      = 0
	offPartitionGUID = 16
	offLBAStart      = 32
	offLBAEnd        = 40
	offAttributes    = 48
	offName          = 56
)

// Entry is the in-memory representation of one 128-byte partition-entry
// record. LBAEnd is inclusive, matching the on-disk convention.
type Entry struct {
	TypeGUID      GUID
	PartitionGUID GUID
	LBAStart      uint64
	LBAEnd        uint64
	Attributes    uint64
	nameUnits     [nameUnits]uint16
}

// IsEmpty reports whether the slot is unused (type_guid all zero).
func (e *Entry) IsEmpty() bool {
	return e.TypeGUID.IsZero()
}

// SizeSectors returns the entry's size in sectors, or 0 if LBAEnd precedes
// LBAStart (an empty or degenerate slot).
func (e *Entry) SizeSectors() uint64 {
	if e.LBAEnd < e.LBAStart {
		return 0
	}
	return e.LBAEnd - e.LBAStart + 1
}

// Name decodes the entry's name field as proper UTF-16LE text, stopping at
// the first zero code unit.
func (e *Entry) Name() string {
	units := e.nameUnits[:]
	for i, u := range units {
		if u == 0 {
			units = units[:i]
			break
		}
	}
	return string(utf16.Decode(units))
}

// NameASCII is the lossy narrowing decode, used only where a
// byte-for-code-unit projection is explicitly requested (e.g. matching a
// legacy table dump): it keeps the low byte of each non-zero code unit
// until the first zero.
func (e *Entry) NameASCII() string {
	var b []byte
	for _, u := range e.nameUnits {
		if u == 0 {
			break
		}
		b = append(b, byte(u))
	}
	return string(b)
}

// SetName encodes name as UTF-16LE into the entry's fixed-width name
// field, truncating to nameUnits-1 code units and zero-terminating if
// there is room. The core treats this field as opaque metadata.
func (e *Entry) SetName(name string) {
	var units [nameUnits]uint16
	encoded := utf16.Encode([]rune(name))
	n := len(encoded)
	if n > nameUnits-1 {
		n = nameUnits - 1
	}
	copy(units[:n], encoded[:n])
	e.nameUnits = units
}

// DecodeEntry parses one 128-byte contiguous record into an Entry.
func DecodeEntry(buf []byte) (Entry, error) {
	const op = "decode_entry"

	var e Entry
	if len(buf) != EntrySize {
		return e, gpterr.New(gpterr.InvalidBufferSize, op, "entry must be %d bytes, got %d", EntrySize, len(buf))
	}

	copy(e.TypeGUID[:], buf[offTypeGUID:offTypeGUID+16])
	copy(e.PartitionGUID[:], buf[offPartitionGUID:offPartitionGUID+16])
	e.LBAStart = binary.LittleEndian.Uint64(buf[offLBAStart:])
	e.LBAEnd = binary.LittleEndian.Uint64(buf[offLBAEnd:])
	e.Attributes = binary.LittleEndian.Uint64(buf[offAttributes:])

	for i := 0; i < nameUnits; i++ {
		e.nameUnits[i] = binary.LittleEndian.Uint16(buf[offName+2*i:])
	}

	return e, nil
}

// Encode serializes e into a 128-byte record.
func (e *Entry) Encode() [EntrySize]byte {
	var buf [EntrySize]byte

	copy(buf[offTypeGUID:offTypeGUID+16], e.TypeGUID[:])
	copy(buf[offPartitionGUID:offPartitionGUID+16], e.PartitionGUID[:])
	binary.LittleEndian.PutUint64(buf[offLBAStart:], e.LBAStart)
	binary.LittleEndian.PutUint64(buf[offLBAEnd:], e.LBAEnd)
	binary.LittleEndian.PutUint64(buf[offAttributes:], e.Attributes)

	for i, u := range e.nameUnits {
		binary.LittleEndian.PutUint16(buf[offName+2*i:], u)
	}

	return buf
}

// EntryArrayCRC computes the CRC-32 over num*EntrySize bytes of a
// contiguous, already-serialized entry array, including trailing
// zero/empty entries.
func EntryArrayCRC(buf []byte, num uint32) (uint32, error) {
	const op = "entry_array_crc"

	want := int(num) * EntrySize
	if len(buf) != want {
		return 0, gpterr.New(gpterr.InvalidBufferSize, op, "entry array must be %d bytes for %d entries, got %d", want, num, len(buf))
	}
	return crc32Of(buf), nil
}

// EncodeEntries serializes entries into a contiguous num*EntrySize byte
// buffer (entries beyond len(entries) are left zeroed, matching an
// all-empty slot) and returns its CRC-32 alongside it.
func EncodeEntries(entries []Entry, num uint32) ([]byte, uint32, error) {
	const op = "encode_entries"

	if uint32(len(entries)) > num {
		return nil, 0, gpterr.New(gpterr.InvalidBufferSize, op, "%d entries exceeds array length %d", len(entries), num)
	}

	buf := make([]byte, int(num)*EntrySize)
	for i := range entries {
		rec := entries[i].Encode()
		copy(buf[i*EntrySize:], rec[:])
	}

	crc, err := EntryArrayCRC(buf, num)
	if err != nil {
		return nil, 0, err
	}
	return buf, crc, nil
}
