package gpt

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/cloudboss/zgpt/pkg/gpterr"
)

// GUID is the 16-byte mixed-endian identifier used for disk and partition
// type/instance identity. The first three fields are little-endian on
// disk; clock_seq and node are raw bytes in field order. This is the
// layout the UEFI specification (and Microsoft's GUID convention) uses,
// which differs from the big-endian textual layout of a plain RFC 4122
// UUID.
type GUID [16]byte

// Empty is the all-zero GUID used to mark an unused partition entry slot.
var Empty GUID

// IsZero reports whether g is the all-zero GUID.
func (g GUID) IsZero() bool {
	return g == Empty
}

// NewGUID generates a random GUID. It borrows its entropy from
// github.com/google/uuid's version-4 generator; the 16 random bytes are
// reinterpreted directly as a mixed-endian GUID's raw buffer, which is
// valid because random generation does not care about field layout.
func NewGUID() (GUID, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return Empty, gpterr.Wrap(gpterr.IoError, "new_guid", err)
	}
	var g GUID
	copy(g[:], u[:])
	return g, nil
}

// ParseGUID parses the canonical 36-character textual form
// (XXXXXXXX-XXXX-XXXX-XXXX-XXXXXXXXXXXX, case-insensitive on input) into
// a GUID. Any deviation in length, separator placement, or hex content
// fails with gpterr.InvalidUuid.
func ParseGUID(s string) (GUID, error) {
	const op = "parse_guid"

	if len(s) != 36 {
		return Empty, gpterr.New(gpterr.InvalidUuid, op, "guid string must be 36 characters, got %d", len(s))
	}
	if s[8] != '-' || s[13] != '-' || s[18] != '-' || s[23] != '-' {
		return Empty, gpterr.New(gpterr.InvalidUuid, op, "guid string missing separators at expected positions: %q", s)
	}

	hexPart := func(lo, hi int) (uint64, error) {
		v, err := parseHex(s[lo:hi])
		if err != nil {
			return 0, gpterr.New(gpterr.InvalidUuid, op, "invalid hex digits in %q: %v", s[lo:hi], err)
		}
		return v, nil
	}

	timeLow, err := hexPart(0, 8)
	if err != nil {
		return Empty, err
	}
	timeMid, err := hexPart(9, 13)
	if err != nil {
		return Empty, err
	}
	timeHi, err := hexPart(14, 18)
	if err != nil {
		return Empty, err
	}
	clockSeq, err := hexPart(19, 23)
	if err != nil {
		return Empty, err
	}
	node, err := hexPart(24, 36)
	if err != nil {
		return Empty, err
	}

	var g GUID
	binary.LittleEndian.PutUint32(g[0:4], uint32(timeLow))
	binary.LittleEndian.PutUint16(g[4:6], uint16(timeMid))
	binary.LittleEndian.PutUint16(g[6:8], uint16(timeHi))
	g[8] = byte(clockSeq >> 8)
	g[9] = byte(clockSeq)
	for i := 0; i < 6; i++ {
		shift := uint(40 - 8*i)
		g[10+i] = byte(node >> shift)
	}

	return g, nil
}

func parseHex(s string) (uint64, error) {
	var v uint64
	for _, c := range s {
		var d uint64
		switch {
		case c >= '0' && c <= '9':
			d = uint64(c - '0')
		case c >= 'a' && c <= 'f':
			d = uint64(c-'a') + 10
		case c >= 'A' && c <= 'F':
			d = uint64(c-'A') + 10
		default:
			return 0, fmt.Errorf("not a hex digit: %q", c)
		}
		v = v<<4 | d
	}
	return v, nil
}

// String renders g in its canonical uppercase textual form.
func (g GUID) String() string {
	timeLow := binary.LittleEndian.Uint32(g[0:4])
	timeMid := binary.LittleEndian.Uint16(g[4:6])
	timeHi := binary.LittleEndian.Uint16(g[6:8])
	clockSeq := uint16(g[8])<<8 | uint16(g[9])

	s := fmt.Sprintf("%08X-%04X-%04X-%04X-%012X",
		timeLow, timeMid, timeHi, clockSeq, g[10:16])
	return strings.ToUpper(s)
}
