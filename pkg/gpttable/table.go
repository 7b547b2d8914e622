// Package gpttable is the context layer: it owns an open block device plus
// whatever of the primary header, backup header, and partition entry
// array have been loaded from it, and knows how to write a validated
// mutation back out in crash-aware order.
package gpttable

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"github.com/cloudboss/zgpt/pkg/blockdevice"
	"github.com/cloudboss/zgpt/pkg/gpt"
	"github.com/cloudboss/zgpt/pkg/gpterr"
)

// Table is an open GPT context: the device handle, and whichever headers
// and entries have been loaded so far. It is not safe for concurrent use
// (§5): callers must serialize access themselves.
type Table struct {
	dev *blockdevice.Device

	primary *gpt.Header
	backup  *gpt.Header
	entries []gpt.Entry
}

// Open opens path as a block device and returns an unloaded Table. Call
// Load (or LoadPrimaryHeader/LoadEntryArray individually) before reading
// partitions.
func Open(path string) (*Table, error) {
	dev, err := blockdevice.Open(path)
	if err != nil {
		return nil, err
	}
	return &Table{dev: dev}, nil
}

// Close releases the underlying device handle.
func (t *Table) Close() error {
	return t.dev.Close()
}

// Device exposes the underlying block device, e.g. so a caller can report
// its size.
func (t *Table) Device() *blockdevice.Device {
	return t.dev
}

// PrimaryHeader returns the most recently loaded primary header, or nil if
// none has been loaded.
func (t *Table) PrimaryHeader() *gpt.Header {
	return t.primary
}

// BackupHeader returns the most recently loaded backup header, or nil if
// none has been loaded.
func (t *Table) BackupHeader() *gpt.Header {
	return t.backup
}

// LoadPrimaryHeader reads and validates the header at LBA 1 (signature,
// header_size, CRC-32 per §4.1) and stores a copy.
func (t *Table) LoadPrimaryHeader() error {
	const op = "load_primary_header"

	sector := make([]byte, gpt.SectorSize)
	if err := t.dev.ReadSector(gpt.PrimaryHeaderLBA, sector); err != nil {
		return err
	}

	h, err := gpt.DecodeHeader(sector)
	if err != nil {
		return err
	}
	if h.MyLBA != gpt.PrimaryHeaderLBA {
		return gpterr.New(gpterr.InvalidLbaRange, op, "primary header my_lba %d != %d", h.MyLBA, uint64(gpt.PrimaryHeaderLBA))
	}

	t.primary = &h
	return nil
}

// LoadBackupHeader reads and validates the header at the primary header's
// alternate_lba. Requires LoadPrimaryHeader to have succeeded first.
func (t *Table) LoadBackupHeader() error {
	const op = "load_backup_header"

	if t.primary == nil {
		return gpterr.New(gpterr.InvalidState, op, "primary header must be loaded first")
	}

	sector := make([]byte, gpt.SectorSize)
	if err := t.dev.ReadSector(t.primary.AlternateLBA, sector); err != nil {
		return err
	}

	h, err := gpt.DecodeHeader(sector)
	if err != nil {
		return err
	}
	if h.MyLBA != t.primary.AlternateLBA {
		return gpterr.New(gpterr.InvalidLbaRange, op, "backup header my_lba %d != expected %d", h.MyLBA, t.primary.AlternateLBA)
	}
	if h.AlternateLBA != gpt.PrimaryHeaderLBA {
		return gpterr.New(gpterr.InvalidLbaRange, op, "backup header alternate_lba %d != %d", h.AlternateLBA, uint64(gpt.PrimaryHeaderLBA))
	}

	t.backup = &h
	return nil
}

// LoadEntryArray reads and validates the partition entry array referenced
// by the primary header. If entries are already loaded this is a no-op.
// Requires LoadPrimaryHeader to have succeeded first.
func (t *Table) LoadEntryArray() error {
	const op = "load_entry_array"

	if t.primary == nil {
		return gpterr.New(gpterr.InvalidState, op, "primary header must be loaded first")
	}
	if t.entries != nil {
		return nil
	}

	numBytes := int(t.primary.NumPartitionEntries) * gpt.EntrySize
	sectors := (numBytes + gpt.SectorSize - 1) / gpt.SectorSize
	buf := make([]byte, sectors*gpt.SectorSize)

	if err := t.dev.ReadSectors(t.primary.PartitionEntryLBA, buf); err != nil {
		return err
	}

	crc, err := gpt.EntryArrayCRC(buf[:numBytes], t.primary.NumPartitionEntries)
	if err != nil {
		return err
	}
	if crc != t.primary.PartitionEntryArrayCRC32 {
		return gpterr.New(gpterr.InvalidCrc32, op, "entry array crc32 %#x != header %#x", crc, t.primary.PartitionEntryArrayCRC32)
	}

	entries := make([]gpt.Entry, t.primary.NumPartitionEntries)
	for i := range entries {
		rec := buf[i*gpt.EntrySize : (i+1)*gpt.EntrySize]
		e, err := gpt.DecodeEntry(rec)
		if err != nil {
			return err
		}
		entries[i] = e
	}

	t.entries = entries
	return nil
}

// Load is LoadPrimaryHeader followed by LoadEntryArray.
func (t *Table) Load() error {
	if err := t.LoadPrimaryHeader(); err != nil {
		return err
	}
	return t.LoadEntryArray()
}

// Entries returns the loaded entry array. Callers may mutate slot fields
// in place; Save will pick up the changes.
func (t *Table) Entries() ([]gpt.Entry, error) {
	const op = "entries"
	if t.entries == nil {
		return nil, gpterr.New(gpterr.InvalidState, op, "entries not loaded")
	}
	return t.entries, nil
}

// GetPartition returns a pointer to the n-th entry slot, or nil if n is
// out of range or the slot is empty. The pointer is a reference into the
// Table's owned buffer and is valid until the next Load or Close.
func (t *Table) GetPartition(n int) *gpt.Entry {
	if t.entries == nil || n < 0 || n >= len(t.entries) {
		return nil
	}
	if t.entries[n].IsEmpty() {
		return nil
	}
	return &t.entries[n]
}

// FindPartitionByName linearly scans non-empty entries for the first one
// whose decoded name matches name exactly.
func (t *Table) FindPartitionByName(name string) *gpt.Entry {
	for i := range t.entries {
		if t.entries[i].IsEmpty() {
			continue
		}
		if t.entries[i].Name() == name {
			return &t.entries[i]
		}
	}
	return nil
}

// writeEntryArray serializes the in-memory entries, writes them starting
// at the primary header's partition_entry_lba, and updates the primary
// header's partition_entry_array_crc32 in memory (it does not write the
// header itself).
func (t *Table) writeEntryArray() error {
	const op = "write_entry_array"

	if t.primary == nil || t.entries == nil {
		return gpterr.New(gpterr.InvalidState, op, "primary header and entries must be loaded")
	}

	buf, crc, err := gpt.EncodeEntries(t.entries, t.primary.NumPartitionEntries)
	if err != nil {
		return err
	}

	if err := t.dev.WriteSectors(t.primary.PartitionEntryLBA, buf); err != nil {
		return err
	}

	t.primary.PartitionEntryArrayCRC32 = crc
	return nil
}

// writePrimaryHeader recomputes header_crc32 and writes the primary
// header to LBA 1.
func (t *Table) writePrimaryHeader() error {
	const op = "write_primary_header"

	if t.primary == nil {
		return gpterr.New(gpterr.InvalidState, op, "primary header must be loaded")
	}

	sector := t.primary.Encode()
	return t.dev.WriteSector(gpt.PrimaryHeaderLBA, sector[:])
}

// writeBackupHeader synthesizes a mirror of the primary header with
// my_lba and alternate_lba swapped, recomputes its CRC, and writes it at
// the backup LBA. It shares the primary's entry-array CRC: this core
// writes only one on-disk copy of the entry array, at the primary
// location (§9's documented deviation from the UEFI specification).
func (t *Table) writeBackupHeader() error {
	const op = "write_backup_header"

	if t.primary == nil {
		return gpterr.New(gpterr.InvalidState, op, "primary header must be loaded")
	}

	backup := *t.primary
	backup.MyLBA = t.primary.AlternateLBA
	backup.AlternateLBA = gpt.PrimaryHeaderLBA

	sector := backup.Encode()
	if err := t.dev.WriteSector(backup.MyLBA, sector[:]); err != nil {
		return err
	}

	t.backup = &backup
	return nil
}

// Save commits the in-memory entry array and both headers to disk in the
// order entry array, primary header, backup header, flush (§5). This
// ordering is deliberate: a crash before the primary header write leaves
// the old, still-consistent primary header in place (it will simply fail
// its entry-array CRC check against the now-mismatched array on reload,
// which is detectable, rather than silently validating stale data).
func (t *Table) Save() error {
	if err := t.writeEntryArray(); err != nil {
		return err
	}
	if err := t.writePrimaryHeader(); err != nil {
		return err
	}
	if err := t.writeBackupHeader(); err != nil {
		return err
	}
	return t.dev.Flush()
}
