package resize

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cloudboss/zgpt/pkg/gpt"
	"github.com/cloudboss/zgpt/pkg/gpttable"
)

// seedEntry is the literal-input shorthand used to build seed test images:
// a name plus an inclusive [start,end] LBA range.
type seedEntry struct {
	name       string
	start, end uint64
}

// buildImage writes a minimal, valid GPT image of the given sector count
// with the given non-empty entries, playing the role of the out-of-scope
// test-image generator described in the CLI contract. It returns the
// image path; the caller is responsible for removing it.
func buildImage(t *testing.T, totalSectors uint64, seeds []seedEntry) string {
	t.Helper()

	f, err := ioutil.TempFile("", "zgpt-resize-test-")
	assert.NoError(t, err)
	defer f.Close()

	assert.NoError(t, f.Truncate(int64(totalSectors)*gpt.SectorSize))

	const entriesLBA = 2
	lastLBA := totalSectors - 1
	firstUsable := uint64(34)
	lastUsable := lastLBA - 33

	entries := make([]gpt.Entry, gpt.DefaultNumEntries)
	for i, s := range seeds {
		typeGUID, err := gpt.NewGUID()
		assert.NoError(t, err)
		partGUID, err := gpt.NewGUID()
		assert.NoError(t, err)

		entries[i].TypeGUID = typeGUID
		entries[i].PartitionGUID = partGUID
		entries[i].LBAStart = s.start
		entries[i].LBAEnd = s.end
		entries[i].SetName(s.name)
	}

	buf, crc, err := gpt.EncodeEntries(entries, gpt.DefaultNumEntries)
	assert.NoError(t, err)

	diskGUID, err := gpt.NewGUID()
	assert.NoError(t, err)

	primary := gpt.NewHeader()
	primary.MyLBA = gpt.PrimaryHeaderLBA
	primary.AlternateLBA = lastLBA
	primary.FirstUsableLBA = firstUsable
	primary.LastUsableLBA = lastUsable
	primary.DiskGUID = diskGUID
	primary.PartitionEntryLBA = entriesLBA
	primary.PartitionEntryArrayCRC32 = crc

	primarySector := primary.Encode()
	_, err = f.WriteAt(primarySector[:], int64(gpt.PrimaryHeaderLBA)*gpt.SectorSize)
	assert.NoError(t, err)

	_, err = f.WriteAt(buf, int64(entriesLBA)*gpt.SectorSize)
	assert.NoError(t, err)

	backup := primary
	backup.MyLBA = lastLBA
	backup.AlternateLBA = gpt.PrimaryHeaderLBA
	backupSector := backup.Encode()
	_, err = f.WriteAt(backupSector[:], int64(lastLBA)*gpt.SectorSize)
	assert.NoError(t, err)

	return f.Name()
}

// s2Image returns the path to the "§8 S2" seed image: 50 MiB, EFI at
// 34-1057, root at 2048-10239, a gap, swap at 15360-17407, home at
// 20480-98303.
func s2Image(t *testing.T) string {
	const totalSectors = 50 * 1024 * 1024 / gpt.SectorSize
	return buildImage(t, totalSectors, []seedEntry{
		{"EFI System", 34, 1057},
		{"root", 2048, 10239},
		{"swap", 15360, 17407},
		{"home", 20480, 98303},
	})
}

func openLoaded(t *testing.T, path string) *gpttable.Table {
	t.Helper()
	tbl, err := gpttable.Open(path)
	assert.NoError(t, err)
	assert.NoError(t, tbl.Load())
	return tbl
}

func TestS1BasicLoad(t *testing.T) {
	const totalSectors = 10 * 1024 * 1024 / gpt.SectorSize
	path := buildImage(t, totalSectors, []seedEntry{
		{"EFI System", 34, 1057},
		{"Linux filesystem", 2048, 18431},
	})
	defer os.Remove(path)

	tbl := openLoaded(t, path)
	defer tbl.Close()

	list, err := ListPartitions(tbl)
	assert.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, "EFI System", list[0].Name)
	assert.Equal(t, "Linux filesystem", list[1].Name)
}

func TestS2ResizeGrowWithinGap(t *testing.T) {
	path := s2Image(t)
	defer os.Remove(path)

	tbl := openLoaded(t, path)
	defer tbl.Close()

	err := Resize(tbl, ByMegabytes(1, 5), DefaultConstraints())
	assert.NoError(t, err)

	info, ok := GetPartitionInfo(tbl, 1)
	assert.True(t, ok)
	assert.Equal(t, uint64(2048), info.StartLBA)
	assert.Equal(t, uint64(12287), info.EndLBA)
	assert.Equal(t, uint64(10240), info.SizeSectors)

	swap, ok := GetPartitionInfo(tbl, 2)
	assert.True(t, ok)
	assert.Equal(t, uint64(15360), swap.StartLBA)
	assert.Equal(t, uint64(17407), swap.EndLBA)

	home, ok := GetPartitionInfo(tbl, 3)
	assert.True(t, ok)
	assert.Equal(t, uint64(20480), home.StartLBA)
	assert.Equal(t, uint64(98303), home.EndLBA)
}

func TestS3ResizeGrowCollides(t *testing.T) {
	path := s2Image(t)
	defer os.Remove(path)

	tbl := openLoaded(t, path)
	defer tbl.Close()

	err := Resize(tbl, ByMegabytes(1, 10), DefaultConstraints())
	assert.Error(t, err)

	tbl2 := openLoaded(t, path)
	defer tbl2.Close()
	info, ok := GetPartitionInfo(tbl2, 1)
	assert.True(t, ok)
	assert.Equal(t, uint64(10239), info.EndLBA)
}

func TestS4ResizeToMax(t *testing.T) {
	path := s2Image(t)
	defer os.Remove(path)

	tbl := openLoaded(t, path)
	defer tbl.Close()

	before, ok := GetPartitionInfo(tbl, 3)
	assert.True(t, ok)

	assert.NoError(t, ResizeToMax(tbl, 3))

	tbl2 := openLoaded(t, path)
	defer tbl2.Close()
	after, ok := GetPartitionInfo(tbl2, 3)
	assert.True(t, ok)
	assert.True(t, after.SizeSectors >= before.SizeSectors)
	assert.Equal(t, tbl2.PrimaryHeader().LastUsableLBA, after.EndLBA)
}

func TestS5ShrinkRejected(t *testing.T) {
	const totalSectors = 10 * 1024 * 1024 / gpt.SectorSize
	path := buildImage(t, totalSectors, []seedEntry{
		{"only", 34, 34 + 5*2048 - 1},
	})
	defer os.Remove(path)

	tbl := openLoaded(t, path)
	defer tbl.Close()

	err := Resize(tbl, ByMegabytes(0, 1), DefaultConstraints())
	assert.Error(t, err)
}

func TestS6CorruptedHeaderDetected(t *testing.T) {
	path := s2Image(t)
	defer os.Remove(path)

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	assert.NoError(t, err)
	b := make([]byte, 1)
	_, err = f.ReadAt(b, 528)
	assert.NoError(t, err)
	b[0] ^= 0xff
	_, err = f.WriteAt(b, 528)
	assert.NoError(t, err)
	assert.NoError(t, f.Close())

	tbl, err := gpttable.Open(path)
	assert.NoError(t, err)
	defer tbl.Close()

	err = tbl.Load()
	assert.Error(t, err)
}

func TestS7InvalidSignatureDetected(t *testing.T) {
	path := s2Image(t)
	defer os.Remove(path)

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	assert.NoError(t, err)
	b := make([]byte, 1)
	_, err = f.ReadAt(b, 512)
	assert.NoError(t, err)
	b[0] ^= 0xff
	_, err = f.WriteAt(b, 512)
	assert.NoError(t, err)
	assert.NoError(t, f.Close())

	tbl, err := gpttable.Open(path)
	assert.NoError(t, err)
	defer tbl.Close()

	err = tbl.Load()
	assert.Error(t, err)
}

func TestS8RoundTrip(t *testing.T) {
	path := s2Image(t)
	defer os.Remove(path)

	tbl := openLoaded(t, path)
	assert.NoError(t, Resize(tbl, ByMegabytes(1, 6), DefaultConstraints()))
	assert.NoError(t, tbl.Close())

	tbl2 := openLoaded(t, path)
	defer tbl2.Close()
	info, ok := GetPartitionInfo(tbl2, 1)
	assert.True(t, ok)
	assert.Equal(t, uint64(6*2048), info.SizeSectors)

	// §8 property 2 also requires the backup header to reload and
	// validate, not just the primary.
	assert.NoError(t, tbl2.LoadBackupHeader())
	backup := tbl2.BackupHeader()
	primary := tbl2.PrimaryHeader()
	assert.Equal(t, primary.MyLBA, backup.AlternateLBA)
	assert.Equal(t, primary.AlternateLBA, backup.MyLBA)
	assert.Equal(t, primary.PartitionEntryArrayCRC32, backup.PartitionEntryArrayCRC32)
}

func TestAlignmentErrorRejectsMisalignedEnd(t *testing.T) {
	path := s2Image(t)
	defer os.Remove(path)

	tbl := openLoaded(t, path)
	defer tbl.Close()

	c := DefaultConstraints()
	c.AlignmentSectors = 2048
	err := Resize(tbl, ToEndLBA(1, 12000), c)
	assert.Error(t, err)
}

func TestMinSizeRejectsTooSmall(t *testing.T) {
	path := s2Image(t)
	defer os.Remove(path)

	tbl := openLoaded(t, path)
	defer tbl.Close()

	c := DefaultConstraints()
	c.AllowShrinking = true
	c.MinSizeSectors = 100000
	err := Resize(tbl, BySectors(1, 10), c)
	assert.Error(t, err)
}

func TestPartitionNotFound(t *testing.T) {
	path := s2Image(t)
	defer os.Remove(path)

	tbl := openLoaded(t, path)
	defer tbl.Close()

	err := Resize(tbl, BySectors(5, 100), DefaultConstraints())
	assert.Error(t, err)

	err = Resize(tbl, BySectors(200, 100), DefaultConstraints())
	assert.Error(t, err)
}

func TestLoadIsIdempotent(t *testing.T) {
	path := s2Image(t)
	defer os.Remove(path)

	tbl := openLoaded(t, path)
	defer tbl.Close()

	before, err := tbl.Entries()
	assert.NoError(t, err)
	snapshot := append([]gpt.Entry(nil), before...)

	assert.NoError(t, tbl.Load())

	after, err := tbl.Entries()
	assert.NoError(t, err)
	assert.Equal(t, snapshot, after)
}

func TestMaxSizeAtFullExtentIsANoOpGrow(t *testing.T) {
	const totalSectors = 10 * 1024 * 1024 / gpt.SectorSize
	path := buildImage(t, totalSectors, []seedEntry{
		{"all", 34, totalSectors - 34},
	})
	defer os.Remove(path)

	tbl := openLoaded(t, path)
	defer tbl.Close()

	max, err := MaxSize(tbl, 0)
	assert.NoError(t, err)
	assert.Equal(t, uint64(totalSectors-34-34+1), max)

	assert.NoError(t, ResizeToMax(tbl, 0))
	info, ok := GetPartitionInfo(tbl, 0)
	assert.True(t, ok)
	assert.Equal(t, tbl.PrimaryHeader().LastUsableLBA, info.EndLBA)
}

func TestMaxSizeWithAdjacentPartitionLeavesNoGrowthRoom(t *testing.T) {
	const totalSectors = 10 * 1024 * 1024 / gpt.SectorSize
	path := buildImage(t, totalSectors, []seedEntry{
		{"first", 34, 100},
		{"adjacent", 101, 200},
	})
	defer os.Remove(path)

	tbl := openLoaded(t, path)
	defer tbl.Close()

	max, err := MaxSize(tbl, 0)
	assert.NoError(t, err)
	assert.Equal(t, uint64(100-34+1), max)

	assert.NoError(t, ResizeToMax(tbl, 0))
	info, ok := GetPartitionInfo(tbl, 0)
	assert.True(t, ok)
	assert.Equal(t, uint64(100), info.EndLBA)
}
