// Package blockdevice adapts a path to a sector-addressable block device
// or regular file: open, determine byte length, read/write whole 512-byte
// sectors, and flush. It never retries a failed operation and never
// interprets the bytes it moves.
package blockdevice

import (
	"io"
	"os"

	"github.com/cloudboss/zgpt/pkg/gpt"
	"github.com/cloudboss/zgpt/pkg/gpterr"
)

// Device is an open block device or regular file, read+write, with a
// known byte length. It is not safe for concurrent use.
type Device struct {
	path string
	f    *os.File
	size int64
}

// Open opens path for read+write and determines its byte length. For a
// regular file this is the file length; for a block device it is the
// platform-specific probe in size_linux.go / size_other.go.
func Open(path string) (*Device, error) {
	const op = "open"

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, classify(op, path, err)
	}

	size, err := probeSize(f)
	if err != nil {
		f.Close()
		return nil, classify(op, path, err)
	}

	return &Device{path: path, f: f, size: size}, nil
}

// Path returns the path the device was opened from.
func (d *Device) Path() string {
	return d.path
}

// Size returns the device's byte length, determined once at Open time.
func (d *Device) Size() int64 {
	return d.size
}

// SectorCount returns the device's length in whole 512-byte sectors.
func (d *Device) SectorCount() uint64 {
	return uint64(d.size) / gpt.SectorSize
}

// ReadSector reads the sector at lba into buf, which must be exactly
// gpt.SectorSize bytes.
func (d *Device) ReadSector(lba uint64, buf []byte) error {
	const op = "read_sector"

	if len(buf) != gpt.SectorSize {
		return gpterr.New(gpterr.InvalidBufferSize, op, "buffer must be %d bytes, got %d", gpt.SectorSize, len(buf))
	}

	_, err := d.f.ReadAt(buf, int64(lba)*gpt.SectorSize)
	if err != nil {
		return classify(op, d.path, err)
	}
	return nil
}

// WriteSector writes buf, which must be exactly gpt.SectorSize bytes, to
// the sector at lba.
func (d *Device) WriteSector(lba uint64, buf []byte) error {
	const op = "write_sector"

	if len(buf) != gpt.SectorSize {
		return gpterr.New(gpterr.InvalidBufferSize, op, "buffer must be %d bytes, got %d", gpt.SectorSize, len(buf))
	}

	_, err := d.f.WriteAt(buf, int64(lba)*gpt.SectorSize)
	if err != nil {
		return classify(op, d.path, err)
	}
	return nil
}

// ReadSectors reads len(buf)/gpt.SectorSize contiguous sectors starting at
// lba. len(buf) must be a whole multiple of gpt.SectorSize.
func (d *Device) ReadSectors(lba uint64, buf []byte) error {
	const op = "read_sectors"

	if len(buf)%gpt.SectorSize != 0 {
		return gpterr.New(gpterr.InvalidBufferSize, op, "buffer length %d is not a multiple of %d", len(buf), gpt.SectorSize)
	}

	_, err := d.f.ReadAt(buf, int64(lba)*gpt.SectorSize)
	if err != nil {
		return classify(op, d.path, err)
	}
	return nil
}

// WriteSectors writes len(buf)/gpt.SectorSize contiguous sectors starting
// at lba. len(buf) must be a whole multiple of gpt.SectorSize.
func (d *Device) WriteSectors(lba uint64, buf []byte) error {
	const op = "write_sectors"

	if len(buf)%gpt.SectorSize != 0 {
		return gpterr.New(gpterr.InvalidBufferSize, op, "buffer length %d is not a multiple of %d", len(buf), gpt.SectorSize)
	}

	_, err := d.f.WriteAt(buf, int64(lba)*gpt.SectorSize)
	if err != nil {
		return classify(op, d.path, err)
	}
	return nil
}

// Flush forces durability of all prior writes.
func (d *Device) Flush() error {
	const op = "flush"

	if err := d.f.Sync(); err != nil {
		return classify(op, d.path, err)
	}
	return nil
}

// Close releases the underlying file handle.
func (d *Device) Close() error {
	return d.f.Close()
}

var _ io.Closer = (*Device)(nil)
