//go:build !linux
// +build !linux

package blockdevice

import "os"

// probeSize falls back to stat(2) on platforms without a BLKGETSIZE64
// equivalent wired up. This is accurate for regular disk images; a raw
// block device special file on these platforms will report its node size
// rather than its capacity, which is the acknowledged, documented
// limitation for non-Linux block-device targets.
func probeSize(f *os.File) (int64, error) {
	fi, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}
