//go:build linux
// +build linux

package blockdevice

import (
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// probeSize determines f's byte length. For a regular file that is the
// file length; for a block device special file it is read with the
// BLKGETSIZE64 ioctl, since stat(2) reports zero for block devices.
func probeSize(f *os.File) (int64, error) {
	fi, err := f.Stat()
	if err != nil {
		return 0, err
	}

	if fi.Mode()&os.ModeDevice == 0 {
		return fi.Size(), nil
	}

	var size uint64
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), unix.BLKGETSIZE64, uintptr(unsafe.Pointer(&size)))
	if errno != 0 {
		return 0, errno
	}
	return int64(size), nil
}
