package blockdevice

import (
	"errors"
	"os"
	"syscall"

	pkgerrors "github.com/pkg/errors"

	"github.com/cloudboss/zgpt/pkg/gpterr"
)

// classify maps a raw I/O error into one of the taxonomy's I/O kinds
// (§4.2: the adapter never retries; it only surfaces a distinct kind).
// The error is wrapped with pkgerrors first so the diagnostic carries a
// stack trace alongside the original syscall error, without disturbing
// the errors.Is checks below.
func classify(op, path string, err error) error {
	if err == nil {
		return nil
	}
	err = pkgerrors.Wrapf(err, "%s %s", op, path)

	switch {
	case errors.Is(err, os.ErrPermission):
		return gpterr.Wrap(gpterr.PermissionDenied, op, err)
	case errors.Is(err, os.ErrNotExist):
		return gpterr.Wrap(gpterr.NoDevice, op, err)
	case errors.Is(err, syscall.EBUSY):
		return gpterr.Wrap(gpterr.DeviceBusy, op, err)
	case errors.Is(err, syscall.ENOSPC):
		return gpterr.Wrap(gpterr.NoSpaceLeft, op, err)
	case errors.Is(err, syscall.ESPIPE):
		return gpterr.Wrap(gpterr.Unseekable, op, err)
	default:
		return gpterr.Wrap(gpterr.IoError, op, err)
	}
}
