// Package gpterr defines the error taxonomy shared by the codec, block
// device, context, and resize layers. Every failure in those packages maps
// to exactly one Kind so that a CLI front-end can translate it into a
// diagnostic and exit code without inspecting message text.
package gpterr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure. It is deliberately narrow: one value per
// distinct condition the core can detect, no catch-all besides IoError.
type Kind int

// Kinds, grouped roughly by the layer that raises them.
const (
	Unknown Kind = iota
	InvalidSignature
	InvalidCrc32
	InvalidHeaderSize
	InvalidLbaRange
	InvalidUuid
	InvalidBufferSize
	InvalidState
	PartitionNotFound
	PartitionTableFull
	InvalidSize
	WouldShrink
	NotEnoughSpace
	OverlapDetected
	AlignmentError
	IoError
	PermissionDenied
	NoDevice
	DeviceBusy
	NoSpaceLeft
	Unseekable
)

var names = map[Kind]string{
	Unknown:             "unknown",
	InvalidSignature:    "invalid signature",
	InvalidCrc32:        "invalid crc32",
	InvalidHeaderSize:   "invalid header size",
	InvalidLbaRange:     "invalid lba range",
	InvalidUuid:         "invalid uuid",
	InvalidBufferSize:   "invalid buffer size",
	InvalidState:        "invalid state",
	PartitionNotFound:   "partition not found",
	PartitionTableFull:  "partition table full",
	InvalidSize:         "invalid size",
	WouldShrink:         "would shrink",
	NotEnoughSpace:      "not enough space",
	OverlapDetected:     "overlap detected",
	AlignmentError:      "alignment error",
	IoError:             "io error",
	PermissionDenied:    "permission denied",
	NoDevice:            "no device",
	DeviceBusy:          "device busy",
	NoSpaceLeft:         "no space left",
	Unseekable:          "unseekable",
}

// String renders the Kind the way a diagnostic would name it.
func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return "unknown"
}

// Error is the concrete error value every package in the taxonomy returns.
// Op names the failing operation (e.g. "load_primary_header"); Err, when
// set, is the underlying cause (an I/O error, a parse error, ...).
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

// Unwrap exposes the underlying cause to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// New constructs an *Error with no wrapped cause.
func New(kind Kind, op string, format string, args ...interface{}) error {
	var err error
	if format != "" {
		err = fmt.Errorf(format, args...)
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Wrap attaches a Kind and operation name to an existing error.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the Kind carried by err, or Unknown if err does not
// carry one.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}
