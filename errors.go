package chardev

import (
	"errors"
	"fmt"
)

// Lifecycle errors returned by DeviceBinding.Create. Each one wraps the
// underlying registry error; match with errors.Is.
var (
	ErrRegistrationFailed  = errors.New("char device registration failed")
	ErrClassCreationFailed = errors.New("device class creation failed")
	ErrNodePublishFailed   = errors.New("device node publication failed")
)

// I/O errors.
var (
	// ErrDeviceNotReady is returned when read/write/open is attempted while
	// the binding is not in StateNodePublished.
	ErrDeviceNotReady = errors.New("device not ready")

	// ErrSessionClosed is returned by I/O on a closed session.
	ErrSessionClosed = errors.New("session closed")
)

// TransferFault reports a copy between caller memory and buffer storage that
// could not complete. The operation is aborted without advancing the cursor.
//
// End-of-data is NOT a fault: reading or writing at or past capacity is a
// zero-length success.
type TransferFault struct {
	Op     string // "read" or "write"
	Offset uint64 // cursor position the transfer started at
	Length int    // bytes the transfer attempted to move
	Cause  error
}

func (f *TransferFault) Error() string {
	return fmt.Sprintf("transfer fault: %s of %d bytes at offset %d: %v",
		f.Op, f.Length, f.Offset, f.Cause)
}

func (f *TransferFault) Unwrap() error { return f.Cause }

// IsTransferFault reports whether err is (or wraps) a TransferFault.
func IsTransferFault(err error) bool {
	var f *TransferFault
	return errors.As(err, &f)
}
