// Package ccerr defines the sentinel error kinds shared across the
// programmer/debugger stack. Call sites wrap one of these with
// fmt.Errorf("...: %w", ErrX) so callers can use errors.Is.
package ccerr

import "errors"

var (
	// ErrDeviceNotFound means no USB device matched the vendor/product ID.
	ErrDeviceNotFound = errors.New("device not found")

	// ErrUSBTransfer means a control or bulk transfer failed or was short.
	ErrUSBTransfer = errors.New("usb transfer failed")

	// ErrBadState means the probe reported a nonzero state before enter_debug.
	ErrBadState = errors.New("probe busy")

	// ErrLocked means the target's debug interface is locked.
	ErrLocked = errors.New("target is locked")

	// ErrAlignment means a flash write length was not a multiple of 4.
	ErrAlignment = errors.New("flash write length must be a multiple of 4")

	// ErrHexFormat means a malformed Intel-HEX record was encountered.
	ErrHexFormat = errors.New("malformed hex record")

	// ErrChecksumMismatch means the host and target CRC-16 disagreed.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrTimeout means a polling loop exceeded its deadline.
	ErrTimeout = errors.New("operation timed out")

	// ErrOutOfMemory means a command buffer allocation failed.
	ErrOutOfMemory = errors.New("out of memory")

	// ErrConfig means a DMA configuration batch mixed channel 0 with
	// channels 1..4, which the hardware does not support.
	ErrConfig = errors.New("invalid dma configuration")

	// ErrNotImplemented marks an operation the original tool stubs out.
	ErrNotImplemented = errors.New("not implemented")
)
